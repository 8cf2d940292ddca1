package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/dmitrijs2005/bookstore/internal/client/api"
	"github.com/dmitrijs2005/bookstore/internal/client/models"
	"github.com/dmitrijs2005/bookstore/internal/client/notify"
	"github.com/dmitrijs2005/bookstore/internal/logging"
)

// CatalogAPI is the part of the HTTP adapter the catalog needs.
type CatalogAPI interface {
	ListBooks(ctx context.Context) ([]models.Book, error)
	CreateBook(ctx context.Context, in models.BookInput) error
	GetBook(ctx context.Context, id string) (models.Book, error)
	UpdateBook(ctx context.Context, id string, in models.BookInput) error
	DeleteBook(ctx context.Context, id string) (string, error)
	RateBook(ctx context.Context, id string, stars int) (models.Book, string, error)
	ListReviews(ctx context.Context, bookID string) ([]models.Review, error)
	AddReview(ctx context.Context, bookID, content string) (models.Review, error)
	LikeReview(ctx context.Context, reviewID string) error
	DislikeReview(ctx context.Context, reviewID string) error
}

// Catalog owns the book list, the selected book and its reviews.
type Catalog struct {
	api    CatalogAPI
	notify notify.Notifier
	log    logging.Logger

	mu            sync.RWMutex
	books         []models.Book
	booksVersion  uint64
	selected      *models.Book
	reviews       []models.Review
	reviewsBookID string

	booksSlot    slot
	selectedSlot slot
	reviewsSlot  slot

	facetMu sync.Mutex
	facets  facetCache

	observers observers
}

func NewCatalog(a CatalogAPI, n notify.Notifier, log logging.Logger) *Catalog {
	return &Catalog{
		api:    a,
		notify: n,
		log:    log.With("component", "catalog"),
		books:  []models.Book{},
	}
}

func (c *Catalog) Subscribe(fn func()) (cancel func()) {
	return c.observers.subscribe(fn)
}

// fail reports err to the user unless the request was cancelled.
func (c *Catalog) fail(ctx context.Context, op string, err error, fallback string) error {
	if !errors.Is(err, context.Canceled) {
		c.log.Warn(ctx, op+" failed", "error", err)
		c.notify.Error(api.Message(err, fallback))
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (c *Catalog) setBooksLocked(books []models.Book) {
	if books == nil {
		books = []models.Book{}
	}
	c.books = books
	c.booksVersion++
}

// ListAll replaces the book list with the server's.
func (c *Catalog) ListAll(ctx context.Context) error {
	ctx, gen := c.booksSlot.begin(ctx)
	defer c.booksSlot.finish(gen)

	books, err := c.api.ListBooks(ctx)
	if err != nil {
		return c.fail(ctx, "list books", err, "Could not load books.")
	}

	ok := c.booksSlot.commit(gen, func() {
		c.mu.Lock()
		c.setBooksLocked(books)
		c.mu.Unlock()
	})
	if !ok {
		return ErrStale
	}
	c.observers.notify()
	return nil
}

// Create adds a book. The submitted fields are shown right away and then
// replaced by the server's records; if that reload fails the provisional
// row stays until the next ListAll.
func (c *Catalog) Create(ctx context.Context, in models.BookInput) error {
	if err := c.api.CreateBook(ctx, in); err != nil {
		return c.fail(ctx, "create book", err, "Could not add the book.")
	}

	c.mu.Lock()
	c.setBooksLocked(append(slices.Clone(c.books), in.Book()))
	c.mu.Unlock()
	c.notify.Success("Book Added Successfully")
	c.observers.notify()

	if err := c.ListAll(ctx); err != nil && !errors.Is(err, ErrStale) {
		c.log.Warn(ctx, "reload after create failed", "error", err)
	}
	return nil
}

// Update replaces a book's fields on the server. Local state is untouched;
// callers re-list to see the change.
func (c *Catalog) Update(ctx context.Context, in models.BookInput, id string) error {
	if err := c.api.UpdateBook(ctx, id, in); err != nil {
		return c.fail(ctx, "update book", err, "Could not update the book.")
	}
	c.notify.Success("Book Updated Successfully")
	return nil
}

// Remove deletes a book and drops it from the list.
func (c *Catalog) Remove(ctx context.Context, id string) error {
	msg, err := c.api.DeleteBook(ctx, id)
	if err != nil {
		return c.fail(ctx, "delete book", err, "Could not delete the book.")
	}

	c.mu.Lock()
	c.setBooksLocked(slices.DeleteFunc(slices.Clone(c.books), func(b models.Book) bool {
		return b.ID == id
	}))
	c.mu.Unlock()

	if msg == "" {
		msg = "Book deleted."
	}
	c.notify.Success(msg)
	c.observers.notify()
	return nil
}

// FetchOne loads a book into the selected slot.
func (c *Catalog) FetchOne(ctx context.Context, id string) error {
	ctx, gen := c.selectedSlot.begin(ctx)
	defer c.selectedSlot.finish(gen)

	book, err := c.api.GetBook(ctx, id)
	if err != nil {
		return c.fail(ctx, "fetch book", err, "Could not load the book.")
	}

	ok := c.selectedSlot.commit(gen, func() {
		c.mu.Lock()
		c.selected = &book
		c.mu.Unlock()
	})
	if !ok {
		return ErrStale
	}
	c.observers.notify()
	return nil
}

// Rate submits a star rating and selects the recomputed book. The range of
// stars is not checked here.
func (c *Catalog) Rate(ctx context.Context, id string, stars int) error {
	gen := c.selectedSlot.stamp()

	book, msg, err := c.api.RateBook(ctx, id, stars)
	if err != nil {
		return c.fail(ctx, "rate book", err, "Could not save your rating.")
	}

	committed := c.selectedSlot.commit(gen, func() {
		c.mu.Lock()
		c.selected = &book
		c.mu.Unlock()
	})
	if msg == "" {
		msg = "Rating saved."
	}
	c.notify.Success(msg)
	if committed {
		c.observers.notify()
	}
	return nil
}

// AddReview posts a review. The returned review is appended only when the
// current reviews belong to bookID.
func (c *Catalog) AddReview(ctx context.Context, bookID, content string) error {
	rv, err := c.api.AddReview(ctx, bookID, content)
	if err != nil {
		return c.fail(ctx, "add review", err, "Could not add your review.")
	}

	c.mu.Lock()
	appended := c.reviewsBookID == bookID
	if appended {
		c.reviews = append(slices.Clone(c.reviews), rv)
	}
	c.mu.Unlock()

	c.notify.Success("Review Added Successfully")
	if appended {
		c.observers.notify()
	}
	return nil
}

// FetchReviews replaces the reviews with those of bookID. Reviews of a
// different book are cleared before the request is sent.
func (c *Catalog) FetchReviews(ctx context.Context, bookID string) error {
	ctx, gen := c.reviewsSlot.begin(ctx)
	defer c.reviewsSlot.finish(gen)

	c.mu.Lock()
	cleared := c.reviewsBookID != bookID
	if cleared {
		c.reviews = []models.Review{}
		c.reviewsBookID = bookID
	}
	c.mu.Unlock()
	if cleared {
		c.observers.notify()
	}

	reviews, err := c.api.ListReviews(ctx, bookID)
	if err != nil {
		return c.fail(ctx, "fetch reviews", err, "Could not load reviews.")
	}
	if reviews == nil {
		reviews = []models.Review{}
	}

	ok := c.reviewsSlot.commit(gen, func() {
		c.mu.Lock()
		c.reviews = reviews
		c.reviewsBookID = bookID
		c.mu.Unlock()
	})
	if !ok {
		return ErrStale
	}
	c.observers.notify()
	return nil
}

// Like votes for a review and reloads the current reviews whatever the
// outcome.
func (c *Catalog) Like(ctx context.Context, reviewID string) error {
	return c.vote(ctx, "like review", reviewID, c.api.LikeReview)
}

// Dislike is the counterpart of Like.
func (c *Catalog) Dislike(ctx context.Context, reviewID string) error {
	return c.vote(ctx, "dislike review", reviewID, c.api.DislikeReview)
}

func (c *Catalog) vote(ctx context.Context, op, reviewID string, send func(context.Context, string) error) error {
	var voteErr error
	if err := send(ctx, reviewID); err != nil {
		voteErr = c.fail(ctx, op, err, "Could not record your vote.")
	}

	bookID := c.currentBookID()
	if bookID == "" {
		return voteErr
	}
	fetchErr := c.FetchReviews(ctx, bookID)
	if errors.Is(fetchErr, ErrStale) {
		fetchErr = nil
	}
	return errors.Join(voteErr, fetchErr)
}

func (c *Catalog) currentBookID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.reviewsBookID != "" {
		return c.reviewsBookID
	}
	if c.selected != nil {
		return c.selected.ID
	}
	return ""
}

func (c *Catalog) Books() []models.Book {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.books)
}

// Book looks a book up in the current list.
func (c *Catalog) Book(id string) (models.Book, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i := slices.IndexFunc(c.books, func(b models.Book) bool { return b.ID == id })
	if i < 0 {
		return models.Book{}, false
	}
	return c.books[i], true
}

func (c *Catalog) SelectedBook() (models.Book, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.selected == nil {
		return models.Book{}, false
	}
	return *c.selected, true
}

func (c *Catalog) Reviews() []models.Review {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Review, len(c.reviews))
	for i, rv := range c.reviews {
		rv.Likes = slices.Clone(rv.Likes)
		rv.Dislikes = slices.Clone(rv.Dislikes)
		out[i] = rv
	}
	return out
}

// ReviewsBookID is the book the current reviews belong to.
func (c *Catalog) ReviewsBookID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.reviewsBookID
}
