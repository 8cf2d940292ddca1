package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/bookstore/internal/client/models"
	"github.com/dmitrijs2005/bookstore/internal/client/store"
	"golang.org/x/sync/errgroup"
)

var errNoBookSelected = errors.New("no book selected")

// Books prints the catalog as loaded by the last list.
func (a *App) Books(_ context.Context) error {
	renderBooks(a.out, a.catalog.Books())
	return nil
}

// Search asks for the filter criteria and prints the matching books.
// Every criterion is optional.
func (a *App) Search(_ context.Context) error {
	var q store.Query
	var err error

	if q.Text, err = getSimpleText(a.reader, "Search text (title, author or genre)", a.out); err != nil {
		return err
	}
	if q.Genre, err = getSimpleText(a.reader, "Genre", a.out); err != nil {
		return err
	}
	if q.Author, err = getSimpleText(a.reader, "Author", a.out); err != nil {
		return err
	}
	minRating, err := getSimpleText(a.reader, "Minimum rating (1-5)", a.out)
	if err != nil {
		return err
	}
	if minRating != "" {
		if q.MinRating, err = strconv.ParseFloat(minRating, 64); err != nil {
			fmt.Fprintln(a.out, "Minimum rating must be a number.")
			return err
		}
	}

	renderBooks(a.out, a.catalog.Filter(q))
	return nil
}

// Suggest prints the search suggestions matching text. The suggestions are
// fetched on first use.
func (a *App) Suggest(ctx context.Context, text string) error {
	if len(a.session.Suggestions()) == 0 {
		a.session.RefreshSuggestions(ctx)
	}

	matches := a.session.FilterSuggestions(text)
	items := make([]string, 0, len(matches))
	for _, s := range matches {
		items = append(items, s.Text)
	}
	renderList(a.out, "Suggestions", items)
	return nil
}

// Show loads a book and its reviews concurrently and prints them.
func (a *App) Show(ctx context.Context, id string) error {
	var g errgroup.Group
	g.Go(func() error { return a.catalog.FetchOne(ctx, id) })
	g.Go(func() error { return a.catalog.FetchReviews(ctx, id) })
	if err := g.Wait(); err != nil {
		return err
	}
	return a.printSelected()
}

func (a *App) printSelected() error {
	b, ok := a.catalog.SelectedBook()
	if !ok {
		return errNoBookSelected
	}
	renderBook(a.out, b, a.catalog.Reviews(), a.currentUserID())
	return nil
}

func (a *App) selectedBook() (models.Book, error) {
	b, ok := a.catalog.SelectedBook()
	if !ok {
		fmt.Fprintln(a.out, "Open a book with 'show <id>' first.")
		return models.Book{}, errNoBookSelected
	}
	return b, nil
}

// Rate rates the book opened with show.
func (a *App) Rate(ctx context.Context, stars string) error {
	b, err := a.selectedBook()
	if err != nil {
		return err
	}

	n, err := strconv.Atoi(stars)
	if err != nil {
		fmt.Fprintln(a.out, "Rating must be a whole number from 1 to 5.")
		return err
	}
	if err := a.validate.Validate(ratingForm{Stars: n}); err != nil {
		return a.invalid(err)
	}

	return a.catalog.Rate(ctx, b.ID, n)
}

// Review asks for an optional rating and an optional review for the opened
// book, submits what was given and reloads the reviews.
func (a *App) Review(ctx context.Context) error {
	b, err := a.selectedBook()
	if err != nil {
		return err
	}

	stars, err := getSimpleText(a.reader, "Your rating (1-5, empty to skip)", a.out)
	if err != nil {
		return err
	}
	content, err := GetMultiline(a.reader, "Your review (empty to skip)", a.out)
	if err != nil {
		return err
	}

	if stars == "" && content == "" {
		fmt.Fprintln(a.out, "Nothing to submit.")
		return nil
	}

	var rating int
	if stars != "" {
		if rating, err = strconv.Atoi(stars); err != nil {
			fmt.Fprintln(a.out, "Rating must be a whole number from 1 to 5.")
			return err
		}
		if err := a.validate.Validate(ratingForm{Stars: rating}); err != nil {
			return a.invalid(err)
		}
	}
	if content != "" {
		if err := a.validate.Validate(reviewForm{Content: content}); err != nil {
			return a.invalid(err)
		}
	}

	var errs []error
	if rating > 0 {
		errs = append(errs, a.catalog.Rate(ctx, b.ID, rating))
	}
	if content != "" {
		errs = append(errs, a.catalog.AddReview(ctx, b.ID, content))
	}
	errs = append(errs, a.catalog.FetchReviews(ctx, b.ID))

	if err := errors.Join(errs...); err != nil {
		return err
	}
	return a.printSelected()
}

func (a *App) Like(ctx context.Context, reviewID string) error {
	err := a.catalog.Like(ctx, reviewID)
	renderReviews(a.out, a.catalog.Reviews(), a.currentUserID())
	return err
}

func (a *App) Dislike(ctx context.Context, reviewID string) error {
	err := a.catalog.Dislike(ctx, reviewID)
	renderReviews(a.out, a.catalog.Reviews(), a.currentUserID())
	return err
}

func (a *App) Genres(_ context.Context) error {
	renderList(a.out, "Genres", a.catalog.Genres())
	return nil
}

func (a *App) Authors(_ context.Context) error {
	renderList(a.out, "Authors", a.catalog.Authors())
	return nil
}
