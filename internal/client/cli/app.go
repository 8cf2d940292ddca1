package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dmitrijs2005/bookstore/internal/client/models"
	"github.com/dmitrijs2005/bookstore/internal/client/store"
	"github.com/dmitrijs2005/bookstore/internal/logging"
	"golang.org/x/sync/errgroup"
)

// SessionStore is the session surface the views use.
type SessionStore interface {
	Login(ctx context.Context, email, password string) error
	Register(ctx context.Context, reg models.Registration) error
	Logout(ctx context.Context)
	Bootstrap(ctx context.Context) error
	RefreshSuggestions(ctx context.Context) []models.Suggestion
	FilterSuggestions(input string) []models.Suggestion
	Suggestions() []models.Suggestion
	State() store.State
	User() (models.User, bool)
	IsAdmin() bool
	CredentialExpiry() (time.Time, bool)
	Subscribe(fn func()) (cancel func())
}

// CatalogStore is the catalog surface the views use.
type CatalogStore interface {
	ListAll(ctx context.Context) error
	Create(ctx context.Context, in models.BookInput) error
	Update(ctx context.Context, in models.BookInput, id string) error
	Remove(ctx context.Context, id string) error
	FetchOne(ctx context.Context, id string) error
	Rate(ctx context.Context, id string, stars int) error
	AddReview(ctx context.Context, bookID, content string) error
	FetchReviews(ctx context.Context, bookID string) error
	Like(ctx context.Context, reviewID string) error
	Dislike(ctx context.Context, reviewID string) error
	Genres() []string
	Authors() []string
	Filter(q store.Query) []models.Book
	Books() []models.Book
	Book(id string) (models.Book, bool)
	SelectedBook() (models.Book, bool)
	Reviews() []models.Review
	Subscribe(fn func()) (cancel func())
}

type App struct {
	session  SessionStore
	catalog  CatalogStore
	log      logging.Logger
	reader   *bufio.Reader
	out      io.Writer
	validate *Validator

	statusMu    sync.RWMutex
	status      string
	unsubscribe func()
}

func NewApp(s SessionStore, c CatalogStore, log logging.Logger, in io.Reader, out io.Writer) *App {
	a := &App{
		session:  s,
		catalog:  c,
		log:      log,
		reader:   bufio.NewReader(in),
		out:      out,
		validate: NewValidator(),
	}
	a.refreshStatus()
	a.unsubscribe = s.Subscribe(a.refreshStatus)
	return a
}

// Bootstrap restores the session and loads the catalog and suggestions
// concurrently. Failures have already been reported by the stores.
//
// Listing books and suggestions are public routes, so they do not wait for
// the restored credential to be confirmed.
func (a *App) Bootstrap(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { return a.session.Bootstrap(ctx) })
	g.Go(func() error {
		a.session.RefreshSuggestions(ctx)
		return nil
	})
	g.Go(func() error { return a.catalog.ListAll(ctx) })
	return g.Wait()
}

// Run bootstraps the stores and serves the REPL until the user exits.
func (a *App) Run(ctx context.Context) error {
	defer a.unsubscribe()

	if err := a.Bootstrap(ctx); err != nil {
		a.log.Warn(ctx, "bootstrap incomplete", "error", err)
	}

	fmt.Fprintln(a.out, "Welcome to the Book Store (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, a.reader)
	return nil
}

func (a *App) isLoggedIn() bool {
	return a.session.State() == store.StateAuthenticated
}

func (a *App) isAdmin() bool {
	return a.isLoggedIn() && a.session.IsAdmin()
}

func (a *App) refreshStatus() {
	s := "guest"
	if u, ok := a.session.User(); ok {
		s = u.FullName
		if s == "" {
			s = u.Email
		}
		if u.IsAdmin {
			s += ", admin"
		}
	}

	a.statusMu.Lock()
	a.status = s
	a.statusMu.Unlock()
}

func (a *App) getStatus() string {
	a.statusMu.RLock()
	defer a.statusMu.RUnlock()
	return a.status
}

func (a *App) currentUserID() string {
	if u, ok := a.session.User(); ok {
		return u.ID
	}
	return ""
}
