package store

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/bookstore/internal/client/api"
	"github.com/dmitrijs2005/bookstore/internal/client/api/apitest"
	"github.com/dmitrijs2005/bookstore/internal/client/notify"
	"github.com/dmitrijs2005/bookstore/internal/client/storage"
	"github.com/dmitrijs2005/bookstore/internal/logging"
)

type env struct {
	srv     *apitest.Server
	client  *api.HTTPClient
	storage *storage.MemoryStorage
	notes   *notify.Recorder
	session *Session
	catalog *Catalog
}

func newEnv(t *testing.T) *env {
	t.Helper()
	srv := apitest.New(t)
	client := api.NewHTTPClient(srv.BaseURL())
	st := storage.NewMemoryStorage()
	notes := &notify.Recorder{}
	log := logging.Discard()

	return &env{
		srv:     srv,
		client:  client,
		storage: st,
		notes:   notes,
		session: NewSession(client, st, notes, log),
		catalog: NewCatalog(client, notes, log),
	}
}

func (e *env) storedToken(t *testing.T) (string, bool) {
	t.Helper()
	v, ok, err := e.storage.Get(context.Background(), storage.CredentialKey)
	if err != nil {
		t.Fatalf("storage get: %v", err)
	}
	return v, ok
}

// failingStorage wraps a Storage and fails the selected operations.
type failingStorage struct {
	storage.Storage
	setErr    error
	getErr    error
	removeErr error
}

func (f *failingStorage) Get(ctx context.Context, key string) (string, bool, error) {
	if f.getErr != nil {
		return "", false, f.getErr
	}
	return f.Storage.Get(ctx, key)
}

func (f *failingStorage) Set(ctx context.Context, key, value string) error {
	if f.setErr != nil {
		return f.setErr
	}
	return f.Storage.Set(ctx, key, value)
}

func (f *failingStorage) Remove(ctx context.Context, key string) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	return f.Storage.Remove(ctx, key)
}

var errBoom = errors.New("boom")
