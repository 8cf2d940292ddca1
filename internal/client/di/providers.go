package di

import (
	"context"
	"database/sql"
	"path/filepath"
	"time"

	"github.com/samber/do/v2"

	"github.com/dmitrijs2005/bookstore/internal/client/api"
	"github.com/dmitrijs2005/bookstore/internal/client/cli"
	"github.com/dmitrijs2005/bookstore/internal/client/config"
	"github.com/dmitrijs2005/bookstore/internal/client/notify"
	"github.com/dmitrijs2005/bookstore/internal/client/storage"
	"github.com/dmitrijs2005/bookstore/internal/client/store"
	"github.com/dmitrijs2005/bookstore/internal/filex"
	"github.com/dmitrijs2005/bookstore/internal/logging"
)

const (
	databaseFile = "bookstore.db"
	openTimeout  = 10 * time.Second
)

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (logging.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)
	streams := do.MustInvoke[Streams](i)

	return logging.New(streams.Err, cfg.LogLevel, cfg.LogFormat), nil
}

// DatabaseHandle wraps the client database with shutdown capability.
type DatabaseHandle struct {
	*sql.DB
	Path string
}

// Shutdown implements do.ShutdownerWithError.
func (h *DatabaseHandle) Shutdown() error {
	return h.Close()
}

// ProvideDatabase opens and migrates the SQLite database in the data
// directory.
func ProvideDatabase(i do.Injector) (*DatabaseHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[logging.Logger](i)

	dir, err := filex.EnsureDir(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(dir, databaseFile)

	ctx, cancel := context.WithTimeout(context.Background(), openTimeout)
	defer cancel()

	db, err := storage.Open(ctx, path)
	if err != nil {
		return nil, err
	}

	log.Debug(ctx, "database opened", "path", path)
	return &DatabaseHandle{DB: db, Path: path}, nil
}

// ProvideStorage provides durable credential storage, or an in-memory one
// when no data directory is configured.
func ProvideStorage(i do.Injector) (storage.Storage, error) {
	cfg := do.MustInvoke[*config.Config](i)
	if cfg.DataDir == "" {
		return storage.NewMemoryStorage(), nil
	}

	h, err := do.Invoke[*DatabaseHandle](i)
	if err != nil {
		return nil, err
	}
	return storage.NewSQLiteStorage(h.DB), nil
}

// ProvideAPIClient provides the HTTP adapter for the bookstore API.
func ProvideAPIClient(i do.Injector) (*api.HTTPClient, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[logging.Logger](i)

	return api.NewHTTPClient(cfg.ServerBaseURL,
		api.WithLogger(log.With("component", "api")),
		api.WithTimeout(cfg.RequestTimeout),
		api.WithRateLimit(cfg.RateLimit, cfg.RateBurst),
	), nil
}

// ProvideNotifier provides the console notifier.
func ProvideNotifier(i do.Injector) (notify.Notifier, error) {
	streams := do.MustInvoke[Streams](i)
	return notify.NewConsole(streams.Out), nil
}

func ProvideSession(i do.Injector) (*store.Session, error) {
	client := do.MustInvoke[*api.HTTPClient](i)
	log := do.MustInvoke[logging.Logger](i)
	notifier := do.MustInvoke[notify.Notifier](i)

	st, err := do.Invoke[storage.Storage](i)
	if err != nil {
		return nil, err
	}
	return store.NewSession(client, st, notifier, log), nil
}

func ProvideCatalog(i do.Injector) (*store.Catalog, error) {
	client := do.MustInvoke[*api.HTTPClient](i)
	log := do.MustInvoke[logging.Logger](i)
	notifier := do.MustInvoke[notify.Notifier](i)

	return store.NewCatalog(client, notifier, log), nil
}

// ProvideApp provides the interactive client.
func ProvideApp(i do.Injector) (*cli.App, error) {
	streams := do.MustInvoke[Streams](i)
	log := do.MustInvoke[logging.Logger](i)

	session, err := do.Invoke[*store.Session](i)
	if err != nil {
		return nil, err
	}
	catalog := do.MustInvoke[*store.Catalog](i)

	return cli.NewApp(session, catalog, log, streams.In, streams.Out), nil
}
