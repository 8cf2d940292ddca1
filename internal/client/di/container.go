// Package di wires the bookstore client's components with samber/do.
package di

import (
	"io"

	"github.com/samber/do/v2"

	"github.com/dmitrijs2005/bookstore/internal/client/config"
)

// Streams are the terminal streams the client talks to. Notifications and
// the REPL use Out; logs go to Err.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// NewContainer creates the DI container for cfg and streams. Components are
// built on first invoke and shut down in reverse order by Shutdown.
func NewContainer(cfg *config.Config, streams Streams) *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.ProvideValue(injector, cfg)
	do.ProvideValue(injector, streams)
	do.Provide(injector, ProvideLogger)

	// Storage layer
	do.Provide(injector, ProvideDatabase)
	do.Provide(injector, ProvideStorage)

	// Remote API
	do.Provide(injector, ProvideAPIClient)
	do.Provide(injector, ProvideNotifier)

	// Stores
	do.Provide(injector, ProvideSession)
	do.Provide(injector, ProvideCatalog)

	// View
	do.Provide(injector, ProvideApp)

	return injector
}
