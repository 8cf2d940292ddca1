package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"

	"github.com/dmitrijs2005/bookstore/internal/buildinfo"
	"github.com/dmitrijs2005/bookstore/internal/client/cli"
	"github.com/dmitrijs2005/bookstore/internal/client/config"
	"github.com/dmitrijs2005/bookstore/internal/client/di"
	"github.com/dmitrijs2005/bookstore/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	injector := di.NewContainer(cfg, di.Streams{In: os.Stdin, Out: os.Stdout, Err: os.Stderr})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := do.Invoke[*cli.App](injector)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start: %v\n", err)
		os.Exit(1)
	}
	log := do.MustInvoke[logging.Logger](injector)

	if err := app.Run(ctx); err != nil {
		log.Error(ctx, "run failed", "error", err)
	}

	if err := injector.Shutdown(); err != nil {
		log.Error(ctx, "shutdown error", "error", err)
	}
}
