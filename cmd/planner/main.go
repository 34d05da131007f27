// Command planner is a terminal front-end for the event-planning API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/nekogravitycat/event-planner/internal/apiclient"
	"github.com/nekogravitycat/event-planner/internal/config"
	"github.com/nekogravitycat/event-planner/internal/logger"
	"github.com/nekogravitycat/event-planner/internal/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	zlog, err := logger.New(cfg.IsProduction, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(2)
	}
	defer zlog.Sync()

	store, err := session.OpenFileStore(cfg.SessionFile)
	if err != nil {
		zlog.Fatal("failed to open session", zap.Error(err))
	}

	client := apiclient.NewFromConfig(cfg, store, zlog.Named("api"))
	app := newCLI(client, store, os.Stdin, os.Stdout, zlog)
	os.Exit(app.run(ctx, os.Args[1:]))
}
