package main

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/medialink/internal/server"
	"github.com/desertthunder/medialink/internal/shared"
)

// ServeStub runs the in-memory backend until interrupted.
func (r *Runner) ServeStub(ctx context.Context, cmd *cli.Command) error {
	addr := cmd.String("addr")
	if addr == "" {
		addr = r.config.Stub.Addr()
	}

	logger := shared.WithLogger(r.logger, "component", "stub")
	stub := server.NewStub(logger)
	if cmd.Bool("unconfigured") {
		stub.SetConfigured(false)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go stub.Run(ctx, cmd.Duration("tick"))

	srv := server.NewServer(addr, stub.Handler(server.Defaults(logger)...), logger)
	r.writePlain("Stub backend listening on http://%s/api\n", addr)
	return srv.Run(ctx, 5*time.Second)
}

// Open opens a backend page in the default browser.
func (r *Runner) Open(ctx context.Context, cmd *cli.Command) error {
	base, err := url.Parse(r.config.Backend.URL)
	if err != nil {
		return fmt.Errorf("%w: backend.url: %v", shared.ErrInvalidConfig, err)
	}

	// The UI lives beside the API root, not under it.
	base.Path = strings.TrimSuffix(strings.TrimRight(base.Path, "/"), "/api")
	page := cmd.StringArg("path")
	if page == "" {
		page = "/settings"
	}
	target := base.JoinPath(page).String()

	r.logger.Info("opening browser", "url", target)
	if err := shared.OpenBrowser(ctx, target); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}
