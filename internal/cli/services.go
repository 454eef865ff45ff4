package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/vvka-141/pgplan/internal/db"
	"github.com/vvka-141/pgplan/internal/files/filesystem"
	"github.com/vvka-141/pgplan/internal/files/loader"
	"github.com/vvka-141/pgplan/internal/services"
	"github.com/vvka-141/pgplan/pkg/pgplan"
)

// newDeploymentService wires the OS filesystem loader and real connectors.
func newDeploymentService(logger pgplan.Logger, opts ...services.Option) *services.DeploymentService {
	return services.NewDeploymentService(
		loader.New(filesystem.NewOSFileSystem()),
		services.NewSessionManager(db.NewConnector, logger),
		logger,
		opts...,
	)
}

// signalContext is cancelled on Ctrl+C or SIGTERM. A step already sent to the
// server still completes; the run stops before the next one.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(os.Stderr, "\n[INTERRUPT] Received interrupt signal, stopping after the current step...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}

// commandContext is cmd's context, or Background when cmd was not started by Execute.
func commandContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
