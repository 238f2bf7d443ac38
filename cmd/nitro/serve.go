package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nitro-dev/nitro"
	"github.com/nitro-dev/nitro/pkg/router"
)

func serveCmd(dir *string) *cobra.Command {
	var (
		port    int
		host    string
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the application",
		Long: `Serve the pages declared in the route manifest.

Settings come from nitro.json, .env and NITRO_* environment
variables; flags override them.

Examples:
  nitro serve
  nitro serve --port=8080
  nitro serve -C ./site --host=0.0.0.0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(*dir, port, host, verbose)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to run on (default from nitro.json)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from nitro.json)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log at debug level")

	return cmd
}

func runServe(dir string, port int, host string, verbose bool) error {
	p, err := loadProject(dir)
	if err != nil {
		return err
	}
	defer p.close()

	if port > 0 {
		p.config.Server.Port = port
	}
	if host != "" {
		p.config.Server.Host = host
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := nitro.Setup(ctx, p.appConfig(logger), p.manifest.Layouts...)
	if err != nil {
		return err
	}
	defer app.Close()

	printBanner()
	fmt.Println("  serve")
	fmt.Println()
	success("Serving %d routes on %s", len(app.Tree().Pages()), p.config.URL())
	if app.Tree().Mode == router.HashMode {
		info("Hash routing enabled")
	}
	fmt.Println()

	srv := &http.Server{
		Addr:              p.config.Address(),
		Handler:           app.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	fmt.Println("\n\n  Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
