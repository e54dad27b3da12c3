package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"signal_chart/internal/handlers"
	"signal_chart/internal/logger"
	"signal_chart/internal/render"
	"signal_chart/internal/server"
	"signal_chart/internal/service"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP/WebSocket server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := logger.Get(cfg.LogLevel)

	a, err := buildApp(cfg, log)
	if err != nil {
		log.Errorw("failed to build app", "err", err)
		return err
	}
	defer func() {
		if cerr := a.close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	apiHandler := handlers.NewHandler(a.services, log, handlers.Options{
		AuthEnabled: cfg.Auth.Enabled,
		ImageWidth:  render.DefaultWidth,
		ImageHeight: render.DefaultHeight,
	})

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	refresherDone := startRefresher(ctx, a.services.Refresher, cfg.Chart.RefreshInterval)

	srv := &server.Server{}
	errc := runHTTPServer(srv, cfg.Port, apiHandler, log)

	err = waitForShutdown(cancel, srv, errc, log)
	// the deferred close must not race a tick that is still fetching
	<-refresherDone
	return err
}

// startRefresher runs r until ctx is canceled. The returned channel is closed
// once Run has returned.
func startRefresher(ctx context.Context, r service.Refresher, tick time.Duration) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.Run(ctx, tick)
	}()
	return done
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) <-chan error {
	errc := make(chan error, 1)
	go func() {
		if port == "" {
			port = "8080"
		}
		log.Infow("http_server_starting", "port", port)
		errc <- srv.Run(port, handler.InitRoutes())
	}()
	return errc
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, errc <-chan error, log *logger.Logger) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
	case err := <-errc:
		if err != nil {
			log.Errorw("error starting server", "err", err)
		}
		cancel()
		return err
	}

	log.Infow("shutting down server...")

	// stop background goroutines
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
		return err
	}
	return nil
}
