package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/kb-resolver/internal/config"
	"github.com/sells-group/kb-resolver/internal/server"
)

const shutdownTimeout = 10 * time.Second

var (
	servePort           int
	serveReloadInterval time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the question resolver over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initApp(ctx, "serve")
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           server.New(env.Dispatcher, serverOptions(cfg, env)).Handler(),
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       120 * time.Second,
		}

		g, gctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			zap.L().Info("starting server", zap.Int("port", port))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return eris.Wrap(err, "server listen")
			}
			return nil
		})

		// Graceful shutdown
		g.Go(func() error {
			<-gctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})

		if serveReloadInterval > 0 {
			g.Go(func() error {
				reloadLoop(gctx, serveReloadInterval, env.Reload)
				return nil
			})
		}

		return g.Wait()
	},
}

// serverOptions maps config onto the HTTP handler. POST /reload is only
// mounted when server.reload_enabled is set.
func serverOptions(c *config.Config, env *appEnv) server.Options {
	opts := server.Options{
		AllowedOrigins: c.Server.AllowedOrigins,
		RequestTimeout: time.Duration(c.Server.RequestTimeoutSecs) * time.Second,
	}
	if c.Server.ReloadEnabled {
		opts.Reload = env.Reload
	}
	if env.Brain != nil {
		opts.Breaker = env.Brain.Breaker()
	}
	return opts
}

// reloadLoop calls reload every interval until ctx is done. Failures are
// logged and the current state keeps serving.
func reloadLoop(ctx context.Context, interval time.Duration, reload func(context.Context) error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := reload(ctx); err != nil {
				zap.L().Warn("knowledge base reload failed", zap.Error(err))
			}
		}
	}
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().DurationVar(&serveReloadInterval, "reload-interval", 0, "reload the knowledge base on this interval (0 disables)")
	rootCmd.AddCommand(serveCmd)
}
