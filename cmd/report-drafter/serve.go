// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/report-drafter/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the report API over HTTP",
	Long: `Serve starts the HTTP API: reports, section generation, the Deep Dive
workflow, exports, account quota and Prometheus metrics on /metrics.

Throttle and Deep Dive settings are reloaded when the config file changes.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := server.New(cfg.Server, server.Deps{
		Store:    a.store,
		Gate:     a.gate,
		Gen:      a.gen,
		Settings: a.settings,
		Logger:   logger,
	})

	viper.OnConfigChange(func(e fsnotify.Event) {
		next, err := loadConfig(viper.GetViper())
		if err != nil {
			logger.Warn("ignoring config change", zap.String("file", e.Name), zap.Error(err))
			return
		}
		a.settings.Update(next.Throttle, next.DeepDive)
		a.gate.SetStatusInterval(next.Throttle.StatusInterval)
		logger.Info("settings reloaded",
			zap.String("file", e.Name),
			zap.Duration("min_interval", next.Throttle.MinInterval),
			zap.Duration("item_delay", next.Throttle.ItemDelay),
			zap.Int("item_count", a.settings.ItemCount()))
	})
	if viper.ConfigFileUsed() != "" {
		viper.WatchConfig()
	}

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.Server.Addr), zap.String("model", a.gen.Model().Name()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := httpServer.Shutdown(shutdownCtx)
		srv.Shutdown()
		return err
	})
	return g.Wait()
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "listen address")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))

	rootCmd.AddCommand(serveCmd)
}
