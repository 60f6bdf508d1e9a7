// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

const (
	defaultPort          = "8080"
	defaultConfigPath    = "./configs/config.yaml"
	gracefulShutdownTime = 15 * time.Second
	startupTimeout       = 30 * time.Second
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", defaultConfigPath, "path to config file")
	flag.Parse()

	app, cleanup, err := InitializeApp(configPath)
	if err != nil {
		// app.Logger does not exist yet
		fmt.Fprintf(os.Stderr, "failed to initialize app: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()
	defer func() { _ = app.Logger.Sync() }()

	app.Logger.Info("using config file", zap.String("path", configPath))

	if err := bootstrap(app); err != nil {
		app.Logger.Error("startup failed", zap.Error(err))
		cleanup()
		os.Exit(1)
	}

	port := app.Config.App.Port
	if port == "" {
		port = defaultPort
	}
	addr := ":" + port

	server := &http.Server{
		Addr:              addr,
		Handler:           app.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	shutdownSignal := make(chan os.Signal, 1)
	signal.Notify(shutdownSignal, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		app.Logger.Info("starting server", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case sig := <-shutdownSignal:
		app.Logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		app.Logger.Error("server error, shutting down", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTime)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		app.Logger.Error("forced shutdown", zap.Error(err))
	} else {
		app.Logger.Info("server stopped gracefully")
	}
}

// bootstrap seeds the admin account and realigns the post id sequence.
func bootstrap(app *App) error {
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	created, err := app.Users.EnsureAdmin(ctx, app.Config.Admin)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if created {
		app.Logger.Info("seeded bootstrap admin", zap.String("username", app.Config.Admin.Username))
	}

	if err := app.Posts.SyncSequence(ctx); err != nil {
		return fmt.Errorf("sync post sequence: %w", err)
	}
	return nil
}
