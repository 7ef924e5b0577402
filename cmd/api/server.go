package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"imdb/proj/internal/lib/logger"
	"imdb/proj/internal/lib/logger/sl"
)

// drainer is something that has to finish its in-flight work before the process exits.
type drainer struct {
	name     string
	shutdown func(ctx context.Context) error
}

// serve runs the HTTP server until SIGINT/SIGTERM, then stops accepting
// requests and drains each drainer in order within one shutdown timeout.
func (app *Application) serve(drainers ...drainer) error {
	defer app.Close()
	server := http.Server{
		Addr:         net.JoinHostPort(app.cfg.Server.Host, app.cfg.Server.Port),
		Handler:      app.routes(),
		ReadTimeout:  app.cfg.Server.ReadTimeout,
		WriteTimeout: app.cfg.Server.WriteTimeout,
		IdleTimeout:  app.cfg.Server.IdleTimeout,
		ErrorLog:     logger.LogAdapter(app.log),
	}
	shutdownErr := make(chan error)
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		sig := <-ch
		app.log.Info("shutting down the server gracefully", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), app.cfg.Server.ShutdownTimeout)
		defer cancel()
		err := server.Shutdown(ctx)
		app.Close()
		for _, d := range drainers {
			if derr := d.shutdown(ctx); derr != nil {
				app.log.Warn("failed to drain", "component", d.name, sl.Err(derr))
				err = errors.Join(err, fmt.Errorf("%s: %w", d.name, derr))
			}
		}
		shutdownErr <- err
	}()
	app.log.Info("starting server", "url", fmt.Sprintf("http://%s", server.Addr))
	err := server.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	err = <-shutdownErr
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			app.log.Error("graceful shutdown timed out.. forcing exit", "timeout", app.cfg.Server.ShutdownTimeout)
			return fmt.Errorf("graceful shutdown timed out: %w", err)
		}
		return err
	}
	app.log.Info("Server succesfully stopped")
	return nil
}
