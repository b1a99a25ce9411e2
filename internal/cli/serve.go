package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/aretw0/stepsheet"
	httpadapter "github.com/aretw0/stepsheet/pkg/adapters/http"
	mcpadapter "github.com/aretw0/stepsheet/pkg/adapters/mcp"
)

// NewServeHandler builds the HTTP API over a fresh engine, replaying ref
// first when it is not empty. The returned function releases the store.
func NewServeHandler(ctx context.Context, opts Options, ref string, logger *slog.Logger) (http.Handler, func(), error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	streams := httpadapter.NewStreamManager()

	engine, done, err := replayed(ctx, opts, ref, logger,
		stepsheet.WithMetrics(reg),
		stepsheet.WithLifecycleHooks(streams.Hooks()),
	)
	if err != nil {
		return nil, nil, err
	}
	handler := httpadapter.NewHandler(engine,
		httpadapter.WithLogger(logger),
		httpadapter.WithStreams(streams),
		httpadapter.WithMetrics(reg),
	)
	return handler, done, nil
}

// Serve runs the HTTP API on addr until ctx is done.
func Serve(ctx context.Context, w io.Writer, opts Options, addr, ref string, logger *slog.Logger) error {
	handler, done, err := NewServeHandler(ctx, opts, ref, logger)
	if err != nil {
		return err
	}
	defer done()

	srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "address", addr)
		serverErrors <- srv.ListenAndServe()
	}()
	printSystemMessage(w, "Serving on http://%s (Ctrl+C to stop)", addr)

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return ctx.Err()
	}
}

// ServeMCP runs the MCP server over stdio, or over SSE when port is set.
func ServeMCP(ctx context.Context, opts Options, ref string, port int, logger *slog.Logger) error {
	engine, done, err := replayed(ctx, opts, ref, logger)
	if err != nil {
		return err
	}
	defer done()

	server := mcpadapter.NewServer(engine)
	if port > 0 {
		return server.ServeSSE(ctx, port)
	}
	return server.ServeStdio()
}
