package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/stepsheet"
	"github.com/aretw0/stepsheet/pkg/adapters/file"
	"github.com/aretw0/stepsheet/pkg/domain"
	"github.com/aretw0/stepsheet/pkg/ingest"
	"github.com/aretw0/stepsheet/pkg/observability"
	"github.com/aretw0/stepsheet/pkg/ports"
)

// createEngine initializes an engine over opts.Data with standard CLI
// conventions. extra options are applied last.
func createEngine(opts Options, store ports.AnalysisStore, logger *slog.Logger, extra ...stepsheet.Option) (*stepsheet.Engine, error) {
	comma, err := opts.comma()
	if err != nil {
		return nil, err
	}
	engineOpts := []stepsheet.Option{
		stepsheet.WithLogger(logger),
		stepsheet.WithStore(store),
		stepsheet.WithCSVOptions(ingest.WithComma(comma)),
	}
	if opts.Debug {
		engineOpts = append(engineOpts, stepsheet.WithLifecycleHooks(observability.LoggingHooks(logger)))
	}
	engineOpts = append(engineOpts, extra...)

	engine, err := stepsheet.NewFromCSV(opts.Data, engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return engine, nil
}

// loadAnalysis resolves ref as a file when one exists at that path, and as
// a stored analysis name otherwise.
func loadAnalysis(ctx context.Context, store ports.AnalysisStore, ref string) (*domain.Analysis, error) {
	if info, err := os.Stat(ref); err == nil && !info.IsDir() {
		return file.LoadFile(ref)
	}
	analysis, err := store.Load(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("load analysis %q: %w", ref, err)
	}
	return analysis, nil
}

// replayed builds an engine and replays the analysis named by ref on it. An
// empty ref starts from an empty log.
func replayed(ctx context.Context, opts Options, ref string, logger *slog.Logger, extra ...stepsheet.Option) (*stepsheet.Engine, func(), error) {
	store, closer, err := OpenStore(opts)
	if err != nil {
		return nil, nil, err
	}
	done := func() { closer.Close() }

	engine, err := createEngine(opts, store, logger, extra...)
	if err != nil {
		done()
		return nil, nil, err
	}
	if ref == "" {
		return engine, done, nil
	}
	analysis, err := loadAnalysis(ctx, store, ref)
	if err != nil {
		done()
		return nil, nil, err
	}
	if err := engine.Replay(ctx, analysis); err != nil {
		done()
		return nil, nil, err
	}
	return engine, done, nil
}
