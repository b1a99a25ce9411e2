package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aretw0/stepsheet/internal/presentation/tui"
	"github.com/aretw0/stepsheet/internal/validator"
	"github.com/aretw0/stepsheet/pkg/adapters/file"
	"github.com/aretw0/stepsheet/pkg/registry"
	"github.com/aretw0/stepsheet/pkg/transpile"
)

// Replay replays the analysis named by ref over opts.Data and writes the
// generated script to w.
func Replay(ctx context.Context, w io.Writer, opts Options, ref string, logger *slog.Logger) error {
	engine, done, err := replayed(ctx, opts, ref, logger)
	if err != nil {
		return err
	}
	defer done()

	code, err := engine.Code(transpile.WithComments(opts.Comments))
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, code)
	return err
}

// Describe replays the analysis named by ref and writes a markdown report
// with one line per step and a preview of every dataset. When w is a
// terminal the report is rendered with glamour.
func Describe(ctx context.Context, w io.Writer, opts Options, ref string, logger *slog.Logger) error {
	engine, done, err := replayed(ctx, opts, ref, logger)
	if err != nil {
		return err
	}
	defer done()

	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", ref)
	descriptions := engine.Describe()
	if len(descriptions) == 0 {
		sb.WriteString("_No steps._\n")
	}
	for i, d := range descriptions {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, d)
	}

	state := engine.State()
	for i, name := range state.Names {
		table, err := engine.Preview(i, opts.Rows)
		if err != nil {
			return err
		}
		fmt.Fprintf(&sb, "\n## %s\n\n%s", name, table)
	}

	out, _ := w.(*os.File)
	rendered, err := markdownRenderer(out)(sb.String())
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, rendered)
	return err
}

// Graph replays the analysis named by ref and writes it as a Mermaid chart.
func Graph(ctx context.Context, w io.Writer, opts Options, ref string, logger *slog.Logger) error {
	engine, done, err := replayed(ctx, opts, ref, logger)
	if err != nil {
		return err
	}
	defer done()

	_, err = io.WriteString(w, engine.Graph())
	return err
}

// ListAnalyses writes the names of the stored analyses.
func ListAnalyses(ctx context.Context, w io.Writer, opts Options) error {
	store, closer, err := OpenStore(opts)
	if err != nil {
		return err
	}
	defer closer.Close()

	names, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("error listing analyses: %w", err)
	}
	if len(names) == 0 {
		fmt.Fprintln(w, "No saved analyses found.")
		return nil
	}
	fmt.Fprintln(w, "Saved Analyses:")
	for _, n := range names {
		fmt.Fprintln(w, "- "+n)
	}
	return nil
}

// ShowAnalysis writes the stored analysis as YAML.
func ShowAnalysis(ctx context.Context, w io.Writer, opts Options, name string) error {
	store, closer, err := OpenStore(opts)
	if err != nil {
		return err
	}
	defer closer.Close()

	analysis, err := store.Load(ctx, name)
	if err != nil {
		return fmt.Errorf("error loading analysis '%s': %w", name, err)
	}
	data, err := file.Marshal(analysis, file.FormatYAML)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// ImportAnalysis stores the analysis file at path under name, or under the
// name the file carries when name is empty.
func ImportAnalysis(ctx context.Context, w io.Writer, opts Options, path, name string) error {
	analysis, err := file.LoadFile(path)
	if err != nil {
		return err
	}
	if name == "" {
		name = analysis.Name
	}
	analysis.Name = name

	store, closer, err := OpenStore(opts)
	if err != nil {
		return err
	}
	defer closer.Close()

	if err := store.Save(ctx, name, analysis); err != nil {
		return fmt.Errorf("error saving analysis '%s': %w", name, err)
	}
	printSystemMessage(w, "Saved analysis '%s' (%d steps).", name, len(analysis.Steps))
	return nil
}

// RemoveAnalyses deletes each named analysis, reporting every failure.
func RemoveAnalyses(ctx context.Context, w io.Writer, opts Options, names []string) error {
	store, closer, err := OpenStore(opts)
	if err != nil {
		return err
	}
	defer closer.Close()

	var errs []error
	for _, name := range names {
		if err := store.Delete(ctx, name); err != nil {
			fmt.Fprintln(w, tui.Warn(fmt.Sprintf("Error removing '%s': %v", name, err)))
			errs = append(errs, err)
			continue
		}
		fmt.Fprintf(w, "Removed analysis '%s'\n", name)
	}
	return errors.Join(errs...)
}

// Kinds writes every step kind with its parameter schema as JSON.
func Kinds(w io.Writer) error {
	reg, err := registry.New()
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(reg.Schemas())
}

// Validate checks the analysis named by ref without replaying it. Dataset
// references are checked against opts.Data when it is not empty.
func Validate(ctx context.Context, w io.Writer, opts Options, ref string) error {
	store, closer, err := OpenStore(opts)
	if err != nil {
		return err
	}
	defer closer.Close()

	analysis, err := loadAnalysis(ctx, store, ref)
	if err != nil {
		return err
	}
	reg, err := registry.New()
	if err != nil {
		return err
	}
	datasets := validator.SkipDatasetChecks
	if len(opts.Data) > 0 {
		datasets = len(opts.Data)
	}
	if err := validator.ValidateAnalysis(reg, analysis, datasets); err != nil {
		return err
	}
	fmt.Fprintln(w, tui.Success(fmt.Sprintf("Analysis '%s' is valid (%d steps).", ref, len(analysis.Steps))))
	return nil
}
