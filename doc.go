/*
Package stepsheet is an editable, replayable log of data transformation
steps over in-memory datasets, with code generation.

Every edit is a step: a kind (concat, change_column_dtype,
set_column_formula) plus parameters. The engine validates and executes the
step against the current datasets, appends it to the analysis log, and can
at any point turn the whole log into an equivalent pandas script. Steps can
be undone, redone, cleared, saved and replayed from scratch.

# Concept

The log is the source of truth. Each State is immutable, and each step
keeps the State it saw and the one it produced, so undo is a matter of
dropping the tail and code generation only reads the log. When a step
changes a dataset that an earlier formula reads from, the formula is
recomputed and the generated code repeats it at that point.

# Usage

	eng, err := stepsheet.NewFromCSV([]string{"sales.csv"})
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	_, err = eng.Apply(ctx, steps.KindChangeColumnDtype, map[string]any{
		"datasetIndex": 0,
		"columnId":     "amount",
		"targetType":   "float",
	})
	if err != nil {
		log.Fatal(err)
	}

	code, _ := eng.Code(transpile.WithComments(true))
	fmt.Print(code)

Saved analyses live in an AnalysisStore (memory, file or redis adapters),
optionally wrapped with the encryption middleware. Lifecycle hooks report
every step, replay and history change; the observability package turns them
into Prometheus metrics.
*/
package stepsheet
