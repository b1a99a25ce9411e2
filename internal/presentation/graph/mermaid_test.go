package graph_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aretw0/stepsheet/internal/presentation/graph"
	"github.com/aretw0/stepsheet/pkg/domain"
	"github.com/aretw0/stepsheet/pkg/registry"
	"github.com/aretw0/stepsheet/pkg/session"
	"github.com/aretw0/stepsheet/pkg/steps"
)

func analysisLog(t *testing.T) []*steps.Step {
	t.Helper()
	ctx := context.Background()
	initial := domain.NewState([]domain.Dataset{
		domain.NewDataset(domain.NewColumn("S", domain.DtypeObject, "1", "x")),
	}, nil)
	m := session.NewManager(registry.MustNew(), initial)

	_, err := m.Apply(ctx, steps.KindSetColumnFormula, map[string]any{
		"datasetIndex": 0, "columnHeader": "B", "formula": `=S + "a"`,
	})
	require.NoError(t, err)
	_, err = m.Apply(ctx, steps.KindChangeColumnDtype, map[string]any{
		"datasetIndex": 0, "columnId": "S", "targetType": "float",
	})
	require.NoError(t, err)
	_, err = m.Apply(ctx, steps.KindConcat, map[string]any{
		"join": steps.JoinInner, "datasetIndexes": []int{0, 0},
	})
	require.NoError(t, err)
	return m.Steps()
}

func TestGenerateMermaid(t *testing.T) {
	log := analysisLog(t)

	tests := []struct {
		name     string
		labels   []string
		overlay  *graph.GraphOverlay
		contains []string
		excludes []string
	}{
		{
			name: "Step Shapes",
			contains: []string{
				`initial(("initial"))`,
				`step0["set_column_formula"]`,
				`step2[["concat"]]`,
				"initial --> step0",
				"step1 --> step2",
			},
		},
		{
			name: "Coercion Warning",
			contains: []string{
				`step1[/"change_column_dtype <br/> ⚠ 1 not converted"/]`,
				"class step1 warn;",
			},
		},
		{
			name: "Refresh Edge",
			contains: []string{
				`step1 -. "refresh" .-> step0`,
			},
			excludes: []string{
				`step2 -. "refresh"`,
			},
		},
		{
			name:   "Labels Escape Quotes",
			labels: []string{`Set "B"`},
			contains: []string{
				`step0["Set 'B'"]`,
			},
		},
		{
			name:    "Overlay",
			overlay: &graph.GraphOverlay{Current: 2, Undone: []domain.StepKind{steps.KindConcat}},
			contains: []string{
				`undone0["concat"]`,
				"step2 -.- undone0",
				"class undone0 undone;",
				"class step2 current;",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(log, tt.labels, tt.overlay)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("GenerateMermaid() = \n%v\nWant substring: %v", got, want)
				}
			}
			for _, unwanted := range tt.excludes {
				if strings.Contains(got, unwanted) {
					t.Errorf("GenerateMermaid() = \n%v\nUnexpected substring: %v", got, unwanted)
				}
			}
		})
	}
}

func TestGenerateMermaid_Empty(t *testing.T) {
	got := graph.GenerateMermaid(nil, nil, nil)
	if got != "graph TD\n    initial((\"initial\"))\n" {
		t.Errorf("unexpected output:\n%s", got)
	}
}
