package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/stepsheet/pkg/domain"
)

// RunAnalysisStoreContract runs a suite of tests to verify that an
// AnalysisStore implementation adheres to the defined interface contract.
func RunAnalysisStoreContract(t *testing.T, store AnalysisStore) {
	ctx := context.Background()
	name := "contract-analysis-" + time.Now().Format("20060102150405")

	sample := func(name string) *domain.Analysis {
		return &domain.Analysis{
			Name: name,
			Steps: []domain.StepRecord{
				{
					Kind:    "change_column_dtype",
					Version: 1,
					Params:  map[string]any{"datasetIndex": 0, "columnId": "A", "targetType": "int"},
				},
				{
					Kind:    "concat",
					Version: 1,
					Params:  map[string]any{"join": "outer", "resetIndex": true, "datasetIndexes": []any{0, 1}},
				},
			},
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		analysis := sample(name)

		err := store.Save(ctx, name, analysis)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, name)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, name, loaded.Name)
		require.Len(t, loaded.Steps, 2)
		assert.Equal(t, domain.StepKind("change_column_dtype"), loaded.Steps[0].Kind)
		assert.Equal(t, 1, loaded.Steps[0].Version)
		assert.Equal(t, "int", loaded.Steps[0].Params["targetType"])
		// Serialising stores may hand numbers back as float64.
		assert.EqualValues(t, 0, loaded.Steps[0].Params["datasetIndex"])
		assert.Equal(t, true, loaded.Steps[1].Params["resetIndex"])
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		analysis := sample(name)
		analysis.Steps = analysis.Steps[:1]
		require.NoError(t, store.Save(ctx, name, analysis))

		loaded, err := store.Load(ctx, name)
		require.NoError(t, err)
		assert.Len(t, loaded.Steps, 1)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+name)
		assert.ErrorIs(t, err, domain.ErrAnalysisNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, name, sample(name))
		require.NoError(t, err)

		err = store.Delete(ctx, name)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, name)
		assert.ErrorIs(t, err, domain.ErrAnalysisNotFound, "Load after Delete should return ErrAnalysisNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := name + "-1"
		id2 := name + "-2"
		_ = store.Save(ctx, id1, sample(id1))
		_ = store.Save(ctx, id2, sample(id2))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		names, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, names, id1)
		assert.Contains(t, names, id2)
	})
}
