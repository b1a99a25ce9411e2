package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/stepsheet/pkg/adapters/file"
	"github.com/aretw0/stepsheet/pkg/domain"
	"github.com/aretw0/stepsheet/pkg/ports"
)

func TestFileStore_Contract(t *testing.T) {
	ports.RunAnalysisStoreContract(t, file.New(t.TempDir()))
}

func TestFileStore_YAMLContract(t *testing.T) {
	ports.RunAnalysisStoreContract(t, file.New(t.TempDir(), file.WithFormat(file.FormatYAML)))
}

func TestFileStore_LoadsHandWrittenYAML(t *testing.T) {
	dir := t.TempDir()
	content := `steps:
  - kind: change_column_dtype
    version: 1
    params:
      datasetIndex: 0
      columnId: A
      targetType: int
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cleanup.yml"), []byte(content), 0644))

	store := file.New(dir)
	analysis, err := store.Load(context.Background(), "cleanup")
	require.NoError(t, err)
	assert.Equal(t, "cleanup", analysis.Name, "name defaults to the file name")
	require.Len(t, analysis.Steps, 1)
	assert.Equal(t, domain.StepKind("change_column_dtype"), analysis.Steps[0].Kind)
	assert.Equal(t, 0, analysis.Steps[0].Params["datasetIndex"])

	names, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"cleanup"}, names)
}

func TestFileStore_SaveReplacesOtherFormat(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	analysis := &domain.Analysis{Name: "a", Steps: []domain.StepRecord{{Kind: "concat", Version: 1}}}

	require.NoError(t, file.New(dir, file.WithFormat(file.FormatYAML)).Save(ctx, "a", analysis))
	require.NoError(t, file.New(dir).Save(ctx, "a", analysis))

	_, err := os.Stat(filepath.Join(dir, "a.yaml"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "a.json"))
	assert.NoError(t, err)
}

func TestFileStore_ListMissingDir(t *testing.T) {
	store := file.New(filepath.Join(t.TempDir(), "nope"))
	names, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := file.LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, os.IsNotExist(err))
}
