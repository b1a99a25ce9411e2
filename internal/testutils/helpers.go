package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aretw0/stepsheet/pkg/domain"
)

// SetupWorkspace creates a temporary directory holding files, keyed by
// their path relative to it. It returns the absolute path to the directory.
// It fails the test immediately on error.
func SetupWorkspace(t *testing.T, files map[string]string) string {
	t.Helper()

	dir, err := filepath.Abs(t.TempDir())
	require.NoError(t, err, "Failed to get absolute path for temp dir")

	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644), "Failed to write %s", name)
	}
	return dir
}

// SalesAndReturns returns two integer datasets sharing an "amount" column.
// The first has two rows and the second one.
func SalesAndReturns() []domain.Dataset {
	return []domain.Dataset{
		domain.NewDataset(domain.NewColumn("amount", domain.DtypeInt, int64(10), int64(20))),
		domain.NewDataset(domain.NewColumn("amount", domain.DtypeInt, int64(-5))),
	}
}
