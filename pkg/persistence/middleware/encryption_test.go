package middleware_test

import (
	"context"
	"crypto/rand"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/stepsheet/pkg/adapters/memory"
	"github.com/aretw0/stepsheet/pkg/domain"
	"github.com/aretw0/stepsheet/pkg/persistence/middleware"
	"github.com/aretw0/stepsheet/pkg/ports"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		t.Fatal(err)
	}
	return k
}

func secretAnalysis(name, formula string) *domain.Analysis {
	return &domain.Analysis{
		Name: name,
		Steps: []domain.StepRecord{{
			Kind:    "set_column_formula",
			Version: 1,
			Params:  map[string]any{"datasetIndex": 0, "columnHeader": "Margin", "formula": formula},
		}},
	}
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	ports.RunAnalysisStoreContract(t, mw(memory.NewStore()))
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlying := memory.NewStore()
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	secure := mw(underlying)

	ctx := context.Background()
	require.NoError(t, secure.Save(ctx, "pricing", secretAnalysis("pricing", "Price * 0.37")))

	// The underlying store only holds the envelope
	stored, err := underlying.Load(ctx, "pricing")
	require.NoError(t, err)
	assert.Equal(t, "pricing", stored.Name)
	require.Len(t, stored.Steps, 1)
	assert.Equal(t, domain.StepKind("__encrypted__"), stored.Steps[0].Kind)
	assert.NotContains(t, stored.Steps[0].Params["ciphertext"], "Price")

	loaded, err := secure.Load(ctx, "pricing")
	require.NoError(t, err)
	assert.Equal(t, "Price * 0.37", loaded.Steps[0].Params["formula"])
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlying := memory.NewStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)

	secureOld := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})(underlying)
	ctx := context.Background()
	require.NoError(t, secureOld.Save(ctx, "rotation", secretAnalysis("rotation", "A * 2")))

	secureNew := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})(underlying)

	loaded, err := secureNew.Load(ctx, "rotation")
	require.NoError(t, err, "fallback key decrypts")
	assert.Equal(t, "A * 2", loaded.Steps[0].Params["formula"])

	// Saving again seals with the new key
	loaded.Steps[0].Params["formula"] = "A * 3"
	require.NoError(t, secureNew.Save(ctx, "rotation", loaded))

	_, err = secureOld.Load(ctx, "rotation")
	assert.Error(t, err, "the old key alone can no longer decrypt")
}

func TestEncryptionMiddleware_RejectsPlainAnalysis(t *testing.T) {
	underlying := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, underlying.Save(ctx, "plain", secretAnalysis("plain", "A")))

	secure := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlying)
	_, err := secure.Load(ctx, "plain")
	assert.ErrorContains(t, err, "envelope")

	_, err = secure.Load(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrAnalysisNotFound)
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Expected panic for invalid key size")
		}
	}()
	middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
}
