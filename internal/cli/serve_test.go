package cli_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/stepsheet/internal/cli"
	"github.com/aretw0/stepsheet/internal/logging"
)

func TestNewServeHandler(t *testing.T) {
	ctx := context.Background()
	opts, analysis := workspace(t)

	handler, done, err := cli.NewServeHandler(ctx, opts, analysis, logging.NewNop())
	require.NoError(t, err)
	defer done()

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", path, nil))
		return w
	}

	w := get("/code")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "sales['amount'] = to_number_series(sales['amount'])")

	w = get("/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `stepsheet_replays_total{outcome="success"} 1`)
	assert.Contains(t, w.Body.String(), "go_goroutines")

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("POST", "/undo", strings.NewReader("")))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, get("/code").Body.String())
}

func TestNewServeHandler_EmptyLog(t *testing.T) {
	opts, _ := workspace(t)

	handler, done, err := cli.NewServeHandler(context.Background(), opts, "", logging.NewNop())
	require.NoError(t, err)
	defer done()

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/datasets", nil))
	assert.Contains(t, w.Body.String(), `"name":"sales"`)
}
