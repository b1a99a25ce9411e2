package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/stepsheet"
	"github.com/aretw0/stepsheet/internal/testutils"
	"github.com/aretw0/stepsheet/pkg/domain"
	"github.com/aretw0/stepsheet/pkg/steps"
)

func newServer(t *testing.T) *Server {
	t.Helper()
	eng, err := stepsheet.New(testutils.SalesAndReturns(), []string{"sales", "returns"})
	require.NoError(t, err)
	return NewServer(eng)
}

func call(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: args}}
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	switch c := res.Content[0].(type) {
	case mcp.TextContent:
		return c.Text
	case *mcp.TextContent:
		return c.Text
	}
	t.Fatalf("unexpected content %T", res.Content[0])
	return ""
}

const concatParams = `{"join": "outer", "resetIndex": true, "datasetIndexes": [0, 1]}`

func TestApplyUndoRedo(t *testing.T) {
	ctx := context.Background()
	s := newServer(t)

	res, err := s.handleApplyStep(ctx, mcp.CallToolRequest{}, map[string]any{
		"kind":   string(steps.KindConcat),
		"params": concatParams,
	})
	require.NoError(t, err)
	assert.Equal(t, steps.KindConcat, res.Kind)
	assert.NotEmpty(t, res.ID)
	assert.Equal(t, []string{"Concatenated sales, returns (outer join)"}, res.Steps)

	res, err = s.handleUndo(ctx, mcp.CallToolRequest{}, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Steps)
	_, err = s.handleUndo(ctx, mcp.CallToolRequest{}, nil)
	assert.ErrorIs(t, err, domain.ErrNothingToUndo)

	res, err = s.handleRedo(ctx, mcp.CallToolRequest{}, nil)
	require.NoError(t, err)
	assert.Equal(t, steps.KindConcat, res.Kind)
	_, err = s.handleRedo(ctx, mcp.CallToolRequest{}, nil)
	assert.ErrorIs(t, err, domain.ErrNothingToRedo)
}

func TestApplyStep_Errors(t *testing.T) {
	ctx := context.Background()
	s := newServer(t)

	_, err := s.handleApplyStep(ctx, mcp.CallToolRequest{}, map[string]any{"kind": "concat", "params": "[1"})
	assert.ErrorContains(t, err, "params must be a JSON object")

	_, err = s.handleApplyStep(ctx, mcp.CallToolRequest{}, map[string]any{"kind": "pivot", "params": "{}"})
	assert.ErrorIs(t, err, domain.ErrUnknownStepKind)

	var pe *domain.ParameterError
	_, err = s.handleApplyStep(ctx, mcp.CallToolRequest{}, map[string]any{"kind": "concat", "params": `{"join": "left", "datasetIndexes": [0]}`})
	assert.ErrorAs(t, err, &pe)
}

func TestTextTools(t *testing.T) {
	ctx := context.Background()
	s := newServer(t)
	_, err := s.handleApplyStep(ctx, mcp.CallToolRequest{}, map[string]any{"kind": "concat", "params": concatParams})
	require.NoError(t, err)

	t.Run("GetCode", func(t *testing.T) {
		res, err := s.handleGetCode(ctx, call(map[string]any{"comments": true}))
		require.NoError(t, err)
		code := text(t, res)
		assert.Contains(t, code, "df3 = pd.concat([sales, returns], join='outer', ignore_index=True)")
		assert.Contains(t, code, "# ")
	})

	t.Run("Preview", func(t *testing.T) {
		res, err := s.handlePreview(ctx, call(map[string]any{"index": float64(2), "rows": float64(1)}))
		require.NoError(t, err)
		assert.False(t, res.IsError)
		assert.Contains(t, text(t, res), "| amount |")

		res, err = s.handlePreview(ctx, call(map[string]any{"index": float64(9)}))
		require.NoError(t, err)
		assert.True(t, res.IsError)

		res, err = s.handlePreview(ctx, call(map[string]any{}))
		require.NoError(t, err)
		assert.True(t, res.IsError)
	})

	t.Run("ListKinds", func(t *testing.T) {
		res, err := s.handleListKinds(ctx, call(nil))
		require.NoError(t, err)
		var kinds []domain.StepKind
		require.NoError(t, json.Unmarshal([]byte(text(t, res)), &kinds))
		assert.Equal(t, steps.Kinds(), kinds)
	})
}

func TestReadAnalysis(t *testing.T) {
	ctx := context.Background()
	s := newServer(t)
	_, err := s.handleApplyStep(ctx, mcp.CallToolRequest{}, map[string]any{"kind": "concat", "params": concatParams})
	require.NoError(t, err)

	contents, err := s.readAnalysis(ctx, mcp.ReadResourceRequest{})
	require.NoError(t, err)
	require.Len(t, contents, 1)

	res, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, analysisURI, res.URI)

	var analysis domain.Analysis
	require.NoError(t, json.Unmarshal([]byte(res.Text), &analysis))
	require.Len(t, analysis.Steps, 1)
	assert.Equal(t, steps.KindConcat, analysis.Steps[0].Kind)
}
