package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/stepsheet"
	"github.com/aretw0/stepsheet/pkg/domain"
	"github.com/aretw0/stepsheet/pkg/steps"
	"github.com/aretw0/stepsheet/pkg/transpile"
)

const (
	analysisURI = "stepsheet://analysis"
	codeURI     = "stepsheet://code"
)

// StepResult is returned by the tools that change the log.
type StepResult struct {
	ID        string          `json:"id,omitempty" jsonschema_description:"Stable id of the applied step"`
	Kind      domain.StepKind `json:"kind,omitempty" jsonschema_description:"Kind of the applied step"`
	Refreshed []int           `json:"refreshed,omitempty" jsonschema_description:"Indexes of derived steps recomputed by this one"`
	Steps     []string        `json:"steps" jsonschema_description:"One line summary of every step in the log"`
}

// Engine defines the interface required by the MCP server.
type Engine interface {
	Apply(ctx context.Context, kind domain.StepKind, params map[string]any) (*steps.Step, error)
	Undo(ctx context.Context) error
	Redo(ctx context.Context) (*steps.Step, error)
	Analysis(name string) (*domain.Analysis, error)
	Code(opts ...transpile.Option) (string, error)
	Describe() []string
	Preview(i, maxRows int) (string, error)
	Graph() string
	Kinds() []domain.StepKind
}

// Server wraps the stepsheet Engine and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine) *Server {
	s := &Server{
		engine:    engine,
		mcpServer: server.NewMCPServer("stepsheet-mcp", strings.TrimSpace(stepsheet.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the MCP server over SSE on port until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(fmt.Sprintf("http://localhost:%d", port)))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())
	httpServer := &http.Server{Addr: addr, Handler: mux}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("apply_step",
		mcp.WithDescription("Apply one step to the current datasets. Use list_kinds to see the accepted kinds and their parameters."),
		mcp.WithString("kind", mcp.Required(), mcp.Description("Step kind, e.g. concat")),
		mcp.WithString("params", mcp.Required(), mcp.Description("JSON object with the step parameters")),
		mcp.WithOutputSchema[StepResult](),
	), mcp.NewStructuredToolHandler(s.handleApplyStep))

	s.mcpServer.AddTool(mcp.NewTool("undo",
		mcp.WithDescription("Remove the last step."),
		mcp.WithOutputSchema[StepResult](),
	), mcp.NewStructuredToolHandler(s.handleUndo))

	s.mcpServer.AddTool(mcp.NewTool("redo",
		mcp.WithDescription("Apply the most recently undone step again."),
		mcp.WithOutputSchema[StepResult](),
	), mcp.NewStructuredToolHandler(s.handleRedo))

	s.mcpServer.AddTool(mcp.NewTool("list_kinds",
		mcp.WithDescription("List the step kinds the engine accepts."),
	), s.handleListKinds)

	s.mcpServer.AddTool(mcp.NewTool("get_code",
		mcp.WithDescription("Get the pandas script equivalent to the current analysis."),
		mcp.WithBoolean("comments", mcp.Description("Prefix each statement with a comment")),
	), s.handleGetCode)

	s.mcpServer.AddTool(mcp.NewTool("preview_dataset",
		mcp.WithDescription("Render a dataset of the current state as a markdown table."),
		mcp.WithNumber("index", mcp.Required(), mcp.Description("Dataset index")),
		mcp.WithNumber("rows", mcp.Description("Maximum rows to render (default 10)")),
	), s.handlePreview)

	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Get the analysis as a Mermaid flowchart."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText(s.engine.Graph()), nil
	})
}

func (s *Server) handleApplyStep(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (StepResult, error) {
	kind, _ := args["kind"].(string)
	params := map[string]any{}
	if raw, ok := args["params"].(string); ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &params); err != nil {
			return StepResult{}, fmt.Errorf("params must be a JSON object: %w", err)
		}
	}

	step, err := s.engine.Apply(ctx, domain.StepKind(kind), params)
	if err != nil {
		slog.Warn("MCP apply_step: Step rejected", "kind", kind, "err", err)
		return StepResult{}, err
	}
	return s.result(step), nil
}

func (s *Server) handleUndo(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (StepResult, error) {
	if err := s.engine.Undo(ctx); err != nil {
		return StepResult{}, err
	}
	return s.result(nil), nil
}

func (s *Server) handleRedo(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (StepResult, error) {
	step, err := s.engine.Redo(ctx)
	if err != nil {
		return StepResult{}, err
	}
	return s.result(step), nil
}

func (s *Server) result(step *steps.Step) StepResult {
	res := StepResult{Steps: s.engine.Describe()}
	if res.Steps == nil {
		res.Steps = []string{}
	}
	if step != nil {
		res.ID, res.Kind = step.ID, step.Kind
		for _, ref := range step.Refreshes {
			res.Refreshed = append(res.Refreshed, ref.StepIndex)
		}
	}
	return res
}

func (s *Server) handleListKinds(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jsonBytes, _ := json.Marshal(s.engine.Kinds())
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleGetCode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	comments, _ := request.GetArguments()["comments"].(bool)
	code, err := s.engine.Code(transpile.WithComments(comments))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("code generation failed: %v", err)), nil
	}
	return mcp.NewToolResultText(code), nil
}

func (s *Server) handlePreview(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	index, ok := args["index"].(float64)
	if !ok {
		return mcp.NewToolResultError("index is required"), nil
	}
	rows := 10.0
	if r, ok := args["rows"].(float64); ok {
		rows = r
	}

	table, err := s.engine.Preview(int(index), int(rows))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(table), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(analysisURI, "Current Analysis",
		mcp.WithMIMEType("application/json"),
	), s.readAnalysis)

	s.mcpServer.AddResource(mcp.NewResource(codeURI, "Generated Script",
		mcp.WithMIMEType("text/x-python"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		code, err := s.engine.Code()
		if err != nil {
			return nil, fmt.Errorf("failed to generate code: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: codeURI, MIMEType: "text/x-python", Text: code},
		}, nil
	})
}

func (s *Server) readAnalysis(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	analysis, err := s.engine.Analysis("")
	if err != nil {
		return nil, fmt.Errorf("failed to read analysis: %w", err)
	}
	jsonBytes, _ := json.Marshal(analysis)

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      analysisURI,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}
