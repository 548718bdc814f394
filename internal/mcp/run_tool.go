package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mvp-joe/dryjin/internal/storage"
)

// RunRequest represents the dryjin_run tool parameters.
type RunRequest struct {
	Operation string `json:"operation"` // "runs", "summary", "methods", "icc_links"
	RunID     string `json:"run_id"`    // Defaults to the latest run
	Signature string `json:"signature"` // Optional method filter for "methods"
}

// RunResponse is the dryjin_run tool result. Only the field matching the
// operation is set.
type RunResponse struct {
	Runs     []storage.Run           `json:"runs,omitempty"`
	Run      *storage.Run            `json:"run,omitempty"`
	Methods  []storage.MethodRecord  `json:"methods,omitempty"`
	IccLinks []storage.IccLinkRecord `json:"icc_links,omitempty"`
}

// AddRunTool registers the dryjin_run tool with an MCP server.
func AddRunTool(s *server.MCPServer, querier RunQuerier) {
	tool := mcp.NewTool(
		"dryjin_run",
		mcp.WithDescription("Inspect dryjin import runs. Operations: runs (list all runs), summary (counters of one run), methods (synthesized bodies, optionally for one signature), icc_links (inter-component links of one run)."),
		mcp.WithString("operation",
			mcp.Required(),
			mcp.Description("One of 'runs', 'summary', 'methods' or 'icc_links'")),
		mcp.WithString("run_id",
			mcp.Description("Import run to inspect (default: latest run)")),
		mcp.WithString("signature",
			mcp.Description("Only return this method for the methods operation")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createRunHandler(querier))
}

func createRunHandler(querier RunQuerier) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var req RunRequest
		if err := bindArguments(request, &req); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		var resp RunResponse
		switch req.Operation {
		case "runs":
			runs, err := querier.ReadRuns()
			if err != nil {
				return nil, fmt.Errorf("failed to read runs: %w", err)
			}
			resp.Runs = runs

		case "summary", "methods", "icc_links":
			run, err := resolveRun(querier, req.RunID)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			if err := fillRunResponse(querier, &resp, run, req); err != nil {
				return nil, err
			}

		default:
			return mcp.NewToolResultError(fmt.Sprintf("invalid operation: %s (must be one of: runs, summary, methods, icc_links)", req.Operation)), nil
		}

		jsonData, err := json.Marshal(resp)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response: %w", err)
		}
		return mcp.NewToolResultText(string(jsonData)), nil
	}
}

func fillRunResponse(querier RunQuerier, resp *RunResponse, run storage.Run, req RunRequest) error {
	switch req.Operation {
	case "summary":
		resp.Run = &run

	case "methods":
		methods, err := querier.ReadMethods(run.ID)
		if err != nil {
			return fmt.Errorf("failed to read methods: %w", err)
		}
		if req.Signature != "" {
			var filtered []storage.MethodRecord
			for _, m := range methods {
				if m.Signature == req.Signature {
					filtered = append(filtered, m)
				}
			}
			methods = filtered
		}
		resp.Methods = methods

	case "icc_links":
		links, err := querier.ReadIccLinks(run.ID)
		if err != nil {
			return fmt.Errorf("failed to read icc links: %w", err)
		}
		resp.IccLinks = links
	}
	return nil
}
