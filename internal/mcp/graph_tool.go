package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mvp-joe/dryjin/internal/storage"
)

const (
	defaultDepth      = 3
	maxDepth          = 10
	defaultMaxResults = 100
	maxMaxResults     = 500
)

// GraphRequest represents the dryjin_graph tool parameters.
type GraphRequest struct {
	Operation  string `json:"operation"`   // "callers", "callees", "reachable"
	Target     string `json:"target"`      // Method signature
	RunID      string `json:"run_id"`      // Defaults to the latest run
	Depth      int    `json:"depth"`       // Traversal depth for "reachable"
	MaxResults int    `json:"max_results"` // Result cap
}

// GraphResult is one method related to the target.
type GraphResult struct {
	Signature string `json:"signature"`
	Kind      string `json:"kind,omitempty"`
	StmtIndex *int   `json:"stmt_index,omitempty"`
	Depth     int    `json:"depth"`
}

// GraphResponse is the dryjin_graph tool result.
type GraphResponse struct {
	RunID     string        `json:"run_id"`
	Operation string        `json:"operation"`
	Target    string        `json:"target"`
	Results   []GraphResult `json:"results"`
	Total     int           `json:"total"`
	Truncated bool          `json:"truncated"`
}

// AddGraphTool registers the dryjin_graph tool with an MCP server.
func AddGraphTool(s *server.MCPServer, querier RunQuerier) {
	tool := mcp.NewTool(
		"dryjin_graph",
		mcp.WithDescription("Query the call graph recorded by a dryjin import run. Operations: callers (methods calling the target), callees (methods the target calls), reachable (methods transitively called from the target)."),
		mcp.WithString("operation",
			mcp.Required(),
			mcp.Description("Type of query: 'callers', 'callees' or 'reachable'")),
		mcp.WithString("target",
			mcp.Required(),
			mcp.Description("Method signature, e.g. '<DummyNative: void JNI_OnLoad()>'")),
		mcp.WithString("run_id",
			mcp.Description("Import run to query (default: latest run)")),
		mcp.WithNumber("depth",
			mcp.Description("Traversal depth for reachable (default: 3, max: 10)")),
		mcp.WithNumber("max_results",
			mcp.Description("Maximum number of results to return (default: 100, max: 500)")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createGraphHandler(querier))
}

func createGraphHandler(querier RunQuerier) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var req GraphRequest
		if err := bindArguments(request, &req); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}
		if req.Target == "" {
			return mcp.NewToolResultError("target parameter is required"), nil
		}
		req.Depth = clamp(req.Depth, defaultDepth, 1, maxDepth)
		req.MaxResults = clamp(req.MaxResults, defaultMaxResults, 1, maxMaxResults)

		run, err := resolveRun(querier, req.RunID)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var results []GraphResult
		switch req.Operation {
		case "callers":
			results, err = directEdges(querier, run.ID, storage.EdgeFilter{Tgt: req.Target}, true)
		case "callees":
			results, err = directEdges(querier, run.ID, storage.EdgeFilter{Src: req.Target}, false)
		case "reachable":
			results, err = reachable(querier, run.ID, req.Target, req.Depth)
		default:
			return mcp.NewToolResultError(fmt.Sprintf("invalid operation: %s (must be one of: callers, callees, reachable)", req.Operation)), nil
		}
		if err != nil {
			return nil, fmt.Errorf("graph query failed: %w", err)
		}

		resp := GraphResponse{
			RunID:     run.ID,
			Operation: req.Operation,
			Target:    req.Target,
			Results:   results,
			Total:     len(results),
		}
		if len(resp.Results) > req.MaxResults {
			resp.Results = resp.Results[:req.MaxResults]
			resp.Truncated = true
		}
		if resp.Results == nil {
			resp.Results = []GraphResult{}
		}

		jsonData, err := json.Marshal(resp)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response: %w", err)
		}
		return mcp.NewToolResultText(string(jsonData)), nil
	}
}

func directEdges(querier RunQuerier, runID string, filter storage.EdgeFilter, callers bool) ([]GraphResult, error) {
	edges, err := querier.ReadEdges(runID, filter)
	if err != nil {
		return nil, err
	}
	results := make([]GraphResult, 0, len(edges))
	for _, e := range edges {
		sig := e.Tgt
		if callers {
			sig = e.Src
		}
		results = append(results, GraphResult{Signature: sig, Kind: e.Kind, StmtIndex: e.StmtIndex, Depth: 1})
	}
	return results, nil
}

// reachable walks callees breadth first, reporting each method at the depth
// it was first reached.
func reachable(querier RunQuerier, runID, target string, depth int) ([]GraphResult, error) {
	seen := map[string]bool{target: true}
	frontier := []string{target}
	var results []GraphResult

	for d := 1; d <= depth && len(frontier) > 0; d++ {
		var next []string
		for _, sig := range frontier {
			edges, err := querier.ReadEdges(runID, storage.EdgeFilter{Src: sig})
			if err != nil {
				return nil, err
			}
			for _, e := range edges {
				if seen[e.Tgt] {
					continue
				}
				seen[e.Tgt] = true
				next = append(next, e.Tgt)
				results = append(results, GraphResult{Signature: e.Tgt, Kind: e.Kind, Depth: d})
			}
		}
		frontier = next
	}
	return results, nil
}

func clamp(v, def, lo, hi int) int {
	if v == 0 {
		return def
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
