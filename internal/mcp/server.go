package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/server"
	"github.com/mvp-joe/dryjin/internal/storage"
	"go.uber.org/zap"
)

// RunQuerier reads recorded import runs. Implemented by *storage.RunReader.
type RunQuerier interface {
	ReadRuns() ([]storage.Run, error)
	LatestRun() (storage.Run, error)
	ReadMethods(runID string) ([]storage.MethodRecord, error)
	ReadEdges(runID string, filter storage.EdgeFilter) ([]storage.CallEdgeRecord, error)
	ReadIccLinks(runID string) ([]storage.IccLinkRecord, error)
}

var _ RunQuerier = (*storage.RunReader)(nil)

// Server exposes recorded import runs as MCP tools over stdio.
type Server struct {
	mcp    *server.MCPServer
	logger *zap.Logger
}

// NewServer creates an MCP server with the dryjin_graph and dryjin_run tools registered.
func NewServer(querier RunQuerier, version string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := server.NewMCPServer(
		"dryjin-mcp",
		version,
		server.WithToolCapabilities(true),
	)
	AddGraphTool(s, querier)
	AddRunTool(s, querier)

	return &Server{mcp: s, logger: logger}
}

// Serve runs the server on stdio until ctx is cancelled or the client disconnects.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting MCP server on stdio")
		errCh <- server.ServeStdio(s.mcp)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("MCP server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		s.logger.Info("stopping MCP server")
		return nil
	}
}

// resolveRun returns the requested run, or the latest when runID is empty.
func resolveRun(querier RunQuerier, runID string) (storage.Run, error) {
	if runID == "" {
		return querier.LatestRun()
	}
	runs, err := querier.ReadRuns()
	if err != nil {
		return storage.Run{}, err
	}
	for _, run := range runs {
		if run.ID == runID {
			return run, nil
		}
	}
	return storage.Run{}, fmt.Errorf("run %s not found", runID)
}
