// Package mcp exposes the engine as Model Context Protocol tools.
package mcp

import (
	"context"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"livingcanon/internal/engine"
	"livingcanon/internal/store"
)

// SourceSearcher is the full-text index over ingested sources.
type SourceSearcher interface {
	SearchSources(ctx context.Context, query, figure string) ([]store.SearchResult, error)
}

type Server struct {
	engine *engine.Engine
	search SourceSearcher
	mcp    *sdk.Server
}

// NewServer registers the engine tools. search may be nil, in which case
// search_sources falls back to the in-memory source store.
func NewServer(eng *engine.Engine, search SourceSearcher, version string) *Server {
	s := &Server{
		engine: eng,
		search: search,
		mcp: sdk.NewServer(&sdk.Implementation{
			Name:    "livingcanon",
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	return s.mcp.Run(ctx, transport)
}
