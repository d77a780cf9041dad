package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docsrag/internal/core/domain"
	"github.com/custodia-labs/docsrag/internal/logger"
)

// ContextInput is the input schema for the docs_context tool.
type ContextInput struct {
	Query string `json:"query" jsonschema:"a question naming a documentation source or containing a URL"`
	Max   int    `json:"max,omitempty" jsonschema:"maximum number of excerpts to return (default all ranked)"`
}

// ContextOutput is the output schema for the docs_context tool.
type ContextOutput struct {
	Found       bool            `json:"found"`
	SourceLabel string          `json:"source_label,omitempty"`
	UsedCache   bool            `json:"used_cache"`
	TopScore    float64         `json:"top_score"`
	Excerpts    []ExcerptOutput `json:"excerpts"`
	Count       int             `json:"count"`
}

// ExcerptOutput is one ranked documentation excerpt.
type ExcerptOutput struct {
	URL   string  `json:"url"`
	Score float64 `json:"score"`
	Text  string  `json:"text"`
}

// SourcesInput is the (empty) input schema for the docs_sources tool.
type SourcesInput struct{}

// SourcesOutput is the output schema for the docs_sources tool.
type SourcesOutput struct {
	Sources []SourceOutput `json:"sources"`
}

// SourceOutput describes one catalog entry.
type SourceOutput struct {
	Key      string   `json:"key"`
	Label    string   `json:"label"`
	BaseURL  string   `json:"base_url"`
	Seeds    []string `json:"seeds"`
	MaxPages int      `json:"max_pages"`
}

// BuildInput is the input schema for the docs_build_index tool.
type BuildInput struct {
	Source  string `json:"source" jsonschema:"catalog key of the documentation source"`
	Refresh bool   `json:"refresh,omitempty" jsonschema:"ignore any cached index and crawl again"`
}

// BuildOutput is the output schema for the docs_build_index tool.
type BuildOutput struct {
	Label  string `json:"label"`
	Chunks int    `json:"chunks"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "docs_context",
		Description: "Retrieve ranked documentation excerpts relevant to a question",
	}, s.handleContext)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "docs_sources",
		Description: "List the documentation sources that can be indexed",
	}, s.handleSources)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "docs_build_index",
		Description: "Crawl and cache the index for a documentation source",
	}, s.handleBuildIndex)
}

// handleContext handles the docs_context tool invocation.
func (s *Server) handleContext(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ContextInput,
) (*mcp.CallToolResult, ContextOutput, error) {
	result, err := s.ports.Docs.GetContext(ctx, input.Query, nil)
	if err != nil {
		return nil, ContextOutput{}, err
	}
	if result == nil {
		logger.Debug("mcp: no documentation context for %q", input.Query)
		return nil, ContextOutput{Excerpts: []ExcerptOutput{}}, nil
	}

	ranked := result.Chunks
	if input.Max > 0 && input.Max < len(ranked) {
		ranked = ranked[:input.Max]
	}

	output := ContextOutput{
		Found:       true,
		SourceLabel: result.SourceLabel,
		UsedCache:   result.UsedCache,
		TopScore:    result.TopScore,
		Excerpts:    make([]ExcerptOutput, len(ranked)),
		Count:       len(ranked),
	}
	for i := range ranked {
		output.Excerpts[i] = ExcerptOutput{
			URL:   ranked[i].Chunk.URL,
			Score: ranked[i].Score,
			Text:  ranked[i].Chunk.Text,
		}
	}

	return nil, output, nil
}

// handleSources handles the docs_sources tool invocation.
func (s *Server) handleSources(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ SourcesInput,
) (*mcp.CallToolResult, SourcesOutput, error) {
	catalog := s.ports.Docs.Sources()
	output := SourcesOutput{Sources: make([]SourceOutput, len(catalog))}
	for i := range catalog {
		output.Sources[i] = toSourceOutput(catalog[i])
	}
	return nil, output, nil
}

// handleBuildIndex handles the docs_build_index tool invocation.
func (s *Server) handleBuildIndex(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input BuildInput,
) (*mcp.CallToolResult, BuildOutput, error) {
	index, err := s.ports.Docs.BuildIndex(ctx, input.Source, input.Refresh, nil)
	if err != nil {
		return nil, BuildOutput{}, fmt.Errorf("building index %q: %w", input.Source, err)
	}
	return nil, BuildOutput{Label: index.Label, Chunks: len(index.Chunks)}, nil
}

func toSourceOutput(src domain.KnownSource) SourceOutput {
	seeds := make([]string, len(src.Seeds))
	copy(seeds, src.Seeds)
	return SourceOutput{
		Key:      src.Key,
		Label:    src.Label,
		BaseURL:  src.BaseURL,
		Seeds:    seeds,
		MaxPages: src.MaxPages,
	}
}
