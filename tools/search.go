package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/SaiNageswarS/analytics-agent/agentboot"
	"github.com/SaiNageswarS/analytics-agent/schema"
	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/go-collection-boot/linq"
	"github.com/ollama/ollama/api"
	"go.uber.org/zap"
	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"
)

const SearchToolName = "google_search"

type SearchResult struct {
	Title   string
	Link    string
	Snippet string
}

type SearchProvider interface {
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)
}

// GoogleSearchProvider queries a Programmable Search Engine.
type GoogleSearchProvider struct {
	service  *customsearch.Service
	engineID string
}

func NewGoogleSearchProvider(ctx context.Context, apiKey, engineID string, opts ...option.ClientOption) (*GoogleSearchProvider, error) {
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	service, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create custom search service: %w", err)
	}
	return &GoogleSearchProvider{service: service, engineID: engineID}, nil
}

func (p *GoogleSearchProvider) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	call := p.service.Cse.List().Cx(p.engineID).Q(query).Context(ctx)
	if limit > 0 {
		call = call.Num(int64(min(limit, 10)))
	}

	resp, err := call.Do()
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(resp.Items))
	for _, item := range resp.Items {
		results = append(results, SearchResult{Title: item.Title, Link: item.Link, Snippet: item.Snippet})
	}
	return results, nil
}

// NewSearchTool exposes provider as the google_search tool. Provider errors
// yield an empty result set.
func NewSearchTool(provider SearchProvider, limit int) agentboot.MCPTool {
	return agentboot.NewMCPToolBuilder(SearchToolName,
		"Search the web for recent business and market information. Returns titled snippets with source links.").
		StringParam("query", "Search query", true).
		Summarize(true).
		WithHandler(func(ctx context.Context, params api.ToolCallFunctionArguments) <-chan *schema.ToolResultChunk {
			out := make(chan *schema.ToolResultChunk, max(limit, 0)+1)

			go func() {
				defer close(out)

				query := agentboot.StringArg(params, "query")
				if query == "" {
					return
				}

				results, err := provider.Search(ctx, query, limit)
				if err != nil {
					logger.Error("Web search failed; returning no results", zap.String("query", query), zap.Error(err))
					return
				}

				unique, err := linq.Pipe2(
					linq.FromSlice(ctx, results),
					linq.Distinct(func(r SearchResult) string { return r.Link }),
					linq.ToSlice[SearchResult](),
				)
				if err != nil {
					logger.Error("Failed to deduplicate search results", zap.String("query", query), zap.Error(err))
					return
				}

				for _, r := range unique {
					snippet := strings.TrimSpace(r.Snippet)
					if snippet == "" {
						continue
					}

					chunk := agentboot.NewToolResultChunk().
						Title(r.Title).
						Sentences(snippet).
						Attribution(r.Link).
						Build()

					select {
					case out <- chunk:
					case <-ctx.Done():
						return
					}
				}
			}()

			return out
		}).
		Build()
}
