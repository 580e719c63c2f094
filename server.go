package betterfetch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Version is reported to MCP clients during initialization.
const Version = "1.0.0"

const fetchDescription = `Fetch a URL and return clean, readable document text. HTML pages are converted to markdown, everything else is returned as-is. Sends browser-like headers and ignores robots.txt, so pages that refuse automated fetchers still work.`

// FetchInput is the fetch tool's input schema.
type FetchInput struct {
	URL          string `json:"url" jsonschema:"the absolute URL to fetch"`
	IncludeLinks *bool  `json:"includeLinks,omitempty" jsonschema:"keep markdown links in the output (default true)"`
	MaxLength    int    `json:"maxLength,omitempty" jsonschema:"maximum number of characters to return"`
}

// NewServer creates an MCP server exposing the fetch tool backed by the given
// pipeline. Failures surface as tool results with the error flag set, never
// as protocol errors.
func NewServer(log *slog.Logger, pipeline *Pipeline) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "better-fetch", Version: Version}, nil)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "fetch",
		Description: fetchDescription,
	}, func(ctx context.Context, req *mcp.CallToolRequest, input FetchInput) (result *mcp.CallToolResult, _ any, _ error) {
		// A panic anywhere in the pipeline becomes an error result, never
		// a protocol failure.
		defer func() {
			if r := recover(); r != nil {
				result = toolResult(errorResult(fmt.Sprint(r)))
			}
		}()

		// Reject bad URLs before the fetcher makes any network call.
		if parsed, err := url.Parse(input.URL); err != nil || !parsed.IsAbs() {
			return toolResult(errorResult(input.URL + " is not a valid absolute URL")), nil, nil
		}

		request := Request{
			URL:          input.URL,
			IncludeLinks: input.IncludeLinks == nil || *input.IncludeLinks,
			MaxLength:    input.MaxLength,
		}
		log.Info("fetching", "url", request.URL, "include_links", request.IncludeLinks, "max_length", request.MaxLength)
		res := pipeline.Fetch(ctx, request)
		if res.IsError {
			log.Warn("fetch failed", "url", request.URL, "error", res.Text)
		}
		return toolResult(res), nil, nil
	})
	return server
}

// toolResult wraps a pipeline result into the tool envelope.
func toolResult(result Result) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: result.Text}},
		IsError: result.IsError,
	}
}

// Handler exposes the server over streamable HTTP at /mcp and legacy SSE at
// /sse. Any other path is a plain 404.
func Handler(server *mcp.Server) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/mcp", mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, nil))
	mux.Handle("/sse", mcp.NewSSEHandler(func(*http.Request) *mcp.Server {
		return server
	}, nil))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	return mux
}
