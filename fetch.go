// Package betterfetch fetches URLs and returns clean, readable document text.
// HTML pages are converted to markdown; everything else is passed through
// untouched. The fetcher sends browser-like headers and never consults
// robots.txt, so pages that block automated fetchers still respond.
package betterfetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// defaultUserAgent identifies as a desktop browser so sites that block
// automated user agents still serve content.
const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Request describes a single fetch invocation.
type Request struct {
	URL          string
	IncludeLinks bool
	MaxLength    int // characters; non-positive means unlimited
}

// Result is the outcome of a fetch, ready for the tool envelope. Failures are
// carried in Text with IsError set; they are never raised as errors.
type Result struct {
	Text    string
	IsError bool
}

// RawResponse is one HTTP response with the body fully read into memory.
type RawResponse struct {
	StatusCode  int
	Status      string
	ContentType string
	Body        string
}

// Fetcher performs a single GET per call with browser-like headers. Redirects
// are followed by the client's default policy.
type Fetcher struct {
	Client    *http.Client
	UserAgent string
}

// NewFetcher creates a fetcher around the given HTTP client.
func NewFetcher(client *http.Client) *Fetcher {
	return &Fetcher{
		Client:    client,
		UserAgent: defaultUserAgent,
	}
}

// Fetch issues the GET and reads the whole body. Any response that arrives is
// returned as-is, including 4xx and 5xx; only transport-level failures error.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*RawResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: unable to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("Cache-Control", "no-cache")

	res, err := f.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch: reading response: %w", err)
	}

	return &RawResponse{
		StatusCode:  res.StatusCode,
		Status:      res.Status,
		ContentType: res.Header.Get("Content-Type"),
		Body:        string(body),
	}, nil
}

// isHTML reports whether the declared content type is eligible for markdown
// conversion. A missing or empty header means passthrough, not conversion.
func isHTML(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml")
}

// Pipeline runs fetch, classify, convert and post-process as one linear pass.
// It holds no per-invocation state, so a single pipeline is safe to share
// across concurrent callers.
type Pipeline struct {
	log       *slog.Logger
	Fetcher   *Fetcher
	Converter *Converter
}

// New creates a pipeline with the default conversion configuration.
func New(log *slog.Logger, client *http.Client) *Pipeline {
	return &Pipeline{
		log:       log,
		Fetcher:   NewFetcher(client),
		Converter: NewConverter(DefaultConvertConfig()),
	}
}

// Fetch runs the whole pipeline. A non-2xx status or a failure at any stage
// short-circuits into an error result; the converter is never called after a
// failed fetch.
func (p *Pipeline) Fetch(ctx context.Context, req Request) Result {
	res, err := p.Fetcher.Fetch(ctx, req.URL)
	if err != nil {
		return errorResult(err.Error())
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return errorResult(res.Status)
	}

	// Non-HTML bodies skip conversion and post-processing; only the length
	// cut applies, so the caller sees the raw body.
	if !isHTML(res.ContentType) {
		p.log.Debug("passing through", "url", req.URL, "content_type", res.ContentType)
		return Result{Text: truncate(res.Body, req.MaxLength)}
	}

	markdown, err := p.Converter.Convert(res.Body)
	if err != nil {
		return errorResult(err.Error())
	}
	if !req.IncludeLinks {
		markdown = stripLinks(markdown)
	}
	markdown = normalizeWhitespace(markdown)
	return Result{Text: truncate(markdown, req.MaxLength)}
}

func errorResult(detail string) Result {
	return Result{
		Text:    "Error fetching URL: " + detail,
		IsError: true,
	}
}
