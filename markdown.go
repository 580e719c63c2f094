package betterfetch

import (
	"fmt"
	"strings"
	"sync"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/PuerkitoBio/goquery"
)

// ConvertConfig describes how HTML becomes markdown. It is fixed at startup
// and shared by every invocation; callers cannot tune it per request. The
// stripped-tag set determines observable output, so changing it changes the
// tool's contract.
type ConvertConfig struct {
	// PruneSelectors are removed from the document before conversion.
	PruneSelectors []string
	// StripTags are dropped from the output entirely, subtree included.
	StripTags []string
	// HeadingStyle is "atx" or "setext".
	HeadingStyle string
	// CodeFence delimits fenced code blocks.
	CodeFence string
}

// DefaultConvertConfig strips navigation and form chrome up front, drops all
// script and media tags, and emits ATX headings with backtick fences. Images
// are removed entirely, so the markdown never contains image references.
func DefaultConvertConfig() ConvertConfig {
	return ConvertConfig{
		PruneSelectors: []string{"nav", "form"},
		StripTags:      []string{"script", "style", "noscript", "iframe", "svg", "img", "picture", "figure"},
		HeadingStyle:   "atx",
		CodeFence:      "```",
	}
}

// Converter adapts the html-to-markdown engine to a single Convert call.
type Converter struct {
	config ConvertConfig
	engine func() *converter.Converter
}

// NewConverter builds a converter whose engine is initialized once, on first
// use. Concurrent callers share the same engine instance; initialization is
// idempotent so a lazy once-value is enough.
func NewConverter(config ConvertConfig) *Converter {
	return &Converter{
		config: config,
		engine: sync.OnceValue(func() *converter.Converter {
			headingStyle := commonmark.HeadingStyleATX
			if config.HeadingStyle == "setext" {
				headingStyle = commonmark.HeadingStyleSetext
			}
			conv := converter.NewConverter(
				converter.WithPlugins(
					base.NewBasePlugin(),
					commonmark.NewCommonmarkPlugin(
						commonmark.WithHeadingStyle(headingStyle),
						commonmark.WithCodeBlockFence(config.CodeFence),
					),
				),
			)
			for _, tag := range config.StripTags {
				conv.Register.TagType(tag, converter.TagTypeRemove, converter.PriorityStandard)
			}
			return conv
		}),
	}
}

// Convert prunes noisy subtrees and converts the remaining HTML to markdown.
// Malformed markup is not an error: the engine's best-effort output is
// returned as-is.
func (c *Converter) Convert(html string) (string, error) {
	if pruned, err := c.prune(html); err == nil {
		html = pruned
	}
	markdown, err := c.engine().ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("markdown: converting HTML: %w", err)
	}
	return markdown, nil
}

// prune removes the configured selectors before structural analysis, so
// navigation and form content never reaches the engine.
func (c *Converter) prune(html string) (string, error) {
	if len(c.config.PruneSelectors) == 0 {
		return html, nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}
	doc.Find(strings.Join(c.config.PruneSelectors, ", ")).Remove()
	return doc.Html()
}
