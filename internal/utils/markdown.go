package utils

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	mdParser = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			// Posts were plain text with whitespace preserved; keep single
			// newlines as line breaks.
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)
	policy      = bluemonday.UGCPolicy()
	stripPolicy = bluemonday.StrictPolicy()
)

func init() {
	policy.AddTargetBlankToFullyQualifiedLinks(true)
	policy.RequireNoReferrerOnLinks(true)
}

// RenderMarkdown converts a post or comment body to sanitized HTML.
func RenderMarkdown(source string) template.HTML {
	if strings.TrimSpace(source) == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := mdParser.Convert([]byte(source), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(source))
	}

	sanitized := policy.SanitizeBytes(buf.Bytes())
	return EnhanceHTMLContent(string(sanitized))
}

// Excerpt renders source to plain text and cuts it to at most n runes, for
// listing cards.
func Excerpt(source string, n int) string {
	var buf bytes.Buffer
	text := source
	if err := mdParser.Convert([]byte(source), &buf); err == nil {
		text = stripPolicy.Sanitize(buf.String())
	}
	text = strings.Join(strings.Fields(UnescapeEntities(text)), " ")

	runes := []rune(text)
	if n <= 0 || len(runes) <= n {
		return text
	}
	return strings.TrimSpace(string(runes[:n])) + "…"
}
