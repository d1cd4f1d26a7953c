package core

import (
	"bytes"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	knowledgeMarkdown = goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Typographer,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
			// Raw HTML is let through here and stripped by the sanitizer below.
			html.WithUnsafe(),
		),
	)
	knowledgePolicy = newKnowledgePolicy()
)

func newKnowledgePolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("code", "span")
	p.AllowAttrs("id").OnElements("h1", "h2", "h3", "h4", "h5", "h6")
	return p
}

// RenderKnowledge converts an entry's knowledge markdown to sanitized HTML.
func RenderKnowledge(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := knowledgeMarkdown.Convert([]byte(markdown), &buf); err != nil {
		return "", err
	}
	return knowledgePolicy.Sanitize(buf.String()), nil
}
