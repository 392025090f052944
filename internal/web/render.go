package web

import (
	"bytes"
	"html"

	"github.com/yuin/goldmark"
)

var markdown = goldmark.New()

// renderMarkdown converts an answer to HTML for the chat window. On
// conversion failure the escaped plain text is returned instead.
func renderMarkdown(text string) string {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(text), &buf); err != nil {
		return "<p>" + html.EscapeString(text) + "</p>"
	}
	return buf.String()
}
