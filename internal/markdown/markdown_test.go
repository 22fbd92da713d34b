package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderBasicMarkdown(t *testing.T) {
	r := NewRenderer()

	html, err := r.Render("# Heading\n\nsome *emphasis* and a [link](https://example.com)")
	require.NoError(t, err)

	assert.Contains(t, html, "<h1")
	assert.Contains(t, html, "<em>emphasis</em>")
	assert.Contains(t, html, `href="https://example.com"`)
}

func TestRenderStripsScripts(t *testing.T) {
	r := NewRenderer()

	html, err := r.Render("hello\n\n<script>alert(1)</script>\n\n<img src=x onerror=alert(1)>")
	require.NoError(t, err)

	assert.NotContains(t, html, "<script")
	assert.NotContains(t, html, "onerror")
	assert.Contains(t, html, "hello")
}

func TestRenderGFMTable(t *testing.T) {
	r := NewRenderer()

	html, err := r.Render("| a | b |\n|---|---|\n| 1 | 2 |")
	require.NoError(t, err)
	assert.Contains(t, html, "<table")
}
