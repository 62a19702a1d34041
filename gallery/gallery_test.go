package gallery

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/andybalholm/cascadia"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/wudi/glyphkit/mapping"
)

func renderDoc(t *testing.T, m mapping.Mapping, opts Options) *html.Node {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, m, opts))
	require.True(t, strings.HasPrefix(buf.String(), "<!DOCTYPE html>"), "missing doctype: %q", buf.String()[:min(40, buf.Len())])
	doc, err := html.Parse(&buf)
	require.NoError(t, err)
	return doc
}

func text(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func attrOf(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func TestRenderSortsNumerically(t *testing.T) {
	doc := renderDoc(t, mapping.Mapping{
		"100":   "d",
		"9":     "",
		"65":    "A",
		"20013": "中",
		"32":    "   ",
		"bogus": "skipped",
		"-1":    "skipped",
	}, Options{})

	captions := cascadia.MustCompile(".grid .item .caption").MatchAll(doc)
	var got []string
	for _, c := range captions {
		got = append(got, text(c))
	}
	assert.Equal(t, []string{
		"9: (no text)",
		"32: (no text)",
		"65: A",
		"100: d",
		"20013: 中",
	}, got)

	imgs := cascadia.MustCompile(".item img").MatchAll(doc)
	require.Len(t, imgs, 5)
	assert.Equal(t, "9.png", attrOf(imgs[0], "src"))
	assert.Equal(t, "0009", attrOf(imgs[0], "alt"))
	assert.Equal(t, "20013.png", attrOf(imgs[4], "src"))
	assert.Equal(t, "4E2D", attrOf(imgs[4], "alt"))
}

func TestRenderCharacterNames(t *testing.T) {
	doc := renderDoc(t, mapping.Mapping{"65": "A"}, Options{})
	caption := cascadia.MustCompile(".caption").MatchAll(doc)
	require.Len(t, caption, 1)
	assert.Equal(t, "LATIN CAPITAL LETTER A", attrOf(caption[0], "title"))
}

func TestRenderEscapesLabels(t *testing.T) {
	doc := renderDoc(t, mapping.Mapping{"60": "<script>alert(1)</script>"}, Options{})
	assert.Empty(t, cascadia.MustCompile(".caption script").MatchAll(doc))
	caption := cascadia.MustCompile(".caption").MatchAll(doc)
	require.Len(t, caption, 1)
	assert.Equal(t, "60: <script>alert(1)</script>", text(caption[0]))
}

func TestRenderTitleAndSummary(t *testing.T) {
	doc := renderDoc(t, mapping.Mapping{}, Options{
		Title:   "Run 7",
		Summary: "**done**\n\n| glyphs | labeled |\n|---|---|\n| 3 | 2 |\n",
	})
	title := cascadia.MustCompile("head title").MatchAll(doc)
	require.Len(t, title, 1)
	assert.Equal(t, "Run 7", text(title[0]))

	assert.Len(t, cascadia.MustCompile(".summary strong").MatchAll(doc), 1)
	cells := cascadia.MustCompile(".summary table td").MatchAll(doc)
	require.Len(t, cells, 2)
	assert.Equal(t, "3", text(cells[0]))
	assert.Empty(t, cascadia.MustCompile(".grid .item").MatchAll(doc))
}

func TestRenderDefaultTitleWithoutSummary(t *testing.T) {
	doc := renderDoc(t, nil, Options{})
	title := cascadia.MustCompile("title").MatchAll(doc)
	require.Len(t, title, 1)
	assert.Equal(t, DefaultTitle, text(title[0]))
	assert.Empty(t, cascadia.MustCompile(".summary").MatchAll(doc))
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, WriteFile(path, mapping.Mapping{"65": "A"}, Options{}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `<img src="65.png" alt="0041"/>`)

	err = WriteFile(filepath.Join(t.TempDir(), "missing", FileName), nil, Options{})
	assert.Error(t, err)
}
