// Package gallery renders the static review page for an extraction run.
package gallery

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/unicode/runenames"

	"github.com/wudi/glyphkit/canvas"
	"github.com/wudi/glyphkit/mapping"
)

// FileName is the gallery page written next to the glyph images.
const FileName = "index.html"

// DefaultTitle is used when Options.Title is empty.
const DefaultTitle = "Font Glyph OCR Results"

// NoText is shown for glyphs whose label is empty or whitespace.
const NoText = "(no text)"

const stylesheet = `
    body {
      font-family: sans-serif;
      margin: 0; padding: 20px; background-color: #f5f5f5;
    }
    .grid {
      display: grid;
      grid-template-columns: repeat(auto-fill, minmax(150px, 1fr));
      grid-gap: 16px;
    }
    .item {
      background-color: white;
      border: 1px solid #ddd;
      border-radius: 4px;
      padding: 8px;
      text-align: center;
    }
    .item img {
      max-width: 100%;
      height: auto;
      display: block;
      margin: 0 auto 8px auto;
    }
    .caption {
      font-size: 0.9rem;
      color: #333;
      word-break: break-all;
    }
    .summary table { border-collapse: collapse; margin-bottom: 16px; }
    .summary td, .summary th { border: 1px solid #ddd; padding: 2px 8px; }
`

// Options controls page rendering.
type Options struct {
	Title string
	// Summary is Markdown rendered above the grid. Empty omits the block.
	Summary string
}

// Render writes the gallery page for m to w. Items are ordered by numeric
// charcode; keys that are not decimal integers are skipped.
func Render(w io.Writer, m mapping.Mapping, opts Options) error {
	title := opts.Title
	if title == "" {
		title = DefaultTitle
	}

	body := element(atom.Body)
	body.AppendChild(withText(element(atom.H1), "Glyph → OCR Text"))
	if opts.Summary != "" {
		summary, err := renderSummary(opts.Summary)
		if err != nil {
			return err
		}
		body.AppendChild(summary)
	}
	grid := element(atom.Div, attr("class", "grid"))
	for it := sorted(m).Iterator(); it.Next(); {
		grid.AppendChild(item(it.Key().(int), it.Value().(string)))
	}
	body.AppendChild(grid)

	head := element(atom.Head)
	head.AppendChild(element(atom.Meta, attr("charset", "UTF-8")))
	head.AppendChild(element(atom.Meta,
		attr("name", "viewport"),
		attr("content", "width=device-width, initial-scale=1.0")))
	head.AppendChild(withText(element(atom.Title), title))
	head.AppendChild(withText(element(atom.Style), stylesheet))

	root := element(atom.Html, attr("lang", "en"))
	root.AppendChild(head)
	root.AppendChild(body)

	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	doc.AppendChild(root)
	if err := html.Render(w, doc); err != nil {
		return fmt.Errorf("render gallery: %w", err)
	}
	return nil
}

// WriteFile renders the gallery into path.
func WriteFile(path string, m mapping.Mapping, opts Options) error {
	var buf bytes.Buffer
	if err := Render(&buf, m, opts); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write gallery: %w", err)
	}
	return nil
}

// DisplayText is the caption text for a label.
func DisplayText(label string) string {
	if strings.TrimSpace(label) == "" {
		return NoText
	}
	return label
}

func sorted(m mapping.Mapping) *treemap.Map {
	tm := treemap.NewWithIntComparator()
	for key, text := range m {
		code, err := strconv.ParseUint(key, 10, 32)
		if err != nil {
			continue
		}
		tm.Put(int(code), text)
	}
	return tm
}

func item(code int, text string) *html.Node {
	div := element(atom.Div, attr("class", "item"))
	div.AppendChild(element(atom.Img,
		attr("src", canvas.FileName(uint32(code))),
		attr("alt", fmt.Sprintf("%04X", code))))

	caption := element(atom.Div, attr("class", "caption"))
	if r := rune(code); code <= unicode.MaxRune {
		if name := runenames.Name(r); name != "" {
			caption.Attr = append(caption.Attr, attr("title", name))
		}
	}
	div.AppendChild(withText(caption, fmt.Sprintf("%d: %s", code, DisplayText(text))))
	return div
}

var markdown = goldmark.New(goldmark.WithExtensions(extension.Table))

func renderSummary(src string) (*html.Node, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return nil, fmt.Errorf("render summary: %w", err)
	}
	section := element(atom.Div, attr("class", "summary"))
	nodes, err := html.ParseFragment(&buf, section)
	if err != nil {
		return nil, fmt.Errorf("parse summary: %w", err)
	}
	for _, n := range nodes {
		section.AppendChild(n)
	}
	return section, nil
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, Data: a.String(), DataAtom: a, Attr: attrs}
}

func attr(key, val string) html.Attribute {
	return html.Attribute{Key: key, Val: val}
}

func withText(n *html.Node, text string) *html.Node {
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	return n
}
