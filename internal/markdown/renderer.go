// Package markdown converts post markdown into HTML.
package markdown

import (
	"bytes"
	"fmt"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"
	emoji "github.com/yuin/goldmark-emoji"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// Renderer turns markdown source into HTML.
type Renderer interface {
	Render(src []byte) (string, error)
}

// Options configures the goldmark engine.
type Options struct {
	// HighlightStyle is a chroma style name. Empty disables highlighting.
	HighlightStyle string
	HardWraps      bool
	// Unsafe lets raw HTML in the source through to the output.
	Unsafe bool
}

// Goldmark is a Renderer backed by a single goldmark instance. It holds no
// per-call state and is safe for concurrent use.
type Goldmark struct {
	md goldmark.Markdown
}

// NewGoldmark builds the engine once: GFM, heading anchors, emoji shortcodes
// and chroma highlighting keyed by the fenced block's language.
func NewGoldmark(opts Options) (*Goldmark, error) {
	exts := []goldmark.Extender{extension.GFM, emoji.Emoji}

	if opts.HighlightStyle != "" {
		if _, ok := styles.Registry[opts.HighlightStyle]; !ok {
			return nil, fmt.Errorf("unknown highlight style %q", opts.HighlightStyle)
		}
		exts = append(exts, highlighting.NewHighlighting(
			highlighting.WithStyle(opts.HighlightStyle),
			highlighting.WithFormatOptions(chromahtml.TabWidth(4)),
		))
	}

	var rendererOptions []renderer.Option
	if opts.HardWraps {
		rendererOptions = append(rendererOptions, gmhtml.WithHardWraps())
	}
	if opts.Unsafe {
		rendererOptions = append(rendererOptions, gmhtml.WithUnsafe())
	}

	md := goldmark.New(
		goldmark.WithExtensions(exts...),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(rendererOptions...),
	)
	return &Goldmark{md: md}, nil
}

func (g *Goldmark) Render(src []byte) (string, error) {
	var buf bytes.Buffer
	if err := g.md.Convert(src, &buf); err != nil {
		return "", fmt.Errorf("markdown render: %w", err)
	}
	return buf.String(), nil
}
