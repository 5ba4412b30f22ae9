package site

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Bitlatte/postbook/internal/content"
)

//go:embed layouts/*.html
var defaultLayouts embed.FS

const baseLayout = "base.html"

var pageLayouts = []string{"home.html", "post.html", "archive.html", "about.html"}

var layoutFor = map[Kind]string{
	KindHome:     "home.html",
	KindPost:     "post.html",
	KindArchive:  "archive.html",
	KindCategory: "archive.html",
	KindTag:      "archive.html",
	KindAbout:    "about.html",
}

func templateFuncs() template.FuncMap {
	titleCaser := cases.Title(language.English)
	return template.FuncMap{
		"formatDate": func(date string) string {
			if t, ok := content.ParseDate(date); ok {
				return t.Format("Jan 02,2006")
			}
			return date
		},
		"splitTags": strings.Fields,
		"title":     titleCaser.String,
		"year":      func() int { return time.Now().Year() },
	}
}

// layouts maps a page layout name to its template set, each a clone of the
// base layout with that page's "content" block parsed in.
type layouts map[string]*template.Template

// loadLayouts parses the base and page layouts. A file of the same name in
// dir replaces the embedded default.
func loadLayouts(dir string) (layouts, error) {
	read := func(name string) (string, error) {
		if dir != "" {
			b, err := os.ReadFile(filepath.Join(dir, name))
			if err == nil {
				return string(b), nil
			}
			if !errors.Is(err, fs.ErrNotExist) {
				return "", fmt.Errorf("failed to read layout '%s': %w", name, err)
			}
		}
		b, err := defaultLayouts.ReadFile("layouts/" + name)
		if err != nil {
			return "", fmt.Errorf("no layout named '%s': %w", name, err)
		}
		return string(b), nil
	}

	src, err := read(baseLayout)
	if err != nil {
		return nil, err
	}
	base, err := template.New(baseLayout).Funcs(templateFuncs()).Parse(src)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", baseLayout, err)
	}

	set := make(layouts, len(pageLayouts))
	for _, name := range pageLayouts {
		src, err := read(name)
		if err != nil {
			return nil, err
		}
		page, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("failed to clone %s for %s: %w", baseLayout, name, err)
		}
		if _, err := page.New(name).Parse(src); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		set[name] = page
	}
	return set, nil
}
