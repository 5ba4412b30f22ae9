package site

import (
	"path"
	"strings"

	"github.com/Bitlatte/postbook/internal/config"
)

// Kind identifies which page a route renders.
type Kind int

const (
	KindHome Kind = iota
	KindPost
	KindArchive
	KindCategory
	KindTag
	KindAbout
)

func (k Kind) String() string {
	switch k {
	case KindHome:
		return "home"
	case KindPost:
		return "post"
	case KindArchive:
		return "archive"
	case KindCategory:
		return "category"
	case KindTag:
		return "tag"
	case KindAbout:
		return "about"
	default:
		return "unknown"
	}
}

// Route is one output page. Key is the slug, category or tag it is for.
type Route struct {
	Kind Kind
	Key  string
	// File is the output path relative to the output directory.
	File string
}

// Routes enumerates every page of the site from the post slugs and the
// configured taxonomy. Keys that cannot be used as a URL path segment are
// returned separately and get no page.
func Routes(slugs []string, tax config.Taxonomy) (routes []Route, rejected []string) {
	routes = append(routes,
		Route{Kind: KindHome, File: "index.html"},
		Route{Kind: KindArchive, File: path.Join("archive", "index.html")},
		Route{Kind: KindAbout, File: path.Join("about", "index.html")},
	)

	add := func(kind Kind, dir string, keys []string) {
		for _, key := range keys {
			if !validSegment(key) {
				rejected = append(rejected, key)
				continue
			}
			routes = append(routes, Route{Kind: kind, Key: key, File: path.Join(dir, key, "index.html")})
		}
	}
	add(KindPost, "posts", slugs)
	add(KindCategory, "category", tax.Categories)
	add(KindTag, "tags", tax.Tags)
	return routes, rejected
}

func validSegment(s string) bool {
	if s == "" || s == "." || s == ".." {
		return false
	}
	return !strings.ContainsAny(s, "/\\?#% \t\r\n")
}
