// Package content indexes a directory of markdown posts and answers the
// listing queries the site pages are built from.
package content

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"slices"
	"strings"

	"github.com/adrg/frontmatter"
	"go.uber.org/zap"

	"github.com/Bitlatte/postbook/internal/markdown"
	"github.com/Bitlatte/postbook/internal/model"
)

// Index answers queries over the posts of one content directory. Without
// WithCache every call re-reads the directory.
type Index struct {
	fsys     fs.FS
	root     string
	renderer markdown.Renderer
	logger   *zap.Logger
	cache    *scanCache

	aboutFS   fs.FS
	aboutName string
}

type Option func(*Index)

func WithLogger(l *zap.Logger) Option {
	return func(idx *Index) {
		if l != nil {
			idx.logger = l
		}
	}
}

// WithCache keeps the last scan and reuses it while the directory
// fingerprint (names, sizes, modification times) is unchanged.
func WithCache() Option {
	return func(idx *Index) { idx.cache = &scanCache{} }
}

// WithAbout sets the standalone document rendered by About.
func WithAbout(fsys fs.FS, name string) Option {
	return func(idx *Index) {
		idx.aboutFS = fsys
		idx.aboutName = name
	}
}

// WithRoot names the content directory in errors and logs.
func WithRoot(root string) Option {
	return func(idx *Index) { idx.root = root }
}

// New builds an Index over the top level of fsys.
func New(fsys fs.FS, renderer markdown.Renderer, opts ...Option) *Index {
	idx := &Index{
		fsys:     fsys,
		root:     ".",
		renderer: renderer,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// Invalidate drops any cached scan.
func (idx *Index) Invalidate() {
	if idx.cache != nil {
		idx.cache.reset()
	}
}

// ListAll returns every post, newest first. Posts with equal dates keep
// their file order; posts without a usable date come last.
func (idx *Index) ListAll() ([]model.Post, error) {
	recs, err := idx.scan()
	if err != nil {
		return nil, err
	}
	recs = newestFirst(recs)

	posts := make([]model.Post, 0, len(recs))
	for _, rec := range recs {
		p, err := idx.summary(rec)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, nil
}

// ListSlugs returns every post slug in file order.
func (idx *Index) ListSlugs() ([]string, error) {
	entries, err := idx.postEntries()
	if err != nil {
		return nil, err
	}
	slugs := make([]string, 0, len(entries))
	for _, e := range entries {
		slugs = append(slugs, strings.TrimSuffix(e.Name(), ext))
	}
	return slugs, nil
}

// GetBySlug reads {slug}.md and renders both description and body.
func (idx *Index) GetBySlug(slug string) (model.Post, error) {
	name := slug + ext
	if slug == "" || strings.ContainsAny(slug, `/\`) || !fs.ValidPath(name) {
		return model.Post{}, fmt.Errorf("post %q: %w", slug, ErrNotFound)
	}

	rec, err := idx.readRecord(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return model.Post{}, fmt.Errorf("post %q: %w", slug, ErrNotFound)
		}
		return model.Post{}, err
	}

	post, err := idx.summary(rec)
	if err != nil {
		return model.Post{}, err
	}
	body, err := idx.renderer.Render(rec.body)
	if err != nil {
		return model.Post{}, fmt.Errorf("post %q content: %w", slug, err)
	}
	post.Content = template.HTML(body)
	return post, nil
}

// GetNeighbors returns the posts on either side of slug in ListAll order.
// An unknown slug yields an empty result, not an error.
func (idx *Index) GetNeighbors(slug string) (model.Neighbors, error) {
	recs, err := idx.scan()
	if err != nil {
		return model.Neighbors{}, err
	}
	recs = newestFirst(recs)

	var nav model.Neighbors
	for i, rec := range recs {
		if rec.slug != slug {
			continue
		}
		if i > 0 {
			prev := link(recs[i-1])
			nav.Previous = &prev
		}
		if i+1 < len(recs) {
			next := link(recs[i+1])
			nav.Next = &next
		}
		break
	}
	return nav, nil
}

// ListByCategory groups the posts whose category is exactly category.
func (idx *Index) ListByCategory(category string) ([]model.ArchiveGroup, error) {
	return idx.archive(func(m meta) bool { return m.Category == category })
}

// ListByTag groups the posts whose tag list contains tag as a whole token.
func (idx *Index) ListByTag(tag string) ([]model.ArchiveGroup, error) {
	return idx.archive(func(m meta) bool { return hasTag(m.Tag, tag) })
}

// ListArchive groups every post by year.
func (idx *Index) ListArchive() ([]model.ArchiveGroup, error) {
	return idx.archive(nil)
}

func (idx *Index) archive(keep func(meta) bool) ([]model.ArchiveGroup, error) {
	recs, err := idx.scan()
	if err != nil {
		return nil, err
	}
	links := make([]model.Link, 0, len(recs))
	for _, rec := range recs {
		if keep != nil && !keep(rec.meta) {
			continue
		}
		links = append(links, link(rec))
	}
	return groupByYear(links), nil
}

// About renders the standalone about document.
func (idx *Index) About() (template.HTML, error) {
	if idx.aboutFS == nil || idx.aboutName == "" {
		return "", fmt.Errorf("about document: %w", ErrNotFound)
	}
	data, err := fs.ReadFile(idx.aboutFS, idx.aboutName)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("about document %s: %w", idx.aboutName, ErrNotFound)
		}
		return "", &FSError{Op: "read", Path: idx.aboutName, Err: err}
	}

	var ignored map[string]interface{}
	body, err := frontmatter.Parse(bytes.NewReader(data), &ignored)
	if err != nil {
		body = data
	}
	html, err := idx.renderer.Render(body)
	if err != nil {
		return "", fmt.Errorf("about document: %w", err)
	}
	return template.HTML(html), nil
}

func (idx *Index) summary(rec record) (model.Post, error) {
	desc, err := idx.renderer.Render([]byte(rec.meta.Description))
	if err != nil {
		return model.Post{}, fmt.Errorf("post %q description: %w", rec.slug, err)
	}
	return model.Post{
		Slug:        rec.slug,
		Title:       rec.meta.Title,
		Date:        rec.meta.Date,
		Category:    rec.meta.Category,
		Tag:         rec.meta.Tag,
		Description: template.HTML(desc),
	}, nil
}

func link(rec record) model.Link {
	return model.Link{Slug: rec.slug, Title: rec.meta.Title, Date: rec.meta.Date}
}

// newestFirst returns a date-descending copy of recs. The sort is stable and
// undated records sink to the end.
func newestFirst(recs []record) []record {
	out := slices.Clone(recs)
	slices.SortStableFunc(out, func(a, b record) int {
		switch {
		case a.dated && b.dated:
			return b.when.Compare(a.when)
		case a.dated:
			return -1
		case b.dated:
			return 1
		default:
			return 0
		}
	})
	return out
}
