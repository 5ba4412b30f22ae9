// Package site renders the static blog from a content index.
package site

import (
	"errors"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Bitlatte/postbook/internal/config"
	"github.com/Bitlatte/postbook/internal/content"
	"github.com/Bitlatte/postbook/internal/feed"
	"github.com/Bitlatte/postbook/internal/model"
)

// Report summarises one build.
type Report struct {
	Pages    int
	Feeds    int
	Rejected []string
	Took     time.Duration
}

// Builder writes every page of the site into the configured output directory.
type Builder struct {
	cfg    config.Config
	index  *content.Index
	site   *model.SiteData
	logger *zap.Logger
	now    func() time.Time
}

func NewBuilder(cfg config.Config, index *content.Index, site *model.SiteData, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if site == nil {
		site = &model.SiteData{}
	}
	return &Builder{cfg: cfg, index: index, site: site, logger: logger, now: time.Now}
}

// Build cleans the output directory and regenerates the whole site.
func (b *Builder) Build() (Report, error) {
	start := b.now()
	cfg := b.cfg
	log := b.logger.With(zap.String("outputDir", cfg.OutputDir))
	log.Info("Starting build", zap.String("contentDir", cfg.ContentDir), zap.String("baseURL", cfg.BaseURL))

	if _, err := os.Stat(cfg.ContentDir); errors.Is(err, os.ErrNotExist) {
		return Report{}, fmt.Errorf("content directory '%s' not found. Please create it and add your Markdown files", cfg.ContentDir)
	}

	if err := cfg.CheckOutputDir(); err != nil {
		return Report{}, err
	}
	if err := os.RemoveAll(cfg.OutputDir); err != nil {
		return Report{}, fmt.Errorf("failed to remove output directory '%s': %w", cfg.OutputDir, err)
	}
	if err := os.MkdirAll(cfg.OutputDir, os.ModePerm); err != nil {
		return Report{}, fmt.Errorf("failed to create output directory '%s': %w", cfg.OutputDir, err)
	}

	if cfg.StaticDir != "" {
		if _, err := os.Stat(cfg.StaticDir); err == nil {
			if err := copyDirContents(cfg.StaticDir, cfg.OutputDir, log); err != nil {
				return Report{}, fmt.Errorf("failed to copy static assets: %w", err)
			}
			log.Debug("Static assets copied", zap.String("staticDir", cfg.StaticDir))
		} else {
			log.Debug("Static assets directory not found, skipping copy", zap.String("staticDir", cfg.StaticDir))
		}
	}

	tmpl, err := loadLayouts(cfg.LayoutsDir)
	if err != nil {
		return Report{}, err
	}

	posts, err := b.index.ListAll()
	if err != nil {
		return Report{}, fmt.Errorf("failed to list posts: %w", err)
	}
	slugs, err := b.index.ListSlugs()
	if err != nil {
		return Report{}, fmt.Errorf("failed to list slugs: %w", err)
	}
	routes, rejected := Routes(slugs, cfg.Taxonomy)
	for _, key := range rejected {
		log.Warn("Skipping page with a key that is not a valid URL segment", zap.String("key", key))
	}

	// posts without a page are left out of every listing so nothing links to them
	known := make(map[string]model.Link, len(posts))
	linked := make([]model.Post, 0, len(posts))
	for _, p := range posts {
		if !validSegment(p.Slug) {
			continue
		}
		known[p.Slug] = p.Link()
		linked = append(linked, p)
	}
	posts = linked

	b.site.Config = cfg
	b.site.Taxonomy = cfg.Taxonomy
	b.site.Posts = posts

	report := Report{Rejected: rejected}
	for _, route := range routes {
		data, err := b.pageData(route, known)
		if errors.Is(err, content.ErrNotFound) && route.Kind == KindAbout {
			log.Warn("About document not found, skipping about page", zap.String("aboutFile", cfg.AboutFile))
			continue
		}
		if err != nil {
			return report, fmt.Errorf("failed to prepare %s page '%s': %w", route.Kind, route.Key, err)
		}
		page := tmpl[layoutFor[route.Kind]]
		if err := renderPage(page, filepath.Join(cfg.OutputDir, filepath.FromSlash(route.File)), data); err != nil {
			return report, err
		}
		report.Pages++
		log.Debug("Generated page", zap.Stringer("kind", route.Kind), zap.String("file", route.File))
	}

	f := feed.Build(cfg, posts, b.now())
	written, err := feed.Write(filepath.Join(cfg.OutputDir, "rss"), f, posts)
	report.Feeds = len(written)
	if err != nil {
		return report, err
	}

	report.Took = b.now().Sub(start)
	log.Info("Build completed",
		zap.Int("posts", len(posts)),
		zap.Int("pages", report.Pages),
		zap.Int("feeds", report.Feeds),
		zap.Duration("took", report.Took))
	return report, nil
}

func (b *Builder) pageData(route Route, known map[string]model.Link) (*model.PageData, error) {
	data := &model.PageData{Site: b.site, Layout: layoutFor[route.Kind]}

	switch route.Kind {
	case KindHome:
	case KindPost:
		post, err := b.index.GetBySlug(route.Key)
		if err != nil {
			return nil, err
		}
		nav, err := b.index.GetNeighbors(route.Key)
		if err != nil {
			return nil, err
		}
		data.Post = &post
		data.Nav = model.Neighbors{
			Previous: reachable(nav.Previous, known),
			Next:     reachable(nav.Next, known),
		}
		data.PageTitle = post.Title
		if sibling, translated := content.Variant(route.Key, b.cfg.LocaleSuffix); sibling != "" {
			if l, ok := known[sibling]; ok {
				data.Variant = &l
				data.Translated = translated
			}
		}
	case KindArchive:
		groups, err := b.index.ListArchive()
		if err != nil {
			return nil, err
		}
		data.PageTitle = "Archive"
		data.Groups = linkedGroups(groups, known)
	case KindCategory:
		groups, err := b.index.ListByCategory(route.Key)
		if err != nil {
			return nil, err
		}
		data.PageTitle = "category"
		data.Heading = "Reading articles in " + route.Key
		data.Groups = linkedGroups(groups, known)
	case KindTag:
		groups, err := b.index.ListByTag(route.Key)
		if err != nil {
			return nil, err
		}
		data.PageTitle = "tag"
		data.Heading = "Reading articles in " + route.Key
		data.Groups = linkedGroups(groups, known)
	case KindAbout:
		html, err := b.index.About()
		if err != nil {
			return nil, err
		}
		data.PageTitle = "About"
		data.Content = html
	default:
		return nil, fmt.Errorf("unknown route kind %d", route.Kind)
	}
	return data, nil
}

func reachable(l *model.Link, known map[string]model.Link) *model.Link {
	if l == nil {
		return nil
	}
	if _, ok := known[l.Slug]; !ok {
		return nil
	}
	return l
}

// linkedGroups drops links to posts that have no page, and any year left empty.
func linkedGroups(groups []model.ArchiveGroup, known map[string]model.Link) []model.ArchiveGroup {
	out := make([]model.ArchiveGroup, 0, len(groups))
	for _, g := range groups {
		links := make([]model.Link, 0, len(g.Posts))
		for _, l := range g.Posts {
			if _, ok := known[l.Slug]; ok {
				links = append(links, l)
			}
		}
		if len(links) > 0 {
			out = append(out, model.ArchiveGroup{Year: g.Year, Posts: links})
		}
	}
	return out
}

func renderPage(page *template.Template, outputPath string, data *model.PageData) (err error) {
	if page == nil {
		return fmt.Errorf("no layout for '%s'", outputPath)
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), os.ModePerm); err != nil {
		return fmt.Errorf("failed to create directory '%s': %w", filepath.Dir(outputPath), err)
	}
	outFile, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file '%s': %w", outputPath, err)
	}
	defer func() {
		err = multierr.Append(err, outFile.Close())
	}()

	if err := page.ExecuteTemplate(outFile, baseLayout, data); err != nil {
		return fmt.Errorf("failed to execute template '%s' (outputting to '%s'): %w", data.Layout, outputPath, err)
	}
	return nil
}
