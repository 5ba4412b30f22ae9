// Package feed writes the RSS 2.0, Atom and JSON feeds for the post list.
package feed

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/feeds"
	"go.uber.org/multierr"

	"github.com/Bitlatte/postbook/internal/config"
	"github.com/Bitlatte/postbook/internal/content"
	"github.com/Bitlatte/postbook/internal/model"
)

const (
	RSSFile  = "feed.xml"
	AtomFile = "atom.xml"
	JSONFile = "feed.json"
)

// Build assembles the feed for posts, which are expected newest first.
func Build(cfg config.Config, posts []model.Post, now time.Time) *feeds.Feed {
	base := strings.TrimRight(cfg.BaseURL, "/")
	author := &feeds.Author{Name: cfg.Author.Name, Email: cfg.Author.Email}

	f := &feeds.Feed{
		Title:     cfg.SiteTitle,
		Link:      &feeds.Link{Href: base},
		Id:        base,
		Author:    author,
		Created:   now,
		Updated:   now,
		Copyright: fmt.Sprintf("All rights reserved %d, %s", now.Year(), cfg.Author.Name),
		Image: &feeds.Image{
			Url:   base + "/logo.svg",
			Title: cfg.SiteTitle,
			Link:  base,
		},
	}

	for _, p := range posts {
		url := base + "/posts/" + p.Slug
		item := &feeds.Item{
			Title:       p.Title,
			Link:        &feeds.Link{Href: url},
			Id:          url,
			Author:      author,
			Description: string(p.Description),
		}
		if created, ok := content.ParseDate(p.Date); ok {
			item.Created = created
		} else {
			// Atom requires an updated date on every entry
			item.Updated = now
		}
		f.Items = append(f.Items, item)
	}
	return f
}

// Write renders f and the post categories into dir as RSS, Atom and JSON
// documents. It returns the paths written.
func Write(dir string, f *feeds.Feed, posts []model.Post) (written []string, err error) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create feed directory '%s': %w", dir, err)
	}

	rss := rssWithCategories(f, posts)

	writers := []struct {
		name  string
		write func(*os.File) error
	}{
		{RSSFile, func(out *os.File) error { return feeds.WriteXML(rss, out) }},
		{AtomFile, func(out *os.File) error { return f.WriteAtom(out) }},
		{JSONFile, func(out *os.File) error { return f.WriteJSON(out) }},
	}

	for _, w := range writers {
		path := filepath.Join(dir, w.name)
		if err := writeFile(path, w.write); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

// rssDocument mirrors feeds.RssFeedXml with items that can carry several
// categories. gorilla/feeds models a single category per item.
type rssDocument struct {
	XMLName          xml.Name    `xml:"rss"`
	Version          string      `xml:"version,attr"`
	ContentNamespace string      `xml:"xmlns:content,attr"`
	Channel          *rssChannel `xml:"channel"`
}

func (d *rssDocument) FeedXml() interface{} { return d }

type rssChannel struct {
	*feeds.RssFeed
	Items []*rssItem `xml:"item"`
}

type rssItem struct {
	*feeds.RssItem
	Categories []string `xml:"category"`
}

// rssWithCategories builds the RSS channel for f and tags each item with its
// post's category followed by every tag token.
func rssWithCategories(f *feeds.Feed, posts []model.Post) *rssDocument {
	channel := (&feeds.Rss{Feed: f}).RssFeed()
	doc := &rssDocument{
		Version:          "2.0",
		ContentNamespace: "http://purl.org/rss/1.0/modules/content/",
		Channel:          &rssChannel{RssFeed: channel},
	}
	for i, item := range channel.Items {
		out := &rssItem{RssItem: item}
		if i < len(posts) {
			out.Categories = categories(posts[i])
		}
		doc.Channel.Items = append(doc.Channel.Items, out)
	}
	return doc
}

func categories(p model.Post) []string {
	var out []string
	if p.Category != "" {
		out = append(out, p.Category)
	}
	return append(out, strings.Fields(p.Tag)...)
}

func writeFile(path string, write func(*os.File) error) (err error) {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create feed file '%s': %w", path, err)
	}
	defer func() {
		err = multierr.Append(err, out.Close())
	}()
	if err := write(out); err != nil {
		return fmt.Errorf("failed to write feed file '%s': %w", path, err)
	}
	return nil
}
