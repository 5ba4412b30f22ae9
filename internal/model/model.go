package model

import (
	"html/template"

	"github.com/Bitlatte/postbook/internal/config"
)

// Post is the read-only projection of one markdown file. Content is only
// populated by a single-post fetch.
type Post struct {
	Slug        string
	Title       string
	Date        string
	Category    string
	Tag         string
	Description template.HTML
	Content     template.HTML
}

// Link is the minimal reference to a post used by navigation and archives.
type Link struct {
	Slug  string
	Title string
	Date  string
}

// Link projects the post to its navigation reference.
func (p Post) Link() Link {
	return Link{Slug: p.Slug, Title: p.Title, Date: p.Date}
}

// Neighbors holds the posts adjacent to a given post in date order.
// Previous is the more recent one.
type Neighbors struct {
	Previous *Link
	Next     *Link
}

// ArchiveGroup is a year bucket of an archive, category or tag listing.
type ArchiveGroup struct {
	Year  string
	Posts []Link
}

// SiteData holds all site-wide data handed to every template.
type SiteData struct {
	Config   config.Config
	Params   map[string]interface{}
	Taxonomy config.Taxonomy
	Posts    []Post
}
