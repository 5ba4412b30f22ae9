package model

import "html/template"

// PageData is the template context for a single generated page.
type PageData struct {
	Site      *SiteData
	PageTitle string
	Layout    string

	Post       *Post
	Nav        Neighbors
	Variant    *Link
	Translated bool
	Heading    string
	Groups     []ArchiveGroup
	Content    template.HTML
}
