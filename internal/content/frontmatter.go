package content

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
)

// meta is the front matter every post is expected to carry. Absent keys stay
// empty; nothing here is validated.
type meta struct {
	Title       string
	Date        string
	Category    string
	Tag         string
	Description string
}

// parseFrontMatter splits source into metadata and markdown body. Both YAML
// (---) and TOML (+++) blocks are accepted; a file without a block is all body.
func parseFrontMatter(source []byte) (meta, []byte, error) {
	var fmData map[string]interface{}
	body, err := frontmatter.Parse(bytes.NewReader(source), &fmData)
	if err != nil {
		return meta{}, source, fmt.Errorf("parse frontmatter: %w", err)
	}

	return meta{
		Title:       stringField(fmData, "title"),
		Date:        stringField(fmData, "date"),
		Category:    stringField(fmData, "category"),
		Tag:         stringField(fmData, "tag"),
		Description: stringField(fmData, "description"),
	}, body, nil
}

func stringField(fmData map[string]interface{}, key string) string {
	switch v := fmData[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case time.Time:
		if v.Hour() == 0 && v.Minute() == 0 && v.Second() == 0 && v.Nanosecond() == 0 {
			return v.Format("2006-01-02")
		}
		return v.Format(time.RFC3339)
	case []interface{}:
		// tags written as a YAML list collapse to the space-separated form
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, fmt.Sprint(item))
		}
		return strings.Join(parts, " ")
	default:
		return fmt.Sprint(v)
	}
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02",
}

// ParseDate parses a front-matter date in any of the accepted layouts.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// splitTags is the single place tag strings are tokenised.
func splitTags(tag string) []string {
	return strings.Fields(tag)
}

func hasTag(tag, want string) bool {
	for _, t := range splitTags(tag) {
		if t == want {
			return true
		}
	}
	return false
}
