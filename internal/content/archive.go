package content

import (
	"slices"
	"strconv"
	"strings"

	"github.com/Bitlatte/postbook/internal/model"
)

// groupByYear buckets links by the first four characters of their date.
// Groups are ordered newest year first; inside a group links keep the order
// they were given in, which for the index is file order rather than date.
func groupByYear(links []model.Link) []model.ArchiveGroup {
	buckets := make(map[string][]model.Link)
	var years []string
	for _, l := range links {
		y := yearOf(l.Date)
		if _, ok := buckets[y]; !ok {
			years = append(years, y)
		}
		buckets[y] = append(buckets[y], l)
	}

	slices.SortStableFunc(years, compareYearsDesc)

	groups := make([]model.ArchiveGroup, 0, len(years))
	for _, y := range years {
		groups = append(groups, model.ArchiveGroup{Year: y, Posts: buckets[y]})
	}
	return groups
}

func yearOf(date string) string {
	date = strings.TrimSpace(date)
	if len(date) < 4 {
		return date
	}
	return date[:4]
}

// compareYearsDesc orders numeric years descending; anything non-numeric
// goes after them in first-seen order.
func compareYearsDesc(a, b string) int {
	ya, errA := strconv.Atoi(a)
	yb, errB := strconv.Atoi(b)
	switch {
	case errA == nil && errB == nil:
		return yb - ya
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	default:
		return 0
	}
}

// Variant returns the other-language sibling of slug under the locale
// suffix convention, and whether slug itself is the translated one.
func Variant(slug, suffix string) (sibling string, translated bool) {
	if suffix == "" || slug == "" {
		return "", false
	}
	if base, ok := strings.CutSuffix(slug, suffix); ok && base != "" {
		return base, true
	}
	return slug + suffix, false
}
