package content

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Bitlatte/postbook/internal/model"
)

func TestGroupByYear(t *testing.T) {
	links := []model.Link{
		{Slug: "a", Date: "2020-05-01"},
		{Slug: "b", Date: "2022-01-01"},
		{Slug: "c", Date: "2020-01-01"},
		{Slug: "d", Date: ""},
		{Slug: "e", Date: "999"},
		{Slug: "f", Date: "2022-12-31"},
	}

	groups := groupByYear(links)

	years := make([]string, 0, len(groups))
	for _, g := range groups {
		years = append(years, g.Year)
	}
	assert.Equal(t, []string{"2022", "2020", "999", ""}, years)
	assert.Equal(t, []model.Link{{Slug: "b", Date: "2022-01-01"}, {Slug: "f", Date: "2022-12-31"}}, groups[0].Posts)
	assert.Equal(t, []model.Link{{Slug: "a", Date: "2020-05-01"}, {Slug: "c", Date: "2020-01-01"}}, groups[1].Posts)
}

func TestGroupByYear_Empty(t *testing.T) {
	groups := groupByYear(nil)
	assert.NotNil(t, groups)
	assert.Empty(t, groups)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2021-01-01", time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{" 2021-01-01 ", time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"2021-01-01 08:30:00", time.Date(2021, 1, 1, 8, 30, 0, 0, time.UTC), true},
		{"2021-01-01T08:30:00Z", time.Date(2021, 1, 1, 8, 30, 0, 0, time.UTC), true},
		{"2021/02/03", time.Date(2021, 2, 3, 0, 0, 0, 0, time.UTC), true},
		{"2021-02-30", time.Time{}, false},
		{"yesterday", time.Time{}, false},
		{"", time.Time{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseDate(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		if tt.ok {
			assert.True(t, tt.want.Equal(got), "%q: got %v", tt.in, got)
		}
	}
}

func TestStringField(t *testing.T) {
	fm := map[string]interface{}{
		"date":  time.Date(2020, 5, 5, 0, 0, 0, 0, time.UTC),
		"stamp": time.Date(2020, 5, 5, 10, 0, 0, 0, time.UTC),
		"tag":   []interface{}{"go", "cli"},
		"count": 3,
		"title": "T",
	}
	assert.Equal(t, "2020-05-05", stringField(fm, "date"))
	assert.Equal(t, "2020-05-05T10:00:00Z", stringField(fm, "stamp"))
	assert.Equal(t, "go cli", stringField(fm, "tag"))
	assert.Equal(t, "3", stringField(fm, "count"))
	assert.Equal(t, "T", stringField(fm, "title"))
	assert.Equal(t, "", stringField(fm, "missing"))
	assert.Equal(t, "", stringField(nil, "title"))
}

func TestHasTag(t *testing.T) {
	assert.True(t, hasTag("js ts", "ts"))
	assert.True(t, hasTag("  js\tts ", "js"))
	assert.False(t, hasTag("typescript", "type"))
	assert.False(t, hasTag("", ""))
}

func TestVariant(t *testing.T) {
	tests := []struct {
		slug, suffix, sibling string
		translated            bool
	}{
		{"hello", "-zh-CN", "hello-zh-CN", false},
		{"hello-zh-CN", "-zh-CN", "hello", true},
		{"-zh-CN", "-zh-CN", "-zh-CN-zh-CN", false},
		{"hello", "", "", false},
	}
	for _, tt := range tests {
		sibling, translated := Variant(tt.slug, tt.suffix)
		assert.Equal(t, tt.sibling, sibling, tt.slug)
		assert.Equal(t, tt.translated, translated, tt.slug)
	}
}
