package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"
)

// Author is the identity attached to feeds and the page footer.
type Author struct {
	Name  string `mapstructure:"name"`
	Email string `mapstructure:"email"`
	Link  string `mapstructure:"link"`
}

// Links are the external profile links shown in the sidebar.
type Links struct {
	GitHub  string `mapstructure:"github"`
	Twitter string `mapstructure:"twitter"`
}

// Taxonomy is the fixed set of categories and tags that get their own pages.
// It is passed explicitly to both route generation and the sidebar.
type Taxonomy struct {
	Categories []string `mapstructure:"categories"`
	Tags       []string `mapstructure:"tags"`
}

type Config struct {
	SiteTitle      string `mapstructure:"siteTitle"`
	BaseURL        string `mapstructure:"baseURL"`
	OutputDir      string `mapstructure:"outputDir"`
	ContentDir     string `mapstructure:"contentDir"`
	LayoutsDir     string `mapstructure:"layoutsDir"`
	StaticDir      string `mapstructure:"staticDir"`
	AboutFile      string `mapstructure:"aboutFile"`
	LocaleSuffix   string `mapstructure:"localeSuffix"`
	HighlightStyle string `mapstructure:"highlightStyle"`
	HardWraps      bool   `mapstructure:"hardWraps"`
	UnsafeHTML     bool   `mapstructure:"unsafeHTML"`
	Cache          bool   `mapstructure:"cache"`
	LogLevel       string `mapstructure:"logLevel"`

	Author   Author   `mapstructure:"author"`
	Links    Links    `mapstructure:"links"`
	Taxonomy Taxonomy `mapstructure:",squash"`
}

var (
	DefaultCategories = []string{"Announcements", "Life", "Tech"}
	DefaultTags       = []string{"meta", "javascript", "node.js", "year-end", "shopping-guide", "news", "typescript"}
)

// Defaults returns the values registered with viper before any file or
// environment override is applied.
func Defaults() map[string]any {
	return map[string]any{
		"siteTitle":      "My Blog",
		"baseURL":        "http://localhost:1313",
		"outputDir":      "public",
		"contentDir":     "docs",
		"layoutsDir":     "layouts",
		"staticDir":      "static",
		"aboutFile":      "ME.md",
		"localeSuffix":   "-zh-CN",
		"highlightStyle": "nord",
		"hardWraps":      false,
		"unsafeHTML":     false,
		"cache":          true,
		"logLevel":       "info",
		"categories":     DefaultCategories,
		"tags":           DefaultTags,
	}
}

// Validate reports configuration that would produce a broken site.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.ContentDir) == "" {
		errs = append(errs, errors.New("contentDir must not be empty"))
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		errs = append(errs, errors.New("outputDir must not be empty"))
	} else if err := c.CheckOutputDir(); err != nil {
		errs = append(errs, err)
	}
	if dup := firstDuplicate(c.Taxonomy.Categories); dup != "" {
		errs = append(errs, fmt.Errorf("duplicate category %q", dup))
	}
	if dup := firstDuplicate(c.Taxonomy.Tags); dup != "" {
		errs = append(errs, fmt.Errorf("duplicate tag %q", dup))
	}
	for _, t := range c.Taxonomy.Tags {
		if strings.ContainsAny(t, " \t\n/") {
			errs = append(errs, fmt.Errorf("tag %q must be a single path-safe token", t))
		}
	}
	return errors.Join(errs...)
}

// CheckOutputDir rejects an output directory that a build would wipe along
// with site sources: the working directory itself, any source directory, or
// a directory containing one.
func (c Config) CheckOutputDir() error {
	out, err := filepath.Abs(c.OutputDir)
	if err != nil {
		return fmt.Errorf("outputDir %q: %w", c.OutputDir, err)
	}
	if cwd, err := os.Getwd(); err == nil && out == cwd {
		return fmt.Errorf("outputDir %q must not be the working directory", c.OutputDir)
	}

	sources := []struct{ key, path string }{
		{"contentDir", c.ContentDir},
		{"layoutsDir", c.LayoutsDir},
		{"staticDir", c.StaticDir},
		{"aboutFile", c.AboutFile},
	}
	for _, src := range sources {
		if strings.TrimSpace(src.path) == "" {
			continue
		}
		abs, err := filepath.Abs(src.path)
		if err != nil {
			return fmt.Errorf("%s %q: %w", src.key, src.path, err)
		}
		if within(out, abs) {
			return fmt.Errorf("outputDir %q would delete %s %q when cleaned", c.OutputDir, src.key, src.path)
		}
	}
	return nil
}

// within reports whether path is dir or lies below it.
func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func firstDuplicate(values []string) string {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			return v
		}
		seen[v] = struct{}{}
	}
	return ""
}

// LoadParams reads the free-form "params" section of the site config file.
// A missing file yields an empty map.
func LoadParams(filename string) (map[string]interface{}, error) {
	params := map[string]interface{}{}
	if filename == "" {
		return params, nil
	}
	yamlFile, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return params, nil
		}
		return nil, fmt.Errorf("error reading config file %s: %w", filename, err)
	}

	var raw struct {
		Params map[string]interface{} `yaml:"params"`
	}
	if err := yaml.Unmarshal(yamlFile, &raw); err != nil {
		return nil, fmt.Errorf("error unmarshalling config file %s: %w", filename, err)
	}
	for k, v := range raw.Params {
		params[k] = v
	}
	return params, nil
}
