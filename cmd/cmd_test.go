package cmd

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

// project lays out a small blog and returns the path of its config file.
func project(t *testing.T, extra string) string {
	t.Helper()
	root := t.TempDir()
	docs := filepath.Join(root, "docs")
	writeFile(t, filepath.Join(docs, "a.md"), "---\ntitle: Alpha\ndate: 2021-01-01\ncategory: Tech\ntag: js\n---\nA\n")
	writeFile(t, filepath.Join(docs, "b.md"), "---\ntitle: Beta\ndate: 2022-06-15\ncategory: Life\ntag: js ts\n---\nB\n")

	cfg := filepath.Join(root, "config.yaml")
	writeFile(t, cfg, "siteTitle: Cmd Blog\n"+
		"logLevel: error\n"+
		"contentDir: "+docs+"\n"+
		"outputDir: "+filepath.Join(root, "public")+"\n"+
		"layoutsDir: "+filepath.Join(root, "layouts")+"\n"+
		"staticDir: "+filepath.Join(root, "static")+"\n"+
		"aboutFile: "+filepath.Join(root, "ME.md")+"\n"+extra)
	return cfg
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	reset := func() {
		cfgFile, logLevel = "", ""
		postsCategory, postsTag, postsArchive = "", "", false
	}
	reset()
	t.Cleanup(reset)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestInitializeConfig(t *testing.T) {
	cfgFile = project(t, "")
	t.Cleanup(func() { cfgFile = "" })
	t.Setenv("POSTBOOK_SITETITLE", "Env Blog")

	used, err := initializeConfig()
	require.NoError(t, err)
	assert.Equal(t, cfgFile, used)
	assert.Equal(t, "Env Blog", appConfig.SiteTitle)
	assert.Equal(t, "error", appConfig.LogLevel)
	assert.Equal(t, "-zh-CN", appConfig.LocaleSuffix)
	assert.Contains(t, appConfig.Taxonomy.Categories, "Tech")
}

func TestInitializeConfig_Invalid(t *testing.T) {
	cfgFile = project(t, "tags: [js, js]\n")
	t.Cleanup(func() { cfgFile = "" })

	_, err := initializeConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestInitializeConfig_MissingExplicitFile(t *testing.T) {
	cfgFile = filepath.Join(t.TempDir(), "nope.yaml")
	t.Cleanup(func() { cfgFile = "" })

	_, err := initializeConfig()
	require.Error(t, err)
}

func TestNewIndex_UnsafeHTML(t *testing.T) {
	cfgFile = project(t, "unsafeHTML: true\n")
	t.Cleanup(func() { cfgFile = "" })
	writeFile(t, filepath.Join(filepath.Dir(cfgFile), "docs", "raw.md"), "---\ntitle: Raw\n---\n<div class=\"embed\">x</div>\n")

	_, err := initializeConfig()
	require.NoError(t, err)
	assert.True(t, appConfig.UnsafeHTML)

	idx, err := newIndex(appConfig, nil)
	require.NoError(t, err)
	post, err := idx.GetBySlug("raw")
	require.NoError(t, err)
	assert.Contains(t, string(post.Content), `<div class="embed">x</div>`)

	appConfig.UnsafeHTML = false
	idx, err = newIndex(appConfig, nil)
	require.NoError(t, err)
	post, err = idx.GetBySlug("raw")
	require.NoError(t, err)
	assert.NotContains(t, string(post.Content), `<div class="embed">`)
}

func TestNewLogger(t *testing.T) {
	l, err := newLogger("debug")
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))

	l, err = newLogger("")
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, l.Core().Enabled(zapcore.InfoLevel))

	_, err = newLogger("loud")
	assert.Error(t, err)
}

func TestPostsCommand(t *testing.T) {
	color.NoColor = true
	cfg := project(t, "")

	out, err := execute(t, "posts", "--config", cfg)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "2022-06-15"), lines[0])
	assert.Contains(t, lines[0], "Beta")
	assert.True(t, strings.HasPrefix(lines[1], "2021-01-01"), lines[1])

	out, err = execute(t, "posts", "--config", cfg, "--tag", "ts")
	require.NoError(t, err)
	assert.Contains(t, out, "2022\n")
	assert.Contains(t, out, "Beta")
	assert.NotContains(t, out, "Alpha")

	out, err = execute(t, "posts", "--config", cfg, "--category", "Tech")
	require.NoError(t, err)
	assert.Contains(t, out, "Alpha")
	assert.NotContains(t, out, "Beta")
}

func TestBuildCommand(t *testing.T) {
	cfg := project(t, "")

	out, err := execute(t, "build", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "Built ")

	public := filepath.Join(filepath.Dir(cfg), "public")
	for _, rel := range []string{"index.html", "posts/a/index.html", "archive/index.html", "rss/feed.xml"} {
		_, err := os.Stat(filepath.Join(public, filepath.FromSlash(rel)))
		assert.NoError(t, err, rel)
	}
}

func TestPreviewHandler(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "index.html"), "home")
	writeFile(t, filepath.Join(dir, "posts", "a", "index.html"), "post a")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "rss"), 0o755))

	srv := httptest.NewServer(previewHandler(dir))
	defer srv.Close()

	res, err := http.Get(srv.URL + "/posts/a/")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "no-cache, no-store, must-revalidate", res.Header.Get("Cache-Control"))

	res2, err := http.Get(srv.URL + "/rss/")
	require.NoError(t, err)
	defer res2.Body.Close()
	assert.Equal(t, http.StatusNotFound, res2.StatusCode)
}
