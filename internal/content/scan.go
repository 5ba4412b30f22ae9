package content

import (
	"io/fs"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const ext = ".md"

// record is one parsed post file. Records are shared between callers when the
// cache is on and must not be mutated.
type record struct {
	slug  string
	meta  meta
	body  []byte
	when  time.Time
	dated bool
}

// postEntries returns the markdown files of the content root in fs.ReadDir
// order, which is lexical by file name.
func (idx *Index) postEntries() ([]fs.DirEntry, error) {
	entries, err := fs.ReadDir(idx.fsys, ".")
	if err != nil {
		return nil, &FSError{Op: "readdir", Path: idx.root, Err: err}
	}
	posts := make([]fs.DirEntry, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ext) || e.Name() == ext {
			continue
		}
		posts = append(posts, e)
	}
	return posts, nil
}

// scan returns every post record, from cache when enabled and fresh.
func (idx *Index) scan() ([]record, error) {
	entries, err := idx.postEntries()
	if err != nil {
		return nil, err
	}
	if idx.cache == nil {
		return idx.readAll(entries)
	}
	return idx.cache.load(entries, idx.readAll)
}

func (idx *Index) readAll(entries []fs.DirEntry) ([]record, error) {
	start := time.Now()
	recs := make([]record, 0, len(entries))
	for _, e := range entries {
		rec, err := idx.readRecord(e.Name())
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	idx.logger.Debug("Scanned content",
		zap.String("dir", idx.root),
		zap.Int("posts", len(recs)),
		zap.Duration("took", time.Since(start)))
	return recs, nil
}

func (idx *Index) readRecord(name string) (record, error) {
	data, err := fs.ReadFile(idx.fsys, name)
	if err != nil {
		return record{}, &FSError{Op: "read", Path: name, Err: err}
	}

	m, body, err := parseFrontMatter(data)
	if err != nil {
		idx.logger.Warn("Could not parse front matter, treating file as plain markdown",
			zap.String("file", name), zap.Error(err))
	}

	rec := record{
		slug: strings.TrimSuffix(name, ext),
		meta: m,
		body: body,
	}
	rec.when, rec.dated = ParseDate(m.Date)
	if !rec.dated && m.Date != "" {
		idx.logger.Warn("Unrecognised post date", zap.String("file", name), zap.String("date", m.Date))
	}
	return rec, nil
}

// scanCache holds the last scan keyed by a fingerprint of the directory
// listing. A file rewritten with identical size and modification time is not
// detected.
type scanCache struct {
	group singleflight.Group

	mu   sync.Mutex
	key  uint64
	recs []record
	ok   bool
}

func fingerprint(entries []fs.DirEntry) (uint64, error) {
	d := xxhash.New()
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			return 0, err
		}
		_, _ = d.WriteString(e.Name())
		_, _ = d.WriteString("\x00")
		_, _ = d.WriteString(strconv.FormatInt(info.Size(), 10))
		_, _ = d.WriteString("\x00")
		_, _ = d.WriteString(strconv.FormatInt(info.ModTime().UnixNano(), 10))
		_, _ = d.WriteString("\n")
	}
	return d.Sum64(), nil
}

func (c *scanCache) load(entries []fs.DirEntry, read func([]fs.DirEntry) ([]record, error)) ([]record, error) {
	key, err := fingerprint(entries)
	if err != nil {
		// entry vanished between listing and stat; let a direct read report it
		return read(entries)
	}

	c.mu.Lock()
	if c.ok && c.key == key {
		recs := c.recs
		c.mu.Unlock()
		return recs, nil
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do(strconv.FormatUint(key, 16), func() (interface{}, error) {
		recs, err := read(entries)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.key, c.recs, c.ok = key, recs, true
		c.mu.Unlock()
		return recs, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]record), nil
}

func (c *scanCache) reset() {
	c.mu.Lock()
	c.ok, c.recs = false, nil
	c.mu.Unlock()
}
