package driver

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"lift/internal/diag"
	"lift/internal/observ"
	"lift/internal/source"
)

// diskCacheSchemaVersion names the entry directory. Bump it when
// DiskPayload changes shape; old entries are then simply never read.
const diskCacheSchemaVersion uint16 = 1

// DiskCache stores lowering results on disk, one msgpack file per CacheKey
// under <dir>/lower-v<schema>/<2 hex>/<hex>.mp. Writers rename complete
// files into place, so readers never see a partial entry.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// DiskPayload is the cached outcome of lowering one file.
type DiskPayload struct {
	Path        string
	Output      string
	Stats       observ.StatsSnapshot
	Diagnostics []CachedDiagnostic
}

// CachedDiagnostic is a diagnostic whose spans are reduced to offsets in
// the cached file.
type CachedDiagnostic struct {
	Severity uint8
	Code     uint16
	Message  string
	Start    uint32
	End      uint32
	Notes    []CachedNote
}

type CachedNote struct {
	Start uint32
	End   uint32
	Msg   string
}

// CacheStat summarizes the entries of the current schema.
type CacheStat struct {
	Entries int
	Bytes   int64
}

// OpenDiskCache opens the cache for app under $XDG_CACHE_HOME, or
// ~/.cache when that is unset.
func OpenDiskCache(app string) (*DiskCache, error) {
	base, err := os.UserCacheDir()
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		base, err = xdg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("locate user cache: %w", err)
	}
	return OpenDiskCacheAt(filepath.Join(base, app))
}

// OpenDiskCacheAt opens a cache rooted at dir, creating it if needed.
func OpenDiskCacheAt(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("open cache %s: %w", dir, err)
	}
	return &DiskCache{dir: dir}, nil
}

// Dir returns the cache root, "" for a nil cache.
func (c *DiskCache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

func (c *DiskCache) entries() string {
	return filepath.Join(c.dir, fmt.Sprintf("lower-v%d", diskCacheSchemaVersion))
}

func (c *DiskCache) pathFor(key Digest) string {
	name := hex.EncodeToString(key[:])
	return filepath.Join(c.entries(), name[:2], name+".mp")
}

// Put stores payload under key. A nil cache ignores the call.
func (c *DiskCache) Put(key Digest, payload *DiskPayload) error {
	if c == nil {
		return nil
	}
	data, err := msgpack.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	dst := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), "put-*")
	if err != nil {
		return err
	}
	_, werr := tmp.Write(data)
	if cerr := tmp.Close(); werr == nil {
		werr = cerr
	}
	if werr == nil {
		werr = os.Rename(tmp.Name(), dst)
	}
	if werr != nil {
		_ = os.Remove(tmp.Name())
	}
	return werr
}

// Get loads the entry for key into out. A missing entry is a miss, not an
// error.
func (c *DiskCache) Get(key Digest, out *DiskPayload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	data, err := os.ReadFile(c.pathFor(key))
	c.mu.RUnlock()
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	case err != nil:
		return false, err
	}
	if err := msgpack.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("decode cache entry: %w", err)
	}
	return true, nil
}

// Stat counts the entries of the current schema.
func (c *DiskCache) Stat() (CacheStat, error) {
	var st CacheStat
	if c == nil {
		return st, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	err := filepath.WalkDir(c.entries(), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".mp" {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		st.Entries++
		st.Bytes += info.Size()
		return nil
	})
	return st, err
}

// DropAll removes every entry, including those of older schemas. The root
// directory itself is kept.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	children, err := os.ReadDir(c.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	var errs []error
	for _, child := range children {
		if strings.HasPrefix(child.Name(), "lower-v") {
			errs = append(errs, os.RemoveAll(filepath.Join(c.dir, child.Name())))
		}
	}
	return errors.Join(errs...)
}

// toCached converts the diagnostics of bag for storage.
func toCached(bag *diag.Bag) []CachedDiagnostic {
	items := bag.Items()
	out := make([]CachedDiagnostic, 0, len(items))
	for _, d := range items {
		cd := CachedDiagnostic{
			Severity: uint8(d.Severity),
			Code:     uint16(d.Code),
			Message:  d.Message,
			Start:    d.Primary.Start,
			End:      d.Primary.End,
		}
		for _, n := range d.Notes {
			cd.Notes = append(cd.Notes, CachedNote{Start: n.Span.Start, End: n.Span.End, Msg: n.Msg})
		}
		out = append(out, cd)
	}
	return out
}

// fromCached rebuilds a bag whose spans point into file.
func fromCached(cached []CachedDiagnostic, file source.FileID, maxDiags int) *diag.Bag {
	bag := diag.NewBag(maxDiags)
	for _, cd := range cached {
		d := diag.Diagnostic{
			Severity: diag.Severity(cd.Severity),
			Code:     diag.Code(cd.Code),
			Message:  cd.Message,
			Primary:  source.Span{File: file, Start: cd.Start, End: cd.End},
		}
		for _, n := range cd.Notes {
			d.Notes = append(d.Notes, diag.Note{Span: source.Span{File: file, Start: n.Start, End: n.End}, Msg: n.Msg})
		}
		bag.Add(d)
	}
	return bag
}
