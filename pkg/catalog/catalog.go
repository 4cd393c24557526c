// Package catalog discovers mod archives in the mods directory.
//
// Every scan lists the directory again, but an archive whose size and
// modification time are unchanged since the previous scan is not reopened.
package catalog

import (
	"path/filepath"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/nirvanamm/nirvanamm/pkg/errors"
	"github.com/nirvanamm/nirvanamm/pkg/logging"
	"github.com/nirvanamm/nirvanamm/pkg/modfile"
	"github.com/nirvanamm/nirvanamm/pkg/types"
)

// DefaultCacheSize bounds the number of remembered archives.
const DefaultCacheSize = 256

// Failure is an archive left out of a scan.
type Failure struct {
	Path string
	Err  error
}

// ScanResult lists loaded mods and skipped archives, both in file name
// order.
type ScanResult struct {
	Mods     []*modfile.ModFile
	Failures []Failure
}

type entry struct {
	size    int64
	modTime time.Time
	mod     *modfile.ModFile
	err     error
}

// Catalog scans one directory.
type Catalog struct {
	fs    types.FS
	dir   string
	ext   string
	cache *lru.Cache[string, entry]
}

// New returns a Catalog over dir, considering files ending in ext.
func New(fs types.FS, dir, ext string, cacheSize int) (*Catalog, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, entry](cacheSize)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to create catalog cache")
	}
	return &Catalog{fs: fs, dir: dir, ext: strings.ToLower(ext), cache: cache}, nil
}

// Dir returns the scanned directory.
func (c *Catalog) Dir() string {
	return c.dir
}

// Scan loads every archive in the directory, creating the directory when
// missing. Archives that cannot be read or parsed, and archives repeating
// a GUID already seen, are reported as failures and skipped.
func (c *Catalog) Scan() (*ScanResult, error) {
	logger := logging.GetLogger("catalog")

	if err := c.fs.MkdirAll(c.dir, 0755); err != nil {
		return nil, errors.Wrapf(err, errors.ErrIO, "failed to create mods directory %s", c.dir)
	}
	entries, err := c.fs.ReadDir(c.dir)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrIO, "failed to list %s", c.dir)
	}

	result := &ScanResult{}
	seen := make(map[string]string)

	for _, de := range entries {
		if !de.Type().IsRegular() || strings.ToLower(filepath.Ext(de.Name())) != c.ext {
			continue
		}
		path := filepath.Join(c.dir, de.Name())

		mod, err := c.load(path)
		if err == nil {
			if first, dup := seen[mod.GUID()]; dup {
				err = errors.Newf(errors.ErrDuplicateGUID, "guid %s is already provided by %s", mod.GUID(), filepath.Base(first)).
					WithDetail("guid", mod.GUID())
			}
		}
		if err != nil {
			logger.Warn().
				Str("path", path).
				Str("code", string(errors.GetErrorCode(err))).
				Err(err).
				Msg("Skipping mod archive")
			result.Failures = append(result.Failures, Failure{Path: path, Err: err})
			continue
		}

		seen[mod.GUID()] = path
		result.Mods = append(result.Mods, mod)
	}

	logger.Debug().
		Int("mods", len(result.Mods)).
		Int("skipped", len(result.Failures)).
		Msg("Scan finished")
	return result, nil
}

func (c *Catalog) load(path string) (*modfile.ModFile, error) {
	info, err := c.fs.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrIO, "failed to stat %s", path)
	}

	if hit, ok := c.cache.Get(path); ok && hit.size == info.Size() && hit.modTime.Equal(info.ModTime()) {
		return hit.mod, hit.err
	}

	mod, err := modfile.Load(c.fs, path)
	c.cache.Add(path, entry{size: info.Size(), modTime: info.ModTime(), mod: mod, err: err})
	return mod, err
}

// Cached reports how many archives are remembered.
func (c *Catalog) Cached() int {
	return c.cache.Len()
}

// Forget drops every remembered archive.
func (c *Catalog) Forget() {
	c.cache.Purge()
}
