package testutil

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/nirvanamm/nirvanamm/pkg/types"
	"github.com/stretchr/testify/require"
)

// Entry is one archive member. A name ending in "/" is a directory.
type Entry struct {
	Name string
	Body string
}

// WriteArchive writes a zip with the given entries, in order.
func WriteArchive(t *testing.T, fs types.FS, path string, entries []Entry) string {
	t.Helper()

	require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0755))
	f, err := fs.Create(path)
	require.NoError(t, err)

	zw := zip.NewWriter(f)
	for _, e := range entries {
		if strings.HasSuffix(e.Name, "/") {
			_, err := zw.Create(e.Name)
			require.NoError(t, err)
			continue
		}
		w, err := zw.Create(e.Name)
		require.NoError(t, err)
		_, err = w.Write([]byte(e.Body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

// ModBuilder assembles a mod archive declaratively.
type ModBuilder struct {
	guid    string
	name    string
	author  string
	version string
	depends []string
	entries []Entry
}

// NewMod starts a mod with version 1.0.0 and no dependencies.
func NewMod(guid string) *ModBuilder {
	return &ModBuilder{
		guid:    guid,
		name:    strings.ToUpper(guid[:1]) + guid[1:],
		author:  "tester",
		version: "1.0.0",
	}
}

// Version sets the mod version.
func (b *ModBuilder) Version(v string) *ModBuilder {
	b.version = v
	return b
}

// Depends adds a compact hard dependency "guid:range".
func (b *ModBuilder) Depends(guid, rng string) *ModBuilder {
	b.depends = append(b.depends, fmt.Sprintf("%q", guid+":"+rng))
	return b
}

// HardTable adds a hard dependency in table form.
func (b *ModBuilder) HardTable(guid, rng string) *ModBuilder {
	b.depends = append(b.depends, fmt.Sprintf("{ guid = %q, version = %q }", guid, rng))
	return b
}

// SoftDepends adds a soft dependency in table form.
func (b *ModBuilder) SoftDepends(guid, rng string) *ModBuilder {
	b.depends = append(b.depends, fmt.Sprintf("{ guid = %q, version = %q, soft = true }", guid, rng))
	return b
}

// File adds a payload entry.
func (b *ModBuilder) File(name, body string) *ModBuilder {
	b.entries = append(b.entries, Entry{Name: name, Body: body})
	return b
}

// Dir adds a directory entry.
func (b *ModBuilder) Dir(name string) *ModBuilder {
	b.entries = append(b.entries, Entry{Name: strings.TrimSuffix(name, "/") + "/"})
	return b
}

// Patch adds the delta patch entry.
func (b *ModBuilder) Patch(body string) *ModBuilder {
	return b.File("patch.xdelta", body)
}

// Manifest renders mod.toml.
func (b *ModBuilder) Manifest() string {
	var sb strings.Builder
	sb.WriteString("manifest = 1\n\n[metadata]\n")
	fmt.Fprintf(&sb, "name = %q\n", b.name)
	fmt.Fprintf(&sb, "guid = %q\n", b.guid)
	fmt.Fprintf(&sb, "author = %q\n", b.author)
	fmt.Fprintf(&sb, "version = %q\n", b.version)
	if len(b.depends) > 0 {
		fmt.Fprintf(&sb, "depends = [%s]\n", strings.Join(b.depends, ", "))
	}
	return sb.String()
}

// Entries returns the archive members, manifest first.
func (b *ModBuilder) Entries() []Entry {
	return append([]Entry{{Name: "mod.toml", Body: b.Manifest()}}, b.entries...)
}

// Write stores the archive at path and returns the path.
func (b *ModBuilder) Write(t *testing.T, fs types.FS, path string) string {
	t.Helper()
	return WriteArchive(t, fs, path, b.Entries())
}
