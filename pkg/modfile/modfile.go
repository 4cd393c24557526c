// Package modfile ties parsed mod metadata to the archive it came from.
package modfile

import (
	"github.com/nirvanamm/nirvanamm/pkg/archive"
	"github.com/nirvanamm/nirvanamm/pkg/constants"
	"github.com/nirvanamm/nirvanamm/pkg/errors"
	"github.com/nirvanamm/nirvanamm/pkg/manifest"
	"github.com/nirvanamm/nirvanamm/pkg/types"
)

// ModFile is one discovered mod archive. Entries is the archive's member
// list captured when the archive was read, so checks over it need no IO.
type ModFile struct {
	Metadata manifest.ModMetadata
	Format   int
	Path     string
	Entries  []string
}

// New builds a ModFile from already known parts.
func New(md manifest.ModMetadata, path string, entries []string) *ModFile {
	return &ModFile{Metadata: md, Path: path, Entries: entries}
}

// Load reads the archive at path and parses its manifest.
func Load(fs types.FS, path string) (*ModFile, error) {
	r, err := archive.Open(fs, path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	if !r.Has(constants.ManifestName) {
		return nil, errors.Newf(errors.ErrParse, "%s does not contain a %s file", path, constants.ManifestName).
			WithDetail("path", path)
	}
	data, err := r.ReadAll(constants.ManifestName)
	if err != nil {
		return nil, err
	}

	m, err := manifest.Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, errors.GetErrorCode(err), "failed to parse mod file in %s", path).
			WithDetail("path", path)
	}

	return &ModFile{
		Metadata: m.Metadata,
		Format:   m.Format,
		Path:     path,
		Entries:  r.Names(),
	}, nil
}

// GUID is shorthand for Metadata.GUID.
func (m *ModFile) GUID() string {
	return m.Metadata.GUID
}

// Equal delegates to metadata equality.
func (m *ModFile) Equal(other *ModFile) bool {
	return m.Metadata.Equal(other.Metadata)
}

// HasPatch reports whether the archive ships the delta patch entry.
func (m *ModFile) HasPatch() bool {
	for _, e := range m.Entries {
		if e == constants.PatchName {
			return true
		}
	}
	return false
}

// Metadatas projects a list of mods onto their metadata.
func Metadatas(mods []*ModFile) []manifest.ModMetadata {
	out := make([]manifest.ModMetadata, len(mods))
	for i, m := range mods {
		out[i] = m.Metadata
	}
	return out
}

// Find returns the mod with the given GUID.
func Find(mods []*ModFile, guid string) (*ModFile, bool) {
	for _, m := range mods {
		if m.GUID() == guid {
			return m, true
		}
	}
	return nil, false
}
