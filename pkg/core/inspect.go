package core

import (
	"github.com/nirvanamm/nirvanamm/pkg/archive"
	"github.com/nirvanamm/nirvanamm/pkg/constants"
	"github.com/nirvanamm/nirvanamm/pkg/delta"
	"github.com/nirvanamm/nirvanamm/pkg/errors"
)

// Inspection describes a mod's patch.
type Inspection struct {
	GUID   string
	Header *delta.PatchHeader
}

// Inspect reads the header of a mod's patch.xdelta.
func (m *Manager) Inspect(guid string) (*Inspection, error) {
	selected, err := m.Resolve([]string{guid})
	if err != nil {
		return nil, err
	}
	mod := selected[0]
	if !mod.HasPatch() {
		return nil, errors.Newf(errors.ErrNotFound, "mod %s ships no %s", guid, constants.PatchName)
	}

	r, err := archive.Open(m.fs, mod.Path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	rc, err := r.OpenEntry(constants.PatchName)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	header, err := delta.ReadHeader(rc)
	if err != nil {
		return nil, err
	}
	return &Inspection{GUID: guid, Header: header}, nil
}
