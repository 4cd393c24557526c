package manifest

import (
	"strings"

	"github.com/nirvanamm/nirvanamm/pkg/errors"
	toml "github.com/pelletier/go-toml/v2"
)

// Manifest is the decoded mod.toml envelope.
type Manifest struct {
	Format   int
	Metadata ModMetadata
}

// ModMetadata describes one mod. Two records denote the same mod when
// their GUIDs match, whatever their versions.
type ModMetadata struct {
	Name    string
	GUID    string
	Author  string
	Version string
	Depends []DependencyRef
}

type rawManifest struct {
	Manifest *int         `toml:"manifest"`
	Metadata *rawMetadata `toml:"metadata"`
}

type rawMetadata struct {
	Name    *string `toml:"name"`
	GUID    *string `toml:"guid"`
	Author  *string `toml:"author"`
	Version *string `toml:"version"`
	Depends []any   `toml:"depends"`
}

// Parse decodes and checks a manifest. Structural problems are ErrParse;
// a bad version or dependency is ErrValidation.
func Parse(data []byte) (*Manifest, error) {
	var raw rawManifest
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, errors.ErrParse, "malformed manifest")
	}
	if raw.Manifest == nil {
		return nil, errors.New(errors.ErrParse, "missing field manifest")
	}
	if raw.Metadata == nil {
		return nil, errors.New(errors.ErrParse, "missing table metadata")
	}

	md := raw.Metadata
	required := []struct {
		name  string
		value *string
	}{
		{"name", md.Name},
		{"guid", md.GUID},
		{"author", md.Author},
		{"version", md.Version},
	}
	for _, f := range required {
		if f.value == nil || strings.TrimSpace(*f.value) == "" {
			return nil, errors.Newf(errors.ErrParse, "missing field metadata.%s", f.name)
		}
	}

	m := &Manifest{
		Format: *raw.Manifest,
		Metadata: ModMetadata{
			Name:    *md.Name,
			GUID:    *md.GUID,
			Author:  *md.Author,
			Version: *md.Version,
		},
	}

	for i, entry := range md.Depends {
		ref, err := decodeRef(entry)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrParse, "invalid depends entry %d", i)
		}
		m.Metadata.Depends = append(m.Metadata.Depends, ref)
	}

	if err := m.Metadata.ValidateSemantics(); err != nil {
		return nil, err
	}
	return m, nil
}

// decodeRef picks the variant by the entry's shape.
func decodeRef(entry any) (DependencyRef, error) {
	switch v := entry.(type) {
	case string:
		return CompactRef(v), nil
	case map[string]any:
		guid, ok := v["guid"].(string)
		if !ok {
			return DependencyRef{}, errors.New(errors.ErrParse, "dependency table needs a string guid")
		}
		rng, ok := v["version"].(string)
		if !ok {
			return DependencyRef{}, errors.Newf(errors.ErrParse, "dependency %s needs a string version", guid)
		}
		soft := false
		if s, present := v["soft"]; present {
			b, ok := s.(bool)
			if !ok {
				return DependencyRef{}, errors.Newf(errors.ErrParse, "dependency %s: soft must be a boolean", guid)
			}
			soft = b
		}
		return TableRef(guid, rng, soft), nil
	default:
		return DependencyRef{}, errors.Newf(errors.ErrParse, "dependency entry of type %T is neither a string nor a table", entry)
	}
}

// ValidateSemantics checks the version and every dependency.
func (m ModMetadata) ValidateSemantics() error {
	if _, err := ParseVersion(m.Version); err != nil {
		return err
	}
	for _, ref := range m.Depends {
		dep, err := ref.Dependency()
		if err != nil {
			return err
		}
		if dep.GUID == "" {
			return errors.Newf(errors.ErrValidation, "dependency %s has an empty guid", ref.Raw())
		}
		if _, err := dep.Constraints(); err != nil {
			return errors.Wrapf(err, errors.ErrValidation,
				"version of requirement %s is not a valid range", dep.GUID)
		}
	}
	return nil
}

// Equal compares by GUID only.
func (m ModMetadata) Equal(other ModMetadata) bool {
	return m.GUID == other.GUID
}

// Dependencies returns the normalized depends list.
func (m ModMetadata) Dependencies() ([]Dependency, error) {
	deps := make([]Dependency, 0, len(m.Depends))
	for _, ref := range m.Depends {
		dep, err := ref.Dependency()
		if err != nil {
			return nil, err
		}
		deps = append(deps, dep)
	}
	return deps, nil
}

// mustDependencies skips references that cannot be normalized. Parsed
// metadata never contains such references.
func (m ModMetadata) mustDependencies() []Dependency {
	deps := make([]Dependency, 0, len(m.Depends))
	for _, ref := range m.Depends {
		if dep, err := ref.Dependency(); err == nil {
			deps = append(deps, dep)
		}
	}
	return deps
}

// HasDependencies reports whether the mod declares any dependency.
func (m ModMetadata) HasDependencies() bool {
	return len(m.Depends) > 0
}

// MatchesDependency reports whether m satisfies dep: same GUID and a
// version inside the range.
func (m ModMetadata) MatchesDependency(dep Dependency) bool {
	return dep.GUID == m.GUID && dep.Matches(m.Version)
}

// HasDependency reports whether any of m's dependencies, hard or soft, is
// satisfied by other.
func (m ModMetadata) HasDependency(other ModMetadata) bool {
	for _, dep := range m.mustDependencies() {
		if other.MatchesDependency(dep) {
			return true
		}
	}
	return false
}

// DependsString lists hard dependency GUIDs first, then soft ones in
// brackets, separated by ", ".
func (m ModMetadata) DependsString() string {
	var hard, soft []string
	for _, dep := range m.mustDependencies() {
		if dep.Soft {
			soft = append(soft, "["+dep.GUID+"]")
		} else {
			hard = append(hard, dep.GUID)
		}
	}
	return strings.Join(append(hard, soft...), ", ")
}
