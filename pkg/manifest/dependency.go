package manifest

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/nirvanamm/nirvanamm/pkg/errors"
)

// DependencyRef is one entry of a manifest's depends list. It holds either
// the compact "guid:range" string or an explicit table, never both.
type DependencyRef struct {
	compact string
	table   *Dependency
}

// Dependency is the normalized form every DependencyRef resolves to.
type Dependency struct {
	GUID  string
	Range string
	Soft  bool
}

// CompactRef builds a reference from the "guid:range" form. The string is
// not checked until Dependency is called.
func CompactRef(s string) DependencyRef {
	return DependencyRef{compact: s}
}

// TableRef builds a reference from the table form.
func TableRef(guid, rng string, soft bool) DependencyRef {
	return DependencyRef{table: &Dependency{GUID: guid, Range: rng, Soft: soft}}
}

// IsCompact reports whether the reference uses the string form.
func (r DependencyRef) IsCompact() bool {
	return r.table == nil
}

// Raw returns the reference as it appeared in the manifest.
func (r DependencyRef) Raw() string {
	if r.table == nil {
		return r.compact
	}
	return fmt.Sprintf("{guid=%s, version=%s, soft=%t}", r.table.GUID, r.table.Range, r.table.Soft)
}

// Dependency normalizes the reference. Compact strings are always hard
// dependencies and must contain a colon.
func (r DependencyRef) Dependency() (Dependency, error) {
	if r.table != nil {
		return *r.table, nil
	}
	guid, rng, ok := strings.Cut(r.compact, ":")
	if !ok {
		return Dependency{}, errors.Newf(errors.ErrValidation,
			"no colon found in hard dependency string (%s)", r.compact)
	}
	return Dependency{GUID: guid, Range: rng}, nil
}

// String renders the dependency as "guid range", the form used when
// reporting unsatisfied requirements.
func (d Dependency) String() string {
	return d.GUID + " " + d.Range
}

// Constraints parses the dependency's version range.
func (d Dependency) Constraints() (*semver.Constraints, error) {
	return ParseRange(d.Range)
}

// Matches reports whether version satisfies the dependency's range.
// Unparseable input never matches.
func (d Dependency) Matches(version string) bool {
	v, err := ParseVersion(version)
	if err != nil {
		return false
	}
	c, err := d.Constraints()
	if err != nil {
		return false
	}
	return c.Check(v)
}

// ParseVersion parses a strict MAJOR.MINOR.PATCH[-pre][+build] version.
func ParseVersion(s string) (*semver.Version, error) {
	v, err := semver.StrictNewVersion(s)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrValidation, "version %q is not a semantic version", s)
	}
	return v, nil
}

// ParseRange parses a cargo-style requirement. Comparators are separated
// by commas; a comparator without an operator is treated as caret.
func ParseRange(s string) (*semver.Constraints, error) {
	if strings.TrimSpace(s) == "" {
		return nil, errors.New(errors.ErrValidation, "empty version requirement")
	}

	parts := strings.Split(s, ",")
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return nil, errors.Newf(errors.ErrValidation, "empty comparator in requirement %q", s)
		}
		if c := p[0]; c >= '0' && c <= '9' {
			p = "^" + p
		}
		parts[i] = p
	}

	c, err := semver.NewConstraint(strings.Join(parts, ", "))
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrValidation, "invalid version requirement %q", s)
	}
	return c, nil
}
