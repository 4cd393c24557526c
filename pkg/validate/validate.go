// Package validate checks a mod selection before anything is applied.
//
// Validation runs a security pass over every selected archive first. It
// then rejects dependency loops and walks the mods in selection order,
// checking each for unsatisfied hard dependencies, file conflicts and
// misnamed patch files. Unsatisfied dependencies are collected across the
// whole selection; every other failure stops at the first offender.
package validate

import (
	"path"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/nirvanamm/nirvanamm/pkg/archive"
	"github.com/nirvanamm/nirvanamm/pkg/constants"
	"github.com/nirvanamm/nirvanamm/pkg/depgraph"
	"github.com/nirvanamm/nirvanamm/pkg/errors"
	"github.com/nirvanamm/nirvanamm/pkg/logging"
	"github.com/nirvanamm/nirvanamm/pkg/manifest"
	"github.com/nirvanamm/nirvanamm/pkg/modfile"
)

// DefaultDenied are the payload globs refused when no list is configured.
var DefaultDenied = []string{"**/*.exe", "**/*.dll"}

// Validator holds the security policy used by Validate.
type Validator struct {
	denied []string
	asset  string
}

// Option configures a Validator.
type Option func(*Validator)

// WithDenied replaces the deny-list. Patterns use doublestar syntax and
// match case-insensitively.
func WithDenied(globs []string) Option {
	return func(v *Validator) {
		v.denied = globs
	}
}

// New builds a Validator, rejecting malformed deny patterns.
func New(opts ...Option) (*Validator, error) {
	v := &Validator{denied: DefaultDenied, asset: constants.TrackedAsset}
	for _, opt := range opts {
		opt(v)
	}

	lowered := make([]string, 0, len(v.denied))
	for _, g := range v.denied {
		g = strings.ToLower(g)
		if !doublestar.ValidatePattern(g) {
			return nil, errors.Newf(errors.ErrInvalidInput, "invalid deny pattern %q", g)
		}
		lowered = append(lowered, g)
	}
	v.denied = lowered
	return v, nil
}

// Validate checks selected and returns the first failing verdict, or Ok.
func (v *Validator) Validate(selected []*modfile.ModFile) Verdict {
	logger := logging.GetLogger("validate")
	logger.Debug().Int("mods", len(selected)).Msg("Validating selection")

	for _, mod := range selected {
		if verdict, bad := v.checkSecurity(mod); bad {
			logger.Warn().Str("guid", mod.GUID()).Str("reason", verdict.Reason).Msg("Insecure mod")
			return verdict
		}
	}

	pool := modfile.Metadatas(selected)
	if cycle := depgraph.DetectCycle(pool); cycle != nil {
		return Verdict{Kind: CyclicDependency, Cycle: cycle}
	}

	var missing, blamed []string
	owners := make(map[string]*modfile.ModFile)
	trees := newTreeCache(pool)

	for _, mod := range selected {
		if unmet := unsatisfied(mod.Metadata, pool); len(unmet) > 0 {
			missing = append(missing, unmet...)
			blamed = append(blamed, mod.GUID())
		}

		if verdict, bad := checkConflicts(mod, owners, trees); bad {
			return verdict
		}

		for _, entry := range mod.Entries {
			if !exempt(entry) {
				owners[entry] = mod
			}
		}

		if bad := misnamedPatches(mod); len(bad) > 0 {
			return Verdict{Kind: InvalidPatchNaming, GUID: mod.GUID(), Files: bad}
		}
	}

	if len(missing) > 0 {
		return Verdict{Kind: UnsatisfiedDependencies, Missing: missing, Blamed: blamed}
	}
	return Verdict{Kind: Ok}
}

func (v *Validator) checkSecurity(mod *modfile.ModFile) (Verdict, bool) {
	insecure := func(reason string) (Verdict, bool) {
		return Verdict{Kind: Insecure, GUID: mod.GUID(), Reason: reason}, true
	}

	for _, entry := range mod.Entries {
		if escapes(entry) {
			return insecure("entry " + entry + " escapes the game directory")
		}
		if archive.IsDir(entry) {
			continue
		}

		lower := strings.ToLower(entry)
		for _, pattern := range v.denied {
			if ok, _ := doublestar.Match(pattern, lower); ok {
				return insecure("disallowed file " + entry)
			}
		}
		if strings.EqualFold(entry, v.asset) {
			return insecure(v.asset + " is not allowed to be overridden")
		}
	}
	return Verdict{}, false
}

// escapes reports entries that would resolve outside the game root.
func escapes(entry string) bool {
	name := strings.ReplaceAll(entry, "\\", "/")
	if strings.HasPrefix(name, "/") || (len(name) > 1 && name[1] == ':') {
		return true
	}
	for _, seg := range strings.Split(name, "/") {
		if seg == ".." {
			return true
		}
	}
	return false
}

func unsatisfied(md manifest.ModMetadata, pool []manifest.ModMetadata) []string {
	deps, _ := md.Dependencies()
	var unmet []string
	for _, dep := range deps {
		if dep.Soft {
			continue
		}
		if _, ok := depgraph.Resolve(dep, pool); !ok {
			unmet = append(unmet, dep.String())
		}
	}
	return unmet
}

func checkConflicts(mod *modfile.ModFile, owners map[string]*modfile.ModFile, trees *treeCache) (Verdict, bool) {
	var files []string
	conflicting := make(map[string]bool)
	excused := make(map[string]bool)

	for _, entry := range mod.Entries {
		if exempt(entry) {
			continue
		}
		owner, ok := owners[entry]
		if !ok {
			continue
		}

		ok, seen := excused[owner.GUID()]
		if !seen {
			ok = trees.get(mod.Metadata).InTree(owner.GUID()) || trees.get(owner.Metadata).InTree(mod.GUID())
			excused[owner.GUID()] = ok
		}
		if ok {
			continue
		}
		files = append(files, entry)
		conflicting[owner.GUID()] = true
	}

	if len(files) == 0 {
		return Verdict{}, false
	}
	mods := make([]string, 0, len(conflicting))
	for guid := range conflicting {
		mods = append(mods, guid)
	}
	sort.Strings(mods)
	return Verdict{Kind: FileConflict, GUID: mod.GUID(), ConflictingMods: mods, Files: files}, true
}

func misnamedPatches(mod *modfile.ModFile) []string {
	var bad []string
	for _, entry := range mod.Entries {
		if archive.IsDir(entry) {
			continue
		}
		if strings.EqualFold(path.Ext(entry), constants.PatchExtension) && entry != constants.PatchName {
			bad = append(bad, entry)
		}
	}
	return bad
}

// exempt entries never take part in ownership bookkeeping.
func exempt(entry string) bool {
	return entry == constants.ManifestName || entry == constants.PatchName || archive.IsDir(entry)
}

// treeCache builds each dependency tree once per validation run. Trees
// follow only the edges that resolve in the selection, so a mod missing
// one dependency keeps the ancestry it does have.
type treeCache struct {
	pool  []manifest.ModMetadata
	trees map[string]*depgraph.DependencyNode
}

func newTreeCache(pool []manifest.ModMetadata) *treeCache {
	return &treeCache{pool: pool, trees: make(map[string]*depgraph.DependencyNode)}
}

func (c *treeCache) get(md manifest.ModMetadata) *depgraph.DependencyNode {
	if node, ok := c.trees[md.GUID]; ok {
		return node
	}
	node := depgraph.ReachableTree(md, c.pool)
	c.trees[md.GUID] = node
	return node
}
