package validate

import (
	"fmt"
	"strings"

	"github.com/nirvanamm/nirvanamm/pkg/constants"
	"github.com/nirvanamm/nirvanamm/pkg/errors"
)

// Kind identifies which check produced a verdict.
type Kind int

const (
	Ok Kind = iota
	Insecure
	UnsatisfiedDependencies
	FileConflict
	InvalidPatchNaming
	CyclicDependency
)

func (k Kind) String() string {
	switch k {
	case Ok:
		return "ok"
	case Insecure:
		return "insecure"
	case UnsatisfiedDependencies:
		return "unsatisfied-dependencies"
	case FileConflict:
		return "file-conflict"
	case InvalidPatchNaming:
		return "invalid-patch-naming"
	case CyclicDependency:
		return "cyclic-dependency"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Verdict is the single outcome of validating a selection. Which fields
// are set depends on Kind:
//
//	Insecure                 GUID, Reason
//	UnsatisfiedDependencies  Missing ("guid range"), Blamed
//	FileConflict             GUID, ConflictingMods, Files
//	InvalidPatchNaming       GUID, Files
//	CyclicDependency         Cycle
type Verdict struct {
	Kind            Kind
	GUID            string
	Reason          string
	Missing         []string
	Blamed          []string
	ConflictingMods []string
	Files           []string
	Cycle           []string
}

// OK reports whether the selection passed every check.
func (v Verdict) OK() bool {
	return v.Kind == Ok
}

// Message renders the verdict for a user.
func (v Verdict) Message() string {
	switch v.Kind {
	case Ok:
		return "All selected mods are valid"
	case Insecure:
		return fmt.Sprintf("Mod %s is insecure: %s", v.GUID, v.Reason)
	case UnsatisfiedDependencies:
		return fmt.Sprintf("Unsatisfied dependencies: %s (required by %s)",
			strings.Join(v.Missing, ", "), strings.Join(v.Blamed, ", "))
	case FileConflict:
		return fmt.Sprintf("Mod %s conflicts with %s over: %s",
			v.GUID, strings.Join(v.ConflictingMods, ", "), strings.Join(v.Files, ", "))
	case InvalidPatchNaming:
		return fmt.Sprintf("Mod %s ships misnamed patch files: %s (only %s is recognized)",
			v.GUID, strings.Join(v.Files, ", "), constants.PatchName)
	case CyclicDependency:
		return "Circular dependency: " + strings.Join(v.Cycle, " -> ")
	default:
		return v.Kind.String()
	}
}

// Err converts a failing verdict into a coded error; Ok yields nil.
func (v Verdict) Err() error {
	var code errors.ErrorCode
	switch v.Kind {
	case Ok:
		return nil
	case Insecure:
		code = errors.ErrSecurity
	case UnsatisfiedDependencies:
		code = errors.ErrDependency
	case FileConflict:
		code = errors.ErrConflict
	case InvalidPatchNaming:
		code = errors.ErrNaming
	case CyclicDependency:
		code = errors.ErrCyclicDependency
	default:
		code = errors.ErrInternal
	}
	return errors.New(code, v.Message()).WithDetail("verdict", v.Kind.String())
}
