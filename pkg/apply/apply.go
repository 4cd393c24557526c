// Package apply extracts an ordered chain of mods over the game tree and
// rebuilds data.win through the delta codec.
package apply

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/nirvanamm/nirvanamm/pkg/archive"
	"github.com/nirvanamm/nirvanamm/pkg/config"
	"github.com/nirvanamm/nirvanamm/pkg/constants"
	"github.com/nirvanamm/nirvanamm/pkg/delta"
	"github.com/nirvanamm/nirvanamm/pkg/errors"
	"github.com/nirvanamm/nirvanamm/pkg/logging"
	"github.com/nirvanamm/nirvanamm/pkg/modfile"
	"github.com/nirvanamm/nirvanamm/pkg/origin"
	"github.com/nirvanamm/nirvanamm/pkg/types"
	"go.uber.org/multierr"
)

// Resetter restores the game tree to its snapshot.
type Resetter interface {
	Reset(cfg *config.AppConfig) error
}

var _ Resetter = (*origin.Store)(nil)

// ApplyError reports a failed run. GUID names the mod being applied when
// the failure happened and is empty for failures before the first mod.
type ApplyError struct {
	GUID           string
	Err            error
	ResetAttempted bool
	ResetErr       error
}

func (e *ApplyError) Error() string {
	var b strings.Builder
	if e.GUID != "" {
		b.WriteString("Failed to apply mod " + e.GUID + ": ")
	} else {
		b.WriteString("Failed to apply mods: ")
	}
	b.WriteString(e.Err.Error())
	if e.ResetAttempted {
		if e.ResetErr != nil {
			b.WriteString("\nFailed to reset origin: " + e.ResetErr.Error())
		} else {
			b.WriteString("\nOrigin was reset")
		}
	}
	return b.String()
}

// Unwrap exposes both the apply and the reset failure.
func (e *ApplyError) Unwrap() error {
	return multierr.Combine(e.Err, e.ResetErr)
}

// Applier runs apply operations.
type Applier struct {
	fs      types.FS
	origin  Resetter
	opener  delta.Opener
	staging string
	bufSize int
}

// New returns an Applier. staging is a scratch directory for the patch and
// the decode source; it should be on the same volume as the game.
func New(fs types.FS, store Resetter, opener delta.Opener, staging string, bufSize int) *Applier {
	if bufSize <= 0 {
		bufSize = archive.DefaultBufferSize
	}
	return &Applier{fs: fs, origin: store, opener: opener, staging: staging, bufSize: bufSize}
}

// Apply resets the game tree, then applies chain in order, recording
// every touched path in cfg. On a mid-chain failure the tree is reset
// again and the returned *ApplyError says whether that worked. Persisting
// cfg is left to the caller.
func (a *Applier) Apply(cfg *config.AppConfig, chain []*modfile.ModFile) error {
	logger := logging.GetLogger("apply")
	done := logging.LogOperationStart(logger, "apply")
	defer done()

	codec, err := a.opener()
	if err != nil {
		return &ApplyError{Err: err}
	}

	if err := a.origin.Reset(cfg); err != nil {
		return &ApplyError{Err: err}
	}

	buf := make([]byte, a.bufSize)
	for _, mod := range chain {
		logger.Info().Str("guid", mod.GUID()).Str("archive", mod.Path).Msg("Applying mod")
		if err := a.applyMod(codec, cfg, mod, buf); err != nil {
			logger.Error().Err(err).Str("guid", mod.GUID()).Msg("Apply failed, resetting origin")
			resetErr := a.origin.Reset(cfg)
			return &ApplyError{GUID: mod.GUID(), Err: err, ResetAttempted: true, ResetErr: resetErr}
		}
	}

	logger.Info().Int("mods", len(chain)).Int("files", len(cfg.DataWin.ReplacedFiles)).Msg("Apply finished")
	return nil
}

func (a *Applier) applyMod(codec delta.Codec, cfg *config.AppConfig, mod *modfile.ModFile, buf []byte) error {
	r, err := archive.Open(a.fs, mod.Path)
	if err != nil {
		return err
	}
	defer r.Close()

	root := cfg.DataWin.GameRoot
	for _, entry := range r.Names() {
		if entry == constants.ManifestName {
			continue
		}

		dest, err := within(root, entry)
		if err != nil {
			return err
		}

		if archive.IsDir(entry) {
			if err := a.fs.MkdirAll(dest, 0755); err != nil {
				return errors.Wrapf(err, errors.ErrIO, "failed to create directory %s", dest)
			}
			continue
		}

		if entry == constants.PatchName {
			cfg.RecordReplaced(constants.TrackedAsset)
			if err := a.patch(codec, r, root, buf); err != nil {
				return err
			}
			continue
		}

		cfg.RecordReplaced(entry)
		if err := r.Extract(entry, a.fs, dest, buf); err != nil {
			return err
		}
	}
	return nil
}

// patch extracts the patch to staging, moves the current data.win beside
// it and decodes the pair back into the game root.
func (a *Applier) patch(codec delta.Codec, r *archive.Reader, root string, buf []byte) error {
	patchPath := filepath.Join(a.staging, constants.PatchName)
	source := filepath.Join(a.staging, constants.TrackedAsset)
	target := filepath.Join(root, constants.TrackedAsset)

	if err := r.Extract(constants.PatchName, a.fs, patchPath, buf); err != nil {
		return err
	}
	if err := a.move(target, source, buf); err != nil {
		return errors.Wrapf(err, errors.ErrIO, "could not move %s to staging", constants.TrackedAsset)
	}

	if err := codec.Decode(source, patchPath, target); err != nil {
		return errors.Wrapf(err, errors.ErrCodec, "failed to patch %s", constants.TrackedAsset)
	}

	_ = a.fs.Remove(source)
	_ = a.fs.Remove(patchPath)
	return nil
}

// move renames src to dst, copying when a rename is not possible.
func (a *Applier) move(src, dst string, buf []byte) error {
	if err := a.fs.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	if err := a.fs.Rename(src, dst); err == nil {
		return nil
	}

	in, err := a.fs.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := a.fs.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.CopyBuffer(out, in, buf); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return a.fs.Remove(src)
}

// within joins an archive entry onto root, refusing entries that would
// land outside it.
func within(root, entry string) (string, error) {
	dest := filepath.Join(root, filepath.FromSlash(entry))
	rel, err := filepath.Rel(root, dest)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(entry) {
		return "", errors.Newf(errors.ErrSecurity, "entry %s escapes the game directory", entry)
	}
	return dest, nil
}
