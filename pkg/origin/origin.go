// Package origin owns the pristine snapshot of the game directory.
//
// The snapshot is a zip of the whole game tree taken before the first
// patch. Reset puts back every file recorded in AppConfig.ReplacedFiles;
// Purge restores everything and deletes the snapshot.
package origin

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nirvanamm/nirvanamm/pkg/archive"
	"github.com/nirvanamm/nirvanamm/pkg/config"
	"github.com/nirvanamm/nirvanamm/pkg/errors"
	"github.com/nirvanamm/nirvanamm/pkg/logging"
	"github.com/nirvanamm/nirvanamm/pkg/types"
)

// Stats describes a freshly prepared snapshot.
type Stats struct {
	Files int
	Dirs  int
	Bytes int64
}

// Store manages the snapshot archive at a fixed path.
type Store struct {
	fs      types.FS
	path    string
	bufSize int
}

// NewStore returns a Store for the snapshot at path.
func NewStore(fs types.FS, path string, bufSize int) *Store {
	if bufSize <= 0 {
		bufSize = archive.DefaultBufferSize
	}
	return &Store{fs: fs, path: path, bufSize: bufSize}
}

// Path returns the snapshot location.
func (s *Store) Path() string {
	return s.path
}

// Exists reports whether a snapshot is present.
func (s *Store) Exists() bool {
	info, err := s.fs.Stat(s.path)
	return err == nil && !info.IsDir()
}

// Prepare snapshots gameRoot. The archive is written next to the final
// path and only renamed into place once complete.
func (s *Store) Prepare(gameRoot string) (Stats, error) {
	logger := logging.GetLogger("origin")
	done := logging.LogOperationStart(logger, "prepare origin")
	defer done()

	var stats Stats
	info, err := s.fs.Stat(gameRoot)
	if err != nil || !info.IsDir() {
		return stats, errors.Newf(errors.ErrInvalidInput, "game root %q is not a directory", gameRoot)
	}

	tmp := s.path + ".tmp"
	w, err := archive.Create(s.fs, tmp, s.bufSize)
	if err != nil {
		return stats, err
	}

	walkErr := s.fs.Walk(gameRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return errors.Wrapf(err, errors.ErrIO, "failed to walk %s", path)
		}
		rel, err := filepath.Rel(gameRoot, path)
		if err != nil {
			return errors.Wrapf(err, errors.ErrIO, "failed to relativize %s", path)
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		switch {
		case info.IsDir():
			stats.Dirs++
			return w.AddDir(rel, info)
		case info.Mode().IsRegular():
			n, err := s.addFile(w, path, rel, info)
			stats.Files++
			stats.Bytes += n
			return err
		default:
			logger.Debug().Str("path", rel).Msg("Skipping non-regular file")
			return nil
		}
	})

	closeErr := w.Close()
	if walkErr == nil {
		walkErr = closeErr
	}
	if walkErr != nil {
		_ = s.fs.Remove(tmp)
		return Stats{}, walkErr
	}

	if err := s.fs.Rename(tmp, s.path); err != nil {
		_ = s.fs.Remove(tmp)
		return Stats{}, errors.Wrapf(err, errors.ErrIO, "failed to move snapshot into %s", s.path)
	}

	logger.Info().
		Int("files", stats.Files).
		Int("dirs", stats.Dirs).
		Int64("bytes", stats.Bytes).
		Msg("Origin prepared")
	return stats, nil
}

func (s *Store) addFile(w *archive.Writer, path, rel string, info os.FileInfo) (int64, error) {
	f, err := s.fs.Open(path)
	if err != nil {
		return 0, errors.Wrapf(err, errors.ErrIO, "failed to open %s", path)
	}
	defer f.Close()
	return w.AddFile(rel, info, f)
}

// Reset restores every path in cfg's replaced list from the snapshot,
// deleting paths the snapshot does not contain, then prunes directories
// left empty that the snapshot never had. The list is cleared on success.
// An empty list is a no-op.
func (s *Store) Reset(cfg *config.AppConfig) error {
	if len(cfg.DataWin.ReplacedFiles) == 0 {
		return nil
	}
	if !s.Exists() {
		return errors.Newf(errors.ErrNotInitialized, "no origin snapshot at %s", s.path)
	}

	logger := logging.GetLogger("origin")
	done := logging.LogOperationStart(logger, "reset to origin")
	defer done()

	r, err := archive.Open(s.fs, s.path)
	if err != nil {
		return err
	}
	defer r.Close()

	root := cfg.DataWin.GameRoot
	buf := make([]byte, s.bufSize)
	for _, rel := range cfg.DataWin.ReplacedFiles {
		dest := filepath.Join(root, filepath.FromSlash(rel))
		if r.Has(rel) {
			if err := r.Extract(rel, s.fs, dest, buf); err != nil {
				return err
			}
			logger.Debug().Str("path", rel).Msg("Restored")
			continue
		}
		if err := s.fs.Remove(dest); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, errors.ErrIO, "failed to remove %s", dest)
		}
		logger.Debug().Str("path", rel).Msg("Removed")
	}

	if err := s.pruneDirs(root, r.Dirs()); err != nil {
		return err
	}

	cfg.ClearReplaced()
	return nil
}

// pruneDirs removes empty directories under root that the snapshot does
// not list, deepest first.
func (s *Store) pruneDirs(root string, keep map[string]bool) error {
	var dirs []string
	err := s.fs.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() && path != root {
			dirs = append(dirs, path)
		}
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, errors.ErrIO, "failed to walk %s", root)
	}

	sort.Slice(dirs, func(i, j int) bool {
		return strings.Count(dirs[i], string(filepath.Separator)) > strings.Count(dirs[j], string(filepath.Separator))
	})

	for _, dir := range dirs {
		rel, err := filepath.Rel(root, dir)
		if err != nil || keep[filepath.ToSlash(rel)] {
			continue
		}
		entries, err := s.fs.ReadDir(dir)
		if err != nil {
			return errors.Wrapf(err, errors.ErrIO, "failed to read %s", dir)
		}
		if len(entries) > 0 {
			continue
		}
		if err := s.fs.Remove(dir); err != nil {
			return errors.Wrapf(err, errors.ErrIO, "failed to remove directory %s", dir)
		}
	}
	return nil
}

// Purge fully restores the game tree, clears the active selection,
// persists cfg and deletes the snapshot.
func (s *Store) Purge(cfg *config.AppConfig, saver config.Saver) error {
	if !s.Exists() {
		return errors.Newf(errors.ErrNotInitialized, "no origin snapshot at %s", s.path)
	}
	if err := s.Reset(cfg); err != nil {
		return err
	}

	cfg.SetActiveMods(nil)
	if err := saver.Save(cfg); err != nil {
		return err
	}

	if err := s.fs.Remove(s.path); err != nil {
		return errors.Wrapf(err, errors.ErrIO, "failed to delete %s", s.path)
	}
	logger := logging.GetLogger("origin")
	logger.Info().Str("path", s.path).Msg("Origin purged")
	return nil
}
