// Package archive reads and writes the zip archives nirvanamm works with:
// mod packages and the origin snapshot.
package archive

import (
	"io"
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/nirvanamm/nirvanamm/pkg/errors"
	"github.com/nirvanamm/nirvanamm/pkg/types"
)

// DefaultBufferSize is used when a caller passes no copy buffer.
const DefaultBufferSize = 32 * 1024

// maxSmallEntry bounds ReadAll, which is only meant for manifests.
const maxSmallEntry = 1 << 20

// Reader is an open zip archive with a name index.
type Reader struct {
	zr    *zip.Reader
	file  types.File
	index map[string]*zip.File
}

// Open opens the archive at path on fs.
func Open(fsys types.FS, name string) (*Reader, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrIO, "failed to open archive %s", name)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(err, errors.ErrIO, "failed to stat archive %s", name)
	}

	zr, err := zip.NewReader(f, info.Size())
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(err, errors.ErrIO, "failed to read %s as zip", name)
	}

	index := make(map[string]*zip.File, len(zr.File))
	for _, zf := range zr.File {
		index[zf.Name] = zf
	}

	return &Reader{zr: zr, file: f, index: index}, nil
}

// Close releases the underlying file handle.
func (r *Reader) Close() error {
	return r.file.Close()
}

// Names returns entry names in archive order.
func (r *Reader) Names() []string {
	names := make([]string, 0, len(r.zr.File))
	for _, zf := range r.zr.File {
		names = append(names, zf.Name)
	}
	return names
}

// Has reports whether the archive contains an entry with exactly this name.
func (r *Reader) Has(name string) bool {
	_, ok := r.index[name]
	return ok
}

// ReadAll returns the contents of a small entry such as a manifest.
func (r *Reader) ReadAll(name string) ([]byte, error) {
	zf, ok := r.index[name]
	if !ok {
		return nil, errors.Newf(errors.ErrNotFound, "archive has no entry %s", name)
	}
	rc, err := zf.Open()
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrIO, "failed to open entry %s", name)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxSmallEntry+1))
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrIO, "failed to read entry %s", name)
	}
	if len(data) > maxSmallEntry {
		return nil, errors.Newf(errors.ErrParse, "entry %s is larger than %d bytes", name, maxSmallEntry)
	}
	return data, nil
}

// OpenEntry opens an entry for streaming.
func (r *Reader) OpenEntry(name string) (io.ReadCloser, error) {
	zf, ok := r.index[name]
	if !ok {
		return nil, errors.Newf(errors.ErrNotFound, "archive has no entry %s", name)
	}
	rc, err := zf.Open()
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrIO, "failed to open entry %s", name)
	}
	return rc, nil
}

// Extract streams entry name into dest on fsys, creating parent
// directories. The destination handle is closed before Extract returns.
func (r *Reader) Extract(name string, fsys types.FS, dest string, buf []byte) error {
	rc, err := r.OpenEntry(name)
	if err != nil {
		return err
	}
	defer rc.Close()

	if err := fsys.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrIO, "failed to create directory for %s", dest)
	}

	out, err := fsys.Create(dest)
	if err != nil {
		return errors.Wrapf(err, errors.ErrIO, "failed to create %s", dest)
	}
	if _, err := copyBuffer(out, rc, buf); err != nil {
		_ = out.Close()
		return errors.Wrapf(err, errors.ErrIO, "failed to extract %s", name)
	}
	if err := out.Close(); err != nil {
		return errors.Wrapf(err, errors.ErrIO, "failed to close %s", dest)
	}
	return nil
}

// Dirs returns every directory the archive describes, either through an
// explicit directory entry or as the parent of a file entry. Names carry
// no trailing slash.
func (r *Reader) Dirs() map[string]bool {
	dirs := make(map[string]bool)
	for _, zf := range r.zr.File {
		name := strings.TrimSuffix(zf.Name, "/")
		if IsDir(zf.Name) && name != "" {
			dirs[name] = true
		}
		for parent := path.Dir(name); parent != "." && parent != "/" && parent != ""; parent = path.Dir(parent) {
			dirs[parent] = true
		}
	}
	return dirs
}

// IsDir reports whether an entry name denotes a directory.
func IsDir(name string) bool {
	return strings.HasSuffix(name, "/")
}

// Writer builds a zip archive on fsys.
type Writer struct {
	zw   *zip.Writer
	file types.File
	buf  []byte
}

// Create creates (or truncates) the archive at name.
func Create(fsys types.FS, name string, bufSize int) (*Writer, error) {
	if err := fsys.MkdirAll(filepath.Dir(name), 0755); err != nil {
		return nil, errors.Wrapf(err, errors.ErrIO, "failed to create directory for %s", name)
	}
	f, err := fsys.Create(name)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrIO, "failed to create archive %s", name)
	}
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}
	return &Writer{zw: zip.NewWriter(f), file: f, buf: make([]byte, bufSize)}, nil
}

// AddDir records a directory entry. rel uses forward slashes.
func (w *Writer) AddDir(rel string, info fs.FileInfo) error {
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return errors.Wrapf(err, errors.ErrIO, "failed to build header for %s", rel)
	}
	header.Name = strings.TrimSuffix(rel, "/") + "/"
	header.Method = zip.Store
	if _, err := w.zw.CreateHeader(header); err != nil {
		return errors.Wrapf(err, errors.ErrIO, "failed to add directory %s", rel)
	}
	return nil
}

// AddFile streams src into a deflated entry and returns the bytes copied.
func (w *Writer) AddFile(rel string, info fs.FileInfo, src io.Reader) (int64, error) {
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return 0, errors.Wrapf(err, errors.ErrIO, "failed to build header for %s", rel)
	}
	header.Name = rel
	header.Method = zip.Deflate

	dst, err := w.zw.CreateHeader(header)
	if err != nil {
		return 0, errors.Wrapf(err, errors.ErrIO, "failed to add file %s", rel)
	}
	n, err := copyBuffer(dst, src, w.buf)
	if err != nil {
		return n, errors.Wrapf(err, errors.ErrIO, "failed to write %s", rel)
	}
	return n, nil
}

// Close finishes the central directory and closes the file.
func (w *Writer) Close() error {
	if err := w.zw.Close(); err != nil {
		_ = w.file.Close()
		return errors.Wrap(err, errors.ErrIO, "failed to finish archive")
	}
	if err := w.file.Close(); err != nil {
		return errors.Wrap(err, errors.ErrIO, "failed to close archive")
	}
	return nil
}

func copyBuffer(dst io.Writer, src io.Reader, buf []byte) (int64, error) {
	if len(buf) == 0 {
		buf = make([]byte, DefaultBufferSize)
	}
	return io.CopyBuffer(dst, src, buf)
}
