package epub

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ContentTypeEPUB is the payload of the mimetype member.
const ContentTypeEPUB = "application/epub+zip"

const mimetypeFile = "mimetype"

var (
	ErrArchiveUnreadable = errors.New("failed to read epub file")
	ErrFileNotFound      = errors.New("file not found in archive")
	ErrFileExists        = errors.New("file already exists in archive")
	ErrArchiveClosed     = errors.New("archive is closed")
)

// Archive provides read access to an EPUB container plus a layer of pending
// modifications. Nothing is written to disk until Flush is called.
type Archive struct {
	path    string
	zr      *zip.Reader
	closer  io.Closer
	files   map[string]*zip.File
	order   []string
	changes map[string]*change
	added   []string
	closed  bool
}

// change is a pending replacement of a member; a nil data slice with removed
// set drops the member on flush.
type change struct {
	data    []byte
	removed bool
}

// Open opens the EPUB file at path.
func Open(path string) (*Archive, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArchiveUnreadable, err)
	}

	a := newArchive(&zr.Reader, zr)
	a.path = path
	return a, nil
}

// OpenReader opens an EPUB held in r.
func OpenReader(r io.ReaderAt, size int64) (*Archive, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArchiveUnreadable, err)
	}
	return newArchive(zr, nil), nil
}

func newArchive(zr *zip.Reader, closer io.Closer) *Archive {
	a := &Archive{
		zr:      zr,
		closer:  closer,
		files:   make(map[string]*zip.File),
		changes: make(map[string]*change),
	}

	// Build file map with normalized paths
	for _, f := range zr.File {
		name := normalizePath(f.Name)
		if _, dup := a.files[name]; dup {
			continue
		}
		a.files[name] = f
		a.order = append(a.order, name)
	}

	return a
}

// Path returns the location the archive was opened from, if any.
func (a *Archive) Path() string {
	return a.path
}

// Close releases the underlying file. Pending modifications are dropped.
// Calling Close more than once is a no-op.
func (a *Archive) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	a.CancelAll()
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

// Files returns the names of all members as they would be written by Flush.
func (a *Archive) Files() []string {
	names := make([]string, 0, len(a.order)+len(a.added))
	for _, name := range a.order {
		if c, ok := a.changes[name]; ok && c.removed {
			continue
		}
		names = append(names, name)
	}
	return append(names, a.added...)
}

// FileExists reports whether name is a member, taking pending changes into
// account.
func (a *Archive) FileExists(name string) bool {
	name = normalizePath(name)
	if c, ok := a.changes[name]; ok {
		return !c.removed
	}
	_, ok := a.files[name]
	return ok
}

// FileRead reads the contents of a member.
func (a *Archive) FileRead(name string) ([]byte, error) {
	if a.closed {
		return nil, ErrArchiveClosed
	}
	name = normalizePath(name)
	if c, ok := a.changes[name]; ok {
		if c.removed {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, name)
		}
		return append([]byte(nil), c.data...), nil
	}

	f, ok := a.files[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, name)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", name, err)
	}
	defer rc.Close()

	return io.ReadAll(rc)
}

// FileReplace replaces the contents of an existing member. A nil data slice
// removes the member.
func (a *Archive) FileReplace(name string, data []byte) error {
	if a.closed {
		return ErrArchiveClosed
	}
	name = normalizePath(name)
	if !a.FileExists(name) {
		return fmt.Errorf("%w: %s", ErrFileNotFound, name)
	}

	if data == nil {
		if _, original := a.files[name]; !original {
			delete(a.changes, name)
			a.added = removeName(a.added, name)
			return nil
		}
		a.changes[name] = &change{removed: true}
		return nil
	}

	a.changes[name] = &change{data: append([]byte(nil), data...)}
	return nil
}

// FileAdd adds a new member.
func (a *Archive) FileAdd(name string, data []byte) error {
	if a.closed {
		return ErrArchiveClosed
	}
	name = normalizePath(name)
	if a.FileExists(name) {
		return fmt.Errorf("%w: %s", ErrFileExists, name)
	}

	a.changes[name] = &change{data: append([]byte(nil), data...)}
	if _, original := a.files[name]; !original {
		a.added = append(a.added, name)
	}
	return nil
}

// CancelModification drops any pending change for name.
func (a *Archive) CancelModification(name string) {
	name = normalizePath(name)
	delete(a.changes, name)
	a.added = removeName(a.added, name)
}

// CancelAll drops every pending change.
func (a *Archive) CancelAll() {
	a.changes = make(map[string]*change)
	a.added = nil
}

// Modified reports whether there are pending changes.
func (a *Archive) Modified() bool {
	return len(a.changes) > 0
}

// WriteTo writes the archive including all pending changes to w. The
// mimetype member is written first and uncompressed; untouched members are
// copied without recompression.
func (a *Archive) WriteTo(w io.Writer) (int64, error) {
	if a.closed {
		return 0, ErrArchiveClosed
	}

	cw := &countingWriter{w: w}
	zw := zip.NewWriter(cw)

	if err := a.writeMimetype(zw); err != nil {
		return cw.n, err
	}

	for _, name := range a.order {
		if name == mimetypeFile {
			continue
		}
		if c, ok := a.changes[name]; ok {
			if c.removed {
				continue
			}
			if err := writeMember(zw, name, c.data); err != nil {
				return cw.n, err
			}
			continue
		}
		if err := copyRaw(zw, a.files[name]); err != nil {
			return cw.n, err
		}
	}

	for _, name := range a.added {
		if name == mimetypeFile {
			continue
		}
		if err := writeMember(zw, name, a.changes[name].data); err != nil {
			return cw.n, err
		}
	}

	if err := zw.Close(); err != nil {
		return cw.n, fmt.Errorf("failed to finish archive: %w", err)
	}
	return cw.n, nil
}

// Flush writes the archive including all pending changes to target. The
// target is replaced atomically.
func (a *Archive) Flush(target string) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(target), ".epubmeta-*.epub")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()
	defer func() {
		if tmpPath != "" {
			os.Remove(tmpPath)
		}
	}()

	if _, err := a.WriteTo(tmpFile); err != nil {
		tmpFile.Close()
		return err
	}
	// CreateTemp makes 0600 files; keep the target's mode
	mode := os.FileMode(0o644)
	if fi, err := os.Stat(target); err == nil {
		mode = fi.Mode().Perm()
	}
	if err := tmpFile.Chmod(mode); err != nil {
		tmpFile.Close()
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, target); err != nil {
		return err
	}
	tmpPath = ""

	return nil
}

func (a *Archive) writeMimetype(zw *zip.Writer) error {
	if !a.FileExists(mimetypeFile) {
		return nil
	}
	data, err := a.FileRead(mimetypeFile)
	if err != nil {
		return err
	}

	fw, err := zw.CreateHeader(&zip.FileHeader{
		Name:   mimetypeFile,
		Method: zip.Store,
	})
	if err != nil {
		return fmt.Errorf("failed to write mimetype: %w", err)
	}
	_, err = fw.Write(data)
	return err
}

func writeMember(zw *zip.Writer, name string, data []byte) error {
	fw, err := zw.CreateHeader(&zip.FileHeader{
		Name:   name,
		Method: zip.Deflate,
	})
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	_, err = fw.Write(data)
	return err
}

func copyRaw(zw *zip.Writer, f *zip.File) error {
	rc, err := f.OpenRaw()
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", f.Name, err)
	}
	header := f.FileHeader
	fw, err := zw.CreateRaw(&header)
	if err != nil {
		return fmt.Errorf("failed to copy %s: %w", f.Name, err)
	}
	_, err = io.Copy(fw, rc)
	return err
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

func removeName(names []string, name string) []string {
	out := names[:0]
	for _, n := range names {
		if n != name {
			out = append(out, n)
		}
	}
	return out
}

// normalizePath normalizes file paths (removes ./ prefix)
func normalizePath(path string) string {
	path = strings.TrimPrefix(path, "./")
	return path
}
