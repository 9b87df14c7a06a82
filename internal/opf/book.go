package opf

import (
	"fmt"
	"io"

	"github.com/yuanying/epubmeta/internal/epub"
)

// Book is an editing session on an EPUB file. Changes stay in memory until
// Save or SaveAs; Close without saving leaves the file untouched.
type Book struct {
	*Package
	archive *epub.Archive
	path    string
}

// Open opens the EPUB at path and loads its package document.
func Open(path string, opts ...Option) (*Book, error) {
	archive, err := epub.Open(path)
	if err != nil {
		return nil, err
	}

	pkg, err := New(archive, opts...)
	if err != nil {
		archive.Close()
		return nil, err
	}
	return &Book{Package: pkg, archive: archive, path: path}, nil
}

// Location returns the path the book was opened from.
func (b *Book) Location() string {
	return b.path
}

// Files lists the archive members including pending changes.
func (b *Book) Files() []string {
	return b.archive.Files()
}

// Save writes all changes back to the original file and closes the book.
func (b *Book) Save() error {
	return b.SaveAs(b.path)
}

// SaveAs writes the book with all changes to target and closes it. The
// original file is left untouched unless target is the original path.
func (b *Book) SaveAs(target string) error {
	if err := b.Commit(); err != nil {
		return err
	}
	if err := b.archive.Flush(target); err != nil {
		return fmt.Errorf("failed to write %s: %w", target, err)
	}
	b.logger.Debug("saved book", "path", target)
	return b.archive.Close()
}

// WriteTo streams the book with all changes to w. The book stays open.
func (b *Book) WriteTo(w io.Writer) (int64, error) {
	if err := b.Commit(); err != nil {
		return 0, err
	}
	return b.archive.WriteTo(w)
}

// Close discards all changes and releases the file.
func (b *Book) Close() error {
	b.Discard()
	return b.archive.Close()
}
