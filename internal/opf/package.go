// Package opf reads and edits the metadata of an EPUB package document.
//
// A Package is bound to an Archive. Accessors read from and write to the
// parsed package document; nothing reaches the archive until Commit, and
// nothing reaches the disk until the archive is flushed (see Book).
package opf

import (
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"strings"

	"github.com/yuanying/epubmeta/internal/xmldom"
)

// Archive is the container the package document lives in.
type Archive interface {
	FileExists(name string) bool
	FileRead(name string) ([]byte, error)
	FileReplace(name string, data []byte) error
	FileAdd(name string, data []byte) error
}

// Package is the parsed package document of one book. A Package is not
// safe for concurrent use.
type Package struct {
	archive Archive
	path    string
	ns      xmldom.Namespaces
	doc     *xmldom.Document
	logger  *slog.Logger

	// manifest index, nil until first use
	manifest      map[string]FileInfo
	manifestOrder []string

	// files written to the archive on Commit
	staged []stagedWrite
}

type stagedWrite struct {
	path string
	data []byte
}

// Option configures a Package.
type Option func(*Package)

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Package) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithNamespaces registers additional prefixes for queries and for prefixed
// element and attribute names.
func WithNamespaces(extra xmldom.Namespaces) Option {
	return func(p *Package) {
		p.ns = p.ns.Merge(extra)
	}
}

// New locates the package document through the container descriptor and
// loads it.
func New(archive Archive, opts ...Option) (*Package, error) {
	p := newPackage(archive, opts)

	pkgPath, err := ResolvePackagePath(archive, p.ns)
	if err != nil {
		return nil, err
	}
	if err := p.load(pkgPath); err != nil {
		return nil, err
	}
	return p, nil
}

// Load loads the package document at pkgPath without consulting the
// container descriptor.
func Load(archive Archive, pkgPath string, opts ...Option) (*Package, error) {
	p := newPackage(archive, opts)
	if err := p.load(pkgPath); err != nil {
		return nil, err
	}
	return p, nil
}

func newPackage(archive Archive, opts []Option) *Package {
	p := &Package{
		archive: archive,
		ns:      DefaultNamespaces(),
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Package) load(pkgPath string) error {
	if !p.archive.FileExists(pkgPath) {
		return fmt.Errorf("%w: %s", ErrPackageMissing, pkgPath)
	}
	data, err := p.archive.FileRead(pkgPath)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrPackageMissing, pkgPath, err)
	}

	doc, err := xmldom.Parse(data, p.ns)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrPackageCorrupt, pkgPath, err)
	}

	p.path = pkgPath
	p.doc = doc
	p.logger.Debug("loaded package document", "path", pkgPath)
	return nil
}

// Path returns the archive path of the package document.
func (p *Package) Path() string {
	return p.path
}

// Document returns the parsed package document.
func (p *Package) Document() *xmldom.Document {
	return p.doc
}

// Reparse serializes the document, loads it again and drops the manifest
// index. Every structural edit is followed by a reparse before the next read.
func (p *Package) Reparse() error {
	doc, err := p.doc.Reload()
	if err != nil {
		return fmt.Errorf("failed to reparse package document: %w", err)
	}
	p.doc = doc
	p.invalidateManifest()
	p.logger.Debug("reparsed package document", "path", p.path)
	return nil
}

// Serialize returns the current package document.
func (p *Package) Serialize() ([]byte, error) {
	return p.doc.Bytes()
}

// ResolveRelativePath maps an href found in the package document to an
// archive path. The fragment is dropped and the href is resolved against the
// directory holding the package document.
func (p *Package) ResolveRelativePath(href string) string {
	return resolveFrom(path.Dir(p.path), href)
}

func resolveFrom(dir, href string) string {
	href, _, _ = strings.Cut(href, "#")
	if unescaped, err := url.PathUnescape(href); err == nil {
		href = unescaped
	}
	if strings.HasPrefix(href, "/") {
		return strings.TrimLeft(href, "/")
	}

	resolved, err := Combine(dir, href)
	if err != nil {
		return href
	}
	return strings.TrimLeft(resolved, "/")
}

// Commit writes the package document and all staged files into the archive.
func (p *Package) Commit() error {
	data, err := p.Serialize()
	if err != nil {
		return fmt.Errorf("failed to serialize package document: %w", err)
	}
	if err := p.archive.FileReplace(p.path, data); err != nil {
		return fmt.Errorf("failed to write package document: %w", err)
	}

	for _, w := range p.staged {
		if p.archive.FileExists(w.path) {
			err = p.archive.FileReplace(w.path, w.data)
		} else {
			err = p.archive.FileAdd(w.path, w.data)
		}
		if err != nil {
			return fmt.Errorf("failed to write %s: %w", w.path, err)
		}
		p.logger.Debug("wrote staged file", "path", w.path, "size", len(w.data))
	}
	p.staged = nil
	p.invalidateManifest()
	return nil
}

// Discard drops all staged files.
func (p *Package) Discard() {
	p.staged = nil
}

func (p *Package) stage(filePath string, data []byte) {
	p.unstage(filePath)
	p.staged = append(p.staged, stagedWrite{path: filePath, data: data})
}

func (p *Package) unstage(filePath string) {
	kept := p.staged[:0]
	for _, w := range p.staged {
		if w.path != filePath {
			kept = append(kept, w)
		}
	}
	p.staged = kept
}

func (p *Package) stagedData(filePath string) ([]byte, bool) {
	for _, w := range p.staged {
		if w.path == filePath {
			return w.data, true
		}
	}
	return nil, false
}

func (p *Package) query(expr string) []*xmldom.Element {
	nodes, err := p.doc.Query(expr, nil)
	if err != nil {
		p.logger.Debug("query failed", "expr", expr, "error", err)
		return nil
	}
	return nodes
}

func (p *Package) first(expr string) *xmldom.Element {
	if nodes := p.query(expr); len(nodes) > 0 {
		return nodes[0]
	}
	return nil
}

// metadata returns the metadata element new nodes are appended to.
func (p *Package) metadata() (*xmldom.Element, error) {
	if el := p.first("//opf:metadata"); el != nil {
		return el, nil
	}
	return nil, fmt.Errorf("%w: no metadata element", ErrPackageCorrupt)
}

func deleteAll(nodes []*xmldom.Element) error {
	for _, n := range nodes {
		if err := n.Delete(); err != nil {
			return err
		}
	}
	return nil
}
