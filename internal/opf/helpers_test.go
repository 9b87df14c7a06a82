package opf

import (
	"archive/zip"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

const testContainer = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

const testPackageDoc = `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="2.0" unique-identifier="bookid">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:opf="http://www.idpf.org/2007/opf">
    <dc:title>Romeo and Juliet</dc:title>
    <dc:creator opf:role="aut" opf:file-as="Shakespeare, William">William Shakespeare</dc:creator>
    <dc:language>en</dc:language>
    <dc:identifier id="bookid">urn:uuid:0a2b3c4d-1111-2222-3333-444455556666</dc:identifier>
    <dc:identifier opf:scheme="ISBN">9780000000001</dc:identifier>
    <dc:publisher>Feedbooks</dc:publisher>
    <dc:subject>Fiction</dc:subject>
    <dc:subject>Drama</dc:subject>
    <dc:subject>Romance</dc:subject>
    <dc:date opf:event="creation">2008-01-01</dc:date>
    <meta name="cover" content="book-cover"/>
    <meta name="calibre:series" content="Tragedies"/>
  </metadata>
  <manifest>
    <item id="ncx" href="toc.ncx" media-type="application/x-dtbncx+xml"/>
    <item id="book-cover" href="images/cover.png" media-type="image/png"/>
    <item id="page-css" href="css/page.css" media-type="text/css"/>
    <item id="main0" href="main0.xml" media-type="application/xhtml+xml"/>
    <item id="main1" href="main1.xml" media-type="application/xhtml+xml"/>
    <item id="missing" href="missing.xml" media-type="application/xhtml+xml"/>
  </manifest>
  <spine toc="ncx">
    <itemref idref="main0"/>
    <itemref idref="main1"/>
  </spine>
  <guide>
    <reference type="cover" title="Cover" href="images/cover.png"/>
  </guide>
</package>`

const testNCX = `<?xml version="1.0" encoding="UTF-8"?>
<ncx xmlns="http://www.daisy.org/z3986/2005/ncx/" version="2005-1">
  <navMap>
    <navPoint id="np-1" playOrder="1">
      <navLabel><text>Romeo and Juliet</text></navLabel>
      <content src="main0.xml"/>
      <navPoint id="np-2" playOrder="2">
        <navLabel><text>Prologue</text></navLabel>
        <content src="main0.xml#section_77304"/>
        <navPoint id="np-3" playOrder="3">
          <navLabel><text>Too deep</text></navLabel>
          <content src="main1.xml#deep"/>
        </navPoint>
      </navPoint>
      <navPoint id="np-4" playOrder="4">
        <navLabel><text>Act I</text></navLabel>
        <content src="main1.xml"/>
      </navPoint>
    </navPoint>
    <navPoint id="np-5" playOrder="5">
      <navLabel><text>About</text></navLabel>
      <content src="missing.xml"/>
    </navPoint>
  </navMap>
</ncx>`

var testCoverPNG = []byte("\x89PNG\r\n\x1a\nfake cover")

type testFile struct {
	name string
	body string
}

func testBookFiles() []testFile {
	return []testFile{
		{"mimetype", "application/epub+zip"},
		{"META-INF/container.xml", testContainer},
		{"OPS/content.opf", testPackageDoc},
		{"OPS/toc.ncx", testNCX},
		{"OPS/images/cover.png", string(testCoverPNG)},
		{"OPS/css/page.css", "body {padding: 0;}"},
		{"OPS/main0.xml", "<html/>"},
		{"OPS/main1.xml", "<html/>"},
	}
}

var errMemNotFound = errors.New("mem: no such file")

// memArchive is an in-memory Archive.
type memArchive struct {
	files map[string][]byte
}

func newMemArchive(files []testFile) *memArchive {
	a := &memArchive{files: make(map[string][]byte)}
	for _, f := range files {
		a.files[f.name] = []byte(f.body)
	}
	return a
}

func (a *memArchive) FileExists(name string) bool {
	_, ok := a.files[name]
	return ok
}

func (a *memArchive) FileRead(name string) ([]byte, error) {
	data, ok := a.files[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errMemNotFound, name)
	}
	return data, nil
}

func (a *memArchive) FileReplace(name string, data []byte) error {
	if _, ok := a.files[name]; !ok {
		return fmt.Errorf("%w: %s", errMemNotFound, name)
	}
	if data == nil {
		delete(a.files, name)
		return nil
	}
	a.files[name] = data
	return nil
}

func (a *memArchive) FileAdd(name string, data []byte) error {
	if _, ok := a.files[name]; ok {
		return fmt.Errorf("file exists: %s", name)
	}
	a.files[name] = data
	return nil
}

// newTestPackage loads the test book from memory.
func newTestPackage(t *testing.T) (*Package, *memArchive) {
	t.Helper()
	archive := newMemArchive(testBookFiles())
	p, err := New(archive)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return p, archive
}

// loadPackageDoc loads a package document given as text at OPS/content.opf.
func loadPackageDoc(t *testing.T, doc string) *Package {
	t.Helper()
	archive := newMemArchive([]testFile{{"OPS/content.opf", doc}})
	p, err := Load(archive, "OPS/content.opf")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	return p
}

func countNodes(t *testing.T, p *Package, expr string) int {
	t.Helper()
	nodes, err := p.Document().Query(expr, nil)
	if err != nil {
		t.Fatalf("Query(%q) failed: %v", expr, err)
	}
	return len(nodes)
}

func serialized(t *testing.T, p *Package) string {
	t.Helper()
	data, err := p.Serialize()
	if err != nil {
		t.Fatalf("Serialize() failed: %v", err)
	}
	return string(data)
}

// writeTestEPUB writes the test book to dir and returns its path.
func writeTestEPUB(t *testing.T, dir string) string {
	t.Helper()
	epubPath := filepath.Join(dir, "test.epub")
	f, err := os.Create(epubPath)
	if err != nil {
		t.Fatalf("failed to create test epub: %v", err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	for _, file := range testBookFiles() {
		method := zip.Deflate
		if file.name == "mimetype" {
			method = zip.Store
		}
		fw, err := w.CreateHeader(&zip.FileHeader{Name: file.name, Method: method})
		if err != nil {
			t.Fatalf("failed to create %s: %v", file.name, err)
		}
		if _, err := fw.Write([]byte(file.body)); err != nil {
			t.Fatalf("failed to write %s: %v", file.name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to finish test epub: %v", err)
	}
	return epubPath
}

func fileHash(t *testing.T, path string) [32]byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return sha256.Sum256(data)
}
