package opf

import (
	"fmt"
	"path"

	"github.com/yuanying/epubmeta/internal/xmldom"
)

// TocEntry is a navigation point of the NCX table of contents.
type TocEntry struct {
	Title string
	Src   string
	File  FileInfo
	// Depth is 0 for top level points and 1 for their children.
	Depth int
}

// Toc returns the table of contents declared by the spine. Top level
// navigation points are listed with their direct children; deeper levels
// are not read.
func (p *Package) Toc() ([]TocEntry, error) {
	tocPath, err := p.tocPath()
	if err != nil {
		return nil, err
	}
	if !p.archive.FileExists(tocPath) {
		return nil, fmt.Errorf("%w: %s", ErrTocMissing, tocPath)
	}
	data, err := p.archive.FileRead(tocPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTocMissing, tocPath, err)
	}

	ncx, err := xmldom.Parse(data, p.ns)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTocCorrupt, tocPath, err)
	}

	dir := path.Dir(tocPath)
	var entries []TocEntry
	top, err := ncx.Query("//ncx:ncx/ncx:navMap/ncx:navPoint", nil)
	if err != nil {
		return nil, err
	}
	for _, point := range top {
		entries = append(entries, p.tocEntry(ncx, point, dir, 0))

		children, err := ncx.Query("ncx:navPoint", point)
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			entries = append(entries, p.tocEntry(ncx, child, dir, 1))
		}
	}
	return entries, nil
}

func (p *Package) tocPath() (string, error) {
	spine := p.first("//opf:spine")
	if spine == nil {
		return "", fmt.Errorf("%w: no spine", ErrTocMissing)
	}
	id := spine.Attr("toc")
	if id == "" {
		return "", fmt.Errorf("%w: spine declares no toc", ErrTocMissing)
	}
	item := p.manifestItemByID(id)
	if item == nil || item.Attr("opf:href") == "" {
		return "", fmt.Errorf("%w: no manifest item %q", ErrTocMissing, id)
	}
	return p.ResolveRelativePath(item.Attr("opf:href")), nil
}

func (p *Package) tocEntry(ncx *xmldom.Document, point *xmldom.Element, dir string, depth int) TocEntry {
	entry := TocEntry{Depth: depth}
	if label := ncx.First("ncx:navLabel/ncx:text", point); label != nil {
		entry.Title = label.Text()
	}
	if content := ncx.First("ncx:content", point); content != nil {
		entry.Src = content.Attr("src")
	}
	entry.File = p.FileInfo(resolveFrom(dir, entry.Src))
	return entry
}
