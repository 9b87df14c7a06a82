package opf

import "strings"

// FileInfo describes an archive file as declared by the manifest.
type FileInfo struct {
	ID         string
	MIME       string
	Exists     bool
	Path       string
	Properties []string
}

// HasProperty reports whether the manifest item declares the property.
func (f FileInfo) HasProperty(property string) bool {
	for _, p := range f.Properties {
		if p == property {
			return true
		}
	}
	return false
}

// FileInfo returns the manifest entry for an archive path. Unknown paths
// yield an entry with empty id and type that does not exist.
func (p *Package) FileInfo(filePath string) FileInfo {
	p.readManifest()
	if info, ok := p.manifest[filePath]; ok {
		return info
	}
	return FileInfo{Path: filePath}
}

// ManifestItems returns all manifest entries in document order.
func (p *Package) ManifestItems() []FileInfo {
	p.readManifest()
	items := make([]FileInfo, 0, len(p.manifestOrder))
	for _, path := range p.manifestOrder {
		items = append(items, p.manifest[path])
	}
	return items
}

func (p *Package) readManifest() {
	if p.manifest != nil {
		return
	}

	p.manifest = make(map[string]FileInfo)
	p.manifestOrder = nil
	for _, node := range p.query("//opf:manifest/opf:item") {
		href := node.Attr("opf:href")
		if href == "" {
			continue
		}
		filePath := p.ResolveRelativePath(href)

		if _, seen := p.manifest[filePath]; !seen {
			p.manifestOrder = append(p.manifestOrder, filePath)
		}
		p.manifest[filePath] = FileInfo{
			ID:         node.Attr("id"),
			MIME:       node.Attr("opf:media-type"),
			Exists:     p.archive.FileExists(filePath),
			Path:       filePath,
			Properties: strings.Fields(node.Attr("opf:properties")),
		}
	}
	p.logger.Debug("indexed manifest", "items", len(p.manifestOrder))
}

func (p *Package) invalidateManifest() {
	p.manifest = nil
	p.manifestOrder = nil
}
