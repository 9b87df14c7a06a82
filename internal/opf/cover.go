package opf

import (
	"encoding/base64"
	"fmt"
	"path"
	"strings"

	"github.com/yuanying/epubmeta/internal/xmldom"
)

const (
	// CoverID is the manifest id of covers added by SetCoverFile.
	CoverID       = "epubmeta-cover"
	coverFileName = "epubmeta-cover.img"
	coverXPath    = `//opf:metadata/opf:meta[@name="cover"]`
)

// NoCoverMIME is the type of the placeholder returned when a book has no
// cover.
const NoCoverMIME = "image/gif"

// 1x1 transparent GIF
var noCoverGIF, _ = base64.StdEncoding.DecodeString("R0lGODlhAQABAIAAAAAAAP///yH5BAEAAAEALAAAAAABAAEAAAIBTAA7")

// CoverOutcome is the result of following the cover pointer.
type CoverOutcome int

const (
	// CoverNoPointer: there is no meta name="cover" element.
	CoverNoPointer CoverOutcome = iota
	// CoverDanglingPointer: the pointer names no manifest item.
	CoverDanglingPointer
	// CoverFound: the pointer resolves to a manifest item.
	CoverFound
)

func (o CoverOutcome) String() string {
	switch o {
	case CoverNoPointer:
		return "no pointer"
	case CoverDanglingPointer:
		return "dangling pointer"
	case CoverFound:
		return "found"
	default:
		return fmt.Sprintf("CoverOutcome(%d)", int(o))
	}
}

// CoverResolution is the outcome of ResolveCover. ID is the id named by the
// pointer; Item is set only when Outcome is CoverFound.
type CoverResolution struct {
	Outcome CoverOutcome
	ID      string
	Item    FileInfo
}

// ResolveCover follows the cover pointer through the manifest.
func (p *Package) ResolveCover() CoverResolution {
	res, _ := p.coverItem()
	return res
}

func (p *Package) coverItem() (CoverResolution, *xmldom.Element) {
	pointer := p.first(coverXPath)
	if pointer == nil {
		return CoverResolution{Outcome: CoverNoPointer}, nil
	}

	id := pointer.Attr("opf:content")
	if id == "" {
		return CoverResolution{Outcome: CoverDanglingPointer}, nil
	}
	item := p.manifestItemByID(id)
	if item == nil || item.Attr("opf:href") == "" {
		return CoverResolution{Outcome: CoverDanglingPointer, ID: id}, nil
	}

	info := p.FileInfo(p.ResolveRelativePath(item.Attr("opf:href")))
	return CoverResolution{Outcome: CoverFound, ID: id, Item: info}, item
}

func (p *Package) manifestItemByID(id string) *xmldom.Element {
	return p.first("//opf:manifest/opf:item[@id=" + xmldom.Literal(id) + "]")
}

// CoverFile returns the manifest entry of the cover image.
func (p *Package) CoverFile() (FileInfo, bool) {
	res := p.ResolveCover()
	return res.Item, res.Outcome == CoverFound
}

// SetCoverFile makes data the cover image. The bytes are staged and written
// to the archive by Commit; until then the returned cover entry does not
// exist in the archive.
func (p *Package) SetCoverFile(data []byte, mime string) error {
	if err := p.ClearCover(); err != nil {
		return err
	}
	if err := deleteAll(p.query("//opf:manifest/opf:item[@id=" + xmldom.Literal(CoverID) + "]")); err != nil {
		return err
	}

	metadata, err := p.metadata()
	if err != nil {
		return err
	}
	manifest := p.first("//opf:manifest")
	if manifest == nil {
		return fmt.Errorf("%w: no manifest element", ErrPackageCorrupt)
	}

	pointer := metadata.NewChild("opf:meta", "")
	pointer.SetAttr("opf:name", "cover")
	pointer.SetAttr("opf:content", CoverID)

	item := manifest.NewChild("opf:item", "")
	item.SetAttr("id", CoverID)
	item.SetAttr("opf:href", coverFileName)
	item.SetAttr("opf:media-type", mime)
	item.SetAttr("opf:properties", "cover-image")

	coverPath := p.ResolveRelativePath(coverFileName)
	p.stage(coverPath, data)
	p.logger.Debug("staged cover image", "path", coverPath, "mime", mime, "size", len(data))

	return p.Reparse()
}

// ClearCover removes the cover pointer. A cover added by SetCoverFile is
// removed together with its manifest item and image file; any other
// manifest item and its file are left alone.
func (p *Package) ClearCover() error {
	res := p.ResolveCover()
	if res.Outcome == CoverNoPointer {
		return nil
	}

	if err := deleteAll(p.query(coverXPath)); err != nil {
		return err
	}

	if res.ID == CoverID {
		if err := deleteAll(p.query("//opf:manifest/opf:item[@id=" + xmldom.Literal(CoverID) + "]")); err != nil {
			return err
		}
		coverPath := res.Item.Path
		if coverPath == "" {
			coverPath = p.ResolveRelativePath(coverFileName)
		}
		p.unstage(coverPath)
		if p.archive.FileExists(coverPath) {
			if err := p.archive.FileReplace(coverPath, nil); err != nil {
				return fmt.Errorf("failed to remove cover image: %w", err)
			}
		}
	}
	p.invalidateManifest()
	p.logger.Debug("cleared cover", "id", res.ID, "outcome", res.Outcome.String())

	return p.Reparse()
}

// UpdateForKepub marks the cover manifest item with the cover-image
// property, which Kobo readers need. It reports whether there is a cover.
func (p *Package) UpdateForKepub() bool {
	_, item := p.coverItem()
	if item == nil {
		return false
	}
	props := strings.Fields(item.Attr("opf:properties"))
	for _, prop := range props {
		if prop == "cover-image" {
			return true
		}
	}
	item.SetAttr("opf:properties", strings.Join(append(props, "cover-image"), " "))
	p.invalidateManifest()
	return true
}

// CoverImage is a cover image and where it was found.
type CoverImage struct {
	Data  []byte
	MIME  string
	Path  string
	Found bool
}

// Cover returns the cover image. Without a cover it returns a transparent
// 1x1 GIF with Found unset. A cover staged by SetCoverFile is returned from
// the staged bytes.
func (p *Package) Cover() (CoverImage, error) {
	res := p.ResolveCover()
	if res.Outcome != CoverFound {
		return CoverImage{Data: noCoverGIF, MIME: NoCoverMIME}, nil
	}

	img := CoverImage{MIME: res.Item.MIME, Path: res.Item.Path, Found: true}
	if data, ok := p.stagedData(res.Item.Path); ok {
		img.Data = data
		return img, nil
	}

	data, err := p.GetFile(res.Item.Path)
	if err != nil {
		return CoverImage{}, err
	}
	img.Data = data
	return img, nil
}

// CoverImageItems returns the manifest items declaring the cover-image
// property. More than one means readers may disagree on the cover:
// SetCoverFile leaves a third-party item and its property in place.
func (p *Package) CoverImageItems() []FileInfo {
	var items []FileInfo
	for _, item := range p.ManifestItems() {
		if item.HasProperty("cover-image") {
			items = append(items, item)
		}
	}
	return items
}

// Cover detection methods reported by DetectCover.
const (
	DetectedByProperties = "properties"
	DetectedByMeta       = "meta"
	DetectedByGuide      = "guide"
	DetectedByFilename   = "filename"
)

// DetectedCover is a cover image found by DetectCover.
type DetectedCover struct {
	FileInfo
	Method string
}

// DetectCover looks for a cover image using several methods, in priority
// order:
//  1. properties="cover-image" (EPUB 3.0)
//  2. meta name="cover" (EPUB 2.0)
//  3. guide type="cover" (matched to image manifest items)
//  4. filename pattern (basename contains "cover", case-insensitive, SVG excluded)
//
// Returns nil if no cover image is found. Unlike ResolveCover it never
// changes what the book declares.
func (p *Package) DetectCover() *DetectedCover {
	items := p.ManifestItems()

	// Method 1: EPUB 3.0 - cover-image property
	for _, item := range items {
		if item.HasProperty("cover-image") {
			return &DetectedCover{FileInfo: item, Method: DetectedByProperties}
		}
	}

	// Method 2: EPUB 2.0 - meta name="cover"
	if res := p.ResolveCover(); res.Outcome == CoverFound {
		return &DetectedCover{FileInfo: res.Item, Method: DetectedByMeta}
	}

	// Method 3: guide type="cover" → match to image manifest items
	for _, ref := range p.query(`//opf:guide/opf:reference[@type="cover"]`) {
		target := p.ResolveRelativePath(ref.Attr("opf:href"))
		for _, item := range items {
			if isImageMediaType(item.MIME) && item.Path == target {
				return &DetectedCover{FileInfo: item, Method: DetectedByGuide}
			}
		}
		// Guide points to a non-image → skip to Method 4
	}

	// Method 4: filename pattern
	for _, item := range items {
		if !isImageMediaType(item.MIME) {
			continue
		}
		if strings.Contains(strings.ToLower(path.Base(item.Path)), "cover") {
			return &DetectedCover{FileInfo: item, Method: DetectedByFilename}
		}
	}

	return nil
}

// isImageMediaType checks if a media type is a raster image (SVG excluded).
func isImageMediaType(mediaType string) bool {
	if mediaType == "image/svg+xml" {
		return false
	}
	return strings.HasPrefix(mediaType, "image/")
}
