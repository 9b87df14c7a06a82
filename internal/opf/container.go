package opf

import (
	"fmt"
	"strings"

	"github.com/yuanying/epubmeta/internal/xmldom"
)

const (
	// ContainerPath is the fixed location of the container descriptor.
	ContainerPath = "META-INF/container.xml"
	// PackageMediaType identifies the rootfile holding the package document.
	PackageMediaType = "application/oebps-package+xml"
)

// ResolvePackagePath returns the archive path of the package document
// declared by the first OEBPS rootfile of the container descriptor.
func ResolvePackagePath(archive Archive, ns xmldom.Namespaces) (string, error) {
	if !archive.FileExists(ContainerPath) {
		return "", ErrContainerMissing
	}
	data, err := archive.FileRead(ContainerPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrContainerMissing, err)
	}

	doc, err := xmldom.Parse(data, ns)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrContainerCorrupt, err)
	}

	rootfile := doc.First(`//n:rootfiles/n:rootfile[@media-type="`+PackageMediaType+`"]`, nil)
	if rootfile == nil {
		return "", ErrPackageNotDeclared
	}

	path := strings.TrimPrefix(rootfile.Attr("full-path"), "./")
	if path == "" {
		return "", ErrPackageNotDeclared
	}
	return path, nil
}
