package opf

import "github.com/yuanying/epubmeta/internal/xmldom"

// Namespace URIs used by container, package and navigation documents.
const (
	NamespaceContainer = "urn:oasis:names:tc:opendocument:xmlns:container"
	NamespaceOPF       = "http://www.idpf.org/2007/opf"
	NamespaceDC        = "http://purl.org/dc/elements/1.1/"
	NamespaceNCX       = "http://www.daisy.org/z3986/2005/ncx/"
)

// DefaultNamespaces returns the prefix table every query in this package is
// written against.
func DefaultNamespaces() xmldom.Namespaces {
	return xmldom.Namespaces{
		"n":   NamespaceContainer,
		"opf": NamespaceOPF,
		"dc":  NamespaceDC,
		"ncx": NamespaceNCX,
	}
}
