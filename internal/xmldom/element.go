package xmldom

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

const xmlNamespace = "http://www.w3.org/XML/1998/namespace"

// Element is a node of a Document. Names passed to its methods may carry a
// prefix from the document's Namespaces table ("opf:role"); the prefix is
// resolved to its URI, so documents that bind the URI to a different prefix
// are handled transparently.
type Element struct {
	doc *Document
	el  *etree.Element
}

// Tag returns the local name.
func (e *Element) Tag() string {
	return e.el.Tag
}

// NamespaceURI returns the namespace the element belongs to.
func (e *Element) NamespaceURI() string {
	return lookupNamespace(e.el, e.el.Space)
}

// Is reports whether e and other wrap the same node.
func (e *Element) Is(other *Element) bool {
	return other != nil && e.el == other.el
}

// Parent returns the parent element, or nil for the document element.
func (e *Element) Parent() *Element {
	p := e.el.Parent()
	if p == nil || p == &e.doc.tree.Element {
		return nil
	}
	return e.doc.wrap(p)
}

// Children returns the child elements.
func (e *Element) Children() []*Element {
	children := e.el.ChildElements()
	out := make([]*Element, len(children))
	for i, c := range children {
		out[i] = e.doc.wrap(c)
	}
	return out
}

// Text returns the concatenated character data of the element and its
// descendants.
func (e *Element) Text() string {
	var b strings.Builder
	collectText(e.el, &b)
	return b.String()
}

func collectText(el *etree.Element, b *strings.Builder) {
	for _, tok := range el.Child {
		switch t := tok.(type) {
		case *etree.CharData:
			b.WriteString(t.Data)
		case *etree.Element:
			collectText(t, b)
		}
	}
}

// SetText replaces all content of the element with value. The value is
// stored literally and escaped on serialization.
func (e *Element) SetText(value string) {
	for len(e.el.Child) > 0 {
		e.el.RemoveChildAt(0)
	}
	if value != "" {
		e.el.SetText(value)
	}
	e.doc.touch()
}

// Attr returns the value of the named attribute, or "" when absent.
func (e *Element) Attr(name string) string {
	if a := e.findAttr(name); a != nil {
		return a.Value
	}
	return ""
}

// HasAttr reports whether the named attribute is present.
func (e *Element) HasAttr(name string) bool {
	return e.findAttr(name) != nil
}

// SetAttr sets the named attribute. A prefixed name is written in its
// namespace unless the element itself is in that namespace, in which case
// the attribute is written unprefixed.
func (e *Element) SetAttr(name, value string) {
	e.doc.touch()
	if a := e.findAttr(name); a != nil {
		a.Value = value
		return
	}

	uri, local, literal := e.attrName(name)
	switch {
	case literal != "":
		e.el.CreateAttr(literal, value)
	case uri == "":
		e.el.CreateAttr(local, value)
	default:
		prefix := e.doc.prefixFor(e.el, uri)
		e.el.CreateAttr(prefix+":"+local, value)
	}
}

// RemoveAttr removes the named attribute if present.
func (e *Element) RemoveAttr(name string) {
	a := e.findAttr(name)
	if a == nil {
		return
	}
	e.el.RemoveAttr(a.FullKey())
	e.doc.touch()
}

// NewChild creates a child element, appends it and returns it. A prefixed
// name whose namespace is the parent's default namespace is created without
// a prefix.
func (e *Element) NewChild(name, value string) *Element {
	tag := name
	if prefix, local, ok := strings.Cut(name, ":"); ok {
		if uri, known := e.doc.ns[prefix]; known {
			if lookupNamespace(e.el, "") == uri {
				tag = local
			} else {
				tag = e.doc.prefixFor(e.el, uri) + ":" + local
			}
		}
	}

	child := e.el.CreateElement(tag)
	if value != "" {
		child.SetText(value)
	}
	e.doc.touch()
	return e.doc.wrap(child)
}

// Delete detaches the element from its parent.
func (e *Element) Delete() error {
	parent := e.el.Parent()
	if parent == nil {
		return ErrInvalidState
	}
	parent.RemoveChild(e.el)
	e.doc.touch()
	return nil
}

// attrName resolves name. For a known prefix it returns the namespace URI
// the attribute must carry ("" when it is written unprefixed) and the local
// name. Unknown prefixes are returned as literal keys.
func (e *Element) attrName(name string) (uri, local, literal string) {
	prefix, local, ok := strings.Cut(name, ":")
	if !ok {
		return "", name, ""
	}
	if prefix == "xml" {
		return xmlNamespace, local, ""
	}
	uri, known := e.doc.ns[prefix]
	if !known {
		return "", "", name
	}

	own := e.NamespaceURI()
	if own == uri || (own == "" && lookupNamespace(e.el, "") == uri) {
		return "", local, ""
	}
	return uri, local, ""
}

func (e *Element) findAttr(name string) *etree.Attr {
	uri, local, literal := e.attrName(name)
	if literal != "" {
		return e.el.SelectAttr(literal)
	}

	for i := range e.el.Attr {
		a := &e.el.Attr[i]
		if a.Key != local || a.Space == "xmlns" {
			continue
		}
		if uri == "" {
			if a.Space == "" {
				return a
			}
			continue
		}
		if a.Space != "" && lookupNamespace(e.el, a.Space) == uri {
			return a
		}
	}
	return nil
}

// prefixFor returns a prefix bound to uri in scope at el, declaring one on
// the document element when none is.
func (d *Document) prefixFor(el *etree.Element, uri string) string {
	if uri == xmlNamespace {
		return "xml"
	}
	if prefix, ok := lookupPrefix(el, uri); ok {
		return prefix
	}

	base, ok := d.ns.prefixOf(uri)
	if !ok {
		base = "ns"
	}
	root := d.tree.Root()
	candidate := base
	for n := 1; lookupNamespace(el, candidate) != "" || lookupNamespace(root, candidate) != ""; n++ {
		candidate = base + strconv.Itoa(n)
	}
	root.CreateAttr("xmlns:"+candidate, uri)
	return candidate
}

// lookupNamespace returns the URI bound to prefix in scope at el. The empty
// prefix yields the default namespace.
func lookupNamespace(el *etree.Element, prefix string) string {
	if prefix == "xml" {
		return xmlNamespace
	}
	for e := el; e != nil; e = e.Parent() {
		for _, a := range e.Attr {
			if prefix == "" && a.Space == "" && a.Key == "xmlns" {
				return a.Value
			}
			if prefix != "" && a.Space == "xmlns" && a.Key == prefix {
				return a.Value
			}
		}
	}
	return ""
}

// lookupPrefix returns a non-empty prefix bound to uri in scope at el.
func lookupPrefix(el *etree.Element, uri string) (string, bool) {
	for e := el; e != nil; e = e.Parent() {
		for _, a := range e.Attr {
			if a.Space != "xmlns" || a.Value != uri {
				continue
			}
			// a closer declaration may rebind the same prefix
			if lookupNamespace(el, a.Key) == uri {
				return a.Key, true
			}
		}
	}
	return "", false
}
