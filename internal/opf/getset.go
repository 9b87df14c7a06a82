package opf

import "github.com/yuanying/epubmeta/internal/xmldom"

// field selects a single metadata node: an element under opf:metadata,
// optionally filtered by an attribute. When dest is set the value lives in
// that attribute instead of the element text.
type field struct {
	element   string
	attr      string
	attrValue string
	dest      string
}

func (f field) xpath() string {
	expr := "//opf:metadata/" + f.element
	if f.attr == "" {
		return expr
	}
	if f.attrValue == "" {
		return expr + "[@" + f.attr + "]"
	}
	return expr + "[@" + f.attr + "=" + xmldom.Literal(f.attrValue) + "]"
}

func (f field) read(el *xmldom.Element) string {
	if f.dest != "" {
		return el.Attr(f.dest)
	}
	return el.Text()
}

func (f field) write(el *xmldom.Element, value string) {
	if f.dest != "" {
		el.SetAttr(f.dest, value)
		return
	}
	el.SetText(value)
}

// getField returns the value of the first node matching f, or "".
func (p *Package) getField(f field) string {
	if el := p.first(f.xpath()); el != nil {
		return f.read(el)
	}
	return ""
}

// setField stores value in the node matching f. An empty value deletes the
// node. Any state other than exactly one match is replaced by a single new
// node.
func (p *Package) setField(f field, value string) error {
	nodes := p.query(f.xpath())

	if len(nodes) == 1 {
		if value == "" {
			if err := nodes[0].Delete(); err != nil {
				return err
			}
		} else {
			f.write(nodes[0], value)
		}
		return p.Reparse()
	}

	if err := deleteAll(nodes); err != nil {
		return err
	}
	if value != "" {
		parent, err := p.metadata()
		if err != nil {
			return err
		}
		el := parent.NewChild(f.element, "")
		if f.attr != "" && f.attrValue != "" {
			el.SetAttr(f.attr, f.attrValue)
		}
		f.write(el, value)
	}
	return p.Reparse()
}
