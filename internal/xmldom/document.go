// Package xmldom provides a mutable, namespace-aware XML tree with XPath
// queries. The tree is held by etree; queries run against an xmlquery view
// of the same document that is rebuilt whenever the tree has been touched
// since the last query, so mutations are always visible to the next query.
package xmldom

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
	"github.com/beevik/etree"
)

var (
	ErrInvalidState      = errors.New("node has no parent")
	ErrInvalidExpression = errors.New("invalid xpath expression")
	ErrNoRoot            = errors.New("document has no root element")
)

// Namespaces maps short prefixes to namespace URIs. Every prefix is usable
// in queries and in prefixed element or attribute names.
type Namespaces map[string]string

// Merge returns a new table holding ns plus extra; extra wins on conflicts.
func (ns Namespaces) Merge(extra Namespaces) Namespaces {
	out := make(Namespaces, len(ns)+len(extra))
	for k, v := range ns {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// prefixOf returns the table's prefix for uri.
func (ns Namespaces) prefixOf(uri string) (string, bool) {
	for k, v := range ns {
		if v == uri {
			return k, true
		}
	}
	return "", false
}

// Document is a parsed XML document.
type Document struct {
	ns   Namespaces
	tree *etree.Document

	// query view
	top     *xmlquery.Node
	toTree  map[*xmlquery.Node]*etree.Element
	toQuery map[*etree.Element]*xmlquery.Node
	stale   bool

	exprs map[string]*xpath.Expr
}

// Parse parses data. All prefixes in ns are registered for queries.
func Parse(data []byte, ns Namespaces) (*Document, error) {
	tree := etree.NewDocument()
	tree.ReadSettings.PreserveCData = true
	if err := tree.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("failed to parse XML: %w", err)
	}
	if tree.Root() == nil {
		return nil, ErrNoRoot
	}

	d := &Document{
		ns:    ns,
		tree:  tree,
		exprs: make(map[string]*xpath.Expr),
	}
	if err := d.index(data); err != nil {
		return nil, err
	}
	return d, nil
}

// Namespaces returns the prefix table the document was parsed with.
func (d *Document) Namespaces() Namespaces {
	return d.ns
}

// Root returns the document element.
func (d *Document) Root() *Element {
	return d.wrap(d.tree.Root())
}

// Bytes serializes the current tree.
func (d *Document) Bytes() ([]byte, error) {
	return d.tree.WriteToBytes()
}

// Reload serializes the tree and parses it into a fresh document. Elements
// obtained from d do not belong to the returned document.
func (d *Document) Reload() (*Document, error) {
	data, err := d.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize XML: %w", err)
	}
	return Parse(data, d.ns)
}

// Query evaluates expr and returns the matching elements in document order.
// When context is non-nil the expression is evaluated relative to it.
func (d *Document) Query(expr string, context *Element) ([]*Element, error) {
	compiled, err := d.compile(expr)
	if err != nil {
		return nil, err
	}
	if err := d.sync(); err != nil {
		return nil, err
	}

	top := d.top
	if context != nil {
		node, ok := d.toQuery[context.el]
		if !ok {
			// detached or from another document
			return nil, nil
		}
		top = node
	}

	nodes := xmlquery.QuerySelectorAll(top, compiled)
	out := make([]*Element, 0, len(nodes))
	for _, n := range nodes {
		if el, ok := d.toTree[n]; ok {
			out = append(out, d.wrap(el))
		}
	}
	return out, nil
}

// First returns the first element matching expr, or nil.
func (d *Document) First(expr string, context *Element) *Element {
	nodes, err := d.Query(expr, context)
	if err != nil || len(nodes) == 0 {
		return nil
	}
	return nodes[0]
}

func (d *Document) compile(expr string) (*xpath.Expr, error) {
	if e, ok := d.exprs[expr]; ok {
		return e, nil
	}
	e, err := xpath.CompileWithNS(expr, map[string]string(d.ns))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidExpression, expr, err)
	}
	d.exprs[expr] = e
	return e, nil
}

func (d *Document) touch() {
	d.stale = true
}

// sync rebuilds the query view if the tree changed since it was built.
func (d *Document) sync() error {
	if !d.stale {
		return nil
	}
	data, err := d.tree.WriteToBytes()
	if err != nil {
		return fmt.Errorf("failed to serialize XML: %w", err)
	}
	return d.index(data)
}

// index parses data into the query view and links its elements to the
// tree's elements. data must be the serialization of d.tree.
func (d *Document) index(data []byte) error {
	top, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to parse XML: %w", err)
	}

	d.top = top
	d.toTree = make(map[*xmlquery.Node]*etree.Element)
	d.toQuery = make(map[*etree.Element]*xmlquery.Node)
	if err := d.link(top, &d.tree.Element); err != nil {
		return err
	}
	d.stale = false
	return nil
}

func (d *Document) link(node *xmlquery.Node, el *etree.Element) error {
	children := el.ChildElements()
	i := 0
	for c := node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != xmlquery.ElementNode {
			continue
		}
		if i >= len(children) {
			return fmt.Errorf("query view out of step with tree at <%s>", c.Data)
		}
		d.toTree[c] = children[i]
		d.toQuery[children[i]] = c
		if err := d.link(c, children[i]); err != nil {
			return err
		}
		i++
	}
	if i != len(children) {
		return fmt.Errorf("query view out of step with tree at <%s>", el.FullTag())
	}
	return nil
}

func (d *Document) wrap(el *etree.Element) *Element {
	if el == nil {
		return nil
	}
	return &Element{doc: d, el: el}
}

// Literal quotes s as an XPath string literal.
func Literal(s string) string {
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}

	var b strings.Builder
	b.WriteString("concat(")
	for i, part := range strings.Split(s, `"`) {
		if i > 0 {
			b.WriteString(`, '"', `)
		}
		b.WriteString(`"` + part + `"`)
	}
	b.WriteString(")")
	return b.String()
}
