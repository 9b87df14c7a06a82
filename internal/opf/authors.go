package opf

import "strings"

const authorsXPath = `//opf:metadata/dc:creator[@opf:role="aut"]`

// Author is a book author. FileAs is the sort key readers order by.
type Author struct {
	FileAs string
	Name   string
}

// Authors returns the book's authors in document order. Creators without a
// file-as key get their name stamped as the key. When no creator carries
// the author role, all creators are treated as authors and get the role
// stamped. Both repairs are written into the document.
func (p *Package) Authors() []Author {
	roleFix := false
	nodes := p.query(authorsXPath)
	if len(nodes) == 0 {
		nodes = p.query("//opf:metadata/dc:creator")
		roleFix = len(nodes) > 0
	}

	var authors []Author
	index := make(map[string]int)
	for _, node := range nodes {
		name := node.Text()
		as := node.Attr("opf:file-as")
		if as == "" {
			as = name
			node.SetAttr("opf:file-as", as)
		}
		if roleFix {
			node.SetAttr("opf:role", "aut")
		}

		// a repeated key keeps its position and takes the later name
		if i, ok := index[as]; ok {
			authors[i].Name = name
			continue
		}
		index[as] = len(authors)
		authors = append(authors, Author{FileAs: as, Name: name})
	}

	if roleFix {
		p.logger.Debug("stamped author role on legacy creators", "count", len(nodes))
	}
	return authors
}

// SetAuthors replaces all authors. An empty FileAs defaults to the name;
// entries without a name are skipped.
func (p *Package) SetAuthors(authors []Author) error {
	if err := deleteAll(p.query(authorsXPath)); err != nil {
		return err
	}

	if len(authors) > 0 {
		parent, err := p.metadata()
		if err != nil {
			return err
		}
		for _, a := range authors {
			if a.Name == "" {
				continue
			}
			as := a.FileAs
			if as == "" {
				as = a.Name
			}
			node := parent.NewChild("dc:creator", a.Name)
			node.SetAttr("opf:role", "aut")
			node.SetAttr("opf:file-as", as)
		}
	}
	return p.Reparse()
}

// SetAuthorNames replaces all authors; every name is its own sort key.
func (p *Package) SetAuthorNames(names []string) error {
	authors := make([]Author, 0, len(names))
	for _, name := range names {
		authors = append(authors, Author{FileAs: name, Name: name})
	}
	return p.SetAuthors(authors)
}

// SetAuthorsString replaces all authors from a comma separated list.
func (p *Package) SetAuthorsString(list string) error {
	return p.SetAuthorNames(SplitList(list))
}

// SplitList splits a comma separated list, trimming whitespace and dropping
// empty entries.
func SplitList(list string) []string {
	var out []string
	for _, item := range strings.Split(list, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
