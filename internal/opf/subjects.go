package opf

const subjectsXPath = "//opf:metadata/dc:subject"

// Subjects returns the book's subjects (tags) in document order.
func (p *Package) Subjects() []string {
	nodes := p.query(subjectsXPath)
	subjects := make([]string, 0, len(nodes))
	for _, node := range nodes {
		subjects = append(subjects, node.Text())
	}
	return subjects
}

// SetSubjects replaces all subjects, keeping the given order.
func (p *Package) SetSubjects(subjects []string) error {
	if err := deleteAll(p.query(subjectsXPath)); err != nil {
		return err
	}

	if len(subjects) > 0 {
		parent, err := p.metadata()
		if err != nil {
			return err
		}
		for _, s := range subjects {
			if s != "" {
				parent.NewChild("dc:subject", s)
			}
		}
	}
	return p.Reparse()
}

// SetSubjectsString replaces all subjects from a comma separated list.
func (p *Package) SetSubjectsString(list string) error {
	return p.SetSubjects(SplitList(list))
}
