package opf

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// DescriptionText returns the description with any HTML markup removed and
// whitespace collapsed.
func (p *Package) DescriptionText() string {
	desc := p.Description()
	if desc == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(desc))
	if err != nil {
		return strings.Join(strings.Fields(desc), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// LanguageTag parses the book's language as a BCP 47 tag.
func (p *Package) LanguageTag() (language.Tag, error) {
	return language.Parse(p.Language())
}

// LanguageName returns the language's name in that language, or the raw
// value when it is not a valid tag.
func (p *Package) LanguageName() string {
	tag, err := p.LanguageTag()
	if err != nil {
		return p.Language()
	}
	if name := display.Self.Name(tag); name != "" {
		return name
	}
	return tag.String()
}
