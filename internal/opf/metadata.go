package opf

import (
	"fmt"

	"github.com/google/uuid"
)

// Identifier schemes with dedicated accessors.
const (
	SchemeURI     = "URI"
	SchemeISBN    = "ISBN"
	SchemeGoogle  = "GOOGLE"
	SchemeAmazon  = "AMAZON"
	SchemeCalibre = "calibre"
)

// Date events with dedicated accessors.
const (
	EventCreation     = "creation"
	EventModification = "modification"
)

const defaultUniqueIdentifier = "uuid_id"

var (
	titleField       = field{element: "dc:title"}
	languageField    = field{element: "dc:language"}
	publisherField   = field{element: "dc:publisher"}
	copyrightField   = field{element: "dc:rights"}
	descriptionField = field{element: "dc:description"}
	seriesField      = field{element: "opf:meta", attr: "name", attrValue: "calibre:series", dest: "content"}
	seriesIndexField = field{element: "opf:meta", attr: "name", attrValue: "calibre:series_index", dest: "content"}
)

func identifierField(scheme string) field {
	return field{element: "dc:identifier", attr: "opf:scheme", attrValue: scheme}
}

func dateField(event string) field {
	return field{element: "dc:date", attr: "opf:event", attrValue: event}
}

// Scalar accessors. Getters return "" when the field is absent; setters
// replace the field, and an empty value removes it.

// Title returns dc:title.
func (p *Package) Title() string { return p.getField(titleField) }

// SetTitle sets dc:title.
func (p *Package) SetTitle(v string) error { return p.setField(titleField, v) }

// Language returns dc:language.
func (p *Package) Language() string { return p.getField(languageField) }

// SetLanguage sets dc:language.
func (p *Package) SetLanguage(v string) error { return p.setField(languageField, v) }

// Publisher returns dc:publisher.
func (p *Package) Publisher() string { return p.getField(publisherField) }

// SetPublisher sets dc:publisher.
func (p *Package) SetPublisher(v string) error { return p.setField(publisherField, v) }

// Description returns dc:description as stored, markup included.
func (p *Package) Description() string { return p.getField(descriptionField) }

// SetDescription sets dc:description.
func (p *Package) SetDescription(v string) error { return p.setField(descriptionField, v) }

// Series returns the calibre:series meta content.
func (p *Package) Series() string { return p.getField(seriesField) }

// SetSeries sets the calibre:series meta content.
func (p *Package) SetSeries(v string) error { return p.setField(seriesField, v) }

// SeriesIndex returns the calibre:series_index meta content.
func (p *Package) SeriesIndex() string { return p.getField(seriesIndexField) }

// SetSeriesIndex sets the calibre:series_index meta content.
func (p *Package) SetSeriesIndex(v string) error { return p.setField(seriesIndexField, v) }

// Copyright returns dc:rights.
func (p *Package) Copyright() string { return p.getField(copyrightField) }

// SetCopyright sets dc:rights.
func (p *Package) SetCopyright(v string) error { return p.setField(copyrightField, v) }

// Identifier returns the dc:identifier carrying the given opf:scheme.
func (p *Package) Identifier(scheme string) string {
	return p.getField(identifierField(scheme))
}

// SetIdentifier sets the dc:identifier carrying the given opf:scheme.
func (p *Package) SetIdentifier(scheme, v string) error {
	return p.setField(identifierField(scheme), v)
}

// URI returns the identifier with scheme URI.
func (p *Package) URI() string { return p.Identifier(SchemeURI) }

// SetURI sets the identifier with scheme URI.
func (p *Package) SetURI(v string) error { return p.SetIdentifier(SchemeURI, v) }

// ISBN returns the identifier with scheme ISBN.
func (p *Package) ISBN() string { return p.Identifier(SchemeISBN) }

// SetISBN sets the identifier with scheme ISBN.
func (p *Package) SetISBN(v string) error { return p.SetIdentifier(SchemeISBN, v) }

// Google returns the Google Books identifier.
func (p *Package) Google() string { return p.Identifier(SchemeGoogle) }

// SetGoogle sets the Google Books identifier.
func (p *Package) SetGoogle(v string) error { return p.SetIdentifier(SchemeGoogle, v) }

// Amazon returns the Amazon (ASIN) identifier.
func (p *Package) Amazon() string { return p.Identifier(SchemeAmazon) }

// SetAmazon sets the Amazon (ASIN) identifier.
func (p *Package) SetAmazon(v string) error { return p.SetIdentifier(SchemeAmazon, v) }

// Calibre returns the calibre library identifier.
func (p *Package) Calibre() string { return p.Identifier(SchemeCalibre) }

// SetCalibre sets the calibre library identifier.
func (p *Package) SetCalibre(v string) error { return p.SetIdentifier(SchemeCalibre, v) }

// Date returns the dc:date carrying the given opf:event.
func (p *Package) Date(event string) string {
	return p.getField(dateField(event))
}

// SetDate sets the dc:date carrying the given opf:event. Dates are stored as
// given, e.g. 2012-05-19T12:54:25Z.
func (p *Package) SetDate(event, v string) error {
	return p.setField(dateField(event), v)
}

// CreationDate returns the dc:date with event creation.
func (p *Package) CreationDate() string { return p.Date(EventCreation) }

// SetCreationDate sets the dc:date with event creation.
func (p *Package) SetCreationDate(v string) error { return p.SetDate(EventCreation, v) }

// ModificationDate returns the dc:date with event modification.
func (p *Package) ModificationDate() string { return p.Date(EventModification) }

// SetModificationDate sets the dc:date with event modification.
func (p *Package) SetModificationDate(v string) error {
	return p.SetDate(EventModification, v)
}

// uuidField selects the identifier named by the package's unique-identifier
// attribute.
func (p *Package) uuidField() (field, error) {
	pkgs := p.query("/opf:package")
	if len(pkgs) != 1 {
		return field{}, ErrIdentifierMissing
	}
	return field{element: "dc:identifier", attr: "id", attrValue: pkgs[0].Attr("unique-identifier")}, nil
}

// UUID returns the book's unique identifier.
func (p *Package) UUID() (string, error) {
	f, err := p.uuidField()
	if err != nil {
		return "", err
	}
	if f.attrValue == "" {
		return "", nil
	}
	return p.getField(f), nil
}

// SetUUID sets the book's unique identifier. When the package does not name
// one, unique-identifier is declared first.
func (p *Package) SetUUID(v string) error {
	pkgs := p.query("/opf:package")
	if len(pkgs) != 1 {
		return ErrIdentifierMissing
	}
	if pkgs[0].Attr("unique-identifier") == "" {
		if v == "" {
			return nil
		}
		pkgs[0].SetAttr("unique-identifier", defaultUniqueIdentifier)
	}

	f, err := p.uuidField()
	if err != nil {
		return err
	}
	return p.setField(f, v)
}

// EnsureUUID assigns a random urn:uuid identifier when the book has none and
// returns the identifier in effect.
func (p *Package) EnsureUUID() (string, error) {
	current, err := p.UUID()
	if err != nil {
		return "", err
	}
	if current != "" {
		return current, nil
	}

	id := "urn:uuid:" + uuid.NewString()
	if err := p.SetUUID(id); err != nil {
		return "", fmt.Errorf("failed to assign identifier: %w", err)
	}
	p.logger.Debug("assigned unique identifier", "uuid", id)
	return id, nil
}

// Field is a scalar metadata field addressable by key.
type Field struct {
	Key string
	Get func(*Package) string
	Set func(*Package, string) error
}

// Fields lists the scalar metadata fields in display order.
var Fields = []Field{
	{"title", (*Package).Title, (*Package).SetTitle},
	{"language", (*Package).Language, (*Package).SetLanguage},
	{"publisher", (*Package).Publisher, (*Package).SetPublisher},
	{"copyright", (*Package).Copyright, (*Package).SetCopyright},
	{"description", (*Package).Description, (*Package).SetDescription},
	{"series", (*Package).Series, (*Package).SetSeries},
	{"series_index", (*Package).SeriesIndex, (*Package).SetSeriesIndex},
	{"isbn", (*Package).ISBN, (*Package).SetISBN},
	{"uri", (*Package).URI, (*Package).SetURI},
	{"google", (*Package).Google, (*Package).SetGoogle},
	{"amazon", (*Package).Amazon, (*Package).SetAmazon},
	{"calibre", (*Package).Calibre, (*Package).SetCalibre},
	{"creation_date", (*Package).CreationDate, (*Package).SetCreationDate},
	{"modification_date", (*Package).ModificationDate, (*Package).SetModificationDate},
	{"uuid", func(p *Package) string { v, _ := p.UUID(); return v }, (*Package).SetUUID},
}

// FieldByKey looks up a scalar field.
func FieldByKey(key string) (Field, bool) {
	for _, f := range Fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}
