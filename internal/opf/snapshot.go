package opf

import (
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Snapshot returns all scalar fields, authors, subjects and the cover
// pointer as a JSON object.
func (p *Package) Snapshot() ([]byte, error) {
	out := []byte("{}")
	var err error

	for _, f := range Fields {
		if out, err = sjson.SetBytes(out, f.Key, f.Get(p)); err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", f.Key, err)
		}
	}

	authors := make([]map[string]string, 0)
	for _, a := range p.Authors() {
		authors = append(authors, map[string]string{"file_as": a.FileAs, "name": a.Name})
	}
	if out, err = sjson.SetBytes(out, "authors", authors); err != nil {
		return nil, fmt.Errorf("failed to encode authors: %w", err)
	}
	if out, err = sjson.SetBytes(out, "subjects", p.Subjects()); err != nil {
		return nil, fmt.Errorf("failed to encode subjects: %w", err)
	}

	if cover, ok := p.CoverFile(); ok {
		out, err = sjson.SetBytes(out, "cover", map[string]any{
			"id":     cover.ID,
			"path":   cover.Path,
			"mime":   cover.MIME,
			"exists": cover.Exists,
		})
	} else {
		out, err = sjson.SetBytes(out, "cover", nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode cover: %w", err)
	}
	return out, nil
}

// ApplyPatch applies a JSON object of field values. Keys are those of
// Fields plus "authors" and "subjects"; absent keys are left alone, null or
// "" clears a field. Authors may be given as a comma separated string, an
// array of names, an array of {"file_as", "name"} objects or an object
// mapping sort keys to names. Subjects may be a comma separated string or
// an array. The "cover" key written by Snapshot is ignored.
func (p *Package) ApplyPatch(patch []byte) error {
	if !gjson.ValidBytes(patch) {
		return fmt.Errorf("%w: malformed JSON", ErrInvalidPatch)
	}
	root := gjson.ParseBytes(patch)
	if !root.IsObject() {
		return fmt.Errorf("%w: top level must be an object", ErrInvalidPatch)
	}

	var bad error
	root.ForEach(func(key, _ gjson.Result) bool {
		switch k := key.String(); k {
		case "authors", "subjects", "cover":
		default:
			if _, ok := FieldByKey(k); !ok {
				bad = fmt.Errorf("%w: unknown key %q", ErrInvalidPatch, k)
				return false
			}
		}
		return true
	})
	if bad != nil {
		return bad
	}

	for _, f := range Fields {
		v := root.Get(f.Key)
		if !v.Exists() {
			continue
		}
		if v.IsObject() || v.IsArray() {
			return fmt.Errorf("%w: %s must be a string", ErrInvalidPatch, f.Key)
		}
		if err := f.Set(p, v.String()); err != nil {
			return fmt.Errorf("failed to set %s: %w", f.Key, err)
		}
	}

	if v := root.Get("authors"); v.Exists() {
		if err := p.SetAuthors(patchAuthors(v)); err != nil {
			return fmt.Errorf("failed to set authors: %w", err)
		}
	}

	if v := root.Get("subjects"); v.Exists() {
		var subjects []string
		switch {
		case v.IsArray():
			for _, s := range v.Array() {
				subjects = append(subjects, s.String())
			}
		case v.IsObject():
			return fmt.Errorf("%w: subjects must be a string or an array", ErrInvalidPatch)
		default:
			subjects = SplitList(v.String())
		}
		if err := p.SetSubjects(subjects); err != nil {
			return fmt.Errorf("failed to set subjects: %w", err)
		}
	}
	return nil
}

func patchAuthors(v gjson.Result) []Author {
	var authors []Author
	switch {
	case v.IsArray():
		for _, a := range v.Array() {
			if a.IsObject() {
				authors = append(authors, Author{
					FileAs: a.Get("file_as").String(),
					Name:   a.Get("name").String(),
				})
				continue
			}
			authors = append(authors, Author{FileAs: a.String(), Name: a.String()})
		}
	case v.IsObject():
		v.ForEach(func(key, value gjson.Result) bool {
			authors = append(authors, Author{FileAs: key.String(), Name: value.String()})
			return true
		})
	default:
		for _, name := range SplitList(v.String()) {
			authors = append(authors, Author{FileAs: name, Name: name})
		}
	}
	return authors
}
