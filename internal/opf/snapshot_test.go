package opf

import (
	"errors"
	"reflect"
	"testing"

	"github.com/tidwall/gjson"
)

func TestSnapshot(t *testing.T) {
	p, _ := newTestPackage(t)

	out, err := p.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot() failed: %v", err)
	}
	if !gjson.ValidBytes(out) {
		t.Fatalf("Snapshot() is not valid JSON: %s", out)
	}

	checks := map[string]string{
		"title":             "Romeo and Juliet",
		"language":          "en",
		"isbn":              "9780000000001",
		"series":            "Tragedies",
		"creation_date":     "2008-01-01",
		"uuid":              "urn:uuid:0a2b3c4d-1111-2222-3333-444455556666",
		"authors.0.file_as": "Shakespeare, William",
		"authors.0.name":    "William Shakespeare",
		"subjects.2":        "Romance",
		"cover.id":          "book-cover",
		"cover.path":        "OPS/images/cover.png",
	}
	for path, want := range checks {
		if got := gjson.GetBytes(out, path).String(); got != want {
			t.Errorf("%s = %q, want %q", path, got, want)
		}
	}
	if got := gjson.GetBytes(out, "copyright"); !got.Exists() || got.String() != "" {
		t.Errorf("copyright = %v, want empty string", got)
	}
	if !gjson.GetBytes(out, "cover.exists").Bool() {
		t.Error("cover.exists = false, want true")
	}
}

func TestApplyPatch(t *testing.T) {
	p, _ := newTestPackage(t)

	patch := `{
  "title": "Hamlet",
  "isbn": null,
  "series_index": "2",
  "authors": {"Shakespeare, William": "William Shakespeare", "Doe, John": "John Doe"},
  "subjects": "Tragedy, Drama"
}`
	if err := p.ApplyPatch([]byte(patch)); err != nil {
		t.Fatalf("ApplyPatch() failed: %v", err)
	}

	if p.Title() != "Hamlet" {
		t.Errorf("Title() = %q, want %q", p.Title(), "Hamlet")
	}
	if p.ISBN() != "" {
		t.Errorf("ISBN() = %q, want empty", p.ISBN())
	}
	if p.SeriesIndex() != "2" {
		t.Errorf("SeriesIndex() = %q, want %q", p.SeriesIndex(), "2")
	}
	if p.Publisher() != "Feedbooks" {
		t.Errorf("Publisher() = %q, absent keys must be left alone", p.Publisher())
	}
	wantAuthors := []Author{{"Shakespeare, William", "William Shakespeare"}, {"Doe, John", "John Doe"}}
	if got := p.Authors(); !reflect.DeepEqual(got, wantAuthors) {
		t.Errorf("Authors() = %v, want %v", got, wantAuthors)
	}
	if got := p.Subjects(); !reflect.DeepEqual(got, []string{"Tragedy", "Drama"}) {
		t.Errorf("Subjects() = %v", got)
	}
}

func TestApplyPatch_AuthorShapes(t *testing.T) {
	tests := []struct {
		name  string
		patch string
		want  []Author
	}{
		{"string", `{"authors": "John Doe, Jane Smith"}`, []Author{{"John Doe", "John Doe"}, {"Jane Smith", "Jane Smith"}}},
		{"names", `{"authors": ["John Doe"]}`, []Author{{"John Doe", "John Doe"}}},
		{"objects", `{"authors": [{"file_as": "Doe, John", "name": "John Doe"}]}`, []Author{{"Doe, John", "John Doe"}}},
		{"mapping", `{"authors": {"Doe, John": "John Doe"}}`, []Author{{"Doe, John", "John Doe"}}},
		{"clear", `{"authors": ""}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := newTestPackage(t)
			if err := p.ApplyPatch([]byte(tt.patch)); err != nil {
				t.Fatalf("ApplyPatch() failed: %v", err)
			}
			if got := p.Authors(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Authors() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApplyPatch_Invalid(t *testing.T) {
	tests := []string{
		`not json`,
		`["title"]`,
		`{"bogus": "x"}`,
		`{"title": {"nested": true}}`,
		`{"subjects": {"a": "b"}}`,
	}
	for _, patch := range tests {
		p, _ := newTestPackage(t)
		if err := p.ApplyPatch([]byte(patch)); !errors.Is(err, ErrInvalidPatch) {
			t.Errorf("ApplyPatch(%s) error = %v, want ErrInvalidPatch", patch, err)
		}
		if p.Title() != "Romeo and Juliet" {
			t.Errorf("ApplyPatch(%s) changed the title", patch)
		}
	}
}

func TestSnapshot_RoundTrip(t *testing.T) {
	src, _ := newTestPackage(t)
	if err := src.SetTitle("Macbeth"); err != nil {
		t.Fatalf("SetTitle() failed: %v", err)
	}
	if err := src.SetSubjects([]string{"Tragedy"}); err != nil {
		t.Fatalf("SetSubjects() failed: %v", err)
	}
	snap, err := src.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot() failed: %v", err)
	}

	dst, _ := newTestPackage(t)
	if err := dst.ApplyPatch(snap); err != nil {
		t.Fatalf("ApplyPatch() failed: %v", err)
	}
	again, err := dst.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot() failed: %v", err)
	}
	if gjson.GetBytes(again, "title").String() != "Macbeth" {
		t.Errorf("title = %q after round trip", gjson.GetBytes(again, "title").String())
	}
	if !reflect.DeepEqual(dst.Subjects(), []string{"Tragedy"}) {
		t.Errorf("Subjects() = %v after round trip", dst.Subjects())
	}
}
