package opf

import (
	"reflect"
	"strings"
	"testing"
)

func TestAuthors(t *testing.T) {
	p, _ := newTestPackage(t)

	want := []Author{{FileAs: "Shakespeare, William", Name: "William Shakespeare"}}
	if got := p.Authors(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Authors() = %v, want %v", got, want)
	}

	tests := []struct {
		name string
		set  func() error
		want []Author
	}{
		{
			name: "clear with string",
			set:  func() error { return p.SetAuthorsString("") },
			want: nil,
		},
		{
			name: "single string",
			set:  func() error { return p.SetAuthorsString("John Doe") },
			want: []Author{{"John Doe", "John Doe"}},
		},
		{
			name: "single name",
			set:  func() error { return p.SetAuthorNames([]string{"John Doe"}) },
			want: []Author{{"John Doe", "John Doe"}},
		},
		{
			name: "clear with list",
			set:  func() error { return p.SetAuthors(nil) },
			want: nil,
		},
		{
			name: "single with sort key",
			set:  func() error { return p.SetAuthors([]Author{{"Doe, John", "John Doe"}}) },
			want: []Author{{"Doe, John", "John Doe"}},
		},
		{
			name: "multiple by string",
			set:  func() error { return p.SetAuthorsString("John Doe, Jane Smith") },
			want: []Author{{"John Doe", "John Doe"}, {"Jane Smith", "Jane Smith"}},
		},
		{
			name: "multiple by names",
			set:  func() error { return p.SetAuthorNames([]string{"John Doe", "Jane Smith"}) },
			want: []Author{{"John Doe", "John Doe"}, {"Jane Smith", "Jane Smith"}},
		},
		{
			name: "multiple with sort keys",
			set: func() error {
				return p.SetAuthors([]Author{{"Doe, John", "John Doe"}, {"Smith, Jane", "Jane Smith"}})
			},
			want: []Author{{"Doe, John", "John Doe"}, {"Smith, Jane", "Jane Smith"}},
		},
		{
			name: "escaping",
			set:  func() error { return p.SetAuthors([]Author{{"Doe, John&nbsp;", "John Doe&nbsp;"}}) },
			want: []Author{{"Doe, John&nbsp;", "John Doe&nbsp;"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.set(); err != nil {
				t.Fatalf("set failed: %v", err)
			}
			if got := p.Authors(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Authors() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAuthors_WrittenAttributes(t *testing.T) {
	p, _ := newTestPackage(t)

	if err := p.SetAuthors([]Author{{"Doe, John", "John Doe"}}); err != nil {
		t.Fatalf("SetAuthors() failed: %v", err)
	}
	out := serialized(t, p)
	if !strings.Contains(out, `<dc:creator opf:role="aut" opf:file-as="Doe, John">John Doe</dc:creator>`) {
		t.Errorf("creator not written as expected:\n%s", out)
	}
	if strings.Contains(out, "Shakespeare") {
		t.Errorf("previous author not removed:\n%s", out)
	}
}

func TestAuthors_KeepsOtherCreators(t *testing.T) {
	p := loadPackageDoc(t, `<package xmlns="http://www.idpf.org/2007/opf" version="2.0">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:opf="http://www.idpf.org/2007/opf">
    <dc:creator opf:role="aut">Old Author</dc:creator>
    <dc:creator opf:role="ill">An Illustrator</dc:creator>
  </metadata>
</package>`)

	if err := p.SetAuthorsString("New Author"); err != nil {
		t.Fatalf("SetAuthorsString() failed: %v", err)
	}
	if n := countNodes(t, p, `//opf:metadata/dc:creator[@opf:role="ill"]`); n != 1 {
		t.Errorf("illustrators = %d, want 1", n)
	}
	want := []Author{{"New Author", "New Author"}}
	if got := p.Authors(); !reflect.DeepEqual(got, want) {
		t.Errorf("Authors() = %v, want %v", got, want)
	}
}

func TestAuthors_RepairOnRead(t *testing.T) {
	p := loadPackageDoc(t, `<package xmlns="http://www.idpf.org/2007/opf" version="2.0">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:creator>Jane Doe</dc:creator>
    <dc:creator xmlns:opf="http://www.idpf.org/2007/opf" opf:file-as="Roe, Rick">Rick Roe</dc:creator>
  </metadata>
</package>`)

	want := []Author{{"Jane Doe", "Jane Doe"}, {"Roe, Rick", "Rick Roe"}}
	if got := p.Authors(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Authors() = %v, want %v", got, want)
	}

	if n := countNodes(t, p, `//opf:metadata/dc:creator[@opf:role="aut"]`); n != 2 {
		t.Errorf("creators with author role = %d, want 2", n)
	}
	if n := countNodes(t, p, `//opf:metadata/dc:creator[@opf:file-as="Jane Doe"]`); n != 1 {
		t.Errorf("file-as not stamped on legacy creator")
	}

	// a second read takes the regular path and sees the same authors
	if got := p.Authors(); !reflect.DeepEqual(got, want) {
		t.Errorf("Authors() second read = %v, want %v", got, want)
	}
}

func TestAuthors_DuplicateKey(t *testing.T) {
	p := loadPackageDoc(t, `<package xmlns="http://www.idpf.org/2007/opf" version="2.0">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:opf="http://www.idpf.org/2007/opf">
    <dc:creator opf:role="aut" opf:file-as="Doe">John Doe</dc:creator>
    <dc:creator opf:role="aut" opf:file-as="Smith">Jane Smith</dc:creator>
    <dc:creator opf:role="aut" opf:file-as="Doe">Johnny Doe</dc:creator>
  </metadata>
</package>`)

	want := []Author{{"Doe", "Johnny Doe"}, {"Smith", "Jane Smith"}}
	if got := p.Authors(); !reflect.DeepEqual(got, want) {
		t.Errorf("Authors() = %v, want %v", got, want)
	}
}

func TestSubjects(t *testing.T) {
	p, _ := newTestPackage(t)

	want := []string{"Fiction", "Drama", "Romance"}
	if got := p.Subjects(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Subjects() = %v, want %v", got, want)
	}

	tests := []struct {
		name string
		set  func() error
		want []string
	}{
		{"clear with string", func() error { return p.SetSubjectsString("") }, []string{}},
		{"string", func() error { return p.SetSubjectsString("Fiction, Drama, Romance") }, want},
		{"clear with list", func() error { return p.SetSubjects(nil) }, []string{}},
		{"list", func() error { return p.SetSubjects(want) }, want},
		{"escaping", func() error { return p.SetSubjects([]string{"Fiction", "Drama&nbsp;", "Romance"}) },
			[]string{"Fiction", "Drama&nbsp;", "Romance"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.set(); err != nil {
				t.Fatalf("set failed: %v", err)
			}
			if got := p.Subjects(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Subjects() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"one", []string{"one"}},
		{" a , b,,c ", []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		if got := SplitList(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SplitList(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
