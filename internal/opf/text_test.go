package opf

import "testing"

func TestDescriptionText(t *testing.T) {
	p, _ := newTestPackage(t)

	if got := p.DescriptionText(); got != "" {
		t.Errorf("DescriptionText() = %q, want empty", got)
	}

	if err := p.SetDescription("<p>A <b>tragic</b>\n   love story.</p><p>In five acts.</p>"); err != nil {
		t.Fatalf("SetDescription() failed: %v", err)
	}
	if got, want := p.DescriptionText(), "A tragic love story.In five acts."; got != want {
		t.Errorf("DescriptionText() = %q, want %q", got, want)
	}

	if err := p.SetDescription("Plain & simple"); err != nil {
		t.Fatalf("SetDescription() failed: %v", err)
	}
	if got := p.DescriptionText(); got != "Plain & simple" {
		t.Errorf("DescriptionText() = %q, want %q", got, "Plain & simple")
	}
}

func TestLanguage(t *testing.T) {
	p, _ := newTestPackage(t)

	tag, err := p.LanguageTag()
	if err != nil {
		t.Fatalf("LanguageTag() failed: %v", err)
	}
	if tag.String() != "en" {
		t.Errorf("LanguageTag() = %q, want %q", tag.String(), "en")
	}
	if got := p.LanguageName(); got != "English" {
		t.Errorf("LanguageName() = %q, want %q", got, "English")
	}

	if err := p.SetLanguage("ja"); err != nil {
		t.Fatalf("SetLanguage() failed: %v", err)
	}
	if got := p.LanguageName(); got != "日本語" {
		t.Errorf("LanguageName() = %q, want %q", got, "日本語")
	}

	if err := p.SetLanguage("not a language"); err != nil {
		t.Fatalf("SetLanguage() failed: %v", err)
	}
	if _, err := p.LanguageTag(); err == nil {
		t.Error("LanguageTag() should fail for an invalid tag")
	}
	if got := p.LanguageName(); got != "not a language" {
		t.Errorf("LanguageName() = %q, want raw value", got)
	}
}
