package i18n

import (
	"strings"
	"testing"
)

func TestTextKnownKeyAllLanguages(t *testing.T) {
	for _, lang := range Languages() {
		if got := Text("Welcome", lang); got == "" || got == "Welcome" {
			t.Fatalf("lang %s: Welcome not translated: %q", lang, got)
		}
	}
}

func TestTextUnknownLanguageFallsBack(t *testing.T) {
	want := Text("Welcome", Fallback)
	if got := Text("Welcome", "de"); got != want {
		t.Fatalf("fallback mismatch: %q != %q", got, want)
	}
	if got := Text("Welcome", ""); got != want {
		t.Fatalf("empty lang must fall back: %q", got)
	}
}

func TestTextMissingKeyEchoesKey(t *testing.T) {
	if got := Text("NoSuchKey", "ru"); got != "NoSuchKey" {
		t.Fatalf("missing key: %q", got)
	}
}

func TestTextFormatsArgs(t *testing.T) {
	got := Text("SelectRole", "ru", int64(123))
	if got == "SelectRole" {
		t.Fatal("key missing from catalog")
	}
	if !strings.Contains(got, "123") {
		t.Fatalf("argument not substituted: %q", got)
	}
}
