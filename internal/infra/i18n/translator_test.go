//go:build !integration

package i18n

import (
	"testing"
)

func TestTranslator(t *testing.T) {
	contentBytes := []byte("greeting: hello\nwelcome_user: hello %s\nevents_count: \"you have %d events\"")

	// Use the internal constructor so the test does not depend on the
	// embedded production catalog.
	translator, err := newTranslatorFromBytes(contentBytes)
	if err != nil {
		t.Fatalf("newTranslatorFromBytes failed: %v", err)
	}

	t.Run("should translate a simple key", func(t *testing.T) {
		got := translator.T("greeting")
		want := "hello"
		if got != want {
			t.Errorf("wanted '%s', got '%s'", want, got)
		}
	})

	t.Run("should return key if not found", func(t *testing.T) {
		got := translator.T("nonexistent_key")
		want := "nonexistent_key"
		if got != want {
			t.Errorf("wanted '%s', got '%s'", want, got)
		}
	})

	t.Run("should format arguments correctly", func(t *testing.T) {
		got := translator.T("welcome_user", "Ali")
		want := "hello Ali"
		if got != want {
			t.Errorf("wanted '%s', got '%s'", want, got)
		}
	})

	t.Run("should format numeric arguments", func(t *testing.T) {
		got := translator.T("events_count", 3)
		want := "you have 3 events"
		if got != want {
			t.Errorf("wanted '%s', got '%s'", want, got)
		}
	})
}

func TestTranslatorEmbeddedCatalog(t *testing.T) {
	translator, err := NewTranslator(LocalesFS, "en")
	if err != nil {
		t.Fatalf("NewTranslator failed on the embedded catalog: %v", err)
	}
	if got := translator.T("extract_failed"); got == "extract_failed" {
		t.Error("expected extract_failed to resolve from the embedded catalog")
	}
	if translator.Policy() == "" {
		t.Error("expected a non-empty policy text")
	}
}
