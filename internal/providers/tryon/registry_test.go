package tryon

import (
	"strings"
	"testing"

	"tryon/internal/infra"
)

func TestNewSelectsConfiguredProvider(t *testing.T) {
	cfg := &infra.Config{Provider: "gemini", GeminiAPIKey: "k"}
	g, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if _, ok := g.(*Gemini); !ok {
		t.Fatalf("expected *Gemini, got %T", g)
	}

	cfg = &infra.Config{Provider: "FASHN", FashnAPIKey: "k"}
	g, err = New(cfg, nil)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if _, ok := g.(*Fashn); !ok {
		t.Fatalf("expected *Fashn, got %T", g)
	}
}

func TestNewUnknownProviderFails(t *testing.T) {
	_, err := New(&infra.Config{Provider: "dalle"}, nil)
	if err == nil || !strings.Contains(err.Error(), "unknown provider") {
		t.Fatalf("expected unknown provider error, got %v", err)
	}
}

func TestNewMissingKeyFails(t *testing.T) {
	if _, err := New(&infra.Config{Provider: "gemini"}, nil); err == nil {
		t.Fatalf("expected error for missing gemini key")
	}
	if _, err := New(&infra.Config{Provider: "fashn"}, nil); err == nil {
		t.Fatalf("expected error for missing fashn key")
	}
}
