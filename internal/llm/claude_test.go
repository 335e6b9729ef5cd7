package llm

import (
	"context"
	"testing"

	"github.com/concalliq/concalliq/internal/config"
)

func TestGenerateWithoutCredentials(t *testing.T) {
	analyst := NewAnalyst(&config.Config{})

	got := analyst.Generate(context.Background(), "Analyse RELIANCE", 900)
	if got == "" {
		t.Fatal("Generate must always return a sendable string")
	}
	if got != Placeholder {
		t.Fatalf("expected placeholder without API key, got %q", got)
	}
}
