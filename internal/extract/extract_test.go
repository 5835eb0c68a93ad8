package extract

import (
	"context"
	"errors"
	"testing"
)

func TestPDFRejectsOtherContent(t *testing.T) {
	_, err := PDF{}.Text(context.Background(), []byte("just some text"))
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestPDFReportsUnreadableDocument(t *testing.T) {
	_, err := PDF{}.Text(context.Background(), []byte("%PDF-1.4\ngarbage without xref"))
	if !errors.Is(err, ErrNoText) {
		t.Fatalf("expected ErrNoText, got %v", err)
	}
}

func TestPDFHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (PDF{}).Text(ctx, []byte("%PDF-1.4")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNormalize(t *testing.T) {
	got := Normalize("  Jane   Doe \r\n\r\n Go,  SQL \n\n")
	if got != "Jane Doe\nGo, SQL" {
		t.Fatalf("unexpected normalized text %q", got)
	}
}
