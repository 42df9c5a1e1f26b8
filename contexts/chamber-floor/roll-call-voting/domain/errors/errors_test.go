package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindSentinelMatchesCodedErrors(t *testing.T) {
	if !errors.Is(ErrQuorumNotMet, ErrPreconditionFailed) {
		t.Fatalf("expected quorum error to match precondition kind")
	}
	if errors.Is(ErrQuorumNotMet, ErrConflict) {
		t.Fatalf("quorum error must not match conflict kind")
	}
	if errors.Is(ErrQuorumNotMet, ErrSessionNotStarted) {
		t.Fatalf("coded errors of the same kind must not match each other")
	}
}

func TestWithCopiesMetadata(t *testing.T) {
	first := ErrInitiativeAlreadyOpen.With("open_initiative_id", "a")
	second := first.With("open_initiative_number", "1")

	if len(ErrInitiativeAlreadyOpen.Metadata) != 0 {
		t.Fatalf("sentinel metadata must stay empty, got %v", ErrInitiativeAlreadyOpen.Metadata)
	}
	if len(first.Metadata) != 1 {
		t.Fatalf("expected one entry on first copy, got %v", first.Metadata)
	}
	if second.Metadata["open_initiative_id"] != "a" || second.Metadata["open_initiative_number"] != "1" {
		t.Fatalf("expected both entries, got %v", second.Metadata)
	}
	if !errors.Is(second, ErrInitiativeAlreadyOpen) {
		t.Fatalf("copy must still match its sentinel")
	}
}

func TestKindOfAndMetadataOfUnwrap(t *testing.T) {
	wrapped := fmt.Errorf("activate: %w", ErrQuorumNotMet.With("shortfall", "2"))
	if KindOf(wrapped) != KindPreconditionFailed {
		t.Fatalf("expected precondition kind, got %q", KindOf(wrapped))
	}
	if MetadataOf(wrapped)["shortfall"] != "2" {
		t.Fatalf("expected shortfall metadata through wrapping")
	}
	if KindOf(errors.New("boom")) != "" {
		t.Fatalf("plain errors have no kind")
	}
	if MetadataOf(errors.New("boom")) != nil {
		t.Fatalf("plain errors have no metadata")
	}
}
