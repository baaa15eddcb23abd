package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestFormatErrorUnwrapsToSentinel(t *testing.T) {
	err := &FormatError{Raw: "not json", Reason: "invalid JSON"}
	if !errors.Is(err, ErrFormat) {
		t.Error("FormatError should unwrap to ErrFormat")
	}
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatal("errors.As failed for *FormatError")
	}
	if fe.Raw != "not json" {
		t.Errorf("Raw = %q, want %q", fe.Raw, "not json")
	}
}

func TestFormatErrorThroughWrapping(t *testing.T) {
	inner := &FormatError{Raw: "garbage", Reason: "schema mismatch"}
	err := fmt.Errorf("plan queries: %w", inner)

	if !errors.Is(err, ErrFormat) {
		t.Error("wrapped FormatError should still match ErrFormat")
	}
	var fe *FormatError
	if !errors.As(err, &fe) || fe.Raw != "garbage" {
		t.Error("wrapped FormatError should surface via errors.As with Raw intact")
	}
}

func TestStageError(t *testing.T) {
	err := WrapStage("search", ErrSearchTimeout)
	if !errors.Is(err, ErrSearchTimeout) {
		t.Error("StageError should unwrap to the inner error")
	}
	if !strings.HasPrefix(err.Error(), "search: ") {
		t.Errorf("Error() = %q, want stage prefix", err.Error())
	}
}

func TestWrapStageNil(t *testing.T) {
	if WrapStage("plan", nil) != nil {
		t.Error("WrapStage(nil) should return nil")
	}
}
