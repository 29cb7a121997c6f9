package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("row lock timeout")
	err := Wrap(CodeConflict, cause, "rebalance cart")

	if err.Code() != CodeConflict {
		t.Fatalf("unexpected code %s", err.Code())
	}
	if !stdErrors.Is(err, cause) {
		t.Fatal("expected wrapped cause to survive errors.Is")
	}
}

func TestAsUnwrapsNestedError(t *testing.T) {
	inner := New(CodeValidation, "quantity out of range")
	outer := fmt.Errorf("upsert line: %w", inner)

	typed := As(outer)
	if typed == nil {
		t.Fatal("expected typed error")
	}
	if typed.Code() != CodeValidation {
		t.Fatalf("unexpected code %s", typed.Code())
	}
}

func TestFieldErrors(t *testing.T) {
	fields := FieldErrors{}
	fields.Add("pack_quantity", "must fall within the selected tier range")
	fields.Add("pack_quantity", "must be positive")
	fields.Add("pricing_tier", "does not belong to the item's variant")

	err := NewFieldErrors(CodeValidation, fields)
	if !err.Fields().HasErrors() {
		t.Fatal("expected field errors")
	}
	if got := len(err.Fields()["pack_quantity"]); got != 2 {
		t.Fatalf("expected 2 quantity messages, got %d", got)
	}
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeMissingPricingData, "no price row"))
	if !HasCode(err, CodeMissingPricingData) {
		t.Fatal("expected HasCode to match through wrapping")
	}
	if HasCode(err, CodeConflict) {
		t.Fatal("unexpected code match")
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor(Code("SOMETHING_ELSE"))
	if meta.HTTPStatus != MetadataFor(CodeInternal).HTTPStatus {
		t.Fatalf("unexpected metadata %+v", meta)
	}
}
