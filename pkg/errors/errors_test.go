package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		code      Code
		status    int
		retryable bool
	}{
		{CodeValidation, http.StatusBadRequest, false},
		{CodeGuardRejected, http.StatusUnprocessableEntity, false},
		{CodeBusy, http.StatusConflict, true},
		{CodeUnauthorized, http.StatusUnauthorized, false},
		{CodeNotFound, http.StatusNotFound, false},
		{CodeDependency, http.StatusServiceUnavailable, true},
	}
	for _, tc := range cases {
		meta := MetadataFor(tc.code)
		if meta.HTTPStatus != tc.status {
			t.Errorf("%s: expected status %d, got %d", tc.code, tc.status, meta.HTTPStatus)
		}
		if meta.Retryable != tc.retryable {
			t.Errorf("%s: expected retryable=%v", tc.code, tc.retryable)
		}
	}
}

func TestMetadataForUnknownCodeFallsBack(t *testing.T) {
	t.Parallel()

	meta := MetadataFor(Code("NOPE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal fallback, got %d", meta.HTTPStatus)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	t.Parallel()

	cause := stdErrors.New("disk full")
	err := Wrap(CodeDependency, cause, "persist cart")

	if !stdErrors.Is(err, cause) {
		t.Fatal("expected cause reachable via errors.Is")
	}
	if err.Code() != CodeDependency {
		t.Fatalf("unexpected code %s", err.Code())
	}
}

func TestAsFindsNestedTypedError(t *testing.T) {
	t.Parallel()

	inner := New(CodeGuardRejected, "cart has no lines")
	wrapped := fmt.Errorf("finalize: %w", inner)

	typed := As(wrapped)
	if typed == nil || typed.Code() != CodeGuardRejected {
		t.Fatalf("expected typed error recovered, got %v", typed)
	}

	if As(stdErrors.New("plain")) != nil {
		t.Fatal("expected nil for untyped error")
	}
}

func TestIsCode(t *testing.T) {
	t.Parallel()

	err := New(CodeBusy, "operation already in progress")
	if !IsCode(err, CodeBusy) {
		t.Fatal("expected IsCode match")
	}
	if IsCode(err, CodeNotFound) {
		t.Fatal("expected IsCode mismatch")
	}
	if IsCode(nil, CodeBusy) {
		t.Fatal("expected false for nil error")
	}
}

func TestWithDetails(t *testing.T) {
	t.Parallel()

	err := New(CodeValidation, "validation failed").WithDetails(map[string]string{"xqty": "must be positive"})
	details, ok := err.Details().(map[string]string)
	if !ok || details["xqty"] != "must be positive" {
		t.Fatalf("unexpected details %+v", err.Details())
	}
}
