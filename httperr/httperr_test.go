package httperr

import (
	"net/http"
	"testing"
)

func TestStatusOfDomainError(t *testing.T) {
	err := NotFound("/nope")
	if StatusOf(err) != http.StatusNotFound {
		t.Fatalf("StatusOf() = %d; want 404", StatusOf(err))
	}
}

func TestStatusOfUnknownErrorDefaultsInternal(t *testing.T) {
	err := &struct{ error }{}
	if StatusOf(err) != http.StatusInternalServerError {
		t.Fatalf("StatusOf() = %d; want 500", StatusOf(err))
	}
}

func TestErrorMessageIncludesReason(t *testing.T) {
	err := BadRequest("missing Content-Length")
	want := "Bad Request: missing Content-Length"
	if err.Error() != want {
		t.Fatalf("Error() = %q; want %q", err.Error(), want)
	}
}
