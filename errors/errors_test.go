package errors

import (
	"fmt"
	"testing"
)

func TestNigError(t *testing.T) {
	// Test basic error creation
	err := New(ErrCodeResourceCreation, "Study creation failed")
	if err.Code != ErrCodeResourceCreation {
		t.Errorf("expected code %s, got %s", ErrCodeResourceCreation, err.Code)
	}

	// Test error wrapping
	cause := fmt.Errorf("connection reset")
	wrapped := Wrap(cause, ErrCodeNetwork, "request failed")

	if wrapped.Unwrap() != cause {
		t.Error("Unwrap should return the cause")
	}

	// Test Is function
	if !Is(wrapped, ErrCodeNetwork) {
		t.Error("Is should return true for matching code")
	}

	if Is(wrapped, ErrCodeUpload) {
		t.Error("Is should return false for non-matching code")
	}

	// Is and GetCode see through fmt wrapping
	outer := fmt.Errorf("study foo: %w", wrapped)
	if GetCode(outer) != ErrCodeNetwork {
		t.Errorf("expected code %s, got %s", ErrCodeNetwork, GetCode(outer))
	}
	if got, ok := As(outer); !ok || got != wrapped {
		t.Error("As should find the wrapped NigError")
	}

	// Test WithDetail
	detailed := err.WithDetail("study", "s1")
	if detailed.Details["study"] != "s1" {
		t.Error("WithDetail should add details")
	}
}

func TestResponseMessage(t *testing.T) {
	err := Response(ErrCodeUploadInit, "Can't start the upload", 500, "boom")
	want := "UPLOAD_INIT: Can't start the upload. Code: 500, response: boom"
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
	if err.Details["status"] != 500 {
		t.Error("Response should include status detail")
	}
}

func TestErrorConstructors(t *testing.T) {
	err := CertificateNotFound("/tmp/cert.pfx")
	if err.Code != ErrCodeCertificateNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeCertificateNotFound, err.Code)
	}
	if err.Details["path"] != "/tmp/cert.pfx" {
		t.Error("CertificateNotFound should include path detail")
	}

	err = IPChanged("1.1.1.1", "2.2.2.2", fmt.Errorf("timeout"))
	if err.Code != ErrCodeIPChanged {
		t.Errorf("expected code %s, got %s", ErrCodeIPChanged, err.Code)
	}
	if err.Details["to"] != "2.2.2.2" {
		t.Error("IPChanged should include the new address")
	}

	err = Aborted("study1")
	if !Is(err, ErrCodeAborted) {
		t.Error("Aborted should carry the ABORTED code")
	}
}
