package validate_test

import (
	"testing"

	"picvault/internal/config"
	"picvault/internal/testsupport"
	"picvault/internal/validate"
)

func newValidator(mutate func(*config.Validation)) *validate.Validator {
	cfg := config.Default().Validation
	if mutate != nil {
		mutate(&cfg)
	}
	return validate.New(cfg)
}

func rejectionReason(t *testing.T, err error) validate.Reason {
	t.Helper()
	rej, ok := validate.AsRejection(err)
	if !ok {
		t.Fatalf("expected a rejection, got %v", err)
	}
	return rej.Reason
}

func TestValidateAcceptsPNGAndJPEG(t *testing.T) {
	v := newValidator(nil)

	res, err := v.Validate(testsupport.PNGBytes(t, 32, 24), "photo.png", "image/png")
	if err != nil {
		t.Fatalf("validate png: %v", err)
	}
	if res.Format != "png" || res.Width != 32 || res.Height != 24 {
		t.Fatalf("unexpected png result: %+v", res)
	}

	res, err = v.Validate(testsupport.JPEGBytes(t, 40, 40), "photo.jpeg", "image/jpeg")
	if err != nil {
		t.Fatalf("validate jpeg: %v", err)
	}
	if res.Format != "jpeg" {
		t.Fatalf("unexpected jpeg format: %q", res.Format)
	}
}

func TestValidateRejectsExtensionBeforeContent(t *testing.T) {
	v := newValidator(nil)

	// Payload is a perfectly valid PNG; the name alone rejects it.
	_, err := v.Validate(testsupport.PNGBytes(t, 8, 8), "photo.gif", "image/png")
	if got := rejectionReason(t, err); got != validate.ReasonUnsupportedExtension {
		t.Fatalf("expected unsupported_extension, got %s", got)
	}

	_, err = v.Validate(testsupport.PNGBytes(t, 8, 8), "noext", "image/png")
	if got := rejectionReason(t, err); got != validate.ReasonUnsupportedExtension {
		t.Fatalf("expected unsupported_extension for bare name, got %s", got)
	}
}

func TestValidateRejectsMIMEType(t *testing.T) {
	v := newValidator(nil)

	_, err := v.Validate(testsupport.PNGBytes(t, 8, 8), "photo.png", "image/gif")
	if got := rejectionReason(t, err); got != validate.ReasonUnsupportedMIMEType {
		t.Fatalf("expected unsupported_mime_type, got %s", got)
	}
}

func TestValidateSniffsWhenMIMEMissing(t *testing.T) {
	v := newValidator(nil)

	if _, err := v.Validate(testsupport.PNGBytes(t, 8, 8), "photo.png", ""); err != nil {
		t.Fatalf("expected sniffed type to pass, got %v", err)
	}
}

func TestValidateRejectsSignatureMismatch(t *testing.T) {
	v := newValidator(nil)

	// JPEG bytes wearing a PNG name and declared type.
	_, err := v.Validate(testsupport.JPEGBytes(t, 8, 8), "photo.png", "image/png")
	if got := rejectionReason(t, err); got != validate.ReasonSignatureMismatch {
		t.Fatalf("expected signature_mismatch, got %s", got)
	}
}

func TestValidateRejectsUndecodablePayload(t *testing.T) {
	v := newValidator(nil)

	// Correct PNG magic followed by garbage.
	payload := append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}, []byte("not a real png body")...)
	_, err := v.Validate(payload, "photo.png", "image/png")
	if got := rejectionReason(t, err); got != validate.ReasonDecodeError {
		t.Fatalf("expected decode_error, got %s", got)
	}
}

func TestValidateBombGuardAbsoluteCeiling(t *testing.T) {
	v := newValidator(func(cfg *config.Validation) {
		cfg.MaxPixels = 100
	})

	_, err := v.Validate(testsupport.PNGBytes(t, 20, 20), "photo.png", "image/png")
	if got := rejectionReason(t, err); got != validate.ReasonBombGuardTripped {
		t.Fatalf("expected bomb_guard_tripped, got %s", got)
	}
}

func TestValidateBombGuardCompressionRatio(t *testing.T) {
	// A large solid-color PNG compresses to very few bytes, so a tight
	// ratio trips before the absolute ceiling does.
	v := newValidator(func(cfg *config.Validation) {
		cfg.MaxPixelRatio = 2
	})

	_, err := v.Validate(testsupport.PNGBytes(t, 600, 600), "photo.png", "image/png")
	if got := rejectionReason(t, err); got != validate.ReasonBombGuardTripped {
		t.Fatalf("expected bomb_guard_tripped, got %s", got)
	}
}

func TestAsRejectionPassesThroughOtherErrors(t *testing.T) {
	if _, ok := validate.AsRejection(nil); ok {
		t.Fatal("nil error is not a rejection")
	}
}
