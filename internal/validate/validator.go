package validate

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	_ "image/jpeg"
	_ "image/png"

	"picvault/internal/config"
)

// Reason identifies which validation check rejected a payload.
type Reason string

const (
	ReasonUnsupportedExtension Reason = "unsupported_extension"
	ReasonUnsupportedMIMEType  Reason = "unsupported_mime_type"
	ReasonSignatureMismatch    Reason = "signature_mismatch"
	ReasonDecodeError          Reason = "decode_error"
	ReasonBombGuardTripped     Reason = "bomb_guard_tripped"
)

// Rejection is returned when a payload fails validation. Rejections are an
// expected outcome, not a fault: callers record them and respond normally.
type Rejection struct {
	Reason Reason
	Detail string
}

func (r *Rejection) Error() string {
	if r.Detail == "" {
		return string(r.Reason)
	}
	return fmt.Sprintf("%s: %s", r.Reason, r.Detail)
}

// Result describes an accepted payload's intrinsic properties.
type Result struct {
	Format string
	Width  int
	Height int
}

// PixelArea returns the decoded pixel count.
func (r Result) PixelArea() int64 {
	return int64(r.Width) * int64(r.Height)
}

// signatures maps an allowed MIME type to the magic-byte prefixes a genuine
// container of that type may start with.
var signatures = map[string][][]byte{
	"image/jpeg": {{0xFF, 0xD8, 0xFF}},
	"image/png":  {{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}},
}

// Validator applies the configured acceptance policy to raw upload bytes.
type Validator struct {
	extensions    map[string]struct{}
	mimeTypes     map[string]struct{}
	maxPixels     int64
	maxPixelRatio int64
}

// New builds a Validator from validation settings.
func New(cfg config.Validation) *Validator {
	v := &Validator{
		extensions:    make(map[string]struct{}, len(cfg.AllowedExtensions)),
		mimeTypes:     make(map[string]struct{}, len(cfg.AllowedMIMETypes)),
		maxPixels:     cfg.MaxPixels,
		maxPixelRatio: cfg.MaxPixelRatio,
	}
	for _, ext := range cfg.AllowedExtensions {
		v.extensions[strings.ToLower(ext)] = struct{}{}
	}
	for _, mt := range cfg.AllowedMIMETypes {
		v.mimeTypes[strings.ToLower(mt)] = struct{}{}
	}
	return v
}

// Validate classifies data as an acceptable image or returns a *Rejection.
// declaredMIME is the client-supplied content type; when empty the type is
// sniffed from the payload instead.
func (v *Validator) Validate(data []byte, filename, declaredMIME string) (Result, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := v.extensions[ext]; !ok {
		detail := "no extension"
		if ext != "" {
			detail = ext
		}
		return Result{}, &Rejection{Reason: ReasonUnsupportedExtension, Detail: detail}
	}

	mimeType := normalizeMIME(declaredMIME)
	if mimeType == "" {
		mimeType = normalizeMIME(http.DetectContentType(data))
	}
	if _, ok := v.mimeTypes[mimeType]; !ok {
		detail := "unknown"
		if mimeType != "" {
			detail = mimeType
		}
		return Result{}, &Rejection{Reason: ReasonUnsupportedMIMEType, Detail: detail}
	}

	if !matchSignature(mimeType, data) {
		return Result{}, &Rejection{
			Reason: ReasonSignatureMismatch,
			Detail: fmt.Sprintf("leading bytes do not match %s", mimeType),
		}
	}

	header, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Result{}, &Rejection{Reason: ReasonDecodeError, Detail: err.Error()}
	}

	area := int64(header.Width) * int64(header.Height)
	if area > v.maxPixels {
		return Result{}, &Rejection{
			Reason: ReasonBombGuardTripped,
			Detail: fmt.Sprintf("pixel area %d exceeds ceiling %d", area, v.maxPixels),
		}
	}
	if area > v.maxPixelRatio*int64(len(data)) {
		return Result{}, &Rejection{
			Reason: ReasonBombGuardTripped,
			Detail: fmt.Sprintf("pixel area %d exceeds %dx encoded size %d", area, v.maxPixelRatio, len(data)),
		}
	}

	// Full decode catches truncated or corrupt payloads whose headers parse.
	if _, _, err := image.Decode(bytes.NewReader(data)); err != nil {
		return Result{}, &Rejection{Reason: ReasonDecodeError, Detail: err.Error()}
	}

	return Result{Format: format, Width: header.Width, Height: header.Height}, nil
}

func matchSignature(mimeType string, data []byte) bool {
	for _, prefix := range signatures[mimeType] {
		if bytes.HasPrefix(data, prefix) {
			return true
		}
	}
	return false
}

func normalizeMIME(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	parsed, _, err := mime.ParseMediaType(value)
	if err != nil {
		return strings.ToLower(value)
	}
	return strings.ToLower(parsed)
}

// AsRejection unwraps err into a *Rejection when the error represents a
// validation rejection rather than an operational failure.
func AsRejection(err error) (*Rejection, bool) {
	var rej *Rejection
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}
