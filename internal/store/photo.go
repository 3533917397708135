package store

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/adoptly/adoptly/internal/errs"
)

// MaxPhotoBytes caps the decoded photo size accepted before any upload.
const MaxPhotoBytes = 5 << 20 // 5 MiB

// EncodePhoto validates raw image bytes (sniffed MIME must be image/*, size
// within the cap) and encodes them as a base64 data URL ready for JSON
// transport. Validation happens before the backend is ever contacted.
func EncodePhoto(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty photo", errs.ErrValidation)
	}
	if len(data) > MaxPhotoBytes {
		return "", fmt.Errorf("%w: photo exceeds %d bytes", errs.ErrValidation, MaxPhotoBytes)
	}
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return "", fmt.Errorf("%w: unsupported photo type %s", errs.ErrValidation, mime)
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// ValidatePhotoDataURL checks an already encoded photo against the same
// contract: an image/* data URL whose decoded payload fits the cap.
func ValidatePhotoDataURL(s string) error {
	rest, found := strings.CutPrefix(s, "data:image/")
	if !found {
		return fmt.Errorf("%w: photo must be an image data URL", errs.ErrValidation)
	}
	_, b64, found := strings.Cut(rest, ";base64,")
	if !found {
		return fmt.Errorf("%w: photo must be base64 encoded", errs.ErrValidation)
	}
	// decoded size is ~3/4 of the encoded length; avoid decoding the blob
	if len(b64)/4*3 > MaxPhotoBytes {
		return fmt.Errorf("%w: photo exceeds %d bytes", errs.ErrValidation, MaxPhotoBytes)
	}
	return nil
}
