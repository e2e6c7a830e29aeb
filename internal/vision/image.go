package vision

import (
	"encoding/base64"
	"errors"
	"strings"
)

// DefaultMIMEType is assumed for bare base64 payloads.
const DefaultMIMEType = "image/jpeg"

// ErrInvalidImage is returned when an image payload cannot be decoded.
var ErrInvalidImage = errors.New("invalid image payload")

// Image is a decoded input image.
type Image struct {
	MIMEType string
	Data     []byte
}

// ParseDataURL decodes "data:<mime>;base64,<payload>" or a bare base64 string.
// The MIME type is not checked against a list of image formats.
func ParseDataURL(s string) (Image, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Image{}, ErrInvalidImage
	}

	mimeType := DefaultMIMEType
	payload := s
	if rest, ok := strings.CutPrefix(s, "data:"); ok {
		meta, data, found := strings.Cut(rest, ",")
		if !found {
			return Image{}, ErrInvalidImage
		}
		params := strings.Split(meta, ";")
		if len(params) < 2 || params[len(params)-1] != "base64" {
			return Image{}, ErrInvalidImage
		}
		if params[0] != "" {
			mimeType = strings.ToLower(params[0])
		}
		payload = data
	}

	data, err := decodeBase64(payload)
	if err != nil || len(data) == 0 {
		return Image{}, ErrInvalidImage
	}
	return Image{MIMEType: mimeType, Data: data}, nil
}

// DataURL re-encodes the image as a base64 data URL.
func (img Image) DataURL() string {
	mimeType := img.MIMEType
	if mimeType == "" {
		mimeType = DefaultMIMEType
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

// decodeBase64 accepts padded and unpadded standard encodings, which is what
// canvas.toDataURL and FileReader produce across browsers.
func decodeBase64(s string) ([]byte, error) {
	if data, err := base64.StdEncoding.DecodeString(s); err == nil {
		return data, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}
