// Package imaging wraps raw photo bytes in the transport encoding the AI
// services expect: a base64 payload paired with its media type.
package imaging

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
)

// ErrUnreadableImage reports input bytes that cannot be used as a photo.
var ErrUnreadableImage = errors.New("image could not be read")

// EncodedImage is a base64 photo payload plus the media type it decodes to.
// The payload carries no data-URI prefix.
type EncodedImage struct {
	Payload string
	MIME    string
}

var supportedMIMEs = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// Encode wraps raw photo bytes for transport. The media type is sniffed from
// the bytes themselves; the declared type comes from untrusted upload
// metadata, so when the two disagree the sniffed one wins. Pixels are never
// rewritten: decoding the result returns the input byte for byte.
func Encode(data []byte, declaredMIME string) (EncodedImage, error) {
	if len(data) == 0 {
		return EncodedImage{}, fmt.Errorf("%w: empty input", ErrUnreadableImage)
	}
	sniffed := http.DetectContentType(data)
	if !supportedMIMEs[sniffed] {
		if declaredMIME != "" && declaredMIME != sniffed {
			return EncodedImage{}, fmt.Errorf("%w: declared %s but content looks like %s", ErrUnreadableImage, declaredMIME, sniffed)
		}
		return EncodedImage{}, fmt.Errorf("%w: unsupported media type %s", ErrUnreadableImage, sniffed)
	}
	return EncodedImage{
		Payload: base64.StdEncoding.EncodeToString(data),
		MIME:    sniffed,
	}, nil
}

// FromBase64 adopts a payload that is already base64, as returned inline by
// the image services, without re-encoding it.
func FromBase64(payload, mime string) EncodedImage {
	return EncodedImage{Payload: payload, MIME: mime}
}

// Decode returns the original bytes exactly as they were encoded.
func (e EncodedImage) Decode() ([]byte, error) {
	if e.Payload == "" {
		return nil, fmt.Errorf("%w: empty payload", ErrUnreadableImage)
	}
	data, err := base64.StdEncoding.DecodeString(e.Payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableImage, err)
	}
	return data, nil
}

// IsZero reports whether the image carries no payload.
func (e EncodedImage) IsZero() bool {
	return e.Payload == ""
}

// DataURL renders the image as a data: URI for services that take images by
// URL instead of as separate payload fields.
func (e EncodedImage) DataURL() string {
	return "data:" + e.MIME + ";base64," + e.Payload
}

// Ext returns a filename extension matching the image's media type.
func (e EncodedImage) Ext() string {
	switch e.MIME {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".jpg"
	}
}
