// Package media turns image values submitted by clients into stored URLs.
package media

import (
	"context"
	"encoding/base64"
	"errors"
	"mime"
	"strings"
)

var (
	ErrInvalidDataURI = errors.New("invalid data uri")
	ErrTooLarge       = errors.New("image is too large")
)

// MaxImageBytes bounds a decoded data URI.
const MaxImageBytes = 5 << 20

// Store persists an image value and returns what should be saved on the
// record. Values that are not data URIs are returned unchanged.
type Store interface {
	Save(ctx context.Context, folder, uri string) (string, error)
}

type DataURI struct {
	MediaType string
	Data      []byte
}

func IsDataURI(s string) bool {
	return strings.HasPrefix(s, "data:")
}

// ParseDataURI decodes data:<mediatype>[;params];base64,<payload>.
func ParseDataURI(uri string) (*DataURI, error) {
	if !IsDataURI(uri) {
		return nil, ErrInvalidDataURI
	}
	header, payload, ok := strings.Cut(uri[len("data:"):], ",")
	if !ok {
		return nil, ErrInvalidDataURI
	}
	params := strings.Split(header, ";")
	if params[len(params)-1] != "base64" {
		return nil, ErrInvalidDataURI
	}
	mediaType := "application/octet-stream"
	if params[0] != "" {
		mt, _, err := mime.ParseMediaType(strings.Join(params[:len(params)-1], ";"))
		if err != nil {
			return nil, ErrInvalidDataURI
		}
		mediaType = mt
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > MaxImageBytes+2 {
		return nil, ErrTooLarge
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, ErrInvalidDataURI
	}
	if len(data) > MaxImageBytes {
		return nil, ErrTooLarge
	}
	return &DataURI{MediaType: mediaType, Data: data}, nil
}

var imageExt = map[string]string{
	"image/png":     ".png",
	"image/jpeg":    ".jpg",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
}

// Ext returns the file extension used for objects of this media type.
func (d *DataURI) Ext() string {
	if ext, ok := imageExt[d.MediaType]; ok {
		return ext
	}
	if exts, _ := mime.ExtensionsByType(d.MediaType); len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}

// Inline keeps data URIs on the record as they were submitted. It still
// rejects malformed ones.
type Inline struct{}

func (Inline) Save(_ context.Context, _ string, uri string) (string, error) {
	if IsDataURI(uri) {
		if _, err := ParseDataURI(uri); err != nil {
			return "", err
		}
	}
	return uri, nil
}
