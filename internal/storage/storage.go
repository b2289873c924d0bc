// Package storage keeps uploaded recipe images and avatars.
package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// MaxImageSize bounds decoded uploads.
const MaxImageSize = 5 << 20

var ErrInvalidImage = errors.New("invalid image")

// ImageStore persists image bytes under generated keys.
type ImageStore interface {
	// Save stores data under prefix and returns the new object key.
	Save(ctx context.Context, prefix string, data []byte, contentType string) (string, error)
	// Delete removes key. Missing objects are not an error.
	Delete(ctx context.Context, key string) error
	// URL returns the public address of key.
	URL(key string) string
}

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Image is a decoded upload.
type Image struct {
	Data        []byte
	ContentType string
}

// Ext returns the file extension matching the content type.
func (i *Image) Ext() string {
	return extensions[i.ContentType]
}

// DecodeDataURI parses "data:image/png;base64,...".
func DecodeDataURI(uri string) (*Image, error) {
	header, payload, ok := strings.Cut(uri, ",")
	if !ok || !strings.HasPrefix(header, "data:") {
		return nil, fmt.Errorf("%w: expected a base64 data URI", ErrInvalidImage)
	}

	meta := strings.TrimPrefix(header, "data:")
	contentType, encoding, ok := strings.Cut(meta, ";")
	if !ok || encoding != "base64" {
		return nil, fmt.Errorf("%w: expected base64 encoding", ErrInvalidImage)
	}
	contentType = strings.ToLower(contentType)
	if _, known := extensions[contentType]; !known {
		return nil, fmt.Errorf("%w: unsupported content type %q", ErrInvalidImage, contentType)
	}

	if base64.StdEncoding.DecodedLen(len(payload)) > MaxImageSize {
		return nil, fmt.Errorf("%w: larger than %d bytes", ErrInvalidImage, MaxImageSize)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidImage)
	}

	return &Image{Data: data, ContentType: contentType}, nil
}
