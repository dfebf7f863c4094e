package storage

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"slices"
	"strings"

	"foodgram/domain"

	"github.com/disintegration/imaging"
)

const (
	MaxImageSide  = 1280
	MaxImageBytes = 10 << 20
)

var AllowImage = []string{".jpg", ".jpeg", ".png", ".gif"}

var contentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
}

// ParseDataURI decodes "data:image/<ext>;base64,<payload>".
func ParseDataURI(uri string) (*domain.ImagePayload, error) {
	header, payload, ok := strings.Cut(uri, ",")
	if !ok || !strings.HasPrefix(header, "data:image/") || !strings.HasSuffix(header, ";base64") {
		return nil, fmt.Errorf("%w: expected a base64 image data URI", domain.ErrInvalidImage)
	}

	ext := "." + strings.ToLower(strings.TrimSuffix(strings.TrimPrefix(header, "data:image/"), ";base64"))
	if !slices.Contains(AllowImage, ext) {
		return nil, fmt.Errorf("%w: unsupported type %s", domain.ErrInvalidImage, ext)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidImage, err)
	}
	if len(data) > MaxImageBytes {
		return nil, fmt.Errorf("%w: image is larger than %d bytes", domain.ErrInvalidImage, MaxImageBytes)
	}

	return &domain.ImagePayload{Data: data, Extension: ext}, nil
}

func ReadMultipartImage(file *multipart.FileHeader) (*domain.ImagePayload, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !slices.Contains(AllowImage, ext) {
		return nil, fmt.Errorf("%w: unsupported type %s", domain.ErrInvalidImage, ext)
	}
	if file.Size > MaxImageBytes {
		return nil, fmt.Errorf("%w: image is larger than %d bytes", domain.ErrInvalidImage, MaxImageBytes)
	}

	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return &domain.ImagePayload{Data: data, Extension: ext}, nil
}

// NormalizeImage checks that the payload really is an image, shrinks it to
// fit MaxImageSide and re-encodes it in its own format.
func NormalizeImage(img *domain.ImagePayload) ([]byte, string, error) {
	format, err := imaging.FormatFromExtension(img.Extension)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", domain.ErrInvalidImage, err)
	}

	decoded, err := imaging.Decode(bytes.NewReader(img.Data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", domain.ErrInvalidImage, err)
	}

	bounds := decoded.Bounds()
	if bounds.Dx() > MaxImageSide || bounds.Dy() > MaxImageSide {
		decoded = imaging.Fit(decoded, MaxImageSide, MaxImageSide, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, decoded, format); err != nil {
		return nil, "", fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), contentTypes[img.Extension], nil
}
