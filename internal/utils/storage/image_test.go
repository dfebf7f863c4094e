package storage

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"

	"foodgram/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 120, B: 40, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestParseDataURI(t *testing.T) {
	raw := pngBytes(t, 2, 2)
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw)

	img, err := ParseDataURI(uri)
	require.NoError(t, err)
	assert.Equal(t, ".png", img.Extension)
	assert.Equal(t, raw, img.Data)
}

func TestParseDataURIRejectsMalformedInput(t *testing.T) {
	cases := map[string]string{
		"no comma":        "data:image/png;base64",
		"not an image":    "data:text/plain;base64,aGVsbG8=",
		"not base64":      "data:image/png,aGVsbG8=",
		"bad payload":     "data:image/png;base64,%%%",
		"unsupported ext": "data:image/tiff;base64,aGVsbG8=",
	}

	for name, uri := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseDataURI(uri)
			assert.ErrorIs(t, err, domain.ErrInvalidImage)
		})
	}
}

func TestNormalizeImageShrinksLargeImages(t *testing.T) {
	body, contentType, err := NormalizeImage(&domain.ImagePayload{
		Data:      pngBytes(t, MaxImageSide*2, 10),
		Extension: ".png",
	})
	require.NoError(t, err)
	assert.Equal(t, "image/png", contentType)

	decoded, err := png.Decode(bytes.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, MaxImageSide, decoded.Bounds().Dx())
}

func TestNormalizeImageRejectsGarbage(t *testing.T) {
	_, _, err := NormalizeImage(&domain.ImagePayload{Data: []byte("definitely not a png"), Extension: ".png"})
	assert.ErrorIs(t, err, domain.ErrInvalidImage)
}
