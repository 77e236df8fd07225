package utils

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"strings"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

var (
	ErrNotDataURL        = errors.New("not a base64 data url")
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrImageTooLarge     = errors.New("image too large")
)

// maxPixels bounds decoded size so a crafted header cannot force a huge allocation.
const maxPixels = 40_000_000

var contentTypes = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpeg",
	"image/gif":  "gif",
	"image/webp": "webp",
}

type DecodedImage struct {
	Data        []byte
	ContentType string
	Width       int
	Height      int
}

// DecodeDataURL parses data:image/...;base64,... and checks the payload is
// an image of the declared format within maxSize bytes.
func DecodeDataURL(src string, maxSize int64) (DecodedImage, error) {
	rest, ok := strings.CutPrefix(src, "data:")
	if !ok {
		return DecodedImage{}, ErrNotDataURL
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return DecodedImage{}, ErrNotDataURL
	}
	contentType, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return DecodedImage{}, ErrNotDataURL
	}
	format, ok := contentTypes[strings.ToLower(contentType)]
	if !ok {
		return DecodedImage{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, contentType)
	}
	if int64(base64.StdEncoding.DecodedLen(len(payload))) > maxSize+2 {
		return DecodedImage{}, ErrImageTooLarge
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return DecodedImage{}, fmt.Errorf("invalid base64 payload: %w", err)
	}
	if int64(len(data)) > maxSize {
		return DecodedImage{}, ErrImageTooLarge
	}

	cfg, actual, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return DecodedImage{}, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	if actual != format {
		return DecodedImage{}, fmt.Errorf("%w: declared %s, got %s", ErrUnsupportedFormat, format, actual)
	}
	if cfg.Width*cfg.Height > maxPixels {
		return DecodedImage{}, ErrImageTooLarge
	}

	return DecodedImage{
		Data:        data,
		ContentType: strings.ToLower(contentType),
		Width:       cfg.Width,
		Height:      cfg.Height,
	}, nil
}

// Thumbnail scales data to height pixels keeping the aspect ratio and
// encodes it as JPEG. Images already short enough keep their size.
func Thumbnail(data []byte, height int) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	b := src.Bounds()
	h := min(height, b.Dy())
	w := max(1, b.Dx()*h/max(1, b.Dy()))

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
