package operations

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"gallery-watermark/internal/domain"
	"gallery-watermark/internal/exifmeta"
)

// EncodeJPEG encodes img at quality and carries exifSeg into the output.
func EncodeJPEG(img image.Image, quality int, exifSeg []byte) (*bytes.Buffer, error) {
	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: jpegQuality(quality)}); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}

	data, err := exifmeta.Embed(buf.Bytes(), exifSeg)
	if err != nil {
		return nil, fmt.Errorf("failed to embed exif metadata: %w", err)
	}

	return bytes.NewBuffer(data), nil
}

func jpegQuality(q int) int {
	switch {
	case q <= 0:
		return domain.DefaultJPEGQuality
	case q > 100:
		return 100
	default:
		return q
	}
}
