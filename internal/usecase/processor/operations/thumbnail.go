package operations

import (
	"context"
	"fmt"
	"io"
	"math"

	"gallery-watermark/internal/domain"
)

type Thumbnailer struct{}

func NewThumbnailer() *Thumbnailer {
	return &Thumbnailer{}
}

// Process resizes photo to the dimensions resolved from cfg and encodes it as
// JPEG carrying the photo's EXIF segment.
func (t *Thumbnailer) Process(ctx context.Context, photo *domain.Photo, cfg domain.ThumbnailConfig) (io.Reader, domain.Dimensions, error) {
	size, err := ResolveThumbnailDimensions(photo.Dimensions(), cfg)
	if err != nil {
		return nil, domain.Dimensions{}, err
	}

	thumbnail := resizeImage(photo.Image, size.Width, size.Height)

	buf, err := EncodeJPEG(thumbnail, cfg.Quality, photo.Exif)
	if err != nil {
		return nil, domain.Dimensions{}, fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	return buf, size, nil
}

// ResolveThumbnailDimensions derives the free axis from the single clamp
// dimension in cfg, preserving the aspect ratio of src. A config that already
// carries Resolved returns it unchanged.
func ResolveThumbnailDimensions(src domain.Dimensions, cfg domain.ThumbnailConfig) (domain.Dimensions, error) {
	if cfg.Resolved != nil {
		return *cfg.Resolved, nil
	}

	switch {
	case cfg.ClampWidth == 0 && cfg.ClampHeight == 0:
		return domain.Dimensions{}, ErrNoDimensionConstraint
	case cfg.ClampWidth != 0 && cfg.ClampHeight != 0:
		return domain.Dimensions{}, ErrOverconstrained
	case cfg.ClampWidth < 0 || cfg.ClampHeight < 0:
		return domain.Dimensions{}, ErrNegativeDimension
	}

	if src.Width <= 0 || src.Height <= 0 {
		return domain.Dimensions{}, ErrEmptyImage
	}

	if cfg.ClampHeight == 0 {
		height := roundDim(float64(cfg.ClampWidth) * float64(src.Height) / float64(src.Width))
		return domain.Dimensions{Width: cfg.ClampWidth, Height: height}, nil
	}

	width := roundDim(float64(cfg.ClampHeight) * float64(src.Width) / float64(src.Height))
	return domain.Dimensions{Width: width, Height: cfg.ClampHeight}, nil
}

// roundDim never collapses a derived axis to zero pixels.
func roundDim(v float64) int {
	return max(1, int(math.Round(v)))
}
