package operations

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"io"
	"math"

	"gallery-watermark/internal/domain"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"
)

type Watermarker struct {
	font *truetype.Font
}

func NewWatermarker() *Watermarker {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return &Watermarker{}
	}
	return &Watermarker{
		font: f,
	}
}

// Process composites mark onto photo and encodes the full-size result as JPEG
// carrying the photo's EXIF segment.
func (w *Watermarker) Process(ctx context.Context, photo *domain.Photo, mark image.Image, cfg domain.WatermarkConfig) (io.Reader, error) {
	watermarked, err := CompositeWatermark(photo.Image, mark, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to add watermark: %w", err)
	}

	buf, err := EncodeJPEG(watermarked, cfg.Quality, photo.Exif)
	if err != nil {
		return nil, fmt.Errorf("failed to encode watermarked image: %w", err)
	}

	return buf, nil
}

// CompositeWatermark returns a copy of host with mark scaled and anchored to
// the bottom-right corner, inset by the border. Every visible mark pixel takes
// cfg.Alpha before scaling, so edges soften instead of growing opaque; fully
// transparent regions leave the host untouched.
func CompositeWatermark(host, mark image.Image, cfg domain.WatermarkConfig) (*image.RGBA, error) {
	if host == nil || host.Bounds().Empty() {
		return nil, fmt.Errorf("host: %w", ErrEmptyImage)
	}
	if mark == nil || mark.Bounds().Empty() {
		return nil, fmt.Errorf("watermark: %w", ErrEmptyImage)
	}

	bounds := host.Bounds()
	result := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(result, result.Bounds(), host, bounds.Min, draw.Src)

	markBounds := mark.Bounds()
	placement := WatermarkPlacement(
		domain.Dimensions{Width: bounds.Dx(), Height: bounds.Dy()},
		domain.Dimensions{Width: markBounds.Dx(), Height: markBounds.Dy()},
		cfg,
	)
	if placement.Empty() {
		return result, nil
	}

	src := image.NewNRGBA(image.Rect(0, 0, markBounds.Dx(), markBounds.Dy()))
	draw.Draw(src, src.Bounds(), mark, markBounds.Min, draw.Src)
	ApplyAlpha(src, cfg.Alpha)

	scaled := resizeImage(src, placement.Dx(), placement.Dy())
	draw.Draw(result, placement, scaled, image.Point{}, draw.Over)

	return result, nil
}

// WatermarkPlacement computes where the scaled mark lands on a host of the
// given size. Landscape hosts scale against their width, everything else
// against its height. The target height is the product of the mark's own
// sides over the host reference axis, so both branches mirror each other. An
// empty rectangle means the mark would collapse to nothing.
func WatermarkPlacement(host, mark domain.Dimensions, cfg domain.WatermarkConfig) image.Rectangle {
	var width, height, border int

	if host.Landscape() {
		width = round(float64(host.Width) * cfg.LandscapeFraction)
		height = round(float64(mark.Width) / float64(host.Width) * float64(mark.Height))
		border = round(float64(host.Width) * cfg.BorderFraction)
	} else {
		width = round(float64(host.Height) * cfg.PortraitFraction)
		height = round(float64(mark.Height) / float64(host.Height) * float64(mark.Width))
		border = round(float64(host.Height) * cfg.BorderFraction)
	}

	if width <= 0 || height <= 0 {
		return image.Rectangle{}
	}

	x := host.Width - width - border
	y := host.Height - height - border
	return image.Rect(x, y, x+width, y+height)
}

// ApplyAlpha overwrites the alpha of every pixel that is not fully
// transparent. alpha is clamped to 0..255.
func ApplyAlpha(img *image.NRGBA, alpha int) {
	a := uint8(clamp(alpha, 0, 255))
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):img.PixOffset(b.Max.X, y)]
		for i := 3; i < len(row); i += 4 {
			if row[i] > 0 {
				row[i] = a
			}
		}
	}
}

func round(v float64) int {
	return int(math.Round(v))
}

func clamp(value, min, max int) int {
	return int(math.Max(float64(min), math.Min(float64(max), float64(value))))
}
