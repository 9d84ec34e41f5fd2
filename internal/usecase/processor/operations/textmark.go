package operations

import (
	"fmt"
	"image"
	"image/color"
	"strconv"
	"strings"

	"gallery-watermark/internal/domain"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

// RenderText rasterizes text onto a transparent canvas sized to fit it, for
// use as a watermark when no watermark file is configured.
func (w *Watermarker) RenderText(text string, fontSize float64, fontColor string) (*image.NRGBA, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyWatermarkText
	}
	if fontSize <= 0 {
		fontSize = domain.DefaultWatermarkFontSize
	}

	if w.font == nil {
		f, err := truetype.Parse(goregular.TTF)
		if err != nil {
			return nil, fmt.Errorf("failed to load font: %w", err)
		}
		w.font = f
	}

	col, err := parseColor(fontColor)
	if err != nil {
		col, _ = parseColor(domain.DefaultWatermarkColor)
	}

	face := truetype.NewFace(w.font, &truetype.Options{
		Size:    fontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	defer face.Close()

	metrics := face.Metrics()
	margin := int(fontSize / 4)
	textWidth := font.MeasureString(face, text).Ceil()
	textHeight := (metrics.Ascent + metrics.Descent).Ceil()

	canvas := image.NewNRGBA(image.Rect(0, 0, textWidth+2*margin, textHeight+2*margin))

	c := freetype.NewContext()
	c.SetDPI(72)
	c.SetFont(w.font)
	c.SetFontSize(fontSize)
	c.SetClip(canvas.Bounds())
	c.SetDst(canvas)
	c.SetSrc(image.NewUniform(col))
	c.SetHinting(font.HintingFull)

	pt := fixed.Point26_6{
		X: fixed.I(margin),
		Y: fixed.I(margin) + metrics.Ascent,
	}
	if _, err := c.DrawString(text, pt); err != nil {
		return nil, fmt.Errorf("failed to draw watermark text: %w", err)
	}

	return canvas, nil
}

// parseColor reads "r,g,b" or "r,g,b,a".
func parseColor(colorStr string) (color.NRGBA, error) {
	colorStr = strings.ReplaceAll(colorStr, " ", "")
	parts := strings.Split(colorStr, ",")

	if len(parts) != 3 && len(parts) != 4 {
		return color.NRGBA{}, fmt.Errorf("invalid color format %q", colorStr)
	}

	values := make([]uint8, 4)
	values[3] = 255
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("invalid color value %q: %w", p, err)
		}
		values[i] = uint8(clamp(v, 0, 255))
	}

	return color.NRGBA{values[0], values[1], values[2], values[3]}, nil
}
