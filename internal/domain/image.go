package domain

import "image"

// Photo is a decoded source image together with the metadata that travels
// with it to the outputs.
type Photo struct {
	Name        string
	Image       image.Image
	Format      string
	Orientation Orientation
	Exif        []byte
}

func (p *Photo) Dimensions() Dimensions {
	b := p.Image.Bounds()
	return Dimensions{Width: b.Dx(), Height: b.Dy()}
}

type Dimensions struct {
	Width  int
	Height int
}

func (d Dimensions) Landscape() bool {
	return d.Width > d.Height
}

// Orientation is the EXIF orientation tag (0x0112) as defined by CIPA DC-008-2012.
type Orientation int

const (
	OrientationUndefined   Orientation = 0
	OrientationNormal      Orientation = 1
	OrientationFlipH       Orientation = 2
	OrientationRotate180   Orientation = 3
	OrientationFlipV       Orientation = 4
	OrientationTranspose   Orientation = 5
	OrientationRotate90CW  Orientation = 6
	OrientationTransverse  Orientation = 7
	OrientationRotate270CW Orientation = 8
)

func (o Orientation) Valid() bool {
	return o >= OrientationUndefined && o <= OrientationRotate270CW
}

const (
	DefaultJPEGQuality       = 97
	DefaultThumbnailWidth    = 250
	DefaultWatermarkFontSize = 48
	DefaultWatermarkColor    = "255,255,255"
)
