package operations

import (
	"image"

	"gallery-watermark/internal/domain"
	"gallery-watermark/internal/exifmeta"

	"github.com/disintegration/imaging"
)

// TransposeStep is a single lossless flip or rotation. Rotations are
// counter-clockwise.
type TransposeStep int

const (
	FlipHorizontal TransposeStep = iota + 1
	FlipVertical
	Rotate90
	Rotate180
	Rotate270
)

func (s TransposeStep) String() string {
	switch s {
	case FlipHorizontal:
		return "flip-horizontal"
	case FlipVertical:
		return "flip-vertical"
	case Rotate90:
		return "rotate-90"
	case Rotate180:
		return "rotate-180"
	case Rotate270:
		return "rotate-270"
	default:
		return "unknown"
	}
}

//	tag  0th row  0th col
//	 1   top      left
//	 2   top      right
//	 3   bottom   right
//	 4   bottom   left
//	 5   left     top
//	 6   right    top
//	 7   right    bottom
//	 8   left     bottom
var transposeSequences = [...][]TransposeStep{
	domain.OrientationUndefined:   nil,
	domain.OrientationNormal:      nil,
	domain.OrientationFlipH:       {FlipHorizontal},
	domain.OrientationRotate180:   {Rotate180},
	domain.OrientationFlipV:       {FlipVertical},
	domain.OrientationTranspose:   {FlipHorizontal, Rotate90},
	domain.OrientationRotate90CW:  {Rotate270},
	domain.OrientationTransverse:  {FlipVertical, Rotate90},
	domain.OrientationRotate270CW: {Rotate90},
}

// TransposeSequence returns the steps that bring an image stored with
// orientation o upright. Unknown tags map to no steps.
func TransposeSequence(o domain.Orientation) []TransposeStep {
	if !o.Valid() {
		return nil
	}
	return transposeSequences[o]
}

// Transpose applies steps left to right. With no steps img is returned as is.
func Transpose(img image.Image, steps ...TransposeStep) image.Image {
	for _, step := range steps {
		switch step {
		case FlipHorizontal:
			img = imaging.FlipH(img)
		case FlipVertical:
			img = imaging.FlipV(img)
		case Rotate90:
			img = imaging.Rotate90(img)
		case Rotate180:
			img = imaging.Rotate180(img)
		case Rotate270:
			img = imaging.Rotate270(img)
		}
	}
	return img
}

// NormalizeOrientation returns a copy of photo whose row 0 is the visual top
// and column 0 the visual left. The carried EXIF segment is reset to the
// identity orientation so outputs are not rotated twice by viewers.
func NormalizeOrientation(photo *domain.Photo) *domain.Photo {
	out := *photo
	out.Image = Transpose(photo.Image, TransposeSequence(photo.Orientation)...)
	out.Orientation = domain.OrientationNormal
	out.Exif = exifmeta.ResetOrientation(photo.Exif)
	return &out
}
