// Package exifmeta reads the EXIF orientation of a JPEG stream and carries its
// APP1 segment over to re-encoded outputs.
package exifmeta

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"gallery-watermark/internal/domain"

	"github.com/rwcarlsen/goexif/exif"
)

const (
	markerSOI  = 0xD8
	markerEOI  = 0xD9
	markerSOS  = 0xDA
	markerAPP0 = 0xE0
	markerAPP1 = 0xE1

	tagOrientation = 0x0112
	typeShort      = 3

	maxSegmentPayload = 0xFFFF - 2
)

var exifHeader = []byte("Exif\x00\x00")

var (
	ErrNotJPEG         = errors.New("not a jpeg stream")
	ErrSegmentTooLarge = errors.New("exif segment too large")
)

// ReadOrientation returns the orientation tag of data. Missing or unparseable
// metadata yields OrientationNormal.
func ReadOrientation(data []byte) domain.Orientation {
	x, err := exif.Decode(bytes.NewReader(data))
	if x == nil || (err != nil && exif.IsCriticalError(err)) {
		return domain.OrientationNormal
	}

	tag, err := x.Get(exif.Orientation)
	if err != nil || tag == nil || tag.Count == 0 {
		return domain.OrientationNormal
	}

	v, err := tag.Int(0)
	if err != nil {
		return domain.OrientationNormal
	}

	return domain.Orientation(v)
}

// ExtractSegment returns a copy of the APP1 Exif payload (starting with the
// "Exif\0\0" header) or nil when the stream carries none.
func ExtractSegment(b []byte) []byte {
	if len(b) < 4 || b[0] != 0xFF || b[1] != markerSOI {
		return nil
	}

	i := 2
	for i+4 <= len(b) {
		if b[i] != 0xFF {
			return nil
		}
		marker := b[i+1]
		i += 2
		if marker == markerEOI || marker == markerSOS {
			break
		}

		segLen := int(b[i])<<8 | int(b[i+1])
		if segLen < 2 || i+segLen > len(b) {
			break
		}

		payload := b[i+2 : i+segLen]
		if marker == markerAPP1 && bytes.HasPrefix(payload, exifHeader) {
			return bytes.Clone(payload)
		}
		i += segLen
	}

	return nil
}

// ResetOrientation returns a copy of seg whose IFD0 orientation value is 1.
// Segments without the tag, or that cannot be walked, are copied unchanged.
func ResetOrientation(seg []byte) []byte {
	if seg == nil {
		return nil
	}

	out := bytes.Clone(seg)
	if !bytes.HasPrefix(out, exifHeader) {
		return out
	}

	tiff := out[len(exifHeader):]
	order, ok := byteOrder(tiff)
	if !ok || order.Uint16(tiff[2:4]) != 42 {
		return out
	}

	ifd0 := int(order.Uint32(tiff[4:8]))
	if ifd0 < 8 || ifd0+2 > len(tiff) {
		return out
	}

	count := int(order.Uint16(tiff[ifd0:]))
	off := ifd0 + 2
	for n := 0; n < count && off+12 <= len(tiff); n++ {
		if order.Uint16(tiff[off:]) == tagOrientation {
			if order.Uint16(tiff[off+2:]) == typeShort {
				order.PutUint16(tiff[off+8:], uint16(domain.OrientationNormal))
			}
			break
		}
		off += 12
	}

	return out
}

// Embed inserts seg as an APP1 segment into a JPEG stream, after SOI and any
// leading APP0 segment. A nil seg returns data unchanged.
func Embed(data, seg []byte) ([]byte, error) {
	if len(seg) == 0 {
		return data, nil
	}
	if len(data) < 4 || data[0] != 0xFF || data[1] != markerSOI {
		return nil, ErrNotJPEG
	}
	if len(seg) > maxSegmentPayload {
		return nil, fmt.Errorf("%w: %d bytes", ErrSegmentTooLarge, len(seg))
	}

	pos := 2
	if data[2] == 0xFF && data[3] == markerAPP0 && len(data) >= 6 {
		appLen := int(data[4])<<8 | int(data[5])
		if 4+appLen <= len(data) {
			pos = 4 + appLen
		}
	}

	out := make([]byte, 0, len(data)+len(seg)+4)
	out = append(out, data[:pos]...)
	out = append(out, 0xFF, markerAPP1)
	out = binary.BigEndian.AppendUint16(out, uint16(len(seg)+2))
	out = append(out, seg...)
	out = append(out, data[pos:]...)

	return out, nil
}

func byteOrder(tiff []byte) (binary.ByteOrder, bool) {
	if len(tiff) < 8 {
		return nil, false
	}
	switch {
	case tiff[0] == 'I' && tiff[1] == 'I':
		return binary.LittleEndian, true
	case tiff[0] == 'M' && tiff[1] == 'M':
		return binary.BigEndian, true
	default:
		return nil, false
	}
}
