package meta

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// normalizeThumbnail re-encodes a JPEG preview upright according to the
// EXIF orientation of its parent image. Orientation 1 and unknown values
// pass through untouched.
func normalizeThumbnail(data []byte, orientation int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode thumbnail: %w", err)
	}

	var upright image.Image
	switch orientation {
	case 2:
		upright = imaging.FlipH(img)
	case 3:
		upright = imaging.Rotate180(img)
	case 4:
		upright = imaging.FlipV(img)
	case 5:
		upright = imaging.Transpose(img)
	case 6:
		upright = imaging.Rotate270(img)
	case 7:
		upright = imaging.Transverse(img)
	case 8:
		upright = imaging.Rotate90(img)
	default:
		return data, nil
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, upright, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
