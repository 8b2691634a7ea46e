package meta

import (
	"bytes"
	"fmt"
	"math"

	"github.com/oarkflow/imaging/exif"
)

// RotationInfo describes the transform that makes pixels upright for an
// EXIF orientation value. Mirrored orientations carry a negative scale on
// one axis; orientations 5 through 8 swap width and height.
type RotationInfo struct {
	Orientation      int     `json:"orientation"`
	Degrees          int     `json:"degrees"`
	Radians          float64 `json:"radians"`
	ScaleX           int     `json:"scale_x"`
	ScaleY           int     `json:"scale_y"`
	DimensionSwapped bool    `json:"dimension_swapped"`
}

var rotationTable = map[int]RotationInfo{
	1: {Orientation: 1, Degrees: 0, ScaleX: 1, ScaleY: 1},
	2: {Orientation: 2, Degrees: 0, ScaleX: -1, ScaleY: 1},
	3: {Orientation: 3, Degrees: 180, ScaleX: 1, ScaleY: 1},
	4: {Orientation: 4, Degrees: 180, ScaleX: -1, ScaleY: 1},
	5: {Orientation: 5, Degrees: 90, ScaleX: 1, ScaleY: -1, DimensionSwapped: true},
	6: {Orientation: 6, Degrees: 90, ScaleX: 1, ScaleY: 1, DimensionSwapped: true},
	7: {Orientation: 7, Degrees: 270, ScaleX: 1, ScaleY: -1, DimensionSwapped: true},
	8: {Orientation: 8, Degrees: 270, ScaleX: 1, ScaleY: 1, DimensionSwapped: true},
}

// GPSPosition is a coordinate pair in decimal degrees. South and west
// are negative.
type GPSPosition struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ThumbnailImage is a preview embedded in an image's EXIF block.
type ThumbnailImage struct {
	Data     []byte
	MIMEType string
}

// Orientation returns the EXIF orientation tag, a value from 1 to 8.
// Images without the tag report ErrNoMetadata.
func Orientation(data []byte) (int, error) {
	x, err := decodeEXIF(data)
	if err != nil {
		return 0, err
	}
	return orientationOf(x)
}

// Rotation derives the upright transform from the orientation tag.
func Rotation(data []byte) (*RotationInfo, error) {
	orientation, err := Orientation(data)
	if err != nil {
		return nil, err
	}
	info := rotationTable[orientation]
	info.Radians = float64(info.Degrees) * math.Pi / 180
	return &info, nil
}

// GPS returns the decimal position recorded in the GPS sub-directory.
// Images without GPS tags report ErrNoMetadata.
func GPS(data []byte) (*GPSPosition, error) {
	x, err := decodeEXIF(data)
	if err != nil {
		return nil, err
	}
	lat, long, err := x.LatLong()
	if err != nil {
		if exif.IsTagNotPresentError(err) {
			return nil, ErrNoMetadata
		}
		return nil, fmt.Errorf("read GPS tags: %w", err)
	}
	return &GPSPosition{Latitude: lat, Longitude: long}, nil
}

// Thumbnail extracts the embedded JPEG preview. With normalize set, the
// preview is re-encoded upright according to the parent image's
// orientation tag. Images without a preview report ErrNoMetadata.
func Thumbnail(data []byte, normalize bool) (*ThumbnailImage, error) {
	x, err := decodeEXIF(data)
	if err != nil {
		return nil, err
	}
	raw, err := x.JpegThumbnail()
	if err != nil {
		if exif.IsTagNotPresentError(err) {
			return nil, ErrNoMetadata
		}
		return nil, fmt.Errorf("extract thumbnail: %w", err)
	}

	thumb := &ThumbnailImage{Data: raw, MIMEType: "image/jpeg"}
	if normalize {
		if orientation, err := orientationOf(x); err == nil && orientation > 1 {
			upright, err := normalizeThumbnail(raw, orientation)
			if err != nil {
				return nil, fmt.Errorf("normalize thumbnail: %w", err)
			}
			thumb.Data = upright
		}
	}
	return thumb, nil
}

// decodeEXIF runs the EXIF engine over the stream. A stream in which the
// engine finds no readable TIFF block reports ErrNoMetadata.
func decodeEXIF(data []byte) (*exif.Exif, error) {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil && (x == nil || exif.IsCriticalError(err)) {
		return nil, ErrNoMetadata
	}
	return x, nil
}

func orientationOf(x *exif.Exif) (int, error) {
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		if exif.IsTagNotPresentError(err) {
			return 0, ErrNoMetadata
		}
		return 0, fmt.Errorf("read orientation tag: %w", err)
	}
	orientation, err := tag.Int(0)
	if err != nil {
		return 0, fmt.Errorf("read orientation tag: %w", err)
	}
	if orientation < 1 || orientation > 8 {
		return 0, fmt.Errorf("orientation %d is outside 1..8", orientation)
	}
	return orientation, nil
}
