package meta

import "bytes"

// Format identifies the container format of an image byte stream.
type Format int

const (
	FormatUnknown Format = iota
	FormatJPEG
	FormatPNG
	FormatTIFF
	FormatWebP
	FormatHEIC
)

// String returns the conventional lowercase name of the format.
func (f Format) String() string {
	switch f {
	case FormatJPEG:
		return "jpeg"
	case FormatPNG:
		return "png"
	case FormatTIFF:
		return "tiff"
	case FormatWebP:
		return "webp"
	case FormatHEIC:
		return "heic"
	}
	return "unknown"
}

var (
	pngSignature  = []byte("\x89PNG\r\n\x1a\n")
	tiffLittleSig = []byte("II*\x00")
	tiffBigSig    = []byte("MM\x00*")
	heicBrands    = [][]byte{
		[]byte("heic"), []byte("heix"), []byte("hevc"), []byte("hevx"),
		[]byte("heim"), []byte("heis"), []byte("mif1"), []byte("msf1"),
	}
)

// DetectFormat sniffs the container format from magic bytes.
func DetectFormat(data []byte) Format {
	switch {
	case len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF:
		return FormatJPEG

	case len(data) >= 8 && bytes.Equal(data[:8], pngSignature):
		return FormatPNG

	case len(data) >= 4 && (bytes.Equal(data[:4], tiffLittleSig) || bytes.Equal(data[:4], tiffBigSig)):
		return FormatTIFF

	case len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return FormatWebP

	case len(data) >= 12 && bytes.Equal(data[4:8], []byte("ftyp")) && isHEICBrand(data[8:12]):
		return FormatHEIC

	default:
		return FormatUnknown
	}
}

func isHEICBrand(brand []byte) bool {
	for _, b := range heicBrands {
		if bytes.Equal(brand, b) {
			return true
		}
	}
	return false
}
