package segment

import (
	"fmt"
	"strings"
)

// Segment identifies one metadata block category that can be requested
// from an image.
type Segment string

// The recognized segment categories.
const (
	EXIF Segment = "EXIF"
	GPS  Segment = "GPS"
	XMP  Segment = "XMP"
	ICC  Segment = "ICC"
	IPTC Segment = "IPTC"
	JFIF Segment = "JFIF"
	IHDR Segment = "IHDR"
)

// All returns every recognized segment category.
func All() []Segment {
	return []Segment{EXIF, GPS, XMP, ICC, IPTC, JFIF, IHDR}
}

// Parse validates a user-supplied segment name. Matching is
// case-insensitive; the canonical uppercase form is returned.
func Parse(name string) (Segment, error) {
	s := Segment(strings.ToUpper(name))
	switch s {
	case EXIF, GPS, XMP, ICC, IPTC, JFIF, IHDR:
		return s, nil
	}
	return "", fmt.Errorf("unknown metadata segment: %q", name)
}

// Options is the flag record handed to the metadata parser.
//
// Each boolean enables extraction of one metadata block. Pick, when
// non-nil, narrows TIFF/EXIF extraction to the named tags. MultiSegment
// enables reassembly of XMP packets split across multiple segments
// (ExtendedXMP).
type Options struct {
	// TIFF enables the TIFF/EXIF block, including the GPS sub-directory.
	TIFF bool

	// XMP enables the XMP packet.
	XMP bool

	// ICC enables the ICC color profile.
	ICC bool

	// IPTC enables the IPTC block.
	IPTC bool

	// JFIF enables the JPEG APP0 JFIF header.
	JFIF bool

	// IHDR enables the PNG IHDR header.
	IHDR bool

	// Pick restricts TIFF/EXIF extraction to the named tags. A nil slice
	// means all tags. Pick is never empty-but-non-nil.
	Pick []string

	// MultiSegment enables ExtendedXMP reassembly across segments.
	MultiSegment bool
}

// OptionsForSegments maps a set of requested segments onto parser flags.
//
// An empty or nil request means "everything": all six flags are enabled.
// Otherwise only the flags for the requested categories are set. EXIF and
// GPS both map to the TIFF flag. The mapping is order-insensitive and
// duplicates are harmless.
func OptionsForSegments(requested []Segment) Options {
	if len(requested) == 0 {
		return Options{TIFF: true, XMP: true, ICC: true, IPTC: true, JFIF: true, IHDR: true}
	}

	var o Options
	for _, seg := range requested {
		switch seg {
		case EXIF, GPS:
			o.TIFF = true
		case XMP:
			o.XMP = true
		case ICC:
			o.ICC = true
		case IPTC:
			o.IPTC = true
		case JFIF:
			o.JFIF = true
		case IHDR:
			o.IHDR = true
		}
	}
	return o
}

// OptionsForEXIF returns flags for a TIFF/EXIF-only read. When pick is
// non-empty it is attached verbatim; an absent pick list stays nil so the
// parser decodes every tag.
func OptionsForEXIF(pick []string) Options {
	o := Options{TIFF: true}
	if len(pick) > 0 {
		o.Pick = pick
	}
	return o
}

// OptionsForXMP returns flags for an XMP-only read. The extended flag
// carries through as MultiSegment.
func OptionsForXMP(extended bool) Options {
	return Options{XMP: true, MultiSegment: extended}
}

// OptionsForSingleSegment returns flags with exactly the one block that
// holds the given segment enabled.
func OptionsForSingleSegment(seg Segment) Options {
	switch seg {
	case EXIF, GPS:
		return Options{TIFF: true}
	case XMP:
		return Options{XMP: true}
	case ICC:
		return Options{ICC: true}
	case IPTC:
		return Options{IPTC: true}
	case JFIF:
		return Options{JFIF: true}
	case IHDR:
		return Options{IHDR: true}
	}
	return Options{}
}
