// Package meta extracts metadata from image byte streams.
//
// The heavy lifting is delegated to external engines: bep/imagemeta walks
// the EXIF, IPTC and XMP tag sources across JPEG, PNG, TIFF and WebP
// containers, and oarkflow/imaging/exif answers the specialized queries
// (orientation, GPS position, embedded thumbnail) with native JPEG, TIFF
// and HEIC support. For HEIC containers the raw EXIF block is first pulled
// out with jdeng/goheif so the tag walker can run on it.
//
// This package owns only the glue no engine provides: container scans for
// the JPEG APP0 JFIF header, ICC profile chunks, the PNG IHDR header and
// text chunks, WebP ICCP chunks, ICC profile decoding, XMP packet
// flattening, and ExtendedXMP reassembly.
//
// # Result Shape
//
// Parse returns a single map. TIFF/EXIF tags (including the GPS
// sub-directory) merge at the top level; the other segments nest under
// "xmp", "icc", "iptc", "jfif" and "ihdr" keys. An image that carries
// none of the requested segments yields ErrNoMetadata.
//
// All functions operate on caller-owned byte slices and keep no state
// between calls.
package meta
