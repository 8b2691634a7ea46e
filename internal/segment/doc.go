// Package segment defines the metadata segment categories a caller can
// request and maps them onto the flag record the parser understands.
//
// Images carry metadata in a handful of distinct blocks: the TIFF/EXIF
// block (which also holds the GPS sub-directory), the XMP packet, the ICC
// color profile, the IPTC block, the JPEG APP0 JFIF header, and the PNG
// IHDR header. Callers name these categories with Segment values; the
// parser consumes an Options record with one boolean per block.
//
// Two categories collapse into one flag: EXIF and GPS both live inside the
// TIFF block, so requesting either (or both) enables the single TIFF flag.
//
// All functions in this package are pure and total. Validation of
// user-supplied segment names happens once, at the tool boundary, via
// Parse; the mappers themselves never fail.
package segment
