package meta

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/bep/imagemeta"
	"github.com/jdeng/goheif"
	log "github.com/sirupsen/logrus"

	"github.com/yerffejytnac/exif-mcp/internal/segment"
)

// ErrNoMetadata reports an image that carries none of the requested
// metadata. Handlers surface its text verbatim, so the casing is part of
// the tool contract.
var ErrNoMetadata = errors.New("No metadata found")

// exifIdentifier prefixes an EXIF block when it is stored in APP1 form
// rather than as a bare TIFF stream.
var exifIdentifier = []byte("Exif\x00\x00")

// Parse extracts the metadata segments selected by opts and merges them
// into one result map. EXIF tags sit at the top level; the xmp, icc,
// iptc, jfif and ihdr groups nest under their own keys.
func Parse(data []byte, opts segment.Options) (map[string]interface{}, error) {
	format := DetectFormat(data)
	if format == FormatUnknown {
		return nil, fmt.Errorf("unrecognized image format")
	}

	out := make(map[string]interface{})

	var xmpProps map[string]interface{}
	if opts.TIFF || opts.IPTC || opts.XMP {
		tags, err := collectTags(data, format, opts)
		if err != nil {
			return nil, err
		}
		for k, v := range tags.exif {
			out[k] = v
		}
		if len(tags.iptc) > 0 {
			out["iptc"] = tags.iptc
		}
		xmpProps = tags.xmp
	}

	switch format {
	case FormatJPEG:
		segs, err := scanJPEG(data)
		if err != nil {
			return nil, err
		}
		if opts.JFIF && segs.jfif != nil {
			jfif, err := parseJFIF(segs.jfif)
			if err != nil {
				return nil, err
			}
			out["jfif"] = jfif
		}
		if opts.ICC && len(segs.iccChunks) > 0 {
			icc, err := DecodeICC(assembleICC(segs.iccChunks))
			if err != nil {
				return nil, err
			}
			out["icc"] = icc
		}
		if opts.XMP && segs.xmp != nil && len(xmpProps) == 0 {
			xmpProps, err = flattenXMP(segs.xmp)
			if err != nil {
				return nil, err
			}
		}
		if opts.XMP && opts.MultiSegment && len(segs.extendedXMP) > 0 {
			xmpProps, err = mergeExtendedXMP(xmpProps, segs.extendedXMP)
			if err != nil {
				return nil, err
			}
		}

	case FormatPNG:
		chunks, err := scanPNG(data)
		if err != nil {
			return nil, err
		}
		if opts.IHDR && chunks.ihdr != nil {
			ihdr, err := parseIHDR(chunks.ihdr)
			if err != nil {
				return nil, err
			}
			out["ihdr"] = ihdr
		}
		if opts.ICC && chunks.iccProfile != nil {
			icc, err := DecodeICC(chunks.iccProfile)
			if err != nil {
				return nil, err
			}
			out["icc"] = icc
		}
		if opts.XMP && chunks.xmp != nil && len(xmpProps) == 0 {
			xmpProps, err = flattenXMP(chunks.xmp)
			if err != nil {
				return nil, err
			}
		}

	case FormatWebP:
		if opts.ICC {
			profile, err := webpICCProfile(data)
			if err != nil {
				return nil, err
			}
			if profile != nil {
				icc, err := DecodeICC(profile)
				if err != nil {
					return nil, err
				}
				out["icc"] = icc
			}
		}
	}

	if len(xmpProps) > 0 {
		out["xmp"] = xmpProps
	}

	if len(out) == 0 {
		return nil, ErrNoMetadata
	}
	return out, nil
}

// collectedTags groups the tag engine's output by source.
type collectedTags struct {
	exif map[string]interface{}
	iptc map[string]interface{}
	xmp  map[string]interface{}
}

// collectTags runs the tag engine over the stream, filtered to the
// sources and tag names opts selects.
func collectTags(data []byte, format Format, opts segment.Options) (*collectedTags, error) {
	engineFormat, engineData, err := engineInput(data, format)
	if err != nil {
		return nil, err
	}
	tags := &collectedTags{
		exif: make(map[string]interface{}),
		iptc: make(map[string]interface{}),
	}
	if engineData == nil {
		return tags, nil
	}

	var sources imagemeta.Source
	if opts.TIFF {
		sources |= imagemeta.EXIF
	}
	if opts.IPTC {
		sources |= imagemeta.IPTC
	}
	if opts.XMP {
		sources |= imagemeta.XMP
	}

	var pick map[string]bool
	if opts.Pick != nil {
		pick = make(map[string]bool, len(opts.Pick))
		for _, name := range opts.Pick {
			pick[name] = true
		}
	}

	err = imagemeta.Decode(imagemeta.Options{
		R:           bytes.NewReader(engineData),
		ImageFormat: engineFormat,
		Sources:     sources,
		ShouldHandleTag: func(ti imagemeta.TagInfo) bool {
			if pick == nil || ti.Source != imagemeta.EXIF {
				return true
			}
			// Keep following sub-directory pointers even under a pick
			// list, or the tags behind them are unreachable.
			if strings.HasSuffix(ti.Tag, "IFDPointer") {
				return true
			}
			return pick[ti.Tag]
		},
		HandleTag: func(ti imagemeta.TagInfo) error {
			if strings.HasSuffix(ti.Tag, "IFDPointer") {
				return nil
			}
			switch ti.Source {
			case imagemeta.EXIF:
				tags.exif[ti.Tag] = ti.Value
			case imagemeta.IPTC:
				tags.iptc[ti.Tag] = ti.Value
			}
			return nil
		},
		HandleXMP: func(r io.Reader) error {
			packet, err := io.ReadAll(r)
			if err != nil {
				return err
			}
			props, err := flattenXMP(packet)
			if err != nil {
				return err
			}
			tags.xmp = props
			return nil
		},
		Warnf: func(msg string, args ...any) {
			log.Debugf("tag engine: "+msg, args...)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("walk image tags: %w", err)
	}
	return tags, nil
}

// engineInput maps a container onto the tag engine's format enum. HEIC is
// not a format the engine reads, so its EXIF block is pulled out of the
// container first and walked as a TIFF stream.
func engineInput(data []byte, format Format) (imagemeta.ImageFormat, []byte, error) {
	switch format {
	case FormatJPEG:
		return imagemeta.JPEG, data, nil
	case FormatPNG:
		return imagemeta.PNG, data, nil
	case FormatTIFF:
		return imagemeta.TIFF, data, nil
	case FormatWebP:
		return imagemeta.WebP, data, nil
	case FormatHEIC:
		block, err := goheif.ExtractExif(bytes.NewReader(data))
		if err != nil {
			return 0, nil, fmt.Errorf("extract HEIC EXIF block: %w", err)
		}
		block = bytes.TrimPrefix(block, exifIdentifier)
		if len(block) < 4 || (!bytes.Equal(block[:4], tiffLittleSig) && !bytes.Equal(block[:4], tiffBigSig)) {
			return 0, nil, fmt.Errorf("HEIC EXIF block is not a TIFF stream")
		}
		return imagemeta.TIFF, block, nil
	}
	return 0, nil, nil
}
