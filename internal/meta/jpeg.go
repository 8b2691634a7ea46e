package meta

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"
)

// JPEG markers of interest. Metadata segments all precede the
// entropy-coded image data, so scanning stops at SOS.
const (
	markerSOI  = 0xFFD8
	markerEOI  = 0xFFD9
	markerSOS  = 0xFFDA
	markerAPP0 = 0xFFE0
	markerAPP1 = 0xFFE1
	markerAPP2 = 0xFFE2
)

var (
	jfifIdentifier    = []byte("JFIF\x00")
	iccIdentifier     = []byte("ICC_PROFILE\x00")
	xmpIdentifier     = []byte("http://ns.adobe.com/xap/1.0/\x00")
	extendedXMPHeader = []byte("http://ns.adobe.com/xmp/extension/\x00")
)

// jpegSegments holds the raw payloads of the application segments the
// tag-walking engine does not surface.
type jpegSegments struct {
	// jfif is the APP0 payload after the JFIF identifier.
	jfif []byte

	// xmp is the standard XMP packet from APP1.
	xmp []byte

	// iccChunks are APP2 ICC_PROFILE payloads, each still carrying its
	// two-byte sequence header.
	iccChunks [][]byte

	// extendedXMP are the APP1 ExtendedXMP chunks, in file order.
	extendedXMP []extendedXMPChunk
}

// extendedXMPChunk is one slice of an XMP packet split across segments,
// laid out per Adobe's XMP Specification Part 3: a 32-byte GUID, the full
// packet length, this chunk's offset into the packet, then the bytes.
type extendedXMPChunk struct {
	guid   string
	full   uint32
	offset uint32
	data   []byte
}

// scanJPEG walks the marker segments preceding the image data and
// collects the application payloads of interest.
func scanJPEG(data []byte) (*jpegSegments, error) {
	if len(data) < 2 || binary.BigEndian.Uint16(data) != markerSOI {
		return nil, fmt.Errorf("not a JPEG stream")
	}

	segs := &jpegSegments{}
	offset := 2
	for offset+4 <= len(data) {
		marker := binary.BigEndian.Uint16(data[offset:])
		if marker>>8 != 0xFF {
			return nil, fmt.Errorf("bad marker 0x%04X at offset %d", marker, offset)
		}
		if marker == markerSOS || marker == markerEOI {
			break
		}
		// RST0-RST7 and TEM are standalone markers without a length.
		if (marker >= 0xFFD0 && marker <= 0xFFD7) || marker == 0xFF01 {
			offset += 2
			continue
		}

		length := int(binary.BigEndian.Uint16(data[offset+2:]))
		if length < 2 || offset+2+length > len(data) {
			return nil, fmt.Errorf("truncated segment at offset %d", offset)
		}
		payload := data[offset+4 : offset+2+length]

		switch marker {
		case markerAPP0:
			if bytes.HasPrefix(payload, jfifIdentifier) {
				segs.jfif = payload[len(jfifIdentifier):]
			}
		case markerAPP1:
			if bytes.HasPrefix(payload, xmpIdentifier) {
				segs.xmp = payload[len(xmpIdentifier):]
			} else if bytes.HasPrefix(payload, extendedXMPHeader) {
				chunk, err := parseExtendedXMPChunk(payload[len(extendedXMPHeader):])
				if err != nil {
					return nil, err
				}
				segs.extendedXMP = append(segs.extendedXMP, chunk)
			}
		case markerAPP2:
			if bytes.HasPrefix(payload, iccIdentifier) {
				body := payload[len(iccIdentifier):]
				if len(body) < 2 {
					return nil, fmt.Errorf("short ICC_PROFILE chunk at offset %d", offset)
				}
				segs.iccChunks = append(segs.iccChunks, body)
			}
		}

		offset += 2 + length
	}
	return segs, nil
}

func parseExtendedXMPChunk(body []byte) (extendedXMPChunk, error) {
	if len(body) < 40 {
		return extendedXMPChunk{}, fmt.Errorf("ExtendedXMP chunk is %d bytes, want at least 40", len(body))
	}
	return extendedXMPChunk{
		guid:   string(body[:32]),
		full:   binary.BigEndian.Uint32(body[32:36]),
		offset: binary.BigEndian.Uint32(body[36:40]),
		data:   body[40:],
	}, nil
}

// assembleICC orders the ICC_PROFILE chunks by their one-based sequence
// byte and concatenates the profile bytes.
func assembleICC(chunks [][]byte) []byte {
	sort.SliceStable(chunks, func(i, j int) bool {
		return chunks[i][0] < chunks[j][0]
	})
	var buf bytes.Buffer
	for _, c := range chunks {
		buf.Write(c[2:])
	}
	return buf.Bytes()
}

// parseJFIF decodes the APP0 payload that follows the JFIF identifier:
// two version bytes, a density unit, the X/Y densities, and the embedded
// thumbnail dimensions.
func parseJFIF(payload []byte) (map[string]interface{}, error) {
	if len(payload) < 9 {
		return nil, fmt.Errorf("JFIF header is %d bytes, want at least 9", len(payload))
	}
	units := int(payload[2])
	return map[string]interface{}{
		"version_major":      int(payload[0]),
		"version_minor":      int(payload[1]),
		"density_units":      units,
		"density_units_name": densityUnitsName(units),
		"x_density":          int(binary.BigEndian.Uint16(payload[3:5])),
		"y_density":          int(binary.BigEndian.Uint16(payload[5:7])),
		"thumbnail_width":    int(payload[7]),
		"thumbnail_height":   int(payload[8]),
	}, nil
}

func densityUnitsName(units int) string {
	switch units {
	case 0:
		return "aspect ratio"
	case 1:
		return "pixels per inch"
	case 2:
		return "pixels per cm"
	}
	return "unknown"
}
