package meta

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
)

// xmpKeyword is the iTXt keyword Adobe registered for XMP packets.
const xmpKeyword = "XML:com.adobe.xmp"

// pngChunks holds the metadata-bearing chunks of a PNG stream.
type pngChunks struct {
	ihdr       []byte
	iccProfile []byte // decompressed iCCP payload
	xmp        []byte // iTXt XMP packet
}

// scanPNG walks the chunk sequence and collects IHDR, iCCP and the XMP
// iTXt chunk. The walk stops at IEND.
func scanPNG(data []byte) (*pngChunks, error) {
	if len(data) < 8 || !bytes.Equal(data[:8], pngSignature) {
		return nil, fmt.Errorf("not a PNG stream")
	}

	chunks := &pngChunks{}
	offset := 8
	for offset+8 <= len(data) {
		length := int(binary.BigEndian.Uint32(data[offset:]))
		ctype := string(data[offset+4 : offset+8])
		dataStart := offset + 8
		if length < 0 || dataStart+length+4 > len(data) {
			return nil, fmt.Errorf("truncated %s chunk at offset %d", ctype, offset)
		}
		payload := data[dataStart : dataStart+length]

		switch ctype {
		case "IHDR":
			chunks.ihdr = payload
		case "iCCP":
			profile, err := parseICCP(payload)
			if err != nil {
				return nil, err
			}
			chunks.iccProfile = profile
		case "iTXt":
			keyword, text, err := parseITXt(payload)
			if err != nil {
				return nil, err
			}
			if keyword == xmpKeyword {
				chunks.xmp = text
			}
		case "IEND":
			return chunks, nil
		}

		// Skip the CRC trailing each chunk.
		offset = dataStart + length + 4
	}
	return chunks, nil
}

// parseICCP decompresses an iCCP chunk: a NUL-terminated profile name, a
// compression method byte (zlib is the only defined method), then the
// compressed profile.
func parseICCP(payload []byte) ([]byte, error) {
	idx := bytes.IndexByte(payload, 0)
	if idx < 0 || idx+2 > len(payload) {
		return nil, fmt.Errorf("malformed iCCP chunk")
	}
	if method := payload[idx+1]; method != 0 {
		return nil, fmt.Errorf("unknown iCCP compression method %d", method)
	}
	z, err := zlib.NewReader(bytes.NewReader(payload[idx+2:]))
	if err != nil {
		return nil, fmt.Errorf("decompress iCCP chunk: %w", err)
	}
	defer z.Close()
	profile, err := io.ReadAll(z)
	if err != nil {
		return nil, fmt.Errorf("decompress iCCP chunk: %w", err)
	}
	return profile, nil
}

// parseITXt splits an iTXt chunk into keyword and text, inflating the
// text when the compression flag is set.
func parseITXt(payload []byte) (string, []byte, error) {
	idx := bytes.IndexByte(payload, 0)
	if idx < 0 || idx+3 > len(payload) {
		return "", nil, fmt.Errorf("malformed iTXt chunk")
	}
	keyword := string(payload[:idx])
	compressed := payload[idx+1] == 1
	rest := payload[idx+3:]

	// Skip the language tag and the translated keyword.
	for i := 0; i < 2; i++ {
		j := bytes.IndexByte(rest, 0)
		if j < 0 {
			return "", nil, fmt.Errorf("malformed iTXt chunk")
		}
		rest = rest[j+1:]
	}

	if !compressed {
		return keyword, rest, nil
	}
	z, err := zlib.NewReader(bytes.NewReader(rest))
	if err != nil {
		return "", nil, fmt.Errorf("decompress iTXt chunk: %w", err)
	}
	defer z.Close()
	text, err := io.ReadAll(z)
	if err != nil {
		return "", nil, fmt.Errorf("decompress iTXt chunk: %w", err)
	}
	return keyword, text, nil
}

// parseIHDR decodes the fixed 13-byte IHDR payload.
func parseIHDR(payload []byte) (map[string]interface{}, error) {
	if len(payload) < 13 {
		return nil, fmt.Errorf("IHDR is %d bytes, want 13", len(payload))
	}
	colorType := int(payload[9])
	return map[string]interface{}{
		"width":           int(binary.BigEndian.Uint32(payload[0:4])),
		"height":          int(binary.BigEndian.Uint32(payload[4:8])),
		"bit_depth":       int(payload[8]),
		"color_type":      colorType,
		"color_type_name": colorTypeName(colorType),
		"compression":     int(payload[10]),
		"filter":          int(payload[11]),
		"interlace":       int(payload[12]),
	}, nil
}

func colorTypeName(colorType int) string {
	switch colorType {
	case 0:
		return "grayscale"
	case 2:
		return "truecolor"
	case 3:
		return "indexed"
	case 4:
		return "grayscale with alpha"
	case 6:
		return "truecolor with alpha"
	}
	return "unknown"
}
