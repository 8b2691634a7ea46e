package meta

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// webpICCProfile walks the RIFF chunks of a WebP stream and returns the
// ICCP payload, or nil when the stream carries none.
func webpICCProfile(data []byte) ([]byte, error) {
	if len(data) < 12 || !bytes.Equal(data[:4], []byte("RIFF")) || !bytes.Equal(data[8:12], []byte("WEBP")) {
		return nil, fmt.Errorf("not a WebP stream")
	}

	offset := 12
	for offset+8 <= len(data) {
		fourCC := string(data[offset : offset+4])
		length := int(binary.LittleEndian.Uint32(data[offset+4:]))
		dataStart := offset + 8
		if length < 0 || dataStart+length > len(data) {
			return nil, fmt.Errorf("truncated %s chunk at offset %d", fourCC, offset)
		}
		if fourCC == "ICCP" {
			return data[dataStart : dataStart+length], nil
		}
		// RIFF chunks are padded to even sizes.
		offset = dataStart + length + (length & 1)
	}
	return nil, nil
}
