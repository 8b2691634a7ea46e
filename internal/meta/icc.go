package meta

import (
	"encoding/binary"
	"fmt"
	"strings"
	"time"
	"unicode/utf16"
)

// iccTextTags maps the textual tag signatures worth surfacing to their
// result keys.
var iccTextTags = map[string]string{
	"desc": "description",
	"cprt": "copyright",
	"dmnd": "device_manufacturer_description",
	"dmdd": "device_model_description",
	"vued": "viewing_conditions_description",
}

// DecodeICC parses an ICC profile's header and the textual entries of its
// tag table into a flat map.
//
// Four-character signatures are reported as trimmed strings, the header
// date as RFC 3339. Tag entries of type text, desc or mluc become string
// values; every tag signature present is also listed under "tags".
func DecodeICC(profile []byte) (map[string]interface{}, error) {
	if len(profile) < 128 {
		return nil, fmt.Errorf("ICC profile is %d bytes, the header alone is 128", len(profile))
	}

	deviceClass := iccSignature(profile[12:16])
	out := map[string]interface{}{
		"profile_size":     int(binary.BigEndian.Uint32(profile[0:4])),
		"cmm_type":         iccSignature(profile[4:8]),
		"version":          fmt.Sprintf("%d.%d.%d", profile[8], profile[9]>>4, profile[9]&0xF),
		"device_class":     deviceClass,
		"color_space":      iccSignature(profile[16:20]),
		"connection_space": iccSignature(profile[20:24]),
		"platform":         iccSignature(profile[40:44]),
		"manufacturer":     iccSignature(profile[48:52]),
		"model":            iccSignature(profile[52:56]),
		"rendering_intent": renderingIntentName(binary.BigEndian.Uint32(profile[64:68])),
		"creator":          iccSignature(profile[80:84]),
	}
	if name := deviceClassName(deviceClass); name != "" {
		out["device_class_name"] = name
	}
	if created := iccDateTime(profile[24:36]); !created.IsZero() {
		out["created"] = created.Format(time.RFC3339)
	}

	if len(profile) < 132 {
		return out, nil
	}
	count := int(binary.BigEndian.Uint32(profile[128:132]))
	if count < 0 || count > 1024 {
		return nil, fmt.Errorf("ICC tag count %d is not plausible", count)
	}

	var sigs []string
	for i := 0; i < count; i++ {
		entry := 132 + i*12
		if entry+12 > len(profile) {
			return nil, fmt.Errorf("ICC tag table is truncated")
		}
		sig := iccSignature(profile[entry : entry+4])
		off := int(binary.BigEndian.Uint32(profile[entry+4 : entry+8]))
		size := int(binary.BigEndian.Uint32(profile[entry+8 : entry+12]))
		if off < 0 || size < 8 || off+size > len(profile) {
			// Entries pointing outside the profile are skipped rather
			// than failing the whole decode.
			continue
		}
		sigs = append(sigs, sig)
		if key, ok := iccTextTags[sig]; ok {
			if text := decodeICCText(profile[off : off+size]); text != "" {
				out[key] = text
			}
		}
	}
	if len(sigs) > 0 {
		out["tags"] = sigs
	}
	return out, nil
}

// iccSignature renders a four-byte signature as printable text.
func iccSignature(b []byte) string {
	return strings.TrimRight(string(b[:4]), "\x00 ")
}

// iccDateTime decodes the 12-byte dateTimeNumber in the profile header.
func iccDateTime(b []byte) time.Time {
	year := int(binary.BigEndian.Uint16(b[0:2]))
	if year == 0 {
		return time.Time{}
	}
	return time.Date(year,
		time.Month(binary.BigEndian.Uint16(b[2:4])),
		int(binary.BigEndian.Uint16(b[4:6])),
		int(binary.BigEndian.Uint16(b[6:8])),
		int(binary.BigEndian.Uint16(b[8:10])),
		int(binary.BigEndian.Uint16(b[10:12])),
		0, time.UTC)
}

func renderingIntentName(intent uint32) string {
	switch intent {
	case 0:
		return "perceptual"
	case 1:
		return "relative colorimetric"
	case 2:
		return "saturation"
	case 3:
		return "absolute colorimetric"
	}
	return fmt.Sprintf("unknown (%d)", intent)
}

func deviceClassName(class string) string {
	switch class {
	case "scnr":
		return "input"
	case "mntr":
		return "display"
	case "prtr":
		return "output"
	case "link":
		return "device link"
	case "spac":
		return "color space"
	case "abst":
		return "abstract"
	case "nmcl":
		return "named color"
	}
	return ""
}

// decodeICCText handles the three textual tag encodings.
func decodeICCText(data []byte) string {
	if len(data) < 8 {
		return ""
	}
	switch iccSignature(data[0:4]) {
	case "text":
		return strings.TrimRight(string(data[8:]), "\x00")
	case "desc":
		// Type and reserved words, then the ASCII count and string.
		if len(data) < 12 {
			return ""
		}
		n := int(binary.BigEndian.Uint32(data[8:12]))
		if n <= 0 || 12+n > len(data) {
			return ""
		}
		return strings.TrimRight(string(data[12:12+n]), "\x00")
	case "mluc":
		return decodeMLUC(data)
	}
	return ""
}

// decodeMLUC returns the first record of a multi-localized unicode tag.
func decodeMLUC(data []byte) string {
	if len(data) < 28 {
		return ""
	}
	if int(binary.BigEndian.Uint32(data[8:12])) < 1 {
		return ""
	}
	strLen := int(binary.BigEndian.Uint32(data[20:24]))
	strOff := int(binary.BigEndian.Uint32(data[24:28]))
	if strLen < 0 || strOff < 0 || strOff+strLen > len(data) {
		return ""
	}
	raw := data[strOff : strOff+strLen]
	u := make([]uint16, 0, len(raw)/2)
	for i := 0; i+1 < len(raw); i += 2 {
		u = append(u, binary.BigEndian.Uint16(raw[i:]))
	}
	return strings.TrimRight(string(utf16.Decode(u)), "\x00")
}
