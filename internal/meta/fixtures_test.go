package meta

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"sort"
	"testing"
)

// Tag numbers used by the TIFF fixtures.
const (
	tagMake        = 0x010F
	tagOrientation = 0x0112
	tagGPSIFD      = 0x8825
	tagThumbOffset = 0x0201
	tagThumbLength = 0x0202
	tagGPSLatRef   = 0x0001
	tagGPSLat      = 0x0002
	tagGPSLongRef  = 0x0003
	tagGPSLong     = 0x0004
)

// tiffField is one IFD entry with its encoded value bytes.
type tiffField struct {
	tag   uint16
	typ   uint16
	count uint32
	value []byte
}

func shortField(tag uint16, v uint16) tiffField {
	val := make([]byte, 2)
	binary.LittleEndian.PutUint16(val, v)
	return tiffField{tag: tag, typ: 3, count: 1, value: val}
}

func longField(tag uint16, v uint32) tiffField {
	val := make([]byte, 4)
	binary.LittleEndian.PutUint32(val, v)
	return tiffField{tag: tag, typ: 4, count: 1, value: val}
}

func asciiField(tag uint16, s string) tiffField {
	val := append([]byte(s), 0)
	return tiffField{tag: tag, typ: 2, count: uint32(len(val)), value: val}
}

// rationalField encodes numerator/denominator pairs.
func rationalField(tag uint16, pairs ...uint32) tiffField {
	val := make([]byte, 4*len(pairs))
	for i, p := range pairs {
		binary.LittleEndian.PutUint32(val[i*4:], p)
	}
	return tiffField{tag: tag, typ: 5, count: uint32(len(pairs) / 2), value: val}
}

// tiffBuilder assembles little-endian TIFF streams from IFD0 fields, an
// optional GPS sub-directory and an optional IFD1 thumbnail.
type tiffBuilder struct {
	ifd0      []tiffField
	gps       []tiffField
	thumbnail []byte
}

func (b *tiffBuilder) build() []byte {
	ifdLen := func(n int) int { return 2 + n*12 + 4 }
	overflowLen := func(fields []tiffField) int {
		n := 0
		for _, f := range fields {
			if len(f.value) > 4 {
				n += len(f.value) + len(f.value)%2
			}
		}
		return n
	}

	ifd0 := append([]tiffField(nil), b.ifd0...)
	if len(b.gps) > 0 {
		ifd0 = append(ifd0, longField(tagGPSIFD, 0))
	}
	sortFields(ifd0)
	gps := append([]tiffField(nil), b.gps...)
	sortFields(gps)

	ifd0Start := 8
	gpsStart := ifd0Start + ifdLen(len(ifd0)) + overflowLen(ifd0)
	afterGPS := gpsStart
	if len(gps) > 0 {
		afterGPS = gpsStart + ifdLen(len(gps)) + overflowLen(gps)
	}

	ifd1Start := 0
	var ifd1 []tiffField
	if b.thumbnail != nil {
		ifd1Start = afterGPS
		thumbStart := ifd1Start + ifdLen(2)
		ifd1 = []tiffField{
			longField(tagThumbOffset, uint32(thumbStart)),
			longField(tagThumbLength, uint32(len(b.thumbnail))),
		}
	}

	if len(gps) > 0 {
		for i, f := range ifd0 {
			if f.tag == tagGPSIFD {
				ifd0[i] = longField(tagGPSIFD, uint32(gpsStart))
			}
		}
	}

	var buf bytes.Buffer
	buf.WriteString("II")
	le16(&buf, 42)
	le32(&buf, 8)
	writeIFD(&buf, ifd0, ifd0Start, uint32(ifd1Start))
	if len(gps) > 0 {
		writeIFD(&buf, gps, gpsStart, 0)
	}
	if b.thumbnail != nil {
		writeIFD(&buf, ifd1, ifd1Start, 0)
		buf.Write(b.thumbnail)
	}
	return buf.Bytes()
}

func sortFields(fields []tiffField) {
	sort.Slice(fields, func(i, j int) bool { return fields[i].tag < fields[j].tag })
}

// writeIFD serializes the directory at start, spilling values wider than
// four bytes into the area right after the entry table.
func writeIFD(buf *bytes.Buffer, fields []tiffField, start int, next uint32) {
	le16(buf, uint16(len(fields)))
	valOff := start + 2 + len(fields)*12 + 4
	var overflow bytes.Buffer
	for _, f := range fields {
		le16(buf, f.tag)
		le16(buf, f.typ)
		le32(buf, f.count)
		if len(f.value) <= 4 {
			var inline [4]byte
			copy(inline[:], f.value)
			buf.Write(inline[:])
			continue
		}
		le32(buf, uint32(valOff))
		overflow.Write(f.value)
		valOff += len(f.value)
		if len(f.value)%2 == 1 {
			overflow.WriteByte(0)
			valOff++
		}
	}
	le32(buf, next)
	buf.Write(overflow.Bytes())
}

func le16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func le32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

// standardGPS returns a sub-directory recording 10.5 N, 20.25 E.
func standardGPS() []tiffField {
	return []tiffField{
		asciiField(tagGPSLatRef, "N"),
		rationalField(tagGPSLat, 10, 1, 30, 1, 0, 1),
		asciiField(tagGPSLongRef, "E"),
		rationalField(tagGPSLong, 20, 1, 15, 1, 0, 1),
	}
}

// buildJPEG wraps marker segments into a minimal JPEG stream with a stub
// scan header so scanners terminate cleanly.
func buildJPEG(segments ...[]byte) []byte {
	var buf bytes.Buffer
	buf.Write([]byte{0xFF, 0xD8})
	for _, s := range segments {
		buf.Write(s)
	}
	buf.Write([]byte{0xFF, 0xDA, 0x00, 0x02})
	buf.Write([]byte{0xFF, 0xD9})
	return buf.Bytes()
}

// appSegment builds one APPn marker segment around the payload.
func appSegment(marker byte, payload []byte) []byte {
	seg := make([]byte, 0, 4+len(payload))
	seg = append(seg, 0xFF, marker)
	length := len(payload) + 2
	seg = append(seg, byte(length>>8), byte(length))
	return append(seg, payload...)
}

// exifSegment wraps a TIFF stream into an APP1 EXIF segment.
func exifSegment(tiff []byte) []byte {
	return appSegment(0xE1, append([]byte("Exif\x00\x00"), tiff...))
}

// xmpSegment wraps an XMP packet into an APP1 segment.
func xmpSegment(packet string) []byte {
	return appSegment(0xE1, append([]byte("http://ns.adobe.com/xap/1.0/\x00"), packet...))
}

// extendedXMPSegment builds one APP1 ExtendedXMP chunk.
func extendedXMPSegment(guid string, full, offset uint32, data []byte) []byte {
	payload := append([]byte("http://ns.adobe.com/xmp/extension/\x00"), guid...)
	var b [8]byte
	binary.BigEndian.PutUint32(b[0:4], full)
	binary.BigEndian.PutUint32(b[4:8], offset)
	payload = append(payload, b[:]...)
	payload = append(payload, data...)
	return appSegment(0xE1, payload)
}

// jfifSegment builds an APP0 header: version 1.2, 72x72 dpi, no
// embedded thumbnail.
func jfifSegment() []byte {
	return appSegment(0xE0, []byte{'J', 'F', 'I', 'F', 0, 1, 2, 1, 0, 72, 0, 72, 0, 0})
}

// iccSegments splits a profile into APP2 ICC_PROFILE chunks of at most
// chunkSize profile bytes each.
func iccSegments(profile []byte, chunkSize int) [][]byte {
	total := (len(profile) + chunkSize - 1) / chunkSize
	var chunks [][]byte
	for i := 0; i < total; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if end > len(profile) {
			end = len(profile)
		}
		payload := append([]byte("ICC_PROFILE\x00"), byte(i+1), byte(total))
		payload = append(payload, profile[start:end]...)
		chunks = append(chunks, appSegment(0xE2, payload))
	}
	return chunks
}

// buildICCProfile builds a minimal display profile carrying one desc tag.
func buildICCProfile(description string) []byte {
	text := append([]byte(description), 0)
	desc := make([]byte, 12+len(text))
	copy(desc[0:4], "desc")
	binary.BigEndian.PutUint32(desc[8:12], uint32(len(text)))
	copy(desc[12:], text)

	const headerLen = 128
	tagTableLen := 4 + 12
	profile := make([]byte, headerLen+tagTableLen+len(desc))
	binary.BigEndian.PutUint32(profile[0:4], uint32(len(profile)))
	copy(profile[4:8], "ADBE")
	profile[8] = 4
	profile[9] = 0x30
	copy(profile[12:16], "mntr")
	copy(profile[16:20], "RGB ")
	copy(profile[20:24], "XYZ ")
	binary.BigEndian.PutUint16(profile[24:26], 2024)
	binary.BigEndian.PutUint16(profile[26:28], 1)
	binary.BigEndian.PutUint16(profile[28:30], 15)
	copy(profile[36:40], "acsp")
	copy(profile[40:44], "APPL")
	binary.BigEndian.PutUint32(profile[64:68], 0)
	copy(profile[80:84], "ADBE")

	binary.BigEndian.PutUint32(profile[headerLen:], 1)
	entry := headerLen + 4
	copy(profile[entry:entry+4], "desc")
	binary.BigEndian.PutUint32(profile[entry+4:], uint32(headerLen+tagTableLen))
	binary.BigEndian.PutUint32(profile[entry+8:], uint32(len(desc)))
	copy(profile[headerLen+tagTableLen:], desc)
	return profile
}

// pngChunk builds one chunk with a correct CRC.
func pngChunk(ctype string, payload []byte) []byte {
	chunk := make([]byte, 0, 12+len(payload))
	var lenb [4]byte
	binary.BigEndian.PutUint32(lenb[:], uint32(len(payload)))
	chunk = append(chunk, lenb[:]...)
	chunk = append(chunk, ctype...)
	chunk = append(chunk, payload...)
	crc := crc32.NewIEEE()
	crc.Write([]byte(ctype))
	crc.Write(payload)
	var crcb [4]byte
	binary.BigEndian.PutUint32(crcb[:], crc.Sum32())
	return append(chunk, crcb[:]...)
}

// buildPNG assembles a stream from the signature, the given chunks, a
// stub IDAT and IEND.
func buildPNG(chunks ...[]byte) []byte {
	var buf bytes.Buffer
	buf.Write(pngSignature)
	for _, c := range chunks {
		buf.Write(c)
	}
	buf.Write(pngChunk("IDAT", []byte{0}))
	buf.Write(pngChunk("IEND", nil))
	return buf.Bytes()
}

// ihdrPayload builds the 13-byte IHDR body.
func ihdrPayload(width, height uint32, bitDepth, colorType byte) []byte {
	p := make([]byte, 13)
	binary.BigEndian.PutUint32(p[0:4], width)
	binary.BigEndian.PutUint32(p[4:8], height)
	p[8] = bitDepth
	p[9] = colorType
	return p
}

// encodeTestJPEG renders a small gradient and encodes it for embedding
// as a thumbnail.
func encodeTestJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 40), G: uint8(y * 40), B: 0x80, A: 0xFF})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode test JPEG: %v", err)
	}
	return buf.Bytes()
}

// testXMPPacket exercises attribute properties, a Bag list and an Alt
// with a default language.
const testXMPPacket = `<x:xmpmeta xmlns:x="adobe:ns:meta/">
 <rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">
  <rdf:Description rdf:about=""
    xmlns:xmp="http://ns.adobe.com/xap/1.0/"
    xmlns:dc="http://purl.org/dc/elements/1.1/"
    xmp:CreatorTool="GoCam 1.0">
   <dc:subject>
    <rdf:Bag>
     <rdf:li>harbor</rdf:li>
     <rdf:li>sunset</rdf:li>
    </rdf:Bag>
   </dc:subject>
   <dc:title>
    <rdf:Alt>
     <rdf:li xml:lang="x-default">Harbor at dusk</rdf:li>
     <rdf:li xml:lang="de">Hafen</rdf:li>
    </rdf:Alt>
   </dc:title>
  </rdf:Description>
 </rdf:RDF>
</x:xmpmeta>`
