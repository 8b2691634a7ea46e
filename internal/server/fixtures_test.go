package server

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/yerffejytnac/exif-mcp/internal/source"
)

// testTIFF assembles a little-endian TIFF stream with a fixed tag set:
// Make "GoCam", the given orientation, a GPS position of 10.5 N 20.25 E
// and, when thumb is non-nil, an IFD1 that embeds it as a preview.
func testTIFF(orientation int, thumb []byte) []byte {
	// Layout, in order: header, IFD0 (3 entries), Make overflow, GPS
	// directory (4 entries), rational overflow, then optionally IFD1 and
	// the preview bytes.
	const (
		ifd0Start  = 8
		ifd0Len    = 2 + 3*12 + 4
		makeOff    = ifd0Start + ifd0Len
		makeLen    = 6
		gpsStart   = makeOff + makeLen
		gpsLen     = 2 + 4*12 + 4
		latOff     = gpsStart + gpsLen
		longOff    = latOff + 24
		afterGPS   = longOff + 24
		ifd1Len    = 2 + 2*12 + 4
		thumbStart = afterGPS + ifd1Len
	)

	var buf bytes.Buffer
	w16 := func(v uint16) { binary.Write(&buf, binary.LittleEndian, v) }
	w32 := func(v uint32) { binary.Write(&buf, binary.LittleEndian, v) }
	entry := func(tag, typ uint16, count, value uint32) {
		w16(tag)
		w16(typ)
		w32(count)
		w32(value)
	}

	buf.WriteString("II")
	w16(42)
	w32(ifd0Start)

	ifd1Start := uint32(0)
	if thumb != nil {
		ifd1Start = afterGPS
	}
	w16(3)
	entry(0x010F, 2, makeLen, makeOff)       // Make, spilled ASCII
	entry(0x0112, 3, 1, uint32(orientation)) // Orientation, inline SHORT
	entry(0x8825, 4, 1, gpsStart)            // GPS IFD pointer
	w32(ifd1Start)
	buf.WriteString("GoCam\x00")

	w16(4)
	entry(0x0001, 2, 2, uint32('N')) // GPSLatitudeRef, inline ASCII
	entry(0x0002, 5, 3, latOff)      // GPSLatitude
	entry(0x0003, 2, 2, uint32('E')) // GPSLongitudeRef, inline ASCII
	entry(0x0004, 5, 3, longOff)     // GPSLongitude
	w32(0)
	for _, v := range []uint32{10, 1, 30, 1, 0, 1} { // 10 deg 30 min
		w32(v)
	}
	for _, v := range []uint32{20, 1, 15, 1, 0, 1} { // 20 deg 15 min
		w32(v)
	}

	if thumb != nil {
		w16(2)
		entry(0x0201, 4, 1, thumbStart)
		entry(0x0202, 4, 1, uint32(len(thumb)))
		w32(0)
		buf.Write(thumb)
	}
	return buf.Bytes()
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

// app1Segment builds one APP1 marker segment around the payload.
func app1Segment(payload []byte) []byte {
	length := len(payload) + 2
	seg := []byte{0xFF, 0xE1, byte(length >> 8), byte(length)}
	return append(seg, payload...)
}

// exifSegment wraps a TIFF stream into an APP1 EXIF segment.
func exifSegment(tiff []byte) []byte {
	return app1Segment(append([]byte("Exif\x00\x00"), tiff...))
}

// xmpSegment wraps an XMP packet into an APP1 segment.
func xmpSegment(packet string) []byte {
	return app1Segment(append([]byte("http://ns.adobe.com/xap/1.0/\x00"), packet...))
}

// jfifSegment builds an APP0 header: version 1.2, 72x72 dpi, no
// embedded thumbnail.
func jfifSegment() []byte {
	payload := []byte{'J', 'F', 'I', 'F', 0, 1, 2, 1, 0, 72, 0, 72, 0, 0}
	length := len(payload) + 2
	seg := []byte{0xFF, 0xE0, byte(length >> 8), byte(length)}
	return append(seg, payload...)
}

// exifJPEG is the standard handler fixture: a JPEG whose EXIF block
// testTIFF describes.
func exifJPEG(orientation int, thumb []byte) []byte {
	return buildJPEG(exifSegment(testTIFF(orientation, thumb)))
}

// encodeThumbJPEG renders a small gradient for embedding as a preview.
func encodeThumbJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 40), G: uint8(y * 40), B: 0x80, A: 0xFF})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode thumbnail fixture: %v", err)
	}
	return buf.Bytes()
}

const testXMPPacket = `<x:xmpmeta xmlns:x="adobe:ns:meta/">
 <rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">
  <rdf:Description rdf:about=""
    xmlns:xmp="http://ns.adobe.com/xap/1.0/"
    xmp:CreatorTool="GoCam 1.0"/>
 </rdf:RDF>
</x:xmpmeta>`

func newTestServer() *Server {
	return New(source.NewResolver(source.Options{}))
}

// callTool drives one tools/call round trip through handleToolsCall.
func callTool(t *testing.T, s *Server, name string, args map[string]interface{}) *MCPResponse {
	t.Helper()
	params, err := json.Marshal(map[string]interface{}{
		"name":      name,
		"arguments": args,
	})
	if err != nil {
		t.Fatalf("marshal params: %v", err)
	}
	req := &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  params,
	}
	return s.handleToolsCall(context.Background(), req)
}

// toolResult unwraps a tool response into its content entries, failing
// the test on a protocol error or an isError result.
func toolResult(t *testing.T, resp *MCPResponse) []map[string]interface{} {
	t.Helper()
	if resp.Error != nil {
		t.Fatalf("unexpected protocol error: %+v", resp.Error)
	}
	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatalf("result is %T, want map", resp.Result)
	}
	if result["isError"] == true {
		t.Fatalf("tool failed: %v", result["content"])
	}
	content, ok := result["content"].([]map[string]interface{})
	if !ok || len(content) == 0 {
		t.Fatalf("result has no content entries: %#v", result)
	}
	return content
}

// toolResultJSON decodes the text payload of a tool result.
func toolResultJSON(t *testing.T, resp *MCPResponse) map[string]interface{} {
	t.Helper()
	content := toolResult(t, resp)
	if content[0]["type"] != "text" {
		t.Fatalf("content type = %v, want text", content[0]["type"])
	}
	text, _ := content[0]["text"].(string)
	var out map[string]interface{}
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		t.Fatalf("result text is not JSON: %v\n%s", err, text)
	}
	return out
}

// toolErrorText unwraps a failed tool run, failing the test if the
// response is not an isError result.
func toolErrorText(t *testing.T, resp *MCPResponse) string {
	t.Helper()
	if resp.Error != nil {
		t.Fatalf("got protocol error, want isError result: %+v", resp.Error)
	}
	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatalf("result is %T, want map", resp.Result)
	}
	if result["isError"] != true {
		t.Fatalf("result is not flagged isError: %#v", result)
	}
	content, ok := result["content"].([]map[string]interface{})
	if !ok || len(content) == 0 {
		t.Fatalf("error result has no content: %#v", result)
	}
	text, _ := content[0]["text"].(string)
	return text
}
