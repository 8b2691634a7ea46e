package meta

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

const (
	rdfNS = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	xmlNS = "http://www.w3.org/XML/1998/namespace"
)

// maxExtendedXMPLen bounds the reassembled ExtendedXMP packet. Real
// packets carry pano data or edit history and stay far below this.
const maxExtendedXMPLen = 1 << 26

// flattenXMP reduces an XMP packet to a flat property map keyed by local
// property name.
//
// Attributes of rdf:Description elements and simple child elements map to
// string values. rdf:Seq and rdf:Bag containers become string slices;
// rdf:Alt collapses to its x-default (or first) item. Structured values
// flatten recursively into nested maps.
func flattenXMP(packet []byte) (map[string]interface{}, error) {
	dec := xml.NewDecoder(bytes.NewReader(packet))
	props := make(map[string]interface{})
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse XMP packet: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if start.Name.Space == rdfNS && start.Name.Local == "Description" {
			if err := flattenDescription(dec, start, props); err != nil {
				return nil, fmt.Errorf("parse XMP packet: %w", err)
			}
		}
	}
	return props, nil
}

// flattenDescription consumes one rdf:Description element, folding its
// attributes and child property elements into props.
func flattenDescription(dec *xml.Decoder, start xml.StartElement, props map[string]interface{}) error {
	for _, attr := range start.Attr {
		if isReservedAttr(attr.Name) {
			continue
		}
		props[attr.Name.Local] = attr.Value
	}
	for {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			val, err := flattenProperty(dec, t)
			if err != nil {
				return err
			}
			if val != nil {
				props[t.Name.Local] = val
			}
		case xml.EndElement:
			return nil
		}
	}
}

// isReservedAttr reports namespace declarations and RDF/XML machinery
// that do not carry property values.
func isReservedAttr(name xml.Name) bool {
	if name.Space == "xmlns" || name.Local == "xmlns" {
		return true
	}
	if name.Space == rdfNS {
		return true
	}
	// The decoder leaves the reserved xml prefix unresolved.
	return name.Space == "xml" || name.Space == xmlNS
}

// flattenProperty consumes one property element and returns its value: a
// string for simple properties, a []string for Seq/Bag containers, the
// preferred alternative for Alt, or a nested map for structured values.
func flattenProperty(dec *xml.Decoder, start xml.StartElement) (interface{}, error) {
	var text strings.Builder
	var list interface{}
	var nested map[string]interface{}

	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.CharData:
			text.Write(t)
		case xml.StartElement:
			switch {
			case t.Name.Space == rdfNS && (t.Name.Local == "Seq" || t.Name.Local == "Bag"):
				items, _, err := collectListItems(dec)
				if err != nil {
					return nil, err
				}
				list = items
			case t.Name.Space == rdfNS && t.Name.Local == "Alt":
				items, langs, err := collectListItems(dec)
				if err != nil {
					return nil, err
				}
				list = preferredAlternative(items, langs)
			case t.Name.Space == rdfNS && t.Name.Local == "Description":
				if nested == nil {
					nested = make(map[string]interface{})
				}
				if err := flattenDescription(dec, t, nested); err != nil {
					return nil, err
				}
			default:
				// A child property element: this is a structured value
				// written without an explicit rdf:Description.
				if nested == nil {
					nested = make(map[string]interface{})
				}
				val, err := flattenProperty(dec, t)
				if err != nil {
					return nil, err
				}
				if val != nil {
					nested[t.Name.Local] = val
				}
			}
		case xml.EndElement:
			if list != nil {
				return list, nil
			}
			if nested != nil {
				return nested, nil
			}
			if s := strings.TrimSpace(text.String()); s != "" {
				return s, nil
			}
			return nil, nil
		}
	}
}

// collectListItems reads the rdf:li children of a container element,
// returning their text alongside any xml:lang qualifiers.
func collectListItems(dec *xml.Decoder) (items, langs []string, err error) {
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != rdfNS || t.Name.Local != "li" {
				if err := dec.Skip(); err != nil {
					return nil, nil, err
				}
				continue
			}
			lang := ""
			for _, attr := range t.Attr {
				if attr.Name.Local == "lang" {
					lang = attr.Value
				}
			}
			item, err := collectItemText(dec)
			if err != nil {
				return nil, nil, err
			}
			items = append(items, item)
			langs = append(langs, lang)
		case xml.EndElement:
			return items, langs, nil
		}
	}
}

// collectItemText gathers the character data of one rdf:li element,
// ignoring any markup nested inside it.
func collectItemText(dec *xml.Decoder) (string, error) {
	var sb strings.Builder
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			if depth == 1 {
				sb.Write(t)
			}
		}
	}
	return strings.TrimSpace(sb.String()), nil
}

// preferredAlternative picks the x-default item of an rdf:Alt container,
// falling back to the first item.
func preferredAlternative(items, langs []string) interface{} {
	if len(items) == 0 {
		return nil
	}
	for i, lang := range langs {
		if lang == "x-default" {
			return items[i]
		}
	}
	return items[0]
}

// mergeExtendedXMP reassembles the extension packet named by the main
// packet's HasExtendedXMP property and folds its properties in. Main
// packet properties win on collision.
func mergeExtendedXMP(props map[string]interface{}, chunks []extendedXMPChunk) (map[string]interface{}, error) {
	guid, _ := props["HasExtendedXMP"].(string)
	if guid == "" {
		// Without the GUID there is no trusted link to the chunks.
		return props, nil
	}
	packet, err := reassembleExtendedXMP(chunks, guid)
	if err != nil {
		return nil, err
	}
	ext, err := flattenXMP(packet)
	if err != nil {
		return nil, err
	}
	if props == nil {
		return ext, nil
	}
	for k, v := range ext {
		if _, exists := props[k]; !exists {
			props[k] = v
		}
	}
	return props, nil
}

// reassembleExtendedXMP stitches the chunks carrying the given GUID back
// into one packet using each chunk's declared offset.
func reassembleExtendedXMP(chunks []extendedXMPChunk, guid string) ([]byte, error) {
	var full uint32
	for _, c := range chunks {
		if c.guid == guid {
			full = c.full
			break
		}
	}
	if full == 0 {
		return nil, fmt.Errorf("no ExtendedXMP chunks carry GUID %s", guid)
	}
	if full > maxExtendedXMPLen {
		return nil, fmt.Errorf("ExtendedXMP packet of %d bytes exceeds the %d byte limit", full, maxExtendedXMPLen)
	}

	packet := make([]byte, full)
	for _, c := range chunks {
		if c.guid != guid {
			continue
		}
		if int(c.offset)+len(c.data) > len(packet) {
			return nil, fmt.Errorf("ExtendedXMP chunk at offset %d overflows the %d byte packet", c.offset, full)
		}
		copy(packet[c.offset:], c.data)
	}
	return packet, nil
}
