package ir

import (
	"bytes"
	"fmt"
	"strconv"
	"unicode/utf8"
)

// MarshalCanonical produces RFC 8785 canonical JSON for a relation.
// CRITICAL: This is the ONLY serialization that should be used for
// content-addressed identity computation.
//
// Layout: an object with keys in sorted order, carrying only the fields the
// kind uses:
//
//	{"kind":"eval","lhs":"<hex>","target":"<hex>"}
//	{"index":3,"kind":"tree_entry","lhs":"<hex>","target":"<hex>"}
//	{"kind":"description","lhs":"<hex>","text":"..."}
//
// Description text is written byte for byte. Relations are equal only when
// their text is identical, so "caf\u00e9" and "cafe\u0301" get distinct IDs.
func MarshalCanonical(r Relation) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	port, target, pointer := r.RHS.Destination()
	if pointer && port.Kind == KindTreeEntry {
		buf.WriteString(`"index":`)
		buf.WriteString(strconv.FormatUint(port.Index, 10))
		buf.WriteByte(',')
	}

	kind := r.RHS.Kind()
	if int(kind) >= len(kindNames) {
		return nil, fmt.Errorf("unsupported relation kind for canonical JSON: %d", uint8(kind))
	}
	buf.WriteString(`"kind":`)
	writeCanonicalString(&buf, kind.String())
	buf.WriteString(`,"lhs":`)
	writeCanonicalString(&buf, r.LHS.String())

	if pointer {
		buf.WriteString(`,"target":`)
		writeCanonicalString(&buf, target.String())
	} else {
		buf.WriteString(`,"text":`)
		writeCanonicalString(&buf, r.RHS.Text())
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// writeCanonicalString writes a JSON string per RFC 8785:
//   - no HTML escaping (<, >, & are literal)
//   - U+2028 and U+2029 are literal
//   - only control characters, backslash and quote are escaped
func writeCanonicalString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	for i := 0; i < len(s); {
		c := s[i]
		if c >= utf8.RuneSelf {
			_, size := utf8.DecodeRuneInString(s[i:])
			buf.WriteString(s[i : i+size])
			i += size
			continue
		}
		switch c {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if c < 0x20 {
				fmt.Fprintf(buf, `\u%04x`, c)
			} else {
				buf.WriteByte(c)
			}
		}
		i++
	}
	buf.WriteByte('"')
}
