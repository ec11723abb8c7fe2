// emit.go — Deterministic JSON emission.
// encoding/json sorts map keys but offers no control over number formatting
// or member order, so artifacts are emitted through a small writer with
// explicit ordering: object members appear in insertion order, integers emit
// without a decimal point, floats emit minimally and never in scientific
// notation.
package export

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// Doc is an ordered JSON object. Members emit in Set order.
type Doc struct {
	keys   []string
	values map[string]any
}

// NewDoc creates an empty ordered object.
func NewDoc() *Doc {
	return &Doc{values: make(map[string]any)}
}

// Set adds or replaces a member. First Set fixes the position.
func (d *Doc) Set(key string, value any) *Doc {
	if _, exists := d.values[key]; !exists {
		d.keys = append(d.keys, key)
	}
	d.values[key] = value
	return d
}

// Len returns the member count.
func (d *Doc) Len() int { return len(d.keys) }

// Marshal renders the document to bytes. Output is byte-stable for equal
// input: two exports of the same state produce identical bytes.
func (d *Doc) Marshal() []byte {
	var b strings.Builder
	emitValue(&b, d)
	return []byte(b.String())
}

func emitValue(b *strings.Builder, v any) {
	switch val := v.(type) {
	case nil:
		b.WriteString("null")
	case *Doc:
		b.WriteByte('{')
		for i, key := range val.keys {
			if i > 0 {
				b.WriteByte(',')
			}
			emitString(b, key)
			b.WriteByte(':')
			emitValue(b, val.values[key])
		}
		b.WriteByte('}')
	case []any:
		b.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				b.WriteByte(',')
			}
			emitValue(b, item)
		}
		b.WriteByte(']')
	case []float64:
		b.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(FormatNumber(item))
		}
		b.WriteByte(']')
	case string:
		emitString(b, val)
	case bool:
		if val {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case int:
		b.WriteString(strconv.Itoa(val))
	case float64:
		b.WriteString(FormatNumber(val))
	default:
		// Unreachable for artifact content; emit null rather than panic.
		b.WriteString("null")
	}
}

// FormatNumber renders a float with minimal digits and no exponent.
// Integral values drop the decimal part entirely ("4", not "4.0").
func FormatNumber(f float64) string {
	if f == 0 {
		return "0" // normalize -0
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// FormatTimeKey renders a bucketed keyframe time as an object key with at
// least one fractional digit ("0.0", "0.5", "1.25").
func FormatTimeKey(t float64) string {
	if t == 0 {
		return "0.0"
	}
	s := strconv.FormatFloat(t, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

const hexDigits = "0123456789abcdef"

func emitString(b *strings.Builder, s string) {
	b.WriteByte('"')
	for i := 0; i < len(s); {
		c := s[i]
		if c < utf8.RuneSelf {
			switch {
			case c == '"':
				b.WriteString(`\"`)
			case c == '\\':
				b.WriteString(`\\`)
			case c == '\n':
				b.WriteString(`\n`)
			case c == '\r':
				b.WriteString(`\r`)
			case c == '\t':
				b.WriteString(`\t`)
			case c < 0x20:
				b.WriteString(`\u00`)
				b.WriteByte(hexDigits[c>>4])
				b.WriteByte(hexDigits[c&0xF])
			default:
				b.WriteByte(c)
			}
			i++
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			b.WriteString(`�`)
			i++
			continue
		}
		b.WriteString(s[i : i+size])
		i += size
	}
	b.WriteByte('"')
}
