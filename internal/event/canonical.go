package event

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces deterministic JSON for an event: object keys
// sorted, strings NFC-normalized, no HTML escaping, shortest-round-trip
// floats. Sinks and golden tests rely on byte-for-byte stable output for
// the same event, so this is the only serialization they use.
func MarshalCanonical(e *Event) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	buf.WriteString(`"id":`)
	writeCanonicalString(&buf, e.ID)

	buf.WriteString(`,"timestamp":`)
	writeCanonicalString(&buf, e.Timestamp.UTC().Format(time.RFC3339Nano))

	buf.WriteString(`,"fields":`)
	if err := writeCanonicalValue(&buf, e.Fields); err != nil {
		return nil, fmt.Errorf("marshal event %s: %w", e.ID, err)
	}

	if len(e.Tags) > 0 {
		buf.WriteString(`,"tags":`)
		tags := make([]any, len(e.Tags))
		for i, t := range e.Tags {
			tags[i] = t
		}
		if err := writeCanonicalValue(&buf, tags); err != nil {
			return nil, fmt.Errorf("marshal event %s: %w", e.ID, err)
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeCanonicalValue(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
	case string:
		writeCanonicalString(buf, val)
	case bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case int:
		buf.WriteString(strconv.Itoa(val))
	case int64:
		buf.WriteString(strconv.FormatInt(val, 10))
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return fmt.Errorf("non-finite float %v", val)
		}
		// Serialize integral floats as integers so values survive a
		// decode/encode round trip through encoding/json unchanged.
		if val == math.Trunc(val) && math.Abs(val) < 1e15 {
			buf.WriteString(strconv.FormatFloat(val, 'f', -1, 64))
		} else {
			buf.WriteString(strconv.FormatFloat(val, 'g', -1, 64))
		}
	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonicalValue(buf, elem); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeCanonicalString(buf, k)
			buf.WriteByte(':')
			if err := writeCanonicalValue(buf, val[k]); err != nil {
				return fmt.Errorf("[%q]: %w", k, err)
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("unsupported type: %T", v)
	}
	return nil
}

// writeCanonicalString writes a JSON string with NFC normalization and
// HTML escaping disabled (<, >, & stay literal).
func writeCanonicalString(buf *bytes.Buffer, s string) {
	normalized := norm.NFC.String(s)

	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	// Encode on a string cannot fail.
	_ = enc.Encode(normalized)

	// json.Encoder adds a trailing newline, remove it.
	b := buf.Bytes()
	if len(b) > 0 && b[len(b)-1] == '\n' {
		buf.Truncate(len(b) - 1)
	}
}
