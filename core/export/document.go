package export

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

const indentUnit = "    "

// Member is a key/value pair of an Object.
type Member struct {
	Key   string
	Value any
}

// Object is a JSON object that keeps its members in insertion order.
type Object []Member

// MarshalJSON implements json.Marshaler. The output is compact.
func (o Object) MarshalJSON() ([]byte, error) {
	return appendValue(nil, o, 0, false)
}

// Number is a double that always serialises with a fractional part (180 -> 180.0).
type Number float64

// MarshalJSON implements json.Marshaler.
func (n Number) MarshalJSON() ([]byte, error) {
	return appendNumber(nil, n)
}

// Document is the exported array of track objects.
type Document []Object

// Encode renders the document as pretty-printed JSON followed by a newline.
// Strings are written unescaped apart from what JSON requires.
func (d Document) Encode() ([]byte, error) {
	out, err := appendValue(make([]byte, 0, 256*len(d)+3), d, 0, true)
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

// WriteTo writes the pretty-printed document to w. Nothing is written when
// encoding fails.
func (d Document) WriteTo(w io.Writer) (int64, error) {
	data, err := d.Encode()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}

func appendValue(dst []byte, v any, level int, pretty bool) ([]byte, error) {
	switch x := v.(type) {
	case Document:
		return appendArray(dst, len(x), level, pretty, func(dst []byte, i int) ([]byte, error) {
			return appendValue(dst, x[i], level+1, pretty)
		})
	case Object:
		return appendObject(dst, x, level, pretty)
	case []string:
		return appendArray(dst, len(x), level, pretty, func(dst []byte, i int) ([]byte, error) {
			return appendScalar(dst, x[i])
		})
	case Number:
		return appendNumber(dst, x)
	default:
		return appendScalar(dst, v)
	}
}

func appendObject(dst []byte, o Object, level int, pretty bool) ([]byte, error) {
	if len(o) == 0 {
		return append(dst, "{}"...), nil
	}
	var err error
	dst = append(dst, '{')
	for i, m := range o {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = newline(dst, level+1, pretty)
		if dst, err = appendScalar(dst, m.Key); err != nil {
			return nil, err
		}
		dst = append(dst, ':')
		if pretty {
			dst = append(dst, ' ')
		}
		if dst, err = appendValue(dst, m.Value, level+1, pretty); err != nil {
			return nil, fmt.Errorf("member %q: %w", m.Key, err)
		}
	}
	dst = newline(dst, level, pretty)
	return append(dst, '}'), nil
}

func appendArray(dst []byte, n, level int, pretty bool, elem func([]byte, int) ([]byte, error)) ([]byte, error) {
	if n == 0 {
		return append(dst, "[]"...), nil
	}
	var err error
	dst = append(dst, '[')
	for i := 0; i < n; i++ {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = newline(dst, level+1, pretty)
		if dst, err = elem(dst, i); err != nil {
			return nil, err
		}
	}
	dst = newline(dst, level, pretty)
	return append(dst, ']'), nil
}

// appendScalar encodes strings and integers. They never implement
// json.Marshaler, so MarshalNoEscape applies to them directly.
func appendScalar(dst []byte, v any) ([]byte, error) {
	b, err := json.MarshalNoEscape(v)
	if err != nil {
		return nil, err
	}
	return append(dst, b...), nil
}

func appendNumber(dst []byte, n Number) ([]byte, error) {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("unsupported number %v", f)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return append(dst, s...), nil
}

func newline(dst []byte, level int, pretty bool) []byte {
	if !pretty {
		return dst
	}
	dst = append(dst, '\n')
	for i := 0; i < level; i++ {
		dst = append(dst, indentUnit...)
	}
	return dst
}
