package request

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// maxSafeInteger is the largest integer a float64 represents exactly (2^53 - 1).
const maxSafeInteger = 1<<53 - 1

// parseJSON decodes body into a generic tree without losing precision:
// integers beyond ±(2^53-1) come back as their exact digit strings, other
// integers as int64 and the rest as float64.
func parseJSON(body []byte) (any, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return normalizeNumbers(v), nil
}

// normalizeNumbers walks a decoded tree replacing json.Number leaves.
func normalizeNumbers(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = normalizeNumbers(e)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = normalizeNumbers(e)
		}
		return t
	case json.Number:
		return normalizeNumber(t)
	default:
		return v
	}
}

func normalizeNumber(n json.Number) any {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil || i > maxSafeInteger || i < -maxSafeInteger {
			return s
		}
		return i
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) {
		return s
	}
	return f
}

// Long is an identifier that may exceed float64 precision. It accepts both a
// JSON number and a JSON string and always encodes as a string.
type Long string

func (l *Long) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*l = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*l = Long(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("long: %w", err)
	}
	*l = Long(n.String())
	return nil
}

func (l Long) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(l))
}

func (l Long) String() string { return string(l) }

// Int64 is an integer the backend sends either as a JSON number or as a
// digit string. It encodes as a number.
type Int64 int64

func (n *Int64) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	s := string(b)
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("int64: %w", err)
	}
	*n = Int64(v)
	return nil
}

func (n Int64) MarshalJSON() ([]byte, error) {
	return strconv.AppendInt(nil, int64(n), 10), nil
}
