package request

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
)

// Envelope is the wrapper around every backend response body.
type Envelope[T any] struct {
	Code    int    `json:"code,omitempty"`
	Status  int    `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
	Data    T      `json:"data"`
}

// Unwrap returns the payload.
func (e Envelope[T]) Unwrap() T { return e.Data }

// decodeBody decodes the raw body into a typed value. Typed decoding reads
// integers straight from their digits, so int64 fields keep full precision.
func decodeBody[T any](body []byte) (T, error) {
	var out T
	if len(bytes.TrimSpace(body)) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, fmt.Errorf("decode body: %w", err)
	}
	return out, nil
}
