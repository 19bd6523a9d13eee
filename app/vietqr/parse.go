package vietqr

import (
	"errors"
	"fmt"
	"strconv"
)

var ErrChecksumMismatch = errors.New("vietqr: checksum mismatch")

// Field is one decoded id/length/value triple
type Field struct {
	ID    string
	Value string
}

// ParseFields splits a TLV string into its fields without descending into nested values
func ParseFields(s string) ([]Field, error) {
	var fields []Field
	for i := 0; i < len(s); {
		if i+4 > len(s) {
			return nil, fmt.Errorf("vietqr: truncated field header at offset %d", i)
		}
		id := s[i : i+2]
		n, err := strconv.Atoi(s[i+2 : i+4])
		if err != nil {
			return nil, fmt.Errorf("vietqr: bad length for field %s: %w", id, err)
		}
		start := i + 4
		if start+n > len(s) {
			return nil, fmt.Errorf("vietqr: field %s overruns payload", id)
		}
		fields = append(fields, Field{ID: id, Value: s[start : start+n]})
		i = start + n
	}
	return fields, nil
}

// Lookup returns the value of the first field with the given id
func Lookup(fields []Field, id string) (string, bool) {
	for _, f := range fields {
		if f.ID == id {
			return f.Value, true
		}
	}
	return "", false
}

// Verify checks that the payload ends in a CRC field matching its content
func Verify(payload string) error {
	tail := len(crcFieldPrefix) + 4
	if len(payload) < tail || payload[len(payload)-tail:len(payload)-4] != crcFieldPrefix {
		return fmt.Errorf("vietqr: payload has no checksum field")
	}
	body := payload[:len(payload)-4]
	if got, want := payload[len(payload)-4:], CRC16Hex(body); got != want {
		return fmt.Errorf("%w: got %s, want %s", ErrChecksumMismatch, got, want)
	}
	return nil
}
