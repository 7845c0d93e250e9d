package headers

import (
	"bytes"
	"iter"
	"regexp"
	"strings"
)

// https://datatracker.ietf.org/doc/html/rfc9110#name-tokens
var fieldNameRegex = regexp.MustCompile(`^[a-zA-Z0-9!#$%&'*\+\-.^_\x60\|~]+$`)

// Headers is a collection of HTTP header fields. Keys are case-insensitive
// and may carry multiple values; key insertion order is preserved so that
// serialized output is deterministic.
type Headers struct {
	values map[string][]string
	order  []string
}

// NewHeaders creates an empty Headers collection.
func NewHeaders() *Headers {
	return &Headers{
		values: map[string][]string{},
	}
}

func isValidFieldName(key string) bool {
	return fieldNameRegex.MatchString(key)
}

func validHeaderValueByte(c byte) bool {
	switch {
	case c == 0x09: // HTAB
		return true
	case c == 0x20: // SP
		return true
	case 0x21 <= c && c <= 0x7E: // VCHAR
		return true
	case c >= 0x80: // obs-text
		return true
	}
	return false
}

func isValidFieldValue(val []byte) bool {
	for _, b := range val {
		if !validHeaderValueByte(b) {
			return false
		}
	}
	return true
}

func normalizeKey(key string) string {
	return strings.ToLower(key)
}

// Add appends a value under the key, keeping any existing values.
func (h *Headers) Add(key, value string) {
	if !isValidFieldName(key) || !isValidFieldValue([]byte(value)) {
		// drop invalid headers to prevent response splitting
		return
	}

	key = normalizeKey(key)
	if _, ok := h.values[key]; !ok {
		h.order = append(h.order, key)
	}
	h.values[key] = append(h.values[key], value)
}

// Set replaces all values of the key with a single value.
func (h *Headers) Set(key, value string) {
	if !isValidFieldName(key) || !isValidFieldValue([]byte(value)) {
		return
	}

	key = normalizeKey(key)
	if _, ok := h.values[key]; !ok {
		h.order = append(h.order, key)
	}
	h.values[key] = []string{value}
}

// Get returns the first value of a header, or "" if absent.
func (h *Headers) Get(key string) string {
	vals := h.values[normalizeKey(key)]
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}

// Values returns all values stored under the key, in insertion order.
func (h *Headers) Values(key string) []string {
	return h.values[normalizeKey(key)]
}

// Has reports whether the key is present.
func (h *Headers) Has(key string) bool {
	_, ok := h.values[normalizeKey(key)]
	return ok
}

// Remove deletes a header and all its values.
func (h *Headers) Remove(key string) {
	key = normalizeKey(key)
	if _, ok := h.values[key]; !ok {
		return
	}
	delete(h.values, key)
	for i, k := range h.order {
		if k == key {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
}

// All returns an iterator over (key, value) pairs. Keys are yielded in
// insertion order; multi-valued keys yield one pair per value.
func (h *Headers) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, k := range h.order {
			for _, v := range h.values[k] {
				if !yield(k, v) {
					return
				}
			}
		}
	}
}

// ParseFieldLine parses a single header field line and adds it to the headers.
func (h *Headers) ParseFieldLine(data []byte) error {
	colonPos := bytes.IndexByte(data, ':')
	if colonPos == -1 {
		// colon not found
		return ErrMalformedHeader
	}

	// leading whitespace in header key is allowed
	hkey := bytes.TrimLeft(data[:colonPos], " \t")
	hvalue := bytes.Trim(data[colonPos+1:], " \t")

	if !bytes.Equal(hkey, bytes.TrimRight(hkey, " ")) {
		// space between key and colon, invalid
		return ErrMalformedHeader
	}

	if !fieldNameRegex.Match(hkey) || !isValidFieldValue(hvalue) {
		return ErrMalformedHeader
	}

	h.Add(string(hkey), string(hvalue))
	return nil
}

// Size returns the number of distinct header keys.
func (h *Headers) Size() int {
	return len(h.values)
}

// Clone returns a deep copy.
func (h *Headers) Clone() *Headers {
	c := NewHeaders()
	for _, k := range h.order {
		c.order = append(c.order, k)
		c.values[k] = append([]string(nil), h.values[k]...)
	}
	return c
}
