// Package message implements the wire-independent data model shared by the
// HTTP/1.1 and HTTP/2 pipelines: an ordered, case-insensitive header set, a
// cookie jar serialized separately from the header map, and the tagged body
// variants a request or response can carry.
package message

import (
	"net/http"
	"strings"
)

// Header is an ordered, case-insensitive-lookup field-name -> field-value
// mapping. Insertion order is preserved for serialization; lookups are
// case-insensitive per RFC 7230.
type Header struct {
	names  []string // canonical names, in insertion order
	values []string
	index  map[string]int // lower(name) -> position in names/values
}

// NewHeader returns an empty header set.
func NewHeader() *Header {
	return &Header{index: make(map[string]int)}
}

// Set replaces the value of name (adding it if absent), preserving the
// position of an existing entry.
func (h *Header) Set(name, value string) {
	key := strings.ToLower(name)
	if i, ok := h.index[key]; ok {
		h.values[i] = value
		return
	}
	h.index[key] = len(h.names)
	h.names = append(h.names, canonicalize(name))
	h.values = append(h.values, value)
}

// Add appends a value under name without removing any existing entry for
// the same name. Only the first entry for a name is reachable via Get; Add
// exists for headers that legally repeat (h2.Conn uses it for repeated
// request fields), in parity with net/http.Header.Add.
func (h *Header) Add(name, value string) {
	if _, ok := h.index[strings.ToLower(name)]; !ok {
		h.Set(name, value)
		return
	}
	h.names = append(h.names, canonicalize(name))
	h.values = append(h.values, value)
}

// Get returns the first value for name and whether it was present.
func (h *Header) Get(name string) (string, bool) {
	if i, ok := h.index[strings.ToLower(name)]; ok {
		return h.values[i], true
	}
	return "", false
}

// Del removes the first entry for name, if present. Further entries that
// Add appended under the same name stay in the set.
func (h *Header) Del(name string) {
	key := strings.ToLower(name)
	i, ok := h.index[key]
	if !ok {
		return
	}
	h.names = append(h.names[:i], h.names[i+1:]...)
	h.values = append(h.values[:i], h.values[i+1:]...)
	delete(h.index, key)
	for k, v := range h.index {
		if v > i {
			h.index[k] = v - 1
		}
	}
}

// Len reports the number of entries.
func (h *Header) Len() int { return len(h.names) }

// Range calls fn for every entry in insertion order.
func (h *Header) Range(fn func(name, value string)) {
	for i, n := range h.names {
		fn(n, h.values[i])
	}
}

func canonicalize(name string) string {
	return http.CanonicalHeaderKey(name)
}
