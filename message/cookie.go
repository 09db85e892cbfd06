package message

import (
	"net/http"
	"strings"
)

// Jar is the cookie sidecar carried alongside a Header set. The Cookie
// header uses its own grammar (a single line of semicolon-separated
// name=value pairs on requests, repeated Set-Cookie lines on responses) so
// it is parsed and serialized independently of the header map rather than
// stored as a plain header value.
type Jar struct {
	order   []string
	morsels map[string]*http.Cookie
}

// NewJar returns an empty cookie jar.
func NewJar() *Jar {
	return &Jar{morsels: make(map[string]*http.Cookie)}
}

// Set stores a morsel under name, preserving insertion order for new names.
func (j *Jar) Set(name string, c *http.Cookie) {
	if _, ok := j.morsels[name]; !ok {
		j.order = append(j.order, name)
	}
	j.morsels[name] = c
}

// Get returns the morsel for name and whether it is present.
func (j *Jar) Get(name string) (*http.Cookie, bool) {
	c, ok := j.morsels[name]
	return c, ok
}

// Has reports whether name is present in the jar.
func (j *Jar) Has(name string) bool {
	_, ok := j.morsels[name]
	return ok
}

// Len reports the number of morsels in the jar.
func (j *Jar) Len() int { return len(j.order) }

// Range calls fn for every morsel in insertion order.
func (j *Jar) Range(fn func(name string, c *http.Cookie)) {
	for _, name := range j.order {
		fn(name, j.morsels[name])
	}
}

// ParseCookieHeader parses a request-side Cookie header value ("a=1; b=2")
// into the jar, following the standard cookie grammar.
func ParseCookieHeader(j *Jar, value string) {
	header := http.Header{"Cookie": []string{value}}
	req := http.Request{Header: header}
	for _, c := range req.Cookies() {
		j.Set(c.Name, c)
	}
}

// RequestCookieLine renders the jar back into a single Cookie header value,
// in insertion order.
func (j *Jar) RequestCookieLine() string {
	if len(j.order) == 0 {
		return ""
	}
	parts := make([]string, 0, len(j.order))
	for _, name := range j.order {
		c := j.morsels[name]
		parts = append(parts, c.Name+"="+c.Value)
	}
	return strings.Join(parts, "; ")
}

// SetCookieLines renders the jar as response-side Set-Cookie header lines,
// one per morsel, in insertion order.
func (j *Jar) SetCookieLines() []string {
	if len(j.order) == 0 {
		return nil
	}
	lines := make([]string, 0, len(j.order))
	for _, name := range j.order {
		lines = append(lines, j.morsels[name].String())
	}
	return lines
}
