// Package router implements C1: URI+method -> handler lookup, with an
// O(1) literal fast path and an ordered fallback over compiled regex
// patterns. It is the Go analogue of original_source/util.py's
// RouteRecord(UserDict): a literal map probed first, then a
// registration-ordered scan over regex entries.
package router

import (
	"regexp"
	"strings"
)

// Handler is the opaque route target the router hands back to the
// dispatcher; router itself never invokes it.
type Handler any

// Target is what a route key maps to: the handler plus the set of HTTP
// methods registered for it.
type Target struct {
	Handler Handler
	Methods map[string]bool
}

// entry is one registration: either a literal path or a compiled regex.
type entry struct {
	literal string // "" if this is a regex entry
	re      *regexp.Regexp
	target  *Target
}

// Router owns the literal fast-path map and the ordered regex list.
// Registration ordering matters: later regex registrations never shadow
// earlier ones (spec.md §4.1).
type Router struct {
	literals map[string]*Target
	regexes  []entry
}

// New returns an empty Router.
func New() *Router {
	return &Router{literals: make(map[string]*Target)}
}

// defaultAlphabet is the default route-pattern alphabet spec.md §6 names.
// RegisterPattern does not apply it: patterns compile as given, apart from
// anchoring.
const defaultAlphabet = `[0-9a-zA-Z/]*`

// Register binds methods to a handler under key. If key compiles as
// intended to be a regex (see RegisterPattern), use RegisterPattern
// instead; Register always treats key as a literal path.
func (r *Router) Register(methods []string, key string, h Handler) {
	t := targetFor(methods, h)
	r.literals[key] = t
}

// RegisterPattern registers a regex route. The pattern is anchored at both
// ends: a leading '^' and trailing '$' are appended when absent, so a
// match must span the whole URI rather than merely appear within it
// (spec.md §9 Open Question: anchor both ends, not just the trailing '$'
// the Python original applied).
func (r *Router) RegisterPattern(methods []string, pattern string, h Handler) error {
	anchored := pattern
	if !strings.HasPrefix(anchored, "^") {
		anchored = "^" + anchored
	}
	if !strings.HasSuffix(anchored, "$") {
		anchored += "$"
	}
	re, err := regexp.Compile(anchored)
	if err != nil {
		return err
	}
	r.regexes = append(r.regexes, entry{re: re, target: targetFor(methods, h)})
	return nil
}

func targetFor(methods []string, h Handler) *Target {
	set := make(map[string]bool, len(methods))
	for _, m := range methods {
		set[m] = true
	}
	return &Target{Handler: h, Methods: set}
}

// Find reports a miss through its ok result rather than an error value,
// so the dispatcher can produce the right domain error (spec.md §4.1:
// NotFound vs MethodNotAllowed are distinguished by the caller).

// Find looks up uri: literal map first, then regex entries in registration
// order; the first full match wins (spec.md §8 invariant 6). It reports
// the matched Target and whether anything matched at all. The caller
// (dispatch) is responsible for checking the caller's method against
// Target.Methods to distinguish NotFound from MethodNotAllowed.
func (r *Router) Find(uri string) (*Target, bool) {
	if t, ok := r.literals[uri]; ok {
		return t, true
	}
	for _, e := range r.regexes {
		if e.re.MatchString(uri) {
			return e.target, true
		}
	}
	return nil, false
}
