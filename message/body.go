package message

// Kind tags which variant a Body holds.
type Kind int

const (
	// KindNone means no body was present.
	KindNone Kind = iota
	// KindForm means FormUrlEncoded: application/x-www-form-urlencoded, or
	// a request with no Content-Type at all (spec.md's body-selection
	// table treats a request's absent Content-Type as form-encoded,
	// possibly empty).
	KindForm
	// KindJSON means application/json, decoded into a tree of
	// null/bool/number/string/array/object (any).
	KindJSON
	// KindRaw means an opaque byte payload: what ParseBody selects for a
	// response with no Content-Type. Other unrecognised direction/
	// content-type combinations are rejected with BadRequest.
	KindRaw
)

// Body is the tagged union of §3's body variants.
type Body struct {
	Kind   Kind
	Fields map[string]string // KindForm
	JSON   any               // KindJSON
	Raw    []byte            // KindRaw
}

// Empty reports whether the body carries no content. This follows the
// corrected predicate named in spec.md's Open Questions: the source's
// inverted is_empty bug is deliberately not reproduced here.
func (b *Body) Empty() bool {
	if b == nil {
		return true
	}
	switch b.Kind {
	case KindNone:
		return true
	case KindForm:
		return len(b.Fields) == 0
	case KindJSON:
		return b.JSON == nil
	case KindRaw:
		return len(b.Raw) == 0
	default:
		return true
	}
}

// KeyValues returns the body's key->string-value map for handler argument
// binding (spec.md §4.6 step 2): FormUrlEncoded fields directly, or every
// top-level key of a JSON object, with non-string values rendered as text
// (see toBindString). Any other JSON shape (an array, or a scalar at the
// top level) binds no parameters.
func (b *Body) KeyValues() map[string]string {
	if b == nil {
		return nil
	}
	switch b.Kind {
	case KindForm:
		return b.Fields
	case KindJSON:
		obj, ok := b.JSON.(map[string]any)
		if !ok {
			return nil
		}
		out := make(map[string]string, len(obj))
		for k, v := range obj {
			if s, ok := v.(string); ok {
				out[k] = s
				continue
			}
			out[k] = toBindString(v)
		}
		return out
	default:
		return nil
	}
}

func toBindString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		// numbers and nested structures bind as their JSON text; handlers
		// convert from this with dispatch.Context's Int or JSON accessors.
		return jsonScalarString(t)
	}
}
