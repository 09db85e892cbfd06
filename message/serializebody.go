package message

import (
	"encoding/json"
	"net/url"
)

// SerializeBody renders b back to wire bytes plus the Content-Type that
// should describe them, the inverse of ParseBody. A nil or KindNone body
// serializes to nothing.
func SerializeBody(b *Body) ([]byte, string) {
	if b == nil {
		return nil, ""
	}
	switch b.Kind {
	case KindJSON:
		out, _ := json.Marshal(b.JSON)
		return out, "application/json"
	case KindForm:
		values := url.Values{}
		for k, v := range b.Fields {
			values.Set(k, v)
		}
		return []byte(values.Encode()), "application/x-www-form-urlencoded"
	case KindRaw:
		return b.Raw, "text/plain; charset=utf-8"
	default:
		return nil, ""
	}
}
