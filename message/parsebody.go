package message

import (
	"encoding/json"
	"net/url"
	"strings"

	"github.com/gopherhttp/httpd/httperr"
)

// ParseBody implements the body-selection table of spec.md §4.2, shared by
// both the H1 and H2 pipelines. It selects a body variant from Content-Type
// only; each pipeline checks Transfer-Encoding and Content-Length itself
// before calling it.
func ParseBody(dir Direction, contentType string, raw []byte) (*Body, error) {
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))

	switch {
	case dir == DirRequest && ct == "":
		return &Body{Kind: KindForm, Fields: parseForm(raw)}, nil
	case ct == "application/json":
		var v any
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &v); err != nil {
				return nil, httperr.BadRequest("invalid json body: " + err.Error())
			}
		}
		return &Body{Kind: KindJSON, JSON: v}, nil
	case ct == "application/x-www-form-urlencoded":
		return &Body{Kind: KindForm, Fields: parseForm(raw)}, nil
	case dir == DirResponse && ct == "":
		return &Body{Kind: KindRaw, Raw: raw}, nil
	default:
		return nil, httperr.BadRequest("unsupported Content-Type: " + contentType)
	}
}

func parseForm(raw []byte) map[string]string {
	values, err := url.ParseQuery(string(raw))
	if err != nil {
		return map[string]string{}
	}
	out := make(map[string]string, len(values))
	for k, vv := range values {
		if len(vv) > 0 {
			out[k] = vv[0]
		}
	}
	return out
}
