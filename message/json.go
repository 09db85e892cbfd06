package message

import (
	"encoding/json"
	"strconv"
)

// jsonScalarString renders a decoded JSON scalar (number, nested
// object/array, or nil) back to a string for handler-argument binding when
// it isn't already a string or bool.
func jsonScalarString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
