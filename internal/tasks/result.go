package tasks

import (
	"encoding/json"
	"fmt"
)

// Result is a successful handler payload. Fields are flattened next to
// "status" and "message" when encoded.
type Result struct {
	Message string
	Fields  map[string]any
}

// Success returns a result with the given human-readable message.
func Success(format string, args ...any) *Result {
	return &Result{Message: fmt.Sprintf(format, args...), Fields: map[string]any{}}
}

// With sets a structured field and returns r for chaining.
func (r *Result) With(key string, value any) *Result {
	if r.Fields == nil {
		r.Fields = map[string]any{}
	}
	r.Fields[key] = value
	return r
}

func (r *Result) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Fields)+2)
	for k, v := range r.Fields {
		out[k] = v
	}
	out["status"] = "success"
	out["message"] = r.Message
	return json.Marshal(out)
}
