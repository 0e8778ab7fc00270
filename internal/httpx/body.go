package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
)

// ErrMalformedBody is returned when a request body cannot be parsed.
var ErrMalformedBody = errors.New("malformed request body")

// Body is a flat view over a request body, whether it arrived as JSON,
// multipart form data or urlencoded form data. Nested objects are exposed
// with dotted keys ("address.country"), matching how form clients submit
// structured fields.
type Body struct {
	values map[string]string
}

// Get returns the value for a field and whether the field was present.
func (b *Body) Get(field string) (string, bool) {
	if b == nil {
		return "", false
	}
	v, ok := b.values[field]
	return v, ok
}

// ParseBody reads the request body into a Body. Multipart and urlencoded
// forms take their values from the parsed form; everything else is treated
// as JSON. An empty body yields an empty Body, not an error.
func ParseBody(r *http.Request) (*Body, error) {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch {
	case ct == "multipart/form-data":
		if r.MultipartForm == nil {
			if err := r.ParseMultipartForm(32 << 20); err != nil {
				return nil, ErrMalformedBody
			}
		}
		values := make(map[string]string, len(r.MultipartForm.Value))
		for k, vs := range r.MultipartForm.Value {
			if len(vs) > 0 {
				values[k] = vs[0]
			}
		}
		return &Body{values: values}, nil

	case ct == "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, ErrMalformedBody
		}
		values := make(map[string]string, len(r.PostForm))
		for k, vs := range r.PostForm {
			if len(vs) > 0 {
				values[k] = vs[0]
			}
		}
		return &Body{values: values}, nil

	default:
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, ErrMalformedBody
		}
		values := make(map[string]string)
		if len(strings.TrimSpace(string(raw))) == 0 {
			return &Body{values: values}, nil
		}
		var decoded map[string]any
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return nil, ErrMalformedBody
		}
		flatten("", decoded, values)
		return &Body{values: values}, nil
	}
}

// flatten copies scalar fields into out, descending one naming level into
// nested objects so "address":{"city":...} becomes "address.city".
func flatten(prefix string, in map[string]any, out map[string]string) {
	for k, v := range in {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case string:
			out[key] = val
		case float64, bool:
			out[key] = fmt.Sprint(val)
		case map[string]any:
			if prefix == "" {
				flatten(key, val, out)
			}
		}
	}
}

type contextKey string

const bodyKey = contextKey("parsedBody")

// WithBody stores a parsed Body on the context.
func WithBody(ctx context.Context, b *Body) context.Context {
	return context.WithValue(ctx, bodyKey, b)
}

// BodyFromContext retrieves the parsed Body, if any middleware stored one.
func BodyFromContext(ctx context.Context) (*Body, bool) {
	b, ok := ctx.Value(bodyKey).(*Body)
	return b, ok
}
