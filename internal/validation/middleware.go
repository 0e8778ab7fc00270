package validation

import (
	"net/http"

	"github.com/huxley-dev/account-be/internal/httpx"
)

// Middleware parses the request body (unless an earlier middleware already
// did) and rejects the request with a 400 before the handler runs if any
// rule fails.
func Middleware(rules []Rule) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, ok := httpx.BodyFromContext(r.Context())
			if !ok {
				parsed, err := httpx.ParseBody(r)
				if err != nil {
					httpx.Fail(w, http.StatusBadRequest, "Invalid request body")
					return
				}
				body = parsed
				r = r.WithContext(httpx.WithBody(r.Context(), body))
			}

			if errs := Apply(rules, body); len(errs) > 0 {
				httpx.WriteJSON(w, http.StatusBadRequest, httpx.Response{
					Success: false,
					Message: "Validation failed",
					Errors:  errs,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
