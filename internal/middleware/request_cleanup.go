package middleware

import (
	"io"
	"net/http"
)

// DefaultMaxRequestBody fits the largest request the tracker takes, an
// onboarding profile, many times over.
const DefaultMaxRequestBody int64 = 64 * 1024

// LimitRequestBody caps how much of the body a handler may read, then
// drains what is left of it and closes it, so the connection can be reused.
// A handler reading past the cap gets an error from the body reader.
func LimitRequestBody(maxBytes int64) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body == nil || r.Body == http.NoBody {
				next.ServeHTTP(w, r)
				return
			}

			body := http.MaxBytesReader(w, r.Body, maxBytes)
			r.Body = body
			next.ServeHTTP(w, r)

			// MaxBytesReader stops the drain at the cap as well
			_, _ = io.Copy(io.Discard, body)
			_ = body.Close()
		})
	}
}
