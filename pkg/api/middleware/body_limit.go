package middleware

import (
	"net/http"
)

// BodySizeLimit caps uploaded graphs at maxBytes. A declared Content-Length
// over the cap is refused before the handler runs; an undeclared one fails
// on the read that crosses it. A non-positive maxBytes disables the cap.
func BodySizeLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if maxBytes <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				writeError(w, http.StatusRequestEntityTooLarge, "graph upload exceeds the configured body limit")
				return
			}
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
