package middleware

import (
	apperrors "meshwar/pkg/errors"
	"net/http"
)

// MaxRequestSize rejects bodies that declare more than limit bytes and caps the rest
// with http.MaxBytesReader, so oversized chunked bodies fail while being decoded.
func MaxRequestSize(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				writeAppError(w, apperrors.New(apperrors.CodeInvalidInput, "Request body too large", http.StatusRequestEntityTooLarge))
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
