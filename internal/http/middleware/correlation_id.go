package middleware

import (
	"net/http"

	"github.com/KaramanMedikalStokTakip/KSM-SUB/pkg/correlationid"
)

// CorrelationID reads the correlation id header from the request, generating
// one when absent, stores it on the request context and echoes it back on the
// response.
func CorrelationID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(correlationid.Header)
			if id == "" {
				id = correlationid.Generate()
			}

			ctx := correlationid.NewContext(r.Context(), id)
			w.Header().Set(correlationid.Header, id)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
