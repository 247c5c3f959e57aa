package middleware

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/baharkarakas/point-service/internal/api/httpx"
)

func Recover(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					log.Error().
						Str("request_id", RequestIDFrom(r.Context())).
						Interface("panic", rec).
						Msg("panic")
					httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "internal error", nil)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
