package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// Headers carrying a rotated pair for clients that do not use cookies.
const (
	AccessTokenHeader  = "X-Access-Token"
	RefreshTokenHeader = "X-Refresh-Token"
)

// CORS lets the configured origins send credentialed requests so the token
// cookies travel with cross-origin calls. With no origins configured any
// origin is allowed, without credentials.
func CORS(origins []string) func(http.Handler) http.Handler {
	credentials := len(origins) > 0
	if !credentials {
		origins = []string{"*"}
	}

	handler := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", requestIDHeader},
		ExposedHeaders:   []string{requestIDHeader, AccessTokenHeader, RefreshTokenHeader},
		MaxAge:           3600,
		AllowCredentials: credentials,
	})

	return handler.Handler
}
