// Package api implements the federation discovery endpoints using chi.
package api

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS returns middleware that lets any origin read any endpoint. Discovery
// documents are public and fetched cross-origin by web clients.
func CORS() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "HEAD", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"Link", "X-Request-Id"},
		MaxAge:         300,
	})
}
