package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// The daemon only ever talks to the shell UI running on the same device, so
// the allowed origins are the loopback forms the webview may present.
var defaultCORSOrigins = []string{
	"http://localhost",
	"http://localhost:*",
	"http://127.0.0.1",
	"http://127.0.0.1:*",
	"capacitor://localhost",
	"file://",
}

// CORS returns middleware that applies the loopback origin policy.
func CORS() func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   defaultCORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
