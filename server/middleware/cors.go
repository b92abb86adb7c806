package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORSPolicy describes which browser origins may call the API.
type CORSPolicy struct {
	// AllowAll answers every origin with a wildcard
	AllowAll bool

	// Origins is the allow-list used when AllowAll is false. An entry may
	// contain one '*', e.g. https://*.netlify.app
	Origins []string

	Methods []string
	Headers []string
}

// NewCORSPolicy returns the policy used by the server: any origin in debug
// mode, the configured allow-list otherwise.
func NewCORSPolicy(debug bool, origins []string) CORSPolicy {
	return CORSPolicy{
		AllowAll: debug,
		Origins:  origins,
		Methods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		Headers:  []string{"Content-Type", "Authorization", RequestIDHeader},
	}
}

// Options converts the policy to go-chi/cors options. Credentials are only
// allowed for an explicit allow-list.
func (p CORSPolicy) Options() cors.Options {
	opts := cors.Options{
		AllowedOrigins:   p.Origins,
		AllowedMethods:   p.Methods,
		AllowedHeaders:   p.Headers,
		ExposedHeaders:   []string{RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if p.AllowAll {
		opts.AllowedOrigins = []string{"*"}
		opts.AllowCredentials = false
	}
	return opts
}

// CORS applies policy. Requests without an Origin header pass through
// untouched; preflight requests are answered without reaching next.
func CORS(policy CORSPolicy) func(http.Handler) http.Handler {
	return cors.Handler(policy.Options())
}
