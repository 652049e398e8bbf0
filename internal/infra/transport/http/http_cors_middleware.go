package http

import (
	"net/http"
	"strings"

	"github.com/gorilla/handlers"
)

// CORSConfig lists what cross-origin callers may do. Values are comma separated.
type CORSConfig struct {
	AllowedOrigins string `env:"ALLOWED_ORIGINS" default:"*"`
	AllowedMethods string `env:"ALLOWED_METHODS" default:"GET,POST"`
	AllowedHeaders string `env:"ALLOWED_HEADERS" default:"Content-Type"`
}

// CORSMiddleware answers preflight requests and sets the CORS response
// headers according to cfg.
func CORSMiddleware(next http.Handler, cfg CORSConfig) http.Handler {
	return handlers.CORS(
		handlers.AllowedOrigins(splitList(cfg.AllowedOrigins)),
		handlers.AllowedMethods(splitList(cfg.AllowedMethods)),
		handlers.AllowedHeaders(splitList(cfg.AllowedHeaders)),
	)(next)
}

func splitList(s string) []string {
	var out []string

	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}

	return out
}
