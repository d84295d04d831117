package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/httplog/v3"
)

// RequestLogger writes one access log line per request. Development output
// uses the concise schema; everything else logs full ECS fields.
func RequestLogger(lg *slog.Logger, env string) func(http.Handler) http.Handler {
	level := slog.LevelInfo
	if env == "development" {
		level = slog.LevelDebug
	}
	return httplog.RequestLogger(lg, &httplog.Options{
		Level:  level,
		Schema: httplog.SchemaECS.Concise(env == "development"),
		Skip: func(req *http.Request, respStatus int) bool {
			return respStatus < http.StatusBadRequest && isProbe(req.URL.Path)
		},
	})
}

func isProbe(path string) bool {
	return strings.HasSuffix(path, "/health") || strings.HasSuffix(path, "/ping")
}
