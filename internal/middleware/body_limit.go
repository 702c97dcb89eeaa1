package middleware

import (
	"net/http"
	"strings"
)

// BodyLimitOverride raises or lowers the limit for paths under PathPrefix.
// Prefixes match with or without the /api mount point.
type BodyLimitOverride struct {
	PathPrefix string
	PathSuffix string
	MaxBytes   int64
}

func (o BodyLimitOverride) matches(path string) bool {
	if o.PathPrefix == "" && o.PathSuffix == "" {
		return false
	}
	apiPath := strings.TrimPrefix(path, "/api")
	prefixOK := o.PathPrefix == "" || strings.HasPrefix(path, o.PathPrefix) || strings.HasPrefix(apiPath, o.PathPrefix)
	suffixOK := o.PathSuffix == "" || strings.HasSuffix(path, o.PathSuffix)
	return prefixOK && suffixOK
}

func LimitBodyBytesWithOverrides(defaultMax int64, overrides []BodyLimitOverride) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			maxBytes := defaultMax
			for _, override := range overrides {
				if override.MaxBytes > 0 && override.matches(r.URL.Path) {
					maxBytes = override.MaxBytes
					break
				}
			}
			if maxBytes > 0 {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
