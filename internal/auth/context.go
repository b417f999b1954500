package auth

import (
	"context"
	"net/http"
)

type contextKey string

const brandIDKey contextKey = "brand_id"

// WithBrandID returns a context carrying the tenant brand identifier.
func WithBrandID(ctx context.Context, brandID string) context.Context {
	return context.WithValue(ctx, brandIDKey, brandID)
}

// GetBrandID reads the brand identifier set by the HTTP middleware; empty
// when the request was not attributed to a brand.
func GetBrandID(ctx context.Context) string {
	if val, ok := ctx.Value(brandIDKey).(string); ok {
		return val
	}
	return ""
}

// BrandMiddleware lifts the X-Brand-ID header into the request context. The
// real gateway authenticates and sets this header; the service trusts it.
func BrandMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if brandID := r.Header.Get("X-Brand-ID"); brandID != "" {
			r = r.WithContext(WithBrandID(r.Context(), brandID))
		}
		next.ServeHTTP(w, r)
	})
}
