package application

import (
	"context"
	"strings"
)

// StorefrontMarker is the path segment that introduces a storefront slug.
const StorefrontMarker = "tienda-publica"

type pagePathKey struct{}

// WithPagePath returns a context carrying the panel path the operator is on.
// Token routing and session invalidation decide based on this path.
func WithPagePath(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, pagePathKey{}, path)
}

// PagePath returns the path stored by WithPagePath, or "".
func PagePath(ctx context.Context) string {
	path, _ := ctx.Value(pagePathKey{}).(string)
	return path
}

// IsPublicRoute reports whether path is one of the routes that never
// trigger a login redirect: "/", "/login", "/register" and "/precios...".
func IsPublicRoute(path string) bool {
	switch path {
	case "/", "/login", "/register":
		return true
	}
	return strings.HasPrefix(path, "/precios")
}

// StorefrontSlug extracts the segment that follows the storefront marker.
// ok is false when the marker is absent or nothing follows it.
func StorefrontSlug(path string) (slug string, ok bool) {
	segments := strings.Split(path, "/")
	for i, s := range segments {
		if s != StorefrontMarker {
			continue
		}
		if i+1 < len(segments) && segments[i+1] != "" {
			return segments[i+1], true
		}
		return "", false
	}
	return "", false
}

// isStorefrontPath reports whether path contains the storefront marker.
func isStorefrontPath(path string) bool {
	return strings.Contains(path, StorefrontMarker)
}
