package web

import (
	"context"
	"net"
	"net/http"

	"github.com/JonMunkholm/BeneficiaryImport/internal/core"
)

// WithRequestMetadata adds the caller's IP and User-Agent to ctx so the
// import history can attribute a batch to whoever started it.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	return core.ContextWithClient(ctx, core.Client{
		IPAddress: clientIP(r),
		UserAgent: r.UserAgent(),
	})
}

// clientIP strips the port from RemoteAddr, which TrustedRealIP has already
// replaced with the proxied address when appropriate.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
