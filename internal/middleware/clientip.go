package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// clientIPFrom picks the originating client address: the first
// X-Forwarded-For hop, then X-Real-IP, then the connection's remote address.
func clientIPFrom(header func(string) string, remoteAddr string) string {
	if xff := header("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")

		return strings.TrimSpace(first)
	}

	if xri := header("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}

	return ip
}

// ClientIP returns the originating client address of r.
func ClientIP(r *http.Request) string {
	return clientIPFrom(r.Header.Get, r.RemoteAddr)
}

func humaClientIP(ctx huma.Context) string {
	return clientIPFrom(ctx.Header, ctx.RemoteAddr())
}

// clientKeyFrom identifies a client for rate limiting by address and User-Agent.
func clientKeyFrom(ip, userAgent string) string {
	hash := sha256.Sum256([]byte(ip + "|" + userAgent))

	return hex.EncodeToString(hash[:])
}

func humaClientKey(ctx huma.Context) string {
	return clientKeyFrom(humaClientIP(ctx), ctx.Header("User-Agent"))
}
