package common

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Headers understood by the gateway.
const (
	BotDataHeader      = "X-Chatgate-Data"
	RequestIDHeader    = "X-Request-ID"
	ProviderHeader     = "X-Provider"
	RequestTimeHeader  = "X-Request-Time-Ms"
	RetryAfterHeader   = "Retry-After"
	RateLimitLimit     = "X-RateLimit-Limit"
	RateLimitRemaining = "X-RateLimit-Remaining"
	RateLimitReset     = "X-RateLimit-Reset"
)

// ipHeaders in order of preference when the gateway sits behind a proxy.
var ipHeaders = []string{
	"X-Real-IP",
	"X-Forwarded-For",
	"True-Client-IP",
	"CF-Connecting-IP",
}

// ClientIP resolves the caller's address, preferring forwarded headers over
// the socket peer.
func ClientIP(c *fiber.Ctx) string {
	for _, h := range ipHeaders {
		if v := c.Get(h); v != "" {
			// X-Forwarded-For may carry a chain; the first hop is the client.
			if i := strings.IndexByte(v, ','); i >= 0 {
				v = strings.TrimSpace(v[:i])
			}
			return v
		}
	}
	return c.IP()
}
