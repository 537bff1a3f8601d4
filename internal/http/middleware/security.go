// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides SecurityHeaders, a hardening middleware that attaches a
// conservative set of HTTP security headers suitable for JSON APIs running
// behind a reverse proxy.
package middleware

import "github.com/gin-gonic/gin"

// SecurityHeaders returns a Gin middleware that adds baseline security
// headers to each response:
//
//	X-Content-Type-Options: nosniff
//	X-Frame-Options: DENY
//	Referrer-Policy: no-referrer
//	X-Permitted-Cross-Domain-Policies: none
//
// If X-Request-ID is present, it is exposed via Access-Control-Expose-Headers
// so browser clients can read it. Safe alongside CORS and logging middleware.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()

		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("X-Permitted-Cross-Domain-Policies", "none")

		if h.Get(requestIDHeader) != "" {
			h.Set("Access-Control-Expose-Headers", requestIDHeader)
		}

		c.Next()
	}
}
