package main

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// dummyHash is compared against when no API_TOKEN_HASH is configured, so a
// misconfigured server still spends bcrypt time and rejects every token.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy"), bcrypt.DefaultCost)

// authMiddleware checks the Bearer token against the configured bcrypt hash
// and sets session_id for the single-flight analysis guard. The session is the
// X-Session-ID header when sent, else the token itself.
func (h *Handler) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			apiError(c, http.StatusUnauthorized, "missing or invalid authorization header")
			c.Abort()
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")

		hashToCheck := h.tokenHash
		if len(hashToCheck) == 0 {
			hashToCheck = dummyHash
		}
		compareErr := bcrypt.CompareHashAndPassword(hashToCheck, []byte(token))
		if len(h.tokenHash) == 0 || compareErr != nil {
			apiError(c, http.StatusUnauthorized, "invalid token")
			c.Abort()
			return
		}

		session := strings.TrimSpace(c.GetHeader("X-Session-ID"))
		if session == "" {
			session = token
		}
		c.Set("session_id", session)
		c.Next()
	}
}
