package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/medtips/medtips-api/internal/utils"
)

// Context keys set by AuthMiddleware for handlers to read.
const (
	CtxDoctorID = "doctorID"
	CtxIsAdmin  = "isAdmin"
)

func AuthMiddleware(tokens *utils.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := tokens.Validate(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		// Set caller identity in the context for handlers to use
		c.Set(CtxDoctorID, claims.ID)
		c.Set(CtxIsAdmin, claims.IsAdmin)

		c.Next()
	}
}
