package middleware

import (
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/mnhrk15/hpb-repeat-analyzer/utils"

	"github.com/gin-gonic/gin"
)

// AuthRequired guards the analysis endpoints. A request authenticates either
// with the X-API-KEY header (scripted access, e.g. the CLI posting to a
// remote instance) or with the admin JWT from the login cookie / Bearer
// header.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := os.Getenv("API_KEY")
		if apiKey != "" && c.GetHeader("X-API-KEY") == apiKey {
			c.Next()
			return
		}

		tokenString, err := c.Cookie("jwt_token")
		if err != nil {
			tokenString = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
			if tokenString == "" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: no token provided"})
				return
			}
		}

		claims, err := utils.ValidateJWT(tokenString)
		if err != nil {
			log.Printf("AuthRequired: invalid JWT token: %v", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: invalid or expired token"})
			return
		}

		c.Set("user_email", claims.Email)
		c.Next()
	}
}
