package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/mnhrk15/hpb-repeat-analyzer/models"
	"github.com/mnhrk15/hpb-repeat-analyzer/utils"
)

// AuthHandlers authenticates the single admin operator. Credentials come
// from the environment (ADMIN_EMAIL / ADMIN_PASSWORD); there is no user
// table and no signup.
type AuthHandlers struct {
	AdminEmail   string
	PasswordHash []byte
}

func NewAuthHandlers(adminEmail string, passwordHash []byte) *AuthHandlers {
	return &AuthHandlers{AdminEmail: adminEmail, PasswordHash: passwordHash}
}

// Login verifies the admin credentials and issues the session JWT.
func (h *AuthHandlers) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if req.Email != h.AdminEmail ||
		bcrypt.CompareHashAndPassword(h.PasswordHash, []byte(req.Password)) != nil {
		log.Printf("Login failed for email %s", req.Email)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	tokenString, err := utils.GenerateJWT(req.Email)
	if err != nil {
		log.Printf("ERROR: Failed to generate JWT for %s: %v", req.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate authentication token"})
		return
	}

	c.SetCookie(
		"jwt_token",
		tokenString,
		int(12*time.Hour/time.Second),
		"/",
		"",
		false,
		true,
	)

	log.Printf("Admin logged in: %s", req.Email)
	c.JSON(http.StatusOK, gin.H{"message": "Login successful", "user_email": req.Email})
}

// Logout clears the session cookie.
func (h *AuthHandlers) Logout(c *gin.Context) {
	c.SetCookie(
		"jwt_token",
		"",
		-1,
		"/",
		"",
		false,
		true,
	)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}
