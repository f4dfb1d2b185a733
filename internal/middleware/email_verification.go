package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/flarelog/backend/internal/models"
)

// RequireEmailVerification creates a middleware that requires email verification
func RequireEmailVerification(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get user ID from context (set by auth middleware)
		userIDVal, exists := c.Get("user_id")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		userID, ok := userIDVal.(uuid.UUID)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		// Get user from database to check verification status
		var user models.User
		if err := db.Where("id = ?", userID).First(&user).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify user status"})
			c.Abort()
			return
		}

		// Sharing medical data requires a verified address
		if !user.EmailVerified {
			c.JSON(http.StatusForbidden, gin.H{
				"error":   "email verification required",
				"message": "Please verify your email address to access this feature",
				"email":   user.Email,
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
