// utils/auth.go
package utils

import (
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"salonpos-backend/models"
)

const (
	ContextUserID  = "userId"
	ContextSalonID = "salonId"
	ContextRole    = "role"
)

var BcryptCost = bcrypt.DefaultCost

var ErrInvalidToken = errors.New("invalid token")

// Hash password
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	return string(bytes), err
}

// Check password
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// GenerateToken signs an HS256 token whose subject is the user id. The salon
// is resolved per request, never trusted from the token.
func GenerateToken(userID uuid.UUID, secret string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("JWT_SECRET not set")
	}
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})
	return token.SignedString([]byte(secret))
}

func ParseToken(tokenString, secret string) (uuid.UUID, error) {
	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, ErrInvalidToken
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return id, nil
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	if header != "" {
		return header
	}
	if cookie, err := c.Cookie("token"); err == nil {
		return cookie
	}
	return ""
}

// ResolveSalon finds the salon a user works in: owners through their salon
// profile, staff through their role assignment.
func ResolveSalon(db *gorm.DB, userID uuid.UUID) (uuid.UUID, string, error) {
	var profile models.SalonProfile
	err := db.Select("id").Where("owner_id = ?", userID).First(&profile).Error
	if err == nil {
		return profile.ID, models.RoleAdmin, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, "", err
	}

	var role models.UserRole
	if err := db.Where("user_id = ?", userID).First(&role).Error; err != nil {
		return uuid.Nil, "", err
	}
	return role.SalonID, role.Role, nil
}

// Auth middleware
func AuthMiddleware(db *gorm.DB, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			RespondWithError(c, http.StatusUnauthorized, "Authorization header required")
			return
		}

		userID, err := ParseToken(tokenString, secret)
		if err != nil {
			RespondWithError(c, http.StatusUnauthorized, "Invalid token")
			return
		}

		var user models.User
		if err := db.Select("id", "is_active").First(&user, "id = ?", userID).Error; err != nil || !user.IsActive {
			RespondWithError(c, http.StatusUnauthorized, "Account not found or disabled")
			return
		}

		salonID, role, err := ResolveSalon(db, userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			RespondWithError(c, http.StatusForbidden, "No salon associated with this account")
			return
		}
		if err != nil {
			RespondWithError(c, http.StatusInternalServerError, "Failed to resolve salon")
			return
		}

		c.Set(ContextUserID, userID)
		c.Set(ContextSalonID, salonID)
		c.Set(ContextRole, role)
		c.Next()
	}
}

func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ContextRole)
		if !slices.Contains(roles, role) {
			RespondWithError(c, http.StatusForbidden, "Insufficient permissions")
			return
		}
		c.Next()
	}
}

// RequireActiveSubscription blocks salons whose trial or plan has lapsed.
func RequireActiveSubscription(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		salonID, ok := SalonIDFromContext(c)
		if !ok {
			RespondWithError(c, http.StatusForbidden, "No salon associated with this account")
			return
		}
		var sub models.Subscription
		if err := db.Where("salon_id = ?", salonID).First(&sub).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				RespondWithError(c, http.StatusPaymentRequired, "No active subscription")
				return
			}
			RespondWithError(c, http.StatusInternalServerError, "Failed to load subscription")
			return
		}
		if !sub.ActiveAt(time.Now()) {
			RespondWithError(c, http.StatusPaymentRequired, "Subscription is not active")
			return
		}
		c.Next()
	}
}

func SalonIDFromContext(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ContextSalonID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok && id != uuid.Nil
}

func UserIDFromContext(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ContextUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
