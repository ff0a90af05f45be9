package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Cookie names.
const (
	SessionCookie = "session"
	GuestCookie   = "guest_id"
)

// Context keys set by Session and Auth.
const (
	CtxUserID   = "user_id"
	CtxUsername = "username"
	CtxGuest    = "guest"
)

const guestCookieMaxAge = 30 * 24 * 60 * 60

// Claims carried in the session token.
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// GenerateToken signs a session token for a user.
func GenerateToken(userID, username, secret string, ttl time.Duration) (string, error) {
	claims := &Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func parseToken(tokenStr, secret string) (*Claims, bool) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil || !token.Valid || claims.UserID == "" {
		return nil, false
	}
	return claims, true
}

// Session resolves the caller's identity. A valid session cookie yields
// the signed-in user; anything else falls back to guest mode with a
// stable guest id cookie.
func Session(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cookie, err := c.Cookie(SessionCookie); err == nil {
			if claims, ok := parseToken(cookie, secret); ok {
				c.Set(CtxUserID, claims.UserID)
				c.Set(CtxUsername, claims.Username)
				c.Set(CtxGuest, false)
				c.Next()
				return
			}
		}

		guestID, err := c.Cookie(GuestCookie)
		if err != nil || guestID == "" {
			guestID = "guest-" + uuid.NewString()
			c.SetCookie(GuestCookie, guestID, guestCookieMaxAge, "/", "", false, true)
		}
		c.Set(CtxUserID, guestID)
		c.Set(CtxGuest, true)
		c.Next()
	}
}

// Auth requires a signed-in user.
func Auth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, err := c.Cookie(SessionCookie)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		claims, ok := parseToken(cookie, secret)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired session"})
			return
		}
		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxUsername, claims.Username)
		c.Set(CtxGuest, false)
		c.Next()
	}
}
