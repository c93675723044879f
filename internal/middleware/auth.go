package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/finzie/booking-coordinator/internal/auth"
	"github.com/finzie/booking-coordinator/internal/config"
	"github.com/finzie/booking-coordinator/internal/httperr"
	"github.com/finzie/booking-coordinator/internal/validators"
)

const ContextIdentity = "identity"

// AuthMiddleware resolves the caller identity from a HMAC-signed session JWT
// carried in the Authorization header or the session cookie.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := sessionToken(c, cfg.SessionCookie)
		if !ok {
			httperr.UnauthorizedJSON(c, "missing_session", "Please sign in.")
			c.Abort()
			return
		}

		id, err := ParseIdentity(tokenString, cfg.JWTSecret)
		if err != nil {
			httperr.UnauthorizedJSON(c, "invalid_session", "Your session is invalid or expired.")
			c.Abort()
			return
		}

		c.Set(ContextIdentity, id)
		c.Next()
	}
}

// RequireRole rejects identities whose role is not listed.
func RequireRole(roles ...auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := CurrentIdentity(c)
		for _, r := range roles {
			if id.Role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error_code": "forbidden_role", "message": "You are not allowed to do this."})
	}
}

// CurrentIdentity returns the identity set by AuthMiddleware.
func CurrentIdentity(c *gin.Context) auth.Identity {
	if v, ok := c.Get(ContextIdentity); ok {
		if id, ok := v.(auth.Identity); ok {
			return id
		}
	}
	return auth.Identity{}
}

func ParseIdentity(tokenString, secret string) (auth.Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenMalformed
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return auth.Identity{}, jwt.ErrTokenInvalidClaims
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return auth.Identity{}, jwt.ErrTokenInvalidClaims
	}

	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)
	if sub == "" || email == "" {
		return auth.Identity{}, jwt.ErrTokenRequiredClaimMissing
	}
	if !validators.IsEmail(email) {
		return auth.Identity{}, jwt.ErrTokenInvalidClaims
	}

	switch auth.Role(role) {
	case auth.RoleFreelancer, auth.RoleClient, auth.RoleAdmin:
	default:
		return auth.Identity{}, jwt.ErrTokenInvalidClaims
	}

	return auth.Identity{ID: sub, Email: email, Role: auth.Role(role)}, nil
}

func sessionToken(c *gin.Context, cookieName string) (string, bool) {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			return "", false
		}
		return parts[1], true
	}

	if cookie, err := c.Cookie(cookieName); err == nil && cookie != "" {
		return cookie, true
	}
	return "", false
}
