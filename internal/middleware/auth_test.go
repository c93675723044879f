package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/finzie/booking-coordinator/internal/auth"
	"github.com/finzie/booking-coordinator/internal/config"
)

const secret = "test-secret"

func sign(t *testing.T, claims jwt.MapClaims, key string) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{JWTSecret: secret, SessionCookie: "finzie_session"}

	r := gin.New()
	r.Use(AuthMiddleware(cfg))
	r.GET("/me", func(c *gin.Context) {
		id := CurrentIdentity(c)
		c.JSON(http.StatusOK, gin.H{"id": id.ID, "email": id.Email, "role": id.Role})
	})
	r.GET("/clients-only", RequireRole(auth.RoleClient), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func validClaims(role string) jwt.MapClaims {
	return jwt.MapClaims{
		"sub":   "user-1",
		"email": "dev@freelance.test",
		"role":  role,
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
}

func TestAuthMiddleware_BearerAndCookie(t *testing.T) {
	r := newRouter()
	token := sign(t, validClaims("freelancer"), secret)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("bearer: expected 200, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: "finzie_session", Value: token})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("cookie: expected 200, got %d", w.Code)
	}
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	r := newRouter()

	cases := map[string]string{
		"missing":    "",
		"wrong key":  "Bearer " + sign(t, validClaims("client"), "other"),
		"bad scheme": "Token abc",
		"bad role":   "Bearer " + sign(t, validClaims("root"), secret),
		"expired":    "Bearer " + sign(t, jwt.MapClaims{"sub": "u", "email": "e@x.test", "role": "client", "exp": time.Now().Add(-time.Hour).Unix()}, secret),
		"no email":   "Bearer " + sign(t, jwt.MapClaims{"sub": "u", "role": "client"}, secret),
		"bad email":  "Bearer " + sign(t, jwt.MapClaims{"sub": "u", "email": "not-an-address", "role": "client", "exp": time.Now().Add(time.Hour).Unix()}, secret),
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", w.Code)
			}
			if !strings.Contains(w.Body.String(), `"error_code"`) {
				t.Fatalf("expected error envelope, got %s", w.Body.String())
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	r := newRouter()

	req := httptest.NewRequest(http.MethodGet, "/clients-only", nil)
	req.Header.Set("Authorization", "Bearer "+sign(t, validClaims("freelancer"), secret))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for freelancer, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/clients-only", nil)
	req.Header.Set("Authorization", "Bearer "+sign(t, validClaims("client"), secret))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for client, got %d", w.Code)
	}
}
