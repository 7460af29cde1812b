package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"taxlink/internal/config"
	"taxlink/internal/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var authCfg = config.AuthConfig{JWTSecret: "test-secret", Issuer: "taxlink"}

func signToken(t *testing.T, tenantID, userID string, issuer string) string {
	t.Helper()
	claims := middleware.Claims{
		TenantID: tenantID,
		UserID:   userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(authCfg.JWTSecret))
	assert.NoError(t, err)
	return token
}

func runAuth(token string) (*httptest.ResponseRecorder, *gin.Context) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/invoices", nil)
	if token != "" {
		c.Request.Header.Set("Authorization", "Bearer "+token)
	}
	middleware.AuthMiddleware(authCfg)(c)
	return w, c
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	tenantID := uuid.New()
	userID := uuid.New()

	w, c := runAuth(signToken(t, tenantID.String(), userID.String(), "taxlink"))

	assert.False(t, c.IsAborted())
	assert.Equal(t, http.StatusOK, w.Code)

	gotTenant, err := middleware.GetTenantID(c)
	assert.NoError(t, err)
	assert.Equal(t, tenantID, gotTenant)
	gotUser, err := middleware.GetUserID(c)
	assert.NoError(t, err)
	assert.Equal(t, userID, gotUser)
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	w, c := runAuth("")
	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_WrongIssuer(t *testing.T) {
	w, c := runAuth(signToken(t, uuid.NewString(), uuid.NewString(), "someone-else"))
	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_MalformedTenantClaim(t *testing.T) {
	w, c := runAuth(signToken(t, "not-a-uuid", uuid.NewString(), "taxlink"))
	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_GarbageToken(t *testing.T) {
	w, c := runAuth("not.a.token")
	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
