package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestTokenValidator_RoundTrip(t *testing.T) {
	v := NewTokenValidator("test-secret", "notary-idp")

	token, expiresAt, err := v.GenerateToken("user-1", "أحمد", "office-1", time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	claims, err := v.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "أحمد", claims.Name)
	assert.Equal(t, "office-1", claims.OfficeID)
}

func TestTokenValidator_Rejects(t *testing.T) {
	v := NewTokenValidator("test-secret", "notary-idp")

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenValidator("other-secret", "notary-idp")
		token, _, err := other.GenerateToken("user-1", "", "office-1", time.Hour)
		require.NoError(t, err)
		_, err = v.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewTokenValidator("test-secret", "someone-else")
		token, _, err := other.GenerateToken("user-1", "", "office-1", time.Hour)
		require.NoError(t, err)
		_, err = v.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		token, _, err := v.GenerateToken("user-1", "", "office-1", -time.Minute)
		require.NoError(t, err)
		_, err = v.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("missing office", func(t *testing.T) {
		token, _, err := v.GenerateToken("user-1", "", "", time.Hour)
		require.NoError(t, err)
		_, err = v.ValidateToken(token)
		assert.ErrorContains(t, err, "office_id")
	})
}

func TestAuthMiddleware(t *testing.T) {
	v := NewTokenValidator("test-secret", "")
	token, _, err := v.GenerateToken("user-1", "Sara", "office-1", time.Hour)
	require.NoError(t, err)

	router := gin.New()
	router.Use(AuthMiddleware(v))
	router.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id":   c.GetString(ContextUserID),
			"username":  c.GetString(ContextUserName),
			"office_id": c.GetString(ContextOfficeID),
		})
	})

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid token", "Bearer " + token, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"bad format", "Token " + token, http.StatusUnauthorized},
		{"garbage token", "Bearer abc.def.ghi", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Contains(t, w.Body.String(), `"office_id":"office-1"`)
			}
		})
	}
}

func TestHeaderIdentityMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(HeaderIdentityMiddleware())
	router.GET("/me", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextUserID)+"|"+c.GetString(ContextOfficeID))
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(HeaderUserID, "u1")
	req.Header.Set(HeaderOfficeID, "o1")
	router.ServeHTTP(w, req)
	assert.Equal(t, "u1|o1", w.Body.String())
}
