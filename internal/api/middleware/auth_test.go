package middleware_test

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/anky-indexer/internal/api/middleware"
	"github.com/feral-file/anky-indexer/internal/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Initialize(logger.Config{Debug: false}); err != nil {
		panic(err)
	}
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func generateKey(t *testing.T) (*rsa.PrivateKey, string) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pemKey := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})

	return key, string(pemKey)
}

func signToken(t *testing.T, key *rsa.PrivateKey, claims jwt.RegisteredClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func TestAuthenticator_Authenticate(t *testing.T) {
	key, publicPEM := generateKey(t)
	otherKey, _ := generateKey(t)

	auth, err := middleware.NewAuthenticator(middleware.AuthConfig{
		JWTPublicKey: publicPEM,
		APIKeys:      []string{"secret-key", ""},
	})
	require.NoError(t, err)

	valid := signToken(t, key, jwt.RegisteredClaims{
		Subject:   "ops",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	expired := signToken(t, key, jwt.RegisteredClaims{
		Subject:   "ops",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	})
	foreign := signToken(t, otherKey, jwt.RegisteredClaims{Subject: "ops"})

	tests := []struct {
		name     string
		header   string
		authType string
		subject  string
		wantErr  bool
	}{
		{name: "valid jwt", header: "Bearer " + valid, authType: middleware.AuthTypeJWT, subject: "ops"},
		{name: "scheme is case insensitive", header: "bearer " + valid, authType: middleware.AuthTypeJWT, subject: "ops"},
		{name: "valid api key", header: "ApiKey secret-key", authType: middleware.AuthTypeAPIKey},
		{name: "expired jwt", header: "Bearer " + expired, wantErr: true},
		{name: "jwt signed by another key", header: "Bearer " + foreign, wantErr: true},
		{name: "wrong api key", header: "ApiKey nope", wantErr: true},
		{name: "empty api key", header: "ApiKey ", wantErr: true},
		{name: "missing header", header: "", wantErr: true},
		{name: "no credentials", header: "Bearer", wantErr: true},
		{name: "unsupported scheme", header: "Basic dXNlcjpwYXNz", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			principal, err := auth.Authenticate(tt.header)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, principal)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.authType, principal.AuthType)
			assert.Equal(t, tt.subject, principal.Subject)
		})
	}
}

func TestAuthenticator_JWTNotConfigured(t *testing.T) {
	key, _ := generateKey(t)
	auth, err := middleware.NewAuthenticator(middleware.AuthConfig{APIKeys: []string{"k"}})
	require.NoError(t, err)

	_, err = auth.Authenticate("Bearer " + signToken(t, key, jwt.RegisteredClaims{}))
	assert.ErrorIs(t, err, middleware.ErrJWTNotConfigured)
}

func TestNewAuthenticator_InvalidKey(t *testing.T) {
	_, err := middleware.NewAuthenticator(middleware.AuthConfig{JWTPublicKey: "not a pem"})
	assert.Error(t, err)
}

func TestAuthMiddleware(t *testing.T) {
	auth, err := middleware.NewAuthenticator(middleware.AuthConfig{APIKeys: []string{"secret-key"}})
	require.NoError(t, err)

	router := gin.New()
	router.POST("/protected", middleware.Auth(auth), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(middleware.AUTH_TYPE_KEY))
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/protected", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"unauthorized"`)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/protected", nil)
	req.Header.Set("Authorization", "ApiKey secret-key")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, middleware.AuthTypeAPIKey, w.Body.String())
}
