package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/nekogravitycat/event-planner/internal/session"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestTokenRoundTrip(t *testing.T) {
	m := NewJWTManager("secret", time.Hour)
	token, err := m.GenerateAccessToken(42, "alice")
	require.NoError(t, err)

	claims, err := m.ParseAndValidate(token)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, "alice", claims.Name)

	// The client reads the same payload without the secret.
	decoded, err := session.DecodeToken(token)
	require.NoError(t, err)
	assert.Equal(t, "42", decoded.UserID)
	assert.Equal(t, "alice", decoded.Name)
	assert.False(t, decoded.Expired(time.Now()))
}

func TestParseRejectsWrongSecretAndExpired(t *testing.T) {
	token, err := NewJWTManager("other", time.Hour).GenerateAccessToken(1, "bob")
	require.NoError(t, err)
	_, err = NewJWTManager("secret", time.Hour).ParseAndValidate(token)
	assert.Error(t, err)

	expired, err := NewJWTManager("secret", -time.Minute).GenerateAccessToken(1, "bob")
	require.NoError(t, err)
	_, err = NewJWTManager("secret", time.Hour).ParseAndValidate(expired)
	assert.Error(t, err)
}

func TestParseRejectsForeignClaims(t *testing.T) {
	m := NewJWTManager("secret", time.Hour)
	sign := func(claims jwt.Claims) string {
		t.Helper()
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
		require.NoError(t, err)
		return token
	}
	exp := jwt.NewNumericDate(time.Now().Add(time.Hour))

	_, err := m.ParseAndValidate(sign(&Claims{RegisteredClaims: jwt.RegisteredClaims{Issuer: "someone-else", Subject: "1", ExpiresAt: exp}}))
	assert.Error(t, err, "issuer")

	_, err = m.ParseAndValidate(sign(&Claims{RegisteredClaims: jwt.RegisteredClaims{Issuer: Issuer, Subject: "alice", ExpiresAt: exp}}))
	assert.Error(t, err, "non-numeric subject")

	_, err = m.ParseAndValidate(sign(&Claims{RegisteredClaims: jwt.RegisteredClaims{Issuer: Issuer, Subject: "1"}}))
	assert.Error(t, err, "missing expiry")

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{RegisteredClaims: jwt.RegisteredClaims{Issuer: Issuer, Subject: "1", ExpiresAt: exp}}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = m.ParseAndValidate(unsigned)
	assert.Error(t, err, "alg none")
}

func TestAuthRequired(t *testing.T) {
	m := NewJWTManager("secret", time.Hour)
	good, err := m.GenerateAccessToken(7, "carol")
	require.NoError(t, err)

	r := gin.New()
	r.GET("/me", AuthRequired(m), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": GetUserID(c), "name": GetUserName(c)})
	})

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"valid", "Bearer " + good, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.JSONEq(t, `{"id":7,"name":"carol"}`, w.Body.String())
			} else {
				assert.Contains(t, w.Body.String(), `"message"`)
			}
		})
	}
}

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptPasswordHasher(bcrypt.MinCost)
	hash, err := h.Hash("s3cret")
	require.NoError(t, err)
	assert.NoError(t, h.Compare(hash, "s3cret"))
	assert.Error(t, h.Compare(hash, "wrong"))

	assert.Equal(t, bcrypt.DefaultCost, NewBcryptPasswordHasher(0).cost)
}
