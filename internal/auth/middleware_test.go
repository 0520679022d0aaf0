package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims *Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func authedRequest(token string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	return r
}

func TestAuthenticatePassesValidToken(t *testing.T) {
	userID := uuid.New()
	token := signToken(t, testSecret, &Claims{
		Sub:   userID.String(),
		Email: "alice@example.com",
		Name:  "Alice",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	var gotID uuid.UUID
	var gotClaims *Claims
	handler := NewJWTMiddleware(testSecret).Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = UserIDFromContext(r.Context())
		gotClaims = ClaimsFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(token))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID, gotID)
	require.NotNil(t, gotClaims)
	assert.Equal(t, "alice@example.com", gotClaims.Email)
	assert.Equal(t, "Alice", gotClaims.Name)
}

func TestAuthenticateRejects(t *testing.T) {
	mw := NewJWTMiddleware(testSecret)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	})

	tests := []struct {
		name  string
		token string
	}{
		{"missing token", ""},
		{"garbage token", "not.a.jwt"},
		{"wrong secret", signToken(t, "other-secret", &Claims{Sub: uuid.NewString()})},
		{"expired", signToken(t, testSecret, &Claims{
			Sub: uuid.NewString(),
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			},
		})},
		{"non-uuid subject", signToken(t, testSecret, &Claims{Sub: "firebase-uid-123"})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mw.Authenticate(next).ServeHTTP(rec, authedRequest(tt.token))

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), "error")
		})
	}
}

func TestAuthenticateRejectsNonHMACAlg(t *testing.T) {
	// alg=none style tokens must not slip through the keyfunc.
	token := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{Sub: uuid.NewString()})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	NewJWTMiddleware(testSecret).Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	})).ServeHTTP(rec, authedRequest(signed))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestContextAccessorsOutsideMiddleware(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, uuid.Nil, UserIDFromContext(r.Context()))
	assert.Nil(t, ClaimsFromContext(r.Context()))
}
