package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/nano-midea/chat/internal/models"
	"github.com/anonto42/nano-midea/chat/internal/repositories/memstore"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func signed(t *testing.T, key string, claims models.JwtCustomClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return token
}

func validClaims() models.JwtCustomClaims {
	return models.JwtCustomClaims{
		UserID: 7,
		Email:  "alice@example.com",
		Name:   "Alice",
		Role:   models.RoleModerator,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

// serve runs one request through mw and returns the status plus the identity
// the handler saw.
func serve(t *testing.T, mw echo.MiddlewareFunc, req *http.Request) (int, models.Identity) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen models.Identity
	err := mw(func(c echo.Context) error {
		seen, _ = IdentityFromContext(c)
		return c.NoContent(http.StatusOK)
	})(c)
	if err != nil {
		var he *echo.HTTPError
		require.True(t, errors.As(err, &he))
		return he.Code, seen
	}
	return rec.Code, seen
}

func TestJWTAuthMiddleware(t *testing.T) {
	mw := JWTAuthMiddleware(secret)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	code, _ := serve(t, mw, req)
	assert.Equal(t, http.StatusUnauthorized, code, "missing header")

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Token abc")
	code, _ = serve(t, mw, req)
	assert.Equal(t, http.StatusUnauthorized, code, "wrong scheme")

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+signed(t, "other-secret", validClaims()))
	code, _ = serve(t, mw, req)
	assert.Equal(t, http.StatusUnauthorized, code, "bad signature")

	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+signed(t, secret, expired))
	code, _ = serve(t, mw, req)
	assert.Equal(t, http.StatusUnauthorized, code, "expired")

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+signed(t, secret, validClaims()))
	code, id := serve(t, mw, req)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, models.Identity{Email: "alice@example.com", Name: "Alice", Role: models.RoleModerator}, id)
}

func TestJWTAcceptsQueryToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?token="+signed(t, secret, validClaims()), nil)
	code, id := serve(t, JWTAuthMiddleware(secret), req)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "alice@example.com", id.Email)
}

func TestJWTRequiresEmailClaim(t *testing.T) {
	claims := validClaims()
	claims.Email = ""
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+signed(t, secret, claims))
	code, _ := serve(t, JWTAuthMiddleware(secret), req)
	assert.Equal(t, http.StatusUnauthorized, code)
}

type stubVerifier map[string]*auth.Token

func (s stubVerifier) VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error) {
	if tok, ok := s[idToken]; ok {
		return tok, nil
	}
	return nil, errors.New("token rejected")
}

func TestFirebaseAuthMiddleware(t *testing.T) {
	store := memstore.New()
	uid := "uid-bob"
	store.AddUser(models.User{Name: "Bob", Email: "bob@example.com", Role: models.RoleAdmin, FirebaseUID: &uid})

	verifier := stubVerifier{
		"known":   {UID: uid},
		"unknown": {UID: "uid-new", Claims: map[string]interface{}{"email": "new@example.com", "name": "Newcomer"}},
		"noemail": {UID: "uid-anon", Claims: map[string]interface{}{}},
	}
	mw := FirebaseAuthMiddleware(verifier, store.Users())

	call := func(token string) (int, models.Identity) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
		return serve(t, mw, req)
	}

	code, id := call("known")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, models.Identity{Email: "bob@example.com", Name: "Bob", Role: models.RoleAdmin}, id)

	code, id = call("unknown")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, models.Identity{Email: "new@example.com", Name: "Newcomer", Role: models.RoleMember}, id)

	code, _ = call("noemail")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = call("forged")
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestRateLimiterRejectsBurst(t *testing.T) {
	limiter := NewRateLimiter(0.001, 3)
	withIdentity := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			SetIdentity(c, models.Identity{Email: c.QueryParam("who")})
			return next(c)
		}
	}
	chain := func(mw echo.MiddlewareFunc) echo.MiddlewareFunc {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return withIdentity(mw(next)) }
	}

	var codes []int
	for i := 0; i < 5; i++ {
		code, _ := serve(t, chain(limiter.Middleware()), httptest.NewRequest(http.MethodPost, "/?who=a@example.com", nil))
		codes = append(codes, code)
	}
	assert.Equal(t, []int{200, 200, 200, 429, 429}, codes)

	code, _ := serve(t, chain(limiter.Middleware()), httptest.NewRequest(http.MethodPost, "/?who=b@example.com", nil))
	assert.Equal(t, http.StatusOK, code, "budgets are per caller")
}

func TestRateLimiterSweep(t *testing.T) {
	limiter := NewRateLimiter(1, 1)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	limiter.Allow("old")
	now = now.Add(10 * time.Minute)
	limiter.Allow("fresh")

	assert.Equal(t, 1, limiter.Sweep(5*time.Minute))
}
