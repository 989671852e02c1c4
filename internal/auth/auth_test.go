package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/ksred/papertrade-api/internal/config"
	"github.com/ksred/papertrade-api/internal/testutil"
	"github.com/ksred/papertrade-api/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var testAuthConfig = config.AuthConfig{JWTSecret: "test-secret", TokenTTL: time.Hour}

func newTestService(t *testing.T, opts ...Option) (*Service, *gorm.DB) {
	t.Helper()
	db := testutil.NewDB(t)
	opts = append([]Option{WithHashCost(bcrypt.MinCost)}, opts...)
	return NewService(db, testAuthConfig, 100000, opts...), db
}

func TestSignup(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	session, err := svc.Signup(ctx, SignupRequest{Email: "  Asha@Example.com ", Password: "secret", Username: " asha "})
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, "asha@example.com", session.User.Email)
	assert.Equal(t, "asha", session.User.Username)

	var user types.User
	require.NoError(t, db.First(&user, session.User.ID).Error)
	assert.Equal(t, 100000.0, user.Balance)
	assert.Equal(t, int64(1), user.Version)
	assert.NotEqual(t, "secret", user.PasswordHash)

	_, err = svc.Signup(ctx, SignupRequest{Email: "ASHA@example.com", Password: "other", Username: "asha2"})
	assert.ErrorIs(t, err, ErrUserExists)

	for _, req := range []SignupRequest{
		{Password: "p", Username: "u"},
		{Email: "a@b.c", Username: "u"},
		{Email: "a@b.c", Password: "p", Username: "   "},
	} {
		_, err := svc.Signup(ctx, req)
		assert.ErrorIs(t, err, ErrMissingFields)
	}
}

func TestLogin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, SignupRequest{Email: "ravi@example.com", Password: "secret", Username: "ravi"})
	require.NoError(t, err)

	session, err := svc.Login(ctx, LoginRequest{Email: "RAVI@example.com", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "ravi", session.User.Username)

	tests := []struct {
		name string
		req  LoginRequest
		err  error
	}{
		{"wrong password", LoginRequest{Email: "ravi@example.com", Password: "nope"}, ErrInvalidCredentials},
		{"unknown email", LoginRequest{Email: "who@example.com", Password: "secret"}, ErrInvalidCredentials},
		{"missing password", LoginRequest{Email: "ravi@example.com"}, ErrMissingFields},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(ctx, tt.req)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestAuthenticate(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "meera@example.com", 500)

	token, expiresAt, err := svc.GenerateToken(user.ID)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	got, err := svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = svc.Authenticate(ctx, "")
	assert.ErrorIs(t, err, ErrAuthRequired)

	_, err = svc.Authenticate(ctx, "not-a-token")
	assert.ErrorIs(t, err, ErrSessionExpired)

	other := NewService(db, config.AuthConfig{JWTSecret: "other-secret", TokenTTL: time.Hour}, 0)
	forged, _, err := other.GenerateToken(user.ID)
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, forged)
	assert.ErrorIs(t, err, ErrSessionExpired)

	stale, _, err := svc.GenerateToken(9999)
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, stale)
	assert.ErrorIs(t, err, ErrSessionInvalid)
}

func TestExpiredToken(t *testing.T) {
	past := time.Now().Add(-2 * time.Hour)
	issuer, db := newTestService(t, WithClock(func() time.Time { return past }))
	user := testutil.CreateUser(t, db, "old@example.com", 0)

	token, _, err := issuer.GenerateToken(user.ID)
	require.NoError(t, err)

	verifier := NewService(db, testAuthConfig, 0)
	_, err = verifier.ValidateToken(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	_, err = verifier.Authenticate(context.Background(), token)
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestHandlers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc, db := newTestService(t)
	h := NewGinHandlers(svc)

	router := gin.New()
	router.POST("/auth/signup", h.SignupHandler())
	router.POST("/auth/login", h.LoginHandler())
	router.POST("/api/logout", h.LogoutHandler())
	router.GET("/api/me", func(c *gin.Context) {
		var user types.User
		if err := db.Where("email = ?", "kiran@example.com").First(&user).Error; err == nil {
			SetUser(c, &user)
		}
		c.Next()
	}, h.MeHandler())

	post := func(path, body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)
		return w
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = post("/auth/signup", `{"email":"kiran@example.com","password":"pw","username":"kiran"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Header().Get("Set-Cookie"), CookieName+"=")
	assert.Contains(t, w.Header().Get("Set-Cookie"), "HttpOnly")

	w = post("/auth/signup", `{"email":"kiran@example.com","password":"pw","username":"kiran"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "User already exists.")

	w = post("/auth/signup", `{"email":"x@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "All fields are required.")

	w = post("/auth/login", `{"email":"kiran@example.com","password":"bad"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = post("/auth/login", `{"email":"kiran@example.com","password":"pw"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"token"`)

	w = post("/auth/login", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/me", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "kiran@example.com")
	assert.NotContains(t, w.Body.String(), "passwordHash")

	w = post("/api/logout", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Set-Cookie"), "Max-Age=0")
}
