package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/ksred/papertrade-api/internal/config"
	"github.com/ksred/papertrade-api/internal/types"
	"github.com/ksred/papertrade-api/pkg/apperror"
	"github.com/ksred/papertrade-api/pkg/money"
	"github.com/ksred/papertrade-api/pkg/response"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// CookieName is the session cookie set on signup and login
const CookieName = "token"

var (
	ErrMissingFields      = apperror.Validation("All fields are required.")
	ErrUserExists         = apperror.Conflict("User already exists.")
	ErrInvalidCredentials = apperror.Unauthorized("Incorrect email or password.")
	ErrAuthRequired       = apperror.Unauthorized("Authentication required")
	ErrSessionInvalid     = apperror.Unauthorized("Session is invalid")
	ErrSessionExpired     = apperror.Unauthorized("Session expired. Please login again.")
	ErrTokenGeneration    = errors.New("failed to generate token")
)

// Claims represents the JWT claims structure
type Claims struct {
	jwt.RegisteredClaims
	UserID uint `json:"user_id"`
}

type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PublicUser is the user shape returned by auth endpoints
type PublicUser struct {
	ID       uint   `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// Session is a signed token for a user
type Session struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expiresAt"`
	User      PublicUser `json:"user"`
}

// Service handles signup, login and session tokens
type Service struct {
	db             *gorm.DB
	jwtSecret      []byte
	tokenTTL       time.Duration
	cookieSecure   bool
	initialBalance float64
	hashCost       int
	now            func() time.Time
}

type Option func(*Service)

// WithHashCost overrides the bcrypt cost
func WithHashCost(cost int) Option {
	return func(s *Service) { s.hashCost = cost }
}

// WithClock overrides the clock used for token timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new authentication service. New accounts start with
// initialBalance.
func NewService(db *gorm.DB, cfg config.AuthConfig, initialBalance float64, opts ...Option) *Service {
	s := &Service{
		db:             db,
		jwtSecret:      []byte(cfg.JWTSecret),
		tokenTTL:       cfg.TokenTTL,
		cookieSecure:   cfg.CookieSecure,
		initialBalance: initialBalance,
		hashCost:       12,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Signup creates an account and returns a session for it
func (s *Service) Signup(ctx context.Context, req SignupRequest) (*Session, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Username = strings.TrimSpace(req.Username)
	if req.Email == "" || req.Password == "" || req.Username == "" {
		return nil, ErrMissingFields
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &types.User{
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: string(hash),
		Balance:      money.Round2(s.initialBalance),
		Version:      1,
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	log.Info().Uint("user_id", user.ID).Msg("user signed up")
	return s.session(user)
}

// Login verifies credentials and returns a session
func (s *Service) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, ErrMissingFields
	}

	var user types.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn().Str("email", email).Msg("login failed - email not found")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		log.Warn().Str("email", email).Msg("login failed - invalid password")
		return nil, ErrInvalidCredentials
	}

	return s.session(&user)
}

func (s *Service) session(user *types.User) (*Session, error) {
	token, expiresAt, err := s.GenerateToken(user.ID)
	if err != nil {
		return nil, err
	}
	return &Session{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      PublicUser{ID: user.ID, Email: user.Email, Username: user.Username},
	}, nil
}

// GenerateToken signs an HS256 token for userID
func (s *Service) GenerateToken(userID uint) (string, time.Time, error) {
	now := s.now()
	expiration := now.Add(s.tokenTTL)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiration),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
		UserID: userID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", time.Time{}, ErrTokenGeneration
	}
	return tokenString, expiration, nil
}

// ValidateToken validates a JWT token and returns the claims
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == 0 {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// Authenticate resolves a raw token to its user
func (s *Service) Authenticate(ctx context.Context, tokenString string) (*types.User, error) {
	if tokenString == "" {
		return nil, ErrAuthRequired
	}

	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		log.Debug().Err(err).Msg("token verification failed")
		return nil, apperror.Wrap(ErrSessionExpired, err)
	}

	var user types.User
	if err := s.db.WithContext(ctx).First(&user, claims.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionInvalid
		}
		return nil, fmt.Errorf("load session user: %w", err)
	}
	return &user, nil
}

// SetCookie writes the session cookie
func (s *Service) SetCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, token, int(s.tokenTTL.Seconds()), "/", "", s.cookieSecure, true)
}

// ClearCookie expires the session cookie
func (s *Service) ClearCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, "", -1, "/", "", s.cookieSecure, true)
}

// GinHandlers contains HTTP handlers for authentication endpoints
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates a new set of HTTP handlers for authentication endpoints
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

// SignupHandler handles POST /auth/signup
func (h *GinHandlers) SignupHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SignupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "Invalid request body")
			return
		}

		session, err := h.service.Signup(c.Request.Context(), req)
		if err != nil {
			response.Error(c, err)
			return
		}

		h.service.SetCookie(c, session.Token)
		response.Created(c, "User signed up successfully", session)
	}
}

// LoginHandler handles POST /auth/login
func (h *GinHandlers) LoginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "Invalid request body")
			return
		}

		session, err := h.service.Login(c.Request.Context(), req)
		if err != nil {
			response.Error(c, err)
			return
		}

		h.service.SetCookie(c, session.Token)
		response.SuccessMessage(c, "User logged in successfully", session)
	}
}

// MeHandler handles GET /api/me
func (h *GinHandlers) MeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			response.Error(c, ErrAuthRequired)
			return
		}
		response.Success(c, gin.H{"user": user})
	}
}

// LogoutHandler handles POST /api/logout
func (h *GinHandlers) LogoutHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		h.service.ClearCookie(c)
		response.SuccessMessage(c, "Logged out successfully", nil)
	}
}
