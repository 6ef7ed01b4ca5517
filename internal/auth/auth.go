// Package auth handles account registration, credential verification, and
// bearer-token issuance. Passwords are stored as bcrypt hashes; sessions are
// stateless HS256 JWTs carrying the username as subject.
package auth

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	verrors "vlab/internal/errors"
	"vlab/internal/logging"
	"vlab/internal/store"
)

// Service issues and verifies access tokens backed by the user store.
type Service struct {
	store      *store.Store
	secret     []byte
	expiry     time.Duration
	bcryptCost int
}

// NewService builds an auth service. A zero expiry defaults to 24h and an
// out-of-range bcrypt cost falls back to the library default.
func NewService(st *store.Store, secret string, expiry time.Duration, bcryptCost int) *Service {
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		store:      st,
		secret:     []byte(secret),
		expiry:     expiry,
		bcryptCost: bcryptCost,
	}
}

// RegisterRequest carries a new account's fields.
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	FullName string `json:"full_name"`
}

// Token is a successful login response.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Register creates a new account. Username and email collisions surface as
// ErrConflict from the store.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*store.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || req.Email == "" {
		return nil, verrors.ErrAPIInvalidParam.GenWithStack("username and email are required")
	}
	if len(req.Password) < 8 {
		return nil, verrors.ErrAPIInvalidParam.GenWithStack("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, verrors.WrapError(verrors.ErrInternalServer, err)
	}

	user := &store.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		FullName:     req.FullName,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	logging.L().Info("user registered", zap.String("username", user.Username))
	return user, nil
}

// Login verifies credentials and issues a signed token. Bad username and bad
// password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, username, password string) (*Token, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if verrors.Is(err, verrors.ErrNotFound) {
			return nil, verrors.ErrUnauthorized.GenWithStack("incorrect username or password")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, verrors.ErrUnauthorized.GenWithStack("account is disabled")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, verrors.ErrUnauthorized.GenWithStack("incorrect username or password")
	}

	token, err := s.issueToken(user.Username)
	if err != nil {
		return nil, err
	}
	logging.L().Info("user logged in", zap.String("username", user.Username))
	return &Token{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.expiry.Seconds()),
	}, nil
}

// Authenticate resolves a bearer token to its user.
func (s *Service) Authenticate(ctx context.Context, tokenString string) (*store.User, error) {
	username, err := s.verifyToken(tokenString)
	if err != nil {
		return nil, err
	}
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if verrors.Is(err, verrors.ErrNotFound) {
			return nil, verrors.ErrUnauthorized.GenWithStack("unknown user")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, verrors.ErrUnauthorized.GenWithStack("account is disabled")
	}
	return user, nil
}

func (s *Service) issueToken(username string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", verrors.WrapError(verrors.ErrInternalServer, err)
	}
	return token, nil
}

func (s *Service) verifyToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{},
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, verrors.ErrUnauthorized.GenWithStack("unexpected signing method")
			}
			return s.secret, nil
		})
	if err != nil || !token.Valid {
		return "", verrors.ErrUnauthorized.GenWithStack("could not validate credentials")
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", verrors.ErrUnauthorized.GenWithStack("could not validate credentials")
	}
	return claims.Subject, nil
}
