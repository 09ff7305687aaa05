package service

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	jwt "github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/samandr77/microservices/backoffice/internal/entity"
	"github.com/samandr77/microservices/backoffice/pkg/breaker"
)

//go:generate go run go.uber.org/mock/mockgen@latest -source=auth.go -destination=../mocks/auth.go -package=mocks

const RegisterBreakerName = "register"

type UserRepository interface {
	CreateUser(ctx context.Context, u entity.User) (entity.User, error)
	UserByEmail(ctx context.Context, email string) (entity.User, error)
}

type Breaker interface {
	Execute(name string, fn func() error) error
}

type userClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type AuthService struct {
	repo    UserRepository
	breaker Breaker
	key     *rsa.PrivateKey
	expiry  time.Duration
}

func NewAuthService(repo UserRepository, br Breaker, key *rsa.PrivateKey, expiry time.Duration) *AuthService {
	return &AuthService{
		repo:    repo,
		breaker: br,
		key:     key,
		expiry:  expiry,
	}
}

// Register creates a user and issues a token. The registration path runs behind its
// own circuit breaker and fails with entity.ErrTemporarilyDisabled while it is open.
func (s *AuthService) Register(ctx context.Context, email, password, fullName string) (entity.AuthToken, error) {
	var user entity.User

	err := s.breaker.Execute(RegisterBreakerName, func() error {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}

		user, err = s.repo.CreateUser(ctx, entity.User{
			Email:        normalizeEmail(email),
			FullName:     strings.TrimSpace(fullName),
			PasswordHash: string(hash),
		})
		if err != nil {
			return fmt.Errorf("create user: %w", err)
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, breaker.ErrBlocked) {
			slog.WarnContext(ctx, "registration is blocked by circuit breaker")
			return entity.AuthToken{}, fmt.Errorf("register: %w", entity.ErrTemporarilyDisabled)
		}

		return entity.AuthToken{}, err
	}

	slog.InfoContext(ctx, "user registered", "user_id", user.ID)

	return s.issueToken(user)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (entity.AuthToken, error) {
	user, err := s.repo.UserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return entity.AuthToken{}, entity.ErrInvalidCredentials
		}

		return entity.AuthToken{}, fmt.Errorf("get user by email: %w", err)
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password))
	if err != nil {
		return entity.AuthToken{}, entity.ErrInvalidCredentials
	}

	return s.issueToken(user)
}

// ValidateToken verifies the signature and expiry of an access token and returns the user id.
func (s *AuthService) ValidateToken(_ context.Context, accessToken string) (uuid.UUID, error) {
	var claims userClaims

	token, err := jwt.ParseWithClaims(accessToken, &claims, func(token *jwt.Token) (any, error) {
		_, ok := token.Method.(*jwt.SigningMethodRSA)
		if !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}

		return &s.key.PublicKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return uuid.Nil, fmt.Errorf("parse access token: %w", entity.ErrTokenExpired)
		}

		return uuid.Nil, fmt.Errorf("parse access token: %w: %w", entity.ErrTokenInvalid, err)
	}

	if !token.Valid {
		return uuid.Nil, entity.ErrTokenInvalid
	}

	userID, err := uuid.FromString(claims.Subject)
	if err != nil || userID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("token subject: %w", entity.ErrTokenInvalid)
	}

	return userID, nil
}

func (s *AuthService) issueToken(user entity.User) (entity.AuthToken, error) {
	now := time.Now()

	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, userClaims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.Must(uuid.NewV4()).String(),
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
	}).SignedString(s.key)
	if err != nil {
		return entity.AuthToken{}, fmt.Errorf("sign access token: %w", err)
	}

	return entity.AuthToken{
		Token:     token,
		ExpiresIn: s.expiry,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
