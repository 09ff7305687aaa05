package service_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"github.com/samandr77/microservices/backoffice/internal/entity"
	"github.com/samandr77/microservices/backoffice/internal/mocks"
	"github.com/samandr77/microservices/backoffice/internal/service"
	"github.com/samandr77/microservices/backoffice/pkg/breaker"
)

var testKey = sync.OnceValue(func() *rsa.PrivateKey {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		panic(err)
	}

	return key
})

func passThrough(_ string, fn func() error) error {
	return fn()
}

func newAuthService(t *testing.T, expiry time.Duration) (*service.AuthService, *mocks.MockUserRepository, *mocks.MockBreaker) {
	t.Helper()

	ctrl := gomock.NewController(t)
	repo := mocks.NewMockUserRepository(ctrl)
	br := mocks.NewMockBreaker(ctrl)

	return service.NewAuthService(repo, br, testKey(), expiry), repo, br
}

func TestAuthService_Register(t *testing.T) {
	t.Parallel()

	s, repo, br := newAuthService(t, 12*time.Hour)
	userID := uuid.Must(uuid.NewV4())

	br.EXPECT().Execute(service.RegisterBreakerName, gomock.Any()).DoAndReturn(passThrough)
	repo.EXPECT().CreateUser(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, u entity.User) (entity.User, error) {
			require.Equal(t, "jane@example.com", u.Email)
			require.Equal(t, "Jane Doe", u.FullName)
			require.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secret123")))

			u.ID = userID

			return u, nil
		})

	token, err := s.Register(context.Background(), " Jane@Example.com ", "secret123", "Jane Doe")
	require.NoError(t, err)
	require.Equal(t, 12*time.Hour, token.ExpiresIn)

	gotID, err := s.ValidateToken(context.Background(), token.Token)
	require.NoError(t, err)
	require.Equal(t, userID, gotID)
}

func TestAuthService_Register_Errors(t *testing.T) {
	t.Parallel()

	t.Run("email exists", func(t *testing.T) {
		t.Parallel()

		s, repo, br := newAuthService(t, time.Hour)

		br.EXPECT().Execute(service.RegisterBreakerName, gomock.Any()).DoAndReturn(passThrough)
		repo.EXPECT().CreateUser(gomock.Any(), gomock.Any()).Return(entity.User{}, entity.ErrAlreadyExists)

		_, err := s.Register(context.Background(), "jane@example.com", "secret123", "Jane Doe")
		require.ErrorIs(t, err, entity.ErrAlreadyExists)
	})

	t.Run("breaker open", func(t *testing.T) {
		t.Parallel()

		s, _, br := newAuthService(t, time.Hour)

		br.EXPECT().Execute(service.RegisterBreakerName, gomock.Any()).Return(breaker.ErrBlocked)

		_, err := s.Register(context.Background(), "jane@example.com", "secret123", "Jane Doe")
		require.ErrorIs(t, err, entity.ErrTemporarilyDisabled)
	})
}

func TestAuthService_Login(t *testing.T) {
	t.Parallel()

	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)

	user := entity.User{
		ID:           uuid.Must(uuid.NewV4()),
		Email:        "jane@example.com",
		PasswordHash: string(hash),
	}

	tests := []struct {
		name     string
		password string
		repoUser entity.User
		repoErr  error
		wantErr  error
	}{
		{name: "ok", password: "secret123", repoUser: user},
		{name: "wrong password", password: "secret124", repoUser: user, wantErr: entity.ErrInvalidCredentials},
		{name: "unknown email", password: "secret123", repoErr: entity.ErrNotFound, wantErr: entity.ErrInvalidCredentials},
		{name: "storage error", password: "secret123", repoErr: errStorage, wantErr: errStorage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s, repo, _ := newAuthService(t, time.Hour)

			repo.EXPECT().UserByEmail(gomock.Any(), "jane@example.com").Return(tt.repoUser, tt.repoErr)

			token, err := s.Login(context.Background(), "JANE@example.com", tt.password)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			require.NotEmpty(t, token.Token)
		})
	}
}

func TestAuthService_ValidateToken(t *testing.T) {
	t.Parallel()

	s, _, _ := newAuthService(t, time.Hour)
	userID := uuid.Must(uuid.NewV4())

	sign := func(t *testing.T, method jwt.SigningMethod, key any, claims jwt.RegisteredClaims) string {
		t.Helper()

		token, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)

		return token
	}

	otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	valid := jwt.RegisteredClaims{
		Subject:   userID.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{
			name:  "valid",
			token: sign(t, jwt.SigningMethodRS256, testKey(), valid),
		},
		{
			name: "expired",
			token: sign(t, jwt.SigningMethodRS256, testKey(), jwt.RegisteredClaims{
				Subject:   userID.String(),
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			}),
			wantErr: entity.ErrTokenExpired,
		},
		{
			name:    "foreign key",
			token:   sign(t, jwt.SigningMethodRS256, otherKey, valid),
			wantErr: entity.ErrTokenInvalid,
		},
		{
			name:    "hmac",
			token:   sign(t, jwt.SigningMethodHS256, []byte("secret"), valid),
			wantErr: entity.ErrTokenInvalid,
		},
		{
			name: "bad subject",
			token: sign(t, jwt.SigningMethodRS256, testKey(), jwt.RegisteredClaims{
				Subject:   "admin",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			}),
			wantErr: entity.ErrTokenInvalid,
		},
		{
			name:    "garbage",
			token:   "not.a.token",
			wantErr: entity.ErrTokenInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := s.ValidateToken(context.Background(), tt.token)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			require.Equal(t, userID, got)
		})
	}
}
