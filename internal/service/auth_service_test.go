package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/gsh519/wedding-snap/internal/models"
	"github.com/gsh519/wedding-snap/pkg/config"
	apperrors "github.com/gsh519/wedding-snap/pkg/errors"
)

type userUpsertStub struct {
	upserted []models.User
	err      error
}

func (s *userUpsertStub) Upsert(ctx context.Context, user *models.User) error {
	if s.err != nil {
		return s.err
	}
	s.upserted = append(s.upserted, *user)
	return nil
}

func signTestToken(t *testing.T, secret string, claims *models.JWTClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func testClaims(expiry time.Duration) *models.JWTClaims {
	return &models.JWTClaims{
		UserID: "owner-1",
		Email:  "owner@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().UTC().Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now().UTC()),
		},
	}
}

func TestValidateTokenAcceptsSignedToken(t *testing.T) {
	svc := NewAuthService(&userUpsertStub{}, config.JWTConfig{Secret: "test-secret"}, nil)

	claims, err := svc.ValidateToken(signTestToken(t, "test-secret", testClaims(time.Hour)))
	require.NoError(t, err)
	require.Equal(t, "owner-1", claims.UserID)
	require.Equal(t, "owner@example.com", claims.Email)
}

func TestValidateTokenRejections(t *testing.T) {
	svc := NewAuthService(&userUpsertStub{}, config.JWTConfig{Secret: "test-secret"}, nil)

	_, err := svc.ValidateToken(signTestToken(t, "wrong-secret", testClaims(time.Hour)))
	require.Error(t, err)
	require.Equal(t, apperrors.ErrUnauthorized.Code, apperrors.FromError(err).Code)

	_, err = svc.ValidateToken(signTestToken(t, "test-secret", testClaims(-time.Hour)))
	require.Error(t, err)
	require.Equal(t, apperrors.ErrUnauthorized.Code, apperrors.FromError(err).Code)

	_, err = svc.ValidateToken("not-a-token")
	require.Error(t, err)
}

func TestAuthenticateMirrorsUserRow(t *testing.T) {
	users := &userUpsertStub{}
	svc := NewAuthService(users, config.JWTConfig{Secret: "test-secret"}, nil)

	claims, err := svc.Authenticate(context.Background(), signTestToken(t, "test-secret", testClaims(time.Hour)))
	require.NoError(t, err)
	require.Equal(t, "owner-1", claims.UserID)
	require.Len(t, users.upserted, 1)
	require.Equal(t, "owner@example.com", users.upserted[0].Email)
}
