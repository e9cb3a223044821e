package service

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/gsh519/wedding-snap/internal/models"
	"github.com/gsh519/wedding-snap/pkg/config"
	appErrors "github.com/gsh519/wedding-snap/pkg/errors"
)

type authUserStore interface {
	Upsert(ctx context.Context, user *models.User) error
}

// AuthService verifies access tokens issued by the identity provider and
// mirrors the verified identity into the local users table.
type AuthService struct {
	users  authUserStore
	cfg    config.JWTConfig
	logger *zap.Logger
}

// NewAuthService constructs the service.
func NewAuthService(users authUserStore, cfg config.JWTConfig, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{users: users, cfg: cfg, logger: logger}
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	return claims, nil
}

// Authenticate validates the token and keeps the mirrored user row fresh.
// The mirror is what the export notifier reads the owner's email from, so
// a stale row only delays mail, it never blocks the request.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*models.JWTClaims, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	if err := s.users.Upsert(ctx, &models.User{ID: claims.UserID, Email: claims.Email}); err != nil {
		s.logger.Warn("failed to mirror user row", zap.String("user_id", claims.UserID), zap.Error(err))
	}
	return claims, nil
}
