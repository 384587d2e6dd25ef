package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/angryrobotdeals/mtagent/internal/models"
	"github.com/angryrobotdeals/mtagent/internal/repository"
)

// TokenService owns the identity/token lifecycle. Tokens are opaque
// uuid4 values (crypto/rand backed): not derivable from the username,
// no expiry, valid until rotated or revoked. Rotation has no grace
// period; the superseded token fails on its very next use.
type TokenService struct {
	Repo   repository.Repository
	Logger *zap.Logger
}

func newToken() string {
	return uuid.NewString()
}

// Register creates a new identity with a fresh token. The unique
// username constraint decides concurrent registrations: the loser gets
// ErrAlreadyExists, never a silent overwrite.
func (s *TokenService) Register(ctx context.Context, username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", ErrValidation
	}
	existing, err := s.Repo.GetUserByUsername(ctx, username)
	if err != nil {
		return "", fmt.Errorf("lookup user: %w", err)
	}
	if existing != nil {
		return "", ErrAlreadyExists
	}
	token := newToken()
	if err := s.Repo.CreateUser(ctx, &models.User{Username: username, Token: token}); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return "", ErrAlreadyExists
		}
		return "", fmt.Errorf("create user: %w", err)
	}
	if s.Logger != nil {
		s.Logger.Info("user registered", zap.String("username", username))
	}
	return token, nil
}

// UpdateToken rotates an existing identity's token. The previous token
// is dead as soon as the write lands.
func (s *TokenService) UpdateToken(ctx context.Context, username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", ErrValidation
	}
	token := newToken()
	affected, err := s.Repo.UpdateUserToken(ctx, username, token)
	if err != nil {
		return "", fmt.Errorf("update token: %w", err)
	}
	if affected == 0 {
		return "", ErrNotFound
	}
	if s.Logger != nil {
		s.Logger.Info("token rotated", zap.String("username", username))
	}
	return token, nil
}

// Login returns the named client's current token to the admin. A
// revoked client (empty token column) gets a fresh token minted, which
// is how a client is re-provisioned after a revoke.
func (s *TokenService) Login(ctx context.Context, username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", ErrValidation
	}
	user, err := s.Repo.GetUserByUsername(ctx, username)
	if err != nil {
		return "", fmt.Errorf("lookup user: %w", err)
	}
	if user == nil {
		return "", ErrNotFound
	}
	if user.Token != "" {
		return user.Token, nil
	}
	token := newToken()
	if _, err := s.Repo.UpdateUserToken(ctx, username, token); err != nil {
		return "", fmt.Errorf("reissue token: %w", err)
	}
	if s.Logger != nil {
		s.Logger.Info("token reissued on login", zap.String("username", username))
	}
	return token, nil
}

// UserByToken resolves the identity holding a token, nil when no one
// does.
func (s *TokenService) UserByToken(ctx context.Context, token string) (*models.User, error) {
	if strings.TrimSpace(token) == "" {
		return nil, nil
	}
	return s.Repo.GetUserByToken(ctx, token)
}

// List returns every identity/token pair, unpaginated.
func (s *TokenService) List(ctx context.Context) ([]models.User, error) {
	return s.Repo.ListUsers(ctx)
}

// Revoke clears the identity's token association.
func (s *TokenService) Revoke(ctx context.Context, username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return ErrValidation
	}
	affected, err := s.Repo.ClearUserToken(ctx, username)
	if err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	if s.Logger != nil {
		s.Logger.Info("token revoked", zap.String("username", username))
	}
	return nil
}
