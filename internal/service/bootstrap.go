package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/angryrobotdeals/mtagent/internal/auth"
	"github.com/angryrobotdeals/mtagent/internal/models"
	"github.com/angryrobotdeals/mtagent/internal/repository"
)

// EnsureAdmin creates the admin identity with a generated token if it
// does not exist yet. Runs once at process start; request handling
// never repairs a missing admin. The token is logged on first creation
// because there is no other channel to hand it to the operator.
func EnsureAdmin(ctx context.Context, repo repository.Repository, logger *zap.Logger) error {
	existing, err := repo.GetUserByUsername(ctx, auth.AdminUsername)
	if err != nil {
		return fmt.Errorf("lookup admin: %w", err)
	}
	if existing != nil {
		return nil
	}
	token := uuid.NewString()
	if err := repo.CreateUser(ctx, &models.User{Username: auth.AdminUsername, Token: token}); err != nil {
		// Another instance won the bootstrap race.
		if errors.Is(err, repository.ErrDuplicate) {
			return nil
		}
		return fmt.Errorf("create admin: %w", err)
	}
	if logger != nil {
		logger.Info("admin identity created", zap.String("token", token))
	}
	return nil
}
