package repository

import (
	"context"
	"errors"
	"time"

	"github.com/angryrobotdeals/mtagent/internal/models"
)

// ErrDuplicate is returned when an insert violates a unique constraint.
// The gorm store maps the driver error to this sentinel so services can
// react without importing gorm.
var ErrDuplicate = errors.New("duplicate key")

// ListSignalsParams narrows a signal listing. Nil fields are skipped.
type ListSignalsParams struct {
	// ClientID restricts to signals addressed to one client.
	ClientID *string
	// Since keeps only signals created at or after the given instant.
	Since *time.Time
}

type Repository interface {
	// Users and tokens.
	CreateUser(ctx context.Context, item *models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByToken(ctx context.Context, token string) (*models.User, error)
	UpdateUserToken(ctx context.Context, username string, token string) (int64, error)
	ClearUserToken(ctx context.Context, username string) (int64, error)
	ListUsers(ctx context.Context) ([]models.User, error)

	// Signals.
	InsertSignal(ctx context.Context, item *models.Signal) error
	ListSignals(ctx context.Context, params ListSignalsParams) ([]models.Signal, error)
	DeleteSignalsBefore(ctx context.Context, before time.Time) (int64, error)

	// Deal history.
	UpsertDealHistory(ctx context.Context, item *models.DealHistory) error
}
