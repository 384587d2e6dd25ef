package gormrepository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angryrobotdeals/mtagent/internal/models"
	"github.com/angryrobotdeals/mtagent/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// --- Users ------------------------------------------------------------------

func (s *Store) CreateUser(ctx context.Context, item *models.User) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	if err := s.db.WithContext(ctx).Create(item).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return repository.ErrDuplicate
		}
		return err
	}
	return nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.User
	err := s.db.WithContext(ctx).
		Where("username = ?", strings.TrimSpace(username)).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) GetUserByToken(ctx context.Context, token string) (*models.User, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if strings.TrimSpace(token) == "" {
		return nil, nil
	}
	var item models.User
	err := s.db.WithContext(ctx).
		Where("token = ?", token).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) UpdateUserToken(ctx context.Context, username string, token string) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("username = ?", strings.TrimSpace(username)).
		Update("token", token)
	return res.RowsAffected, res.Error
}

// ClearUserToken empties the token column but keeps the user row, so a
// revoked client can be re-provisioned under the same username.
func (s *Store) ClearUserToken(ctx context.Context, username string) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("username = ?", strings.TrimSpace(username)).
		Update("token", "")
	return res.RowsAffected, res.Error
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.User
	if err := s.db.WithContext(ctx).Order("username asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// --- Signals ----------------------------------------------------------------

func (s *Store) InsertSignal(ctx context.Context, item *models.Signal) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) ListSignals(ctx context.Context, params repository.ListSignalsParams) ([]models.Signal, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.Signal{})
	if params.ClientID != nil && strings.TrimSpace(*params.ClientID) != "" {
		query = query.Where("client_id = ?", strings.TrimSpace(*params.ClientID))
	}
	if params.Since != nil && !params.Since.IsZero() {
		query = query.Where("created_at >= ?", *params.Since)
	}
	var items []models.Signal
	if err := query.Order("created_at asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) DeleteSignalsBefore(ctx context.Context, before time.Time) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	if before.IsZero() {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Where("created_at < ?", before).
		Delete(&models.Signal{})
	return res.RowsAffected, res.Error
}

// --- Deal history -----------------------------------------------------------

// UpsertDealHistory inserts one deal row or, when the natural key
// (client_id, time, deal_ticket) already exists, overwrites every
// non-key column in place.
func (s *Store) UpsertDealHistory(ctx context.Context, item *models.DealHistory) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "client_id"},
			{Name: "time"},
			{Name: "deal_ticket"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"order_ticket",
			"magic",
			"entry",
			"reason",
			"position",
			"action",
			"symbol",
			"comment",
			"external_deal_id",
			"volume",
			"price",
			"profit",
			"commission",
			"swap",
			"fee",
			"stop_loss",
			"take_profit",
			"updated_at",
		}),
	}).Create(item).Error
}
