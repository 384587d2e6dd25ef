package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/angryrobotdeals/mtagent/internal/models"
	"github.com/angryrobotdeals/mtagent/internal/repository"
)

var errStoreDown = errors.New("store down")

// memRepo mirrors the gorm store's semantics closely enough for the
// service tests: unique usernames, inclusive Since filtering, upsert
// by natural key.
type memRepo struct {
	mu      sync.Mutex
	users   map[string]models.User
	signals []models.Signal
	deals   map[RowKey]models.DealHistory

	failDeals map[RowKey]bool
	insertErr error
}

func newMemRepo() *memRepo {
	return &memRepo{
		users:     map[string]models.User{},
		deals:     map[RowKey]models.DealHistory{},
		failDeals: map[RowKey]bool{},
	}
}

func (r *memRepo) CreateUser(ctx context.Context, item *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[item.Username]; ok {
		return repository.ErrDuplicate
	}
	r.users[item.Username] = *item
	return nil
}

func (r *memRepo) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[username]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *memRepo) GetUserByToken(ctx context.Context, token string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if token == "" {
		return nil, nil
	}
	for _, u := range r.users {
		if u.Token == token {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}

func (r *memRepo) UpdateUserToken(ctx context.Context, username, token string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[username]
	if !ok {
		return 0, nil
	}
	u.Token = token
	r.users[username] = u
	return 1, nil
}

func (r *memRepo) ClearUserToken(ctx context.Context, username string) (int64, error) {
	return r.UpdateUserToken(ctx, username, "")
}

func (r *memRepo) ListUsers(ctx context.Context) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (r *memRepo) InsertSignal(ctx context.Context, item *models.Signal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return r.insertErr
	}
	item.ID = uint64(len(r.signals) + 1)
	r.signals = append(r.signals, *item)
	return nil
}

func (r *memRepo) ListSignals(ctx context.Context, params repository.ListSignalsParams) ([]models.Signal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Signal
	for _, s := range r.signals {
		if params.ClientID != nil && s.ClientID != *params.ClientID {
			continue
		}
		if params.Since != nil && s.CreatedAt.Before(*params.Since) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *memRepo) DeleteSignalsBefore(ctx context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kept []models.Signal
	var n int64
	for _, s := range r.signals {
		if s.CreatedAt.Before(before) {
			n++
			continue
		}
		kept = append(kept, s)
	}
	r.signals = kept
	return n, nil
}

func (r *memRepo) UpsertDealHistory(ctx context.Context, item *models.DealHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := RowKey{ClientID: item.ClientID, Time: item.Time, DealTicket: item.DealTicket}
	if r.failDeals[key] {
		return errStoreDown
	}
	r.deals[key] = *item
	return nil
}
