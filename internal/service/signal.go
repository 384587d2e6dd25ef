package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/angryrobotdeals/mtagent/internal/metrics"
	"github.com/angryrobotdeals/mtagent/internal/models"
	"github.com/angryrobotdeals/mtagent/internal/repository"
)

// freshnessWindow is how long a signal stays eligible for delivery to
// its addressee. Signals are commands meant for near-immediate
// execution; a client reconnecting after a longer gap must not replay
// them. Fixed by design, not configurable.
const freshnessWindow = 30 * time.Second

// SignalService distributes trading instructions. Signals accumulate:
// delivery filters on creation time instead of consuming records, so
// repeated polls inside the window return the same signal.
type SignalService struct {
	Repo    repository.Repository
	Logger  *zap.Logger
	Metrics *metrics.Metrics

	// Now overrides the clock in tests.
	Now func() time.Time
}

func (s *SignalService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Create persists an admin-issued signal. The signal id is always
// assigned here, replacing anything the request carried, and the
// creation instant is stamped explicitly so freshness never trusts a
// client-supplied timestamp.
func (s *SignalService) Create(ctx context.Context, sig *models.Signal) (*models.Signal, error) {
	if sig == nil {
		return nil, ErrValidation
	}
	sig.ClientID = strings.TrimSpace(sig.ClientID)
	if sig.ClientID == "" || strings.TrimSpace(sig.Action) == "" || strings.TrimSpace(sig.Symbol) == "" {
		return nil, ErrValidation
	}
	sig.ID = 0
	sig.SignalID = uuid.NewString()
	sig.CreatedAt = s.now().UTC()
	if err := s.Repo.InsertSignal(ctx, sig); err != nil {
		return nil, fmt.Errorf("insert signal: %w", err)
	}
	s.Metrics.IncSignalsCreated()
	if s.Logger != nil {
		s.Logger.Info("signal created",
			zap.String("signal_id", sig.SignalID),
			zap.String("client_id", sig.ClientID),
			zap.String("action", sig.Action),
			zap.String("symbol", sig.Symbol),
		)
	}
	return sig, nil
}

// ListFresh returns the addressee's signals created within the
// freshness window, oldest first. The cutoff is inclusive: a signal
// aged exactly freshnessWindow is still delivered.
func (s *SignalService) ListFresh(ctx context.Context, clientID string) ([]models.Signal, error) {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return nil, ErrValidation
	}
	since := s.now().UTC().Add(-freshnessWindow)
	items, err := s.Repo.ListSignals(ctx, repository.ListSignalsParams{
		ClientID: &clientID,
		Since:    &since,
	})
	if err != nil {
		return nil, fmt.Errorf("list signals: %w", err)
	}
	s.Metrics.AddSignalsDelivered(len(items))
	return items, nil
}

// ListAll returns every stored signal regardless of age or addressee.
// Operator/monitoring surface.
func (s *SignalService) ListAll(ctx context.Context) ([]models.Signal, error) {
	items, err := s.Repo.ListSignals(ctx, repository.ListSignalsParams{})
	if err != nil {
		return nil, fmt.Errorf("list signals: %w", err)
	}
	return items, nil
}

// PruneOlderThan deletes signals created more than maxAge ago. Driven
// by the optional retention cron; delivery semantics never depend on
// it because freshness is computed at read time.
func (s *SignalService) PruneOlderThan(ctx context.Context, maxAge time.Duration) (int64, error) {
	if maxAge <= 0 {
		return 0, nil
	}
	before := s.now().UTC().Add(-maxAge)
	return s.Repo.DeleteSignalsBefore(ctx, before)
}
