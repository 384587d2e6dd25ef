package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/angryrobotdeals/mtagent/internal/metrics"
	"github.com/angryrobotdeals/mtagent/internal/models"
	"github.com/angryrobotdeals/mtagent/internal/repository"
)

// RowKey identifies one deal history row for reconciliation.
type RowKey struct {
	ClientID   string `json:"client_id"`
	Time       int64  `json:"time"`
	DealTicket int64  `json:"deal_ticket"`
}

// UpsertReport is the per-row outcome of a history batch. OK is true
// only when every row landed; Failed lists the keys the caller should
// re-send or investigate.
type UpsertReport struct {
	OK       bool     `json:"ok"`
	Upserted int      `json:"upserted"`
	Failed   []RowKey `json:"failed,omitempty"`
}

// HistoryService ingests per-client trade history batches.
type HistoryService struct {
	Repo    repository.Repository
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// UpsertBatch upserts each row by its natural key (clientID, time,
// deal_ticket). Rows are independent: a failing row never rolls back
// the others, it only flags the batch as failed in the report. The
// clientID always comes from the authenticated caller, overriding
// whatever the rows carry.
func (s *HistoryService) UpsertBatch(ctx context.Context, clientID string, rows []models.DealHistory) (*UpsertReport, error) {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" || len(rows) == 0 {
		return nil, ErrValidation
	}

	report := &UpsertReport{OK: true}
	for i := range rows {
		row := rows[i]
		row.ID = 0
		row.ClientID = clientID

		if row.Time <= 0 || row.DealTicket <= 0 {
			report.OK = false
			report.Failed = append(report.Failed, RowKey{
				ClientID:   clientID,
				Time:       row.Time,
				DealTicket: row.DealTicket,
			})
			continue
		}

		if err := s.Repo.UpsertDealHistory(ctx, &row); err != nil {
			if s.Logger != nil {
				s.Logger.Warn("deal history upsert failed",
					zap.String("client_id", clientID),
					zap.Int64("time", row.Time),
					zap.Int64("deal_ticket", row.DealTicket),
					zap.Error(err),
				)
			}
			report.OK = false
			report.Failed = append(report.Failed, RowKey{
				ClientID:   clientID,
				Time:       row.Time,
				DealTicket: row.DealTicket,
			})
			continue
		}
		report.Upserted++
	}

	s.Metrics.AddHistoryUpserted(report.Upserted)
	s.Metrics.AddHistoryFailed(len(report.Failed))
	return report, nil
}
