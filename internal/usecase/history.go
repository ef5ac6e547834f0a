package usecase

import (
	"context"
	"fmt"
	"time"

	"stockscout/internal/domain/models"
	drepo "stockscout/internal/domain/repository"
	"stockscout/pkg/util"
)

// History serves score history queries from the score store.
type History struct {
	store drepo.ScoreStore
}

func NewHistory(store drepo.ScoreStore) *History {
	return &History{store: store}
}

// Query returns score events for a ticker within [from, to], newest
// first. Empty bounds default to the trailing 90 days.
func (h *History) Query(ctx context.Context, req *models.HistoryRequest) ([]*models.ScoreEvent, error) {
	now := time.Now().UTC()
	from := util.ParseTimeDefault(req.From, now.AddDate(0, 0, -90))
	to := util.ParseTimeDefault(req.To, now)
	if to.Before(from) {
		return nil, fmt.Errorf("invalid range: to %s before from %s", to.Format(time.RFC3339), from.Format(time.RFC3339))
	}

	evs, err := h.store.Query(ctx, req.Ticker, from, to, req.Limit)
	if err != nil {
		return nil, fmt.Errorf("score history: %w", err)
	}
	return evs, nil
}
