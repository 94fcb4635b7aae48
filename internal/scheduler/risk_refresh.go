package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/arthalabs/risk-engine/internal/database"
	"github.com/arthalabs/risk-engine/internal/events"
	"github.com/arthalabs/risk-engine/internal/monitor"
)

// refreshTimeout bounds one full watch-list sweep.
const refreshTimeout = 2 * time.Minute

// RiskRefreshJob recomputes risk metrics for every watched portfolio,
// keeping the result cache warm and surfacing alerts between requests.
type RiskRefreshJob struct {
	monitor   *monitor.Monitor
	watchlist *database.WatchlistRepository
	events    *events.Manager
	log       zerolog.Logger
}

// NewRiskRefreshJob creates the periodic refresh job.
func NewRiskRefreshJob(
	m *monitor.Monitor,
	watchlist *database.WatchlistRepository,
	eventManager *events.Manager,
	log zerolog.Logger,
) *RiskRefreshJob {
	return &RiskRefreshJob{
		monitor:   m,
		watchlist: watchlist,
		events:    eventManager,
		log:       log.With().Str("component", "risk_refresh").Logger(),
	}
}

// Name implements Job.
func (j *RiskRefreshJob) Name() string {
	return "risk_refresh"
}

// Run implements Job. Failures for one user are isolated; the sweep
// continues with the rest of the watch list.
func (j *RiskRefreshJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	portfolios, err := j.watchlist.All()
	if err != nil {
		return err
	}

	refreshed := 0
	for userID, portfolio := range portfolios {
		p := portfolio
		j.monitor.InvalidateRisk(userID)
		if _, err := j.monitor.CalculatePortfolioRisk(ctx, userID, &p, 0); err != nil {
			j.log.Warn().
				Str("user_id", userID).
				Err(err).
				Msg("Failed to refresh risk metrics")
			continue
		}
		refreshed++
	}

	j.events.Emit(events.RiskRefreshCompleted, "scheduler", map[string]interface{}{
		"watched":   len(portfolios),
		"refreshed": refreshed,
	})

	return nil
}
