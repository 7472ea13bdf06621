package poller

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ShafahmadxX69/Dashioh/internal/pipeline"
)

// Refresher is the part of the refresh service the poller drives.
type Refresher interface {
	Refresh(ctx context.Context) (pipeline.RefreshResult, error)
}

// Service refreshes the dashboard on a fixed interval.
type Service struct {
	refresher Refresher
	interval  time.Duration
	logger    *slog.Logger
}

func NewService(refresher Refresher, interval time.Duration) *Service {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Service{refresher: refresher, interval: interval, logger: slog.Default()}
}

// Run refreshes immediately and then every interval until ctx is done.
// Cycle errors are logged and the loop carries on.
func (s *Service) Run(ctx context.Context) error {
	for {
		s.runCycle(ctx)
		if ctx.Err() != nil {
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.interval):
		}
	}
}

func (s *Service) runCycle(ctx context.Context) {
	res, err := s.refresher.Refresh(ctx)
	switch {
	case err == nil:
		s.logger.Debug("poll cycle done", "run", res.Run.ID, "records", res.Records)
	case errors.Is(err, pipeline.ErrRefreshInProgress):
		s.logger.Debug("poll cycle skipped, refresh in progress")
	case errors.Is(err, context.Canceled):
	default:
		s.logger.Error("poll cycle error", "err", err)
	}
}
