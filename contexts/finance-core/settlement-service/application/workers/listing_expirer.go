package workers

import (
	"context"
	"log/slog"

	"bluecarbon/contexts/finance-core/settlement-service/application"
)

// ListingExpirer sweeps overdue active listings to their terminal expired
// state. Reads already expire lazily; the sweeper keeps the status index
// honest for listings nobody touches.
type ListingExpirer struct {
	Service   application.Service
	BatchSize int
	Disabled  bool
	Logger    *slog.Logger
}

func (w ListingExpirer) RunOnce(ctx context.Context) error {
	logger := w.logger()
	if w.Disabled {
		return nil
	}
	limit := w.BatchSize
	if limit <= 0 {
		limit = 100
	}

	overdue, err := w.Service.ListExpirable(ctx, limit)
	if err != nil {
		logger.Error("listing expiry sweep list failed",
			"event", "market_expirer_list_failed",
			"module", "finance-core/settlement-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	expired := 0
	for _, listing := range overdue {
		if _, err := w.Service.ExpireListing(ctx, listing.ListingID); err != nil {
			logger.Error("listing expiry failed",
				"event", "market_expirer_expire_failed",
				"module", "finance-core/settlement-service",
				"layer", "worker",
				"listing_id", listing.ListingID,
				"error", err.Error(),
			)
			return err
		}
		expired++
	}
	if expired > 0 {
		logger.Info("listing expiry sweep completed",
			"event", "market_expirer_swept",
			"module", "finance-core/settlement-service",
			"layer", "worker",
			"expired", expired,
		)
	}
	return nil
}

func (w ListingExpirer) logger() *slog.Logger {
	if w.Logger == nil {
		return slog.Default()
	}
	return w.Logger
}
