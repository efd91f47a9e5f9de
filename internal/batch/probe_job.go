package batch

import (
	"context"
	"fmt"
	"log/slog"

	"customer-directory/internal/infrastructure/monitoring"
)

// StoreProber is the slice of the store connector the probe job uses.
type StoreProber interface {
	Probe(ctx context.Context) bool
}

// StoreProbeJob runs the connector's connectivity probe on a schedule and
// exports the result as the store_up gauge, so a store outage is visible
// without waiting for a request to fail.
type StoreProbeJob struct {
	store  StoreProber
	logger *slog.Logger
}

func NewStoreProbeJob(store StoreProber, logger *slog.Logger) *StoreProbeJob {
	if store == nil {
		panic("store prober cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &StoreProbeJob{
		store:  store,
		logger: logger.With("component", "StoreProbeJob"),
	}
}

func (j *StoreProbeJob) Run(ctx context.Context) error {
	up := j.store.Probe(ctx)
	monitoring.SetStoreUp(up)

	if !up {
		j.logger.WarnContext(ctx, "Scheduled store probe failed")
		return fmt.Errorf("store probe reported the backing store as unavailable")
	}

	j.logger.DebugContext(ctx, "Scheduled store probe succeeded")
	return nil
}
