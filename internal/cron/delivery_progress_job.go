package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/retailstock-backend/internal/deliveries"
	"github.com/angelmondragon/retailstock-backend/pkg/logger"
)

type deliveryProgressor interface {
	Progress(ctx context.Context, now time.Time, stage time.Duration) (deliveries.ProgressSummary, error)
}

// DeliveryProgressJobParams configures the automatic delivery lifecycle.
type DeliveryProgressJobParams struct {
	Logger        *logger.Logger
	Deliveries    deliveryProgressor
	StageInterval time.Duration
}

// NewDeliveryProgressJob moves pending deliveries one stage forward each tick once they
// are old enough. Completing a delivery materializes its stock units.
func NewDeliveryProgressJob(params DeliveryProgressJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Deliveries == nil {
		return nil, fmt.Errorf("delivery service required")
	}
	if params.StageInterval <= 0 {
		return nil, fmt.Errorf("stage interval must be positive")
	}
	return &deliveryProgressJob{
		logg:       params.Logger,
		deliveries: params.Deliveries,
		stage:      params.StageInterval,
		now:        time.Now,
	}, nil
}

type deliveryProgressJob struct {
	logg       *logger.Logger
	deliveries deliveryProgressor
	stage      time.Duration
	now        func() time.Time
}

func (j *deliveryProgressJob) Name() string { return "delivery-progress" }

func (j *deliveryProgressJob) Run(ctx context.Context) error {
	summary, err := j.deliveries.Progress(ctx, j.now().UTC(), j.stage)
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"scanned":  summary.Scanned,
		"advanced": summary.Advanced,
		"failed":   summary.Failed,
	})
	if summary.Advanced > 0 {
		j.logg.Info(logCtx, "deliveries advanced")
	} else {
		j.logg.Debug(logCtx, "no deliveries due")
	}
	if err != nil {
		return fmt.Errorf("delivery progression: %w", err)
	}
	return nil
}
