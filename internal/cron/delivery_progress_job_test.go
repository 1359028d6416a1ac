package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/retailstock-backend/internal/deliveries"
)

type fakeProgressor struct {
	now     time.Time
	stage   time.Duration
	summary deliveries.ProgressSummary
	err     error
}

func (f *fakeProgressor) Progress(_ context.Context, now time.Time, stage time.Duration) (deliveries.ProgressSummary, error) {
	f.now = now
	f.stage = stage
	return f.summary, f.err
}

func TestDeliveryProgressJobPassesClockAndStage(t *testing.T) {
	progressor := &fakeProgressor{summary: deliveries.ProgressSummary{Scanned: 3, Advanced: 2}}
	jobIface, err := NewDeliveryProgressJob(DeliveryProgressJobParams{
		Logger:        testLogger(),
		Deliveries:    progressor,
		StageInterval: 5 * time.Second,
	})
	require.NoError(t, err)
	job := jobIface.(*deliveryProgressJob)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	job.now = func() time.Time { return fixed }

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, fixed, progressor.now)
	assert.Equal(t, 5*time.Second, progressor.stage)
	assert.Equal(t, "delivery-progress", job.Name())
}

func TestDeliveryProgressJobSurfacesFailures(t *testing.T) {
	progressor := &fakeProgressor{
		summary: deliveries.ProgressSummary{Scanned: 2, Advanced: 1, Failed: 1},
		err:     errors.New("delivery x: boom"),
	}
	job, err := NewDeliveryProgressJob(DeliveryProgressJobParams{
		Logger:        testLogger(),
		Deliveries:    progressor,
		StageInterval: time.Second,
	})
	require.NoError(t, err)

	err = job.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestNewDeliveryProgressJobValidates(t *testing.T) {
	_, err := NewDeliveryProgressJob(DeliveryProgressJobParams{Logger: testLogger(), Deliveries: &fakeProgressor{}})
	assert.Error(t, err)
	_, err = NewDeliveryProgressJob(DeliveryProgressJobParams{Logger: testLogger(), StageInterval: time.Second})
	assert.Error(t, err)
}
