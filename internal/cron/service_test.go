package cron

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/retailstock-backend/pkg/logger"
	"github.com/angelmondragon/retailstock-backend/pkg/metrics"
)

type fakeLock struct {
	held     bool
	acquired int
	released int
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.held {
		return false, nil
	}
	f.acquired++
	return true, nil
}

func (f *fakeLock) Release(context.Context) error {
	f.released++
	return nil
}

type testJob struct {
	name  string
	err   error
	every time.Duration
	runs  int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs++
	return t.err
}

type periodicTestJob struct {
	*testJob
}

func (p periodicTestJob) Every() time.Duration { return p.every }

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard})
}

func TestServiceRunCycleRunsAllJobsEvenOnFailure(t *testing.T) {
	success := &testJob{name: "success"}
	failure := &testJob{name: "fail", err: errors.New("boom")}
	reg := prometheus.NewRegistry()
	lock := &fakeLock{}
	service, err := NewService(ServiceParams{
		Logger:   testLogger(),
		Registry: NewRegistry(success, failure),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(reg),
	})
	require.NoError(t, err)
	assert.Equal(t, defaultInterval, service.interval)

	require.NoError(t, service.runCycle(context.Background()))
	assert.Equal(t, 1, success.runs)
	assert.Equal(t, 1, failure.runs)
	assert.Equal(t, 1, lock.released)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, family := range families {
		names = append(names, family.GetName())
	}
	assert.Contains(t, names, "job_failure")
	assert.Contains(t, names, "job_success")
}

func TestServiceSkipsTickWhenLockHeld(t *testing.T) {
	job := &testJob{name: "delivery-progress"}
	service, err := NewService(ServiceParams{
		Logger:   testLogger(),
		Registry: NewRegistry(job),
		Lock:     &fakeLock{held: true},
	})
	require.NoError(t, err)

	require.NoError(t, service.runCycle(context.Background()))
	assert.Zero(t, job.runs)
}

func TestServiceHonoursPeriodicCadence(t *testing.T) {
	everyTick := &testJob{name: "delivery-progress"}
	hourly := periodicTestJob{&testJob{name: "outbox-retention", every: time.Hour}}
	service, err := NewService(ServiceParams{
		Logger:   testLogger(),
		Registry: NewRegistry(everyTick, hourly),
		Lock:     &fakeLock{},
		Interval: time.Second,
	})
	require.NoError(t, err)

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, service.runCycle(ctx))
	now = now.Add(30 * time.Minute)
	require.NoError(t, service.runCycle(ctx))
	now = now.Add(31 * time.Minute)
	require.NoError(t, service.runCycle(ctx))

	assert.Equal(t, 3, everyTick.runs)
	assert.Equal(t, 2, hourly.runs)
}

func TestNewServiceValidates(t *testing.T) {
	_, err := NewService(ServiceParams{Lock: &fakeLock{}})
	assert.Error(t, err)
	_, err = NewService(ServiceParams{Logger: testLogger()})
	assert.Error(t, err)
}
