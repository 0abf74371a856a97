package referencedata

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	apperrors "applicant-portal/internal/common/errors"
	"applicant-portal/internal/common/logger"
	"applicant-portal/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	jobs       func(ctx context.Context) ([]models.Option, error)
	levels     func(ctx context.Context) ([]models.Option, error)
	jobCalls   int32
	levelCalls int32
}

func (f *fakeFetcher) ListJobs(ctx context.Context) ([]models.Option, error) {
	atomic.AddInt32(&f.jobCalls, 1)
	return f.jobs(ctx)
}

func (f *fakeFetcher) ListJobLevels(ctx context.Context) ([]models.Option, error) {
	atomic.AddInt32(&f.levelCalls, 1)
	return f.levels(ctx)
}

func options(names ...string) func(context.Context) ([]models.Option, error) {
	return func(context.Context) ([]models.Option, error) {
		out := make([]models.Option, len(names))
		for i, n := range names {
			out[i] = models.Option{ID: models.ID(n), Name: n}
		}
		return out, nil
	}
}

func failing(context.Context) ([]models.Option, error) {
	return nil, errors.New("GET /jobs: unexpected status 500")
}

func newLoader(t *testing.T, f Fetcher) *Loader {
	return NewLoader(&Config{Timeout: time.Second}, f, logger.NewTestLogger(t), nil)
}

func TestLoad_BothLists(t *testing.T) {
	f := &fakeFetcher{jobs: options("Engineer", "Designer"), levels: options("Junior")}

	data := newLoader(t, f).Load(context.Background())

	assert.True(t, data.Jobs.Loaded)
	assert.Empty(t, data.Jobs.Error)
	assert.Len(t, data.Jobs.Options, 2)
	assert.Equal(t, "Junior", data.JobLevels.Options[0].Name)
	assert.Equal(t, int32(1), f.jobCalls)
	assert.Equal(t, int32(1), f.levelCalls)
}

func TestLoad_FailureIsIsolatedPerList(t *testing.T) {
	f := &fakeFetcher{jobs: failing, levels: options("Senior")}

	data := newLoader(t, f).Load(context.Background())

	assert.True(t, data.Jobs.Loaded)
	assert.Empty(t, data.Jobs.Options)
	assert.Equal(t, apperrors.MsgFetchJobsFailed, data.Jobs.Error)

	assert.Empty(t, data.JobLevels.Error)
	require.Len(t, data.JobLevels.Options, 1)
	assert.Equal(t, "Senior", data.JobLevels.Options[0].Name)
}

func TestLoad_LevelsFailure(t *testing.T) {
	f := &fakeFetcher{jobs: options("Engineer"), levels: failing}

	data := newLoader(t, f).Load(context.Background())

	assert.Equal(t, apperrors.MsgFetchLevelsFailed, data.JobLevels.Error)
	assert.Empty(t, data.Jobs.Error)
}

func TestStart_PartialAvailabilityIsObservable(t *testing.T) {
	release := make(chan struct{})
	f := &fakeFetcher{
		jobs: options("Engineer"),
		levels: func(ctx context.Context) ([]models.Option, error) {
			<-release
			return options("Junior")(ctx)
		},
	}

	m := newLoader(t, f).Start(context.Background())

	require.Eventually(t, func() bool { return m.Snapshot().Jobs.Loaded }, time.Second, 5*time.Millisecond)
	snap := m.Snapshot()
	assert.False(t, snap.JobLevels.Loaded)

	close(release)
	data := m.Wait()
	assert.True(t, data.JobLevels.Loaded)
}

func TestStart_CancelledMountDiscardsResults(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	block := func(ctx context.Context) ([]models.Option, error) {
		<-ctx.Done()
		return []models.Option{{ID: "late", Name: "late"}}, nil
	}
	f := &fakeFetcher{jobs: block, levels: block}

	m := newLoader(t, f).Start(ctx)
	cancel()

	select {
	case <-m.Done():
	case <-time.After(time.Second):
		t.Fatal("mount did not finish after cancel")
	}
	data := m.Snapshot()
	assert.False(t, data.Jobs.Loaded)
	assert.False(t, data.JobLevels.Loaded)
	assert.Empty(t, data.Jobs.Options)
}

func TestLoad_TimeoutIsReportedAsListFailure(t *testing.T) {
	block := func(ctx context.Context) ([]models.Option, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	l := NewLoader(&Config{Timeout: 20 * time.Millisecond}, &fakeFetcher{jobs: block, levels: options("Junior")}, logger.NewNoOpLogger(), nil)

	data := l.Load(context.Background())

	assert.True(t, data.Jobs.Loaded)
	assert.Equal(t, apperrors.MsgFetchJobsFailed, data.Jobs.Error)
	assert.Empty(t, data.Jobs.Options)
	assert.True(t, data.JobLevels.Loaded)
	assert.Empty(t, data.JobLevels.Error)
	assert.Len(t, data.JobLevels.Options, 1)
}

func TestLoad_BothListsTimingOut(t *testing.T) {
	block := func(ctx context.Context) ([]models.Option, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	l := NewLoader(&Config{Timeout: 20 * time.Millisecond}, &fakeFetcher{jobs: block, levels: block}, logger.NewNoOpLogger(), nil)

	data := l.Load(context.Background())

	assert.Equal(t, apperrors.MsgFetchJobsFailed, data.Jobs.Error)
	assert.Equal(t, apperrors.MsgFetchLevelsFailed, data.JobLevels.Error)
	assert.True(t, data.Jobs.Loaded && data.JobLevels.Loaded)
}

func TestLoad_CancelledCallerDiscardsResults(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{}, 2)
	block := func(ctx context.Context) ([]models.Option, error) {
		started <- struct{}{}
		<-ctx.Done()
		return nil, ctx.Err()
	}
	l := NewLoader(&Config{Timeout: time.Minute}, &fakeFetcher{jobs: block, levels: block}, logger.NewNoOpLogger(), nil)

	go func() {
		<-started
		<-started
		cancel()
	}()
	data := l.Load(ctx)

	assert.False(t, data.Jobs.Loaded)
	assert.Empty(t, data.Jobs.Error)
	assert.False(t, data.JobLevels.Loaded)
	assert.Empty(t, data.JobLevels.Error)
}
