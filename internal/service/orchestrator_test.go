package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/quantumgrade/entropyval/config"
	"github.com/quantumgrade/entropyval/internal/core"
	"github.com/quantumgrade/entropyval/internal/domain/model"
	apperrors "github.com/quantumgrade/entropyval/internal/errors"
	"github.com/quantumgrade/entropyval/internal/mocks"
	"github.com/quantumgrade/entropyval/internal/testutil"
)

type orchestratorMocks struct {
	jobs       *mocks.MockJobRepository
	events     *mocks.MockEventRepository
	results    *mocks.MockResultRepository
	assessment *mocks.MockAssessmentClient
}

func newOrchestratorForTest(t *testing.T) (*OrchestratorService, orchestratorMocks) {
	t.Helper()
	ctrl := gomock.NewController(t)

	m := orchestratorMocks{
		jobs:       mocks.NewMockJobRepository(ctrl),
		events:     mocks.NewMockEventRepository(ctrl),
		results:    mocks.NewMockResultRepository(ctrl),
		assessment: mocks.NewMockAssessmentClient(ctrl),
	}

	svc, err := NewOrchestratorService(OrchestratorServiceOptions{
		Jobs:       m.jobs,
		Events:     m.events,
		Results:    m.results,
		Assessment: m.assessment,
		Config: config.OrchestratorConfig{
			Concurrency:    1,
			PollInterval:   10 * time.Millisecond,
			MaxChunkEvents: 1000,
			ChunkTimeout:   time.Minute,
			DefaultJobType: model.ValidationStatisticalSuite,
		},
		Logger: slog.Default(),
	})
	require.NoError(t, err)

	return svc, m
}

func TestNewOrchestratorService(t *testing.T) {
	t.Run("returns error when a dependency is missing", func(t *testing.T) {
		ctrl := gomock.NewController(t)

		_, err := NewOrchestratorService(OrchestratorServiceOptions{
			Events:     mocks.NewMockEventRepository(ctrl),
			Results:    mocks.NewMockResultRepository(ctrl),
			Assessment: mocks.NewMockAssessmentClient(ctrl),
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "JobRepository is required")

		_, err = NewOrchestratorService(OrchestratorServiceOptions{
			Jobs:    mocks.NewMockJobRepository(ctrl),
			Events:  mocks.NewMockEventRepository(ctrl),
			Results: mocks.NewMockResultRepository(ctrl),
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "AssessmentClient is required")
	})
}

func TestOrchestratorService_CreateJob(t *testing.T) {
	t.Run("defaults an unset type to the configured job type", func(t *testing.T) {
		svc, m := newOrchestratorForTest(t)
		req := testutil.NewJobRequest().WithType("").Build()

		m.jobs.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, got *model.CreateJobRequest) (*model.ValidationJob, error) {
				assert.Equal(t, model.ValidationStatisticalSuite, got.Type)
				return testutil.NewJob().Build(), nil
			})

		created, err := svc.CreateJob(context.Background(), req)

		require.NoError(t, err)
		assert.Equal(t, model.JobStatusQueued, created.Status)
	})

	t.Run("rejects an invalid window without touching the repository", func(t *testing.T) {
		svc, _ := newOrchestratorForTest(t)
		start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		req := testutil.NewJobRequest().WithWindow(start, start).Build()

		_, err := svc.CreateJob(context.Background(), req)

		require.Error(t, err)
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("rejects a nil request", func(t *testing.T) {
		svc, _ := newOrchestratorForTest(t)

		_, err := svc.CreateJob(context.Background(), nil)

		require.Error(t, err)
		assert.True(t, apperrors.IsValidation(err))
	})
}

func TestOrchestratorService_GetJobStatus(t *testing.T) {
	t.Run("maps a missing job to not found", func(t *testing.T) {
		svc, m := newOrchestratorForTest(t)
		m.jobs.EXPECT().GetByID(gomock.Any(), "missing").Return(nil, model.ErrJobNotFound)

		_, err := svc.GetJobStatus(context.Background(), "missing")

		require.Error(t, err)
		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("shapes the row for polling callers", func(t *testing.T) {
		svc, m := newOrchestratorForTest(t)
		j := testutil.NewJob().WithStatus(model.JobStatusRunning).WithPlan(4, "run-1").Build()
		j.CurrentChunk = 2
		j.ProgressPercent = 50
		m.jobs.EXPECT().GetByID(gomock.Any(), j.ID).Return(j, nil)

		status, err := svc.GetJobStatus(context.Background(), j.ID)

		require.NoError(t, err)
		assert.Equal(t, model.JobStatusRunning, status.Status)
		assert.Equal(t, 50, status.ProgressPercent)
		assert.Equal(t, 2, status.CurrentChunk)
		assert.Equal(t, 4, status.TotalChunks)
	})
}

func TestOrchestratorService_GetJobResults(t *testing.T) {
	t.Run("reports not found before planning produced a run", func(t *testing.T) {
		svc, m := newOrchestratorForTest(t)
		m.jobs.EXPECT().GetByID(gomock.Any(), gomock.Any()).Return(testutil.NewJob().Build(), nil)

		_, err := svc.GetJobResults(context.Background(), "job-1")

		require.Error(t, err)
		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("lists results for the recorded run", func(t *testing.T) {
		svc, m := newOrchestratorForTest(t)
		j := testutil.NewJob().WithStatus(model.JobStatusCompleted).WithPlan(1, "run-1").Build()
		m.jobs.EXPECT().GetByID(gomock.Any(), j.ID).Return(j, nil)
		m.results.EXPECT().ListByRunID(gomock.Any(), "run-1").Return([]*model.AssessmentResult{
			{RunID: "run-1", TestName: "monobit", Passed: true},
		}, nil)

		results, err := svc.GetJobResults(context.Background(), j.ID)

		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "monobit", results[0].TestName)
	})
}

func TestOrchestratorService_RunNext(t *testing.T) {
	t.Run("returns ErrNoJobsAvailable when the queue is empty", func(t *testing.T) {
		svc, m := newOrchestratorForTest(t)
		m.jobs.EXPECT().NextQueued(gomock.Any()).Return(nil, model.ErrNoJobsAvailable)

		err := svc.RunNext(context.Background())

		require.ErrorIs(t, err, model.ErrNoJobsAvailable)
	})

	t.Run("losing the claim race is not an error", func(t *testing.T) {
		svc, m := newOrchestratorForTest(t)
		j := testutil.NewJob().Build()
		m.jobs.EXPECT().NextQueued(gomock.Any()).Return(j, nil)
		m.jobs.EXPECT().Start(gomock.Any(), j.ID).Return(false, nil)

		err := svc.RunNext(context.Background())

		require.NoError(t, err)
	})

	t.Run("runs a single-chunk job to completion", func(t *testing.T) {
		svc, m := newOrchestratorForTest(t)
		j := testutil.NewJob().Build()
		events := testutil.GenerateEvents(testutil.EventStreamOptions{
			Count:      10,
			Start:      j.WindowStart,
			Interval:   time.Second,
			IntervalNs: 1_000_001, // odd deltas keep the bitstream non-empty
		})

		var runID string

		m.jobs.EXPECT().NextQueued(gomock.Any()).Return(j, nil)
		m.jobs.EXPECT().Start(gomock.Any(), j.ID).Return(true, nil)
		m.events.EXPECT().ChunkBoundaries(gomock.Any(), gomock.Any()).Return(nil, nil)
		m.jobs.EXPECT().SetPlan(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, params core.SetPlanParams) (bool, error) {
				assert.Equal(t, j.ID, params.JobID)
				assert.Equal(t, 1, params.TotalChunks)
				assert.NotEmpty(t, params.ResultRunID)
				runID = params.ResultRunID
				return true, nil
			})
		m.events.EXPECT().QueryChunk(gomock.Any(), gomock.Any()).Return(events, nil)
		m.assessment.EXPECT().Evaluate(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, req model.AssessmentRequest) (*model.AssessmentOutcome, error) {
				assert.Equal(t, model.ValidationStatisticalSuite, req.Kind)
				assert.Equal(t, 9, req.BitCount)
				return &model.AssessmentOutcome{
					Tests: []model.TestOutcome{{Name: "monobit", Passed: true}},
				}, nil
			})
		m.results.EXPECT().InsertChunkResults(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, params core.InsertChunkResultsParams) (int, error) {
				assert.Equal(t, runID, params.RunID)
				assert.Equal(t, 0, params.ChunkIndex)
				assert.Equal(t, 1, params.ChunkCount)
				return 1, nil
			})
		m.jobs.EXPECT().AdvanceProgress(gomock.Any(), core.AdvanceProgressParams{
			JobID:           j.ID,
			CurrentChunk:    1,
			ProgressPercent: 100,
		}).Return(true, nil)
		m.jobs.EXPECT().Complete(gomock.Any(), j.ID).Return(true, nil)

		err := svc.RunNext(context.Background())

		require.NoError(t, err)
	})

	t.Run("advances progress chunk by chunk across a planned window", func(t *testing.T) {
		svc, m := newOrchestratorForTest(t)
		j := testutil.NewJob().Build()
		boundaries := []model.EventCursor{
			{ReceivedAt: j.WindowStart.Add(20 * time.Minute), Sequence: 1000},
			{ReceivedAt: j.WindowStart.Add(40 * time.Minute), Sequence: 2000},
		}

		m.jobs.EXPECT().NextQueued(gomock.Any()).Return(j, nil)
		m.jobs.EXPECT().Start(gomock.Any(), j.ID).Return(true, nil)
		m.events.EXPECT().ChunkBoundaries(gomock.Any(), gomock.Any()).Return(boundaries, nil)
		m.jobs.EXPECT().SetPlan(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, params core.SetPlanParams) (bool, error) {
				assert.Equal(t, 3, params.TotalChunks)
				return true, nil
			})

		// Sparse chunks skip the assessment call entirely.
		m.events.EXPECT().QueryChunk(gomock.Any(), gomock.Any()).Return(nil, nil).Times(3)
		m.results.EXPECT().InsertChunkResults(gomock.Any(), gomock.Any()).Return(0, nil).Times(3)

		var progress []int
		m.jobs.EXPECT().AdvanceProgress(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, params core.AdvanceProgressParams) (bool, error) {
				progress = append(progress, params.ProgressPercent)
				return true, nil
			}).Times(3)
		m.jobs.EXPECT().Complete(gomock.Any(), j.ID).Return(true, nil)

		err := svc.RunNext(context.Background())

		require.NoError(t, err)
		assert.Equal(t, []int{33, 66, 100}, progress)
	})

	t.Run("fails the job when the assessment service is unavailable", func(t *testing.T) {
		svc, m := newOrchestratorForTest(t)
		j := testutil.NewJob().Build()
		events := testutil.GenerateEvents(testutil.EventStreamOptions{
			Count:      10,
			Start:      j.WindowStart,
			IntervalNs: 1_000_001,
		})

		m.jobs.EXPECT().NextQueued(gomock.Any()).Return(j, nil)
		m.jobs.EXPECT().Start(gomock.Any(), j.ID).Return(true, nil)
		m.events.EXPECT().ChunkBoundaries(gomock.Any(), gomock.Any()).Return(nil, nil)
		m.jobs.EXPECT().SetPlan(gomock.Any(), gomock.Any()).Return(true, nil)
		m.events.EXPECT().QueryChunk(gomock.Any(), gomock.Any()).Return(events, nil)
		m.assessment.EXPECT().Evaluate(gomock.Any(), gomock.Any()).
			Return(nil, apperrors.ServiceUnavailable("assessment service unreachable"))
		m.jobs.EXPECT().Fail(gomock.Any(), j.ID, gomock.Any()).DoAndReturn(
			func(_ context.Context, _ string, errMsg string) (bool, error) {
				assert.Contains(t, errMsg, "assess chunk 0")
				return true, nil
			})

		err := svc.RunNext(context.Background())

		// The failure is recorded on the row, not propagated.
		require.NoError(t, err)
	})

	t.Run("fails the job when a chunk assessment times out", func(t *testing.T) {
		svc, m := newOrchestratorForTest(t)
		j := testutil.NewJob().Build()
		events := testutil.GenerateEvents(testutil.EventStreamOptions{
			Count:      10,
			Start:      j.WindowStart,
			IntervalNs: 1_000_001,
		})

		m.jobs.EXPECT().NextQueued(gomock.Any()).Return(j, nil)
		m.jobs.EXPECT().Start(gomock.Any(), j.ID).Return(true, nil)
		m.events.EXPECT().ChunkBoundaries(gomock.Any(), gomock.Any()).Return(nil, nil)
		m.jobs.EXPECT().SetPlan(gomock.Any(), gomock.Any()).Return(true, nil)
		m.events.EXPECT().QueryChunk(gomock.Any(), gomock.Any()).Return(events, nil)
		// The error shape the client produces when the per-call deadline fires.
		m.assessment.EXPECT().Evaluate(gomock.Any(), gomock.Any()).
			Return(nil, apperrors.Wrap(context.DeadlineExceeded, apperrors.ErrCodeTimeout, "assessment service timed out"))
		m.jobs.EXPECT().Fail(gomock.Any(), j.ID, gomock.Any()).DoAndReturn(
			func(_ context.Context, _ string, errMsg string) (bool, error) {
				assert.Contains(t, errMsg, "assess chunk 0")
				assert.Contains(t, errMsg, "timed out")
				return true, nil
			})

		err := svc.RunNext(context.Background())

		require.NoError(t, err)
	})

	t.Run("leaves the row running when the worker shuts down mid-job", func(t *testing.T) {
		svc, m := newOrchestratorForTest(t)
		j := testutil.NewJob().Build()
		ctx, cancel := context.WithCancel(context.Background())

		m.jobs.EXPECT().NextQueued(gomock.Any()).Return(j, nil)
		m.jobs.EXPECT().Start(gomock.Any(), j.ID).Return(true, nil)
		m.events.EXPECT().ChunkBoundaries(gomock.Any(), gomock.Any()).Return(nil, nil)
		m.jobs.EXPECT().SetPlan(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, _ core.SetPlanParams) (bool, error) {
				cancel()
				return true, nil
			})
		// No Fail and no Complete: the watchdog reclaims the row later.

		err := svc.RunNext(ctx)

		require.NoError(t, err)
	})

	t.Run("stops when the watchdog steals the job mid-flight", func(t *testing.T) {
		svc, m := newOrchestratorForTest(t)
		j := testutil.NewJob().Build()

		m.jobs.EXPECT().NextQueued(gomock.Any()).Return(j, nil)
		m.jobs.EXPECT().Start(gomock.Any(), j.ID).Return(true, nil)
		m.events.EXPECT().ChunkBoundaries(gomock.Any(), gomock.Any()).Return(nil, nil)
		m.jobs.EXPECT().SetPlan(gomock.Any(), gomock.Any()).Return(true, nil)
		m.events.EXPECT().QueryChunk(gomock.Any(), gomock.Any()).Return(nil, nil)
		m.results.EXPECT().InsertChunkResults(gomock.Any(), gomock.Any()).Return(0, nil)
		m.jobs.EXPECT().AdvanceProgress(gomock.Any(), gomock.Any()).Return(false, nil)
		m.jobs.EXPECT().Fail(gomock.Any(), j.ID, gomock.Any()).Return(false, nil)

		err := svc.RunNext(context.Background())

		require.NoError(t, err)
	})
}

func TestOrchestratorService_RunWorker(t *testing.T) {
	t.Run("stops on context cancellation", func(t *testing.T) {
		svc, m := newOrchestratorForTest(t)
		m.jobs.EXPECT().NextQueued(gomock.Any()).Return(nil, model.ErrNoJobsAvailable).AnyTimes()

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() {
			done <- svc.RunWorker(ctx)
		}()

		time.Sleep(30 * time.Millisecond)
		cancel()

		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("RunWorker did not stop after context cancellation")
		}
	})
}
