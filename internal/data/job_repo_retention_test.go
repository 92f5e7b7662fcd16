package data

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantumgrade/entropyval/internal/core"
	"github.com/quantumgrade/entropyval/internal/domain/model"
	"github.com/quantumgrade/entropyval/internal/testutil"
)

func createFailedJob(t *testing.T, repo *JobRepo) *model.ValidationJob {
	t.Helper()
	ctx := context.Background()

	job, err := repo.Create(ctx, testutil.NewJobRequest().Build())
	require.NoError(t, err)

	failed, err := repo.Fail(ctx, job.ID, "synthetic failure for retention test")
	require.NoError(t, err)
	require.True(t, failed)

	return job
}

func backdateJobCreation(t *testing.T, db *sql.DB, id string, createdAt time.Time) {
	t.Helper()

	_, err := db.ExecContext(context.Background(), `
		UPDATE validation_jobs
		SET created_at = $1
		WHERE id = $2
	`, createdAt, id)
	require.NoError(t, err)
}

func TestJobRepo_DeleteOldJobs(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	t.Run("deletes terminal jobs created before the horizon", func(t *testing.T) {
		testutil.WithTestDB(t, func(db *sql.DB) {
			repo := NewJobRepo(db, RepoConfig{})
			ctx := context.Background()

			oldJob := createFailedJob(t, repo)
			backdateJobCreation(t, db, oldJob.ID, time.Now().Add(-10*24*time.Hour))

			recentJob := createFailedJob(t, repo)

			count, err := repo.DeleteOldJobs(ctx, core.DeleteOldJobsParams{
				Status:    model.JobStatusFailed,
				MaxAge:    7 * 24 * time.Hour,
				BatchSize: 1000,
			})
			require.NoError(t, err)
			assert.Equal(t, int64(1), count)

			_, err = repo.GetByID(ctx, oldJob.ID)
			assert.ErrorIs(t, err, model.ErrJobNotFound)

			kept, err := repo.GetByID(ctx, recentJob.ID)
			require.NoError(t, err)
			assert.Equal(t, model.JobStatusFailed, kept.Status)
		})
	})

	t.Run("keys the horizon on creation time, not completion time", func(t *testing.T) {
		testutil.WithTestDB(t, func(db *sql.DB) {
			repo := NewJobRepo(db, RepoConfig{})
			ctx := context.Background()

			// The job finished just now, but it was created well before the
			// horizon. Creation age alone decides retention.
			job := createFailedJob(t, repo)
			backdateJobCreation(t, db, job.ID, time.Now().Add(-30*24*time.Hour))

			row, err := repo.GetByID(ctx, job.ID)
			require.NoError(t, err)
			require.NotNil(t, row.CompletedAt)
			require.WithinDuration(t, time.Now(), *row.CompletedAt, time.Minute)

			count, err := repo.DeleteOldJobs(ctx, core.DeleteOldJobsParams{
				Status:    model.JobStatusFailed,
				MaxAge:    7 * 24 * time.Hour,
				BatchSize: 1000,
			})
			require.NoError(t, err)
			assert.Equal(t, int64(1), count)

			_, err = repo.GetByID(ctx, job.ID)
			assert.ErrorIs(t, err, model.ErrJobNotFound)
		})
	})

	t.Run("never deletes non-terminal jobs regardless of age", func(t *testing.T) {
		testutil.WithTestDB(t, func(db *sql.DB) {
			repo := NewJobRepo(db, RepoConfig{})
			ctx := context.Background()

			queued, err := repo.Create(ctx, testutil.NewJobRequest().Build())
			require.NoError(t, err)
			backdateJobCreation(t, db, queued.ID, time.Now().Add(-30*24*time.Hour))

			running, err := repo.Create(ctx, testutil.NewJobRequest().Build())
			require.NoError(t, err)
			started, err := repo.Start(ctx, running.ID)
			require.NoError(t, err)
			require.True(t, started)
			backdateJobCreation(t, db, running.ID, time.Now().Add(-30*24*time.Hour))

			for _, status := range []model.JobStatus{model.JobStatusCompleted, model.JobStatusFailed} {
				count, delErr := repo.DeleteOldJobs(ctx, core.DeleteOldJobsParams{
					Status:    status,
					MaxAge:    7 * 24 * time.Hour,
					BatchSize: 1000,
				})
				require.NoError(t, delErr)
				assert.Equal(t, int64(0), count)
			}

			_, err = repo.GetByID(ctx, queued.ID)
			require.NoError(t, err)
			_, err = repo.GetByID(ctx, running.ID)
			require.NoError(t, err)
		})
	})

	t.Run("respects the batch size", func(t *testing.T) {
		testutil.WithTestDB(t, func(db *sql.DB) {
			repo := NewJobRepo(db, RepoConfig{})
			ctx := context.Background()

			for i := 0; i < 3; i++ {
				job := createFailedJob(t, repo)
				backdateJobCreation(t, db, job.ID, time.Now().Add(-10*24*time.Hour))
			}

			count, err := repo.DeleteOldJobs(ctx, core.DeleteOldJobsParams{
				Status:    model.JobStatusFailed,
				MaxAge:    7 * 24 * time.Hour,
				BatchSize: 2,
			})
			require.NoError(t, err)
			assert.Equal(t, int64(2), count)

			count, err = repo.DeleteOldJobs(ctx, core.DeleteOldJobsParams{
				Status:    model.JobStatusFailed,
				MaxAge:    7 * 24 * time.Hour,
				BatchSize: 2,
			})
			require.NoError(t, err)
			assert.Equal(t, int64(1), count)
		})
	})
}

func TestJobRepo_DeleteOldJobs_Validation(t *testing.T) {
	// Parameter validation runs before any database access.
	repo := NewJobRepo(nil, RepoConfig{})
	ctx := context.Background()

	_, err := repo.DeleteOldJobs(ctx, core.DeleteOldJobsParams{
		Status:    model.JobStatus("paused"),
		MaxAge:    time.Hour,
		BatchSize: 10,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid job status")

	_, err = repo.DeleteOldJobs(ctx, core.DeleteOldJobsParams{
		Status:    model.JobStatusRunning,
		MaxAge:    time.Hour,
		BatchSize: 10,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only terminal jobs")

	_, err = repo.DeleteOldJobs(ctx, core.DeleteOldJobsParams{
		Status:    model.JobStatusFailed,
		MaxAge:    time.Hour,
		BatchSize: 0,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch size")

	_, err = repo.DeleteOldJobs(ctx, core.DeleteOldJobsParams{
		Status:    model.JobStatusFailed,
		MaxAge:    0,
		BatchSize: 10,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max age")
}
