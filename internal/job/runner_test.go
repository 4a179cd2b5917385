package job

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDispatchJob() *MockJob {
	return NewMockJob(uuid.New(), JobTypeNotificationDispatch, []byte(`{"notification_id":"`+uuid.New().String()+`"}`))
}

func TestJobRunner_Submit(t *testing.T) {
	t.Parallel()

	store := NewMockJobStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	config := DefaultJobRunnerConfig()
	config.QueueSize = 2

	runner := NewJobRunner(store, config, logger)

	t.Run("successful submission", func(t *testing.T) {
		job := newMockDispatchJob()
		err := runner.Submit(context.Background(), job)

		assert.NoError(t, err)

		// Verify job was saved to store
		pendingJobs, _ := store.GetPendingJobs(context.Background())
		assert.Contains(t, extractJobIDs(pendingJobs), job.ID())
	})

	t.Run("queue full", func(t *testing.T) {
		smallStore := NewMockJobStore()
		smallConfig := DefaultJobRunnerConfig()
		smallConfig.QueueSize = 1

		smallRunner := NewJobRunner(smallStore, smallConfig, logger)

		err := smallRunner.Submit(context.Background(), newMockDispatchJob())
		require.NoError(t, err)

		err = smallRunner.Submit(context.Background(), newMockDispatchJob())

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "queue is full")
	})

	t.Run("store error", func(t *testing.T) {
		errorStore := NewMockJobStore()
		errorStore.SaveFn = func(ctx context.Context, job Job) error {
			return errors.New("mock store error")
		}

		errorRunner := NewJobRunner(errorStore, config, logger)

		err := errorRunner.Submit(context.Background(), newMockDispatchJob())

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to save job")
	})
}

func TestJobRunner_Start_and_Processing(t *testing.T) {
	t.Parallel()

	store := NewMockJobStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	config := DefaultJobRunnerConfig()
	config.WorkerCount = 2
	config.QueueSize = 10

	runner := NewJobRunner(store, config, logger)

	jobCompletedChan := make(chan uuid.UUID, 5)

	var mu sync.Mutex
	jobIDs := make([]uuid.UUID, 0, 3)

	for i := 0; i < 3; i++ {
		job := newMockDispatchJob()

		mu.Lock()
		jobIDs = append(jobIDs, job.ID())
		mu.Unlock()

		job.ExecuteFn = func(ctx context.Context) error {
			jobCompletedChan <- job.ID()
			return nil
		}

		err := runner.Submit(context.Background(), job)
		require.NoError(t, err)
	}

	err := runner.Start()
	require.NoError(t, err)

	completedJobs := make(map[uuid.UUID]bool)
	timeout := time.After(2 * time.Second)

jobWaitLoop:
	for len(completedJobs) < 3 {
		select {
		case jobID := <-jobCompletedChan:
			completedJobs[jobID] = true
		case <-timeout:
			break jobWaitLoop
		}
	}

	runner.Stop()

	mu.Lock()
	defer mu.Unlock()

	for _, id := range jobIDs {
		assert.True(t, completedJobs[id], "Job %s should have been completed", id)
	}
	assert.Len(t, completedJobs, 3, "All 3 jobs should have been completed")
}

func TestJobRunner_JobFailure(t *testing.T) {
	t.Parallel()

	store := NewMockJobStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	config := DefaultJobRunnerConfig()
	runner := NewJobRunner(store, config, logger)

	errorChan := make(chan struct{}, 1)

	runner.SetErrorHandler(func(job Job, err error) {
		errorChan <- struct{}{}
	})

	job := newMockDispatchJob()
	job.ExecuteFn = func(ctx context.Context) error {
		return errors.New("intentional test failure")
	}

	err := runner.Submit(context.Background(), job)
	require.NoError(t, err)

	err = runner.Start()
	require.NoError(t, err)

	select {
	case <-errorChan:
		// Error handler was called as expected
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for error handler to be called")
	}

	// Allow the status update following execution to land
	time.Sleep(100 * time.Millisecond)

	runner.Stop()

	var foundFailedJob bool
	jobID := job.ID()
	for id, storedJob := range store.jobs {
		if id == jobID && storedJob.Status() == JobStatusFailed {
			foundFailedJob = true
			break
		}
	}

	assert.True(t, foundFailedJob, "Job should be marked as failed")
}

func TestJobRunner_Recover(t *testing.T) {
	t.Parallel()

	store := NewMockJobStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	pendingJob := newMockDispatchJob()
	processingJob := newMockDispatchJob()

	require.NoError(t, store.SaveJob(context.Background(), pendingJob))

	require.NoError(t, store.SaveJob(context.Background(), processingJob))
	require.NoError(
		t,
		store.UpdateJobStatus(context.Background(), processingJob.ID(), JobStatusProcessing, ""),
	)

	jobCompletedChan := make(chan uuid.UUID, 5)

	config := DefaultJobRunnerConfig()
	runner := NewJobRunner(store, config, logger)

	for _, storedJob := range store.jobs {
		mockJob := storedJob.(*MockJob)
		mockJob.ExecuteFn = func(ctx context.Context) error {
			jobCompletedChan <- mockJob.ID()
			return nil
		}
	}

	// Starting the runner triggers recovery
	err := runner.Start()
	require.NoError(t, err)

	expectedJobs := map[uuid.UUID]bool{
		pendingJob.ID():    false,
		processingJob.ID(): false,
	}

	timeout := time.After(2 * time.Second)

jobWaitLoop:
	for {
		allCompleted := true
		for _, completed := range expectedJobs {
			if !completed {
				allCompleted = false
				break
			}
		}

		if allCompleted {
			break jobWaitLoop
		}

		select {
		case jobID := <-jobCompletedChan:
			expectedJobs[jobID] = true
		case <-timeout:
			break jobWaitLoop
		}
	}

	runner.Stop()

	assert.True(t, expectedJobs[pendingJob.ID()], "Pending job should have been completed")
	assert.True(t, expectedJobs[processingJob.ID()], "Processing job should have been completed")
}

func TestJobRunner_StuckJobs(t *testing.T) {
	t.Parallel()

	store := NewMockJobStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	stuckJob := newMockDispatchJob()
	require.NoError(t, store.SaveJob(context.Background(), stuckJob))
	require.NoError(
		t,
		store.UpdateJobStatus(context.Background(), stuckJob.ID(), JobStatusProcessing, ""),
	)

	// Backdate the status change so the job looks stuck
	store.jobStatusTimes[stuckJob.ID()] = time.Now().Add(-30 * time.Minute)

	jobCompletedChan := make(chan uuid.UUID, 5)

	mockJob := store.jobs[stuckJob.ID()].(*MockJob)
	mockJob.ExecuteFn = func(ctx context.Context) error {
		jobCompletedChan <- stuckJob.ID()
		return nil
	}

	config := DefaultJobRunnerConfig()
	config.StuckJobAge = 15 * time.Minute
	config.StuckJobCheckInterval = 100 * time.Millisecond

	runner := NewJobRunner(store, config, logger)

	err := runner.Start()
	require.NoError(t, err)

	select {
	case jobID := <-jobCompletedChan:
		assert.Equal(t, stuckJob.ID(), jobID, "Stuck job should have been executed")
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for stuck job to be executed")
	}

	runner.Stop()
}

// Helper function to extract job IDs from a slice of jobs
func extractJobIDs(jobs []Job) []uuid.UUID {
	ids := make([]uuid.UUID, len(jobs))
	for i, job := range jobs {
		ids[i] = job.ID()
	}
	return ids
}
