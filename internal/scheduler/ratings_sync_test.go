package scheduler

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookcatalog/internal/config"
	"bookcatalog/internal/tasks"
)

func setupTestScheduler(t *testing.T, cfg config.RatingsSync) (*RatingsSyncScheduler, func()) {
	t.Helper()
	dbPath := "./test_" + t.Name() + ".db"

	taskClient, err := tasks.NewClient(dbPath, tasks.DefaultConfig())
	require.NoError(t, err)

	cleanup := func() {
		taskClient.Close()
		for _, path := range []string{dbPath, dbPath + "-wal", dbPath + "-shm"} {
			os.Remove(path)
		}
	}
	return NewRatingsSyncScheduler(taskClient, cfg), cleanup
}

func TestSchedulerDisabledDoesNotStart(t *testing.T) {
	s, cleanup := setupTestScheduler(t, config.RatingsSync{Enabled: false})
	defer cleanup()

	require.NoError(t, s.Start(context.Background()))
	assert.False(t, s.IsRunning())
	assert.Nil(t, s.GetNextRunTime())
}

func TestSchedulerRejectsBadSchedule(t *testing.T) {
	s, cleanup := setupTestScheduler(t, config.RatingsSync{Enabled: true, Schedule: "not a schedule"})
	defer cleanup()

	assert.Error(t, s.Start(context.Background()))
}

func TestSchedulerStartStopRestart(t *testing.T) {
	s, cleanup := setupTestScheduler(t, config.RatingsSync{Enabled: true, Schedule: "0 */6 * * *"})
	defer cleanup()

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	assert.NotNil(t, s.GetNextRunTime())

	s.Stop()
	assert.False(t, s.IsRunning())

	// Stop released the previous run's watcher, so a restart works
	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())

	s.Stop()
	assert.False(t, s.IsRunning())

	// Stopping twice is harmless
	s.Stop()
}

func TestSchedulerStopsWhenContextCancelled(t *testing.T) {
	s, cleanup := setupTestScheduler(t, config.RatingsSync{Enabled: true, Schedule: "0 */6 * * *"})
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))
	require.True(t, s.IsRunning())

	cancel()
	assert.Eventually(t, func() bool { return !s.IsRunning() }, 2*time.Second, 10*time.Millisecond)
}
