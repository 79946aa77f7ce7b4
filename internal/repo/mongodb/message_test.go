package mongodb

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/nguyentranbao-ct/team-chat/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLiveRange(t *testing.T) {
	window := []models.Message{{ID: "a", CreationTime: 100}, {ID: "b", CreationTime: 200}}

	tests := []struct {
		name   string
		window []models.Message
		limit  int
		want   models.LiveRange
	}{
		{name: "empty channel", window: nil, limit: 50, want: models.LiveRange{}},
		{name: "short window covers everything", window: window, limit: 50, want: models.LiveRange{}},
		{name: "full window starts at its oldest", window: window, limit: 2, want: models.LiveRange{From: 100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := liveRange(tt.window, tt.limit)
			assert.Equal(t, tt.want, got)
			for _, m := range tt.window {
				assert.True(t, got.Contains(m.CreationTime))
			}
		})
	}
}

func TestCreationClock(t *testing.T) {
	frozen := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := newCreationClock(func() time.Time { return frozen })

	first := clock.Next()
	assert.Equal(t, frozen.UnixMicro(), first)
	assert.Equal(t, first+1, clock.Next())
	assert.Equal(t, first+2, clock.Next())
}

func TestCreationClockConcurrent(t *testing.T) {
	clock := newCreationClock(time.Now)

	var mu sync.Mutex
	seen := map[int64]bool{}
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 500 {
				v := clock.Next()
				mu.Lock()
				seen[v] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Len(t, seen, 8*500)
}

func TestStampUniqueRetriesTakenTimes(t *testing.T) {
	frozen := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := newCreationClock(func() time.Time { return frozen })
	taken := map[int64]bool{frozen.UnixMicro(): true, frozen.UnixMicro() + 1: true}

	var tried []int64
	msg := &models.Message{ChannelID: "c1"}
	id, err := stampUnique(clock, msg, func(m models.Message) (models.ObjectID, error) {
		tried = append(tried, m.CreationTime)
		if taken[m.CreationTime] {
			return "", fmt.Errorf("messages insert: %w", models.ErrConflict)
		}
		return "m1", nil
	})
	require.NoError(t, err)
	assert.Equal(t, models.ObjectID("m1"), id)
	assert.Equal(t, frozen.UnixMicro()+2, msg.CreationTime)
	assert.Len(t, tried, 3)
}

func TestStampUniqueGivesUp(t *testing.T) {
	clock := newCreationClock(time.Now)
	calls := 0
	_, err := stampUnique(clock, &models.Message{}, func(models.Message) (models.ObjectID, error) {
		calls++
		return "", models.ErrConflict
	})
	assert.ErrorIs(t, err, models.ErrConflict)
	assert.Equal(t, maxStampAttempts, calls)

	boom := errors.New("network")
	_, err = stampUnique(clock, &models.Message{}, func(models.Message) (models.ObjectID, error) {
		return "", boom
	})
	assert.ErrorIs(t, err, boom)
}
