package portal_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/campuskit/portal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivitySinkFuncRecords(t *testing.T) {
	var got portal.ActivityEvent
	sink := portal.ActivitySinkFunc(func(ctx context.Context, event portal.ActivityEvent) error {
		got = event
		return nil
	})

	err := sink.Record(context.Background(), portal.ActivityEvent{
		EventType: portal.ActivityEventLogin,
		UserID:    "u-1",
	})
	require.NoError(t, err)
	assert.Equal(t, portal.ActivityEventLogin, got.EventType)
	assert.Equal(t, "u-1", got.UserID)
}

func TestActivitySinkFuncNilIsNoop(t *testing.T) {
	var sink portal.ActivitySinkFunc
	assert.NoError(t, sink.Record(context.Background(), portal.ActivityEvent{}))
}

func TestActivityDispatcherDeliversEvents(t *testing.T) {
	var mu sync.Mutex
	var events []portal.ActivityEvent

	sink := portal.ActivitySinkFunc(func(ctx context.Context, event portal.ActivityEvent) error {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, event)
		return nil
	})

	dispatcher := portal.NewActivityDispatcher(sink)

	for i := 0; i < 3; i++ {
		err := dispatcher.Record(context.Background(), portal.ActivityEvent{
			EventType: portal.ActivityEventRegistered,
			UserID:    "u-1",
		})
		require.NoError(t, err)
	}

	dispatcher.Close()

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, events, 3)
	for _, event := range events {
		assert.Equal(t, portal.ActivityEventRegistered, event.EventType)
		assert.False(t, event.OccurredAt.IsZero())
	}
}

func TestActivityDispatcherNeverBlocksWhenFull(t *testing.T) {
	release := make(chan struct{})
	sink := portal.ActivitySinkFunc(func(ctx context.Context, event portal.ActivityEvent) error {
		<-release
		return nil
	})

	dispatcher := portal.NewActivityDispatcher(sink,
		portal.WithDispatcherQueueSize(1),
	)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10; i++ {
			_ = dispatcher.Record(context.Background(), portal.ActivityEvent{
				EventType: portal.ActivityEventLogin,
			})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Record blocked with a full queue")
	}

	close(release)
	dispatcher.Close()
}

func TestActivityDispatcherCloseIsIdempotent(t *testing.T) {
	dispatcher := portal.NewActivityDispatcher(nil)
	dispatcher.Close()
	dispatcher.Close()
}

func TestActivityDispatcherRecordAfterCloseDropsEvent(t *testing.T) {
	var mu sync.Mutex
	var events []portal.ActivityEvent

	sink := portal.ActivitySinkFunc(func(ctx context.Context, event portal.ActivityEvent) error {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, event)
		return nil
	})

	dispatcher := portal.NewActivityDispatcher(sink)
	dispatcher.Close()

	err := dispatcher.Record(context.Background(), portal.ActivityEvent{
		EventType: portal.ActivityEventLogin,
		UserID:    "u-1",
	})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Empty(t, events)
}

func TestActivityDispatcherRecordRacingClose(t *testing.T) {
	dispatcher := portal.NewActivityDispatcher(nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = dispatcher.Record(context.Background(), portal.ActivityEvent{
					EventType: portal.ActivityEventLogin,
				})
			}
		}()
	}

	dispatcher.Close()
	wg.Wait()
}
