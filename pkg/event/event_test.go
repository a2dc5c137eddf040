// pkg/event/event_test.go
package event

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	bus := New()

	var wg sync.WaitGroup
	wg.Add(2)

	var mu sync.Mutex
	var got []any
	handler := func(ctx context.Context, data any) {
		mu.Lock()
		got = append(got, data)
		mu.Unlock()
		wg.Done()
	}
	bus.Subscribe(TopicTaskStarted, handler)
	bus.Subscribe(TopicTaskStarted, handler)

	payload := &StagePayload{TaskID: "t1", Data: "scrape something"}
	bus.Publish(context.Background(), TopicTaskStarted, payload)

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handlers did not run")
	}

	require.Len(t, got, 2)
	assert.Equal(t, payload, got[0])
}

func TestPublishUnsubscribedTopicIsNoop(t *testing.T) {
	bus := New()
	bus.Subscribe(TopicTaskCompleted, func(ctx context.Context, data any) {
		t.Error("handler for another topic invoked")
	})

	bus.Publish(context.Background(), TopicTaskFailed, nil)
	time.Sleep(50 * time.Millisecond)
}

func TestSubscribeDuringPublishDoesNotRace(t *testing.T) {
	bus := New()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			bus.Subscribe(TopicStageStarted, func(ctx context.Context, data any) {})
		}()
		go func() {
			defer wg.Done()
			bus.Publish(context.Background(), TopicStageStarted, nil)
		}()
	}
	wg.Wait()
}
