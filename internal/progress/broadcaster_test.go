package progress

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBroadcaster_FanOut(t *testing.T) {
	b := NewBroadcaster(4)
	a := b.Subscribe()
	c := b.Subscribe()
	require.Equal(t, 2, b.Count())

	b.Publish(Event{Message: "2024-03-23 done", Percent: 50})

	require.Equal(t, Event{Message: "2024-03-23 done", Percent: 50}, <-a.C)
	require.Equal(t, Event{Message: "2024-03-23 done", Percent: 50}, <-c.C)
}

func TestBroadcaster_FullSubscriberDoesNotBlockOthers(t *testing.T) {
	b := NewBroadcaster(1)
	slow := b.Subscribe()
	fast := b.Subscribe()

	b.Publish(Event{Percent: 10})
	<-fast.C
	b.Publish(Event{Percent: 20})

	require.Equal(t, Event{Percent: 20}, <-fast.C)
	require.Equal(t, Event{Percent: 10}, <-slow.C)
	require.EqualValues(t, 1, slow.Dropped())
	require.EqualValues(t, 0, fast.Dropped())
}

func TestBroadcaster_ClosedSubscriberIsRemoved(t *testing.T) {
	b := NewBroadcaster(2)
	gone := b.Subscribe()
	kept := b.Subscribe()

	gone.Close()
	gone.Close()

	_, open := <-gone.C
	require.False(t, open)

	b.Publish(Event{Percent: 100, Final: true})
	require.Equal(t, 1, b.Count())
	require.Equal(t, Event{Percent: 100, Final: true}, <-kept.C)
}

func TestBroadcaster_NoReplayForLateSubscriber(t *testing.T) {
	b := NewBroadcaster(2)
	b.Publish(Event{Percent: 30})

	late := b.Subscribe()
	select {
	case ev := <-late.C:
		t.Fatalf("expected no replayed event, got %+v", ev)
	default:
	}
}

func TestBroadcaster_CloseAll(t *testing.T) {
	b := NewBroadcaster(2)
	subs := []*Subscription{b.Subscribe(), b.Subscribe(), b.Subscribe()}

	b.CloseAll()

	require.Zero(t, b.Count())
	for _, sub := range subs {
		_, open := <-sub.C
		require.False(t, open)
	}
}

func TestBroadcaster_ConcurrentPublishAndSubscribe(t *testing.T) {
	b := NewBroadcaster(8)
	var wg sync.WaitGroup

	for i := 0; i < 16; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			sub := b.Subscribe()
			sub.Close()
		}()
		go func(percent int) {
			defer wg.Done()
			b.Publish(Event{Percent: percent})
		}(i)
	}
	wg.Wait()

	require.Zero(t, b.Count())
}

func TestBroadcaster_FinalEventEvictsOldestWhenFull(t *testing.T) {
	b := NewBroadcaster(2)
	slow := b.Subscribe()

	b.Publish(Event{Message: "2024-04-01 done", Percent: 50})
	b.Publish(Event{Message: "2024-04-02 done", Percent: 100})
	b.Publish(Event{Message: "crawl completed", Percent: 100, Final: true})

	require.Equal(t, Event{Message: "2024-04-02 done", Percent: 100}, <-slow.C)
	require.Equal(t, Event{Message: "crawl completed", Percent: 100, Final: true}, <-slow.C)
	require.EqualValues(t, 1, slow.Dropped())
}

func TestBroadcaster_FinalEventWithSingleSlotBuffer(t *testing.T) {
	b := NewBroadcaster(1)
	slow := b.Subscribe()

	b.Publish(Event{Percent: 30})
	b.Publish(Event{Percent: 60})
	b.Publish(Event{Percent: 100, Final: true})

	got := <-slow.C
	require.True(t, got.Final)
	require.EqualValues(t, 2, slow.Dropped())
}
