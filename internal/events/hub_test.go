package events

import (
	"testing"
	"time"

	"github.com/hostelops/bunkhouse/internal/domain"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	hub := NewHub(nil)
	ch1, cancel1 := hub.Subscribe()
	ch2, cancel2 := hub.Subscribe()
	defer cancel1()
	defer cancel2()

	hub.Publish(domain.OccupancyEvent{Type: domain.EventBedAssigned, RoomID: "r1"})

	for _, ch := range []<-chan domain.OccupancyEvent{ch1, ch2} {
		select {
		case e := <-ch:
			if e.RoomID != "r1" {
				t.Fatalf("unexpected event: %+v", e)
			}
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive event")
		}
	}
}

func TestPublishDropsForLaggingSubscriber(t *testing.T) {
	hub := NewHub(nil)
	_, cancel := hub.Subscribe()
	defer cancel()

	// Overflow the buffer; Publish must not block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*2; i++ {
			hub.Publish(domain.OccupancyEvent{Type: domain.EventBedAssigned})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a lagging subscriber")
	}
}

func TestCancelRemovesSubscriber(t *testing.T) {
	hub := NewHub(nil)
	_, cancel := hub.Subscribe()
	if hub.SubscriberCount() != 1 {
		t.Fatalf("expected 1 subscriber, got %d", hub.SubscriberCount())
	}
	cancel()
	cancel() // double cancel is safe
	if hub.SubscriberCount() != 0 {
		t.Fatalf("expected 0 subscribers, got %d", hub.SubscriberCount())
	}
}
