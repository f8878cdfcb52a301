package services

import (
	"testing"

	"inkwell/internal/models"
)

func TestNotificationService_BroadcastReachesAllSubscribers(t *testing.T) {
	hub := NewNotificationService()

	_, chA := hub.Subscribe()
	_, chB := hub.Subscribe()
	if hub.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", hub.Count())
	}

	hub.Notify(models.Notification{ID: "n1", Message: "hello"})

	for name, ch := range map[string]<-chan models.Notification{"A": chA, "B": chB} {
		select {
		case n := <-ch:
			if n.ID != "n1" {
				t.Errorf("subscriber %s got %q, want n1", name, n.ID)
			}
		default:
			t.Errorf("subscriber %s received nothing", name)
		}
	}
}

func TestNotificationService_UnsubscribeClosesChannel(t *testing.T) {
	hub := NewNotificationService()
	id, ch := hub.Subscribe()

	hub.Unsubscribe(id)
	if _, open := <-ch; open {
		t.Error("channel should be closed after Unsubscribe")
	}
	if hub.Count() != 0 {
		t.Errorf("Count() = %d, want 0", hub.Count())
	}

	// Unsubscribing twice must not panic
	hub.Unsubscribe(id)
	hub.Notify(models.Notification{ID: "n2", Message: "nobody listening"})
}

func TestNotificationService_SlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	hub := NewNotificationService()
	_, ch := hub.Subscribe()

	// Overfill the buffer; Notify must never block
	for i := 0; i < subscriberBuffer+5; i++ {
		hub.Notify(models.Notification{Message: "flood"})
	}

	received := 0
	for {
		select {
		case <-ch:
			received++
			continue
		default:
		}
		break
	}
	if received != subscriberBuffer {
		t.Errorf("received %d notifications, want the buffer size %d", received, subscriberBuffer)
	}
}
