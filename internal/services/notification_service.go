package services

import (
	"log"
	"sync"

	"github.com/google/uuid"

	"inkwell/internal/models"
)

// subscriberBuffer is how many undelivered notifications a slow
// subscriber can queue before new ones are dropped for it
const subscriberBuffer = 16

// NotificationService fans toast notifications out to WebSocket
// subscribers. Delivery is best effort: a subscriber that cannot keep
// up loses notifications rather than blocking the journal.
type NotificationService struct {
	mu          sync.RWMutex
	subscribers map[string]chan models.Notification
}

// NewNotificationService creates the notification hub
func NewNotificationService() *NotificationService {
	return &NotificationService{
		subscribers: make(map[string]chan models.Notification),
	}
}

// Subscribe registers a new subscriber and returns its id and channel.
// The channel is closed on Unsubscribe.
func (s *NotificationService) Subscribe() (string, <-chan models.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	ch := make(chan models.Notification, subscriberBuffer)
	s.subscribers[id] = ch
	log.Printf("✅ [NOTIFY] Subscriber added: %s (total: %d)", id, len(s.subscribers))
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel
func (s *NotificationService) Unsubscribe(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ch, ok := s.subscribers[id]; ok {
		close(ch)
		delete(s.subscribers, id)
		log.Printf("❌ [NOTIFY] Subscriber removed: %s (total: %d)", id, len(s.subscribers))
	}
}

// Count returns the number of active subscribers
func (s *NotificationService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subscribers)
}

// Notify broadcasts a notification to every subscriber without blocking
func (s *NotificationService) Notify(n models.Notification) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for id, ch := range s.subscribers {
		select {
		case ch <- n:
		default:
			log.Printf("⚠️  [NOTIFY] Subscriber %s is not keeping up, dropping notification", id)
		}
	}
}
