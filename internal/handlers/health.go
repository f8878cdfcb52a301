package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"inkwell/internal/services"
	"inkwell/internal/storage"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	store    *storage.Store
	journal  *services.JournalService
	notifier *services.NotificationService
	started  time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(store *storage.Store, journal *services.JournalService, notifier *services.NotificationService) *HealthHandler {
	return &HealthHandler{
		store:    store,
		journal:  journal,
		notifier: notifier,
		started:  time.Now(),
	}
}

// Handle responds with server health status
func (h *HealthHandler) Handle(c *fiber.Ctx) error {
	counts := h.journal.Counts()
	entries := fiber.Map{}
	for state, n := range counts {
		entries[string(state)] = n
	}

	return c.JSON(fiber.Map{
		"status":      "healthy",
		"dataDir":     h.store.BaseDir(),
		"entries":     entries,
		"subscribers": h.notifier.Count(),
		"uptime":      time.Since(h.started).Round(time.Second).String(),
		"timestamp":   time.Now().Format(time.RFC3339),
	})
}
