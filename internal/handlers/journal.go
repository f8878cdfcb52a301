package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"inkwell/internal/services"
)

// JournalHandler handles journal entry HTTP requests
type JournalHandler struct {
	journal *services.JournalService
}

// NewJournalHandler creates a new journal handler
func NewJournalHandler(journal *services.JournalService) *JournalHandler {
	return &JournalHandler{journal: journal}
}

// List returns entries by lifecycle view
// GET /api/entries?view=active|recently_deleted|hidden
func (h *JournalHandler) List(c *fiber.Ctx) error {
	switch c.Query("view", "active") {
	case "active":
		return c.JSON(h.journal.ListActive())
	case "recently_deleted":
		return c.JSON(h.journal.ListRecentlyDeleted())
	case "hidden":
		return c.JSON(h.journal.ListHidden())
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "view must be one of: active, recently_deleted, hidden",
		})
	}
}

// Get returns a single entry regardless of state
// GET /api/entries/:id
func (h *JournalHandler) Get(c *fiber.Ctx) error {
	entry, err := h.journal.GetEntry(c.Params("id"))
	if err != nil {
		return journalError(c, err)
	}
	return c.JSON(entry)
}

// Create adds a new entry
// POST /api/entries
func (h *JournalHandler) Create(c *fiber.Ctx) error {
	var req services.CreateEntryInput
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	entry, err := h.journal.CreateEntry(req)
	if err != nil {
		return journalError(c, err)
	}

	log.Printf("📝 [JOURNAL] Created entry %s", entry.ID)
	return c.Status(fiber.StatusCreated).JSON(entry)
}

// Update applies a partial edit to an entry
// PUT /api/entries/:id
func (h *JournalHandler) Update(c *fiber.Ctx) error {
	var req services.UpdateEntryInput
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	entry, err := h.journal.UpdateEntry(c.Params("id"), req)
	if err != nil {
		return journalError(c, err)
	}
	return c.JSON(entry)
}

// SoftDelete moves an entry to recently deleted and returns the undo handle
// DELETE /api/entries/:id
func (h *JournalHandler) SoftDelete(c *fiber.Ctx) error {
	handle, err := h.journal.SoftDeleteEntry(c.Params("id"))
	if err != nil {
		return journalError(c, err)
	}
	return c.JSON(handle)
}

// Undo replays the restore for a soft delete token. Always succeeds:
// an expired or unknown token just has nothing left to undo.
// POST /api/entries/undo
func (h *JournalHandler) Undo(c *fiber.Ctx) error {
	var req struct {
		UndoToken string `json:"undoToken"`
	}
	if err := c.BodyParser(&req); err != nil || req.UndoToken == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "undoToken is required",
		})
	}

	if err := h.journal.Undo(req.UndoToken); err != nil {
		return journalError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// Sweep runs the expiry sweep on demand and reports how many entries moved
// POST /api/entries/sweep
func (h *JournalHandler) Sweep(c *fiber.Ctx) error {
	moved, err := h.journal.CheckDeletedEntries()
	if err != nil {
		return journalError(c, err)
	}
	return c.JSON(fiber.Map{"moved": moved})
}

// Restore brings a recently deleted or hidden entry back to active
// POST /api/entries/:id/restore
func (h *JournalHandler) Restore(c *fiber.Ctx) error {
	if err := h.journal.RestoreEntry(c.Params("id")); err != nil {
		return journalError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// Hide moves a recently deleted entry to hidden ahead of its expiry
// POST /api/entries/:id/hide
func (h *JournalHandler) Hide(c *fiber.Ctx) error {
	if err := h.journal.HideEntry(c.Params("id")); err != nil {
		return journalError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// PermanentlyDelete removes an entry outright
// DELETE /api/entries/:id/permanent
func (h *JournalHandler) PermanentlyDelete(c *fiber.Ctx) error {
	if err := h.journal.PermanentlyDeleteEntry(c.Params("id")); err != nil {
		return journalError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// journalError maps service errors onto HTTP status codes
func journalError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrPersistence):
		log.Printf("❌ [JOURNAL] Persistence failure: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save changes"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
}
