package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"inkwell/internal/services"
)

// TagHandler handles tag history HTTP requests
type TagHandler struct {
	tags *services.TagService
}

// NewTagHandler creates a new tag handler
func NewTagHandler(tags *services.TagService) *TagHandler {
	return &TagHandler{tags: tags}
}

// List returns all tracked tags, most used first
// GET /api/tags
func (h *TagHandler) List(c *fiber.Ctx) error {
	return c.JSON(h.tags.ListTags())
}

// Suggest returns tag completions for a prefix
// GET /api/tags/suggest?q=&limit=
func (h *TagHandler) Suggest(c *fiber.Ctx) error {
	limit := 10
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "limit must be a positive integer",
			})
		}
		limit = parsed
	}
	return c.JSON(h.tags.Suggest(c.Query("q"), limit))
}
