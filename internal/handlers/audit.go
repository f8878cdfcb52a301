package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"inkwell/internal/models"
	"inkwell/internal/services"
)

// AuditHandler handles audit log HTTP requests
type AuditHandler struct {
	audit *services.AuditService
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(audit *services.AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// List returns audit records matching the query filters, newest first
// GET /api/logs?level=&category=&status=&action=&search=&start=&end=
func (h *AuditHandler) List(c *fiber.Ctx) error {
	filter, err := filterFromQuery(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(h.audit.Query(filter))
}

// Export returns the filtered log as a downloadable JSON document
// GET /api/logs/export
func (h *AuditHandler) Export(c *fiber.Ctx) error {
	filter, err := filterFromQuery(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	export := h.audit.Export(filter)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="inkwell-logs.json"`)
	return c.JSON(export)
}

// Clear wipes the audit log
// DELETE /api/logs
func (h *AuditHandler) Clear(c *fiber.Ctx) error {
	if err := h.audit.Clear(); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to clear logs"})
	}
	return c.JSON(fiber.Map{"success": true})
}

// filterFromQuery builds an audit filter from query parameters.
// Multi-value parameters are comma separated.
func filterFromQuery(c *fiber.Ctx) (models.AuditFilter, error) {
	filter := models.AuditFilter{
		Search: c.Query("search"),
	}

	for _, v := range splitParam(c.Query("level")) {
		filter.Levels = append(filter.Levels, models.LogLevel(v))
	}
	for _, v := range splitParam(c.Query("category")) {
		filter.Categories = append(filter.Categories, models.LogCategory(v))
	}
	for _, v := range splitParam(c.Query("status")) {
		filter.Statuses = append(filter.Statuses, models.LogStatus(v))
	}
	filter.Actions = splitParam(c.Query("action"))

	if raw := c.Query("start"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, fiber.NewError(fiber.StatusBadRequest, "start must be RFC3339")
		}
		filter.Start = &t
	}
	if raw := c.Query("end"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, fiber.NewError(fiber.StatusBadRequest, "end must be RFC3339")
		}
		filter.End = &t
	}

	return filter, nil
}

func splitParam(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
