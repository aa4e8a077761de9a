package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/shelfsight/backend/internal/runs"
	"github.com/shelfsight/backend/internal/session"
)

type RunsHandler struct {
	service  *runs.Service
	sessions *session.Registry
}

func NewRunsHandler(service *runs.Service, sessions *session.Registry) *RunsHandler {
	return &RunsHandler{
		service:  service,
		sessions: sessions,
	}
}

// GetRuns returns analysis history, newest first. date and display_id filter
// when non-blank; a store failure yields an empty list plus an error string
// rather than a 5xx, so the UI keeps its current view.
func (h *RunsHandler) GetRuns(c *fiber.Ctx) error {
	date := c.Query("date")
	displayID := c.Query("display_id")

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "limit must be an integer",
			})
		}
		limit = parsed
	}

	history, errMsg := h.service.Fetch(c.Context(), date, displayID, limit)

	resp := fiber.Map{
		"runs":  history,
		"count": len(history),
	}
	if errMsg != "" {
		resp["error"] = errMsg
	}

	return c.JSON(resp)
}

// EndSession clears a session's working state (catalog, last-save signature).
func (h *RunsHandler) EndSession(c *fiber.Ctx) error {
	h.sessions.End(sessionID(c))
	return c.JSON(fiber.Map{
		"status": "session cleared",
	})
}
