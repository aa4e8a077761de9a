package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/shelfsight/backend/internal/catalog"
	"github.com/shelfsight/backend/internal/session"
	"github.com/shelfsight/backend/pkg/logger"
)

type CatalogHandler struct {
	feed     *catalog.FeedClient
	sessions *session.Registry
}

func NewCatalogHandler(feed *catalog.FeedClient, sessions *session.Registry) *CatalogHandler {
	return &CatalogHandler{
		feed:     feed,
		sessions: sessions,
	}
}

// GetCatalog fetches a display's catalog from the inventory feed and caches
// it on the session for the following analyze call.
func (h *CatalogHandler) GetCatalog(c *fiber.Ctx) error {
	displayID := c.Query("display_id")
	if displayID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "display_id is required",
		})
	}

	date := c.Query("date")
	items, err := h.feed.FetchCatalog(c.Context(), displayID, date)
	if err != nil {
		logger.Error("Failed to fetch catalog", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "failed to fetch catalog from inventory feed",
		})
	}

	sess := h.sessions.Get(sessionID(c))
	sess.SetCatalog(displayID, date, items)

	return c.JSON(fiber.Map{
		"display_id":   displayID,
		"items":        items,
		"ground_truth": catalog.GroundTruth(items),
	})
}
