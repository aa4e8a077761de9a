package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/shelfsight/backend/internal/catalog"
	"github.com/shelfsight/backend/internal/middleware/validation"
	"github.com/shelfsight/backend/internal/runs"
	"github.com/shelfsight/backend/internal/session"
	"github.com/shelfsight/backend/pkg/logger"
)

type AnalysisHandler struct {
	service  *runs.Service
	feed     *catalog.FeedClient
	sessions *session.Registry
}

func NewAnalysisHandler(service *runs.Service, feed *catalog.FeedClient, sessions *session.Registry) *AnalysisHandler {
	return &AnalysisHandler{
		service:  service,
		feed:     feed,
		sessions: sessions,
	}
}

// HandleAnalyze runs one display analysis: multipart image + display_id +
// date, catalog either inline (catalog form field, JSON array) or fetched
// from the inventory feed. The response always carries the computed metrics;
// a persistence failure is reported alongside, not instead.
func (h *AnalysisHandler) HandleAnalyze(c *fiber.Ctx) error {
	displayID := strings.TrimSpace(c.FormValue("display_id"))
	date := strings.TrimSpace(c.FormValue("date"))
	imageURL := strings.TrimSpace(c.FormValue("image_url"))

	file, err := c.FormFile("image")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "image file is required",
		})
	}

	src, err := file.Open()
	if err != nil {
		logger.Error("Failed to open upload", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "failed to read image",
		})
	}
	defer src.Close()

	image, err := io.ReadAll(src)
	if err != nil {
		logger.Error("Failed to read upload", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "failed to read image",
		})
	}

	sess := h.sessions.Get(sessionID(c))

	items, status, err := h.resolveCatalog(c, sess, displayID, date)
	if err != nil {
		return c.Status(status).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	outcome := h.service.Analyze(c.Context(), sess, runs.AnalyzeRequest{
		Date:      date,
		DisplayID: displayID,
		Image:     image,
		MimeType:  validation.MimeTypeFor(file.Filename),
		Items:     items,
		ImageURL:  imageURL,
	})

	resp := fiber.Map{
		"run_id":            outcome.Run.ID,
		"date":              outcome.Run.Date,
		"display_id":        outcome.Run.DisplayID,
		"ground_truth_skus": outcome.Run.GroundTruthSKUs,
		"predicted_skus":    outcome.Run.PredictedSKUs,
		"metrics":           outcome.Run.Metrics,
		"detection_error":   outcome.Run.RawDetection.Error,
		"persisted":         outcome.Persisted,
	}
	if outcome.SaveError != "" {
		resp["save_error"] = outcome.SaveError
	}

	return c.JSON(resp)
}

// resolveCatalog prefers an inline catalog payload, then the session's cached
// catalog when it was stored for the same display and date, then the
// inventory feed.
func (h *AnalysisHandler) resolveCatalog(c *fiber.Ctx, sess *session.State, displayID, date string) ([]catalog.Item, int, error) {
	if inline := c.FormValue("catalog"); inline != "" {
		var items []catalog.Item
		if err := json.Unmarshal([]byte(inline), &items); err != nil {
			return nil, fiber.StatusBadRequest, errors.New("catalog must be a JSON array of items")
		}
		items = catalog.Normalize(items)
		sess.SetCatalog(displayID, date, items)
		return items, fiber.StatusOK, nil
	}

	if items, ok := sess.CatalogFor(displayID, date); ok {
		return items, fiber.StatusOK, nil
	}

	items, err := h.feed.FetchCatalog(c.Context(), displayID, date)
	if err != nil {
		logger.Error("Inventory feed unavailable", zap.Error(err))
		return nil, fiber.StatusBadGateway, errors.New("failed to fetch catalog from inventory feed")
	}

	sess.SetCatalog(displayID, date, items)
	return items, fiber.StatusOK, nil
}

func sessionID(c *fiber.Ctx) string {
	if id := c.Get("X-Session-ID"); id != "" {
		return id
	}
	return "default"
}
