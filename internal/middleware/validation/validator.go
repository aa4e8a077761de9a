package validation

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

type Config struct {
	MaxImageSizeMB    int
	AllowedExtensions []string
	Logger            *zap.Logger
}

// Middleware rejects malformed analysis requests before any model call is
// made: missing display id, bad date, oversized or wrong-type images.
func Middleware(cfg Config) fiber.Handler {
	if cfg.MaxImageSizeMB == 0 {
		cfg.MaxImageSizeMB = 10
	}
	if len(cfg.AllowedExtensions) == 0 {
		cfg.AllowedExtensions = []string{"png", "jpg", "jpeg", "webp"}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	maxBytes := int64(cfg.MaxImageSizeMB) * 1024 * 1024

	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodPost || !strings.Contains(c.Path(), "/api/v1/analyze") {
			return c.Next()
		}

		displayID := strings.TrimSpace(c.FormValue("display_id"))
		if displayID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "display_id is required",
			})
		}

		date := strings.TrimSpace(c.FormValue("date"))
		if date == "" || !datePattern.MatchString(date) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "date is required in YYYY-MM-DD format",
			})
		}

		file, err := c.FormFile("image")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "image file is required",
			})
		}

		if file.Size > maxBytes {
			cfg.Logger.Warn("Oversized upload rejected",
				zap.String("display_id", displayID),
				zap.Int64("size", file.Size),
			)
			return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
				"error": "image exceeds maximum size",
			})
		}

		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(file.Filename), "."))
		if !allowedExtension(ext, cfg.AllowedExtensions) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "unsupported image type, allowed: " + strings.Join(cfg.AllowedExtensions, ", "),
			})
		}

		return c.Next()
	}
}

func allowedExtension(ext string, allowed []string) bool {
	for _, a := range allowed {
		if ext == a {
			return true
		}
	}
	return false
}

// MimeTypeFor maps an upload extension to the mime type sent to the vision
// model.
func MimeTypeFor(filename string) string {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), ".")) {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "webp":
		return "image/webp"
	default:
		return "image/png"
	}
}
