package detection

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/shelfsight/backend/internal/catalog"
	"github.com/shelfsight/backend/internal/metrics"
	"github.com/shelfsight/backend/pkg/logger"
)

// VisionModel is the outbound collaborator: one image plus the instruction
// text in, raw response text out.
type VisionModel interface {
	Analyze(ctx context.Context, prompt string, image []byte, mimeType string) (string, error)
}

// Detector orchestrates one detection call: format the prompt, submit the
// image, normalize the response. Failures never escape as errors; they are
// folded into the Result.
type Detector struct {
	model VisionModel
}

func NewDetector(model VisionModel) *Detector {
	return &Detector{model: model}
}

func (d *Detector) Detect(ctx context.Context, image []byte, mimeType string, items []catalog.Item) Result {
	prompt := FormatPrompt(items)

	raw, err := d.model.Analyze(ctx, prompt, image, mimeType)
	if err != nil {
		metrics.DetectionFailures.Inc()
		logger.Error("Detection call failed", zap.Error(err))
		return Result{
			SKUNames:  []string{},
			Error:     fmt.Sprintf("Detection failed: %v", err),
			RawPrompt: prompt,
		}
	}

	result := Normalize(raw)
	result.RawPrompt = prompt

	if result.Error != "" {
		metrics.DetectionFailures.Inc()
		logger.Warn("Detection response not parsable",
			zap.String("error", result.Error),
			zap.Int("raw_length", len(raw)),
		)
	} else {
		logger.Info("Detection completed",
			zap.Int("catalog_items", len(items)),
			zap.Int("detected", len(result.SKUNames)),
		)
	}

	return result
}
