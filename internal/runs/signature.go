package runs

import (
	"github.com/shelfsight/backend/internal/detection"
	"github.com/shelfsight/backend/pkg/utils"
)

// Signature fingerprints one analysis outcome for duplicate-save detection.
// Only outcome fields participate: the rendered prompt and raw response are
// diagnostics and may differ between otherwise-identical runs (catalog
// ordering), so including them would under-deduplicate.
func Signature(date, displayID string, det detection.Result) (string, error) {
	names := det.SKUNames
	if names == nil {
		names = []string{}
	}

	payload := map[string]interface{}{
		"date":       date,
		"display_id": displayID,
		"detection": map[string]interface{}{
			"sku_names": names,
			"error":     det.Error,
		},
	}

	return utils.CanonicalSignature(payload)
}
