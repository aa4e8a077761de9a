package detection

import (
	"fmt"
	"strings"

	"github.com/shelfsight/backend/internal/catalog"
)

const promptTemplate = `You are analyzing a retail shelf/display image.

We provide a catalog of SKU items with helpful context per item:

%s

The fields FacingTouching (approx. contiguous front facings expected) and ShelfNo (approx. vertical shelf level) are guidance to help you reason about likely positions and counts. They are NOT labels to output; they only improve recognition.

TASK: Identify which of the provided SKU items are visibly present in the image and return ONLY their names.

Return JSON exactly in this minimal structure:
{
  "sku_names": ["<SKU 1>", "<SKU 2>", "<SKU 3>"]
}

Rules:
- Only include names that you can clearly match to the provided SKU list.
- Do not include any other fields besides sku_names.
- Shelf number starts from the bottom starting from number 1.`

// FormatPrompt renders the detection instruction for a catalog. Pure: the same
// catalog always yields the same string.
func FormatPrompt(items []catalog.Item) string {
	lines := make([]string, 0, len(items))

	for _, item := range items {
		line := "- " + item.Name
		if item.ShelfNo != "" {
			line += " | ShelfNo: " + item.ShelfNo
		}
		if item.FacingTouching != "" {
			line += " | FacingTouching: " + item.FacingTouching
		}
		lines = append(lines, line)
	}

	return fmt.Sprintf(promptTemplate, strings.Join(lines, "\n"))
}
