package detection

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Result is the canonical detection output. SKUNames is deduplicated and
// sorted; Error carries soft failures instead of a propagated error value.
type Result struct {
	SKUNames    []string `json:"sku_names"`
	Error       string   `json:"error,omitempty"`
	RawPrompt   string   `json:"raw_prompt,omitempty"`
	RawResponse string   `json:"raw_response,omitempty"`
}

const errParseFailed = "Failed to parse JSON response"

// parsedShape is the sealed set of response shapes the model has produced
// across schema generations.
type parsedShape interface {
	isShape()
}

type namesList struct{ entries []interface{} }   // {"sku_names": [...]}
type legacyItems struct{ entries []interface{} } // {"detected_items": [{"item_name": ...}]}
type bareList struct{ entries []interface{} }    // [...]
type malformed struct{}

func (namesList) isShape()   {}
func (legacyItems) isShape() {}
func (bareList) isShape()    {}
func (malformed) isShape()   {}

// Normalize converts raw model output into a canonical Result, tolerating
// markdown fences, the current and legacy JSON schemas, and a bare array.
// Unparsable input is a recorded, non-fatal condition.
func Normalize(raw string) Result {
	switch shape := classify(extractPayload(raw)).(type) {
	case namesList:
		return Result{SKUNames: cleanNames(shape.entries, stringifyEntry)}
	case legacyItems:
		return Result{SKUNames: cleanNames(shape.entries, stringifyItemName)}
	case bareList:
		return Result{SKUNames: cleanNames(shape.entries, stringifyEntry)}
	case malformed:
		return Result{
			SKUNames:    []string{},
			Error:       errParseFailed,
			RawResponse: raw,
		}
	default:
		return Result{SKUNames: []string{}, Error: errParseFailed, RawResponse: raw}
	}
}

// extractPayload strips a fenced code block: a ```json fence wins over a
// generic fence, and unfenced text passes through unchanged.
func extractPayload(raw string) string {
	if i := strings.Index(raw, "```json"); i >= 0 {
		start := i + len("```json")
		if j := strings.LastIndex(raw, "```"); j > start {
			return strings.TrimSpace(raw[start:j])
		}
		return strings.TrimSpace(raw[start:])
	}

	if i := strings.Index(raw, "```"); i >= 0 {
		start := i + 3
		if j := strings.LastIndex(raw, "```"); j > start {
			return strings.TrimSpace(raw[start:j])
		}
		return strings.TrimSpace(raw[start:])
	}

	return strings.TrimSpace(raw)
}

func classify(payload string) parsedShape {
	var parsed interface{}
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return malformed{}
	}

	switch v := parsed.(type) {
	case map[string]interface{}:
		if entries, ok := v["sku_names"].([]interface{}); ok {
			return namesList{entries: entries}
		}
		if entries, ok := v["detected_items"].([]interface{}); ok {
			return legacyItems{entries: entries}
		}
		// Valid JSON object without a recognized key: an empty prediction.
		return namesList{}
	case []interface{}:
		return bareList{entries: v}
	default:
		return malformed{}
	}
}

// cleanNames stringifies, trims, drops blanks, dedups case-sensitively and
// sorts ascending.
func cleanNames(entries []interface{}, stringify func(interface{}) string) []string {
	seen := make(map[string]bool, len(entries))
	names := make([]string, 0, len(entries))

	for _, entry := range entries {
		name := strings.TrimSpace(stringify(entry))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}

	sort.Strings(names)
	return names
}

func stringifyEntry(entry interface{}) string {
	switch v := entry.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}

func stringifyItemName(entry interface{}) string {
	item, ok := entry.(map[string]interface{})
	if !ok {
		return ""
	}
	return stringifyEntry(item["item_name"])
}
