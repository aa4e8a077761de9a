package catalog

import "strings"

// Item describes one SKU from the inventory feed. ShelfNo and FacingTouching
// are optional hints forwarded to the detector prompt, not output labels.
type Item struct {
	Name           string `json:"name"`
	ShelfNo        string `json:"shelf_no,omitempty"`
	FacingTouching string `json:"facing_touching,omitempty"`
	Include        bool   `json:"include"`
}

// Normalize trims names and drops blanks and exact duplicates, preserving the
// first occurrence order of the feed.
func Normalize(items []Item) []Item {
	seen := make(map[string]bool, len(items))
	out := make([]Item, 0, len(items))

	for _, item := range items {
		name := strings.TrimSpace(item.Name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		item.Name = name
		item.ShelfNo = strings.TrimSpace(item.ShelfNo)
		item.FacingTouching = strings.TrimSpace(item.FacingTouching)
		out = append(out, item)
	}

	return out
}

// GroundTruth returns the names of the items the feed asserts are present on
// the display (include flag set).
func GroundTruth(items []Item) []string {
	names := make([]string, 0, len(items))
	for _, item := range Normalize(items) {
		if item.Include {
			names = append(names, item.Name)
		}
	}
	return names
}

// Names returns every catalog name regardless of the include flag.
func Names(items []Item) []string {
	names := make([]string, 0, len(items))
	for _, item := range Normalize(items) {
		names = append(names, item.Name)
	}
	return names
}
