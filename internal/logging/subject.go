package logging

import "strings"

// FormatSubject builds the "slug (field) · item" subject used in console output.
func FormatSubject(slug, field, itemID string) string {
	slug = strings.TrimSpace(slug)
	field = strings.TrimSpace(field)
	itemID = strings.TrimSpace(itemID)
	parts := make([]string, 0, 2)
	switch {
	case slug != "" && field != "":
		parts = append(parts, slug+" ("+field+")")
	case slug != "":
		parts = append(parts, slug)
	}
	if itemID != "" {
		if len(itemID) > 8 {
			itemID = itemID[:8]
		}
		parts = append(parts, "item "+itemID)
	}
	return strings.Join(parts, " · ")
}
