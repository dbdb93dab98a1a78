// Package category infers a spending category from notification text
// and the extracted merchant label.
package category

import (
	"strings"

	"github.com/dinarko/dinarko/internal/domain/rules"
)

// Infer walks the ordered category groups and returns the first group
// with any keyword present in the combined text; the group order is the
// disambiguation policy for keywords that could belong to more than one
// domain (a "bankomat" note is cash only because nothing earlier
// claimed it). Falls back to the table's default category.
func Infer(normalized, merchant string, t *rules.Tables) string {
	haystack := normalized
	if merchant != "" {
		haystack += " " + strings.ToLower(merchant)
	}

	for _, group := range t.Categories {
		for _, kw := range group.Keywords {
			if strings.Contains(haystack, kw) {
				return group.Category
			}
		}
	}
	return t.DefaultCategory
}
