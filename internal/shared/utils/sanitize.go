package utils

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

const maxEntityDecodes = 3

var (
	strictPolicy = bluemonday.StrictPolicy()

	// Only entities that cannot form markup are turned back into text.
	plainEntities = strings.NewReplacer("&amp;", "&", "&#34;", `"`, "&#39;", "'")
)

// SanitizeText strips all markup from user supplied free text and trims it.
// Entities are decoded before stripping so encoded tags are removed too.
func SanitizeText(s string) string {
	for i := 0; i < maxEntityDecodes; i++ {
		decoded := html.UnescapeString(s)
		if decoded == s {
			break
		}
		s = decoded
	}
	return strings.TrimSpace(plainEntities.Replace(strictPolicy.Sanitize(s)))
}
