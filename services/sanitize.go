package services

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// SanitizeText strips markup from free text typed by users before it is sent
// to the backend or written to a spreadsheet.
func SanitizeText(s string) string {
	cleaned := strictPolicy.Sanitize(strings.TrimSpace(s))
	return strings.TrimSpace(html.UnescapeString(cleaned))
}
