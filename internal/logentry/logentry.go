// Package logentry renders completed focus intervals into log text.
//
// A template may contain any of the placeholders {DATE}, {TIME}, {LINK},
// {NEWLINE} and {DESC}; every occurrence of each is substituted.
package logentry

import (
	"strings"
	"time"
)

// Recognized placeholders.
const (
	PlaceholderDate    = "{DATE}"
	PlaceholderTime    = "{TIME}"
	PlaceholderLink    = "{LINK}"
	PlaceholderNewline = "{NEWLINE}"
	PlaceholderDesc    = "{DESC}"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "03:04 PM"
)

// Placeholders returns the recognized placeholders present in template,
// in a fixed order.
func Placeholders(template string) []string {
	all := []string{PlaceholderDate, PlaceholderTime, PlaceholderLink, PlaceholderNewline, PlaceholderDesc}
	var found []string
	for _, p := range all {
		if strings.Contains(template, p) {
			found = append(found, p)
		}
	}
	return found
}

// RequiresDescription reports whether the template asks for a free-text
// description, which means a prompt must be shown before each focus interval.
func RequiresDescription(template string) bool {
	return strings.Contains(template, PlaceholderDesc)
}

// Render substitutes all placeholders in template. link is the rendered
// note link (empty if no note was captured), desc the captured description.
func Render(template string, now time.Time, link, desc string) string {
	r := strings.NewReplacer(
		PlaceholderDate, now.Format(dateLayout),
		PlaceholderTime, now.Format(timeLayout),
		PlaceholderLink, link,
		PlaceholderNewline, "\n",
		PlaceholderDesc, desc,
	)
	return r.Replace(template)
}
