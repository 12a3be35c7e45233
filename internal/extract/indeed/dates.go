package indeed

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

var daysAgoPattern = regexp.MustCompile(`(\d+)`)

// ResolveRelativeDate converts the site's relative posting dates ("today",
// "yesterday", "N days ago") into absolute calendar dates relative to now.
// Unrecognized formats pass through unchanged.
func ResolveRelativeDate(raw string, now time.Time) string {
	lower := strings.ToLower(raw)
	switch {
	case strings.Contains(lower, "just posted"), strings.Contains(lower, "today"):
		return now.Format(dateLayout)
	case strings.Contains(lower, "yesterday"):
		return now.AddDate(0, 0, -1).Format(dateLayout)
	case strings.Contains(lower, "days ago"):
		m := daysAgoPattern.FindStringSubmatch(lower)
		if m == nil {
			return raw
		}
		days, err := strconv.Atoi(m[1])
		if err != nil {
			return raw
		}
		return now.AddDate(0, 0, -days).Format(dateLayout)
	default:
		return raw
	}
}
