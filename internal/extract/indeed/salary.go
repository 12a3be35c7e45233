package indeed

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/im-caveman/yagaami/internal/jobs"
)

// salaryPattern matches a currency range like "$80,000 - $120,000".
var salaryPattern = regexp.MustCompile(`\$(\d[\d,]*(?:\.\d+)?)\s*-\s*\$(\d[\d,]*(?:\.\d+)?)`)

// ParseSalaryRange extracts a numeric salary band from free text. Returns
// nil when no range expression is present.
func ParseSalaryRange(text string) *jobs.SalaryRange {
	m := salaryPattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	min, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return nil
	}
	max, err := strconv.ParseFloat(strings.ReplaceAll(m[2], ",", ""), 64)
	if err != nil {
		return nil
	}
	return &jobs.SalaryRange{Min: min, Max: max}
}
