package indeed

import (
	"regexp"
	"strings"
)

// section is the state of the description scanner.
type section int

const (
	sectionNone section = iota
	sectionQualifications
	sectionResponsibilities
	sectionBenefits
)

// Header patterns that switch the scanner's state. An "about"-style block
// drops back to none so company boilerplate never leaks into a list.
var (
	qualificationsHeader   = regexp.MustCompile(`qualifications|requirements|what you need`)
	responsibilitiesHeader = regexp.MustCompile(`responsibilities|duties|what you'll do`)
	benefitsHeader         = regexp.MustCompile(`benefits|perks|what we offer`)
)

// SectionLists is the per-section output of TagSections.
type SectionLists struct {
	Qualifications   []string
	Responsibilities []string
	Benefits         []string
}

// TagSections runs the section state machine over the description's
// sub-blocks: header blocks transition the state, bullet blocks accumulate
// under the current section, everything else is ignored.
func TagSections(blocks []string) SectionLists {
	var out SectionLists
	state := sectionNone
	for _, block := range blocks {
		text := strings.TrimSpace(block)
		if text == "" {
			continue
		}
		lower := strings.ToLower(text)
		switch {
		case qualificationsHeader.MatchString(lower):
			state = sectionQualifications
		case responsibilitiesHeader.MatchString(lower):
			state = sectionResponsibilities
		case benefitsHeader.MatchString(lower):
			state = sectionBenefits
		case strings.HasPrefix(lower, "about"):
			state = sectionNone
		case strings.HasPrefix(text, "•"):
			item := strings.TrimSpace(strings.TrimLeft(text, "• "))
			if item == "" {
				continue
			}
			switch state {
			case sectionQualifications:
				out.Qualifications = append(out.Qualifications, item)
			case sectionResponsibilities:
				out.Responsibilities = append(out.Responsibilities, item)
			case sectionBenefits:
				out.Benefits = append(out.Benefits, item)
			}
		}
	}
	return out
}
