package indeed

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/im-caveman/yagaami/internal/jobs"
)

// DetailPage extracts the full posting from a rendered detail page. The
// pageURL is echoed into the raw fields so normalization can derive the
// record id.
func (e *Extractor) DetailPage(html, pageURL string) (jobs.RawFields, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return jobs.RawFields{}, fmt.Errorf("parse detail page: %w", err)
	}

	description := doc.Find("div#jobDescriptionText").First()
	if description.Length() == 0 {
		return jobs.RawFields{}, fmt.Errorf("%w: job description missing", ErrPageStructure)
	}

	title := strings.TrimSpace(doc.Find("h1.jobsearch-JobInfoHeader-title").First().Text())
	company := firstLine(doc.Find("div.jobsearch-InlineCompanyRating").First().Text())
	location := strings.TrimSpace(doc.Find("div.jobsearch-JobInfoHeader-subtitle").First().Text())

	var blocks []string
	description.Children().Each(func(_ int, block *goquery.Selection) {
		blocks = append(blocks, strings.TrimSpace(block.Text()))
	})
	sections := TagSections(blocks)

	raw := jobs.RawFields{
		Title:            title,
		Company:          company,
		Location:         location,
		Remote:           strings.Contains(strings.ToLower(location), "remote"),
		Description:      strings.TrimSpace(description.Text()),
		Qualifications:   sections.Qualifications,
		Responsibilities: sections.Responsibilities,
		Benefits:         sections.Benefits,
		URL:              pageURL,
		Source:           Source,
	}

	if salaryText := doc.Find("span.salary-snippet").First().Text(); salaryText != "" {
		raw.SalaryRange = ParseSalaryRange(salaryText)
	}
	raw.JobType = jobTypeField(doc)

	if m := sourceIDPattern.FindStringSubmatch(pageURL); m != nil {
		raw.SourceID = m[1]
	}
	return raw, nil
}

// jobTypeField finds the labeled "Job Type:" element, if present.
func jobTypeField(doc *goquery.Document) string {
	jobType := ""
	doc.Find("div, span").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := strings.TrimSpace(sel.Text())
		if rest, ok := strings.CutPrefix(text, "Job Type:"); ok && !strings.Contains(rest, "\n") {
			jobType = strings.TrimSpace(rest)
			return false
		}
		return true
	})
	return jobType
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
