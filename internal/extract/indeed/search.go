package indeed

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/im-caveman/yagaami/internal/jobs"
)

// sourceIDPattern pulls the site-native listing id out of a detail link.
var sourceIDPattern = regexp.MustCompile(`jk=([^&]+)`)

// SearchPage segments a results page into listing cards and projects each
// into a partial Listing. Cards that fail to parse are logged and skipped;
// the rest of the page is still returned.
func (e *Extractor) SearchPage(html string) ([]jobs.Listing, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse search page: %w", err)
	}

	cards := doc.Find("div.job_seen_beacon")
	if cards.Length() == 0 {
		return nil, fmt.Errorf("%w: no listing cards found", ErrPageStructure)
	}

	now := e.clock.Now()
	listings := make([]jobs.Listing, 0, cards.Length())
	cards.Each(func(i int, card *goquery.Selection) {
		listing, err := e.parseCard(card, now)
		if err != nil {
			e.logger.Warn("skipping malformed listing card",
				zap.Int("card", i),
				zap.Error(err),
			)
			return
		}
		listings = append(listings, listing)
	})
	return listings, nil
}

func (e *Extractor) parseCard(card *goquery.Selection, now time.Time) (jobs.Listing, error) {
	title := strings.TrimSpace(card.Find("h2.jobTitle span").First().Text())
	company := strings.TrimSpace(card.Find("span.companyName").First().Text())
	location := strings.TrimSpace(card.Find("div.companyLocation").First().Text())
	snippet := strings.TrimSpace(card.Find("div.job-snippet").First().Text())
	postedRaw := strings.TrimSpace(card.Find("span.date").First().Text())

	href, _ := card.Find("h2.jobTitle a").First().Attr("href")
	jobURL := resolveURL(baseURL, href)
	if title == "" && jobURL == "" {
		return jobs.Listing{}, fmt.Errorf("card has neither title nor link")
	}

	sourceID := ""
	if m := sourceIDPattern.FindStringSubmatch(jobURL); m != nil {
		sourceID = m[1]
	}

	return jobs.Listing{
		SourceID:   sourceID,
		Title:      title,
		Company:    company,
		Location:   location,
		Remote:     strings.Contains(strings.ToLower(location), "remote"),
		Summary:    snippet,
		URL:        jobURL,
		PostedDate: ResolveRelativeDate(postedRaw, now),
	}, nil
}

// resolveURL joins a possibly relative href against the site base.
func resolveURL(base, href string) string {
	if href == "" {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return b.ResolveReference(ref).String()
}
