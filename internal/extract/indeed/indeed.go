// Package indeed turns Indeed search-result and detail pages into raw job
// fields. Parsing is template-driven: the selectors track the site's fixed
// page layout, and one malformed listing never aborts the surrounding batch.
package indeed

import (
	"errors"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/im-caveman/yagaami/internal/jobs"
)

// Source is the canonical source tag stamped on every record.
const Source = "indeed"

const baseURL = "https://www.indeed.com"

// jobsPerPage is the site's fixed pagination stride.
const jobsPerPage = 10

// ErrPageStructure reports that a page did not contain the expected
// structural markers, usually a layout change or a block page.
var ErrPageStructure = errors.New("page structure not recognized")

// Extractor parses Indeed pages.
type Extractor struct {
	clock  jobs.Clock
	logger *zap.Logger
}

// New constructs an Extractor.
func New(clock jobs.Clock, logger *zap.Logger) *Extractor {
	return &Extractor{clock: clock, logger: logger}
}

// SearchRequest builds the fetch request for one search-results page.
// Page numbers start at 1.
func (e *Extractor) SearchRequest(query, location string, page int) jobs.PageRequest {
	if page < 1 {
		page = 1
	}
	return jobs.PageRequest{
		URL: baseURL + "/jobs",
		Params: map[string]string{
			"q":     query,
			"l":     location,
			"start": strconv.Itoa((page - 1) * jobsPerPage),
		},
	}
}

// DetailURL returns the full posting URL for a site-native listing id.
func (e *Extractor) DetailURL(sourceID string) string {
	return baseURL + "/viewjob?jk=" + url.QueryEscape(sourceID)
}

// DetailWaitSelector is the element the renderer must wait for before the
// description is complete.
func (e *Extractor) DetailWaitSelector() string {
	return "div#jobDescriptionText"
}
