// Package normalize converts raw extracted fields into the canonical job
// record. Normalize is a pure function: no network or storage access, and
// identical input always yields an identical record.
package normalize

import (
	"regexp"
	"strings"
	"time"

	"github.com/im-caveman/yagaami/internal/jobid"
	"github.com/im-caveman/yagaami/internal/jobs"
)

// listSplitPattern breaks a bulleted or line-delimited text block into items.
var listSplitPattern = regexp.MustCompile(`[\n•]+`)

// Normalize fills the canonical schema from raw fields: required-field
// defaults, a deterministic record id, skills derived from the description
// when absent, and list coercion for the sectioned fields. now supplies the
// posted-date default so callers can pin time in tests.
func Normalize(raw jobs.RawFields, now time.Time) jobs.JobRecord {
	record := jobs.JobRecord{
		Title:            raw.Title,
		Company:          raw.Company,
		Location:         raw.Location,
		Remote:           raw.Remote || strings.Contains(strings.ToLower(raw.Location), "remote"),
		JobType:          raw.JobType,
		ExperienceLevel:  raw.ExperienceLevel,
		Summary:          raw.Summary,
		Description:      raw.Description,
		Qualifications:   coerceList(raw.Qualifications, raw.QualificationsText),
		Responsibilities: coerceList(raw.Responsibilities, raw.ResponsibilitiesText),
		Benefits:         coerceList(raw.Benefits, raw.BenefitsText),
		Skills:           raw.Skills,
		SalaryRange:      raw.SalaryRange,
		URL:              raw.URL,
		Source:           raw.Source,
		SourceID:         raw.SourceID,
		PostedDate:       raw.PostedDate,
	}

	if record.PostedDate == "" {
		record.PostedDate = now.UTC().Format(time.RFC3339)
	}

	record.JobID = raw.JobID
	if record.JobID == "" {
		record.JobID = jobid.FromPosting(record.Title, record.Company, record.URL)
	}

	if len(record.Skills) == 0 && record.Description != "" {
		record.Skills = ExtractSkills(record.Description)
	}

	return record
}

// FromListing projects a search-page listing into raw fields, for when a
// detail page is unavailable and the partial data still has to flow through.
func FromListing(listing jobs.Listing, source string) jobs.RawFields {
	return jobs.RawFields{
		Title:      listing.Title,
		Company:    listing.Company,
		Location:   listing.Location,
		Remote:     listing.Remote,
		Summary:    listing.Summary,
		URL:        listing.URL,
		Source:     source,
		SourceID:   listing.SourceID,
		PostedDate: listing.PostedDate,
	}
}

// Merge overlays detail-page fields onto the listing projection. Detail
// values win; listing values fill whatever the detail page lacked.
func Merge(listing jobs.RawFields, detail jobs.RawFields) jobs.RawFields {
	merged := detail
	if merged.Title == "" {
		merged.Title = listing.Title
	}
	if merged.Company == "" {
		merged.Company = listing.Company
	}
	if merged.Location == "" {
		merged.Location = listing.Location
	}
	merged.Remote = merged.Remote || listing.Remote
	if merged.Summary == "" {
		merged.Summary = listing.Summary
	}
	if merged.URL == "" {
		merged.URL = listing.URL
	}
	if merged.Source == "" {
		merged.Source = listing.Source
	}
	if merged.SourceID == "" {
		merged.SourceID = listing.SourceID
	}
	if merged.PostedDate == "" {
		merged.PostedDate = listing.PostedDate
	}
	return merged
}

// coerceList prefers an already-split list and otherwise splits a single
// text block on bullet markers and newlines, dropping empty items.
func coerceList(items []string, text string) []string {
	if len(items) > 0 {
		out := make([]string, 0, len(items))
		for _, item := range items {
			if trimmed := strings.TrimSpace(item); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		return out
	}
	if text == "" {
		return nil
	}
	var out []string
	for _, item := range listSplitPattern.Split(text, -1) {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
