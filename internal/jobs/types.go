package jobs

import (
	"net/http"
	"time"
)

// SalaryRange is an annual salary band in the listing's currency.
type SalaryRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// JobRecord is the canonical, schema-complete posting produced by the
// pipeline. Title, company, location, description, url, posted date, and
// source are always present after normalization, defaulted to the empty
// string (or the retrieval timestamp for PostedDate) when a site omits them.
type JobRecord struct {
	JobID            string       `json:"job_id"`
	Title            string       `json:"title"`
	Company          string       `json:"company"`
	Location         string       `json:"location"`
	Remote           bool         `json:"remote"`
	JobType          string       `json:"job_type,omitempty"`
	ExperienceLevel  string       `json:"experience_level,omitempty"`
	Summary          string       `json:"summary,omitempty"`
	Description      string       `json:"description"`
	Qualifications   []string     `json:"qualifications,omitempty"`
	Responsibilities []string     `json:"responsibilities,omitempty"`
	Benefits         []string     `json:"benefits,omitempty"`
	Skills           []string     `json:"skills,omitempty"`
	SalaryRange      *SalaryRange `json:"salary_range,omitempty"`
	URL              string       `json:"url"`
	Source           string       `json:"source"`
	SourceID         string       `json:"source_id,omitempty"`
	PostedDate       string       `json:"posted_date"`
}

// RawFields is the loosely typed projection an extractor produces before
// normalization. Zero values mean "the site did not provide this".
type RawFields struct {
	JobID           string
	Title           string
	Company         string
	Location        string
	Remote          bool
	JobType         string
	ExperienceLevel string
	Summary         string
	Description     string
	// Qualifications, Responsibilities, and Benefits may arrive either as an
	// already-split list or as a single bulleted text block.
	Qualifications       []string
	Responsibilities     []string
	Benefits             []string
	QualificationsText   string
	ResponsibilitiesText string
	BenefitsText         string
	Skills               []string
	SalaryRange          *SalaryRange
	URL                  string
	Source               string
	SourceID             string
	PostedDate           string
}

// Listing is one posting as it appears on a search-results page. It carries
// only partial data; the detail page completes it.
type Listing struct {
	SourceID   string
	Title      string
	Company    string
	Location   string
	Remote     bool
	Summary    string
	URL        string
	PostedDate string
}

// PageRequest captures everything needed to fetch one page.
type PageRequest struct {
	URL         string
	Params      map[string]string
	Headers     http.Header
	MaxAttempts int
}

// PageResponse is the result of a successful fetch.
type PageResponse struct {
	URL        string
	StatusCode int
	Headers    http.Header
	Body       string
	FetchedAt  time.Time
	FromCache  bool
}

// Estimate is the opaque result of the external salary prediction service.
type Estimate struct {
	Min          float64        `json:"min"`
	Median       float64        `json:"median"`
	Max          float64        `json:"max"`
	Confidence   float64        `json:"confidence"`
	SimilarRoles []string       `json:"similar_roles,omitempty"`
	MarketData   map[string]any `json:"market_data,omitempty"`
}
