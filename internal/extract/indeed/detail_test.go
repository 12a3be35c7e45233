package indeed

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const detailFixture = `<html><body>
<h1 class="jobsearch-JobInfoHeader-title">Senior Go Engineer</h1>
<div class="jobsearch-InlineCompanyRating">Acme Corp
3.9 stars</div>
<div class="jobsearch-JobInfoHeader-subtitle">Remote in New York, NY</div>
<span class="salary-snippet">$80,000 - $120,000 a year</span>
<div id="salaryInfoAndJobType"><span>Job Type: Full-time</span></div>
<div id="jobDescriptionText">
  <p>We are looking for a Go engineer to join our platform team.</p>
  <p>Qualifications:</p>
  <p>• 5 years of Go</p>
  <p>• Experience with AWS</p>
  <p>Responsibilities:</p>
  <p>• Design services</p>
  <p>• Review code</p>
  <p>Benefits</p>
  <p>• Health insurance</p>
  <p>About Acme</p>
  <p>Acme builds everything.</p>
</div>
</body></html>`

func TestDetailPageExtractsFields(t *testing.T) {
	t.Parallel()

	e := newTestExtractor()
	raw, err := e.DetailPage(detailFixture, "https://www.indeed.com/viewjob?jk=abc123")
	require.NoError(t, err)

	require.Equal(t, "Senior Go Engineer", raw.Title)
	require.Equal(t, "Acme Corp", raw.Company)
	require.Equal(t, "Remote in New York, NY", raw.Location)
	require.True(t, raw.Remote)
	require.Equal(t, "abc123", raw.SourceID)
	require.Equal(t, Source, raw.Source)
	require.Contains(t, raw.Description, "We are looking for a Go engineer")

	require.Equal(t, []string{"5 years of Go", "Experience with AWS"}, raw.Qualifications)
	require.Equal(t, []string{"Design services", "Review code"}, raw.Responsibilities)
	require.Equal(t, []string{"Health insurance"}, raw.Benefits)

	require.NotNil(t, raw.SalaryRange)
	require.Equal(t, 80000.0, raw.SalaryRange.Min)
	require.Equal(t, 120000.0, raw.SalaryRange.Max)
	require.Equal(t, "Full-time", raw.JobType)
}

func TestDetailPageMissingDescription(t *testing.T) {
	t.Parallel()

	e := newTestExtractor()
	_, err := e.DetailPage("<html><body><h1>blocked</h1></body></html>", "https://example.com")
	require.ErrorIs(t, err, ErrPageStructure)
}

func TestDetailPageMinimal(t *testing.T) {
	t.Parallel()

	e := newTestExtractor()
	raw, err := e.DetailPage(`<html><body><div id="jobDescriptionText"><p>Just a blurb.</p></div></body></html>`, "https://example.com/job")
	require.NoError(t, err)
	require.Empty(t, raw.Title)
	require.Equal(t, "Just a blurb.", raw.Description)
	require.Nil(t, raw.SalaryRange)
	require.Empty(t, raw.JobType)
}
