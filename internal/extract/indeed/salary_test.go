package indeed

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSalaryRange(t *testing.T) {
	t.Parallel()

	got := ParseSalaryRange("$80,000 - $120,000 a year")
	require.NotNil(t, got)
	require.Equal(t, 80000.0, got.Min)
	require.Equal(t, 120000.0, got.Max)
}

func TestParseSalaryRangeDecimals(t *testing.T) {
	t.Parallel()

	got := ParseSalaryRange("$25.50 - $32.75 an hour")
	require.NotNil(t, got)
	require.Equal(t, 25.50, got.Min)
	require.Equal(t, 32.75, got.Max)
}

func TestParseSalaryRangeAbsent(t *testing.T) {
	t.Parallel()

	require.Nil(t, ParseSalaryRange("Competitive compensation"))
	require.Nil(t, ParseSalaryRange("$90,000 per year"))
	require.Nil(t, ParseSalaryRange(""))
}
