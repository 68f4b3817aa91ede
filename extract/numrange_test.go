package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseYearRange(t *testing.T) {
	t.Run("explicit span", func(t *testing.T) {
		r := parseYearRange("graduated 2010 to 2015")
		require.NotNil(t, r)
		assert.Equal(t, int64(2010), r.Min)
		assert.Equal(t, int64(2015), r.Max)
	})

	t.Run("reversed span normalizes", func(t *testing.T) {
		r := parseYearRange("between batches 2018 and 2012")
		require.NotNil(t, r)
		assert.Equal(t, int64(2012), r.Min)
		assert.Equal(t, int64(2018), r.Max)
	})

	t.Run("batch year", func(t *testing.T) {
		r := parseYearRange("alumni from the batch of 2008")
		require.NotNil(t, r)
		assert.Equal(t, int64(2008), r.Min)
		assert.Equal(t, int64(2008), r.Max)
	})

	t.Run("open-ended after", func(t *testing.T) {
		r := parseYearRange("graduated after 2015")
		require.NotNil(t, r)
		assert.True(t, r.HasMin)
		assert.False(t, r.HasMax)
		assert.Equal(t, int64(2015), r.Min)
	})

	t.Run("open-ended before", func(t *testing.T) {
		r := parseYearRange("passed out before 2000")
		require.NotNil(t, r)
		assert.False(t, r.HasMin)
		assert.Equal(t, int64(2000), r.Max)
	})

	t.Run("no year phrasing", func(t *testing.T) {
		assert.Nil(t, parseYearRange("find caterers in salem"))
	})
}

func TestParseTurnoverRange(t *testing.T) {
	t.Run("above with crore unit", func(t *testing.T) {
		r, ambiguous := parseTurnoverRange("turnover above 5 crores", UnitCrore)
		require.NotNil(t, r)
		assert.False(t, ambiguous)
		assert.Equal(t, int64(50_000_000), r.Min)
		assert.False(t, r.HasMax)
	})

	t.Run("below with lakh unit", func(t *testing.T) {
		r, ambiguous := parseTurnoverRange("revenue under 80 lakhs", UnitCrore)
		require.NotNil(t, r)
		assert.False(t, ambiguous)
		assert.Equal(t, int64(8_000_000), r.Max)
	})

	t.Run("between with single unit applies to both bounds", func(t *testing.T) {
		r, ambiguous := parseTurnoverRange("turnover between 2 and 10 crores", UnitCrore)
		require.NotNil(t, r)
		assert.False(t, ambiguous)
		assert.Equal(t, int64(20_000_000), r.Min)
		assert.Equal(t, int64(100_000_000), r.Max)
	})

	t.Run("fractional amount", func(t *testing.T) {
		r, _ := parseTurnoverRange("sales above 2.5 cr", UnitCrore)
		require.NotNil(t, r)
		assert.Equal(t, int64(25_000_000), r.Min)
	})

	t.Run("unit-less bound needs turnover keyword", func(t *testing.T) {
		r, _ := parseTurnoverRange("more than 50 members attended", UnitCrore)
		assert.Nil(t, r)
	})

	t.Run("unit-less bound with keyword is ambiguous", func(t *testing.T) {
		r, ambiguous := parseTurnoverRange("turnover above 50", UnitLakh)
		require.NotNil(t, r)
		assert.True(t, ambiguous)
		assert.Equal(t, 50*UnitLakh, r.Min)
	})
}
