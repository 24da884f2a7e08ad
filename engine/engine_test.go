package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/interest-engine/engine"
	"github.com/warp/interest-engine/engine/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func date(y int, m time.Month, d int) engine.Date { return engine.NewDate(y, m, d) }

func rec(y int, m time.Month, d int, v string) engine.IndexRecord {
	return engine.IndexRecord{Date: date(y, m, d), Value: decimal.RequireFromString(v)}
}

func newSeries(t *testing.T, name engine.IndexName, records ...engine.IndexRecord) *store.Memory {
	t.Helper()
	ctx := context.Background()
	mem := store.NewMemory()
	require.NoError(t, mem.RegisterIndex(ctx, name, "test series"))
	_, err := mem.AppendRecords(ctx, name, records)
	require.NoError(t, err)
	return mem
}

func quietLogger() (logrus.FieldLogger, *test.Hook) {
	log, hook := test.NewNullLogger()
	return log, hook
}

// =============================================================================
// DAY COUNTER
// =============================================================================

func TestDaysBetween_SameDay_IsOne(t *testing.T) {
	for _, d := range []engine.Date{date(2024, 2, 29), date(1999, 12, 31), date(2025, 1, 1)} {
		assert.Equal(t, 1, engine.DaysBetween(d, d), "same-day count for %s", d)
	}
}

func TestDaysBetween_Symmetric(t *testing.T) {
	a := date(2024, 1, 15)
	b := date(2024, 7, 13)

	assert.Equal(t, engine.DaysBetween(a, b), engine.DaysBetween(b, a))
	assert.Equal(t, 181, engine.DaysBetween(a, b))
}

func TestDaysBetween_CrossesLeapDay(t *testing.T) {
	// 2024 is a leap year: Jan 1 .. Dec 31 is 366 days inclusive
	assert.Equal(t, 366, engine.DaysBetween(date(2024, 1, 1), date(2024, 12, 31)))
	assert.Equal(t, 365, engine.DaysBetween(date(2023, 1, 1), date(2023, 12, 31)))
}

func TestDaysBetween_Centuries(t *testing.T) {
	// GIVEN: Two dates more than 292 years apart
	start := date(1700, 1, 1)
	end := date(2024, 1, 1)

	// WHEN: Counting the days between them
	days := engine.DaysBetween(start, end)

	// THEN: The count is exact in both directions
	assert.Equal(t, 118339, days)
	assert.Equal(t, 118339, engine.DaysBetween(end, start))
}

func TestDaysBetween_MissingDate_SoftZero(t *testing.T) {
	assert.Equal(t, 0, engine.DaysBetween(engine.Date{}, date(2024, 1, 1)))
	assert.Equal(t, 0, engine.DaysBetween(date(2024, 1, 1), engine.Date{}))
	assert.Equal(t, 0, engine.DaysBetween(engine.ParseDate("not-a-date"), date(2024, 1, 1)))
}

func TestMonths(t *testing.T) {
	assert.Equal(t, 6.0, engine.Months(180, 30))
	assert.Equal(t, 9.0, engine.Months(180, 20))
	assert.InDelta(t, 12.1667, engine.Months(365, 30), 0.0001)
}

func TestParseDate_Layouts(t *testing.T) {
	want := date(2024, 3, 5)

	for _, s := range []string{"2024-03-05", "20240305", "05/03/2024", " 2024-03-05 "} {
		got, err := engine.ParseDateStrict(s)
		require.NoError(t, err, s)
		assert.True(t, want.Equal(got), "%q parsed as %s", s, got)
	}

	_, err := engine.ParseDateStrict("2024-13-40")
	assert.ErrorIs(t, err, engine.ErrInvalidDate)

	_, err = engine.ParseDateStrict("")
	assert.ErrorIs(t, err, engine.ErrInvalidDate)
}

func TestParseDate_FirstDayOfYearOne_IsAbsent(t *testing.T) {
	// GIVEN: The one calendar day that equals the zero Date
	s := "0001-01-01"

	// WHEN: Parsing it strictly and leniently
	_, err := engine.ParseDateStrict(s)
	lenient := engine.ParseDate(s)

	// THEN: Strict parsing rejects it and lenient parsing reads it as absent
	assert.ErrorIs(t, err, engine.ErrInvalidDate)
	assert.True(t, lenient.IsZero())
	assert.Equal(t, 0, engine.DaysBetween(lenient, date(2024, 1, 1)))

	// AND: The next day is an ordinary date
	got, err := engine.ParseDateStrict("0001-01-02")
	require.NoError(t, err)
	assert.False(t, got.IsZero())
}

func TestIndexName_Validate(t *testing.T) {
	assert.NoError(t, engine.IndexName("ipca").Validate())
	assert.NoError(t, engine.IndexName("igp_m_2024").Validate())

	for _, bad := range []string{"", "IPCA", "ipca; drop table x", "ipca`", "a-b", "x.y"} {
		assert.ErrorIs(t, engine.IndexName(bad).Validate(), engine.ErrInvalidIndexName, bad)
	}
}

// =============================================================================
// NEAREST FALLBACK
// =============================================================================

func TestNearestFrom_AnteriorThenPosterior(t *testing.T) {
	// GIVEN: One record before the window and one after it
	series := []engine.IndexRecord{
		rec(2024, 1, 1, "0.42"),
		rec(2024, 6, 1, "0.21"),
	}

	// WHEN: Looking up a window between them
	got := engine.NearestFrom(series, date(2024, 2, 1), date(2024, 4, 30))

	// THEN: Both come back, anterior first
	require.Len(t, got, 2)
	assert.True(t, got[0].Date.Equal(date(2024, 1, 1)))
	assert.True(t, got[1].Date.Equal(date(2024, 6, 1)))
}

func TestNearestFrom_SingleRecord_AlwaysReturned(t *testing.T) {
	only := rec(2024, 3, 1, "0.30")
	series := []engine.IndexRecord{only}

	cases := map[string]engine.DateRange{
		"record before window": engine.NewDateRange(date(2024, 4, 1), date(2024, 5, 1)),
		"record at window":     engine.NewDateRange(date(2024, 3, 1), date(2024, 3, 1)),
		"record after window":  engine.NewDateRange(date(2024, 1, 1), date(2024, 2, 1)),
	}

	for name, rng := range cases {
		t.Run(name, func(t *testing.T) {
			got := engine.NearestFrom(series, rng.Start, rng.End)
			require.Len(t, got, 1)
			assert.True(t, got[0].Date.Equal(only.Date))
		})
	}
}

func TestNearestFrom_SameRecordBothSides_NotDuplicated(t *testing.T) {
	// A single-day window sitting exactly on a record matches it as both
	// anterior and posterior.
	series := []engine.IndexRecord{
		rec(2024, 1, 1, "0.10"),
		rec(2024, 2, 1, "0.20"),
		rec(2024, 3, 1, "0.30"),
	}

	got := engine.NearestFrom(series, date(2024, 2, 1), date(2024, 2, 1))

	require.Len(t, got, 1)
	assert.True(t, got[0].Date.Equal(date(2024, 2, 1)))
}

func TestNearestFrom_NeitherBound_FallsBackToLatest(t *testing.T) {
	// GIVEN: A window with every record strictly inside it
	series := []engine.IndexRecord{
		rec(2024, 2, 1, "0.20"),
		rec(2024, 3, 1, "0.30"),
	}

	// WHEN: start is before every record and end is after every record
	got := engine.NearestFrom(series, date(2024, 1, 1), date(2024, 12, 31))

	// THEN: The latest record of the whole series is returned
	require.Len(t, got, 1)
	assert.True(t, got[0].Date.Equal(date(2024, 3, 1)))
}

func TestNearestFrom_EmptySeries(t *testing.T) {
	assert.Empty(t, engine.NearestFrom(nil, date(2024, 1, 1), date(2024, 2, 1)))
}

// =============================================================================
// MONETARY CORRECTION
// =============================================================================

func TestCorrect_CompoundsInAscendingOrder(t *testing.T) {
	// GIVEN: Three monthly index points
	mem := newSeries(t, "ipca",
		rec(2024, 1, 1, "0.42"),
		rec(2024, 2, 1, "0.83"),
		rec(2024, 3, 1, "0.16"),
	)
	log, _ := quietLogger()
	c := engine.NewCorrector(mem, log)

	// WHEN: Correcting 1000 over the whole quarter
	got := c.Correct(context.Background(), 1000, "ipca", engine.NewDateRange(date(2024, 1, 1), date(2024, 3, 31)))

	// THEN: amount = 1000 * 1.0042 * 1.0083 * 1.0016, multiplied left to right
	want := 1.0
	for _, v := range []float64{0.42, 0.83, 0.16} {
		want *= 1 + v/100
	}

	assert.Equal(t, engine.StatusCorrected, got.Status)
	assert.Equal(t, want, got.Factor)
	assert.Equal(t, 1000*want, got.Amount)
	assert.Len(t, got.Records, 3)
	assert.NoError(t, got.Err)
}

func TestCorrect_PositiveValues_MonotonicallyIncreasing(t *testing.T) {
	records := []engine.IndexRecord{
		rec(2024, 1, 1, "0.5"),
		rec(2024, 2, 1, "0.1"),
		rec(2024, 3, 1, "1.2"),
		rec(2024, 4, 1, "0.01"),
	}

	prev := 1.0
	for i := 1; i <= len(records); i++ {
		f := engine.CompoundFactor(records[:i])
		assert.Greater(t, f, prev, "factor after %d records", i)
		prev = f
	}
}

func TestCorrect_EmptyRange_Identity(t *testing.T) {
	// GIVEN: A series with records, none inside the requested range
	mem := newSeries(t, "ipca", rec(2023, 1, 1, "0.5"), rec(2025, 1, 1, "0.5"))
	log, _ := quietLogger()
	c := engine.NewCorrector(mem, log)

	// WHEN: Correcting over 2024
	got := c.Correct(context.Background(), 1234.56, "ipca", engine.NewDateRange(date(2024, 1, 1), date(2024, 12, 31)))

	// THEN: Exactly the base amount, tagged as an empty series (no fallback)
	assert.Equal(t, 1234.56, got.Amount)
	assert.Equal(t, 1.0, got.Factor)
	assert.Equal(t, engine.StatusEmptySeries, got.Status)
	assert.Empty(t, got.Records)
}

func TestCorrectNearest_EmptyRange_UsesFallback(t *testing.T) {
	mem := newSeries(t, "ipca", rec(2023, 12, 1, "1.0"), rec(2025, 1, 1, "2.0"))
	log, _ := quietLogger()
	c := engine.NewCorrector(mem, log)

	got := c.CorrectNearest(context.Background(), 100, "ipca", engine.NewDateRange(date(2024, 1, 1), date(2024, 12, 31)))

	assert.Equal(t, engine.StatusCorrectedNearest, got.Status)
	require.Len(t, got.Records, 2)
	assert.InDelta(t, 103.02, got.Amount, 1e-9)
}

func TestCorrect_MissingInput_Identity(t *testing.T) {
	mem := newSeries(t, "ipca", rec(2024, 1, 1, "0.5"))
	log, _ := quietLogger()
	c := engine.NewCorrector(mem, log)
	ctx := context.Background()

	noName := c.Correct(ctx, 500, "", engine.NewDateRange(date(2024, 1, 1), date(2024, 2, 1)))
	noStart := c.Correct(ctx, 500, "ipca", engine.NewDateRange(engine.Date{}, date(2024, 2, 1)))
	noEnd := c.Correct(ctx, 500, "ipca", engine.NewDateRange(date(2024, 1, 1), engine.Date{}))

	for _, got := range []engine.Correction{noName, noStart, noEnd} {
		assert.Equal(t, 500.0, got.Amount)
		assert.Equal(t, engine.StatusMissingInput, got.Status)
	}
}

func TestCorrect_StoreFault_IdentityAndLogged(t *testing.T) {
	// GIVEN: A store that fails every read
	mem := newSeries(t, "ipca", rec(2024, 1, 1, "0.5"))
	mem.Fail = errors.New("connection refused")
	log, hook := quietLogger()
	c := engine.NewCorrector(mem, log)

	// WHEN: Correcting
	got := c.Correct(context.Background(), 800, "ipca", engine.NewDateRange(date(2024, 1, 1), date(2024, 2, 1)))

	// THEN: Base amount unchanged, fault tagged and logged, never raised
	assert.Equal(t, 800.0, got.Amount)
	assert.Equal(t, engine.StatusFault, got.Status)
	assert.EqualError(t, got.Err, "connection refused")
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, engine.IndexName("ipca"), hook.LastEntry().Data["index"])
}

func TestCorrect_UnknownIndex_IsFault(t *testing.T) {
	mem := store.NewMemory()
	log, _ := quietLogger()
	c := engine.NewCorrector(mem, log)

	got := c.Correct(context.Background(), 10, "nope", engine.NewDateRange(date(2024, 1, 1), date(2024, 2, 1)))

	assert.Equal(t, engine.StatusFault, got.Status)
	assert.ErrorIs(t, got.Err, engine.ErrIndexNotFound)
	assert.Equal(t, 10.0, got.Amount)
}

func TestCorrect_ReversedRange_MatchesNothing(t *testing.T) {
	mem := newSeries(t, "ipca", rec(2024, 2, 1, "0.5"))
	log, _ := quietLogger()
	c := engine.NewCorrector(mem, log)

	got := c.Correct(context.Background(), 10, "ipca", engine.NewDateRange(date(2024, 3, 1), date(2024, 1, 1)))

	assert.Equal(t, engine.StatusEmptySeries, got.Status)
}

// =============================================================================
// MEMORY STORE
// =============================================================================

func TestMemory_AppendRecords_SortedAndDeduplicated(t *testing.T) {
	ctx := context.Background()
	mem := newSeries(t, "selic",
		rec(2024, 3, 1, "0.83"),
		rec(2024, 1, 1, "0.97"),
	)

	n, err := mem.AppendRecords(ctx, "selic", []engine.IndexRecord{
		rec(2024, 2, 1, "0.80"),
		rec(2024, 1, 1, "9.99"), // duplicate date, skipped
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := mem.QueryRange(ctx, "selic", date(2024, 1, 1), date(2024, 12, 31))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.True(t, got[0].Date.Equal(date(2024, 1, 1)))
	assert.Equal(t, "0.97", got[0].Value.String())
	assert.True(t, got[2].Date.Equal(date(2024, 3, 1)))

	infos, err := mem.ListIndices(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, 3, infos[0].Records)
}

func TestMemory_UnregisteredIndex(t *testing.T) {
	mem := store.NewMemory()
	_, err := mem.AppendRecords(context.Background(), "ipca", nil)
	assert.ErrorIs(t, err, engine.ErrIndexNotFound)
	assert.True(t, engine.IsNotFound(err))

	assert.ErrorIs(t, mem.RegisterIndex(context.Background(), "Bad Name", ""), engine.ErrInvalidIndexName)
}
