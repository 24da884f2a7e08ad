package engine

// =============================================================================
// DATE RANGE
// =============================================================================

// DateRange is a pair of calendar dates. Start <= End is not enforced.
// Day counting is symmetric; a reversed range matches no index records.
type DateRange struct {
	Start Date
	End   Date
}

func NewDateRange(start, end Date) DateRange { return DateRange{Start: start, End: end} }

// IsComplete reports whether both bounds are present.
func (r DateRange) IsComplete() bool { return !r.Start.IsZero() && !r.End.IsZero() }

// Contains returns true if d is within [Start, End].
func (r DateRange) Contains(d Date) bool {
	return d.AfterOrEqual(r.Start) && d.BeforeOrEqual(r.End)
}

func (r DateRange) String() string {
	return "[" + r.Start.String() + ", " + r.End.String() + "]"
}
