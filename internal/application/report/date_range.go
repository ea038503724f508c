package report

import (
	"fmt"
	"time"

	"github.com/diegoaa53-dot/bsale-api/internal/domain/sales"
)

// DateLayout is the accepted request date format
const DateLayout = "2006-01-02"

// DateRange is an inclusive range of whole calendar days. The zero value is
// unbounded and selects every document.
type DateRange struct {
	// Since and Until are the dates as requested, possibly empty
	Since string
	Until string

	Start time.Time // first second of the first day
	End   time.Time // last second of the last day
}

// NewDateRange resolves since/until (YYYY-MM-DD) in loc. When one side is
// empty the other is used for both; when both are empty the range is
// unbounded.
func NewDateRange(since, until string, loc *time.Location) (DateRange, error) {
	r := DateRange{Since: since, Until: until}
	if since == "" && until == "" {
		return r, nil
	}
	if loc == nil {
		loc = time.UTC
	}

	first, last := since, until
	if first == "" {
		first = until
	}
	if last == "" {
		last = since
	}

	startDay, err := time.ParseInLocation(DateLayout, first, loc)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: since %q (want YYYY-MM-DD)", sales.ErrInvalidDate, first)
	}
	endDay, err := time.ParseInLocation(DateLayout, last, loc)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: until %q (want YYYY-MM-DD)", sales.ErrInvalidDate, last)
	}
	if endDay.Before(startDay) {
		return DateRange{}, fmt.Errorf("%w: until %s is before since %s", sales.ErrInvalidDateRange, last, first)
	}

	r.Start = time.Date(startDay.Year(), startDay.Month(), startDay.Day(), 0, 0, 0, 0, loc)
	r.End = time.Date(endDay.Year(), endDay.Month(), endDay.Day(), 23, 59, 59, 0, loc)
	return r, nil
}

// Bounded reports whether the range filters by emission date
func (r DateRange) Bounded() bool {
	return !r.Start.IsZero()
}

// Contains reports whether t falls inside the range. An unbounded range
// contains every instant.
func (r DateRange) Contains(t time.Time) bool {
	if !r.Bounded() {
		return true
	}
	return !t.Before(r.Start) && !t.After(r.End)
}

// EmissionDateRange formats the range as the emissiondaterange filter value
func (r DateRange) EmissionDateRange() string {
	return fmt.Sprintf("[%d,%d]", r.Start.Unix(), r.End.Unix())
}

// FileName returns reporte_ventas_<since>_<until>.<ext>, using "full" for an
// empty side
func (r DateRange) FileName(ext string) string {
	since, until := r.Since, r.Until
	if since == "" {
		since = "full"
	}
	if until == "" {
		until = "full"
	}
	return fmt.Sprintf("reporte_ventas_%s_%s.%s", since, until, ext)
}
