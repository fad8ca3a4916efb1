package scales

import (
	"math"
	"sort"
	"time"

	"github.com/aristath/ratechart/internal/modules/series"
)

// DateScale maps calendar dates to pixels
type DateScale interface {
	Ticker
	Map(t time.Time) float64
	Domain() [2]time.Time
}

// Time is a rounded linear mapping from a date interval onto a pixel range
type Time struct {
	domain [2]time.Time
	lin    Linear
}

// NewTime creates a time mapping. Dates are compared at millisecond precision.
func NewTime(domain [2]time.Time, rng [2]float64) Time {
	return Time{
		domain: domain,
		lin:    NewLinear([2]float64{millis(domain[0]), millis(domain[1])}, rng),
	}
}

// Map returns the pixel for t, or NaN for the invalid date
func (s Time) Map(t time.Time) float64 {
	return s.lin.Map(millis(t))
}

// Domain returns the domain endpoints
func (s Time) Domain() [2]time.Time {
	return s.domain
}

// Range returns the range endpoints
func (s Time) Range() [2]float64 {
	return s.lin.Range()
}

// TickMarks returns calendar-aligned ticks over the domain
func (s Time) TickMarks(count int) []Tick {
	dates := TimeTicks(s.domain[0], s.domain[1], count)
	ticks := make([]Tick, 0, len(dates))
	for _, d := range dates {
		ticks = append(ticks, Tick{Position: s.Map(d), Label: TimeLabel(d)})
	}
	return ticks
}

func millis(t time.Time) float64 {
	if !series.IsValidDate(t) {
		return math.NaN()
	}
	return float64(t.UnixMilli())
}

type calendarUnit int

const (
	unitDay calendarUnit = iota
	unitWeek
	unitMonth
	unitYear
)

const (
	secondsPerDay   = 24 * 60 * 60
	secondsPerWeek  = 7 * secondsPerDay
	secondsPerMonth = 30 * secondsPerDay
	secondsPerYear  = 365 * secondsPerDay
)

type tickInterval struct {
	unit    calendarUnit
	step    int
	seconds float64
}

var tickIntervals = []tickInterval{
	{unitDay, 1, secondsPerDay},
	{unitDay, 2, 2 * secondsPerDay},
	{unitWeek, 1, secondsPerWeek},
	{unitMonth, 1, secondsPerMonth},
	{unitMonth, 3, 3 * secondsPerMonth},
	{unitYear, 1, secondsPerYear},
}

// chooseInterval picks the calendar interval whose length is closest to
// splitting [start, stop] into count ticks
func chooseInterval(start, stop time.Time, count int) tickInterval {
	target := stop.Sub(start).Seconds() / float64(count)
	i := sort.Search(len(tickIntervals), func(i int) bool {
		return tickIntervals[i].seconds > target
	})

	switch {
	case i == len(tickIntervals):
		from := float64(start.Unix()) / secondsPerYear
		to := float64(stop.Unix()) / secondsPerYear
		step := int(tickStep(from, to, count))
		if step < 1 {
			step = 1
		}
		return tickInterval{unitYear, step, float64(step) * secondsPerYear}
	case i == 0:
		return tickIntervals[0]
	}

	prev, next := tickIntervals[i-1], tickIntervals[i]
	if target/prev.seconds < next.seconds/target {
		return prev
	}
	return next
}

func (iv tickInterval) aligned(t time.Time) bool {
	switch iv.unit {
	case unitDay:
		return (t.Day()-1)%iv.step == 0
	case unitWeek:
		return t.Weekday() == time.Sunday
	case unitMonth:
		return (int(t.Month())-1)%iv.step == 0
	default:
		return t.Year()%iv.step == 0
	}
}

// floor truncates t to the start of its unit
func (iv tickInterval) floor(t time.Time) time.Time {
	y, m, d := t.Date()
	switch iv.unit {
	case unitMonth:
		return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	case unitYear:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
}

func (iv tickInterval) advance(t time.Time) time.Time {
	switch iv.unit {
	case unitMonth:
		return t.AddDate(0, 1, 0)
	case unitYear:
		return t.AddDate(1, 0, 0)
	default:
		return t.AddDate(0, 0, 1)
	}
}

// first returns the earliest aligned boundary at or after t
func (iv tickInterval) first(t time.Time) time.Time {
	b := iv.floor(t)
	if b.Before(t) {
		b = iv.advance(b)
	}
	for !iv.aligned(b) {
		b = iv.advance(b)
	}
	return b
}

// next returns the aligned boundary after b
func (iv tickInterval) next(b time.Time) time.Time {
	b = iv.advance(b)
	for !iv.aligned(b) {
		b = iv.advance(b)
	}
	return b
}

// TimeTicks returns calendar boundaries within [start, stop], roughly count of them
func TimeTicks(start, stop time.Time, count int) []time.Time {
	if count <= 0 || !series.IsValidDate(start) || !series.IsValidDate(stop) {
		return nil
	}
	start, stop = start.UTC(), stop.UTC()

	reverse := stop.Before(start)
	if reverse {
		start, stop = stop, start
	}
	if start.Equal(stop) {
		return []time.Time{start}
	}

	iv := chooseInterval(start, stop, count)
	var ticks []time.Time
	for b := iv.first(start); !b.After(stop); b = iv.next(b) {
		ticks = append(ticks, b)
	}

	if reverse {
		for i, j := 0, len(ticks)-1; i < j; i, j = i+1, j-1 {
			ticks[i], ticks[j] = ticks[j], ticks[i]
		}
	}
	return ticks
}

// TimeLabel formats a tick by the coarsest boundary it falls on
func TimeLabel(t time.Time) string {
	t = t.UTC()
	midnight := t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0
	switch {
	case midnight && t.YearDay() == 1:
		return t.Format("2006")
	case midnight && t.Day() == 1:
		return t.Format("January")
	default:
		return t.Format("Jan 02")
	}
}
