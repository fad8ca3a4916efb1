// Package series turns raw dataset records into named date/value series.
package series

import (
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/aristath/ratechart/internal/modules/dataset"
)

// ID identifies a tracked series. It doubles as the value column name.
type ID string

// Default series ids
const (
	UnitedStates ID = "UNRATE"
	Missouri     ID = "MOUR"
	Columbia     ID = "CLMUR"
)

// DefaultIDs is the ordered set of series charted when no definition overrides it
var DefaultIDs = []ID{UnitedStates, Missouri, Columbia}

// DefaultNames maps every default id to its display name
var DefaultNames = map[ID]string{
	UnitedStates: "United States",
	Missouri:     "State of Missouri",
	Columbia:     "Columbia, Missouri",
}

// DateColumn is the default column holding the observation date
const DateColumn = "DATE"

// Observation is a single (date, value) pair.
// Date is the zero time when the source date was malformed and Value is NaN
// when the source value was not numeric.
type Observation struct {
	Date  time.Time
	Value float64
}

// Defined reports whether both coordinates of the observation are usable.
func (o Observation) Defined() bool {
	return IsValidDate(o.Date) && !math.IsNaN(o.Value)
}

// Series is one named, source-ordered sequence of observations
type Series struct {
	ID     ID
	Name   string
	Values []Observation
}

// Last returns the final observation and false when the series is empty.
func (s Series) Last() (Observation, bool) {
	if len(s.Values) == 0 {
		return Observation{}, false
	}
	return s.Values[len(s.Values)-1], true
}

// Options configures Build
type Options struct {
	IDs        []ID
	Names      map[ID]string
	DateColumn string
}

// DefaultOptions returns the default series configuration
func DefaultOptions() Options {
	return Options{
		IDs:        DefaultIDs,
		Names:      DefaultNames,
		DateColumn: DateColumn,
	}
}

// Build maps every record onto one observation per configured id.
// Each series re-derives its values from the full record set, so every
// series has exactly len(records) observations in record order.
func Build(records []dataset.Record, opts Options) []Series {
	dateColumn := opts.DateColumn
	if dateColumn == "" {
		dateColumn = DateColumn
	}

	result := make([]Series, 0, len(opts.IDs))
	for _, id := range opts.IDs {
		values := make([]Observation, len(records))
		for i, rec := range records {
			raw, ok := rec[string(id)]
			values[i] = Observation{
				Date:  ParseDate(rec[dateColumn]),
				Value: coerce(raw, ok),
			}
		}
		result = append(result, Series{
			ID:     id,
			Name:   opts.Names[id],
			Values: values,
		})
	}
	return result
}

// Filter returns the series whose ids are listed, preserving series order.
// An empty list returns all series.
func Filter(all []Series, ids []string) []Series {
	if len(ids) == 0 {
		return all
	}
	wanted := make(map[ID]bool, len(ids))
	for _, id := range ids {
		wanted[ID(strings.ToUpper(id))] = true
	}
	var out []Series
	for _, s := range all {
		if wanted[s.ID] {
			out = append(out, s)
		}
	}
	return out
}

// coerce converts a cell to a number the way unary plus does in a browser:
// blank is 0, non-numeric is NaN, and a missing column is NaN.
func coerce(raw string, present bool) float64 {
	if !present {
		return math.NaN()
	}
	s := strings.TrimFunc(raw, unicode.IsSpace)
	if s == "" {
		return 0
	}

	switch s {
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}

	// ParseFloat also accepts inf/nan spellings and underscores
	if strings.ContainsAny(s, "_iInN") {
		return math.NaN()
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return v
		}
		return math.NaN()
	}
	return v
}
