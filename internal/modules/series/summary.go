package series

import (
	"math"
	"time"

	"github.com/markcheno/go-talib"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// TrendPeriod is the window of the trailing moving average in a Summary
const TrendPeriod = 12

// Summary describes a series at a glance
type Summary struct {
	ID      ID       `json:"id"`
	Name    string   `json:"name"`
	Count   int      `json:"count"`
	Defined int      `json:"defined"`
	First   string   `json:"first,omitempty"`
	Last    string   `json:"last,omitempty"`
	Latest  *float64 `json:"latest"`
	Min     *float64 `json:"min"`
	Max     *float64 `json:"max"`
	Mean    *float64 `json:"mean"`
	Trend   *float64 `json:"trend"`
}

// Summarize computes summary statistics over the defined observations of s.
func Summarize(s Series) Summary {
	sum := Summary{ID: s.ID, Name: s.Name, Count: len(s.Values)}

	values := make([]float64, 0, len(s.Values))
	var firstDate, lastDate time.Time
	for _, o := range s.Values {
		if !o.Defined() || math.IsInf(o.Value, 0) {
			continue
		}
		if firstDate.IsZero() {
			firstDate = o.Date
		}
		lastDate = o.Date
		values = append(values, o.Value)
	}
	sum.Defined = len(values)
	if len(values) == 0 {
		return sum
	}

	sum.First = FormatDate(firstDate)
	sum.Last = FormatDate(lastDate)
	sum.Latest = ptr(values[len(values)-1])
	sum.Min = ptr(floats.Min(values))
	sum.Max = ptr(floats.Max(values))
	sum.Mean = ptr(stat.Mean(values, nil))

	if len(values) >= TrendPeriod {
		sma := talib.Sma(values, TrendPeriod)
		sum.Trend = ptr(sma[len(sma)-1])
	}

	return sum
}

func ptr(v float64) *float64 {
	return &v
}
