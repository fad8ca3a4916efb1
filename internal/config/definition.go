package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ChartDefinition describes what is charted and how the plot area is framed.
// Omitted fields keep their defaults.
type ChartDefinition struct {
	DateColumn string             `yaml:"date_column"`
	Series     []SeriesDefinition `yaml:"series"`
	Margins    MarginsDefinition  `yaml:"margins"`
	Domain     DomainDefinition   `yaml:"domain"`
}

// SeriesDefinition maps a value column to its display name
type SeriesDefinition struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// MarginsDefinition holds the plot margins in pixels
type MarginsDefinition struct {
	Top    int `yaml:"top"`
	Right  int `yaml:"right"`
	Bottom int `yaml:"bottom"`
	Left   int `yaml:"left"`
}

// DomainDefinition holds the fixed input intervals of both axes
type DomainDefinition struct {
	Start string  `yaml:"start"` // YYYY-MM-DD
	End   string  `yaml:"end"`   // YYYY-MM-DD
	Min   float64 `yaml:"min"`
	Max   float64 `yaml:"max"`
}

// DefaultChartDefinition returns the built-in three-series unemployment chart
func DefaultChartDefinition() ChartDefinition {
	return ChartDefinition{
		DateColumn: "DATE",
		Series: []SeriesDefinition{
			{ID: "UNRATE", Name: "United States"},
			{ID: "MOUR", Name: "State of Missouri"},
			{ID: "CLMUR", Name: "Columbia, Missouri"},
		},
		Margins: MarginsDefinition{Top: 30, Right: 120, Bottom: 40, Left: 35},
		Domain: DomainDefinition{
			Start: "2000-01-01",
			End:   "2019-01-01",
			Min:   0,
			Max:   10,
		},
	}
}

// LoadChartDefinition reads a YAML chart definition. An empty path returns the default.
func LoadChartDefinition(path string) (ChartDefinition, error) {
	def := DefaultChartDefinition()
	if path == "" {
		return def, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return def, fmt.Errorf("cannot read chart definition: %w", err)
	}
	return ParseChartDefinition(data)
}

// ParseChartDefinition decodes YAML on top of the default definition and validates the result
func ParseChartDefinition(data []byte) (ChartDefinition, error) {
	def := DefaultChartDefinition()
	if err := yaml.Unmarshal(data, &def); err != nil {
		return def, fmt.Errorf("cannot parse chart definition: %w", err)
	}
	if err := def.Validate(); err != nil {
		return def, err
	}
	return def, nil
}

// ErrInvalidDefinition wraps every chart definition validation failure
var ErrInvalidDefinition = errors.New("invalid chart definition")

// Validate rejects definitions that would render undefined labels or unusable scales
func (d ChartDefinition) Validate() error {
	if strings.TrimSpace(d.DateColumn) == "" {
		return fmt.Errorf("%w: date_column is required", ErrInvalidDefinition)
	}
	if len(d.Series) == 0 {
		return fmt.Errorf("%w: at least one series is required", ErrInvalidDefinition)
	}

	seen := make(map[string]bool, len(d.Series))
	for i, s := range d.Series {
		if strings.TrimSpace(s.ID) == "" {
			return fmt.Errorf("%w: series %d has no id", ErrInvalidDefinition, i)
		}
		if strings.TrimSpace(s.Name) == "" {
			return fmt.Errorf("%w: series %s has no display name", ErrInvalidDefinition, s.ID)
		}
		if seen[s.ID] {
			return fmt.Errorf("%w: series %s is listed twice", ErrInvalidDefinition, s.ID)
		}
		if s.ID == d.DateColumn {
			return fmt.Errorf("%w: series %s is the date column", ErrInvalidDefinition, s.ID)
		}
		seen[s.ID] = true
	}

	m := d.Margins
	if m.Top < 0 || m.Right < 0 || m.Bottom < 0 || m.Left < 0 {
		return fmt.Errorf("%w: margins must not be negative", ErrInvalidDefinition)
	}

	start, err := time.Parse("2006-01-02", d.Domain.Start)
	if err != nil {
		return fmt.Errorf("%w: domain start %q: %v", ErrInvalidDefinition, d.Domain.Start, err)
	}
	end, err := time.Parse("2006-01-02", d.Domain.End)
	if err != nil {
		return fmt.Errorf("%w: domain end %q: %v", ErrInvalidDefinition, d.Domain.End, err)
	}
	if !start.Before(end) {
		return fmt.Errorf("%w: domain start must be before end", ErrInvalidDefinition)
	}
	if !(d.Domain.Min < d.Domain.Max) {
		return fmt.Errorf("%w: domain min must be below max", ErrInvalidDefinition)
	}
	return nil
}
