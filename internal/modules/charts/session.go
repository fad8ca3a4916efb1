package charts

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/aristath/ratechart/internal/modules/dataset"
	"github.com/aristath/ratechart/internal/modules/layout"
	"github.com/aristath/ratechart/internal/modules/render"
	"github.com/aristath/ratechart/internal/modules/series"
)

// Session is one loaded dataset with its chart. Update cycles on a session
// are serialized.
type Session struct {
	mu      sync.Mutex
	dataset *dataset.Dataset
	series  []series.Series
	doc     *render.Document
	chart   *Chart
	opts    Options
}

// NewSession builds the series for ds and creates the chart elements
func NewSession(ds *dataset.Dataset, opts Options) *Session {
	data := series.Build(ds.Records, opts.Series)
	doc := render.NewDocument()
	return &Session{
		dataset: ds,
		series:  data,
		doc:     doc,
		chart:   NewChart(doc, data, opts),
		opts:    opts,
	}
}

// Dataset returns the dataset the session was built from
func (s *Session) Dataset() *dataset.Dataset {
	return s.dataset
}

// Series returns the session's series in configured order
func (s *Session) Series() []series.Series {
	return s.series
}

// Options returns the chart options of the session
func (s *Session) Options() Options {
	return s.opts
}

// Update runs one update cycle for container without encoding
func (s *Session) Update(container layout.Container) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chart.Update(container)
}

// Render runs one update cycle at size and encodes the result
func (s *Session) Render(size layout.Size, format render.Format) ([]byte, State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.chart.Update(layout.Fixed(size))

	var buf bytes.Buffer
	if err := s.doc.Encode(&buf, format); err != nil {
		return nil, state, fmt.Errorf("failed to render %dx%d %s frame: %w", size.Width, size.Height, format, err)
	}
	return buf.Bytes(), state, nil
}
