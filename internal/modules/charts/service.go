// Package charts builds chart sessions from loaded datasets and renders frames.
package charts

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/ratechart/internal/events"
	"github.com/aristath/ratechart/internal/modules/dataset"
	"github.com/aristath/ratechart/internal/modules/framecache"
	"github.com/aristath/ratechart/internal/modules/layout"
	"github.com/aristath/ratechart/internal/modules/render"
	"github.com/aristath/ratechart/internal/modules/scales"
	"github.com/aristath/ratechart/internal/modules/series"
	"github.com/aristath/ratechart/internal/utils"
)

// ErrNoSession is returned before the first successful load
var ErrNoSession = errors.New("no dataset loaded")

const slowRender = 500 * time.Millisecond

// ChartDataPoint represents a single point on a chart
type ChartDataPoint struct {
	Time  string   `json:"time" msgpack:"time"`   // YYYY-MM-DD, empty for an invalid date
	Value *float64 `json:"value" msgpack:"value"` // nil when not numeric
}

// SeriesData is one series in API form
type SeriesData struct {
	ID     string           `json:"id" msgpack:"id"`
	Name   string           `json:"name" msgpack:"name"`
	Points []ChartDataPoint `json:"points" msgpack:"points"`
}

// DatasetInfo describes the dataset behind the current session
type DatasetInfo struct {
	Source   string    `json:"source"`
	Checksum string    `json:"checksum"`
	Records  int       `json:"records"`
	Columns  []string  `json:"columns"`
	LoadedAt time.Time `json:"loaded_at"`
}

// FrameCache stores rendered frames per dataset version, options and size
type FrameCache interface {
	Get(ctx context.Context, key framecache.Key) ([]byte, bool, error)
	Put(ctx context.Context, key framecache.Key, data []byte) error
	PurgeExcept(ctx context.Context, checksum string) (int64, error)
}

// Service provides chart operations over the current session
type Service struct {
	loader  *dataset.Loader
	source  string
	opts    Options
	variant string
	cache   FrameCache
	events  *events.Manager
	session atomic.Pointer[Session]
	log     zerolog.Logger
}

// NewService creates a new charts service. cache and eventManager may be nil.
func NewService(
	loader *dataset.Loader,
	source string,
	opts Options,
	cache FrameCache,
	eventManager *events.Manager,
	log zerolog.Logger,
) *Service {
	return &Service{
		loader:  loader,
		source:  source,
		opts:    opts,
		variant: opts.Fingerprint(),
		cache:   cache,
		events:  eventManager,
		log:     log.With().Str("service", "charts").Logger(),
	}
}

// Source is the configured data source
func (s *Service) Source() string {
	return s.source
}

// Load performs the initial load. On failure no session exists.
func (s *Service) Load(ctx context.Context) error {
	return s.load(ctx, false)
}

// Reload loads the source again and swaps in a new session. On failure the
// previous session stays in place.
func (s *Service) Reload(ctx context.Context) error {
	return s.load(ctx, true)
}

func (s *Service) load(ctx context.Context, reload bool) error {
	ds, err := s.loader.Load(ctx, s.source)
	if err != nil {
		stage := ""
		var loadErr *dataset.LoadError
		if errors.As(err, &loadErr) {
			stage = loadErr.Stage
		}
		s.emit(&events.DatasetLoadFailedData{
			Source: s.source,
			Stage:  stage,
			Error:  err.Error(),
			Reload: reload,
		})
		return err
	}

	sess := NewSession(ds, s.opts)
	prev := s.session.Swap(sess)

	ids := make([]string, 0, len(sess.Series()))
	for _, sr := range sess.Series() {
		ids = append(ids, string(sr.ID))
	}

	s.log.Info().
		Str("source", ds.Source).
		Str("checksum", ds.Checksum).
		Bool("reload", reload).
		Int("series", len(ids)).
		Msg("Chart session ready")

	s.emit(&events.DatasetLoadedData{
		Source:   ds.Source,
		Checksum: ds.Checksum,
		Records:  len(ds.Records),
		Series:   ids,
		Reload:   reload,
	})

	if s.cache != nil && prev != nil && prev.Dataset().Checksum != ds.Checksum {
		purged, err := s.cache.PurgeExcept(ctx, ds.Checksum)
		if err != nil {
			s.log.Warn().Err(err).Msg("Failed to purge stale frames")
		} else if purged > 0 {
			s.log.Debug().Int64("frames", purged).Msg("Purged stale frames")
		}
	}

	return nil
}

func (s *Service) emit(data events.EventData) {
	if s.events != nil {
		s.events.EmitTyped("charts", data)
	}
}

// Session returns the current session
func (s *Service) Session() (*Session, error) {
	sess := s.session.Load()
	if sess == nil {
		return nil, ErrNoSession
	}
	return sess, nil
}

// Frame renders the current session at size. Frames are served from the
// cache when one is configured.
func (s *Service) Frame(ctx context.Context, size layout.Size, format render.Format) ([]byte, error) {
	sess, err := s.Session()
	if err != nil {
		return nil, err
	}

	key := framecache.Key{
		Checksum: sess.Dataset().Checksum,
		Variant:  s.variant,
		Width:    size.Width,
		Height:   size.Height,
		Format:   format,
	}

	if s.cache != nil {
		data, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.log.Warn().Err(err).Msg("Frame cache lookup failed")
		} else if ok {
			return data, nil
		}
	}

	done := utils.OperationTimer("render_frame", slowRender, s.log)
	data, _, err := sess.Render(size, format)
	done()
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Put(ctx, key, data); err != nil {
			s.log.Warn().Err(err).Msg("Failed to cache frame")
		}
	}
	return data, nil
}

// Series returns the current series as chart points. ids filters the
// result; an empty list returns every series.
func (s *Service) Series(ids []string) ([]SeriesData, error) {
	sess, err := s.Session()
	if err != nil {
		return nil, err
	}

	selected := series.Filter(sess.Series(), ids)
	result := make([]SeriesData, 0, len(selected))
	for _, sr := range selected {
		points := make([]ChartDataPoint, len(sr.Values))
		for i, o := range sr.Values {
			points[i] = toDataPoint(o)
		}
		result = append(result, SeriesData{ID: string(sr.ID), Name: sr.Name, Points: points})
	}
	return result, nil
}

func toDataPoint(o series.Observation) ChartDataPoint {
	var p ChartDataPoint
	if series.IsValidDate(o.Date) {
		p.Time = series.FormatDate(o.Date)
	}
	if !math.IsNaN(o.Value) && !math.IsInf(o.Value, 0) {
		v := o.Value
		p.Value = &v
	}
	return p
}

// ScaleInfo describes one mapping's endpoints and ticks
type ScaleInfo struct {
	Domain [2]string     `json:"domain"`
	Range  [2]float64    `json:"range"`
	Ticks  []scales.Tick `json:"ticks"`
}

// LayoutInfo is the result of one update cycle without drawing
type LayoutInfo struct {
	Container layout.Size    `json:"container"`
	Metrics   layout.Metrics `json:"metrics"`
	X         ScaleInfo      `json:"x"`
	Y         ScaleInfo      `json:"y"`
}

// Layout computes metrics and scales for size. It needs no session.
func (s *Service) Layout(size layout.Size) LayoutInfo {
	m := layout.Compute(layout.Fixed(size), s.opts.Margins)
	sc := scales.Build(s.toolkit(), m, s.opts.Domains)

	xd := sc.X.Domain()
	yd := sc.Y.Domain()
	return LayoutInfo{
		Container: size,
		Metrics:   m,
		X: ScaleInfo{
			Domain: [2]string{series.FormatDate(xd[0]), series.FormatDate(xd[1])},
			Range:  sc.X.Range(),
			Ticks:  sc.XAxis.Ticks,
		},
		Y: ScaleInfo{
			Domain: [2]string{fmt.Sprint(yd[0]), fmt.Sprint(yd[1])},
			Range:  sc.Y.Range(),
			Ticks:  sc.YAxis.Ticks,
		},
	}
}

func (s *Service) toolkit() scales.Toolkit {
	if s.opts.Toolkit == nil {
		return scales.Standard{}
	}
	return s.opts.Toolkit
}

// Summary returns per-series statistics for the current session
func (s *Service) Summary() ([]series.Summary, error) {
	sess, err := s.Session()
	if err != nil {
		return nil, err
	}

	result := make([]series.Summary, 0, len(sess.Series()))
	for _, sr := range sess.Series() {
		result = append(result, series.Summarize(sr))
	}
	return result, nil
}

// Info describes the dataset behind the current session
func (s *Service) Info() (DatasetInfo, error) {
	sess, err := s.Session()
	if err != nil {
		return DatasetInfo{}, err
	}
	ds := sess.Dataset()
	return DatasetInfo{
		Source:   ds.Source,
		Checksum: ds.Checksum,
		Records:  len(ds.Records),
		Columns:  ds.Columns,
		LoadedAt: ds.LoadedAt,
	}, nil
}
