package export

import (
	"context"
	"time"

	"github.com/bilgisen/newsinsight/internal/models"
	"github.com/bilgisen/newsinsight/internal/render"
	"github.com/rs/zerolog"
)

// Recorder receives export outcomes for metrics
type Recorder interface {
	RecordExport(outcome string, took time.Duration, size int)
}

// Export outcomes reported to the Recorder
const (
	OutcomeSuccess  = "success"
	OutcomeFailed   = "failed"
	OutcomeRejected = "rejected"
)

// Result is a finished export
type Result struct {
	FileName  string
	Data      []byte
	Locations map[string]string
}

// CardCapturer rasterizes a card
type CardCapturer interface {
	Capture(ctx context.Context, card render.Card) ([]byte, error)
}

// Exporter renders the post, captures the card and hands the PNG to the
// configured sinks. Sink failures are logged and never fail the export.
type Exporter struct {
	capturer CardCapturer
	sinks    []Sink
	now      func() time.Time
	log      zerolog.Logger
	rec      Recorder
}

func NewExporter(capturer CardCapturer, log zerolog.Logger, rec Recorder, sinks ...Sink) *Exporter {
	return &Exporter{
		capturer: capturer,
		sinks:    sinks,
		now:      time.Now,
		log:      log,
		rec:      rec,
	}
}

// Sinks returns the names of the configured sinks.
func (e *Exporter) Sinks() []string {
	names := make([]string, 0, len(e.sinks))
	for _, s := range e.sinks {
		names = append(names, s.Name())
	}
	return names
}

// Export captures post. A post without a headline is rejected with a
// validation error; every other failure is a capture error.
func (e *Exporter) Export(ctx context.Context, post models.PostViewModel) (*Result, error) {
	start := e.now()

	if err := post.ReadyForExport(); err != nil {
		e.record(OutcomeRejected, start, 0)
		return nil, err
	}

	data, err := e.capturer.Capture(ctx, render.Render(post))
	if err != nil {
		e.record(OutcomeFailed, start, 0)
		if models.IsCategory(err, models.CategoryCapture) {
			return nil, err
		}
		return nil, models.NewCaptureError(err)
	}

	res := &Result{
		FileName:  FileName(e.now()),
		Data:      data,
		Locations: make(map[string]string),
	}
	for _, s := range e.sinks {
		loc, err := s.Save(ctx, res.FileName, data)
		if err != nil {
			e.log.Warn().Err(err).Str("sink", s.Name()).Str("file", res.FileName).Msg("Failed to store export")
			continue
		}
		res.Locations[s.Name()] = loc
	}

	e.log.Info().Str("file", res.FileName).Int("bytes", len(data)).Int("stored", len(res.Locations)).Msg("Post exported")
	e.record(OutcomeSuccess, start, len(data))
	return res, nil
}

func (e *Exporter) record(outcome string, start time.Time, size int) {
	if e.rec != nil {
		e.rec.RecordExport(outcome, e.now().Sub(start), size)
	}
}
