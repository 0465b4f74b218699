// Package studio owns the editing session of a single post: the view-model,
// the AI analysis and the lifecycle of the generation request.
package studio

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/bilgisen/newsinsight/internal/config"
	"github.com/bilgisen/newsinsight/internal/media"
	"github.com/bilgisen/newsinsight/internal/models"
	"github.com/rs/zerolog"
)

// ErrClosed is returned once the session has been torn down.
var ErrClosed = errors.New("studio: session closed")

// ContentGenerator produces post text and imagery for a topic
type ContentGenerator interface {
	GenerateContent(ctx context.Context, topic string) (*models.GeneratedContent, error)
	GenerateImage(ctx context.Context, topic string) (string, error)
}

// Recorder receives generation outcomes for metrics
type Recorder interface {
	RecordGeneration(outcome string, took time.Duration)
}

// Generation outcomes reported to the Recorder
const (
	OutcomeSuccess      = "success"
	OutcomeInvalid      = "invalid"
	OutcomeBusy         = "busy"
	OutcomeContentError = "content_error"
	OutcomeImageError   = "image_error"
)

// Options configures a Studio
type Options struct {
	Generator  ContentGenerator
	Credential string
	Clock      func() time.Time
	Logger     zerolog.Logger
	Recorder   Recorder
}

// State is a consistent copy of the session for the editor surface.
type State struct {
	Status               models.RequestStatus `json:"status"`
	Post                 models.PostViewModel `json:"post"`
	Analysis             *models.AIAnalysis   `json:"analysis"`
	Error                string               `json:"error,omitempty"`
	ActiveTab            models.EditorTab     `json:"activeTab"`
	CredentialConfigured bool                 `json:"credentialConfigured"`
}

// Studio is safe for concurrent use. The lock is never held across a call
// to the generator.
type Studio struct {
	gen        ContentGenerator
	credential string
	now        func() time.Time
	log        zerolog.Logger
	rec        Recorder

	mu       sync.Mutex
	post     models.PostViewModel
	analysis *models.AIAnalysis
	status   models.RequestStatus
	errMsg   string
	tab      models.EditorTab
	attempt  uint64
	closed   bool
}

func New(opts Options) *Studio {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Studio{
		gen:        opts.Generator,
		credential: opts.Credential,
		now:        opts.Clock,
		log:        opts.Logger,
		rec:        opts.Recorder,
		post:       models.DefaultPost(opts.Clock()),
		status:     models.StatusIdle,
		tab:        models.TabAI,
	}
}

// Generate runs one generation attempt for topic: content first, then the
// image, merging results into the post as they land. Validation failures
// leave the status untouched; a call while another attempt is loading is
// rejected with models.ErrGenerationInProgress.
func (s *Studio) Generate(ctx context.Context, topic string) error {
	start := s.now()
	topic = strings.TrimSpace(topic)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if err := s.validateLocked(topic); err != nil {
		s.errMsg = err.Message
		s.mu.Unlock()
		s.record(OutcomeInvalid, start)
		return err
	}
	if s.status == models.StatusLoading {
		s.mu.Unlock()
		s.record(OutcomeBusy, start)
		return models.ErrGenerationInProgress
	}
	s.status = models.StatusLoading
	s.errMsg = ""
	s.analysis = nil
	s.attempt++
	attempt := s.attempt
	s.mu.Unlock()

	log := s.log.With().Uint64("attempt", attempt).Str("topic", topic).Logger()
	log.Info().Msg("Generating post")

	content, err := s.gen.GenerateContent(ctx, topic)
	if err != nil {
		log.Error().Err(err).Msg("Content generation failed")
		s.record(OutcomeContentError, start)
		return s.fail(attempt, models.ErrCodeContentFailed, err)
	}

	s.mu.Lock()
	if s.staleLocked(attempt) {
		s.mu.Unlock()
		return ErrClosed
	}
	s.post.Merge(content.Fields)
	s.mu.Unlock()

	imageURL, err := s.gen.GenerateImage(ctx, topic)
	if err != nil {
		log.Error().Err(err).Msg("Image generation failed, keeping generated text")
		s.record(OutcomeImageError, start)
		return s.fail(attempt, models.ErrCodeImageFailed, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.staleLocked(attempt) {
		return ErrClosed
	}
	analysis := content.Analysis
	s.post.ImageURL = imageURL
	s.post.Date = models.FormatHindiDate(s.now())
	s.analysis = &analysis
	s.status = models.StatusSuccess
	s.errMsg = ""
	s.tab = models.TabEdit

	log.Info().
		Int("engagement_score", analysis.EngagementScore).
		Bool("embedded_image", media.IsDataURI(imageURL)).
		Dur("took", s.now().Sub(start)).
		Msg("Post generated")
	s.record(OutcomeSuccess, start)
	return nil
}

func (s *Studio) validateLocked(topic string) *models.AppError {
	if topic == "" {
		return models.NewEmptyTopicError()
	}
	if !config.IsCredentialConfigured(s.credential) {
		return models.NewMissingCredentialError()
	}
	return nil
}

// staleLocked reports whether results of attempt must be discarded.
func (s *Studio) staleLocked(attempt uint64) bool {
	return s.closed || attempt != s.attempt
}

func (s *Studio) fail(attempt uint64, code string, err error) error {
	var appErr *models.AppError
	if !errors.As(err, &appErr) || appErr.Category != models.CategoryService {
		appErr = models.NewServiceError(code, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.staleLocked(attempt) {
		return ErrClosed
	}
	s.status = models.StatusError
	s.errMsg = appErr.Message
	return appErr
}

func (s *Studio) record(outcome string, start time.Time) {
	if s.rec != nil {
		s.rec.RecordGeneration(outcome, s.now().Sub(start))
	}
}

// UpdateField applies a manual edit to a single post field.
func (s *Studio) UpdateField(name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return s.post.SetField(name, value)
}

// UploadImage replaces the post image with a locally supplied file. Only
// image content is accepted; it is embedded as a data URI.
func (s *Studio) UploadImage(data []byte) (string, error) {
	return s.upload(data, func(p *models.PostViewModel, uri string) { p.ImageURL = uri }, "Post image uploaded")
}

// UploadLogo replaces the logo mark with an uploaded image.
func (s *Studio) UploadLogo(data []byte) (string, error) {
	return s.upload(data, func(p *models.PostViewModel, uri string) { p.LogoURL = uri }, "Logo uploaded")
}

func (s *Studio) upload(data []byte, apply func(*models.PostViewModel, string), msg string) (string, error) {
	mime, ok := media.DetectImage(data)
	if !ok {
		return "", models.NewInvalidUploadError(mime)
	}
	uri := media.EncodeDataURI(mime, data)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", ErrClosed
	}
	apply(&s.post, uri)
	s.log.Debug().Str("mime", mime).Int("bytes", len(data)).Msg(msg)
	return mime, nil
}

// SetTab switches the active editor pane.
func (s *Studio) SetTab(tab models.EditorTab) error {
	if !tab.Valid() {
		return models.NewInvalidFieldValueError("tab", string(tab))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tab = tab
	return nil
}

// Post returns a copy of the current view-model.
func (s *Studio) Post() models.PostViewModel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.post
}

// Snapshot returns a copy of the whole session state.
func (s *Studio) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		Status:               s.status,
		Post:                 s.post,
		Error:                s.errMsg,
		ActiveTab:            s.tab,
		CredentialConfigured: config.IsCredentialConfigured(s.credential),
	}
	if s.analysis != nil {
		a := *s.analysis
		a.Hashtags = append([]string(nil), s.analysis.Hashtags...)
		a.Suggestions = append([]string(nil), s.analysis.Suggestions...)
		st.Analysis = &a
	}
	return st
}

// Close tears the session down. Results of in-flight attempts are dropped.
func (s *Studio) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}
