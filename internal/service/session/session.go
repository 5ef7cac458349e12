// Package session drives one capture source through change detection, OCR
// and line filtering, and hands accepted lines to the output sinks.
package session

import (
	"context"
	"errors"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"textwatch/internal/dto"
	"textwatch/internal/logger"
	"textwatch/internal/metrics"
	"textwatch/internal/service/capture"
	"textwatch/internal/service/linefilter"
	"textwatch/internal/service/motion"
	"textwatch/internal/service/ocr"

	"github.com/google/uuid"
)

// Engine performs one OCR pass over a frame. *ocr.Pipeline implements it.
type Engine interface {
	Run(ctx context.Context, frame *image.RGBA) (*ocr.Result, error)
}

// Sink receives accepted lines in emission order.
type Sink interface {
	Emit(ctx context.Context, event dto.LineEvent) error
}

// Recorder stores the outcome of every completed pass.
type Recorder interface {
	Record(pass dto.BufferedPass)
}

// Options configures a Session. Source, Engine and Logger are required.
type Options struct {
	Source   capture.Source
	Engine   Engine
	Filter   *linefilter.Filter
	Sinks    []Sink
	Recorder Recorder
	Metrics  *metrics.Metrics
	Logger   *logger.Logger

	Interval       time.Duration
	Downscale      int
	PixelThreshold int
	Thresholds     motion.Thresholds
}

// Session owns all mutable state of one monitoring run: the differ, the
// detector state, the line history and the busy flag.
type Session struct {
	id       string
	source   capture.Source
	engine   Engine
	filter   *linefilter.Filter
	sinks    []Sink
	recorder Recorder
	metrics  *metrics.Metrics
	logger   *logger.Logger

	interval   time.Duration
	thresholds motion.Thresholds

	mu         sync.Mutex // differ, state, lastLine, lastPassAt
	differ     *motion.Differ
	state      motion.State
	lastLine   string
	lastPassAt time.Time

	busy    atomic.Bool
	paused  atomic.Bool
	trigger chan *capture.Frame
	passes  atomic.Int64
	emitted atomic.Int64
}

func New(opts Options) *Session {
	if opts.Filter == nil {
		opts.Filter = linefilter.New(linefilter.ModeLast, linefilter.DefaultCapacity)
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	if opts.Interval <= 0 {
		opts.Interval = 80 * time.Millisecond
	}
	if opts.Thresholds == (motion.Thresholds{}) {
		opts.Thresholds = motion.DefaultThresholds()
	}

	return &Session{
		id:         uuid.NewString(),
		source:     opts.Source,
		engine:     opts.Engine,
		filter:     opts.Filter,
		sinks:      opts.Sinks,
		recorder:   opts.Recorder,
		metrics:    opts.Metrics,
		logger:     opts.Logger,
		interval:   opts.Interval,
		thresholds: opts.Thresholds,
		differ:     motion.NewDiffer(opts.Downscale, opts.PixelThreshold),
		trigger:    make(chan *capture.Frame, 1),
	}
}

func (s *Session) ID() string { return s.id }

// Run samples the source on a fixed tick and runs OCR on a single worker
// until ctx is cancelled.
func (s *Session) Run(ctx context.Context) {
	s.logger.Info("🎬 Session %s started - sampling every %v", s.id, s.interval)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.worker(ctx)
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			s.logger.Info("🛑 Session %s stopped", s.id)
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick performs one sampling step. It does nothing while paused or while a
// pass is in flight.
func (s *Session) Tick(ctx context.Context) {
	if s.paused.Load() || s.busy.Load() || s.source.Paused() {
		s.metrics.TicksSkipped.Add(1)
		return
	}

	frame, err := s.source.CurrentFrame()
	if err != nil {
		if !errors.Is(err, capture.ErrNoFrame) {
			s.logger.Warning("Failed to read frame: %v", err)
		}
		s.metrics.NoSignal.Add(1)
		return
	}

	s.mu.Lock()
	fraction, ok := s.differ.Sample(frame.Image)
	if !ok {
		s.mu.Unlock()
		s.metrics.NoSignal.Add(1)
		return
	}
	next, fire := motion.Step(s.state, fraction, s.thresholds)
	if next.Phase != s.state.Phase {
		s.logger.Info("Detector %s -> %s (%.4f)", s.state.Phase, next.Phase, fraction)
	}
	s.state = next
	s.mu.Unlock()

	s.metrics.TicksSampled.Add(1)
	if fire {
		s.fire(frame)
	}
}

// fire hands frame to the worker. A trigger arriving while a pass is in
// flight is dropped, not queued.
func (s *Session) fire(frame *capture.Frame) {
	if !s.busy.CompareAndSwap(false, true) {
		s.metrics.TriggersDropped.Add(1)
		s.logger.Warning("⚠️  OCR pass in flight - dropping trigger")
		return
	}

	select {
	case s.trigger <- frame:
		s.metrics.TriggersFired.Add(1)
	default:
		s.busy.Store(false)
		s.metrics.TriggersDropped.Add(1)
	}
}

func (s *Session) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case frame := <-s.trigger:
			s.runPass(ctx, frame)
		}
	}
}

func (s *Session) runPass(ctx context.Context, frame *capture.Frame) {
	defer s.busy.Store(false)

	if _, _, err := s.ProcessFrame(ctx, frame); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("OCR pass failed: %v", err)
	}
}

// ProcessFrame runs one pass over frame, filters the text and delivers an
// accepted line to every sink. An inference failure aborts the pass and
// leaves the detector state and line history untouched.
func (s *Session) ProcessFrame(ctx context.Context, frame *capture.Frame) (string, bool, error) {
	result, err := s.engine.Run(ctx, frame.Image)
	if err != nil {
		if errors.Is(err, ocr.ErrInference) {
			s.metrics.PassErrors.Add(1)
		}
		return "", false, err
	}

	s.passes.Add(1)
	s.metrics.Passes.Add(1)
	s.metrics.RegionsDetected.Add(uint64(result.Regions))
	s.metrics.UpdatePassLatency(result.Duration)

	raw := result.Text()
	line, ok := s.filter.Apply(raw)
	now := time.Now()

	s.mu.Lock()
	s.lastPassAt = now
	if ok {
		s.lastLine = line
	}
	s.mu.Unlock()

	if ok {
		s.emitted.Add(1)
		s.metrics.LinesEmitted.Add(1)
		s.logger.Info("📝 %s", line)
		s.emit(ctx, dto.LineEvent{
			SessionID: s.id,
			Text:      line,
			Timestamp: now,
			Regions:   result.Regions,
		})
	} else {
		s.metrics.LinesSuppressed.Add(1)
	}

	if s.recorder != nil {
		s.recorder.Record(s.bufferedPass(result, raw, line, ok, now))
	}
	return line, ok, nil
}

func (s *Session) emit(ctx context.Context, event dto.LineEvent) {
	for _, sink := range s.sinks {
		if err := sink.Emit(ctx, event); err != nil {
			s.metrics.SinkErrors.Add(1)
			s.logger.Error("Failed to deliver line: %v", err)
		}
	}
}

func (s *Session) bufferedPass(result *ocr.Result, raw, line string, emitted bool, at time.Time) dto.BufferedPass {
	regions := make([]dto.RegionResult, 0, len(result.Lines))
	for _, l := range result.Lines {
		b := l.Region.Box
		regions = append(regions, dto.RegionResult{
			X1:         b.X1,
			Y1:         b.Y1,
			X2:         b.X2,
			Y2:         b.Y2,
			Score:      l.Region.Score,
			Text:       l.Text,
			Confidence: l.Confidence,
		})
	}

	return dto.BufferedPass{
		SessionID: s.id,
		Timestamp: at,
		RawText:   raw,
		Text:      line,
		Emitted:   emitted,
		Duration:  result.Duration,
		Regions:   regions,
	}
}

func (s *Session) Pause() {
	if !s.paused.Swap(true) {
		s.logger.Info("⏸️  Session %s paused", s.id)
	}
}

// Resume restarts sampling from a clean detector state.
func (s *Session) Resume() {
	s.mu.Lock()
	s.state = motion.State{}
	s.differ.Reset()
	s.mu.Unlock()

	if s.paused.Swap(false) {
		s.logger.Info("▶️  Session %s resumed", s.id)
	}
}

// Status returns a snapshot of the session.
func (s *Session) Status() dto.SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	return dto.SessionStatus{
		ID:         s.id,
		Phase:      s.state.Phase.String(),
		Stable:     s.state.Stable,
		Busy:       s.busy.Load(),
		Paused:     s.paused.Load() || s.source.Paused(),
		Passes:     s.passes.Load(),
		Emitted:    s.emitted.Load(),
		LastLine:   s.lastLine,
		LastPassAt: s.lastPassAt,
	}
}
