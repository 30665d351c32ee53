// Package capture turns a continuous audio input into discrete short clips
// for classification: it samples the input's amplitude on a fixed period,
// records a clip when the level crosses a threshold, and enforces a cooldown
// so one sustained sound does not re-trigger.
package capture

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hanyuwei/petbabel/server/domain/entities"
)

// State names the capture session's lifecycle stage.
type State string

const (
	StateStopped      State = "stopped"
	StateInitializing State = "initializing"
	StateListening    State = "listening"
	StateCapturing    State = "capturing"
)

// Device is the audio input a session exclusively owns while running.
// Close must be safe to call more than once and before a successful Open.
type Device interface {
	// Open acquires the input device and its level analyzer.
	Open(ctx context.Context) error
	// Level returns the current amplitude reading.
	Level() (float64, error)
	// Record captures a clip of the given duration.
	Record(ctx context.Context, d time.Duration) ([]byte, error)
	// Close releases the device and analyzer resources.
	Close() error
}

// SubmitFunc hands a recorded clip to the external classifier and resolves
// any translation for the result. It may outlive the sampling tick that
// spawned it; the session bounds it with ClassifyTimeout.
type SubmitFunc func(ctx context.Context, clip []byte) (entities.Detection, error)

// Config carries the loop's tunables.
type Config struct {
	// SamplePeriod is how often the amplitude is polled.
	SamplePeriod time.Duration
	// Threshold is the amplitude above which a sound counts as a
	// vocalization. Zero means the default; a negative value means trigger
	// on any non-silent sample (effective threshold zero).
	Threshold float64
	// Cooldown is the minimum gap between triggered captures. Zero means
	// the default; a negative value disables the cooldown entirely.
	Cooldown time.Duration
	// ClipDuration is the length of each recorded clip.
	ClipDuration time.Duration
	// ClassifyTimeout bounds the classifier call so a hung collaborator
	// cannot wedge the busy state.
	ClassifyTimeout time.Duration
	// Clock overrides the system clock. Nil means real time.
	Clock Clock
}

// DefaultConfig returns the reference tuning: poll every second, trigger
// above level 30, hold off three seconds between captures, record one-second
// clips.
func DefaultConfig() Config {
	return Config{
		SamplePeriod:    time.Second,
		Threshold:       30,
		Cooldown:        3 * time.Second,
		ClipDuration:    time.Second,
		ClassifyTimeout: 15 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.SamplePeriod <= 0 {
		c.SamplePeriod = def.SamplePeriod
	}
	if c.Threshold == 0 {
		c.Threshold = def.Threshold
	} else if c.Threshold < 0 {
		c.Threshold = 0
	}
	if c.Cooldown == 0 {
		c.Cooldown = def.Cooldown
	} else if c.Cooldown < 0 {
		c.Cooldown = 0
	}
	if c.ClipDuration <= 0 {
		c.ClipDuration = def.ClipDuration
	}
	if c.ClassifyTimeout <= 0 {
		c.ClassifyTimeout = def.ClassifyTimeout
	}
	if c.Clock == nil {
		c.Clock = systemClock{}
	}
	return c
}

// Session runs the voice-activity loop over one Device. It owns the device
// exclusively between Start and Stop; at most one capture is in flight at a
// time.
type Session struct {
	cfg    Config
	dev    Device
	submit SubmitFunc
	logger *zap.Logger

	onDetection func(entities.Detection)
	onError     func(error)

	mu          sync.Mutex
	state       State
	gen         uint64
	busy        bool
	lastTrigger time.Time
	lastLevel   float64
	stopCh      chan struct{}
}

// NewSession creates a capture session. Callbacks are registered before
// Start; the session is in StateStopped until then.
func NewSession(cfg Config, dev Device, submit SubmitFunc, logger *zap.Logger) *Session {
	return &Session{
		cfg:    cfg.withDefaults(),
		dev:    dev,
		submit: submit,
		logger: logger,
		state:  StateStopped,
	}
}

// OnDetection registers the callback invoked once per completed capture, in
// capture order. Callbacks never fire for captures from a stopped session.
func (s *Session) OnDetection(fn func(entities.Detection)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onDetection = fn
}

// OnError registers the callback for recoverable per-cycle failures
// (recording or classification). The loop keeps listening after each one.
func (s *Session) OnError(fn func(error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onError = fn
}

// State returns the session's current lifecycle stage.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastLevel returns the most recent amplitude sample.
func (s *Session) LastLevel() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastLevel
}

// Start acquires the device and begins listening. Calling it while the
// session is already running is a no-op. Device acquisition failure is
// returned to the caller, leaves no resources held, and is not retried.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateStopped {
		s.mu.Unlock()
		return nil
	}
	s.state = StateInitializing
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	if err := s.dev.Open(ctx); err != nil {
		s.mu.Lock()
		if s.gen == gen {
			s.state = StateStopped
		}
		s.mu.Unlock()
		return fmt.Errorf("acquire audio input: %w", err)
	}

	s.mu.Lock()
	if s.gen != gen || s.state != StateInitializing {
		// Stop raced with initialization; release what Open acquired.
		s.mu.Unlock()
		s.dev.Close()
		return nil
	}
	s.state = StateListening
	s.busy = false
	s.lastTrigger = time.Time{}
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.mu.Unlock()

	go s.run(stopCh)

	s.logger.Info("Capture session listening",
		zap.Float64("threshold", s.cfg.Threshold),
		zap.Duration("cooldown", s.cfg.Cooldown),
		zap.Duration("samplePeriod", s.cfg.SamplePeriod))
	return nil
}

// Stop releases the device immediately and invalidates any in-flight
// capture or classification so its result is discarded. Idempotent; safe
// from any state.
func (s *Session) Stop() {
	s.mu.Lock()
	if s.state == StateStopped {
		s.mu.Unlock()
		return
	}
	s.gen++
	s.state = StateStopped
	s.busy = false
	s.lastLevel = 0
	stopCh := s.stopCh
	s.stopCh = nil
	s.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
	}
	if err := s.dev.Close(); err != nil {
		s.logger.Warn("Failed to close audio input", zap.Error(err))
	}

	s.logger.Info("Capture session stopped")
}

func (s *Session) run(stopCh chan struct{}) {
	for {
		select {
		case <-stopCh:
			return
		case <-s.cfg.Clock.After(s.cfg.SamplePeriod):
			s.poll()
		}
	}
}

// poll is one sampling tick: read the level, and when the trigger guards all
// pass, flip to capturing in the same critical section so two ticks cannot
// both decide to trigger.
func (s *Session) poll() {
	s.mu.Lock()
	if s.state != StateListening {
		s.mu.Unlock()
		return
	}
	gen := s.gen
	s.mu.Unlock()

	level, err := s.dev.Level()
	if err != nil {
		s.reportError(gen, fmt.Errorf("read input level: %w", err))
		return
	}

	s.mu.Lock()
	if s.gen != gen || s.state != StateListening {
		s.mu.Unlock()
		return
	}
	s.lastLevel = level

	now := s.cfg.Clock.Now()
	inCooldown := !s.lastTrigger.IsZero() && now.Sub(s.lastTrigger) <= s.cfg.Cooldown
	if s.busy || inCooldown || level <= s.cfg.Threshold {
		s.mu.Unlock()
		return
	}

	s.busy = true
	s.state = StateCapturing
	s.lastTrigger = now
	s.mu.Unlock()

	s.logger.Debug("Vocalization detected", zap.Float64("level", level))
	go s.captureCycle(gen)
}

// captureCycle records the clip and submits it. It runs off the sampling
// timeline; staleness is checked against the generation before any result is
// acted on.
func (s *Session) captureCycle(gen uint64) {
	recordCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ClipDuration+s.cfg.ClassifyTimeout)
	defer cancel()

	clip, err := s.dev.Record(recordCtx, s.cfg.ClipDuration)

	// Recording is done; sampling may resume while classification runs.
	s.mu.Lock()
	if s.gen == gen && s.state == StateCapturing {
		s.state = StateListening
	}
	s.mu.Unlock()

	if err != nil {
		s.finishCycle(gen)
		s.reportError(gen, fmt.Errorf("record clip: %w", err))
		return
	}

	classifyCtx, cancelClassify := context.WithTimeout(context.Background(), s.cfg.ClassifyTimeout)
	defer cancelClassify()

	// The submit runs in its own goroutine so the busy window closes when the
	// timeout elapses even if the submit ignores its context. A late result
	// from an abandoned call lands in the buffered channel and is dropped.
	type outcome struct {
		detection entities.Detection
		err       error
	}
	resCh := make(chan outcome, 1)
	go func() {
		d, err := s.submit(classifyCtx, clip)
		resCh <- outcome{detection: d, err: err}
	}()

	var res outcome
	select {
	case res = <-resCh:
	case <-classifyCtx.Done():
		res.err = fmt.Errorf("no result within %s: %w", s.cfg.ClassifyTimeout, classifyCtx.Err())
	}

	if !s.finishCycle(gen) {
		// Session stopped or restarted while the call was outstanding;
		// the result is stale and must not be acted on.
		return
	}

	if res.err != nil {
		s.reportError(gen, fmt.Errorf("classify clip: %w", res.err))
		return
	}

	s.mu.Lock()
	fn := s.onDetection
	s.mu.Unlock()
	if fn != nil {
		fn(res.detection)
	}
}

// finishCycle clears the busy flag; it reports false when the generation has
// moved on and the cycle's outcome must be discarded.
func (s *Session) finishCycle(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return false
	}
	s.busy = false
	return true
}

func (s *Session) reportError(gen uint64, err error) {
	s.mu.Lock()
	stale := s.gen != gen
	fn := s.onError
	s.mu.Unlock()
	if stale {
		return
	}

	s.logger.Warn("Capture cycle failed", zap.Error(err))
	if fn != nil {
		fn(err)
	}
}
