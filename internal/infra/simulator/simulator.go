// Package simulator provides a decoder backend that plays media on a
// simulated clock. It reports progress through the same asynchronous
// callbacks a real decoder would.
package simulator

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/videoview/internal/app/playback"
	"github.com/osa030/videoview/internal/domain/media"
)

// Config holds the simulator settings.
type Config struct {
	DurationMs     int  `yaml:"duration_ms" mapstructure:"duration_ms" default:"30000" validate:"gt=0"`
	TickMs         int  `yaml:"tick_ms" mapstructure:"tick_ms" default:"250" validate:"gt=0"`
	BufferingSteps int  `yaml:"buffering_steps" mapstructure:"buffering_steps" default:"4" validate:"gte=1,lte=100"`
	FailAtMs       int  `yaml:"fail_at_ms" mapstructure:"fail_at_ms" validate:"gte=0"` // 0 disables
	Live           bool `yaml:"live" mapstructure:"live"`                               // live streams are not seekable
}

// Simulator implements playback.Player.
type Simulator struct {
	cfg     Config
	options []string

	mu          sync.Mutex
	listener    playback.DecoderListener
	media       *media.Media
	subtitle    string
	elapsed     time.Duration
	playing     bool
	loaded      bool // buffering finished for the current media
	clockCancel context.CancelFunc
	released    bool

	qmu     sync.Mutex
	pending []playback.DecoderEvent
	wake    chan struct{}
	quit    chan struct{}
	done    chan struct{}
	once    sync.Once
}

var _ playback.Player = (*Simulator)(nil)

// NewFromSettings decodes, defaults and validates settings, then creates a Simulator.
func NewFromSettings(settings map[string]any, options ...string) (*Simulator, error) {
	var cfg Config
	if err := mapstructure.Decode(settings, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	zlog.Debug().Msgf("simulator config: %+v", cfg)
	if err := validator.New().Struct(cfg); err != nil {
		return nil, errors.Wrap(err, "validation failed")
	}
	return New(cfg, options...), nil
}

// New creates a Simulator and starts its callback goroutine.
func New(cfg Config, options ...string) *Simulator {
	_ = defaults.Set(&cfg) // fills zero fields only
	s := &Simulator{
		cfg:     cfg,
		options: append([]string(nil), options...),
		wake:    make(chan struct{}, 1),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	if len(options) > 0 {
		zlog.Info().Msgf("simulator: init options: %v", options)
	}
	go s.deliver()
	return s
}

// Options returns the init options the simulator was created with.
func (s *Simulator) Options() []string {
	return append([]string(nil), s.options...)
}

// Done is closed once the callback goroutine has exited after Release.
func (s *Simulator) Done() <-chan struct{} {
	return s.done
}

// SetEventListener implements playback.Player.
func (s *Simulator) SetEventListener(l playback.DecoderListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listener = l
}

// SetMedia implements playback.Player. Any running clock is stopped.
func (s *Simulator) SetMedia(m *media.Media) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopClockLocked()
	s.media = m
	s.elapsed = 0
	s.playing = false
	s.loaded = false
}

// AddSubtitleTrack implements playback.Player.
func (s *Simulator) AddSubtitleTrack(uri string, selectAsDefault bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subtitle = uri
	zlog.Debug().Msgf("simulator: subtitle track added: %s (default=%t)", uri, selectAsDefault)
}

// ClearSubtitleTrack implements playback.Player.
func (s *Simulator) ClearSubtitleTrack() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subtitle = ""
}

// Subtitle returns the active subtitle track URI.
func (s *Simulator) Subtitle() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subtitle
}

// Play implements playback.Player. Fresh media buffers first; paused media
// resumes from the current position.
func (s *Simulator) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released || s.media == nil || s.playing {
		return
	}
	s.playing = true
	ctx, cancel := context.WithCancel(context.Background())
	s.clockCancel = cancel
	go s.runClock(ctx, !s.loaded)
}

// Pause implements playback.Player.
func (s *Simulator) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.playing {
		return
	}
	s.stopClockLocked()
	s.playing = false
	s.emitLocked(playback.DecoderEvent{Type: playback.DecoderPaused, Time: s.elapsed})
}

// Stop implements playback.Player.
func (s *Simulator) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopClockLocked()
	s.playing = false
	s.loaded = false
	s.elapsed = 0
	s.emitLocked(playback.DecoderEvent{Type: playback.DecoderStopped})
}

// IsSeekable implements playback.Player.
func (s *Simulator) IsSeekable() bool {
	return !s.cfg.Live
}

// IsPlaying implements playback.Player.
func (s *Simulator) IsPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// Position implements playback.Player.
func (s *Simulator) Position() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return float64(s.elapsed) / float64(s.durationLocked())
}

// Time implements playback.Player.
func (s *Simulator) Time() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsed
}

// SetPosition implements playback.Player.
func (s *Simulator) SetPosition(fraction float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cfg.Live || s.media == nil {
		return
	}
	s.elapsed = time.Duration(fraction * float64(s.durationLocked()))
	s.emitLocked(playback.DecoderEvent{Type: playback.DecoderTimeChanged, Time: s.elapsed})
}

// Release implements playback.Player. It does not wait for the callback
// goroutine, since Release may be called from within a callback.
func (s *Simulator) Release() {
	s.mu.Lock()
	s.stopClockLocked()
	s.playing = false
	s.released = true
	s.listener = nil
	s.mu.Unlock()

	s.once.Do(func() { close(s.quit) })
}

func (s *Simulator) durationLocked() time.Duration {
	if s.media.HasDuration() {
		return s.media.Duration
	}
	return time.Duration(s.cfg.DurationMs) * time.Millisecond
}

func (s *Simulator) stopClockLocked() {
	if s.clockCancel != nil {
		s.clockCancel()
		s.clockCancel = nil
	}
}

// runClock advances the simulated decoder until ctx is cancelled or the
// media ends.
func (s *Simulator) runClock(ctx context.Context, buffer bool) {
	ticker := time.NewTicker(time.Duration(s.cfg.TickMs) * time.Millisecond)
	defer ticker.Stop()

	step := func(fn func() bool) bool {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if ctx.Err() != nil {
			return false
		}
		return fn()
	}

	if buffer {
		for i := 1; i <= s.cfg.BufferingSteps; i++ {
			percent := float64(100*i) / float64(s.cfg.BufferingSteps)
			if !step(func() bool {
				s.emitLocked(playback.DecoderEvent{Type: playback.DecoderBuffering, Buffering: percent})
				return true
			}) {
				return
			}
		}
	}

	s.mu.Lock()
	if ctx.Err() != nil {
		s.mu.Unlock()
		return
	}
	if buffer {
		s.loaded = true
		s.emitLocked(playback.DecoderEvent{Type: playback.DecoderLengthChanged, Time: s.durationLocked()})
	}
	s.emitLocked(playback.DecoderEvent{Type: playback.DecoderPlaying, Time: s.elapsed})
	s.mu.Unlock()

	tick := time.Duration(s.cfg.TickMs) * time.Millisecond
	failAt := time.Duration(s.cfg.FailAtMs) * time.Millisecond
	for {
		running := step(func() bool {
			s.elapsed += tick
			if failAt > 0 && s.elapsed >= failAt {
				s.finishLocked()
				s.emitLocked(playback.DecoderEvent{
					Type: playback.DecoderEncounteredError,
					Time: s.elapsed,
					Err:  errors.Newf("simulated decoder failure at %s", s.elapsed),
				})
				return false
			}
			if d := s.durationLocked(); s.elapsed >= d {
				s.elapsed = d
				s.emitLocked(playback.DecoderEvent{Type: playback.DecoderTimeChanged, Time: d})
				s.finishLocked()
				s.emitLocked(playback.DecoderEvent{Type: playback.DecoderEndReached, Time: d})
				return false
			}
			s.emitLocked(playback.DecoderEvent{Type: playback.DecoderTimeChanged, Time: s.elapsed})
			return true
		})
		if !running {
			return
		}
	}
}

func (s *Simulator) finishLocked() {
	s.stopClockLocked()
	s.playing = false
	s.loaded = false
}

// emitLocked queues ev for the callback goroutine. s.mu must be held so
// events keep the order of the state changes that produced them.
func (s *Simulator) emitLocked(ev playback.DecoderEvent) {
	s.qmu.Lock()
	s.pending = append(s.pending, ev)
	s.qmu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Simulator) deliver() {
	defer close(s.done)
	for {
		select {
		case <-s.quit:
			return
		case <-s.wake:
		}
		for {
			s.qmu.Lock()
			batch := s.pending
			s.pending = nil
			s.qmu.Unlock()
			if len(batch) == 0 {
				break
			}
			for _, ev := range batch {
				s.mu.Lock()
				l := s.listener
				s.mu.Unlock()
				if l == nil {
					continue
				}
				l.OnDecoderEvent(ev)
			}
		}
	}
}
