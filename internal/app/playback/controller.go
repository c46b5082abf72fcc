package playback

import (
	"math"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/videoview/internal/domain/media"
	"github.com/osa030/videoview/internal/fsm"
)

// Errors
var (
	ErrNoMedia         = errors.New("no media set")
	ErrNotAttached     = errors.New("no player attached")
	ErrUnknownDuration = errors.New("media duration unknown")
)

// Option configures a Controller.
type Option func(*Controller)

// WithListener sets the outward playback listener.
func WithListener(l Listener) Option {
	return func(c *Controller) {
		c.listener = l
	}
}

// WithLogger sets the logger used by the state machine.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Controller) {
		c.fsmOpts = append(c.fsmOpts, fsm.WithLogger(logger))
	}
}

// Controller sequences a backend Player through the playback lifecycle.
//
// User calls and decoder callbacks are turned into events and fed through a
// single fsm.Dispatcher, so at most one event is processed at a time.
type Controller struct {
	mu sync.RWMutex // guards the fields below; never held across player or listener calls

	player    Player
	media     *media.Media
	subtitle  string
	buffering float64
	listener  Listener

	machine  *fsm.Machine[State, EventKind]
	dispatch *fsm.Dispatcher[State, EventKind]
	fsmOpts  []fsm.Option
}

// NewController creates a controller in StateWaitingAttach.
func NewController(opts ...Option) (*Controller, error) {
	c := &Controller{}
	for _, opt := range opts {
		opt(c)
	}

	c.machine = fsm.NewMachine[State, EventKind](c.fsmOpts...)
	if err := c.machine.Setup(StateWaitingAttach, c.states()...); err != nil {
		return nil, errors.Wrap(err, "failed to set up playback state machine")
	}
	c.machine.OnStateChange(c.onStateChange)

	c.dispatch = fsm.NewDispatcher(c.machine)
	if err := c.dispatch.Start(); err != nil {
		return nil, errors.Wrap(err, "failed to start playback state machine")
	}
	return c, nil
}

// SetListener replaces the outward listener. nil disables notifications.
func (c *Controller) SetListener(l Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listener = l
}

// Attach takes ownership of p, registers for its decoder callbacks and
// signals the state machine. A previously attached player is released.
func (c *Controller) Attach(p Player) {
	c.mu.Lock()
	old := c.player
	c.player = p
	c.mu.Unlock()

	if old != nil && old != p {
		old.SetEventListener(nil)
		old.Release()
	}
	p.SetEventListener(c)

	zlog.Debug().Msg("playback: player attached")
	c.send(EventAttach)
}

// Detach releases the attached player. The state machine is not notified;
// backend calls made while detached are skipped.
func (c *Controller) Detach() {
	c.mu.Lock()
	p := c.player
	c.player = nil
	c.mu.Unlock()

	if p == nil {
		return
	}
	p.SetEventListener(nil)
	p.Release()
	zlog.Debug().Msg("playback: player detached")
}

// SetMedia sets the media submitted on the next start.
func (c *Controller) SetMedia(m *media.Media) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.media = m
}

// SetVideoPath sets a local file as media.
func (c *Controller) SetVideoPath(path string) error {
	m, err := media.FromPath(path)
	if err != nil {
		return err
	}
	c.SetMedia(m)
	return nil
}

// SetVideoURI sets a network location as media.
func (c *Controller) SetVideoURI(uri string) error {
	m, err := media.FromURI(uri)
	if err != nil {
		return err
	}
	c.SetMedia(m)
	return nil
}

// Media returns the current media, or nil.
func (c *Controller) Media() *media.Media {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.media
}

// Start asks for playback of the current media.
func (c *Controller) Start() error {
	if c.Media() == nil {
		return ErrNoMedia
	}
	c.send(EventAskForPlay)
	return nil
}

// Pause pauses playback. Ignored unless buffering or playing.
func (c *Controller) Pause() {
	c.send(EventPause)
}

// Suspend is an alias of Pause.
func (c *Controller) Suspend() {
	c.Pause()
}

// Resume resumes paused playback. Ignored unless paused.
func (c *Controller) Resume() {
	c.send(EventResume)
}

// StopPlayback stops playback. Ignored unless playing or paused.
func (c *Controller) StopPlayback() {
	c.send(EventStop)
}

// SeekTo moves playback to pos, expressed relative to the media duration.
func (c *Controller) SeekTo(pos time.Duration) error {
	p, m, _ := c.snapshot()
	if p == nil {
		return ErrNotAttached
	}
	if m == nil {
		return ErrNoMedia
	}
	if !m.HasDuration() {
		return ErrUnknownDuration
	}
	fraction := float64(pos) / float64(m.Duration)
	p.SetPosition(math.Max(0, math.Min(1, fraction)))
	return nil
}

// SetSubtitle sets the subtitle URI and resubmits it to an active backend.
// An empty uri clears the subtitle track.
func (c *Controller) SetSubtitle(uri string) {
	c.mu.Lock()
	c.subtitle = uri
	c.mu.Unlock()
	c.send(EventSetSubtitle)
}

// SetSubtitlePath sets a local subtitle file.
func (c *Controller) SetSubtitlePath(path string) error {
	uri, err := media.SubtitleURI(path)
	if err != nil {
		return err
	}
	c.SetSubtitle(uri)
	return nil
}

// ClearSubtitle removes the subtitle track.
func (c *Controller) ClearSubtitle() {
	c.SetSubtitle("")
}

// Subtitle returns the current subtitle URI.
func (c *Controller) Subtitle() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.subtitle
}

// CanPause always returns true.
func (c *Controller) CanPause() bool {
	return true
}

// CanSeekBackward reports whether the backend can seek.
func (c *Controller) CanSeekBackward() bool {
	p, _, _ := c.snapshot()
	return p != nil && p.IsSeekable()
}

// CanSeekForward reports whether the backend can seek and is not at the end.
func (c *Controller) CanSeekForward() bool {
	p, _, _ := c.snapshot()
	return p != nil && p.IsSeekable() && p.Position() < 1
}

// BufferPercentage returns the last buffering progress reported by the decoder.
func (c *Controller) BufferPercentage() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return int(c.buffering)
}

// CurrentPosition returns the playback time. ok is false without a player.
func (c *Controller) CurrentPosition() (time.Duration, bool) {
	p, _, _ := c.snapshot()
	if p == nil {
		return 0, false
	}
	return p.Time(), true
}

// Duration returns the media duration. ok is false when no media is set or
// its length is not known yet.
func (c *Controller) Duration() (time.Duration, bool) {
	m := c.Media()
	if !m.HasDuration() {
		return 0, false
	}
	return m.Duration, true
}

// IsPlaying reports whether the backend is playing.
func (c *Controller) IsPlaying() bool {
	p, _, _ := c.snapshot()
	return p != nil && p.IsPlaying()
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	return c.machine.Current()
}

// Can reports whether kind is handled in the current state. The answer may
// be stale by the time an event is sent.
func (c *Controller) Can(kind EventKind) bool {
	return c.machine.Can(kind)
}

// OnDecoderEvent translates a decoder callback into a state machine event.
func (c *Controller) OnDecoderEvent(ev DecoderEvent) {
	switch ev.Type {
	case DecoderBuffering:
		c.mu.Lock()
		c.buffering = ev.Buffering
		c.mu.Unlock()
		zlog.Trace().Msgf("playback: buffering: %d%%", int(math.Round(ev.Buffering)))
		c.send(EventBuffering, int(ev.Buffering))
	case DecoderPlaying:
		c.send(EventPlay)
	case DecoderEndReached:
		c.send(EventEnd)
	case DecoderTimeChanged:
		c.send(EventPosition, ev.Time)
	case DecoderLengthChanged:
		c.mu.Lock()
		if c.media != nil {
			c.media = c.media.WithDuration(ev.Time)
		}
		c.mu.Unlock()
	case DecoderEncounteredError:
		zlog.Warn().Err(ev.Err).Msg("playback: decoder reported an error")
		c.send(EventError)
	default:
		// paused/stopped are consequences of our own commands
	}
}

func (c *Controller) send(kind EventKind, payload ...any) {
	c.dispatch.Send(fsm.NewEvent(kind, payload...))
}

func (c *Controller) onStateChange(from, to State) {
	zlog.Debug().Msgf("playback: state changed: %s -> %s", from, to)
	if o, ok := c.currentListener().(StateObserver); ok {
		o.OnStateChanged(from, to)
	}
}

func (c *Controller) snapshot() (Player, *media.Media, string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.player, c.media, c.subtitle
}

func (c *Controller) currentListener() Listener {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.listener
}

func (c *Controller) warnDetached(action string) {
	zlog.Warn().Msgf("playback: no player attached, skipping %s in state %s", action, c.machine.Current())
}
