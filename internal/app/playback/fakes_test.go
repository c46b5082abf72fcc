package playback

import (
	"fmt"
	"sync"
	"time"

	"github.com/osa030/videoview/internal/domain/media"
)

// fakePlayer records every backend call.
type fakePlayer struct {
	mu       sync.Mutex
	calls    []string
	listener DecoderListener
	seekable bool
	position float64
	time     time.Duration
	playing  bool
	released bool

	// playingOnPlay makes Play report DecoderPlaying synchronously.
	playingOnPlay bool
}

func (p *fakePlayer) record(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, fmt.Sprintf(format, args...))
}

func (p *fakePlayer) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.calls))
	copy(out, p.calls)
	return out
}

func (p *fakePlayer) Count(call string) int {
	n := 0
	for _, c := range p.Calls() {
		if c == call {
			n++
		}
	}
	return n
}

func (p *fakePlayer) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = nil
}

func (p *fakePlayer) SetMedia(m *media.Media) { p.record("SetMedia(%s)", m.Location) }

func (p *fakePlayer) AddSubtitleTrack(uri string, selectAsDefault bool) {
	p.record("AddSubtitleTrack(%s,%t)", uri, selectAsDefault)
}

func (p *fakePlayer) ClearSubtitleTrack() { p.record("ClearSubtitleTrack") }

func (p *fakePlayer) Play() {
	p.record("Play")
	p.mu.Lock()
	p.playing = true
	l, emit := p.listener, p.playingOnPlay
	p.mu.Unlock()
	if emit && l != nil {
		l.OnDecoderEvent(DecoderEvent{Type: DecoderPlaying})
	}
}

func (p *fakePlayer) Pause() {
	p.record("Pause")
	p.mu.Lock()
	p.playing = false
	p.mu.Unlock()
}

func (p *fakePlayer) Stop() {
	p.record("Stop")
	p.mu.Lock()
	p.playing = false
	p.mu.Unlock()
}

func (p *fakePlayer) IsSeekable() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.seekable
}

func (p *fakePlayer) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

func (p *fakePlayer) Position() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.position
}

func (p *fakePlayer) Time() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.time
}

func (p *fakePlayer) SetPosition(fraction float64) { p.record("SetPosition(%.2f)", fraction) }

func (p *fakePlayer) SetEventListener(l DecoderListener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listener = l
}

func (p *fakePlayer) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.released = true
}

// recordingListener records every outward notification.
type recordingListener struct {
	mu     sync.Mutex
	events []string
}

func (l *recordingListener) add(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, fmt.Sprintf(format, args...))
}

func (l *recordingListener) Events() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.events))
	copy(out, l.events)
	return out
}

func (l *recordingListener) Count(event string) int {
	n := 0
	for _, e := range l.Events() {
		if e == event {
			n++
		}
	}
	return n
}

func (l *recordingListener) OnStart()                     { l.add("start") }
func (l *recordingListener) OnEnded()                     { l.add("ended") }
func (l *recordingListener) OnError()                     { l.add("error") }
func (l *recordingListener) OnBuffering(percent int)      { l.add("buffering %d", percent) }
func (l *recordingListener) OnPosition(pos time.Duration) { l.add("position %s", pos) }

// observingListener also records state changes.
type observingListener struct {
	recordingListener
}

func (l *observingListener) OnStateChanged(from, to State) { l.add("%s->%s", from, to) }
