package playback

import (
	"time"

	"github.com/osa030/videoview/internal/domain/media"
)

// Player is the backend decoder capability driven by the controller.
// Calls must not block; results are reported through the DecoderListener.
type Player interface {
	SetMedia(m *media.Media)
	AddSubtitleTrack(uri string, selectAsDefault bool)
	ClearSubtitleTrack()
	Play()
	Pause()
	Stop()
	IsSeekable() bool
	IsPlaying() bool
	Position() float64 // 0..1
	Time() time.Duration
	SetPosition(fraction float64)

	// SetEventListener registers the receiver of decoder callbacks; nil unregisters.
	SetEventListener(l DecoderListener)
	// Release frees the backend. The player is unusable afterwards.
	Release()
}

// Listener receives playback milestones. Calls are made while an event is
// being dispatched and must return quickly.
type Listener interface {
	OnStart()
	OnEnded()
	OnError()
	OnBuffering(percent int) // 0..100
	OnPosition(pos time.Duration)
}

// StateObserver may be implemented by a Listener to also receive state changes.
type StateObserver interface {
	OnStateChanged(from, to State)
}
