package notification

import (
	"time"

	"github.com/osa030/videoview/internal/app/playback"
	"github.com/osa030/videoview/internal/domain/media"
)

type nopPlayer struct{}

func (nopPlayer) SetMedia(*media.Media)                     {}
func (nopPlayer) AddSubtitleTrack(string, bool)             {}
func (nopPlayer) ClearSubtitleTrack()                       {}
func (nopPlayer) Play()                                     {}
func (nopPlayer) Pause()                                    {}
func (nopPlayer) Stop()                                     {}
func (nopPlayer) IsSeekable() bool                          { return false }
func (nopPlayer) IsPlaying() bool                           { return false }
func (nopPlayer) Position() float64                         { return 0 }
func (nopPlayer) Time() time.Duration                       { return 0 }
func (nopPlayer) SetPosition(float64)                       {}
func (nopPlayer) SetEventListener(playback.DecoderListener) {}
func (nopPlayer) Release()                                  {}
