package playback

import (
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/videoview/internal/fsm"
)

func newState(id State) *fsm.State[State, EventKind] {
	return fsm.NewState[State, EventKind](id)
}

// states builds the playback lifecycle table. StateWaitingAttach is initial.
func (c *Controller) states() []*fsm.State[State, EventKind] {
	waitingAttach := newState(StateWaitingAttach).
		Transition(EventAttach, StateAttached, nil).
		Transition(EventAskForPlay, StateWaitingAttachPlay, nil)

	waitingAttachPlay := newState(StateWaitingAttachPlay).
		Transition(EventAttach, StateBuffering, nil)

	attached := newState(StateAttached).
		Transition(EventAskForPlay, StateBuffering, nil)

	buffering := newState(StateBuffering).
		WithEntry(c.beginPlayback).
		On(EventBuffering, c.forwardBuffering).
		On(EventSetSubtitle, c.applySubtitle).
		Transition(EventPlay, StatePlaying, c.notifyStart).
		Transition(EventPause, StatePaused, nil).
		Transition(EventError, StateAttached, c.notifyError)

	playing := newState(StatePlaying).
		Transition(EventEnd, StateAttached, c.notifyEnded).
		Transition(EventStop, StateAttached, c.stopBackend).
		On(EventPosition, c.forwardPosition).
		Transition(EventPause, StatePaused, nil).
		On(EventSetSubtitle, c.applySubtitle).
		Transition(EventError, StateAttached, c.notifyError)

	paused := newState(StatePaused).
		WithEntry(c.pauseBackend).
		Transition(EventEnd, StateAttached, nil).
		Transition(EventStop, StateAttached, c.stopBackend).
		On(EventSetSubtitle, c.applySubtitle).
		Transition(EventResume, StatePlaying, c.resumeBackend)

	return []*fsm.State[State, EventKind]{
		waitingAttach, waitingAttachPlay, attached, buffering, playing, paused,
	}
}

// beginPlayback is the Buffering entry action.
func (c *Controller) beginPlayback() {
	p, m, subtitle := c.snapshot()
	if p == nil {
		c.warnDetached("begin playback")
		return
	}
	if m == nil {
		zlog.Warn().Msg("playback: buffering entered without media")
		return
	}
	zlog.Debug().Msgf("playback: submitting media: id=%s location=%s subtitle=%q", m.ID, m.Location, subtitle)
	p.SetMedia(m)
	submitSubtitle(p, subtitle)
	p.Play()
}

// pauseBackend is the Paused entry action.
func (c *Controller) pauseBackend() {
	p, _, _ := c.snapshot()
	if p == nil {
		c.warnDetached("pause")
		return
	}
	p.Pause()
}

func (c *Controller) applySubtitle([]any) {
	p, _, subtitle := c.snapshot()
	if p == nil {
		c.warnDetached("set subtitle")
		return
	}
	submitSubtitle(p, subtitle)
}

func (c *Controller) stopBackend([]any) {
	p, _, _ := c.snapshot()
	if p == nil {
		c.warnDetached("stop")
		return
	}
	p.Stop()
}

func (c *Controller) resumeBackend([]any) {
	p, _, _ := c.snapshot()
	if p == nil {
		c.warnDetached("resume")
		return
	}
	p.Play()
}

func (c *Controller) forwardBuffering(payload []any) {
	l := c.currentListener()
	if l == nil || len(payload) == 0 {
		return
	}
	if percent, ok := payload[0].(int); ok {
		l.OnBuffering(percent)
	}
}

func (c *Controller) forwardPosition(payload []any) {
	l := c.currentListener()
	if l == nil || len(payload) == 0 {
		return
	}
	if pos, ok := payload[0].(time.Duration); ok {
		l.OnPosition(pos)
	}
}

func (c *Controller) notifyStart([]any) {
	if l := c.currentListener(); l != nil {
		l.OnStart()
	}
}

func (c *Controller) notifyEnded([]any) {
	if l := c.currentListener(); l != nil {
		l.OnEnded()
	}
}

func (c *Controller) notifyError([]any) {
	if l := c.currentListener(); l != nil {
		l.OnError()
	}
}

func submitSubtitle(p Player, subtitle string) {
	if subtitle != "" {
		p.AddSubtitleTrack(subtitle, true)
	} else {
		p.ClearSubtitleTrack()
	}
}
