// Package connect provides the Connect RPC control service for the player.
package connect

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/videoview/internal/app/notification"
	"github.com/osa030/videoview/internal/app/playback"
	"github.com/osa030/videoview/internal/domain/media"
)

// PlayerService implements the player control RPCs.
type PlayerService struct {
	controller *playback.Controller
	notifier   *notification.Manager

	done      chan struct{}
	closeOnce sync.Once
}

// NewPlayerService creates a new PlayerService.
func NewPlayerService(controller *playback.Controller, notifier *notification.Manager) *PlayerService {
	return &PlayerService{
		controller: controller,
		notifier:   notifier,
		done:       make(chan struct{}),
	}
}

// Close ends all open Subscribe streams.
func (s *PlayerService) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// Handler returns the service path and its HTTP handler.
func (s *PlayerService) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(PlayerServiceGetStatusProcedure, connect.NewUnaryHandler(PlayerServiceGetStatusProcedure, s.GetStatus, opts...))
	mux.Handle(PlayerServiceStartProcedure, connect.NewUnaryHandler(PlayerServiceStartProcedure, s.Start, opts...))
	mux.Handle(PlayerServicePauseProcedure, connect.NewUnaryHandler(PlayerServicePauseProcedure, s.Pause, opts...))
	mux.Handle(PlayerServiceResumeProcedure, connect.NewUnaryHandler(PlayerServiceResumeProcedure, s.Resume, opts...))
	mux.Handle(PlayerServiceStopProcedure, connect.NewUnaryHandler(PlayerServiceStopProcedure, s.Stop, opts...))
	mux.Handle(PlayerServiceSeekProcedure, connect.NewUnaryHandler(PlayerServiceSeekProcedure, s.Seek, opts...))
	mux.Handle(PlayerServiceSetSubtitleProcedure, connect.NewUnaryHandler(PlayerServiceSetSubtitleProcedure, s.SetSubtitle, opts...))
	mux.Handle(PlayerServiceSetMediaProcedure, connect.NewUnaryHandler(PlayerServiceSetMediaProcedure, s.SetMedia, opts...))
	mux.Handle(PlayerServiceSubscribeProcedure, connect.NewServerStreamHandler(PlayerServiceSubscribeProcedure, s.Subscribe, opts...))
	return "/" + PlayerServiceName + "/", mux
}

// GetStatus returns the current player status.
func (s *PlayerService) GetStatus(
	ctx context.Context,
	req *connect.Request[GetStatusRequest],
) (*connect.Response[Status], error) {
	c := s.controller
	status := &Status{
		State:         c.State().String(),
		Subtitle:      c.Subtitle(),
		DurationMs:    -1,
		BufferPercent: c.BufferPercentage(),
		Playing:       c.IsPlaying(),
		Seekable:      c.CanSeekBackward(),
		Subscribers:   s.notifier.SubscriberCount(),
	}
	if m := c.Media(); m != nil {
		status.MediaID = m.ID
		status.Media = m.Location
	}
	if pos, ok := c.CurrentPosition(); ok {
		status.PositionMs = pos.Milliseconds()
	}
	if d, ok := c.Duration(); ok {
		status.DurationMs = d.Milliseconds()
	}
	return connect.NewResponse(status), nil
}

// Start starts playback of the current media.
func (s *PlayerService) Start(
	ctx context.Context,
	req *connect.Request[CommandRequest],
) (*connect.Response[CommandResponse], error) {
	if !s.controller.Can(playback.EventAskForPlay) {
		return s.rejected("start"), nil
	}
	if err := s.controller.Start(); err != nil {
		return nil, toConnectError(err)
	}
	return s.accepted("Playback requested"), nil
}

// Pause pauses playback.
func (s *PlayerService) Pause(
	ctx context.Context,
	req *connect.Request[CommandRequest],
) (*connect.Response[CommandResponse], error) {
	return s.command("pause", playback.EventPause, s.controller.Pause, "Playback paused"), nil
}

// Resume resumes paused playback.
func (s *PlayerService) Resume(
	ctx context.Context,
	req *connect.Request[CommandRequest],
) (*connect.Response[CommandResponse], error) {
	return s.command("resume", playback.EventResume, s.controller.Resume, "Playback resumed"), nil
}

// Stop stops playback.
func (s *PlayerService) Stop(
	ctx context.Context,
	req *connect.Request[CommandRequest],
) (*connect.Response[CommandResponse], error) {
	return s.command("stop", playback.EventStop, s.controller.StopPlayback, "Playback stopped"), nil
}

// Seek moves playback to the requested position.
func (s *PlayerService) Seek(
	ctx context.Context,
	req *connect.Request[SeekRequest],
) (*connect.Response[CommandResponse], error) {
	if req.Msg.PositionMs < 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("position_ms must not be negative"))
	}
	pos := time.Duration(req.Msg.PositionMs) * time.Millisecond
	if err := s.controller.SeekTo(pos); err != nil {
		return nil, toConnectError(err)
	}
	return s.accepted(fmt.Sprintf("Seeked to %s", pos)), nil
}

// SetSubtitle sets or clears the subtitle track.
func (s *PlayerService) SetSubtitle(
	ctx context.Context,
	req *connect.Request[SetSubtitleRequest],
) (*connect.Response[CommandResponse], error) {
	if req.Msg.Subtitle == "" {
		s.controller.ClearSubtitle()
		return s.accepted("Subtitle cleared"), nil
	}
	uri, err := media.SubtitleLocation(req.Msg.Subtitle)
	if err != nil {
		return nil, toConnectError(err)
	}
	s.controller.SetSubtitle(uri)
	return s.accepted("Subtitle set"), nil
}

// SetMedia replaces the media. With Start set, current playback is stopped
// and the new media is started. A start that the current state cannot honor
// is rejected and leaves the media unchanged.
func (s *PlayerService) SetMedia(
	ctx context.Context,
	req *connect.Request[SetMediaRequest],
) (*connect.Response[CommandResponse], error) {
	m, err := media.Open(req.Msg.Location)
	if err != nil {
		return nil, toConnectError(err)
	}

	// playing or paused restarts through Stop; otherwise AskForPlay must be
	// mapped, or the new media would never reach the backend
	restart := s.controller.Can(playback.EventStop)
	if req.Msg.Start && !restart && !s.controller.Can(playback.EventAskForPlay) {
		return s.rejected("set media"), nil
	}

	s.controller.SetMedia(m)
	zlog.Info().Msgf("connect: media set: id=%s location=%s", m.ID, m.Location)

	if !req.Msg.Start {
		return s.accepted("Media set"), nil
	}
	if restart {
		s.controller.StopPlayback()
	}
	if err := s.controller.Start(); err != nil {
		return nil, toConnectError(err)
	}
	return s.accepted("Media set, playback requested"), nil
}

// Subscribe streams the current state followed by live notifications.
func (s *PlayerService) Subscribe(
	ctx context.Context,
	req *connect.Request[SubscribeRequest],
	stream *connect.ServerStream[Notification],
) error {
	initial := s.notifier.Snapshot()
	initial.SequenceNo = s.notifier.NextSequenceNo()
	if err := stream.Send(initial); err != nil {
		return err
	}

	adapter := &notificationStreamAdapter{stream: stream}
	subscriptionID := s.notifier.Subscribe(adapter)
	defer adapter.close()
	defer s.notifier.Unsubscribe(subscriptionID)

	select {
	case <-ctx.Done():
	case <-s.done:
	}
	return nil
}

func (s *PlayerService) command(name string, kind playback.EventKind, send func(), message string) *connect.Response[CommandResponse] {
	if !s.controller.Can(kind) {
		return s.rejected(name)
	}
	send()
	return s.accepted(message)
}

func (s *PlayerService) accepted(message string) *connect.Response[CommandResponse] {
	return connect.NewResponse(&CommandResponse{
		Success: true,
		Message: message,
		State:   s.controller.State().String(),
	})
}

func (s *PlayerService) rejected(name string) *connect.Response[CommandResponse] {
	state := s.controller.State().String()
	return connect.NewResponse(&CommandResponse{
		Success: false,
		Message: fmt.Sprintf("%s is not available in state %s", name, state),
		State:   state,
	})
}

func toConnectError(err error) error {
	switch {
	case errors.Is(err, playback.ErrNoMedia),
		errors.Is(err, playback.ErrNotAttached),
		errors.Is(err, playback.ErrUnknownDuration):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, media.ErrEmptyLocation),
		errors.Is(err, media.ErrNoScheme):
		return connect.NewError(connect.CodeInvalidArgument, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

var errStreamClosed = errors.New("stream closed")

// notificationStreamAdapter adapts connect.ServerStream to notification.Stream.
// ServerStream is not safe for concurrent sends, and must not be written
// after the handler returns.
type notificationStreamAdapter struct {
	mu     sync.Mutex
	stream *connect.ServerStream[Notification]
	closed bool
}

func (a *notificationStreamAdapter) Send(n *notification.Notification) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return errStreamClosed
	}
	return a.stream.Send(n)
}

func (a *notificationStreamAdapter) close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
}
