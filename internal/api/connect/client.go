package connect

import (
	"context"
	"time"

	"connectrpc.com/connect"
)

// PlayerClient calls a remote PlayerService.
type PlayerClient struct {
	getStatus   *connect.Client[GetStatusRequest, Status]
	start       *connect.Client[CommandRequest, CommandResponse]
	pause       *connect.Client[CommandRequest, CommandResponse]
	resume      *connect.Client[CommandRequest, CommandResponse]
	stop        *connect.Client[CommandRequest, CommandResponse]
	seek        *connect.Client[SeekRequest, CommandResponse]
	setSubtitle *connect.Client[SetSubtitleRequest, CommandResponse]
	setMedia    *connect.Client[SetMediaRequest, CommandResponse]
	subscribe   *connect.Client[SubscribeRequest, Notification]
}

// NewPlayerClient creates a client for the service at baseURL. A non-empty
// token is sent with every call.
func NewPlayerClient(httpClient connect.HTTPClient, baseURL, token string, opts ...connect.ClientOption) *PlayerClient {
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)
	if token != "" {
		opts = append(opts, connect.WithInterceptors(&tokenInterceptor{token: token}))
	}
	return &PlayerClient{
		getStatus:   connect.NewClient[GetStatusRequest, Status](httpClient, baseURL+PlayerServiceGetStatusProcedure, opts...),
		start:       connect.NewClient[CommandRequest, CommandResponse](httpClient, baseURL+PlayerServiceStartProcedure, opts...),
		pause:       connect.NewClient[CommandRequest, CommandResponse](httpClient, baseURL+PlayerServicePauseProcedure, opts...),
		resume:      connect.NewClient[CommandRequest, CommandResponse](httpClient, baseURL+PlayerServiceResumeProcedure, opts...),
		stop:        connect.NewClient[CommandRequest, CommandResponse](httpClient, baseURL+PlayerServiceStopProcedure, opts...),
		seek:        connect.NewClient[SeekRequest, CommandResponse](httpClient, baseURL+PlayerServiceSeekProcedure, opts...),
		setSubtitle: connect.NewClient[SetSubtitleRequest, CommandResponse](httpClient, baseURL+PlayerServiceSetSubtitleProcedure, opts...),
		setMedia:    connect.NewClient[SetMediaRequest, CommandResponse](httpClient, baseURL+PlayerServiceSetMediaProcedure, opts...),
		subscribe:   connect.NewClient[SubscribeRequest, Notification](httpClient, baseURL+PlayerServiceSubscribeProcedure, opts...),
	}
}

// GetStatus returns the player status.
func (c *PlayerClient) GetStatus(ctx context.Context) (*Status, error) {
	resp, err := c.getStatus.CallUnary(ctx, connect.NewRequest(&GetStatusRequest{}))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

// Start requests playback.
func (c *PlayerClient) Start(ctx context.Context) (*CommandResponse, error) {
	return callCommand(ctx, c.start)
}

// Pause pauses playback.
func (c *PlayerClient) Pause(ctx context.Context) (*CommandResponse, error) {
	return callCommand(ctx, c.pause)
}

// Resume resumes playback.
func (c *PlayerClient) Resume(ctx context.Context) (*CommandResponse, error) {
	return callCommand(ctx, c.resume)
}

// Stop stops playback.
func (c *PlayerClient) Stop(ctx context.Context) (*CommandResponse, error) {
	return callCommand(ctx, c.stop)
}

// Seek moves playback to pos.
func (c *PlayerClient) Seek(ctx context.Context, pos time.Duration) (*CommandResponse, error) {
	resp, err := c.seek.CallUnary(ctx, connect.NewRequest(&SeekRequest{PositionMs: pos.Milliseconds()}))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

// SetSubtitle sets the subtitle path or URI; empty clears it.
func (c *PlayerClient) SetSubtitle(ctx context.Context, subtitle string) (*CommandResponse, error) {
	resp, err := c.setSubtitle.CallUnary(ctx, connect.NewRequest(&SetSubtitleRequest{Subtitle: subtitle}))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

// SetMedia replaces the media, optionally starting it.
func (c *PlayerClient) SetMedia(ctx context.Context, location string, start bool) (*CommandResponse, error) {
	resp, err := c.setMedia.CallUnary(ctx, connect.NewRequest(&SetMediaRequest{Location: location, Start: start}))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

// Subscribe calls fn for every notification until ctx is done, the server
// closes the stream or fn returns an error.
func (c *PlayerClient) Subscribe(ctx context.Context, fn func(*Notification) error) error {
	stream, err := c.subscribe.CallServerStream(ctx, connect.NewRequest(&SubscribeRequest{}))
	if err != nil {
		return err
	}
	defer stream.Close()

	for stream.Receive() {
		if err := fn(stream.Msg()); err != nil {
			return err
		}
	}
	if err := stream.Err(); err != nil && connect.CodeOf(err) != connect.CodeCanceled {
		return err
	}
	return nil
}

func callCommand(ctx context.Context, client *connect.Client[CommandRequest, CommandResponse]) (*CommandResponse, error) {
	resp, err := client.CallUnary(ctx, connect.NewRequest(&CommandRequest{}))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}
