package connect

import "github.com/osa030/videoview/internal/app/notification"

// PlayerServiceName is the fully-qualified name of the player service.
const PlayerServiceName = "videoview.v1.PlayerService"

// Procedure paths
const (
	PlayerServiceGetStatusProcedure   = "/" + PlayerServiceName + "/GetStatus"
	PlayerServiceStartProcedure       = "/" + PlayerServiceName + "/Start"
	PlayerServicePauseProcedure       = "/" + PlayerServiceName + "/Pause"
	PlayerServiceResumeProcedure      = "/" + PlayerServiceName + "/Resume"
	PlayerServiceStopProcedure        = "/" + PlayerServiceName + "/Stop"
	PlayerServiceSeekProcedure        = "/" + PlayerServiceName + "/Seek"
	PlayerServiceSetSubtitleProcedure = "/" + PlayerServiceName + "/SetSubtitle"
	PlayerServiceSetMediaProcedure    = "/" + PlayerServiceName + "/SetMedia"
	PlayerServiceSubscribeProcedure   = "/" + PlayerServiceName + "/Subscribe"
)

// GetStatusRequest is the GetStatus request.
type GetStatusRequest struct{}

// Status describes the player.
type Status struct {
	State         string `json:"state"`
	MediaID       string `json:"media_id,omitempty"`
	Media         string `json:"media,omitempty"`
	Subtitle      string `json:"subtitle,omitempty"`
	PositionMs    int64  `json:"position_ms"`
	DurationMs    int64  `json:"duration_ms"` // -1 when unknown
	BufferPercent int    `json:"buffer_percent"`
	Playing       bool   `json:"playing"`
	Seekable      bool   `json:"seekable"`
	Subscribers   int    `json:"subscribers"`
}

// CommandRequest is the request of the parameterless commands.
type CommandRequest struct{}

// CommandResponse reports whether a command was accepted in the current state.
type CommandResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	State   string `json:"state"`
}

// SeekRequest is the Seek request.
type SeekRequest struct {
	PositionMs int64 `json:"position_ms"`
}

// SetSubtitleRequest is the SetSubtitle request. An empty Subtitle clears the track.
type SetSubtitleRequest struct {
	Subtitle string `json:"subtitle"`
}

// SetMediaRequest is the SetMedia request. Location is a path or a URI.
type SetMediaRequest struct {
	Location string `json:"location"`
	Start    bool   `json:"start"`
}

// SubscribeRequest is the Subscribe request.
type SubscribeRequest struct{}

// Notification is the Subscribe stream message.
type Notification = notification.Notification
