package notification

import "time"

// Type identifies what a Notification reports.
type Type string

// Notification types
const (
	TypeStart     Type = "start"
	TypeEnded     Type = "ended"
	TypeError     Type = "error"
	TypeBuffering Type = "buffering"
	TypePosition  Type = "position"
	TypeState     Type = "state"
)

// Notification is one outward playback event as seen by stream subscribers.
type Notification struct {
	SequenceNo    uint64    `json:"sequence_no"`
	Type          Type      `json:"type"`
	State         string    `json:"state"`
	PreviousState string    `json:"previous_state,omitempty"`
	Percent       int       `json:"percent,omitempty"`
	PositionMs    int64     `json:"position_ms,omitempty"`
	At            time.Time `json:"at"`
}
