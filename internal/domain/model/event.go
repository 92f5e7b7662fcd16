package model

import (
	"errors"
	"time"
)

// Window is a half-open time range [Start, End) over the entropy event stream.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Validate checks that the window is well-formed and non-empty.
func (w Window) Validate() error {
	if w.Start.IsZero() || w.End.IsZero() {
		return errors.New("window start and end are required")
	}
	if !w.End.After(w.Start) {
		return errors.New("window end must be after window start")
	}
	return nil
}

// Duration returns the length of the window.
func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// Contains reports whether t falls inside the half-open window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// EventCursor identifies a position in the stream's reception order. Events
// are ordered by reception time, then sequence number, so cursors stay unique
// even when a gateway flush stamps many events with one timestamp.
type EventCursor struct {
	ReceivedAt time.Time `json:"received_at"`
	Sequence   int64     `json:"sequence"`
}

// Before reports whether c precedes o in reception order.
func (c EventCursor) Before(o EventCursor) bool {
	if c.ReceivedAt.Equal(o.ReceivedAt) {
		return c.Sequence < o.Sequence
	}
	return c.ReceivedAt.Before(o.ReceivedAt)
}

// EntropyEvent is a single hardware-decay event as written by the sensor
// gateway. This service only ever reads these rows.
type EntropyEvent struct {
	ID               string    `json:"id"                         db:"id"`
	Sequence         int64     `json:"sequence"                   db:"sequence"`
	Channel          string    `json:"channel"                    db:"channel"`
	HwTimestampNs    int64     `json:"hw_timestamp_ns"            db:"hw_timestamp_ns"`
	ServerReceivedAt time.Time `json:"server_received_at"         db:"server_received_at"`
	NetworkDelayMs   *float64  `json:"network_delay_ms,omitempty" db:"network_delay_ms"`
}
