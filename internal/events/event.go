// Package events announces friend relationship transitions to downstream
// consumers such as notification or recommendation services.
package events

import (
	"context"
	"time"
)

// Type names a friend relationship transition.
type Type string

const (
	TypeRequestSent     Type = "friend_request.sent"
	TypeRequestAccepted Type = "friend_request.accepted"
	TypeRequestRejected Type = "friend_request.rejected"
)

// Event records a transition between the requester (From) and the receiver (To).
type Event struct {
	Type       Type      `json:"type"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Publisher delivers events to their destination.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// PairKey identifies the unordered pair involved in the event so every
// transition for the same two users shares a partition.
func (e Event) PairKey() string {
	if e.To < e.From {
		return e.To + ":" + e.From
	}
	return e.From + ":" + e.To
}
