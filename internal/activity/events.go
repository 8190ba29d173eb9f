// Package activity publishes space activity events to Kafka.
package activity

import "time"

// Space event types
const (
	SpaceCreated  = "SPACE_CREATED"
	JoinRequested = "JOIN_REQUESTED"
	JoinApproved  = "JOIN_APPROVED"
	JoinRejected  = "JOIN_REJECTED"
	MemberLeft    = "MEMBER_LEFT"
	MemberRemoved = "MEMBER_REMOVED"
	ItemShared    = "ITEM_SHARED"
	ItemUnshared  = "ITEM_UNSHARED"
	MessagePosted = "MESSAGE_POSTED"
)

// Event describes something that happened inside a space.
type Event struct {
	EventType    string    `json:"eventType"`
	SpaceID      string    `json:"spaceId"`
	ActorID      string    `json:"actorId"`
	TargetUserID string    `json:"targetUserId,omitempty"`
	Kind         string    `json:"kind,omitempty"`
	RefID        string    `json:"refId,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// NewEvent stamps an event with the current time.
func NewEvent(eventType, spaceID, actorID string) Event {
	return Event{EventType: eventType, SpaceID: spaceID, ActorID: actorID, Timestamp: time.Now().UTC()}
}

// WithTarget sets the user the event acted on.
func (e Event) WithTarget(userID string) Event {
	e.TargetUserID = userID
	return e
}

// WithItem records the shared item the event concerns.
func (e Event) WithItem(kind, refID string) Event {
	e.Kind, e.RefID = kind, refID
	return e
}
