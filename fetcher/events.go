package fetcher

import (
	"time"

	"github.com/google/uuid"

	"ytsubs/feed"
)

// RefreshState tracks one managed channel task.
type RefreshState int

const (
	// StateToBeRefreshed marks a channel as in scope for a bulk operation
	// that has not started it yet.
	StateToBeRefreshed RefreshState = iota
	// StateRefreshing means the channel's fetch is in flight.
	StateRefreshing
	// StateCompleted means the fetch succeeded.
	StateCompleted
	// StateFailed means the fetch failed; the batch continues.
	StateFailed
)

// String returns the state name for display.
func (s RefreshState) String() string {
	switch s {
	case StateToBeRefreshed:
		return "to be refreshed"
	case StateRefreshing:
		return "refreshing"
	case StateCompleted:
		return "completed"
	default:
		return "failed"
	}
}

// MessageLevel classifies a transient status message.
type MessageLevel int

const (
	LevelNormal MessageLevel = iota
	LevelWarning
	LevelError
)

// Event is the closed set of messages the fetcher emits for the UI and
// persistence layers. Within one batch, events arrive in completion order
// of the underlying network calls, not submission order; consumers must key
// on channel id.
type Event interface {
	isEvent()
}

// RefreshStateEvent is a per-channel state transition during a refresh.
type RefreshStateEvent struct {
	ChannelID string
	State     RefreshState
}

// ImportStateEvent is a per-channel state transition during an import.
type ImportStateEvent struct {
	ChannelID string
	State     RefreshState
}

// AddChannelEvent delivers a newly subscribed channel's feed.
type AddChannelEvent struct {
	Feed *feed.ChannelFeed
}

// UpdateChannelEvent replaces an existing channel's feed.
type UpdateChannelEvent struct {
	Feed *feed.ChannelFeed
}

// FinalizeImportEvent terminates an import. Success is true only when every
// channel in the batch completed.
type FinalizeImportEvent struct {
	Success bool
}

// MessageSetEvent publishes a transient status message. A non-zero
// ClearAfter means the fetcher will emit a matching MessageClearEvent once
// the duration passes, unless a newer message replaces this one first.
type MessageSetEvent struct {
	ID         uuid.UUID
	Text       string
	Level      MessageLevel
	ClearAfter time.Duration
}

// MessageClearEvent retires the message with the given handle.
type MessageClearEvent struct {
	ID uuid.UUID
}

// InstancesEvent delivers the fetched mirror instance list, or the error
// that prevented fetching it.
type InstancesEvent struct {
	Domains []string
	Err     error
}

// DuplicateCheckEvent asks the external store whether the channel is
// already subscribed. Exactly one reply must be sent on Reply.
type DuplicateCheckEvent struct {
	ChannelID string
	Reply     chan<- bool
}

func (RefreshStateEvent) isEvent()   {}
func (ImportStateEvent) isEvent()    {}
func (AddChannelEvent) isEvent()     {}
func (UpdateChannelEvent) isEvent()  {}
func (FinalizeImportEvent) isEvent() {}
func (MessageSetEvent) isEvent()     {}
func (MessageClearEvent) isEvent()   {}
func (InstancesEvent) isEvent()      {}
func (DuplicateCheckEvent) isEvent() {}
