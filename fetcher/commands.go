package fetcher

import (
	"time"

	"github.com/google/uuid"
)

// Command is the closed set of intents the UI sends to the fetcher.
type Command interface {
	isCommand()
}

// SubscribeCommand subscribes to one channel given a raw id, URL, or handle.
type SubscribeCommand struct {
	Input string
}

// ImportCommand subscribes to many channels at once.
type ImportCommand struct {
	ChannelIDs []string
}

// RefreshCommand refreshes one or many already subscribed channels.
type RefreshCommand struct {
	ChannelIDs []string
}

// LoadMoreCommand pages deeper into one channel's videos listing.
// PresentVideoIDs lists the video ids the consumer already holds, so the
// fetcher keeps following continuations until something new appears.
type LoadMoreCommand struct {
	ChannelID       string
	PresentVideoIDs []string
}

// FetchInstancesCommand refreshes the list of known mirror instances.
type FetchInstancesCommand struct{}

// ClearMessageCommand schedules the message with the given handle to be
// cleared after the duration, unless a newer message replaces it first.
type ClearMessageCommand struct {
	ID    uuid.UUID
	After time.Duration
}

func (SubscribeCommand) isCommand()      {}
func (ImportCommand) isCommand()         {}
func (RefreshCommand) isCommand()        {}
func (LoadMoreCommand) isCommand()       {}
func (FetchInstancesCommand) isCommand() {}
func (ClearMessageCommand) isCommand()   {}
