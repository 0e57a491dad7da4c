// Package api defines the capability interface both backends implement, so
// the fetch orchestrator stays backend-agnostic.
package api

import (
	"context"
	"errors"
	"fmt"

	"ytsubs/feed"
)

// Sentinel errors shared by backend implementations.
var (
	// ErrUnresolvable indicates a channel input could not be mapped to an id.
	ErrUnresolvable = errors.New("api: could not resolve channel id")
	// ErrNoFormats indicates stream formats are not available for a video.
	ErrNoFormats = errors.New("api: stream formats are not available")
	// ErrNoContinuation indicates no further page is available.
	ErrNoContinuation = errors.New("api: no continuation token")
)

// API is the capability interface of one backend handle. Handles are cheap
// to clone; the orchestrator clones one per concurrent task so that no
// per-task state leaks between fetches, while sticky per-session detection
// flags stay shared across clones of the same handle.
type API interface {
	// ResolveChannelID maps a raw channel id, a /channel/<id> URL, or an
	// @handle to a channel id. Bare ids pass through without a network call.
	ResolveChannelID(ctx context.Context, input string) (string, error)

	// VideosForTheFirstTime fetches every enabled tab on subscribe/import,
	// tolerating tabs the channel does not expose.
	VideosForTheFirstTime(ctx context.Context, channelID string) (*feed.ChannelFeed, error)

	// VideosOfChannel fetches the enabled tabs on manual refresh. It may be
	// cheaper than the first-time path.
	VideosOfChannel(ctx context.Context, channelID string) (*feed.ChannelFeed, error)

	// MoreVideos loads further pages of the channel's videos listing,
	// following continuation tokens until a video whose id is not in
	// present shows up. An exhausted listing yields an empty feed.
	MoreVideos(ctx context.Context, channelID string, present map[string]bool) (*feed.ChannelFeed, error)

	// RSSFeed fetches the provider's public feed for the channel: fewer
	// requests, reduced fields, no shorts/streams distinction.
	RSSFeed(ctx context.Context, channelID string) (*feed.ChannelFeed, error)

	// VideoFormats fetches the playable renditions of one video.
	VideoFormats(ctx context.Context, videoID string) (*feed.VideoInfo, error)

	// Clone returns an independent handle for a concurrent task.
	Clone() API

	// Backend identifies the implementation.
	Backend() feed.Backend
}

// BackendError wraps a failure of one backend operation with enough context
// for a per-task failure report.
type BackendError struct {
	Backend feed.Backend
	Op      string
	Channel string
	Err     error
}

// Error returns a string representation of the backend error.
func (e *BackendError) Error() string {
	if e.Channel != "" {
		return fmt.Sprintf("%s backend: %s %s: %v", e.Backend, e.Op, e.Channel, e.Err)
	}
	return fmt.Sprintf("%s backend: %s: %v", e.Backend, e.Op, e.Err)
}

// Unwrap supports errors.Is and errors.As.
func (e *BackendError) Unwrap() error {
	return e.Err
}
