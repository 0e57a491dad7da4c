// Package feed holds the value types produced by both backends: channel
// feeds, videos, playable format listings, and description chapters. Values
// are created fresh by every fetch and handed over by copy; nothing in this
// package is mutated in place after it leaves a backend.
package feed

// ChannelTab is one of a channel's independently paginated content surfaces.
// Not every channel exposes all three.
type ChannelTab int

const (
	TabVideos ChannelTab = iota
	TabShorts
	TabStreams
)

// String returns the tab name as it appears in request parameters.
func (t ChannelTab) String() string {
	switch t {
	case TabShorts:
		return "shorts"
	case TabStreams:
		return "streams"
	default:
		return "videos"
	}
}

// EnabledTabs is the process-wide selection of tabs to fetch. A disabled tab
// is not requested at all, not fetched and discarded.
type EnabledTabs struct {
	Videos  bool
	Shorts  bool
	Streams bool
}

// AllTabs enables every tab.
func AllTabs() EnabledTabs {
	return EnabledTabs{Videos: true, Shorts: true, Streams: true}
}

// Enabled reports whether the given tab is selected.
func (e EnabledTabs) Enabled(t ChannelTab) bool {
	switch t {
	case TabShorts:
		return e.Shorts
	case TabStreams:
		return e.Streams
	default:
		return e.Videos
	}
}

// Backend selects which client implementation services a session.
type Backend int

const (
	// BackendLocal replays YouTube's internal browse protocol directly.
	BackendLocal Backend = iota
	// BackendMirror talks to a third-party read-only mirror instance.
	BackendMirror
)

// String returns the backend name for display and configuration.
func (b Backend) String() string {
	if b == BackendMirror {
		return "Mirror"
	}
	return "Local"
}

// Video is one entry of a channel feed.
type Video struct {
	// ChannelName is set when the source response carries it; feeds keyed
	// by channel usually leave it empty.
	ChannelName string

	// VideoID is unique within one channel feed; global uniqueness is not
	// enforced here.
	VideoID string

	Title string

	// Published is epoch seconds.
	Published uint64

	// PublishedText is the human-readable form; it may be empty until
	// computed externally (see RelativeTime).
	PublishedText string

	// Length is the duration in seconds; nil when the source did not carry
	// one (shorts over RSS, for example).
	Length *uint32

	// Watched and New are advisory flags the persistence layer reconciles
	// against stored history. New defaults to true on first fetch.
	Watched bool
	New     bool

	// MembersOnly marks videos restricted to channel members.
	MembersOnly bool
}

// ChannelFeed is the result of one fetch. Video ordering is backend-defined,
// usually reverse-chronological, and not stable across backends.
type ChannelFeed struct {
	// ChannelTitle is empty when the source response did not carry it.
	ChannelTitle string
	// ChannelID is empty only for feeds built from responses that carry no
	// channel identity; callers usually set it from the request.
	ChannelID string
	Videos    []Video
}

// NewChannelFeed returns an empty feed for the given channel.
func NewChannelFeed(channelID string) *ChannelFeed {
	return &ChannelFeed{ChannelID: channelID}
}

// Extend appends videos to the feed.
func (f *ChannelFeed) Extend(videos []Video) {
	f.Videos = append(f.Videos, videos...)
}

// Seconds is a convenience for building optional lengths.
func Seconds(n uint32) *uint32 {
	return &n
}
