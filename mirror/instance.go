// Package mirror implements the backend that talks to one randomly chosen
// instance of a third-party read-only mirror service over REST and RSS.
//
// Instances differ in age: newer ones wrap channel video listings in an
// object, older ones return a bare array and answer 500 on the shorts and
// streams endpoints. Detection is lazy and sticky; once an instance is seen
// to speak the legacy shape the whole session keeps treating it that way.
package mirror

import (
	"context"
	"errors"
	"math/rand"
	nethttp "net/http"
	"net/url"
	"sync/atomic"

	"github.com/mmcdole/gofeed"

	"ytsubs/api"
	"ytsubs/feed"
	ythttp "ytsubs/http"
)

const videoFields = "title,videoId,published,lengthSeconds,isUpcoming,premiereTimestamp"

// Instance is one backend handle bound to a single mirror domain. Clones
// share the legacy-shape flag; the continuation token is copied so each
// task paginates independently.
type Instance struct {
	domain   string
	client   *ythttp.Client
	tabs     feed.EnabledTabs
	chapters bool

	continuation string
	legacy       *atomic.Bool
}

// Option configures an Instance.
type Option func(*Instance)

// WithTabs selects which channel tabs are fetched.
func WithTabs(tabs feed.EnabledTabs) Option {
	return func(i *Instance) { i.tabs = tabs }
}

// WithChapters controls description-chapter parsing during format fetches.
func WithChapters(enabled bool) Option {
	return func(i *Instance) { i.chapters = enabled }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *ythttp.Client) Option {
	return func(i *Instance) { i.client = client }
}

// New picks a random domain from the known instance list and returns a
// handle bound to it for the rest of the session.
func New(domains []string, opts ...Option) (*Instance, error) {
	if len(domains) == 0 {
		return nil, errors.New("mirror: no instance available")
	}

	inst := &Instance{
		domain:   domains[rand.Intn(len(domains))],
		tabs:     feed.AllTabs(),
		chapters: true,
		legacy:   new(atomic.Bool),
	}
	for _, opt := range opts {
		opt(inst)
	}
	if inst.client == nil {
		inst.client = ythttp.New(nil)
	}
	return inst, nil
}

// Domain returns the instance domain this handle is bound to.
func (i *Instance) Domain() string {
	return i.domain
}

// Clone returns an independent handle for a concurrent task. The legacy
// flag stays shared so detection made by one task holds for all of them.
func (i *Instance) Clone() api.API {
	clone := *i
	return &clone
}

// Backend identifies the implementation.
func (i *Instance) Backend() feed.Backend {
	return feed.BackendMirror
}

func (i *Instance) wrap(op, channel string, err error) error {
	return &api.BackendError{Backend: feed.BackendMirror, Op: op, Channel: channel, Err: err}
}

type videoJSON struct {
	Author            string `json:"author"`
	Title             string `json:"title"`
	VideoID           string `json:"videoId"`
	Published         uint64 `json:"published"`
	LengthSeconds     uint32 `json:"lengthSeconds"`
	IsUpcoming        bool   `json:"isUpcoming"`
	PremiereTimestamp uint64 `json:"premiereTimestamp"`
}

func (v videoJSON) toVideo() feed.Video {
	published := v.Published

	// Upcoming entries carry the release time in premiereTimestamp. Shorts
	// are also reported as upcoming but with a zero premiere timestamp;
	// those keep the published key.
	if v.IsUpcoming && v.PremiereTimestamp != 0 {
		published = v.PremiereTimestamp
	}

	// Some instances report shorts with a zero length.
	length := v.LengthSeconds
	if length == 0 {
		length = 60
	}

	return feed.Video{
		VideoID:   v.VideoID,
		Title:     v.Title,
		Published: published,
		Length:    feed.Seconds(length),
		New:       true,
	}
}

// tabOfChannel fetches one tab's listing. A response without the expected
// key means the channel does not expose the tab; that is not an error. Once
// the instance is known to be legacy the Videos tab switches to the bare
// field set and array shape the old API speaks.
func (i *Instance) tabOfChannel(ctx context.Context, channelID string, tab feed.ChannelTab) ([]feed.Video, error) {
	if tab == feed.TabVideos && i.legacy.Load() {
		return i.legacyVideosTab(ctx, channelID)
	}

	endpoint := i.domain + "/api/v1/channels/" + channelID
	key := "videos"
	if tab == feed.TabVideos {
		key = "latestVideos"
	} else {
		endpoint += "/" + tab.String()
	}

	resp, err := i.client.GetQuery(ctx, endpoint, url.Values{
		"fields": {key + "(" + videoFields + ")"},
	})
	if err != nil {
		return nil, err
	}

	var body struct {
		LatestVideos []videoJSON `json:"latestVideos"`
		Videos       []videoJSON `json:"videos"`
	}
	if err := resp.JSON(&body); err != nil {
		return nil, err
	}

	list := body.Videos
	if tab == feed.TabVideos {
		list = body.LatestVideos
	}
	if len(list) == 0 || list[0].VideoID == "" {
		return nil, nil
	}

	videos := make([]feed.Video, len(list))
	for n, v := range list {
		videos[n] = v.toVideo()
	}
	return videos, nil
}

// legacyVideosTab queries the videos listing with the unwrapped field set and
// parses the top-level array old instances answer with.
func (i *Instance) legacyVideosTab(ctx context.Context, channelID string) ([]feed.Video, error) {
	endpoint := i.domain + "/api/v1/channels/" + channelID + "/videos"
	resp, err := i.client.GetQuery(ctx, endpoint, url.Values{"fields": {videoFields}})
	if err != nil {
		return nil, err
	}

	var list []videoJSON
	if err := resp.JSON(&list); err != nil {
		return nil, err
	}

	videos := make([]feed.Video, len(list))
	for n, v := range list {
		videos[n] = v.toVideo()
	}
	return videos, nil
}

// VideosForTheFirstTime fetches the full listing used on subscribe and
// import. The first call on a legacy instance answers 400 to the wrapped
// field set; that switches the session to the legacy fields and the call is
// retried exactly once.
func (i *Instance) VideosForTheFirstTime(ctx context.Context, channelID string) (*feed.ChannelFeed, error) {
	legacy := i.legacy.Load()

	fields := "videos(author," + videoFields + ")"
	if legacy {
		fields = "author," + videoFields
	}

	endpoint := i.domain + "/api/v1/channels/" + channelID + "/videos"
	resp, err := i.client.GetQuery(ctx, endpoint, url.Values{"fields": {fields}})
	if err != nil {
		if !legacy && ythttp.StatusCode(err) == nethttp.StatusBadRequest {
			i.legacy.Store(true)
			return i.VideosForTheFirstTime(ctx, channelID)
		}
		return nil, i.wrap("first videos", channelID, err)
	}

	var list []videoJSON
	if legacy {
		err = resp.JSON(&list)
	} else {
		var body struct {
			Videos []videoJSON `json:"videos"`
		}
		err = resp.JSON(&body)
		list = body.Videos
	}
	if err != nil {
		return nil, i.wrap("first videos", channelID, err)
	}

	channelFeed := feed.NewChannelFeed(channelID)
	if len(list) > 0 {
		channelFeed.ChannelTitle = list[0].Author
		for _, v := range list {
			channelFeed.Videos = append(channelFeed.Videos, v.toVideo())
		}
	}

	// Legacy instances have no shorts or streams endpoints to consult; the
	// videos listing is all there is.
	if legacy {
		return channelFeed, nil
	}

	if !i.tabs.Videos {
		// The listing above was still needed to learn the channel title.
		channelFeed.Videos = channelFeed.Videos[:0]
	}

	for _, tab := range []feed.ChannelTab{feed.TabShorts, feed.TabStreams} {
		if !i.tabs.Enabled(tab) {
			continue
		}
		videos, err := i.tabOfChannel(ctx, channelID, tab)
		switch {
		case err == nil:
			channelFeed.Extend(videos)
		case ythttp.StatusCode(err) == nethttp.StatusInternalServerError:
			// The main listing already came back in the shape the instance
			// accepts; only the tab endpoints are missing. Mark the session
			// legacy so they are never requested again.
			i.legacy.Store(true)
			return channelFeed, nil
		default:
			return nil, i.wrap("first videos", channelID, err)
		}
	}

	return channelFeed, nil
}

// VideosOfChannel fetches the enabled tabs on manual refresh. Once the
// instance is known legacy, the videos listing uses the legacy field set and
// shorts/streams are skipped. A 500 on the shorts or streams endpoint marks
// the instance legacy and the refresh is retried once on the legacy path.
func (i *Instance) VideosOfChannel(ctx context.Context, channelID string) (*feed.ChannelFeed, error) {
	channelFeed := feed.NewChannelFeed(channelID)

	if i.tabs.Videos {
		videos, err := i.tabOfChannel(ctx, channelID, feed.TabVideos)
		if err != nil {
			return nil, i.wrap("videos of channel", channelID, err)
		}
		channelFeed.Extend(videos)
	}

	if i.legacy.Load() {
		return channelFeed, nil
	}

	for _, tab := range []feed.ChannelTab{feed.TabShorts, feed.TabStreams} {
		if !i.tabs.Enabled(tab) {
			continue
		}
		videos, err := i.tabOfChannel(ctx, channelID, tab)
		switch {
		case err == nil:
			channelFeed.Extend(videos)
		case ythttp.StatusCode(err) == nethttp.StatusInternalServerError:
			i.legacy.Store(true)
			return i.VideosOfChannel(ctx, channelID)
		default:
			return nil, i.wrap("videos of channel", channelID, err)
		}
	}

	return channelFeed, nil
}

// morePage fetches one page of the videos listing and advances the cached
// continuation token. An empty continuation in the response means the
// listing is exhausted.
func (i *Instance) morePage(ctx context.Context, channelID string) ([]feed.Video, error) {
	endpoint := i.domain + "/api/v1/channels/" + channelID + "/videos"
	query := url.Values{"fields": {"videos(" + videoFields + "),continuation"}}
	if i.continuation != "" {
		query.Set("continuation", i.continuation)
	}

	resp, err := i.client.GetQuery(ctx, endpoint, query)
	if err != nil {
		return nil, err
	}

	var body struct {
		Videos       []videoJSON `json:"videos"`
		Continuation string      `json:"continuation"`
	}
	if err := resp.JSON(&body); err != nil {
		return nil, err
	}
	i.continuation = body.Continuation

	videos := make([]feed.Video, len(body.Videos))
	for n, v := range body.Videos {
		videos[n] = v.toVideo()
	}
	return videos, nil
}

// MoreVideos pages through the videos listing until it reaches a video not
// already present, accumulating everything fetched along the way. Exhausting
// the listing without finding anything new yields an empty feed.
func (i *Instance) MoreVideos(ctx context.Context, channelID string, present map[string]bool) (*feed.ChannelFeed, error) {
	channelFeed := feed.NewChannelFeed(channelID)

	videos, err := i.morePage(ctx, channelID)
	if err != nil {
		return nil, i.wrap("more videos", channelID, err)
	}
	channelFeed.Extend(videos)

	if anyNewVideo(videos, present) {
		return channelFeed, nil
	}

	for i.continuation != "" {
		videos, err := i.morePage(ctx, channelID)
		if err != nil {
			break
		}
		channelFeed.Extend(videos)
		if anyNewVideo(videos, present) {
			return channelFeed, nil
		}
	}

	channelFeed.Videos = channelFeed.Videos[:0]
	return channelFeed, nil
}

func anyNewVideo(videos []feed.Video, present map[string]bool) bool {
	for _, v := range videos {
		if !present[v.VideoID] {
			return true
		}
	}
	return false
}

// ResolveChannelID maps ids, channel URLs, and handles to a channel id.
// Only inputs that cannot be parsed locally hit the resolveurl endpoint.
func (i *Instance) ResolveChannelID(ctx context.Context, input string) (string, error) {
	if id, ok := api.ParseChannelInput(input); ok {
		return id, nil
	}

	resp, err := i.client.GetQuery(ctx, i.domain+"/api/v1/resolveurl", url.Values{
		"url": {input},
	})
	if err != nil {
		return "", i.wrap("resolve url", input, err)
	}

	var body struct {
		UCID string `json:"ucid"`
	}
	if err := resp.JSON(&body); err != nil {
		return "", i.wrap("resolve url", input, err)
	}
	if body.UCID == "" {
		return "", i.wrap("resolve url", input, api.ErrUnresolvable)
	}
	return body.UCID, nil
}

// RSSFeed fetches the instance's Atom feed for the channel.
func (i *Instance) RSSFeed(ctx context.Context, channelID string) (*feed.ChannelFeed, error) {
	resp, err := i.client.Get(ctx, i.domain+"/feed/channel/"+channelID)
	if err != nil {
		return nil, i.wrap("rss feed", channelID, err)
	}

	parsed, err := gofeed.NewParser().ParseString(string(resp.Body))
	if err != nil {
		return nil, i.wrap("rss feed", channelID, err)
	}

	channelFeed := feed.FromRSS(parsed)
	if channelFeed.ChannelID == "" {
		channelFeed.ChannelID = channelID
	}
	return channelFeed, nil
}
