package mirror

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"ytsubs/api"
	"ytsubs/feed"
	ythttp "ytsubs/http"
	"ytsubs/retry"
)

func testClient() *ythttp.Client {
	return ythttp.New(&ythttp.Config{
		Timeout: 5 * time.Second,
		Retry:   retry.None(),
	})
}

func testInstance(t *testing.T, serverURL string, opts ...Option) *Instance {
	t.Helper()
	opts = append([]Option{WithHTTPClient(testClient())}, opts...)
	inst, err := New([]string{serverURL}, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return inst
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Fatalf("encode response: %v", err)
	}
}

func videoObject(id, title string, published, premiere uint64, length uint32, upcoming bool) map[string]any {
	return map[string]any{
		"author":            "Test Channel",
		"title":             title,
		"videoId":           id,
		"published":         published,
		"lengthSeconds":     length,
		"isUpcoming":        upcoming,
		"premiereTimestamp": premiere,
	}
}

func TestVideosForTheFirstTimeNewShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/videos"):
			writeJSON(t, w, map[string]any{"videos": []any{
				videoObject("vid1", "Regular", 1700000000, 0, 300, false),
				videoObject("vid2", "Premiere", 1700000000, 1800000000, 120, true),
			}})
		case strings.HasSuffix(r.URL.Path, "/shorts"):
			writeJSON(t, w, map[string]any{"videos": []any{
				videoObject("short1", "A Short", 1700000100, 0, 0, true),
			}})
		case strings.HasSuffix(r.URL.Path, "/streams"):
			writeJSON(t, w, map[string]any{"videos": []any{}})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	inst := testInstance(t, server.URL)
	got, err := inst.VideosForTheFirstTime(context.Background(), "UC123")
	if err != nil {
		t.Fatalf("VideosForTheFirstTime: %v", err)
	}

	if got.ChannelTitle != "Test Channel" {
		t.Errorf("channel title = %q, want %q", got.ChannelTitle, "Test Channel")
	}
	if got.ChannelID != "UC123" {
		t.Errorf("channel id = %q, want UC123", got.ChannelID)
	}
	if len(got.Videos) != 3 {
		t.Fatalf("got %d videos, want 3", len(got.Videos))
	}

	// Premieres take the premiere timestamp as publication time.
	if got.Videos[1].Published != 1800000000 {
		t.Errorf("premiere published = %d, want 1800000000", got.Videos[1].Published)
	}
	// Shorts are upcoming with a zero premiere timestamp and keep published;
	// their zero length defaults to a minute.
	short := got.Videos[2]
	if short.Published != 1700000100 {
		t.Errorf("short published = %d, want 1700000100", short.Published)
	}
	if short.Length == nil || *short.Length != 60 {
		t.Errorf("short length = %v, want 60", short.Length)
	}
}

func TestLegacyShapeFallback(t *testing.T) {
	var badRequests, tabRequests atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/shorts") || strings.HasSuffix(r.URL.Path, "/streams") {
			tabRequests.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if strings.Contains(r.URL.Query().Get("fields"), "videos(") {
			badRequests.Add(1)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		writeJSON(t, w, []any{
			videoObject("vid1", "Old Shape", 1700000000, 0, 300, false),
		})
	}))
	defer server.Close()

	inst := testInstance(t, server.URL)
	got, err := inst.VideosForTheFirstTime(context.Background(), "UC123")
	if err != nil {
		t.Fatalf("VideosForTheFirstTime: %v", err)
	}
	if badRequests.Load() != 1 {
		t.Errorf("wrapped-shape attempts = %d, want exactly 1", badRequests.Load())
	}
	if len(got.Videos) != 1 || got.Videos[0].VideoID != "vid1" {
		t.Fatalf("unexpected videos: %+v", got.Videos)
	}
	if got.ChannelTitle != "Test Channel" {
		t.Errorf("channel title = %q, want %q", got.ChannelTitle, "Test Channel")
	}
	// Legacy instances never get shorts or streams requests.
	if tabRequests.Load() != 0 {
		t.Errorf("tab requests = %d, want 0", tabRequests.Load())
	}

	// The detection is sticky: later calls go straight to the legacy fields.
	if _, err := inst.VideosForTheFirstTime(context.Background(), "UC456"); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if badRequests.Load() != 1 {
		t.Errorf("wrapped-shape attempts after second call = %d, want 1", badRequests.Load())
	}
}

func TestLegacyFlagSharedAcrossClones(t *testing.T) {
	inst := testInstance(t, "http://unused.example")
	clone := inst.Clone().(*Instance)

	inst.legacy.Store(true)
	if !clone.legacy.Load() {
		t.Error("legacy detection did not propagate to clone")
	}
}

func TestShorts500DisablesTabsPermanently(t *testing.T) {
	var shortsRequests, streamsRequests, legacyRequests atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/shorts"):
			shortsRequests.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		case strings.HasSuffix(r.URL.Path, "/streams"):
			streamsRequests.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		case strings.Contains(r.URL.Query().Get("fields"), "latestVideos("):
			writeJSON(t, w, map[string]any{"latestVideos": []any{
				videoObject("vid1", "Regular", 1700000000, 0, 300, false),
			}})
		default:
			legacyRequests.Add(1)
			writeJSON(t, w, []any{
				videoObject("vid1", "Regular", 1700000000, 0, 300, false),
			})
		}
	}))
	defer server.Close()

	inst := testInstance(t, server.URL)

	got, err := inst.VideosOfChannel(context.Background(), "UC123")
	if err != nil {
		t.Fatalf("VideosOfChannel: %v", err)
	}
	if len(got.Videos) != 1 {
		t.Fatalf("got %d videos, want 1", len(got.Videos))
	}
	if shortsRequests.Load() != 1 {
		t.Errorf("shorts requests = %d, want exactly 1", shortsRequests.Load())
	}
	if streamsRequests.Load() != 0 {
		t.Errorf("streams requests = %d, want 0", streamsRequests.Load())
	}
	// The 500 switched the session to the bare field set before the retry.
	if legacyRequests.Load() != 1 {
		t.Errorf("legacy-shape requests = %d, want 1", legacyRequests.Load())
	}

	// Later refreshes never touch the shorts or streams endpoints again and
	// stay on the legacy fields.
	if _, err := inst.VideosOfChannel(context.Background(), "UC456"); err != nil {
		t.Fatalf("second refresh: %v", err)
	}
	if shortsRequests.Load() != 1 || streamsRequests.Load() != 0 {
		t.Errorf("tab requests after second refresh = %d/%d, want 1/0",
			shortsRequests.Load(), streamsRequests.Load())
	}
	if legacyRequests.Load() != 2 {
		t.Errorf("legacy-shape requests after second refresh = %d, want 2", legacyRequests.Load())
	}
}

func TestStreams500DisablesTabsPermanently(t *testing.T) {
	var streamsRequests atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/streams"):
			streamsRequests.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		case strings.Contains(r.URL.Query().Get("fields"), "latestVideos("):
			writeJSON(t, w, map[string]any{"latestVideos": []any{
				videoObject("vid1", "Regular", 1700000000, 0, 300, false),
			}})
		default:
			writeJSON(t, w, []any{
				videoObject("vid1", "Regular", 1700000000, 0, 300, false),
			})
		}
	}))
	defer server.Close()

	// With shorts disabled the streams endpoint is the first tab consulted.
	inst := testInstance(t, server.URL, WithTabs(feed.EnabledTabs{Videos: true, Streams: true}))

	for n := 0; n < 2; n++ {
		got, err := inst.VideosOfChannel(context.Background(), "UC123")
		if err != nil {
			t.Fatalf("refresh %d: %v", n+1, err)
		}
		if len(got.Videos) != 1 {
			t.Fatalf("refresh %d: got %d videos, want 1", n+1, len(got.Videos))
		}
	}
	if streamsRequests.Load() > 1 {
		t.Errorf("streams requests across refreshes = %d, want at most 1", streamsRequests.Load())
	}
}

func TestRefreshAfterLegacyDetectionUsesLegacyFields(t *testing.T) {
	var wrappedRefreshes atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fields := r.URL.Query().Get("fields")
		switch {
		case strings.Contains(fields, "videos(") || strings.Contains(fields, "latestVideos("):
			wrappedRefreshes.Add(1)
			w.WriteHeader(http.StatusBadRequest)
		default:
			writeJSON(t, w, []any{
				videoObject("vid1", "Old Shape", 1700000000, 0, 300, false),
			})
		}
	}))
	defer server.Close()

	inst := testInstance(t, server.URL)

	// Subscribe trips the 400 and flips the session to the legacy shape.
	if _, err := inst.VideosForTheFirstTime(context.Background(), "UC123"); err != nil {
		t.Fatalf("VideosForTheFirstTime: %v", err)
	}
	if wrappedRefreshes.Load() != 1 {
		t.Fatalf("wrapped-shape attempts = %d, want 1", wrappedRefreshes.Load())
	}

	// A refresh on the same session speaks the legacy fields straight away.
	got, err := inst.VideosOfChannel(context.Background(), "UC123")
	if err != nil {
		t.Fatalf("VideosOfChannel: %v", err)
	}
	if len(got.Videos) != 1 || got.Videos[0].VideoID != "vid1" {
		t.Fatalf("refresh videos = %+v, want the one legacy entry", got.Videos)
	}
	if wrappedRefreshes.Load() != 1 {
		t.Errorf("wrapped-shape attempts after refresh = %d, want still 1", wrappedRefreshes.Load())
	}
}

func TestVideosOfChannelPropagatesVideosTabError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	inst := testInstance(t, server.URL)
	got, err := inst.VideosOfChannel(context.Background(), "UC123")
	if err == nil {
		t.Fatalf("VideosOfChannel = %+v, want error", got)
	}
	var backendErr *api.BackendError
	if !errors.As(err, &backendErr) || backendErr.Op != "videos of channel" {
		t.Errorf("error = %v, want a wrapped videos-of-channel failure", err)
	}
}

func TestFirstTimeTab500KeepsListing(t *testing.T) {
	var videosRequests, shortsRequests, streamsRequests atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/shorts"):
			shortsRequests.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		case strings.HasSuffix(r.URL.Path, "/streams"):
			streamsRequests.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		default:
			videosRequests.Add(1)
			writeJSON(t, w, map[string]any{"videos": []any{
				videoObject("vid1", "Regular", 1700000000, 0, 300, false),
			}})
		}
	}))
	defer server.Close()

	inst := testInstance(t, server.URL)
	got, err := inst.VideosForTheFirstTime(context.Background(), "UC123")
	if err != nil {
		t.Fatalf("VideosForTheFirstTime: %v", err)
	}
	// The listing the instance already answered is kept, not refetched.
	if len(got.Videos) != 1 {
		t.Errorf("got %d videos, want 1", len(got.Videos))
	}
	if videosRequests.Load() != 1 {
		t.Errorf("videos requests = %d, want 1", videosRequests.Load())
	}
	if shortsRequests.Load() != 1 || streamsRequests.Load() != 0 {
		t.Errorf("tab requests = %d/%d, want 1/0", shortsRequests.Load(), streamsRequests.Load())
	}
	if !inst.legacy.Load() {
		t.Error("session not marked legacy after the tab 500")
	}
}

func TestMoreVideosFollowsContinuations(t *testing.T) {
	pages := map[string]struct {
		videos       []any
		continuation string
	}{
		"": {
			videos:       []any{videoObject("vid1", "Known", 1700000300, 0, 300, false)},
			continuation: "page2",
		},
		"page2": {
			videos:       []any{videoObject("vid2", "Also Known", 1700000200, 0, 300, false)},
			continuation: "page3",
		},
		"page3": {
			videos:       []any{videoObject("vid3", "Fresh", 1700000100, 0, 300, false)},
			continuation: "page4",
		},
	}

	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if fields := r.URL.Query().Get("fields"); !strings.Contains(fields, "continuation") {
			t.Errorf("fields = %q, continuation not requested", fields)
		}
		page, ok := pages[r.URL.Query().Get("continuation")]
		if !ok {
			t.Errorf("unexpected continuation %q", r.URL.Query().Get("continuation"))
			w.WriteHeader(http.StatusNotFound)
			return
		}
		writeJSON(t, w, map[string]any{"videos": page.videos, "continuation": page.continuation})
	}))
	defer server.Close()

	inst := testInstance(t, server.URL)
	present := map[string]bool{"vid1": true, "vid2": true}

	got, err := inst.MoreVideos(context.Background(), "UC123", present)
	if err != nil {
		t.Fatalf("MoreVideos: %v", err)
	}
	// Paging stops on the first page that carries somebody new; everything
	// fetched on the way is kept.
	if len(got.Videos) != 3 || got.Videos[2].VideoID != "vid3" {
		t.Fatalf("videos = %+v, want three ending in vid3", got.Videos)
	}
	if requests.Load() != 3 {
		t.Errorf("page requests = %d, want 3", requests.Load())
	}
}

func TestMoreVideosExhaustedListing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{
			"videos":       []any{videoObject("vid1", "Known", 1700000000, 0, 300, false)},
			"continuation": "",
		})
	}))
	defer server.Close()

	inst := testInstance(t, server.URL)
	got, err := inst.MoreVideos(context.Background(), "UC123", map[string]bool{"vid1": true})
	if err != nil {
		t.Fatalf("MoreVideos: %v", err)
	}
	if got.ChannelID != "UC123" {
		t.Errorf("channel id = %q, want UC123", got.ChannelID)
	}
	if len(got.Videos) != 0 {
		t.Errorf("videos = %+v, want none when nothing new exists", got.Videos)
	}
}

func TestVideosOfChannelAbsentTab(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/shorts") || strings.HasSuffix(r.URL.Path, "/streams") {
			// No key at all: the channel does not expose the tab.
			writeJSON(t, w, map[string]any{})
			return
		}
		writeJSON(t, w, map[string]any{"latestVideos": []any{
			videoObject("vid1", "Regular", 1700000000, 0, 300, false),
		}})
	}))
	defer server.Close()

	inst := testInstance(t, server.URL)
	got, err := inst.VideosOfChannel(context.Background(), "UC123")
	if err != nil {
		t.Fatalf("VideosOfChannel: %v", err)
	}
	if len(got.Videos) != 1 {
		t.Errorf("got %d videos, want 1", len(got.Videos))
	}
}

func TestResolveChannelID(t *testing.T) {
	var resolveCalls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/resolveurl" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		resolveCalls.Add(1)
		writeJSON(t, w, map[string]any{"ucid": "UCXuqSBlHAE6Xw-yeJA0Tunw"})
	}))
	defer server.Close()

	inst := testInstance(t, server.URL)
	ctx := context.Background()

	// Bare id and /channel/ URL resolve without a network call.
	id, err := inst.ResolveChannelID(ctx, "UCXuqSBlHAE6Xw-yeJA0Tunw")
	if err != nil || id != "UCXuqSBlHAE6Xw-yeJA0Tunw" {
		t.Fatalf("bare id = (%q, %v)", id, err)
	}
	id, err = inst.ResolveChannelID(ctx, "https://youtube.com/channel/UCXuqSBlHAE6Xw-yeJA0Tunw")
	if err != nil || id != "UCXuqSBlHAE6Xw-yeJA0Tunw" {
		t.Fatalf("channel url = (%q, %v)", id, err)
	}
	if resolveCalls.Load() != 0 {
		t.Fatalf("resolve calls before handle = %d, want 0", resolveCalls.Load())
	}

	// A handle issues exactly one resolution call.
	id, err = inst.ResolveChannelID(ctx, "@somehandle")
	if err != nil || id != "UCXuqSBlHAE6Xw-yeJA0Tunw" {
		t.Fatalf("handle = (%q, %v)", id, err)
	}
	if resolveCalls.Load() != 1 {
		t.Errorf("resolve calls = %d, want 1", resolveCalls.Load())
	}
}

const atomFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns:yt="http://www.youtube.com/xml/schemas/2015" xmlns="http://www.w3.org/2005/Atom">
  <title>Feed Channel</title>
  <yt:channelId>UC123</yt:channelId>
  <entry>
    <id>yt:video:abc123xyz</id>
    <yt:videoId>abc123xyz</yt:videoId>
    <title>First Video</title>
    <published>2024-01-15T10:00:00+00:00</published>
  </entry>
</feed>`

func TestRSSFeed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/feed/channel/UC123" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/atom+xml")
		if _, err := w.Write([]byte(atomFeed)); err != nil {
			t.Fatal(err)
		}
	}))
	defer server.Close()

	inst := testInstance(t, server.URL)
	got, err := inst.RSSFeed(context.Background(), "UC123")
	if err != nil {
		t.Fatalf("RSSFeed: %v", err)
	}

	if got.ChannelTitle != "Feed Channel" {
		t.Errorf("channel title = %q, want %q", got.ChannelTitle, "Feed Channel")
	}
	if got.ChannelID != "UC123" {
		t.Errorf("channel id = %q, want UC123", got.ChannelID)
	}
	if len(got.Videos) != 1 {
		t.Fatalf("got %d videos, want 1", len(got.Videos))
	}
	video := got.Videos[0]
	if video.VideoID != "abc123xyz" || video.Title != "First Video" {
		t.Errorf("video = %+v", video)
	}
	if video.Published == 0 {
		t.Error("published not parsed")
	}
	if video.Length != nil {
		t.Error("rss entries carry no length")
	}
}

func TestVideoFormats(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/videos/vid1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		writeJSON(t, w, map[string]any{
			"formatStreams": []any{
				map[string]any{"url": "http://s/360", "type": "video/mp4", "qualityLabel": "360p", "fps": 30},
				map[string]any{"url": "http://s/720", "type": "video/mp4", "qualityLabel": "720p", "fps": 30},
			},
			"adaptiveFormats": []any{
				map[string]any{"url": "http://a/1", "type": "audio/webm", "bitrate": "128000", "audioQuality": "AUDIO_QUALITY_MEDIUM",
					"audioTrack": map[string]any{"displayName": "English", "audioIsDefault": true}},
				map[string]any{"url": "http://v/480", "type": "video/mp4", "qualityLabel": "480p", "fps": 30},
				map[string]any{"url": "http://v/1080", "type": "video/mp4", "qualityLabel": "1080p", "fps": 60},
			},
			"captions": []any{
				map[string]any{"label": "English", "language_code": "en", "url": "/api/v1/captions/vid1?lang=en"},
			},
			"description": "0:00 Intro\n1:30 Main",
		})
	}))
	defer server.Close()

	inst := testInstance(t, server.URL)
	info, err := inst.VideoFormats(context.Background(), "vid1")
	if err != nil {
		t.Fatalf("VideoFormats: %v", err)
	}

	// Best quality first after the reversal.
	if len(info.VideoFormats) != 2 || info.VideoFormats[0].Quality() != "1080p" {
		t.Errorf("video formats = %+v", info.VideoFormats)
	}
	if len(info.FormatStreams) != 2 || info.FormatStreams[0].Quality() != "720p" {
		t.Errorf("format streams = %+v", info.FormatStreams)
	}
	if len(info.AudioFormats) != 1 || !info.AudioFormats[0].LanguageDefault {
		t.Errorf("audio formats = %+v", info.AudioFormats)
	}
	if len(info.Captions) != 1 {
		t.Fatalf("captions = %+v", info.Captions)
	}
	if !strings.HasPrefix(info.Captions[0].URL, server.URL) {
		t.Errorf("caption url = %q, want domain-prefixed", info.Captions[0].URL)
	}
	if len(info.Chapters) != 2 || info.Chapters[0].Title != "Intro" {
		t.Errorf("chapters = %+v", info.Chapters)
	}
}

func TestFetchInstances(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []any{
			[]any{"good.example", map[string]any{"type": "https", "api": true, "uri": "https://good.example/"}},
			[]any{"noapi.example", map[string]any{"type": "https", "api": false, "uri": "https://noapi.example"}},
			[]any{"hidden.onion", map[string]any{"type": "onion", "api": true, "uri": "http://hidden.onion"}},
		})
	}))
	defer server.Close()

	client := ythttp.New(&ythttp.Config{Timeout: 5 * time.Second, Retry: retry.None()})
	domains, err := fetchInstancesFrom(context.Background(), client, server.URL)
	if err != nil {
		t.Fatalf("fetchInstancesFrom: %v", err)
	}
	if len(domains) != 1 || domains[0] != "https://good.example" {
		t.Errorf("domains = %v, want [https://good.example]", domains)
	}
}

func TestInstancesFileRoundTrip(t *testing.T) {
	path := t.TempDir() + "/instances"
	want := []string{"https://a.example", "https://b.example"}

	if err := WriteInstancesFile(path, want); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := ReadInstancesFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("round trip = %v, want %v", got, want)
	}
}
