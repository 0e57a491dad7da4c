// Package fetcher drives many channel fetches concurrently: it consumes
// UI intents from a command channel, fans work out with bounded parallelism
// over cloned backend handles, and emits typed progress and result events.
package fetcher

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"ytsubs/api"
	"ytsubs/feed"
	ythttp "ytsubs/http"
	"ytsubs/mirror"
)

// Fetcher is the long-lived fetch orchestrator. One event loop consumes
// commands; every intent that needs network I/O runs as its own goroutine
// so the loop never blocks on latency.
type Fetcher struct {
	backend api.API

	rssThreshold int
	parallelism  int

	commands chan Command
	events   chan Event

	httpClient *ythttp.Client
	msg        messenger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithRSSThreshold sets the batch size above which import and refresh use
// the cheap RSS path per channel.
func WithRSSThreshold(n int) Option {
	return func(f *Fetcher) { f.rssThreshold = n }
}

// WithParallelism bounds the number of in-flight fetches per batch.
func WithParallelism(n int) Option {
	return func(f *Fetcher) { f.parallelism = n }
}

// WithHTTPClient sets the client used for instance-list fetches.
func WithHTTPClient(client *ythttp.Client) Option {
	return func(f *Fetcher) { f.httpClient = client }
}

// New creates a fetcher bound to one backend handle for the session.
func New(backend api.API, opts ...Option) *Fetcher {
	f := &Fetcher{
		backend:      backend,
		rssThreshold: 10,
		parallelism:  runtime.NumCPU(),
		commands:     make(chan Command, 16),
		events:       make(chan Event, 64),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.parallelism < 1 {
		f.parallelism = 1
	}
	return f
}

// Commands is the inbound intent channel.
func (f *Fetcher) Commands() chan<- Command {
	return f.commands
}

// Events is the outbound event channel. It is never closed; consumers stop
// reading when their context ends.
func (f *Fetcher) Events() <-chan Event {
	return f.events
}

// Run consumes commands until the context ends. In-flight batches run to
// completion or timeout even after a new, unrelated command arrives.
func (f *Fetcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-f.commands:
			switch c := cmd.(type) {
			case SubscribeCommand:
				go f.subscribe(ctx, c.Input)
			case ImportCommand:
				go f.importChannels(ctx, c.ChannelIDs)
			case RefreshCommand:
				go f.refreshChannels(ctx, c.ChannelIDs)
			case LoadMoreCommand:
				go f.loadMoreVideos(ctx, c.ChannelID, c.PresentVideoIDs)
			case FetchInstancesCommand:
				go f.fetchInstances(ctx)
			case ClearMessageCommand:
				go func() {
					timer := time.NewTimer(c.After)
					defer timer.Stop()
					select {
					case <-ctx.Done():
					case <-timer.C:
						f.clearIfCurrent(c.ID)
					}
				}()
			}
		}
	}
}

func (f *Fetcher) emit(e Event) {
	f.events <- e
}

// subscribe resolves the input, round-trips a duplicate check against the
// external store, and fetches the channel's first feed.
func (f *Fetcher) subscribe(ctx context.Context, input string) {
	backend := f.backend.Clone()

	channelID, err := backend.ResolveChannelID(ctx, input)
	if err != nil {
		f.setMessage(fmt.Sprintf("Failed to subscribe: %v", err), LevelError, defaultClearAfter)
		return
	}

	reply := make(chan bool, 1)
	f.emit(DuplicateCheckEvent{ChannelID: channelID, Reply: reply})

	select {
	case duplicate := <-reply:
		if duplicate {
			f.setMessage("Already subscribed to the channel", LevelWarning, defaultClearAfter)
			return
		}
	case <-ctx.Done():
		return
	}

	f.setMessage("Subscribing to channel", LevelNormal, 0)

	channelFeed, err := backend.VideosForTheFirstTime(ctx, channelID)
	if err != nil {
		f.setMessage(fmt.Sprintf("Failed to subscribe: %v", err), LevelError, defaultClearAfter)
		return
	}

	f.clearMessage()
	f.emit(AddChannelEvent{Feed: channelFeed})
}

type fetchResult struct {
	channelID string
	feed      *feed.ChannelFeed
	err       error
}

// fanOut runs one fetch per channel with bounded parallelism and streams
// results in completion order. Large batches take the RSS path. started is
// called as each task gets a slot, before its first network call.
func (f *Fetcher) fanOut(ctx context.Context, channelIDs []string, firstTime bool, started func(channelID string)) <-chan fetchResult {
	total := len(channelIDs)
	results := make(chan fetchResult)

	go func() {
		defer close(results)

		var g errgroup.Group
		g.SetLimit(f.parallelism)

		for _, channelID := range channelIDs {
			channelID := channelID
			g.Go(func() error {
				started(channelID)
				backend := f.backend.Clone()

				var channelFeed *feed.ChannelFeed
				var err error
				switch {
				case total > f.rssThreshold:
					channelFeed, err = backend.RSSFeed(ctx, channelID)
				case firstTime:
					channelFeed, err = backend.VideosForTheFirstTime(ctx, channelID)
				default:
					channelFeed, err = backend.VideosOfChannel(ctx, channelID)
				}

				results <- fetchResult{channelID: channelID, feed: channelFeed, err: err}
				return nil
			})
		}

		g.Wait()
	}()

	return results
}

// importChannels subscribes to a batch. Every channel ends in exactly one
// terminal transition; a failed channel never aborts its siblings.
func (f *Fetcher) importChannels(ctx context.Context, channelIDs []string) {
	start := time.Now()
	count, total := 0, len(channelIDs)

	f.setMessage(fmt.Sprintf("Subscribing to channels: %d/%d", count, total), LevelNormal, 0)
	for _, channelID := range channelIDs {
		f.emit(ImportStateEvent{ChannelID: channelID, State: StateToBeRefreshed})
	}

	started := func(channelID string) {
		f.emit(ImportStateEvent{ChannelID: channelID, State: StateRefreshing})
	}
	for res := range f.fanOut(ctx, channelIDs, true, started) {
		if res.err != nil {
			log.Printf("ytsubs: import failed for %s: %v", res.channelID, res.err)
			f.emit(ImportStateEvent{ChannelID: res.channelID, State: StateFailed})
			continue
		}
		count++
		f.emit(ImportStateEvent{ChannelID: res.channelID, State: StateCompleted})
		f.emit(AddChannelEvent{Feed: res.feed})
		f.setMessage(fmt.Sprintf("Subscribing to channels: %d/%d", count, total), LevelNormal, 0)
	}

	elapsed := time.Since(start).Seconds()
	if count == 0 {
		f.setMessage("Failed to import channels", LevelError, defaultClearAfter)
	} else {
		f.setMessage(fmt.Sprintf("Subscribed to %d out of %d channels in %.2fs", count, total, elapsed),
			LevelNormal, defaultClearAfter)
	}

	f.emit(FinalizeImportEvent{Success: count == total})
}

// refreshChannels refreshes a batch and finishes with a human-readable
// summary whose phrasing distinguishes single from multi channel and
// all-failed from partial success.
func (f *Fetcher) refreshChannels(ctx context.Context, channelIDs []string) {
	start := time.Now()
	count, total := 0, len(channelIDs)

	if total == 1 {
		f.setMessage("Refreshing channel", LevelNormal, 0)
	} else {
		f.setMessage(fmt.Sprintf("Refreshing channels: %d/%d", count, total), LevelNormal, 0)
	}
	for _, channelID := range channelIDs {
		f.emit(RefreshStateEvent{ChannelID: channelID, State: StateToBeRefreshed})
	}

	started := func(channelID string) {
		f.emit(RefreshStateEvent{ChannelID: channelID, State: StateRefreshing})
	}
	for res := range f.fanOut(ctx, channelIDs, false, started) {
		if res.err != nil {
			log.Printf("ytsubs: refresh failed for %s: %v", res.channelID, res.err)
			f.emit(RefreshStateEvent{ChannelID: res.channelID, State: StateFailed})
			continue
		}
		count++
		f.emit(RefreshStateEvent{ChannelID: res.channelID, State: StateCompleted})
		f.emit(UpdateChannelEvent{Feed: res.feed})
		if total > 1 {
			f.setMessage(fmt.Sprintf("Refreshing channels: %d/%d", count, total), LevelNormal, 0)
		}
	}

	elapsed := time.Since(start).Seconds()
	switch {
	case count == 0 && total == 1:
		f.setMessage("Failed to refresh channel", LevelError, defaultClearAfter)
	case count == 0:
		f.setMessage("Failed to refresh channels", LevelError, defaultClearAfter)
	case count == 1 && total == 1:
		f.setMessage(fmt.Sprintf("Refreshed channel in %.2fs", elapsed), LevelNormal, defaultClearAfter)
	default:
		f.setMessage(fmt.Sprintf("Refreshed %d out of %d channels in %.2fs", count, total, elapsed),
			LevelNormal, defaultClearAfter)
	}
}

// loadMoreVideos pages deeper into one channel's videos listing and replaces
// the stored feed when something new turned up.
func (f *Fetcher) loadMoreVideos(ctx context.Context, channelID string, presentIDs []string) {
	f.setMessage("Loading more videos", LevelNormal, 0)

	backend := f.backend.Clone()

	present := make(map[string]bool, len(presentIDs))
	for _, id := range presentIDs {
		present[id] = true
	}

	channelFeed, err := backend.MoreVideos(ctx, channelID, present)
	if err != nil {
		f.setMessage(fmt.Sprintf("Failed to load more videos: %v", err), LevelError, defaultClearAfter)
		return
	}
	if len(channelFeed.Videos) == 0 {
		f.setMessage("There are no videos to load", LevelWarning, defaultClearAfter)
		return
	}

	f.clearMessage()
	f.emit(UpdateChannelEvent{Feed: channelFeed})
}

// fetchInstances refreshes the known mirror instance list.
func (f *Fetcher) fetchInstances(ctx context.Context) {
	f.setMessage("Fetching instances", LevelNormal, 0)

	domains, err := mirror.FetchInstances(ctx, f.httpClient)
	if err != nil {
		f.setMessage(fmt.Sprintf("Failed to fetch instances: %v", err), LevelError, defaultClearAfter)
		f.emit(InstancesEvent{Err: err})
		return
	}

	f.clearMessage()
	f.emit(InstancesEvent{Domains: domains})
}
