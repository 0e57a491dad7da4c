// Package ytsubs fetches YouTube channel feeds without an API key.
//
// It acquires video listings either straight from YouTube's internal
// browse endpoints or through public third-party mirror instances, behind
// a single backend interface.
//
// # Overview
//
// Two backends implement the same api.API surface:
//
//   - native: talks to YouTube's browse, resolve and player endpoints
//   - mirror: talks to a randomly chosen public mirror instance, with a
//     fallback for instances running older API versions
//
// The fetcher package orchestrates subscription, import and refresh over
// either backend, bounding concurrency and reporting progress as events.
//
// # Quick Start
//
// Fetch a channel's feed directly:
//
//	client := native.New()
//	channelFeed, err := client.VideosForTheFirstTime(ctx, "UCxxxxx")
//	if err != nil {
//		log.Fatal(err)
//	}
//	for _, v := range channelFeed.Videos {
//		fmt.Println(v.Title)
//	}
//
// Resolve a handle first when the channel id is unknown:
//
//	channelID, err := client.ResolveChannelID(ctx, "@somehandle")
//
// Drive bulk operations through the fetcher:
//
//	f := fetcher.New(client)
//	go f.Run(ctx)
//	f.Commands() <- fetcher.RefreshCommand{ChannelIDs: ids}
//	for e := range f.Events() {
//		// react to state transitions, feed updates and messages
//	}
//
// # Configuration
//
// ytsubs loads settings from multiple sources:
//
//  1. Environment variables (highest priority)
//  2. Config file (ytsubs.yaml or ~/.config/ytsubs/config.yaml)
//  3. Default values (lowest priority)
//
// Environment variables:
//
//   - YTSUBS_BACKEND: Backend to use ("local" or "mirror")
//   - YTSUBS_REQUEST_TIMEOUT: Per-request timeout in seconds
//   - YTSUBS_RSS_THRESHOLD: Batch size above which refreshes use RSS
//   - YTSUBS_TABS: Comma-separated tabs to fetch (videos,shorts,streams)
//   - YTSUBS_INSTANCES_FILE: Path to the mirror instance list
//
// # Error Handling
//
// All operations return errors that implement standard Go error handling:
//
//	if errors.Is(err, ytsubs.ErrUnresolvable) {
//		fmt.Println("Channel not found")
//	}
//
//	var backendErr *ytsubs.BackendError
//	if errors.As(err, &backendErr) {
//		fmt.Printf("%s %s failed: %v\n", backendErr.Backend, backendErr.Op, backendErr.Err)
//	}
//
// # Advanced Usage
//
// For more control, use the sub-packages directly:
//
//   - api: Backend interface and error types
//   - native, mirror: Backend implementations
//   - fetcher: Concurrent command/event orchestration
//   - feed: Feed, video, format and chapter types
//   - wire: Schema-less decoding of YouTube's binary parameters
//   - config: Configuration management
//   - retry: Exponential backoff retry logic
package ytsubs
