package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"unicode/utf8"

	"ytsubs/api"
	"ytsubs/config"
	"ytsubs/feed"
	"ytsubs/fetcher"
	ythttp "ytsubs/http"
	"ytsubs/mirror"
	"ytsubs/native"
	"ytsubs/retry"
	"ytsubs/wire"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "subscribe":
		cmdSubscribe(args)
	case "refresh":
		cmdRefresh(args)
	case "import":
		cmdImport(args)
	case "instances":
		cmdInstances(args)
	case "resolve":
		cmdResolve(args)
	case "formats":
		cmdFormats(args)
	case "decode":
		cmdDecode(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `ytsubs - YouTube channel feed fetcher

Usage:
  ytsubs subscribe <url-or-id>      Subscribe to a channel and list its videos
  ytsubs refresh [channel-id ...]   Refresh subscribed channels (default: all)
  ytsubs import <file>              Subscribe to every channel id in a file
  ytsubs instances [flags]          Fetch the public instance directory
  ytsubs resolve <url-or-handle>    Resolve a channel URL or @handle to its id
  ytsubs formats <video-id>         List playable formats for a video
  ytsubs decode <base64>            Decode a base64 blob of wire-format data
  ytsubs help                       Show this help message

Examples:
  ytsubs subscribe https://www.youtube.com/channel/UCxxxxx
  ytsubs subscribe @somehandle
  ytsubs refresh                    # refresh every subscribed channel
  ytsubs import channels.txt        # one channel id per line
  ytsubs instances -save            # refresh the local instance list
  ytsubs formats dQw4w9WgXcQ
  ytsubs decode EgZ2aWRlb3PyBgQKAjoA

For help on a specific command: ytsubs <command> -h
`)
}

func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// newBackend builds the configured backend. The mirror backend needs an
// instance list; a missing list is fetched from the directory and saved.
func newBackend(ctx context.Context, cfg *config.Config) (api.API, error) {
	httpCfg := ythttp.DefaultConfig()
	httpCfg.Timeout = cfg.RequestTimeout

	switch cfg.SelectedBackend() {
	case feed.BackendMirror:
		domains, err := mirror.ReadInstancesFile(cfg.InstancesFile)
		if err != nil || len(domains) == 0 {
			fmt.Fprintf(os.Stderr, "Fetching instance list...\n")
			domains, err = mirror.FetchInstances(ctx, ythttp.New(httpCfg))
			if err != nil {
				return nil, fmt.Errorf("fetch instances: %w", err)
			}
			if err := mirror.WriteInstancesFile(cfg.InstancesFile, domains); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: could not save instance list: %v\n", err)
			}
		}
		return mirror.New(domains,
			mirror.WithTabs(cfg.EnabledTabs()),
			mirror.WithChapters(cfg.Chapters),
			mirror.WithHTTPClient(ythttp.New(httpCfg)))
	default:
		httpCfg.Retry = retry.DefaultConfig()
		return native.New(
			native.WithTabs(cfg.EnabledTabs()),
			native.WithChapters(cfg.Chapters),
			native.WithHTTPClient(ythttp.New(httpCfg))), nil
	}
}

func cmdSubscribe(args []string) {
	fs := flag.NewFlagSet("subscribe", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ytsubs subscribe <url-or-id>\n")
	}
	fs.Parse(args)

	argv := fs.Args()
	if len(argv) == 0 {
		fmt.Fprintf(os.Stderr, "Error: missing channel url or id\n")
		fs.Usage()
		os.Exit(1)
	}

	cfg := loadConfig()
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	backend, err := newBackend(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	subscribed, err := readSubscriptions(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading subscriptions: %v\n", err)
		os.Exit(1)
	}

	f := fetcher.New(backend, fetcher.WithRSSThreshold(cfg.RSSThreshold))
	go f.Run(ctx)

	f.Commands() <- fetcher.SubscribeCommand{Input: argv[0]}

	for {
		select {
		case <-ctx.Done():
			return
		case e := <-f.Events():
			switch ev := e.(type) {
			case fetcher.DuplicateCheckEvent:
				_, dup := subscribed[ev.ChannelID]
				ev.Reply <- dup
			case fetcher.MessageSetEvent:
				fmt.Fprintf(os.Stderr, "%s\n", ev.Text)
				if ev.Level == fetcher.LevelError {
					os.Exit(1)
				}
				if ev.Level == fetcher.LevelWarning {
					return
				}
			case fetcher.AddChannelEvent:
				if err := appendSubscription(cfg, ev.Feed.ChannelID, ev.Feed.ChannelTitle); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: could not save subscription: %v\n", err)
				}
				fmt.Fprintf(os.Stderr, "Subscribed to %s (%s)\n\n", ev.Feed.ChannelTitle, ev.Feed.ChannelID)
				printFeed(ev.Feed)
				return
			}
		}
	}
}

func cmdRefresh(args []string) {
	fs := flag.NewFlagSet("refresh", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ytsubs refresh [channel-id ...]\n")
	}
	fs.Parse(args)

	cfg := loadConfig()
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	channelIDs := fs.Args()
	if len(channelIDs) == 0 {
		subscribed, err := readSubscriptions(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading subscriptions: %v\n", err)
			os.Exit(1)
		}
		for id := range subscribed {
			channelIDs = append(channelIDs, id)
		}
	}
	if len(channelIDs) == 0 {
		fmt.Fprintf(os.Stderr, "No subscriptions. Use 'ytsubs subscribe' first.\n")
		os.Exit(1)
	}

	backend, err := newBackend(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	f := fetcher.New(backend, fetcher.WithRSSThreshold(cfg.RSSThreshold))
	go f.Run(ctx)

	f.Commands() <- fetcher.RefreshCommand{ChannelIDs: channelIDs}

	failed := false
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-f.Events():
			switch ev := e.(type) {
			case fetcher.UpdateChannelEvent:
				printFeed(ev.Feed)
			case fetcher.RefreshStateEvent:
				if ev.State == fetcher.StateFailed {
					failed = true
					fmt.Fprintf(os.Stderr, "Failed: %s\n", ev.ChannelID)
				}
			case fetcher.MessageSetEvent:
				// Progress messages are permanent until replaced; the
				// summary carries an expiry and ends the run.
				if ev.ClearAfter > 0 {
					fmt.Fprintf(os.Stderr, "%s\n", ev.Text)
					if failed || ev.Level == fetcher.LevelError {
						os.Exit(1)
					}
					return
				}
			}
		}
	}
}

func cmdImport(args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ytsubs import <file>\n\nThe file lists one channel id per line.\n")
	}
	fs.Parse(args)

	argv := fs.Args()
	if len(argv) == 0 {
		fmt.Fprintf(os.Stderr, "Error: missing import file\n")
		fs.Usage()
		os.Exit(1)
	}

	channelIDs, err := readLines(argv[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", argv[0], err)
		os.Exit(1)
	}
	if len(channelIDs) == 0 {
		fmt.Fprintf(os.Stderr, "Error: %s contains no channel ids\n", argv[0])
		os.Exit(1)
	}

	cfg := loadConfig()
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	backend, err := newBackend(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	f := fetcher.New(backend, fetcher.WithRSSThreshold(cfg.RSSThreshold))
	go f.Run(ctx)

	f.Commands() <- fetcher.ImportCommand{ChannelIDs: channelIDs}

	for {
		select {
		case <-ctx.Done():
			return
		case e := <-f.Events():
			switch ev := e.(type) {
			case fetcher.AddChannelEvent:
				if err := appendSubscription(cfg, ev.Feed.ChannelID, ev.Feed.ChannelTitle); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: could not save subscription: %v\n", err)
				}
			case fetcher.ImportStateEvent:
				if ev.State == fetcher.StateFailed {
					fmt.Fprintf(os.Stderr, "Failed: %s\n", ev.ChannelID)
				}
			case fetcher.MessageSetEvent:
				if ev.ClearAfter > 0 {
					fmt.Fprintf(os.Stderr, "%s\n", ev.Text)
				}
			case fetcher.FinalizeImportEvent:
				if !ev.Success {
					os.Exit(1)
				}
				return
			}
		}
	}
}

func cmdInstances(args []string) {
	fs := flag.NewFlagSet("instances", flag.ExitOnError)
	save := fs.Bool("save", false, "Save the fetched list to the configured instances file")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ytsubs instances [flags]\n\nFlags:\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	cfg := loadConfig()
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	httpCfg := ythttp.DefaultConfig()
	httpCfg.Timeout = cfg.RequestTimeout

	domains, err := mirror.FetchInstances(ctx, ythttp.New(httpCfg))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching instances: %v\n", err)
		os.Exit(1)
	}

	for _, domain := range domains {
		fmt.Println(domain)
	}

	if *save {
		if err := mirror.WriteInstancesFile(cfg.InstancesFile, domains); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving instances: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "\nSaved %d instances to %s\n", len(domains), cfg.InstancesFile)
	}
}

func cmdResolve(args []string) {
	fs := flag.NewFlagSet("resolve", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ytsubs resolve <url-or-handle>\n")
	}
	fs.Parse(args)

	argv := fs.Args()
	if len(argv) == 0 {
		fmt.Fprintf(os.Stderr, "Error: missing channel url or handle\n")
		fs.Usage()
		os.Exit(1)
	}

	cfg := loadConfig()
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	backend, err := newBackend(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	channelID, err := backend.ResolveChannelID(ctx, argv[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving %q: %v\n", argv[0], err)
		os.Exit(1)
	}
	fmt.Println(channelID)
}

func cmdFormats(args []string) {
	fs := flag.NewFlagSet("formats", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ytsubs formats <video-id>\n")
	}
	fs.Parse(args)

	argv := fs.Args()
	if len(argv) == 0 {
		fmt.Fprintf(os.Stderr, "Error: missing video-id\n")
		fs.Usage()
		os.Exit(1)
	}

	cfg := loadConfig()
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	backend, err := newBackend(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	info, err := backend.VideoFormats(ctx, argv[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching formats: %v\n", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KIND\tFORMAT")
	for _, f := range info.FormatStreams {
		fmt.Fprintf(w, "combined\t%s\n", f.String())
	}
	for _, f := range info.VideoFormats {
		fmt.Fprintf(w, "video\t%s\n", f.String())
	}
	for _, f := range info.AudioFormats {
		fmt.Fprintf(w, "audio\t%s\n", f.String())
	}
	for _, f := range info.Captions {
		fmt.Fprintf(w, "caption\t%s\n", f.String())
	}
	w.Flush()

	if len(info.Chapters) > 0 {
		fmt.Printf("\nChapters:\n")
		for _, ch := range info.Chapters {
			fmt.Printf("  [%s] %s\n", feed.HHMMSS(uint32(ch.Start)), ch.Title)
		}
	}
}

func cmdDecode(args []string) {
	fs := flag.NewFlagSet("decode", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ytsubs decode <base64>\n")
	}
	fs.Parse(args)

	argv := fs.Args()
	if len(argv) == 0 {
		fmt.Fprintf(os.Stderr, "Error: missing base64 input\n")
		fs.Usage()
		os.Exit(1)
	}

	msg, err := wire.DecodeBase64(argv[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error decoding: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(msg.String())
}

func printFeed(channelFeed *feed.ChannelFeed) {
	fmt.Printf("%s (%d videos)\n", channelFeed.ChannelTitle, len(channelFeed.Videos))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VIDEO ID\tTITLE\tPUBLISHED\tLENGTH")
	for _, v := range channelFeed.Videos {
		length := "live"
		if v.Length != nil {
			length = feed.HHMMSS(*v.Length)
		}
		title := truncate(v.Title, 60)
		if v.MembersOnly {
			title += " [members]"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", v.VideoID, title, feed.RelativeTime(v.Published), length)
	}
	w.Flush()
}

// Subscriptions live in a plain text file under the cache directory, one
// "id<TAB>title" per line.
func subscriptionsPath(cfg *config.Config) string {
	return filepath.Join(cfg.CacheDir, "subscriptions")
}

func readSubscriptions(cfg *config.Config) (map[string]string, error) {
	subscribed := make(map[string]string)

	lines, err := readLines(subscriptionsPath(cfg))
	if err != nil {
		if os.IsNotExist(err) {
			return subscribed, nil
		}
		return nil, err
	}
	for _, line := range lines {
		id, title, _ := strings.Cut(line, "\t")
		subscribed[id] = title
	}
	return subscribed, nil
}

func appendSubscription(cfg *config.Config, channelID, title string) error {
	if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(subscriptionsPath(cfg), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = fmt.Fprintf(f, "%s\t%s\n", channelID, title)
	return err
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}

// truncate shortens s to at most max runes, never cutting a rune in half.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max-3]) + "..."
}
