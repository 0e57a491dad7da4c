package feed

import (
	"strings"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
)

// FromRSS maps a parsed provider feed onto a ChannelFeed. RSS entries carry
// fewer fields than the full API paths: no length, no shorts/streams
// distinction.
func FromRSS(src *gofeed.Feed) *ChannelFeed {
	out := &ChannelFeed{
		ChannelTitle: src.Title,
		ChannelID:    extensionValue(src.Extensions, "channelId"),
	}

	for _, item := range src.Items {
		video := Video{
			VideoID: extensionValue(item.Extensions, "videoId"),
			Title:   item.Title,
			New:     true,
		}
		if video.VideoID == "" {
			// Atom entry ids look like "yt:video:<id>".
			video.VideoID = item.GUID[strings.LastIndexByte(item.GUID, ':')+1:]
		}
		if item.PublishedParsed != nil {
			video.Published = uint64(item.PublishedParsed.Unix())
		}
		out.Videos = append(out.Videos, video)
	}

	return out
}

func extensionValue(exts ext.Extensions, name string) string {
	if values := exts["yt"][name]; len(values) > 0 {
		return values[0].Value
	}
	return ""
}
