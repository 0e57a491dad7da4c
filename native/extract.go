package native

import (
	"strconv"
	"strings"

	"ytsubs/feed"
)

const membersOnlyBadge = "BADGE_STYLE_TYPE_MEMBERS_ONLY"

// tabByTitle finds a channel tab by its display title. A missing tab means
// the channel does not expose that surface.
func tabByTitle(resp *browseResponse, title string) *tabRenderer {
	if resp.Contents == nil || resp.Contents.TwoColumnBrowseResultsRenderer == nil {
		return nil
	}
	for _, t := range resp.Contents.TwoColumnBrowseResultsRenderer.Tabs {
		if t.TabRenderer != nil && t.TabRenderer.Title == title {
			return t.TabRenderer
		}
	}
	return nil
}

// gridContents returns the content grid of a tab, or nil when the tab holds
// no grid.
func gridContents(t *tabRenderer) []gridItem {
	if t == nil || t.Content == nil || t.Content.RichGridRenderer == nil {
		return nil
	}
	return t.Content.RichGridRenderer.Contents
}

// splitContinuation strips a trailing continuation marker from the grid and
// returns its token.
func splitContinuation(items []gridItem) ([]gridItem, string) {
	n := len(items)
	if n == 0 {
		return items, ""
	}

	marker := items[n-1].ContinuationItemRenderer
	if marker == nil || marker.ContinuationEndpoint == nil ||
		marker.ContinuationEndpoint.ContinuationCommand == nil {
		return items, ""
	}
	return items[:n-1], marker.ContinuationEndpoint.ContinuationCommand.Token
}

// extractVideos reads the Videos tab grid. Published time comes from the
// listing text when present, else from an upcoming event's start time, else
// defaults to now.
func extractVideos(items []gridItem) []feed.Video {
	var videos []feed.Video

	for _, item := range items {
		r := itemVideoRenderer(item)
		if r == nil || r.VideoID == "" {
			continue
		}

		publishedText := r.PublishedTimeText.text()
		published := nowEpoch()
		if publishedText != "" {
			if t, err := parseRelativeTime(publishedText); err == nil {
				published = t
			}
		} else if r.UpcomingEventData != nil {
			if t, err := strconv.ParseUint(r.UpcomingEventData.StartTime, 10, 64); err == nil {
				published = t
			}
		}

		videos = append(videos, feed.Video{
			VideoID:       r.VideoID,
			Title:         r.Title.text(),
			Published:     published,
			PublishedText: publishedText,
			Length:        feed.Seconds(lengthAsSeconds(r.LengthText.text())),
			New:           true,
			MembersOnly:   membersOnly(r.Badges),
		})
	}

	return videos
}

// extractShorts reads the Shorts tab grid. Reel items carry an approximate
// duration in their accessibility label; the newer lockup shape carries none.
func extractShorts(items []gridItem) []feed.Video {
	var videos []feed.Video

	for _, item := range items {
		if item.RichItemRenderer == nil || item.RichItemRenderer.Content == nil {
			continue
		}
		content := item.RichItemRenderer.Content

		if reel := content.ReelItemRenderer; reel != nil && reel.VideoID != "" {
			video := feed.Video{
				VideoID:   reel.VideoID,
				Title:     reel.Headline.text(),
				Published: nowEpoch(),
				New:       true,
			}
			if reel.Accessibility != nil {
				if length, ok := shortsLengthFromLabel(reel.Accessibility.AccessibilityData.Label); ok {
					video.Length = feed.Seconds(length)
				}
			}
			videos = append(videos, video)
			continue
		}

		if lockup := content.ShortsLockupViewModel; lockup != nil {
			video := feed.Video{
				Published: nowEpoch(),
				New:       true,
			}
			if lockup.OverlayMetadata != nil && lockup.OverlayMetadata.PrimaryText != nil {
				video.Title = lockup.OverlayMetadata.PrimaryText.Content
			}
			if lockup.OnTap != nil && lockup.OnTap.InnertubeCommand != nil &&
				lockup.OnTap.InnertubeCommand.ReelWatchEndpoint != nil {
				video.VideoID = lockup.OnTap.InnertubeCommand.ReelWatchEndpoint.VideoID
			}
			if video.VideoID != "" {
				videos = append(videos, video)
			}
		}
	}

	return videos
}

// extractStreams reads the Live tab grid. Listing text reads "Streamed N
// units ago"; the leading token is skipped. Live and upcoming streams have
// no fixed length.
func extractStreams(items []gridItem) []feed.Video {
	var videos []feed.Video

	for _, item := range items {
		r := itemVideoRenderer(item)
		if r == nil || r.VideoID == "" {
			continue
		}

		published := nowEpoch()
		if text := r.PublishedTimeText.text(); text != "" {
			if _, rest, ok := strings.Cut(text, " "); ok {
				if t, err := parseRelativeTime(rest); err == nil {
					published = t
				}
			}
		} else if r.UpcomingEventData != nil {
			if t, err := strconv.ParseUint(r.UpcomingEventData.StartTime, 10, 64); err == nil {
				published = t
			}
		}

		var length uint32
		if r.LengthText != nil {
			length = lengthAsSeconds(r.LengthText.text())
		}

		videos = append(videos, feed.Video{
			VideoID:   r.VideoID,
			Title:     r.Title.text(),
			Published: published,
			Length:    feed.Seconds(length),
			New:       true,
		})
	}

	return videos
}

func itemVideoRenderer(item gridItem) *videoRenderer {
	if item.RichItemRenderer == nil || item.RichItemRenderer.Content == nil {
		return nil
	}
	return item.RichItemRenderer.Content.VideoRenderer
}

func membersOnly(badges []badge) bool {
	for _, b := range badges {
		if b.MetadataBadgeRenderer != nil && b.MetadataBadgeRenderer.Style == membersOnlyBadge {
			return true
		}
	}
	return false
}
