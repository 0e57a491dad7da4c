package native

import "strings"

// Typed views of the browse response tree. Every field is optional; a
// missing renderer means the surface is not present, never a parse error.

type browseRequest struct {
	Context      clientContext `json:"context"`
	BrowseID     string        `json:"browseId,omitempty"`
	Params       string        `json:"params,omitempty"`
	Continuation string        `json:"continuation,omitempty"`
	URL          string        `json:"url,omitempty"`
	VideoID      string        `json:"videoId,omitempty"`
}

type clientContext struct {
	Client innertubeClient `json:"client"`
}

type innertubeClient struct {
	ClientName        string `json:"clientName"`
	ClientVersion     string `json:"clientVersion"`
	DeviceMake        string `json:"deviceMake,omitempty"`
	DeviceModel       string `json:"deviceModel,omitempty"`
	AndroidSDKVersion int    `json:"androidSdkVersion,omitempty"`
	UserAgent         string `json:"userAgent,omitempty"`
	OSName            string `json:"osName,omitempty"`
	OSVersion         string `json:"osVersion,omitempty"`
	VisitorData       string `json:"visitorData,omitempty"`
}

type browseResponse struct {
	Contents           *contents         `json:"contents,omitempty"`
	OnResponseReceived []responseAction  `json:"onResponseReceivedActions,omitempty"`
	Metadata           *channelMetadata  `json:"metadata,omitempty"`
	Endpoint           *resolvedEndpoint `json:"endpoint,omitempty"`
}

type contents struct {
	TwoColumnBrowseResultsRenderer *twoColumnRenderer `json:"twoColumnBrowseResultsRenderer,omitempty"`
}

type twoColumnRenderer struct {
	Tabs []tab `json:"tabs,omitempty"`
}

type tab struct {
	TabRenderer *tabRenderer `json:"tabRenderer,omitempty"`
}

type tabRenderer struct {
	Title   string      `json:"title,omitempty"`
	Content *tabContent `json:"content,omitempty"`
}

type tabContent struct {
	RichGridRenderer *richGridRenderer `json:"richGridRenderer,omitempty"`
}

type richGridRenderer struct {
	Contents []gridItem `json:"contents,omitempty"`
}

// gridItem is one entry of a tab's content grid. The grid's tail may carry a
// continuation marker instead of content.
type gridItem struct {
	RichItemRenderer         *richItemRenderer         `json:"richItemRenderer,omitempty"`
	ContinuationItemRenderer *continuationItemRenderer `json:"continuationItemRenderer,omitempty"`
}

type richItemRenderer struct {
	Content *richItemContent `json:"content,omitempty"`
}

type richItemContent struct {
	VideoRenderer         *videoRenderer         `json:"videoRenderer,omitempty"`
	ReelItemRenderer      *reelItemRenderer      `json:"reelItemRenderer,omitempty"`
	ShortsLockupViewModel *shortsLockupViewModel `json:"shortsLockupViewModel,omitempty"`
}

type continuationItemRenderer struct {
	ContinuationEndpoint *continuationEndpoint `json:"continuationEndpoint,omitempty"`
}

type continuationEndpoint struct {
	ContinuationCommand *continuationCommand `json:"continuationCommand,omitempty"`
}

type continuationCommand struct {
	Token string `json:"token,omitempty"`
}

type responseAction struct {
	AppendContinuationItemsAction *appendContinuationItemsAction `json:"appendContinuationItemsAction,omitempty"`
}

type appendContinuationItemsAction struct {
	ContinuationItems []gridItem `json:"continuationItems,omitempty"`
}

type videoRenderer struct {
	VideoID           string             `json:"videoId,omitempty"`
	Title             *textRuns          `json:"title,omitempty"`
	PublishedTimeText *simpleText        `json:"publishedTimeText,omitempty"`
	LengthText        *simpleText        `json:"lengthText,omitempty"`
	UpcomingEventData *upcomingEventData `json:"upcomingEventData,omitempty"`
	Badges            []badge            `json:"badges,omitempty"`
}

type upcomingEventData struct {
	StartTime string `json:"startTime,omitempty"`
}

type badge struct {
	MetadataBadgeRenderer *metadataBadgeRenderer `json:"metadataBadgeRenderer,omitempty"`
}

type metadataBadgeRenderer struct {
	Style string `json:"style,omitempty"`
}

type reelItemRenderer struct {
	VideoID       string         `json:"videoId,omitempty"`
	Headline      *textRuns      `json:"headline,omitempty"`
	Accessibility *accessibility `json:"accessibility,omitempty"`
}

type accessibility struct {
	AccessibilityData accessibilityData `json:"accessibilityData"`
}

type accessibilityData struct {
	Label string `json:"label,omitempty"`
}

// shortsLockupViewModel is the newer shorts item shape some responses use
// instead of the reel renderer.
type shortsLockupViewModel struct {
	OverlayMetadata *overlayMetadata `json:"overlayMetadata,omitempty"`
	OnTap           *onTap           `json:"onTap,omitempty"`
}

type overlayMetadata struct {
	PrimaryText *textContent `json:"primaryText,omitempty"`
}

type textContent struct {
	Content string `json:"content,omitempty"`
}

type onTap struct {
	InnertubeCommand *innertubeCommand `json:"innertubeCommand,omitempty"`
}

type innertubeCommand struct {
	ReelWatchEndpoint *reelWatchEndpoint `json:"reelWatchEndpoint,omitempty"`
}

type reelWatchEndpoint struct {
	VideoID string `json:"videoId,omitempty"`
}

type channelMetadata struct {
	ChannelMetadataRenderer *channelMetadataRenderer `json:"channelMetadataRenderer,omitempty"`
}

type channelMetadataRenderer struct {
	Title      string `json:"title,omitempty"`
	ExternalID string `json:"externalId,omitempty"`
}

// resolvedEndpoint is returned by the navigation resolver.
type resolvedEndpoint struct {
	BrowseEndpoint *browseEndpointData `json:"browseEndpoint,omitempty"`
	URLEndpoint    *urlEndpointData    `json:"urlEndpoint,omitempty"`
}

type browseEndpointData struct {
	BrowseID string `json:"browseId,omitempty"`
}

type urlEndpointData struct {
	URL string `json:"url,omitempty"`
}

type textRuns struct {
	Runs       []textRun `json:"runs,omitempty"`
	SimpleText string    `json:"simpleText,omitempty"`
}

type textRun struct {
	Text string `json:"text,omitempty"`
}

type simpleText struct {
	SimpleText string `json:"simpleText,omitempty"`
}

// text extracts plain text from a runs-or-simpleText value.
func (t *textRuns) text() string {
	if t == nil {
		return ""
	}
	if t.SimpleText != "" {
		return t.SimpleText
	}
	var parts []string
	for _, run := range t.Runs {
		parts = append(parts, run.Text)
	}
	return strings.Join(parts, "")
}

func (t *simpleText) text() string {
	if t == nil {
		return ""
	}
	return t.SimpleText
}
