package native

import (
	"context"
	"fmt"
	"strconv"

	"ytsubs/api"
	"ytsubs/feed"
)

const playerPath = "/youtubei/v1/player"

// The VR client gets plain stream URLs back where the web client would
// require signature deciphering.
const (
	vrClientName    = "ANDROID_VR"
	vrClientVersion = "1.71.26"
	vrUserAgent     = "com.google.android.apps.youtube.vr.oculus/1.71.26 (Linux; U; Android 12L; eureka-user Build/SQ3A.220605.009.A1) gzip"
	vrVisitorData   = "CgtLT21YQTlDUjNqbyjMp-jMBjInCgJCRRIhEh0SGwsMDg8QERITFBUWFxgZGhscHR4fICEiIyQlJiAp"
)

func vrContext() clientContext {
	return clientContext{Client: innertubeClient{
		ClientName:        vrClientName,
		ClientVersion:     vrClientVersion,
		DeviceMake:        "Oculus",
		DeviceModel:       "Quest 3",
		AndroidSDKVersion: 32,
		UserAgent:         vrUserAgent,
		OSName:            "Android",
		OSVersion:         "12L",
		VisitorData:       vrVisitorData,
	}}
}

type playerResponse struct {
	StreamingData *struct {
		Formats         []playerFormat `json:"formats"`
		AdaptiveFormats []playerFormat `json:"adaptiveFormats"`
	} `json:"streamingData"`
	PlayabilityStatus struct {
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	Captions *struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
	VideoDetails struct {
		ShortDescription string `json:"shortDescription"`
	} `json:"videoDetails"`
}

type playerFormat struct {
	URL          string `json:"url"`
	MimeType     string `json:"mimeType"`
	QualityLabel string `json:"qualityLabel"`
	FPS          int    `json:"fps"`
	Bitrate      int    `json:"bitrate"`
	AudioQuality string `json:"audioQuality"`
	AudioTrack   *struct {
		DisplayName    string `json:"displayName"`
		AudioIsDefault bool   `json:"audioIsDefault"`
	} `json:"audioTrack"`
}

type captionTrack struct {
	BaseURL      string    `json:"baseUrl"`
	Name         *textRuns `json:"name"`
	LanguageCode string    `json:"languageCode"`
}

// VideoFormats fetches the playable renditions of one video through the
// player endpoint. The visitor-data header is best effort; the request goes
// out without it when the front page cannot be read.
func (c *Client) VideoFormats(ctx context.Context, videoID string) (*feed.VideoInfo, error) {
	headers := map[string]string{}
	if visitor, err := c.visitorData(ctx); err == nil {
		headers["X-Goog-Visitor-Id"] = visitor
	}

	httpResp, err := c.client.PostJSON(ctx, c.baseURL+playerPath, &browseRequest{
		Context: vrContext(),
		VideoID: videoID,
	}, headers)
	if err != nil {
		return nil, c.wrap("video formats", videoID, err)
	}

	var resp playerResponse
	if err := httpResp.JSON(&resp); err != nil {
		return nil, c.wrap("video formats", videoID, err)
	}

	if resp.StreamingData == nil || len(resp.StreamingData.AdaptiveFormats) == 0 {
		return nil, c.wrap("video formats", videoID,
			fmt.Errorf("%w: %s", api.ErrNoFormats, resp.PlayabilityStatus.Reason))
	}

	info := &feed.VideoInfo{}

	// Combined renditions arrive worst-first.
	combined := resp.StreamingData.Formats
	for n := len(combined) - 1; n >= 0; n-- {
		f := combined[n]
		info.FormatStreams = append(info.FormatStreams, feed.Format{
			Kind:         feed.FormatStream,
			URL:          f.URL,
			MimeType:     f.MimeType,
			QualityLabel: f.QualityLabel,
			FPS:          f.FPS,
			Bitrate:      strconv.Itoa(f.Bitrate),
		})
	}

	for _, f := range resp.StreamingData.AdaptiveFormats {
		switch {
		case f.QualityLabel != "":
			info.VideoFormats = append(info.VideoFormats, feed.Format{
				Kind:         feed.FormatVideo,
				URL:          f.URL,
				MimeType:     f.MimeType,
				QualityLabel: f.QualityLabel,
				FPS:          f.FPS,
			})
		case f.AudioQuality != "":
			format := feed.Format{
				Kind:     feed.FormatAudio,
				URL:      f.URL,
				MimeType: f.MimeType,
				Bitrate:  strconv.Itoa(f.Bitrate),
			}
			if f.AudioTrack != nil {
				format.Language = f.AudioTrack.DisplayName
				format.LanguageDefault = f.AudioTrack.AudioIsDefault
			}
			info.AudioFormats = append(info.AudioFormats, format)
		}
	}

	if resp.Captions != nil {
		for _, track := range resp.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks {
			info.Captions = append(info.Captions, feed.Format{
				Kind:         feed.FormatCaption,
				URL:          track.BaseURL,
				Label:        track.Name.text(),
				LanguageCode: track.LanguageCode,
			})
		}
	}

	if c.chapters {
		info.Chapters = feed.ParseChapters(resp.VideoDetails.ShortDescription)
	}

	return info, nil
}
