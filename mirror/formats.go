package mirror

import (
	"context"
	"fmt"
	"slices"

	"ytsubs/api"
	"ytsubs/feed"
)

type formatJSON struct {
	URL          string `json:"url"`
	Type         string `json:"type"`
	QualityLabel string `json:"qualityLabel"`
	FPS          int    `json:"fps"`
	Bitrate      string `json:"bitrate"`
	AudioQuality string `json:"audioQuality"`
	AudioTrack   struct {
		DisplayName    string `json:"displayName"`
		AudioIsDefault bool   `json:"audioIsDefault"`
	} `json:"audioTrack"`
}

type captionJSON struct {
	Label        string `json:"label"`
	LanguageCode string `json:"language_code"`
	URL          string `json:"url"`
}

// VideoFormats fetches the playable renditions of one video. Adaptive
// formats split into video and audio tracks by which quality key they carry;
// combined renditions come from formatStreams. Caption URLs are relative and
// get the instance domain prefixed.
func (i *Instance) VideoFormats(ctx context.Context, videoID string) (*feed.VideoInfo, error) {
	resp, err := i.client.Get(ctx, i.domain+"/api/v1/videos/"+videoID)
	if err != nil {
		return nil, i.wrap("video formats", videoID, fmt.Errorf("%w: %v", api.ErrNoFormats, err))
	}

	var body struct {
		FormatStreams   []formatJSON  `json:"formatStreams"`
		AdaptiveFormats []formatJSON  `json:"adaptiveFormats"`
		Captions        []captionJSON `json:"captions"`
		Description     string        `json:"description"`
	}
	if err := resp.JSON(&body); err != nil {
		return nil, i.wrap("video formats", videoID, err)
	}

	info := &feed.VideoInfo{}

	for _, f := range body.AdaptiveFormats {
		switch {
		case f.QualityLabel != "":
			info.VideoFormats = append(info.VideoFormats, feed.Format{
				Kind:         feed.FormatVideo,
				URL:          f.URL,
				MimeType:     f.Type,
				QualityLabel: f.QualityLabel,
				FPS:          f.FPS,
			})
		case f.AudioQuality != "":
			info.AudioFormats = append(info.AudioFormats, feed.Format{
				Kind:            feed.FormatAudio,
				URL:             f.URL,
				MimeType:        f.Type,
				Bitrate:         f.Bitrate,
				Language:        f.AudioTrack.DisplayName,
				LanguageDefault: f.AudioTrack.AudioIsDefault,
			})
		}
	}

	for _, f := range body.FormatStreams {
		info.FormatStreams = append(info.FormatStreams, feed.Format{
			Kind:         feed.FormatStream,
			URL:          f.URL,
			MimeType:     f.Type,
			QualityLabel: f.QualityLabel,
			FPS:          f.FPS,
			Bitrate:      f.Bitrate,
		})
	}

	// Listings arrive worst-first; selection lists want best-first.
	slices.Reverse(info.VideoFormats)
	slices.Reverse(info.FormatStreams)

	for _, c := range body.Captions {
		info.Captions = append(info.Captions, feed.Format{
			Kind:         feed.FormatCaption,
			URL:          i.domain + c.URL,
			Label:        c.Label,
			LanguageCode: c.LanguageCode,
		})
	}

	if i.chapters {
		info.Chapters = feed.ParseChapters(body.Description)
	}

	return info, nil
}
