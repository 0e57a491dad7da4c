package feed

import "fmt"

// FormatKind identifies the variant of a Format.
type FormatKind int

const (
	// FormatVideo is one video track of an adaptive rendition.
	FormatVideo FormatKind = iota
	// FormatAudio is one audio track of an adaptive rendition.
	FormatAudio
	// FormatStream is a combined audio+video rendition.
	FormatStream
	// FormatCaption is a subtitle track.
	FormatCaption
)

// Format describes one playable rendition URL plus its quality metadata.
// Which fields are meaningful depends on Kind; the accessors below enforce
// that at call sites.
type Format struct {
	Kind     FormatKind
	URL      string
	MimeType string

	// Video and stream renditions.
	QualityLabel string
	FPS          int

	// Audio and stream renditions.
	Bitrate string

	// Audio tracks.
	Language        string
	LanguageDefault bool

	// Captions.
	Label        string
	LanguageCode string
}

// Quality returns the quality label of a video or stream rendition. Asking
// any other kind is a caller bug and panics.
func (f Format) Quality() string {
	if f.Kind != FormatVideo && f.Kind != FormatStream {
		panic(fmt.Sprintf("feed: Quality called on %v format", f.Kind))
	}
	return f.QualityLabel
}

// ID returns the identifier used to select captions by language.
func (f Format) ID() string {
	if f.Kind != FormatCaption {
		panic(fmt.Sprintf("feed: ID called on %v format", f.Kind))
	}
	return f.LanguageCode
}

// String renders the format the way format-selection lists display it.
func (f Format) String() string {
	switch f.Kind {
	case FormatVideo:
		return fmt.Sprintf("%s @ %d fps, %s", f.QualityLabel, f.FPS, f.MimeType)
	case FormatAudio:
		if f.Language != "" {
			return fmt.Sprintf("%s, %s, %s", f.Language, f.Bitrate, f.MimeType)
		}
		return fmt.Sprintf("%s, %s", f.Bitrate, f.MimeType)
	case FormatStream:
		return fmt.Sprintf("%s @ %d fps, %s, %s", f.QualityLabel, f.FPS, f.Bitrate, f.MimeType)
	default:
		return f.Label
	}
}

// VideoInfo aggregates every rendition of one video: separated adaptive
// video/audio tracks, combined stream renditions, and captions. It is
// populated once per formats fetch and immutable afterward.
type VideoInfo struct {
	VideoFormats  []Format
	AudioFormats  []Format
	FormatStreams []Format
	Captions      []Format
	Chapters      Chapters
}
