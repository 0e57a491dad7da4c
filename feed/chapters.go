package feed

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Chapter is one titled span of a video. End equals the next chapter's
// start; the final chapter's end is left equal to its own start, which
// downstream players tolerate.
type Chapter struct {
	Title string
	Start uint64
	End   uint64
}

// Chapters is an ordered sequence of chapters parsed from a description.
type Chapters []Chapter

// chapterLine matches a leading h:mm:ss or m:ss timestamp followed by the
// chapter title.
var chapterLine = regexp.MustCompile(`^(?:(\d{1,2}):)?(\d{1,2}):(\d{2})\s+(.+)$`)

// ParseChapters scans free-form description text for timestamped lines.
// It returns nil when fewer than two chapters are found, since a single
// timestamp is almost always a reference, not a chapter list.
func ParseChapters(description string) Chapters {
	var chapters Chapters

	for _, line := range strings.Split(description, "\n") {
		m := chapterLine.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}

		var hours uint64
		if m[1] != "" {
			hours, _ = strconv.ParseUint(m[1], 10, 64)
		}
		minutes, _ := strconv.ParseUint(m[2], 10, 64)
		seconds, _ := strconv.ParseUint(m[3], 10, 64)
		start := hours*3600 + minutes*60 + seconds

		if n := len(chapters); n > 0 {
			chapters[n-1].End = start
		}
		chapters = append(chapters, Chapter{
			Title: strings.TrimSpace(m[4]),
			Start: start,
			End:   start,
		})
	}

	if len(chapters) < 2 {
		return nil
	}
	return chapters
}

// WriteMetadataFile writes the chapters as an FFMETADATA file under dir,
// named after the video id. Writing is idempotent: an existing file is
// reused, never rewritten.
func (c Chapters) WriteMetadataFile(dir, videoID string) (string, error) {
	path := filepath.Join(dir, videoID+".ffmetadata")

	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	var b strings.Builder
	b.WriteString(";FFMETADATA1\n")
	for _, ch := range c {
		fmt.Fprintf(&b, "[CHAPTER]\nTIMEBASE=1/1\nSTART=%d\nEND=%d\nTITLE=%s\n", ch.Start, ch.End, ch.Title)
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("write chapters file: %w", err)
	}
	return path, nil
}
