package api

import "strings"

// channelIDLen is the length of a raw channel id ("UC" plus 22 characters).
const channelIDLen = 24

// ParseChannelInput extracts a channel id from inputs that need no network
// lookup: a bare id passes through unchanged, and a URL containing a
// /channel/<id> segment yields the id. Handles and vanity URLs return
// ok=false and must be resolved by the backend.
func ParseChannelInput(input string) (id string, ok bool) {
	input = strings.TrimSpace(input)

	if idx := strings.Index(input, "/channel/"); idx >= 0 {
		id = input[idx+len("/channel/"):]
		if end := strings.IndexAny(id, "/?"); end >= 0 {
			id = id[:end]
		}
		return id, id != ""
	}

	if len(input) == channelIDLen && strings.HasPrefix(input, "UC") &&
		!strings.ContainsAny(input, "/@. ") {
		return input, true
	}

	return "", false
}
