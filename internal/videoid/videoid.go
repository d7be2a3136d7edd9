// Package videoid maps the URL forms under which a YouTube video can be
// shared onto its canonical video id. The id is the deduplication key for
// transcript work, so every equivalent form must resolve identically.
package videoid

import (
	"errors"
	"net/url"
	"strings"
)

var ErrUnrecognizedURL = errors.New("not a recognized video URL")

// Extract resolves the canonical video id from a raw URL. Supported forms:
//
//	https://youtu.be/<id>
//	https://www.youtube.com/watch?v=<id>
//	https://www.youtube.com/shorts/<id>
//
// Extract is pure; it performs no network access.
func Extract(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", ErrUnrecognizedURL
	}

	host := parsed.Hostname()

	switch {
	case strings.HasSuffix(host, "youtu.be"):
		id := strings.Trim(parsed.Path, "/")
		// Short links carry the id as the sole path segment.
		if i := strings.Index(id, "/"); i >= 0 {
			id = id[:i]
		}
		if id == "" {
			return "", ErrUnrecognizedURL
		}
		return id, nil

	case strings.HasSuffix(host, "youtube.com"):
		if strings.Contains(parsed.Path, "/shorts/") || strings.HasPrefix(parsed.Path, "shorts/") {
			parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
			if len(parts) >= 2 && parts[1] != "" {
				return parts[1], nil
			}
			return "", ErrUnrecognizedURL
		}
		if id := parsed.Query().Get("v"); id != "" {
			return id, nil
		}
		return "", ErrUnrecognizedURL
	}

	return "", ErrUnrecognizedURL
}
