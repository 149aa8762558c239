package rss

import (
	"bytes"
	"fmt"
	"time"

	"github.com/mmcdole/gofeed"
)

// parseFeed decodes an RSS or Atom document. gofeed detects the format and
// transcodes non-UTF-8 charset declarations, which European outlets still
// ship as ISO-8859-1.
func parseFeed(data []byte) (*gofeed.Feed, error) {
	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return parsed, nil
}

// itemContent prefers the short description over the full content body.
func itemContent(it *gofeed.Item) string {
	if it.Description != "" {
		return it.Description
	}
	return it.Content
}

// itemPublished normalizes the entry timestamp to UTC. Entries whose date
// gofeed could not parse yield nil; the article itself still survives.
func itemPublished(it *gofeed.Item) *time.Time {
	ts := it.PublishedParsed
	if ts == nil {
		ts = it.UpdatedParsed
	}
	if ts == nil {
		return nil
	}
	utc := ts.UTC()
	return &utc
}
