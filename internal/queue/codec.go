package queue

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sudamana23/NewsFlow-AI/internal/domain"
)

// Wire contract: every article field travels as a text key/value pair.
// nil -> "", timestamps -> ISO-8601 (zone-naive UTC), numbers and booleans
// -> their decimal text form. The flat map is carried on the broker as a
// compact JSON object of strings.

const timeLayout = "2006-01-02T15:04:05.999999"

var timeParseLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	time.RFC3339Nano,
	time.RFC3339,
}

// Serialize flattens a raw article into transport-safe text fields.
func Serialize(a domain.RawArticle) map[string]string {
	return map[string]string{
		"url":              a.URL,
		"title":            a.Title,
		"content":          a.Content,
		"source":           a.Source,
		"source_type":      string(a.SourceType),
		"published_at":     encodeTime(a.PublishedAt),
		"engagement_score": strconv.FormatFloat(a.EngagementScore, 'g', -1, 64),
		"processed":        strconv.FormatBool(a.Processed),
	}
}

// Deserialize rebuilds a raw article from transport fields. Malformed numeric
// and timestamp values degrade to zero values; a missing url is the only
// fatal shape error.
func Deserialize(fields map[string]string) (domain.RawArticle, error) {
	url := fields["url"]
	if url == "" {
		return domain.RawArticle{}, fmt.Errorf("message has no url field")
	}

	return domain.RawArticle{
		URL:             url,
		Title:           fields["title"],
		Content:         fields["content"],
		Source:          fields["source"],
		SourceType:      domain.SourceType(fields["source_type"]),
		PublishedAt:     decodeTime(fields["published_at"]),
		EngagementScore: decodeFloat(fields["engagement_score"]),
		Processed:       decodeBool(fields["processed"]),
	}, nil
}

// Encode marshals the serialized field map into the on-broker body.
func Encode(a domain.RawArticle) ([]byte, error) {
	return json.Marshal(Serialize(a))
}

// Decode is the inverse of Encode.
func Decode(body []byte) (domain.RawArticle, error) {
	var fields map[string]string
	if err := json.Unmarshal(body, &fields); err != nil {
		return domain.RawArticle{}, fmt.Errorf("decode message body: %w", err)
	}
	return Deserialize(fields)
}

func encodeTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func decodeTime(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	for _, layout := range timeParseLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			utc := t.UTC()
			return &utc
		}
	}
	return nil
}

// decodeBool applies the wire contract's boolean-ish text check.
func decodeBool(raw string) bool {
	switch strings.ToLower(raw) {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}

func decodeFloat(raw string) float64 {
	if raw == "" {
		return 0.0
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0.0
	}
	return f
}
