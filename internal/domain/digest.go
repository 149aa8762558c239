package domain

import "time"

// DigestType distinguishes scheduled digest kinds from operator-triggered ones.
type DigestType string

const (
	DigestHourly  DigestType = "hourly"
	DigestMorning DigestType = "morning"
	DigestEvening DigestType = "evening"
	DigestManual  DigestType = "manual"
)

// DeepRead reports whether the digest uses the long lookback window and the
// larger per-category quota.
func (t DigestType) DeepRead() bool {
	return t == DigestMorning || t == DigestEvening
}

// Digest is a persisted, ranked snapshot of selected articles. Immutable after
// creation except for the archive flag.
type Digest struct {
	ID           string     `db:"id"`
	CreatedAt    time.Time  `db:"created_at"`
	DigestType   DigestType `db:"digest_type"`
	StoriesCount int        `db:"stories_count"`
	Categories   string     `db:"categories"`
	IsArchived   bool       `db:"is_archived"`
}

// DigestArticle associates an article with a digest. Position is the 0-based
// display rank; positions within one digest form a contiguous 0..N-1 sequence.
type DigestArticle struct {
	DigestID      string    `db:"digest_id"`
	ArticleID     string    `db:"article_id"`
	Position      int       `db:"position"`
	CategoryGroup *Category `db:"category_group"`
}
