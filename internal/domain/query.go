package domain

import "time"

// ArticleFilter selects stored articles. Ordering is fixed by the ranking
// contract (engagement score descending, then scrape time descending), so
// only the filter and the cap vary per caller.
type ArticleFilter struct {
	ScrapedSince *time.Time
	Processed    *bool
	Category     *Category
	Limit        int
}

// DigestEntry is one article inside a digest, in display order.
type DigestEntry struct {
	Article       Article
	Position      int
	CategoryGroup *Category
}
