package domain

import "time"

// SourceType identifies the family a source belongs to.
type SourceType string

const (
	SourceMainstream SourceType = "mainstream"
	SourceTech       SourceType = "tech"
	SourceSocial     SourceType = "social"
	SourceSwiss      SourceType = "swiss"
)

// Category is a story category assigned by the classifier.
type Category string

const (
	CategoryUkraine       Category = "ukraine"
	CategoryGaza          Category = "gaza"
	CategorySwiss         Category = "swiss"
	CategoryEurope        Category = "europe"
	CategoryAI            Category = "ai"
	CategoryTech          Category = "tech"
	CategoryCrypto        Category = "crypto"
	CategoryFinance       Category = "finance"
	CategoryScience       Category = "science"
	CategoryHealth        Category = "health"
	CategoryPolitics      Category = "politics"
	CategoryWorld         Category = "world"
	CategoryPremierLeague Category = "premier_league"
)

// Categories lists every valid category, in declared order.
var Categories = []Category{
	CategoryUkraine,
	CategoryGaza,
	CategorySwiss,
	CategoryEurope,
	CategoryAI,
	CategoryTech,
	CategoryCrypto,
	CategoryFinance,
	CategoryScience,
	CategoryHealth,
	CategoryPolitics,
	CategoryWorld,
	CategoryPremierLeague,
}

// ValidCategory reports whether c is a member of the closed category set.
func ValidCategory(c Category) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// RawArticle is the transient record produced by a source adapter before
// classification. URL is the dedup key for the whole pipeline.
type RawArticle struct {
	URL             string
	Title           string
	Content         string
	Source          string
	SourceType      SourceType
	PublishedAt     *time.Time
	EngagementScore float64
	Processed       bool
}

// Article is the persistent, processed record. All timestamps are stored
// timezone-naive in UTC.
type Article struct {
	ID              string     `db:"id"`
	URL             string     `db:"url"`
	Title           string     `db:"title"`
	Content         string     `db:"content"`
	Summary         *string    `db:"summary"`
	Source          string     `db:"source"`
	SourceType      SourceType `db:"source_type"`
	Category        *Category  `db:"category"`
	PublishedAt     *time.Time `db:"published_at"`
	ScrapedAt       time.Time  `db:"scraped_at"`
	EngagementScore float64    `db:"engagement_score"`
	IsProcessed     bool       `db:"is_processed"`
}

// CategoryOrWorld returns the article category, defaulting to world when the
// article was never classified.
func (a *Article) CategoryOrWorld() Category {
	if a.Category == nil || *a.Category == "" {
		return CategoryWorld
	}
	return *a.Category
}
