package domain

// Recommendation is one ranked entry of the recommendation list.
//
// AverageRating is nil when the book has no reviews. This differs from
// BookSummary, which reports 0.0 for the same case.
type Recommendation struct {
	ID            int64    `json:"id"`
	Title         string   `json:"title"`
	Author        string   `json:"author"`
	Genre         string   `json:"genre"`
	AverageRating *float64 `json:"average_rating"`
	TotalReviews  int      `json:"total_reviews"`
}

// BookSummary is the aggregated rating view of a single book.
type BookSummary struct {
	ID            int64   `json:"id"`
	Title         string  `json:"title"`
	Author        string  `json:"author"`
	Summary       string  `json:"summary,omitempty"`
	AverageRating float64 `json:"average_rating"`
	TotalReviews  int     `json:"total_reviews"`
}
