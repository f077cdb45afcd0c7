package domain

// Rating and review text bounds.
const (
	MinRating           = 1
	MaxRating           = 5
	MinReviewTextLength = 10
	MaxReviewTextLength = 5000
)

// Review is one user's rating of one book. A user reviews a book at most once.
type Review struct {
	Timestamps
	ID         int64  `json:"id"`
	BookID     int64  `json:"book_id"`
	UserID     int64  `json:"user_id"`
	Rating     int    `json:"rating"`
	ReviewText string `json:"review_text"`
}

// ReviewUpdate is a partial update. Nil fields are left unchanged.
type ReviewUpdate struct {
	Rating     *int
	ReviewText *string
}

// Apply copies the non-nil fields of u onto r.
func (u ReviewUpdate) Apply(r *Review) {
	if u.Rating != nil {
		r.Rating = *u.Rating
	}
	if u.ReviewText != nil {
		r.ReviewText = *u.ReviewText
	}
}
