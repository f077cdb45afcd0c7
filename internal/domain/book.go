package domain

// Field bounds for books.
const (
	MaxTitleLength  = 500
	MaxAuthorLength = 255
	MaxGenreLength  = 100
	MinYear         = 1000
	MaxYear         = 2100
)

// Book is a catalog entry.
type Book struct {
	Timestamps
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	Author        string `json:"author"`
	Genre         string `json:"genre"`
	YearPublished int    `json:"year_published"`
	Summary       string `json:"summary,omitempty"`
}

// BookUpdate is a partial update. Nil fields are left unchanged.
type BookUpdate struct {
	Title         *string
	Author        *string
	Genre         *string
	YearPublished *int
	Summary       *string
}

// IsEmpty reports whether the update changes nothing.
func (u BookUpdate) IsEmpty() bool {
	return u.Title == nil && u.Author == nil && u.Genre == nil &&
		u.YearPublished == nil && u.Summary == nil
}

// Apply copies the non-nil fields of u onto b.
func (u BookUpdate) Apply(b *Book) {
	if u.Title != nil {
		b.Title = *u.Title
	}
	if u.Author != nil {
		b.Author = *u.Author
	}
	if u.Genre != nil {
		b.Genre = *u.Genre
	}
	if u.YearPublished != nil {
		b.YearPublished = *u.YearPublished
	}
	if u.Summary != nil {
		b.Summary = *u.Summary
	}
}
