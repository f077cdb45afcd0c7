package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBookUpdate_Apply(t *testing.T) {
	b := &Book{Title: "Dune", Author: "Frank Herbert", Genre: "Sci-Fi", YearPublished: 1965}

	title := "Dune Messiah"
	year := 1969
	BookUpdate{Title: &title, YearPublished: &year}.Apply(b)

	assert.Equal(t, "Dune Messiah", b.Title)
	assert.Equal(t, 1969, b.YearPublished)
	assert.Equal(t, "Frank Herbert", b.Author)
	assert.Equal(t, "Sci-Fi", b.Genre)
}

func TestBookUpdate_IsEmpty(t *testing.T) {
	assert.True(t, BookUpdate{}.IsEmpty())

	genre := "Fantasy"
	assert.False(t, BookUpdate{Genre: &genre}.IsEmpty())
}

func TestReviewUpdate_Apply(t *testing.T) {
	r := &Review{Rating: 3, ReviewText: "it was fine overall"}

	rating := 5
	ReviewUpdate{Rating: &rating}.Apply(r)

	assert.Equal(t, 5, r.Rating)
	assert.Equal(t, "it was fine overall", r.ReviewText)
}

func TestRole_Valid(t *testing.T) {
	assert.True(t, RoleAdmin.Valid())
	assert.True(t, RoleUser.Valid())
	assert.False(t, Role("member").Valid())
}
