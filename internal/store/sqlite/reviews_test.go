package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/bookshelfapp/bookshelf-server/internal/domain"
	"github.com/bookshelfapp/bookshelf-server/internal/store"
)

func TestCreateReview_DuplicateRejected(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := mustCreateUser(t, s, "dave")
	b := mustCreateBook(t, s, "Once Only", "Mystery")
	first := mustCreateReview(t, s, b.ID, u.ID, 2)

	dup := &domain.Review{BookID: b.ID, UserID: u.ID, Rating: 5, ReviewText: "changed my mind entirely"}
	if err := s.CreateReview(ctx, dup); !errors.Is(err, store.ErrReviewExists) {
		t.Fatalf("expected ErrReviewExists, got %v", err)
	}

	got, err := s.GetReview(ctx, first.ID)
	if err != nil {
		t.Fatalf("get review: %v", err)
	}
	if got.Rating != 2 {
		t.Errorf("expected first review unchanged with rating 2, got %d", got.Rating)
	}
}

func TestCreateReview_MissingBook(t *testing.T) {
	s := newTestStore(t)
	u := mustCreateUser(t, s, "erin")

	r := &domain.Review{BookID: 12345, UserID: u.ID, Rating: 3, ReviewText: "for a book that is not there"}
	if err := s.CreateReview(context.Background(), r); !errors.Is(err, store.ErrBookNotFound) {
		t.Errorf("expected ErrBookNotFound, got %v", err)
	}
}

func TestCreateReview_RatingCheck(t *testing.T) {
	s := newTestStore(t)
	u := mustCreateUser(t, s, "frank")
	b := mustCreateBook(t, s, "Checked", "Poetry")

	r := &domain.Review{BookID: b.ID, UserID: u.ID, Rating: 6, ReviewText: "too many stars for this"}
	if err := s.CreateReview(context.Background(), r); err == nil {
		t.Error("expected CHECK constraint to reject rating 6")
	}
}

func TestListReviewsByBook(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	b := mustCreateBook(t, s, "Popular", "Romance")
	other := mustCreateBook(t, s, "Other", "Romance")
	u1 := mustCreateUser(t, s, "u1")
	u2 := mustCreateUser(t, s, "u2")

	older := mustCreateReview(t, s, b.ID, u1.ID, 4)
	newer := mustCreateReview(t, s, b.ID, u2.ID, 5)
	mustCreateReview(t, s, other.ID, u1.ID, 1)

	reviews, err := s.ListReviewsByBook(ctx, b.ID, store.PageParams{Limit: 10})
	if err != nil {
		t.Fatalf("list reviews: %v", err)
	}
	if len(reviews) != 2 {
		t.Fatalf("expected 2 reviews, got %d", len(reviews))
	}
	if reviews[0].ID != newer.ID || reviews[1].ID != older.ID {
		t.Errorf("expected newest first, got %d then %d", reviews[0].ID, reviews[1].ID)
	}
}

func TestUpdateAndDeleteReview(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := mustCreateUser(t, s, "gina")
	b := mustCreateBook(t, s, "Edited", "Drama")
	r := mustCreateReview(t, s, b.ID, u.ID, 1)

	r.Rating = 3
	r.Touch()
	if err := s.UpdateReview(ctx, r); err != nil {
		t.Fatalf("update review: %v", err)
	}
	got, err := s.GetReviewByBookAndUser(ctx, b.ID, u.ID)
	if err != nil {
		t.Fatalf("get review: %v", err)
	}
	if got.Rating != 3 {
		t.Errorf("expected rating 3, got %d", got.Rating)
	}

	if err := s.DeleteReview(ctx, r.ID); err != nil {
		t.Fatalf("delete review: %v", err)
	}
	if err := s.DeleteReview(ctx, r.ID); !errors.Is(err, store.ErrReviewNotFound) {
		t.Errorf("expected ErrReviewNotFound, got %v", err)
	}
}
