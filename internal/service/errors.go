package service

import (
	"errors"
	"fmt"

	domainerrors "github.com/bookshelfapp/bookshelf-server/internal/errors"
	"github.com/bookshelfapp/bookshelf-server/internal/store"
)

func bookNotFound(id int64) error {
	return domainerrors.NotFoundf("Book with id %d not found", id)
}

func reviewNotFound(id int64) error {
	return domainerrors.NotFoundf("Review with id %d not found", id)
}

// bookError converts a store error from a book lookup.
func bookError(op string, id int64, err error) error {
	if errors.Is(err, store.ErrBookNotFound) {
		return bookNotFound(id)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// reviewError converts a store error from a review lookup.
func reviewError(op string, id int64, err error) error {
	if errors.Is(err, store.ErrReviewNotFound) {
		return reviewNotFound(id)
	}
	return fmt.Errorf("%s: %w", op, err)
}
