package errs

import (
	"errors"
)

var (
	ErrNotFound      = errors.New("book not found")
	ErrDuplicateISBN = errors.New("book with this isbn already exists")
	ErrBookBorrowed  = errors.New("book is currently borrowed")
	ErrConflict      = errors.New("book was modified concurrently")
	ErrInvalidData   = errors.New("invalid book data")
	ErrTooManyIDs    = errors.New("cannot delete more than 100 books at once")
	ErrEventPublish  = errors.New("event publish failed")
)
