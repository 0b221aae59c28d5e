package model

import (
	"fmt"
	"time"
)

type AvailabilityStatus string

const (
	StatusAvailable AvailabilityStatus = "Available"
	StatusBorrowed  AvailabilityStatus = "Borrowed"
)

func (s AvailabilityStatus) Valid() bool {
	return s == StatusAvailable || s == StatusBorrowed
}

type Book struct {
	ID            int64              `json:"id" db:"id"`
	Title         string             `json:"title" db:"title"`
	Author        string             `json:"author" db:"author"`
	ISBN          string             `json:"isbn" db:"isbn"`
	PublishedYear int                `json:"publishedYear" db:"published_year"`
	Status        AvailabilityStatus `json:"availabilityStatus" db:"availability_status"`
	IsDeleted     bool               `json:"-" db:"is_deleted"`
}

type CreateBookRequest struct {
	Title         string             `json:"title" validate:"required,max=255"`
	Author        string             `json:"author" validate:"required,max=255"`
	ISBN          string             `json:"isbn" validate:"required,isbn10or13"`
	PublishedYear int                `json:"publishedYear" validate:"required"`
	Status        AvailabilityStatus `json:"availabilityStatus" validate:"required,oneof=Available Borrowed"`
}

// UpdateBookRequest is a partial patch: a nil field means "leave as is".
type UpdateBookRequest struct {
	ID            int64               `json:"id" validate:"required"`
	Title         *string             `json:"title" validate:"omitempty,min=1,max=255"`
	Author        *string             `json:"author" validate:"omitempty,min=1,max=255"`
	ISBN          *string             `json:"isbn" validate:"omitempty,isbn10or13"`
	PublishedYear *int                `json:"publishedYear"`
	Status        *AvailabilityStatus `json:"availabilityStatus" validate:"omitempty,oneof=Available Borrowed"`
}

// Apply returns a copy of b with the non-nil patch fields overlaid.
func (r UpdateBookRequest) Apply(b Book) Book {
	if r.Title != nil {
		b.Title = *r.Title
	}
	if r.Author != nil {
		b.Author = *r.Author
	}
	if r.ISBN != nil {
		b.ISBN = *r.ISBN
	}
	if r.PublishedYear != nil {
		b.PublishedYear = *r.PublishedYear
	}
	if r.Status != nil {
		b.Status = *r.Status
	}
	return b
}

type UpdateResult struct {
	Changed      bool
	EventEmitted bool
}

type BatchDeleteResult struct {
	DeletedIDs    []int64          `json:"deletedIds"`
	NotDeletedIDs []int64          `json:"notDeletedIds"`
	Reasons       map[int64]string `json:"reasons"`
}

const (
	ReasonNotFound = "Book does not exist"
	ReasonBorrowed = "Book is currently borrowed"
)

type SearchRequest struct {
	Text   string
	Year   *int
	Limit  int
	Offset int
}

type SearchResult struct {
	TotalCount int    `json:"totalCount"`
	Books      []Book `json:"books"`
}

// BookStatusEvent is the flat record appended to the book-status topic when
// a book transitions back to Available. bookId is string-encoded on the wire
// so consumers in any language can read the fields without a schema.
type BookStatusEvent struct {
	BookID    int64     `json:"bookId,string"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	Timestamp time.Time `json:"timestamp"`
	EventID   string    `json:"eventId"`
}

func NewBookStatusEvent(bookID int64, title, author string) BookStatusEvent {
	now := time.Now().UTC()
	return BookStatusEvent{
		BookID:    bookID,
		Title:     title,
		Author:    author,
		Timestamp: now,
		EventID:   fmt.Sprintf("book-status-%d-%d", bookID, now.UnixMilli()),
	}
}
