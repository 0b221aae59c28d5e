package model_test

import (
	"encoding/json"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trivedii/library-management-api/library/internal/model"
)

func TestUpdateBookRequest_Apply(t *testing.T) {
	t.Parallel()
	book := model.Book{
		ID:            1,
		Title:         "Dune",
		Author:        "Frank Herbert",
		ISBN:          "0441013597",
		PublishedYear: 1965,
		Status:        model.StatusBorrowed,
	}

	title := "Dune Messiah"
	status := model.StatusAvailable
	patched := model.UpdateBookRequest{ID: 1, Title: &title, Status: &status}.Apply(book)

	require.Equal(t, "Dune Messiah", patched.Title)
	require.Equal(t, model.StatusAvailable, patched.Status)
	// omitted fields stay as stored
	require.Equal(t, book.Author, patched.Author)
	require.Equal(t, book.ISBN, patched.ISBN)
	require.Equal(t, book.PublishedYear, patched.PublishedYear)

	// an empty patch reproduces the row exactly
	require.Equal(t, book, model.UpdateBookRequest{ID: 1}.Apply(book))
}

func TestBookStatusEvent_WireFormat(t *testing.T) {
	t.Parallel()
	event := model.NewBookStatusEvent(42, "Dune", "Frank Herbert")
	require.Regexp(t, regexp.MustCompile(`^book-status-42-\d+$`), event.EventID)

	data, err := json.Marshal(event)
	require.NoError(t, err)

	var fields map[string]string
	require.NoError(t, json.Unmarshal(data, &fields))
	require.Equal(t, "42", fields["bookId"])
	require.Equal(t, "Dune", fields["title"])
	require.Equal(t, "Frank Herbert", fields["author"])
	require.NotEmpty(t, fields["timestamp"])

	var decoded model.BookStatusEvent
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, event.BookID, decoded.BookID)
	require.Equal(t, event.EventID, decoded.EventID)
}
