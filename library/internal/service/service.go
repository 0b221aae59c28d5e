package service

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trivedii/library-management-api/library/internal/errs"
	"github.com/trivedii/library-management-api/library/internal/model"
	"github.com/trivedii/library-management-api/library/internal/publisher"
	"github.com/trivedii/library-management-api/library/internal/repository"
	"go.uber.org/zap"
)

const maxBatchDeleteSize = 100

// earliest plausible publication year, roughly the printing press.
const minPublishedYear = 1450

type Service struct {
	log  *zap.Logger
	repo repository.Repository
	pub  publisher.EventPublisher
}

func NewService(repo repository.Repository, pub publisher.EventPublisher, log *zap.Logger) *Service {
	return &Service{
		log:  log,
		repo: repo,
		pub:  pub,
	}
}

func (s *Service) CreateBook(ctx context.Context, req model.CreateBookRequest) (int64, error) {
	if err := validatePublishedYear(req.PublishedYear); err != nil {
		return 0, err
	}
	exists, err := s.repo.IsbnExists(ctx, req.ISBN)
	if err != nil {
		return 0, err
	}
	if exists {
		return 0, errs.ErrDuplicateISBN
	}

	return s.repo.CreateBook(ctx, model.Book{
		Title:         req.Title,
		Author:        req.Author,
		ISBN:          req.ISBN,
		PublishedYear: req.PublishedYear,
		Status:        req.Status,
	})
}

// UpdateBook applies a partial patch to an existing book. An unchanged
// payload is reported as Changed=false without touching the store. A
// Borrowed->Available transition appends a status fact to the event log;
// the append happens after the row is committed, so a publish failure is
// returned as ErrEventPublish while the result still says the row changed.
func (s *Service) UpdateBook(ctx context.Context, req model.UpdateBookRequest) (model.UpdateResult, error) {
	if req.PublishedYear != nil {
		if err := validatePublishedYear(*req.PublishedYear); err != nil {
			return model.UpdateResult{}, err
		}
	}

	book, err := s.repo.GetBook(ctx, req.ID)
	if err != nil {
		return model.UpdateResult{}, err
	}

	if req.ISBN != nil && *req.ISBN != book.ISBN {
		exists, err := s.repo.IsbnExists(ctx, *req.ISBN)
		if err != nil {
			return model.UpdateResult{}, err
		}
		if exists {
			return model.UpdateResult{}, errs.ErrDuplicateISBN
		}
	}

	updated := req.Apply(book)
	if updated == book {
		return model.UpdateResult{Changed: false}, nil
	}

	if err := s.repo.UpdateBook(ctx, updated, book); err != nil {
		return model.UpdateResult{}, err
	}

	res := model.UpdateResult{Changed: true}
	if book.Status == model.StatusBorrowed && updated.Status == model.StatusAvailable {
		// the fact carries the pre-update title/author snapshot
		event := model.NewBookStatusEvent(book.ID, book.Title, book.Author)
		if _, err := s.pub.Publish(ctx, event); err != nil {
			return res, errors.Wrap(errs.ErrEventPublish, err.Error())
		}
		res.EventEmitted = true
	}
	return res, nil
}

func (s *Service) DeleteBook(ctx context.Context, id int64) error {
	book, err := s.repo.GetBook(ctx, id)
	if err != nil {
		return err
	}
	if book.Status == model.StatusBorrowed {
		return errs.ErrBookBorrowed
	}
	if err := s.repo.DeleteBook(ctx, id); err != nil {
		if errors.Is(err, errs.ErrConflict) {
			// the row changed between the read and the write; report what
			// it became
			book, gerr := s.repo.GetBook(ctx, id)
			if gerr != nil {
				return gerr
			}
			if book.Status == model.StatusBorrowed {
				return errs.ErrBookBorrowed
			}
		}
		return err
	}
	return nil
}

// DeleteBooks classifies every requested id against one snapshot read and
// soft-deletes all eligible books with a single bulk write. Individual bad
// ids never fail the call; they come back with a reason instead.
func (s *Service) DeleteBooks(ctx context.Context, ids []int64) (model.BatchDeleteResult, error) {
	ids = dedupe(ids)
	if len(ids) > maxBatchDeleteSize {
		return model.BatchDeleteResult{}, errs.ErrTooManyIDs
	}

	books, err := s.repo.FetchBooksByIDs(ctx, ids)
	if err != nil {
		return model.BatchDeleteResult{}, err
	}
	existing := make(map[int64]model.Book, len(books))
	for _, b := range books {
		existing[b.ID] = b
	}

	res := model.BatchDeleteResult{
		DeletedIDs:    []int64{},
		NotDeletedIDs: []int64{},
		Reasons:       map[int64]string{},
	}
	for _, id := range ids {
		book, ok := existing[id]
		switch {
		case !ok:
			res.NotDeletedIDs = append(res.NotDeletedIDs, id)
			res.Reasons[id] = model.ReasonNotFound
		case book.Status == model.StatusBorrowed:
			res.NotDeletedIDs = append(res.NotDeletedIDs, id)
			res.Reasons[id] = model.ReasonBorrowed
		default:
			res.DeletedIDs = append(res.DeletedIDs, id)
		}
	}

	if len(res.DeletedIDs) > 0 {
		n, err := s.repo.RemoveBooks(ctx, res.DeletedIDs)
		if err != nil {
			return model.BatchDeleteResult{}, err
		}
		if n != int64(len(res.DeletedIDs)) {
			s.log.Warn("batch delete removed fewer rows than classified",
				zap.Int64("removed", n), zap.Int("classified", len(res.DeletedIDs)))
		}
	}
	return res, nil
}

func (s *Service) SearchBooks(ctx context.Context, req model.SearchRequest) (model.SearchResult, error) {
	if err := validateSearchRequest(&req); err != nil {
		return model.SearchResult{}, err
	}

	books, err := s.repo.SearchBooks(ctx, req)
	if err != nil {
		return model.SearchResult{}, err
	}
	if books == nil {
		books = []model.Book{}
	}
	return model.SearchResult{
		TotalCount: len(books),
		Books:      books,
	}, nil
}

func validatePublishedYear(year int) error {
	if year < minPublishedYear || year > time.Now().Year() {
		return errors.Wrapf(errs.ErrInvalidData, "invalid year %d", year)
	}
	return nil
}

// validateSearchRequest trims the search text in place. Empty text is legal
// ("no text filter"); 1-2 characters is not. The year filter is not
// plausibility-checked here: an implausible year just matches nothing.
func validateSearchRequest(req *model.SearchRequest) error {
	req.Text = strings.TrimSpace(req.Text)
	if n := len(req.Text); n > 0 && n < 3 {
		return errors.Wrap(errs.ErrInvalidData, "search text must be at least 3 characters")
	} else if n > 255 {
		return errors.Wrap(errs.ErrInvalidData, "search text must be less than 255 characters")
	}
	if req.Limit < 1 || req.Limit > 100 {
		return errors.Wrap(errs.ErrInvalidData, "limit must be between 1 and 100")
	}
	if req.Offset < 0 {
		return errors.Wrap(errs.ErrInvalidData, "offset must not be negative")
	}
	return nil
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
