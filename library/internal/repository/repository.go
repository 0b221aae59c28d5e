package repository

import (
	"context"
	"database/sql"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"

	sq "github.com/Masterminds/squirrel"

	"github.com/jmoiron/sqlx"
	"github.com/trivedii/library-management-api/library/internal/errs"
	"github.com/trivedii/library-management-api/library/internal/model"
	"go.uber.org/zap"
)

//go:generate go run github.com/golang/mock/mockgen -source=repository.go -destination=mocks/mock.go

type Repository interface {
	CreateBook(ctx context.Context, book model.Book) (int64, error)
	GetBook(ctx context.Context, id int64) (model.Book, error)
	UpdateBook(ctx context.Context, updated, prev model.Book) error
	DeleteBook(ctx context.Context, id int64) error
	RemoveBooks(ctx context.Context, ids []int64) (int64, error)
	FetchBooksByIDs(ctx context.Context, ids []int64) ([]model.Book, error)
	SearchBooks(ctx context.Context, req model.SearchRequest) ([]model.Book, error)
	IsbnExists(ctx context.Context, isbn string) (bool, error)
}

type repository struct {
	db  *sqlx.DB
	log *zap.Logger
}

func NewRepository(db *sqlx.DB, log *zap.Logger) (*repository, error) {
	return &repository{
		db:  db,
		log: log.Named("repo"),
	}, nil
}

const booksTableName = `books`

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var bookColumns = []string{"id", "title", "author", "isbn", "published_year", "availability_status", "is_deleted"}

func (r *repository) CreateBook(ctx context.Context, book model.Book) (int64, error) {
	query, args, err := qb.Insert(booksTableName).
		Columns("title", "author", "isbn", "published_year", "availability_status").
		Values(book.Title, book.Author, book.ISBN, book.PublishedYear, book.Status).
		Suffix("returning id").
		ToSql()
	if err != nil {
		return 0, err
	}

	var id int64
	if err := r.db.GetContext(ctx, &id, query, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return 0, errs.ErrDuplicateISBN
		}
		r.log.Error("CreateBook", zap.String("q", query), zap.Any("args", args))
		return 0, err
	}
	return id, nil
}

func (r *repository) GetBook(ctx context.Context, id int64) (model.Book, error) {
	query, args, err := qb.Select(bookColumns...).
		From(booksTableName).
		Where(sq.Eq{"id": id, "is_deleted": false}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}

	var book model.Book
	if err := r.db.GetContext(ctx, &book, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Book{}, errs.ErrNotFound
		}
		return model.Book{}, err
	}
	return book, nil
}

// UpdateBook writes the new field values guarded by the previously fetched
// ones, so a concurrent writer makes the update fail with ErrConflict
// instead of being silently overwritten.
func (r *repository) UpdateBook(ctx context.Context, updated, prev model.Book) error {
	query, args, err := qb.Update(booksTableName).
		Set("title", updated.Title).
		Set("author", updated.Author).
		Set("isbn", updated.ISBN).
		Set("published_year", updated.PublishedYear).
		Set("availability_status", updated.Status).
		Where(sq.Eq{
			"id":                  prev.ID,
			"is_deleted":          false,
			"title":               prev.Title,
			"author":              prev.Author,
			"isbn":                prev.ISBN,
			"published_year":      prev.PublishedYear,
			"availability_status": prev.Status,
		}).
		ToSql()
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return errs.ErrDuplicateISBN
		}
		r.log.Error("UpdateBook", zap.String("q", query), zap.Any("args", args))
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.ErrConflict
	}
	return nil
}

// DeleteBook soft-deletes a single book. The guard re-validates eligibility
// at write time; zero affected rows means the book was borrowed or deleted
// after the caller's check, reported as ErrConflict for the caller to
// classify against a fresh read.
func (r *repository) DeleteBook(ctx context.Context, id int64) error {
	query, args, err := qb.Update(booksTableName).
		Set("is_deleted", true).
		Where(sq.Eq{"id": id, "is_deleted": false, "availability_status": model.StatusAvailable}).
		ToSql()
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.ErrConflict
	}
	return nil
}

// RemoveBooks soft-deletes all eligible ids in a single statement.
func (r *repository) RemoveBooks(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := qb.Update(booksTableName).
		Set("is_deleted", true).
		Where(sq.Eq{"id": ids, "is_deleted": false, "availability_status": model.StatusAvailable}).
		ToSql()
	if err != nil {
		return 0, err
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.log.Error("RemoveBooks", zap.String("q", query), zap.Any("args", args))
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (r *repository) FetchBooksByIDs(ctx context.Context, ids []int64) ([]model.Book, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := qb.Select(bookColumns...).
		From(booksTableName).
		Where(sq.Eq{"id": ids, "is_deleted": false}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var books []model.Book
	if err := r.db.SelectContext(ctx, &books, query, args...); err != nil {
		return nil, err
	}
	return books, nil
}

func (r *repository) SearchBooks(ctx context.Context, req model.SearchRequest) ([]model.Book, error) {
	q := qb.Select(bookColumns...).
		From(booksTableName).
		Where(sq.Eq{"is_deleted": false})

	if req.Text != "" {
		q = q.Where("to_tsvector('simple', title || ' ' || author) @@ plainto_tsquery('simple', ?)", req.Text)
	}
	if req.Year != nil {
		q = q.Where(sq.Eq{"published_year": *req.Year})
	}

	query, args, err := q.OrderBy("id").
		Limit(uint64(req.Limit)).
		Offset(uint64(req.Offset)).
		ToSql()
	if err != nil {
		return nil, err
	}
	r.log.Debug("SearchBooks", zap.String("query", query), zap.Any("args", args))

	var books []model.Book
	if err := r.db.SelectContext(ctx, &books, query, args...); err != nil {
		return nil, err
	}
	return books, nil
}

func (r *repository) IsbnExists(ctx context.Context, isbn string) (bool, error) {
	q := `
select exists (
	select 1 from books
	where isbn = $1 and not is_deleted
)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, q, isbn).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}
