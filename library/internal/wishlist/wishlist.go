package wishlist

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// Resolver answers "which users want to hear about this book". It is a
// separate capability so the consumer's ack/isolation logic stays testable
// independently of where the answer comes from.
type Resolver interface {
	InterestedUsers(ctx context.Context, bookID int64) ([]int64, error)
}

type sqlResolver struct {
	db  *sqlx.DB
	log *zap.Logger
}

func NewSQLResolver(db *sqlx.DB, log *zap.Logger) *sqlResolver {
	return &sqlResolver{
		db:  db,
		log: log.Named("wishlist"),
	}
}

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func (r *sqlResolver) InterestedUsers(ctx context.Context, bookID int64) ([]int64, error) {
	query, args, err := qb.Select("user_id").
		From("wishlists").
		Where(sq.Eq{"book_id": bookID, "active": true}).
		OrderBy("user_id").
		ToSql()
	if err != nil {
		return nil, err
	}

	var users []int64
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, err
	}
	return users, nil
}

// Static resolves every book to the same fixed user set. It reproduces the
// placeholder behavior used before the wishlists relation existed and keeps
// the consumer runnable without a database.
type Static struct {
	Users []int64
}

func (s Static) InterestedUsers(context.Context, int64) ([]int64, error) {
	return s.Users, nil
}

func Placeholder() Static {
	return Static{Users: []int64{1001, 1002, 1003}}
}
