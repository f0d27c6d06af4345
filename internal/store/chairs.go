package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/mohammed-shakir/isuumo/internal/core/model"
	"github.com/mohammed-shakir/isuumo/internal/core/observability"
	"github.com/mohammed-shakir/isuumo/internal/search"
)

// LowPricedLimit is the size of both low-priced listings.
const LowPricedLimit = 20

func scanChair(r rowScanner) (model.Chair, error) {
	var c model.Chair
	err := r.Scan(&c.ID, &c.Name, &c.Description, &c.Thumbnail, &c.Price, &c.Height, &c.Width,
		&c.Depth, &c.Color, &c.Features, &c.Kind, &c.Popularity, &c.Stock)
	return c, err
}

func (s *Store) queryChairs(ctx context.Context, b sq.SelectBuilder) ([]model.Chair, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build chair query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := make([]model.Chair, 0)
	for rows.Next() {
		c, err := scanChair(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chair: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// LowPricedChairs returns in-stock chairs ordered by price then id.
func (s *Store) LowPricedChairs(ctx context.Context) (_ []model.Chair, err error) {
	start := time.Now()
	defer func() { observe("low_priced_chairs", start, err) }()

	b := s.sb.Select(chairColumns...).From("chair").
		Where(sq.Gt{"stock": 0}).
		OrderBy("price ASC", "id ASC").
		Limit(LowPricedLimit)
	return s.queryChairs(ctx, b)
}

func (s *Store) SearchChairs(ctx context.Context, q search.Query) (_ model.ChairPage, err error) {
	start := time.Now()
	defer func() { observe("search_chairs", start, err) }()

	where := q.Where()
	countSQL, countArgs, err := s.sb.Select("COUNT(*)").From("chair").Where(where).ToSql()
	if err != nil {
		return model.ChairPage{}, fmt.Errorf("build chair count: %w", err)
	}
	var page model.ChairPage
	if err := s.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&page.Count); err != nil {
		return model.ChairPage{}, fmt.Errorf("count chairs: %w", err)
	}

	b := s.sb.Select(chairColumns...).From("chair").Where(where).
		OrderBy(search.OrderBy...).
		Limit(q.Limit()).Offset(q.Offset())
	page.Chairs, err = s.queryChairs(ctx, b)
	if err != nil {
		return model.ChairPage{}, fmt.Errorf("search chairs: %w", err)
	}
	return page, nil
}

// Chair returns the chair with id regardless of stock.
func (s *Store) Chair(ctx context.Context, id int64) (_ model.Chair, err error) {
	start := time.Now()
	defer func() { observe("get_chair", start, err) }()

	query, args, err := s.sb.Select(chairColumns...).From("chair").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return model.Chair{}, err
	}
	c, err := scanChair(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Chair{}, ErrNotFound
	}
	if err != nil {
		return model.Chair{}, fmt.Errorf("get chair %d: %w", id, err)
	}
	return c, nil
}

// BuyChair takes one unit of stock. A missing or sold-out chair is ErrNotFound.
func (s *Store) BuyChair(ctx context.Context, id int64) (err error) {
	start := time.Now()
	defer func() {
		observe("buy_chair", start, err)
		switch {
		case err == nil:
			observability.IncPurchase("ok")
		case errors.Is(err, ErrNotFound):
			observability.IncPurchase("sold_out")
		default:
			observability.IncPurchase("error")
		}
	}()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("buy begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query, args, err := s.lockChairQuery(id)
	if err != nil {
		return err
	}
	var locked int64
	if err = tx.QueryRowContext(ctx, query, args...).Scan(&locked); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrNotFound
			return err
		}
		return fmt.Errorf("lock chair %d: %w", id, err)
	}

	query, args, err = s.sb.Update("chair").
		Set("stock", sq.Expr("stock - 1")).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("decrement chair %d: %w", id, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("buy commit: %w", err)
	}
	return nil
}

// lockChairQuery selects an in-stock chair, row-locked where the dialect
// supports it, so concurrent buyers serialize on the row.
func (s *Store) lockChairQuery(id int64) (string, []any, error) {
	sel := s.sb.Select("id").From("chair").Where(sq.And{sq.Eq{"id": id}, sq.Gt{"stock": 0}})
	if s.d.lockSuffix != "" {
		sel = sel.Suffix(s.d.lockSuffix)
	}
	return sel.ToSql()
}
