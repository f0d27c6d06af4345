package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/mohammed-shakir/isuumo/internal/core/model"
	"github.com/mohammed-shakir/isuumo/internal/geo"
	"github.com/mohammed-shakir/isuumo/internal/search"
)

// RecommendedLimit caps the estates recommended for one chair.
const RecommendedLimit = 20

func scanEstate(r rowScanner) (model.Estate, error) {
	var e model.Estate
	err := r.Scan(&e.ID, &e.Name, &e.Description, &e.Thumbnail, &e.Address, &e.Latitude, &e.Longitude,
		&e.Rent, &e.DoorHeight, &e.DoorWidth, &e.Features, &e.Popularity)
	return e, err
}

// streamEstates calls fn for each row until fn returns false.
func (s *Store) streamEstates(ctx context.Context, b sq.SelectBuilder, fn func(model.Estate) bool) error {
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("build estate query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		e, err := scanEstate(rows)
		if err != nil {
			return fmt.Errorf("scan estate: %w", err)
		}
		if !fn(e) {
			return nil
		}
	}
	return rows.Err()
}

func (s *Store) queryEstates(ctx context.Context, b sq.SelectBuilder) ([]model.Estate, error) {
	out := make([]model.Estate, 0)
	err := s.streamEstates(ctx, b, func(e model.Estate) bool {
		out = append(out, e)
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// LowPricedEstates returns the cheapest estates ordered by rent then id.
func (s *Store) LowPricedEstates(ctx context.Context) (_ []model.Estate, err error) {
	start := time.Now()
	defer func() { observe("low_priced_estates", start, err) }()

	b := s.sb.Select(estateColumns...).From("estate").
		OrderBy("rent ASC", "id ASC").
		Limit(LowPricedLimit)
	return s.queryEstates(ctx, b)
}

func (s *Store) SearchEstates(ctx context.Context, q search.Query) (_ model.EstatePage, err error) {
	start := time.Now()
	defer func() { observe("search_estates", start, err) }()

	where := q.Where()
	countSQL, countArgs, err := s.sb.Select("COUNT(*)").From("estate").Where(where).ToSql()
	if err != nil {
		return model.EstatePage{}, fmt.Errorf("build estate count: %w", err)
	}
	var page model.EstatePage
	if err := s.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&page.Count); err != nil {
		return model.EstatePage{}, fmt.Errorf("count estates: %w", err)
	}

	b := s.sb.Select(estateColumns...).From("estate").Where(where).
		OrderBy(search.OrderBy...).
		Limit(q.Limit()).Offset(q.Offset())
	page.Estates, err = s.queryEstates(ctx, b)
	if err != nil {
		return model.EstatePage{}, fmt.Errorf("search estates: %w", err)
	}
	return page, nil
}

func (s *Store) Estate(ctx context.Context, id int64) (_ model.Estate, err error) {
	start := time.Now()
	defer func() { observe("get_estate", start, err) }()

	query, args, err := s.sb.Select(estateColumns...).From("estate").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return model.Estate{}, err
	}
	e, err := scanEstate(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Estate{}, ErrNotFound
	}
	if err != nil {
		return model.Estate{}, fmt.Errorf("get estate %d: %w", id, err)
	}
	return e, nil
}

// EstatesWithin streams estates inside bb, most popular first.
func (s *Store) EstatesWithin(ctx context.Context, bb geo.BoundingBox, fn func(model.Estate) bool) (err error) {
	start := time.Now()
	defer func() { observe("estates_within", start, err) }()

	b := s.sb.Select(estateColumns...).From("estate").
		Where(sq.And{
			sq.LtOrEq{"latitude": bb.BottomRight.Latitude},
			sq.GtOrEq{"latitude": bb.TopLeft.Latitude},
			sq.LtOrEq{"longitude": bb.BottomRight.Longitude},
			sq.GtOrEq{"longitude": bb.TopLeft.Longitude},
		}).
		OrderBy(search.OrderBy...)
	return s.streamEstates(ctx, b, fn)
}

// RecommendedEstates returns estates whose door admits the chair in any of
// the six orientations of its width, height and depth.
func (s *Store) RecommendedEstates(ctx context.Context, c model.Chair) (_ []model.Estate, err error) {
	start := time.Now()
	defer func() { observe("recommended_estates", start, err) }()

	w, h, d := c.Width, c.Height, c.Depth
	fits := func(a, b int64) sq.Sqlizer {
		return sq.And{sq.GtOrEq{"door_width": a}, sq.GtOrEq{"door_height": b}}
	}
	b := s.sb.Select(estateColumns...).From("estate").
		Where(sq.Or{fits(w, h), fits(w, d), fits(h, w), fits(h, d), fits(d, w), fits(d, h)}).
		OrderBy(search.OrderBy...).
		Limit(RecommendedLimit)
	return s.queryEstates(ctx, b)
}
