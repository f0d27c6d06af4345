package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/mohammed-shakir/isuumo/internal/core/model"
)

// insertBatch bounds the rows of one multi-row INSERT so the bound parameter
// count stays well under both drivers' limits.
const insertBatch = 500

// InsertChairs stores all chairs in one transaction. Nothing is stored on error.
func (s *Store) InsertChairs(ctx context.Context, chairs []model.Chair) (err error) {
	start := time.Now()
	defer func() { observe("insert_chairs", start, err) }()

	return s.inTx(ctx, func(tx *sql.Tx) error {
		for lo := 0; lo < len(chairs); lo += insertBatch {
			hi := min(lo+insertBatch, len(chairs))
			b := s.sb.Insert("chair").Columns(chairColumns...)
			for _, c := range chairs[lo:hi] {
				b = b.Values(c.ID, c.Name, c.Description, c.Thumbnail, c.Price, c.Height, c.Width,
					c.Depth, c.Color, c.Features, c.Kind, c.Popularity, c.Stock)
			}
			if err := execInsert(ctx, tx, b); err != nil {
				return fmt.Errorf("insert chairs %d-%d: %w", lo, hi, err)
			}
		}
		return nil
	})
}

func (s *Store) InsertEstates(ctx context.Context, estates []model.Estate) (err error) {
	start := time.Now()
	defer func() { observe("insert_estates", start, err) }()

	return s.inTx(ctx, func(tx *sql.Tx) error {
		for lo := 0; lo < len(estates); lo += insertBatch {
			hi := min(lo+insertBatch, len(estates))
			b := s.sb.Insert("estate").Columns(estateColumns...)
			for _, e := range estates[lo:hi] {
				b = b.Values(e.ID, e.Name, e.Description, e.Thumbnail, e.Address, e.Latitude, e.Longitude,
					e.Rent, e.DoorHeight, e.DoorWidth, e.Features, e.Popularity)
			}
			if err := execInsert(ctx, tx, b); err != nil {
				return fmt.Errorf("insert estates %d-%d: %w", lo, hi, err)
			}
		}
		return nil
	})
}

func execInsert(ctx context.Context, tx *sql.Tx, b sq.InsertBuilder) error {
	query, args, err := b.ToSql()
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, query, args...)
	return err
}

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
