package fixture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mohammed-shakir/isuumo/internal/core/model"
	"github.com/mohammed-shakir/isuumo/internal/core/observability"
	"github.com/mohammed-shakir/isuumo/internal/importer"
)

// Target is the part of the record store a reload writes to.
type Target interface {
	Reset(ctx context.Context) error
	InsertChairs(ctx context.Context, chairs []model.Chair) error
	InsertEstates(ctx context.Context, estates []model.Estate) error
}

type Counts struct {
	Chairs  int
	Estates int
}

type Loader struct {
	Source Source
	Target Target
	Log    *slog.Logger
}

// Reload empties the store and imports estate.csv and chair.csv from the
// source. Missing files leave that table empty.
func (l *Loader) Reload(ctx context.Context) (Counts, error) {
	var counts Counts
	if err := l.Target.Reset(ctx); err != nil {
		return counts, fmt.Errorf("reset: %w", err)
	}

	n, err := l.load(ctx, EstateFile, func(ctx context.Context, rc io.Reader) (int, error) {
		estates, err := importer.ParseEstates(rc)
		if err != nil {
			return 0, err
		}
		return len(estates), l.Target.InsertEstates(ctx, estates)
	})
	if err != nil {
		return counts, err
	}
	counts.Estates = n
	observability.AddRowsImported("estate", n)

	n, err = l.load(ctx, ChairFile, func(ctx context.Context, rc io.Reader) (int, error) {
		chairs, err := importer.ParseChairs(rc)
		if err != nil {
			return 0, err
		}
		return len(chairs), l.Target.InsertChairs(ctx, chairs)
	})
	if err != nil {
		return counts, err
	}
	counts.Chairs = n
	observability.AddRowsImported("chair", n)

	l.logger().InfoContext(ctx, "fixture reloaded",
		"source", l.Source.String(), "chairs", counts.Chairs, "estates", counts.Estates)
	return counts, nil
}

func (l *Loader) load(ctx context.Context, name string, fn func(context.Context, io.Reader) (int, error)) (int, error) {
	rc, err := l.Source.Open(ctx, name)
	if errors.Is(err, ErrMissing) {
		l.logger().WarnContext(ctx, "fixture file missing, table left empty", "file", name, "source", l.Source.String())
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", name, err)
	}
	defer func() { _ = rc.Close() }()

	n, err := fn(ctx, rc)
	if err != nil {
		return 0, fmt.Errorf("load %s: %w", name, err)
	}
	return n, nil
}

func (l *Loader) logger() *slog.Logger {
	if l.Log == nil {
		return slog.Default()
	}
	return l.Log
}
