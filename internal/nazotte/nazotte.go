// Package nazotte answers "estates inside this hand-drawn polygon" queries:
// a bounding-box prefilter in the store followed by an exact polygon test.
package nazotte

import (
	"context"
	"fmt"

	"github.com/mohammed-shakir/isuumo/internal/core/model"
	"github.com/mohammed-shakir/isuumo/internal/core/observability"
	"github.com/mohammed-shakir/isuumo/internal/geo"
)

// Limit is the maximum number of estates one polygon search returns.
const Limit = 50

// CandidateSource streams estates inside bb ordered by popularity DESC, id ASC.
// Streaming stops when fn returns false.
type CandidateSource interface {
	EstatesWithin(ctx context.Context, bb geo.BoundingBox, fn func(model.Estate) bool) error
}

type Result struct {
	Estates []model.Estate `json:"estates"`
	Count   int64          `json:"count"`
}

func Search(ctx context.Context, src CandidateSource, poly geo.Polygon, limit int) (Result, error) {
	if limit <= 0 {
		limit = Limit
	}

	res := Result{Estates: make([]model.Estate, 0, limit)}
	candidates := 0
	var ctxErr error

	err := src.EstatesWithin(ctx, poly.BoundingBox(), func(e model.Estate) bool {
		if ctxErr = ctx.Err(); ctxErr != nil {
			return false
		}
		candidates++
		if poly.Contains(model.Coordinate{Latitude: e.Latitude, Longitude: e.Longitude}) {
			res.Estates = append(res.Estates, e)
		}
		return len(res.Estates) < limit
	})
	if err != nil {
		return Result{}, fmt.Errorf("nazotte candidates: %w", err)
	}
	if ctxErr != nil {
		return Result{}, ctxErr
	}

	res.Count = int64(len(res.Estates))
	observability.ObserveNazotte(candidates, len(res.Estates))
	return res, nil
}
