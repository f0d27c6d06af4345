// Package search turns search query parameters into validated SQL predicates.
package search

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/mohammed-shakir/isuumo/internal/catalog"
)

// ErrNoCondition is returned when a search carries no facet at all.
var ErrNoCondition = errors.New("search condition not found")

// ParamError names the query parameter that failed validation.
type ParamError struct {
	Param string
	Value string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("invalid %s: %q", e.Param, e.Value)
}

// Query is a validated search: AND-ed predicates plus paging.
type Query struct {
	Predicates []sq.Sqlizer
	Page       int64
	PerPage    int64
}

func (q Query) Where() sq.And {
	return sq.And(q.Predicates)
}

func (q Query) Offset() uint64 {
	return uint64(q.Page * q.PerPage)
}

// Limit is PerPage as the squirrel builder wants it.
func (q Query) Limit() uint64 {
	return uint64(q.PerPage)
}

// OrderBy is the fixed ordering of every search result page.
var OrderBy = []string{"popularity DESC", "id ASC"}

type rangeFacet struct {
	param  string
	column string
	cond   *catalog.RangeCondition
}

func ParseChairQuery(v url.Values, c *catalog.ChairSearchCondition) (Query, error) {
	var preds []sq.Sqlizer

	facets := []rangeFacet{
		{"priceRangeId", "price", &c.Price},
		{"heightRangeId", "height", &c.Height},
		{"widthRangeId", "width", &c.Width},
		{"depthRangeId", "depth", &c.Depth},
	}
	for _, f := range facets {
		p, err := rangePredicates(v.Get(f.param), f)
		if err != nil {
			return Query{}, err
		}
		preds = append(preds, p...)
	}

	if kind := v.Get("kind"); kind != "" {
		preds = append(preds, sq.Eq{"kind": kind})
	}
	if color := v.Get("color"); color != "" {
		preds = append(preds, sq.Eq{"color": color})
	}
	preds = append(preds, featurePredicates(v.Get("features"))...)

	if len(preds) == 0 {
		return Query{}, ErrNoCondition
	}
	preds = append(preds, sq.Gt{"stock": 0})

	return withPaging(v, preds)
}

func ParseEstateQuery(v url.Values, c *catalog.EstateSearchCondition) (Query, error) {
	var preds []sq.Sqlizer

	facets := []rangeFacet{
		{"doorHeightRangeId", "door_height", &c.DoorHeight},
		{"doorWidthRangeId", "door_width", &c.DoorWidth},
		{"rentRangeId", "rent", &c.Rent},
	}
	for _, f := range facets {
		p, err := rangePredicates(v.Get(f.param), f)
		if err != nil {
			return Query{}, err
		}
		preds = append(preds, p...)
	}
	preds = append(preds, featurePredicates(v.Get("features"))...)

	if len(preds) == 0 {
		return Query{}, ErrNoCondition
	}
	return withPaging(v, preds)
}

func rangePredicates(raw string, f rangeFacet) ([]sq.Sqlizer, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, &ParamError{Param: f.param, Value: raw}
	}
	r, ok := f.cond.Lookup(id)
	if !ok {
		return nil, &ParamError{Param: f.param, Value: raw}
	}

	var out []sq.Sqlizer
	if r.Min != catalog.Unbounded {
		out = append(out, sq.GtOrEq{f.column: r.Min})
	}
	if r.Max != catalog.Unbounded {
		out = append(out, sq.Lt{f.column: r.Max})
	}
	return out, nil
}

func featurePredicates(raw string) []sq.Sqlizer {
	if raw == "" {
		return nil
	}
	var out []sq.Sqlizer
	for _, f := range strings.Split(raw, ",") {
		out = append(out, sq.Like{"features": "%" + f + "%"})
	}
	return out
}

func withPaging(v url.Values, preds []sq.Sqlizer) (Query, error) {
	page, err := nonNegative(v, "page")
	if err != nil {
		return Query{}, err
	}
	perPage, err := nonNegative(v, "perPage")
	if err != nil {
		return Query{}, err
	}
	if perPage > 0 && page > math.MaxInt64/perPage {
		return Query{}, &ParamError{Param: "page", Value: v.Get("page")}
	}
	return Query{Predicates: preds, Page: page, PerPage: perPage}, nil
}

func nonNegative(v url.Values, name string) (int64, error) {
	raw := v.Get(name)
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		return 0, &ParamError{Param: name, Value: raw}
	}
	return n, nil
}
