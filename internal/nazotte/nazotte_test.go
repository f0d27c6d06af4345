package nazotte

import (
	"context"
	"errors"
	"testing"

	"github.com/mohammed-shakir/isuumo/internal/core/model"
	"github.com/mohammed-shakir/isuumo/internal/geo"
)

type fakeSource struct {
	estates []model.Estate
	seen    int
	err     error
}

func (f *fakeSource) EstatesWithin(_ context.Context, bb geo.BoundingBox, fn func(model.Estate) bool) error {
	if f.err != nil {
		return f.err
	}
	for _, e := range f.estates {
		if !bb.Contains(model.Coordinate{Latitude: e.Latitude, Longitude: e.Longitude}) {
			continue
		}
		f.seen++
		if !fn(e) {
			return nil
		}
	}
	return nil
}

func triangle(t *testing.T) geo.Polygon {
	t.Helper()
	p, err := geo.NewPolygon([]model.Coordinate{
		{Latitude: 0, Longitude: 0},
		{Latitude: 10, Longitude: 0},
		{Latitude: 0, Longitude: 10},
	})
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestSearch_FiltersBoundingBoxCandidates(t *testing.T) {
	src := &fakeSource{estates: []model.Estate{
		{ID: 1, Latitude: 1, Longitude: 1},
		{ID: 2, Latitude: 9, Longitude: 9}, // in bbox, outside triangle
		{ID: 3, Latitude: 5, Longitude: 5}, // on hypotenuse
		{ID: 4, Latitude: 20, Longitude: 1},
	}}

	res, err := Search(context.Background(), src, triangle(t), Limit)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Count != 2 || len(res.Estates) != 2 {
		t.Fatalf("count=%d len=%d want 2", res.Count, len(res.Estates))
	}
	if res.Estates[0].ID != 1 || res.Estates[1].ID != 3 {
		t.Fatalf("ids=%d,%d want 1,3 in source order", res.Estates[0].ID, res.Estates[1].ID)
	}
}

func TestSearch_StopsAtLimit(t *testing.T) {
	src := &fakeSource{}
	for i := 0; i < 120; i++ {
		src.estates = append(src.estates, model.Estate{ID: int64(i), Latitude: 1, Longitude: 1})
	}

	res, err := Search(context.Background(), src, triangle(t), Limit)
	if err != nil {
		t.Fatal(err)
	}
	if res.Count != Limit {
		t.Fatalf("count=%d want %d", res.Count, Limit)
	}
	if src.seen != Limit {
		t.Fatalf("candidates read=%d want %d (early stop)", src.seen, Limit)
	}
}

func TestSearch_EmptyResultIsNotNil(t *testing.T) {
	res, err := Search(context.Background(), &fakeSource{}, triangle(t), 0)
	if err != nil {
		t.Fatal(err)
	}
	if res.Estates == nil || res.Count != 0 {
		t.Fatalf("res=%+v", res)
	}
}

func TestSearch_Errors(t *testing.T) {
	boom := errors.New("boom")
	if _, err := Search(context.Background(), &fakeSource{err: boom}, triangle(t), Limit); !errors.Is(err, boom) {
		t.Fatalf("err=%v want wrapped boom", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := &fakeSource{estates: []model.Estate{{ID: 1, Latitude: 1, Longitude: 1}}}
	if _, err := Search(ctx, src, triangle(t), Limit); !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v want context.Canceled", err)
	}
}
