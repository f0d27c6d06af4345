package store

import (
	"context"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"testing"

	sq "github.com/Masterminds/squirrel"

	"github.com/mohammed-shakir/isuumo/internal/catalog"
	"github.com/mohammed-shakir/isuumo/internal/core/model"
	"github.com/mohammed-shakir/isuumo/internal/geo"
	"github.com/mohammed-shakir/isuumo/internal/search"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), Config{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "isuumo.db"),
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func chair(id, price, popularity, stock int64) model.Chair {
	return model.Chair{
		ID: id, Name: "chair", Description: "d", Thumbnail: "/t.png",
		Price: price, Height: 100, Width: 50, Depth: 60,
		Color: "黒", Features: "肘掛け付き", Kind: "座椅子",
		Popularity: popularity, Stock: stock,
	}
}

func estate(id, rent, popularity int64, lat, lon float64) model.Estate {
	return model.Estate{
		ID: id, Name: "estate", Description: "d", Thumbnail: "/t.png", Address: "Tokyo",
		Latitude: lat, Longitude: lon, Rent: rent, DoorHeight: 100, DoorWidth: 100,
		Features: "駐車場あり", Popularity: popularity,
	}
}

func ids[T any](items []T, id func(T) int64) []int64 {
	out := make([]int64, 0, len(items))
	for _, it := range items {
		out = append(out, id(it))
	}
	return out
}

func chairID(c model.Chair) int64   { return c.ID }
func estateID(e model.Estate) int64 { return e.ID }

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	if _, err := Open(context.Background(), Config{Driver: "mysql"}); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestLowPricedChairs_InStockCheapestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var chairs []model.Chair
	for i := int64(1); i <= 25; i++ {
		chairs = append(chairs, chair(i, 1000+i*10, 0, 1))
	}
	chairs = append(chairs,
		chair(100, 1, 0, 0), // cheapest but sold out
		chair(101, 1010, 0, 5),
	)
	if err := s.InsertChairs(ctx, chairs); err != nil {
		t.Fatalf("InsertChairs: %v", err)
	}

	got, err := s.LowPricedChairs(ctx)
	if err != nil {
		t.Fatalf("LowPricedChairs: %v", err)
	}
	if len(got) != LowPricedLimit {
		t.Fatalf("len=%d want %d", len(got), LowPricedLimit)
	}
	// price 1010 ties between id 1 and 101; id breaks the tie
	if got[0].ID != 1 || got[1].ID != 101 || got[2].ID != 2 {
		t.Fatalf("head=%v", ids(got[:3], chairID))
	}
	for _, c := range got {
		if c.Stock <= 0 {
			t.Fatalf("sold out chair %d listed", c.ID)
		}
	}
}

func TestLowPricedEstates_RentThenID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.InsertEstates(ctx, []model.Estate{
		estate(3, 50000, 0, 35, 139),
		estate(1, 70000, 0, 35, 139),
		estate(2, 50000, 0, 35, 139),
	}); err != nil {
		t.Fatal(err)
	}
	got, err := s.LowPricedEstates(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if want := []int64{2, 3, 1}; !equalIDs(ids(got, estateID), want) {
		t.Fatalf("ids=%v want %v", ids(got, estateID), want)
	}
}

func TestSearchChairs_CountAndPaging(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	cat, err := catalog.Load("")
	if err != nil {
		t.Fatal(err)
	}

	if err := s.InsertChairs(ctx, []model.Chair{
		chair(1, 3000, 10, 1),
		chair(2, 5999, 30, 1),
		chair(3, 4000, 30, 1),
		chair(4, 6000, 99, 1), // outside bucket
		chair(5, 4500, 50, 0), // sold out
		chair(6, 3500, 20, 1),
	}); err != nil {
		t.Fatal(err)
	}

	v := url.Values{"priceRangeId": {"1"}, "page": {"0"}, "perPage": {"2"}}
	q, err := search.ParseChairQuery(v, &cat.Chair)
	if err != nil {
		t.Fatal(err)
	}
	page, err := s.SearchChairs(ctx, q)
	if err != nil {
		t.Fatalf("SearchChairs: %v", err)
	}
	if page.Count != 4 {
		t.Fatalf("count=%d want 4", page.Count)
	}
	if want := []int64{2, 3}; !equalIDs(ids(page.Chairs, chairID), want) {
		t.Fatalf("page0=%v want %v", ids(page.Chairs, chairID), want)
	}

	v.Set("page", "1")
	q, _ = search.ParseChairQuery(v, &cat.Chair)
	page, err = s.SearchChairs(ctx, q)
	if err != nil {
		t.Fatal(err)
	}
	if want := []int64{6, 1}; !equalIDs(ids(page.Chairs, chairID), want) {
		t.Fatalf("page1=%v want %v", ids(page.Chairs, chairID), want)
	}

	v.Set("page", "5")
	q, _ = search.ParseChairQuery(v, &cat.Chair)
	page, err = s.SearchChairs(ctx, q)
	if err != nil {
		t.Fatal(err)
	}
	if page.Count != 4 || page.Chairs == nil || len(page.Chairs) != 0 {
		t.Fatalf("past end page=%+v", page)
	}
}

func TestSearchEstates_FeaturesAnded(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	cat, err := catalog.Load("")
	if err != nil {
		t.Fatal(err)
	}

	a := estate(1, 1, 1, 0, 0)
	a.Features = "駐車場あり,バス・トイレ別"
	b := estate(2, 1, 2, 0, 0)
	b.Features = "駐車場あり"
	if err := s.InsertEstates(ctx, []model.Estate{a, b}); err != nil {
		t.Fatal(err)
	}

	v := url.Values{"features": {"駐車場あり,バス・トイレ別"}, "page": {"0"}, "perPage": {"10"}}
	q, err := search.ParseEstateQuery(v, &cat.Estate)
	if err != nil {
		t.Fatal(err)
	}
	page, err := s.SearchEstates(ctx, q)
	if err != nil {
		t.Fatal(err)
	}
	if page.Count != 1 || page.Estates[0].ID != 1 {
		t.Fatalf("page=%+v", page)
	}
}

func TestChairAndEstate_NotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Chair(ctx, 42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("chair err=%v want ErrNotFound", err)
	}
	if _, err := s.Estate(ctx, 42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("estate err=%v want ErrNotFound", err)
	}
}

func TestBuyChair_DecrementsUntilSoldOut(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.InsertChairs(ctx, []model.Chair{chair(1, 100, 0, 1)}); err != nil {
		t.Fatal(err)
	}
	if err := s.BuyChair(ctx, 1); err != nil {
		t.Fatalf("first buy: %v", err)
	}
	c, err := s.Chair(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if c.Stock != 0 {
		t.Fatalf("stock=%d want 0", c.Stock)
	}
	if err := s.BuyChair(ctx, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second buy err=%v want ErrNotFound", err)
	}
	if err := s.BuyChair(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing chair err=%v want ErrNotFound", err)
	}
}

func TestBuyChair_ConcurrentBuyersNeverOversell(t *testing.T) {
	assertNoOversell(t, newTestStore(t))
}

// Set ISUUMO_TEST_POSTGRES_DSN to run the buyers against Postgres, where
// transactions really overlap and only the row lock keeps stock consistent.
func TestBuyChair_ConcurrentBuyersNeverOversell_Postgres(t *testing.T) {
	dsn := os.Getenv("ISUUMO_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("ISUUMO_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	s, err := Open(ctx, Config{Driver: "postgres", DSN: dsn, MaxOpenConns: 16})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	if err := s.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	assertNoOversell(t, s)
}

func TestLockChairQuery_Dialects(t *testing.T) {
	tests := []struct {
		driver string
		want   string
	}{
		{"postgres", "SELECT id FROM chair WHERE (id = $1 AND stock > $2) FOR UPDATE"},
		{"sqlite", "SELECT id FROM chair WHERE (id = ? AND stock > ?)"},
	}
	for _, tc := range tests {
		d := dialects[tc.driver]
		s := &Store{d: d, sb: sq.StatementBuilder.PlaceholderFormat(d.placeholder)}
		query, args, err := s.lockChairQuery(7)
		if err != nil {
			t.Fatalf("%s: %v", tc.driver, err)
		}
		if query != tc.want {
			t.Fatalf("%s query=%q want %q", tc.driver, query, tc.want)
		}
		if len(args) != 2 || args[0] != int64(7) || args[1] != 0 {
			t.Fatalf("%s args=%v want [7 0]", tc.driver, args)
		}
	}
}

func assertNoOversell(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()

	const stock, buyers = 3, 12
	if err := s.InsertChairs(ctx, []model.Chair{chair(7, 100, 0, stock)}); err != nil {
		t.Fatal(err)
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, gone int
		other    []error
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.BuyChair(ctx, 7)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, ErrNotFound):
				gone++
			default:
				other = append(other, err)
			}
		}()
	}
	wg.Wait()

	if len(other) != 0 {
		t.Fatalf("unexpected errors: %v", other)
	}
	if ok != stock || gone != buyers-stock {
		t.Fatalf("ok=%d gone=%d want %d,%d", ok, gone, stock, buyers-stock)
	}
	c, err := s.Chair(ctx, 7)
	if err != nil {
		t.Fatal(err)
	}
	if c.Stock != 0 {
		t.Fatalf("stock=%d want 0", c.Stock)
	}
}

func TestEstatesWithin_BoundingBoxAndEarlyStop(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.InsertEstates(ctx, []model.Estate{
		estate(1, 1, 10, 35.5, 139.5),
		estate(2, 1, 30, 35.6, 139.6),
		estate(3, 1, 30, 35.0, 139.5), // outside
		estate(4, 1, 20, 36.0, 140.0), // on the corner
	}); err != nil {
		t.Fatal(err)
	}

	bb := geo.BoundingBox{
		TopLeft:     model.Coordinate{Latitude: 35.4, Longitude: 139.4},
		BottomRight: model.Coordinate{Latitude: 36.0, Longitude: 140.0},
	}
	var seen []int64
	if err := s.EstatesWithin(ctx, bb, func(e model.Estate) bool {
		seen = append(seen, e.ID)
		return true
	}); err != nil {
		t.Fatal(err)
	}
	if want := []int64{2, 4, 1}; !equalIDs(seen, want) {
		t.Fatalf("seen=%v want %v", seen, want)
	}

	seen = nil
	if err := s.EstatesWithin(ctx, bb, func(e model.Estate) bool {
		seen = append(seen, e.ID)
		return false
	}); err != nil {
		t.Fatal(err)
	}
	if len(seen) != 1 {
		t.Fatalf("early stop read %d rows", len(seen))
	}

	// the connection must be free again after an early stop
	if _, err := s.Estate(ctx, 1); err != nil {
		t.Fatalf("Estate after early stop: %v", err)
	}
}

func TestRecommendedEstates_AnyOrientation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	door := func(id, w, h, pop int64) model.Estate {
		e := estate(id, 1, pop, 0, 0)
		e.DoorWidth, e.DoorHeight = w, h
		return e
	}
	if err := s.InsertEstates(ctx, []model.Estate{
		door(1, 60, 130, 1), // width x height
		door(2, 130, 60, 2), // height x width
		door(3, 50, 200, 3), // too narrow for every orientation
		door(4, 200, 40, 4), // too low for every orientation
		door(5, 60, 70, 5),  // width x depth
	}); err != nil {
		t.Fatal(err)
	}

	c := model.Chair{Width: 60, Height: 120, Depth: 70}
	got, err := s.RecommendedEstates(ctx, c)
	if err != nil {
		t.Fatalf("RecommendedEstates: %v", err)
	}
	if want := []int64{5, 2, 1}; !equalIDs(ids(got, estateID), want) {
		t.Fatalf("ids=%v want %v", ids(got, estateID), want)
	}
}

func TestInsertChairs_AtomicOnFailure(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.InsertChairs(ctx, []model.Chair{chair(1, 1, 1, 1), chair(1, 2, 2, 2)})
	if err == nil {
		t.Fatal("expected duplicate key error")
	}
	if _, err := s.Chair(ctx, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("partial insert left rows behind: %v", err)
	}
}

func TestInsert_LargeBatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	chairs := make([]model.Chair, 0, 1203)
	for i := int64(1); i <= 1203; i++ {
		chairs = append(chairs, chair(i, i, 0, 1))
	}
	if err := s.InsertChairs(ctx, chairs); err != nil {
		t.Fatalf("InsertChairs: %v", err)
	}
	if _, err := s.Chair(ctx, 1203); err != nil {
		t.Fatalf("last row: %v", err)
	}
}

func TestReset_EmptiesTables(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.InsertChairs(ctx, []model.Chair{chair(1, 1, 1, 1)}); err != nil {
		t.Fatal(err)
	}
	if err := s.InsertEstates(ctx, []model.Estate{estate(1, 1, 1, 0, 0)}); err != nil {
		t.Fatal(err)
	}
	if err := s.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if _, err := s.Chair(ctx, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("chair survived reset: %v", err)
	}
	if _, err := s.Estate(ctx, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("estate survived reset: %v", err)
	}
	if err := s.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}
