package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"

	"github.com/mohammed-shakir/isuumo/internal/catalog"
	"github.com/mohammed-shakir/isuumo/internal/core/model"
)

// request is one prepared API call. Body is re-read for every send.
type request struct {
	Name   string
	Method string
	Path   string
	Body   []byte
}

func (r request) build(base string) (*http.Request, error) {
	var body io.Reader
	if r.Body != nil {
		body = bytes.NewReader(r.Body)
	}
	req, err := http.NewRequest(r.Method, base+r.Path, body)
	if err != nil {
		return nil, err
	}
	if r.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// pool is a fixed, pre-generated request set drawn from with a Zipf
// distribution so a few requests are hot.
type pool struct {
	reqs []request
}

type mix struct {
	ChairSearch  int
	EstateSearch int
	Nazotte      int
	Detail       int
	Recommended  int
	LowPriced    int
	Buy          int
}

var defaultMix = mix{ChairSearch: 30, EstateSearch: 30, Nazotte: 10, Detail: 15, Recommended: 5, LowPriced: 8, Buy: 2}

func makePool(cat *catalog.Catalog, size int, maxID int64, m mix, r *rand.Rand) pool {
	weights := []struct {
		w   int
		gen func() request
	}{
		{m.ChairSearch, func() request { return chairSearch(cat, r) }},
		{m.EstateSearch, func() request { return estateSearch(cat, r) }},
		{m.Nazotte, func() request { return nazotte(r) }},
		{m.Detail, func() request { return detail(maxID, r) }},
		{m.Recommended, func() request {
			return request{Name: "recommended", Method: http.MethodGet, Path: "/api/recommended_estate/" + strconv.FormatInt(1+r.Int63n(maxID), 10)}
		}},
		{m.LowPriced, func() request { return lowPriced(r) }},
		{m.Buy, func() request {
			return request{Name: "buy", Method: http.MethodPost, Path: "/api/chair/buy/" + strconv.FormatInt(1+r.Int63n(maxID), 10),
				Body: []byte(`{"email":"loadgen@example.com"}`)}
		}},
	}
	total := 0
	for _, w := range weights {
		total += w.w
	}

	p := pool{reqs: make([]request, 0, size)}
	if total == 0 {
		return p
	}
	for len(p.reqs) < size {
		n := r.Intn(total)
		for _, w := range weights {
			if n < w.w {
				p.reqs = append(p.reqs, w.gen())
				break
			}
			n -= w.w
		}
	}
	return p
}

func pick[T any](r *rand.Rand, xs []T) T {
	return xs[r.Intn(len(xs))]
}

func rangeID(r *rand.Rand, c catalog.RangeCondition) string {
	return strconv.FormatInt(pick(r, c.Ranges).ID, 10)
}

func chairSearch(cat *catalog.Catalog, r *rand.Rand) request {
	c := cat.Chair
	q := url.Values{}
	switch r.Intn(4) {
	case 0:
		q.Set("priceRangeId", rangeID(r, c.Price))
	case 1:
		q.Set("kind", pick(r, c.Kind.List))
	case 2:
		q.Set("heightRangeId", rangeID(r, c.Height))
		q.Set("color", pick(r, c.Color.List))
	default:
		q.Set("widthRangeId", rangeID(r, c.Width))
		q.Set("features", pick(r, c.Feature.List))
	}
	q.Set("page", strconv.Itoa(r.Intn(3)))
	q.Set("perPage", "25")
	return request{Name: "chair_search", Method: http.MethodGet, Path: "/api/chair/search?" + q.Encode()}
}

func estateSearch(cat *catalog.Catalog, r *rand.Rand) request {
	c := cat.Estate
	q := url.Values{}
	switch r.Intn(3) {
	case 0:
		q.Set("rentRangeId", rangeID(r, c.Rent))
	case 1:
		q.Set("doorWidthRangeId", rangeID(r, c.DoorWidth))
		q.Set("doorHeightRangeId", rangeID(r, c.DoorHeight))
	default:
		q.Set("features", pick(r, c.Feature.List))
	}
	q.Set("page", strconv.Itoa(r.Intn(3)))
	q.Set("perPage", "25")
	return request{Name: "estate_search", Method: http.MethodGet, Path: "/api/estate/search?" + q.Encode()}
}

// centers the generated polygons cluster around.
var centers = []model.Coordinate{
	{Latitude: 35.6812, Longitude: 139.7671}, // Tokyo
	{Latitude: 34.7025, Longitude: 135.4959}, // Osaka
	{Latitude: 43.0687, Longitude: 141.3508}, // Sapporo
	{Latitude: 33.5902, Longitude: 130.4017}, // Fukuoka
}

func nazotte(r *rand.Rand) request {
	c := pick(r, centers)
	h := 0.05 + r.Float64()*0.2
	lat := c.Latitude + (r.Float64()-0.5)*0.3
	lon := c.Longitude + (r.Float64()-0.5)*0.3
	body, _ := json.Marshal(map[string][]model.Coordinate{"coordinates": {
		{Latitude: lat - h, Longitude: lon},
		{Latitude: lat, Longitude: lon + h},
		{Latitude: lat + h, Longitude: lon},
		{Latitude: lat, Longitude: lon - h},
		{Latitude: lat - h, Longitude: lon},
	}})
	return request{Name: "nazotte", Method: http.MethodPost, Path: "/api/estate/nazotte", Body: body}
}

func detail(maxID int64, r *rand.Rand) request {
	id := 1 + r.Int63n(maxID)
	if r.Intn(2) == 0 {
		return request{Name: "chair_detail", Method: http.MethodGet, Path: fmt.Sprintf("/api/chair/%d", id)}
	}
	return request{Name: "estate_detail", Method: http.MethodGet, Path: fmt.Sprintf("/api/estate/%d", id)}
}

func lowPriced(r *rand.Rand) request {
	if r.Intn(2) == 0 {
		return request{Name: "low_priced", Method: http.MethodGet, Path: "/api/chair/low_priced"}
	}
	return request{Name: "low_priced", Method: http.MethodGet, Path: "/api/estate/low_priced"}
}
