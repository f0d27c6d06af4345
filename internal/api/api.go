// Package api implements the ISUUMO HTTP handlers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mohammed-shakir/isuumo/internal/cache/estatecache"
	"github.com/mohammed-shakir/isuumo/internal/cache/respcache"
	"github.com/mohammed-shakir/isuumo/internal/catalog"
	"github.com/mohammed-shakir/isuumo/internal/core/model"
	"github.com/mohammed-shakir/isuumo/internal/events"
	"github.com/mohammed-shakir/isuumo/internal/fixture"
	"github.com/mohammed-shakir/isuumo/internal/geo"
	"github.com/mohammed-shakir/isuumo/internal/importer"
	mylog "github.com/mohammed-shakir/isuumo/internal/logger"
	"github.com/mohammed-shakir/isuumo/internal/search"
	"github.com/mohammed-shakir/isuumo/internal/store"
)

// Store is the record store surface the handlers use.
type Store interface {
	LowPricedChairs(ctx context.Context) ([]model.Chair, error)
	LowPricedEstates(ctx context.Context) ([]model.Estate, error)
	SearchChairs(ctx context.Context, q search.Query) (model.ChairPage, error)
	SearchEstates(ctx context.Context, q search.Query) (model.EstatePage, error)
	Chair(ctx context.Context, id int64) (model.Chair, error)
	Estate(ctx context.Context, id int64) (model.Estate, error)
	BuyChair(ctx context.Context, id int64) error
	EstatesWithin(ctx context.Context, bb geo.BoundingBox, fn func(model.Estate) bool) error
	RecommendedEstates(ctx context.Context, c model.Chair) ([]model.Estate, error)
	InsertChairs(ctx context.Context, chairs []model.Chair) error
	InsertEstates(ctx context.Context, estates []model.Estate) error
}

type Reloader interface {
	Reload(ctx context.Context) (fixture.Counts, error)
}

// Deps wires the handlers. Cache, Estates and Events may be nil.
type Deps struct {
	Store   Store
	Catalog *catalog.Catalog
	Fixture Reloader
	Cache   *respcache.Cache
	Estates *estatecache.Cache
	Events  *events.Publisher
	Log     *slog.Logger
}

type API struct {
	Deps
}

func New(d Deps) *API {
	if d.Log == nil {
		d.Log = slog.Default()
	}
	return &API{Deps: d}
}

func (a *API) Routes(r chi.Router) {
	r.Post("/initialize", a.initialize)

	r.Route("/api/chair", func(r chi.Router) {
		r.Post("/", a.postChairs)
		r.Get("/low_priced", a.lowPricedChairs)
		r.Get("/search", a.searchChairs)
		r.Get("/search/condition", a.chairCondition)
		r.Get("/{id}", a.chairDetail)
		r.Post("/buy/{id}", a.buyChair)
	})

	r.Route("/api/estate", func(r chi.Router) {
		r.Post("/", a.postEstates)
		r.Get("/low_priced", a.lowPricedEstates)
		r.Get("/search", a.searchEstates)
		r.Get("/search/condition", a.estateCondition)
		r.Post("/nazotte", a.searchPolygon)
		r.Get("/{id}", a.estateDetail)
		r.Post("/req_doc/{id}", a.requestDocument)
	})

	r.Get("/api/recommended_estate/{id}", a.recommendedEstates)
}

var errBadRequest = errors.New("bad request")

// writeError maps domain errors onto status codes. Client errors echo the
// message; server errors are logged and hidden.
func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		pe *search.ParamError
		re *importer.RowError
	)
	switch {
	case errors.As(err, &pe), errors.As(err, &re),
		errors.Is(err, search.ErrNoCondition),
		errors.Is(err, geo.ErrEmptyPolygon),
		errors.Is(err, errBadRequest):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	default:
		a.serverError(w, r, err)
	}
}

// serverError logs err and answers 500 without echoing it.
func (a *API) serverError(w http.ResponseWriter, r *http.Request, err error) {
	a.Log.ErrorContext(r.Context(), "request failed",
		"method", r.Method, "path", r.URL.Path, "request_id", mylog.RequestID(r.Context()), "err", err)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	writeBody(w, status, b)
}

func writeBody(w http.ResponseWriter, status int, b []byte) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}

// cachedJSON serves the response for the request from the response cache, or
// renders load() and stores it under the generations of entities.
func (a *API) cachedJSON(w http.ResponseWriter, r *http.Request, load func(context.Context) (any, error), entities ...string) {
	ctx := r.Context()
	body, key, ok := a.Cache.Lookup(ctx, r.URL.Path, r.URL.Query(), entities...)
	if ok {
		w.Header().Set("X-Cache", "HIT")
		writeBody(w, http.StatusOK, body)
		return
	}

	v, err := load(ctx)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.Cache.Store(ctx, key, b)
	writeBody(w, http.StatusOK, b)
}

func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, &search.ParamError{Param: "id", Value: raw}
	}
	return id, nil
}

type contactRequest struct {
	Email string `json:"email"`
}

// readContact decodes the optional {"email": ...} body. An empty body is fine.
func readContact(r *http.Request) (contactRequest, error) {
	var c contactRequest
	if r.Body == nil {
		return c, nil
	}
	err := json.NewDecoder(r.Body).Decode(&c)
	if errors.Is(err, io.EOF) {
		return contactRequest{}, nil
	}
	if err != nil {
		return contactRequest{}, errors.Join(errBadRequest, err)
	}
	return c, nil
}

var okBody = map[string]bool{"ok": true}
