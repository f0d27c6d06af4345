package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mohammed-shakir/isuumo/internal/cache/respcache"
	"github.com/mohammed-shakir/isuumo/internal/core/model"
	"github.com/mohammed-shakir/isuumo/internal/events"
	"github.com/mohammed-shakir/isuumo/internal/geo"
	"github.com/mohammed-shakir/isuumo/internal/nazotte"
	"github.com/mohammed-shakir/isuumo/internal/search"
)

func (a *API) lowPricedEstates(w http.ResponseWriter, r *http.Request) {
	a.cachedJSON(w, r, func(ctx context.Context) (any, error) {
		estates, err := a.Store.LowPricedEstates(ctx)
		if err != nil {
			return nil, err
		}
		if estates == nil {
			estates = []model.Estate{}
		}
		return model.EstateList{Estates: estates}, nil
	}, respcache.EntityEstate)
}

func (a *API) searchEstates(w http.ResponseWriter, r *http.Request) {
	q, err := search.ParseEstateQuery(r.URL.Query(), &a.Catalog.Estate)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.cachedJSON(w, r, func(ctx context.Context) (any, error) {
		page, err := a.Store.SearchEstates(ctx, q)
		if err != nil {
			return nil, err
		}
		if page.Estates == nil {
			page.Estates = []model.Estate{}
		}
		return page, nil
	}, respcache.EntityEstate)
}

func (a *API) estateCondition(w http.ResponseWriter, _ *http.Request) {
	writeBody(w, http.StatusOK, a.Catalog.EstateJSON())
}

// estate reads through the local LRU.
func (a *API) estate(ctx context.Context, id int64) (model.Estate, error) {
	if e, ok := a.Estates.Get(id); ok {
		return e, nil
	}
	e, err := a.Store.Estate(ctx, id)
	if err != nil {
		return model.Estate{}, err
	}
	a.Estates.Add(e)
	return e, nil
}

func (a *API) estateDetail(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	e, err := a.estate(r.Context(), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (a *API) requestDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	contact, err := readContact(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if _, err := a.estate(r.Context(), id); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.Events.Publish(events.Event{Type: events.EstateDocumentRequested, ID: id, Email: contact.Email})
	writeJSON(w, http.StatusOK, okBody)
}

type polygonRequest struct {
	Coordinates []model.Coordinate `json:"coordinates"`
}

func (a *API) searchPolygon(w http.ResponseWriter, r *http.Request) {
	var req polygonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, r, errors.Join(errBadRequest, err))
		return
	}
	poly, err := geo.NewPolygon(req.Coordinates)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	res, err := nazotte.Search(r.Context(), a.Store, poly, nazotte.Limit)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
