package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mohammed-shakir/isuumo/internal/cache/respcache"
	"github.com/mohammed-shakir/isuumo/internal/core/model"
	"github.com/mohammed-shakir/isuumo/internal/events"
	"github.com/mohammed-shakir/isuumo/internal/search"
	"github.com/mohammed-shakir/isuumo/internal/store"
)

func (a *API) lowPricedChairs(w http.ResponseWriter, r *http.Request) {
	a.cachedJSON(w, r, func(ctx context.Context) (any, error) {
		chairs, err := a.Store.LowPricedChairs(ctx)
		if err != nil {
			return nil, err
		}
		if chairs == nil {
			chairs = []model.Chair{}
		}
		return model.ChairList{Chairs: chairs}, nil
	}, respcache.EntityChair)
}

func (a *API) searchChairs(w http.ResponseWriter, r *http.Request) {
	q, err := search.ParseChairQuery(r.URL.Query(), &a.Catalog.Chair)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.cachedJSON(w, r, func(ctx context.Context) (any, error) {
		page, err := a.Store.SearchChairs(ctx, q)
		if err != nil {
			return nil, err
		}
		if page.Chairs == nil {
			page.Chairs = []model.Chair{}
		}
		return page, nil
	}, respcache.EntityChair)
}

func (a *API) chairCondition(w http.ResponseWriter, _ *http.Request) {
	writeBody(w, http.StatusOK, a.Catalog.ChairJSON())
}

// chairDetail hides sold-out chairs.
func (a *API) chairDetail(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	c, err := a.Store.Chair(r.Context(), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if c.Stock <= 0 {
		a.writeError(w, r, store.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (a *API) buyChair(w http.ResponseWriter, r *http.Request) {
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
	if err := a.Store.BuyChair(r.Context(), id); err != nil {
		a.writeError(w, r, err)
		return
	}

	a.Cache.Invalidate(r.Context(), respcache.EntityChair)
	a.Events.Publish(events.Event{Type: events.ChairPurchased, ID: id, Email: contact.Email})
	writeJSON(w, http.StatusOK, okBody)
}

// recommendedEstates lists estates whose door admits the chair in some
// orientation. An unknown chair is a client error.
func (a *API) recommendedEstates(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.cachedJSON(w, r, func(ctx context.Context) (any, error) {
		c, err := a.Store.Chair(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, &search.ParamError{Param: "id", Value: chi.URLParam(r, "id")}
			}
			return nil, err
		}
		estates, err := a.Store.RecommendedEstates(ctx, c)
		if err != nil {
			return nil, err
		}
		if estates == nil {
			estates = []model.Estate{}
		}
		return model.EstateList{Estates: estates}, nil
	}, respcache.EntityChair, respcache.EntityEstate)
}
