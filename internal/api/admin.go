package api

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/mohammed-shakir/isuumo/internal/cache/respcache"
	"github.com/mohammed-shakir/isuumo/internal/core/observability"
	"github.com/mohammed-shakir/isuumo/internal/events"
	"github.com/mohammed-shakir/isuumo/internal/importer"
)

// initialize reloads the dataset and drops every cached view of it.
func (a *API) initialize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	counts, err := a.Fixture.Reload(ctx)
	if err != nil {
		// fixture rows are server data; a bad one is never the caller's fault
		a.serverError(w, r, err)
		return
	}

	a.Estates.Purge()
	a.Cache.Invalidate(ctx, respcache.EntityChair, respcache.EntityEstate)
	a.Events.Publish(events.Event{Type: events.DatasetReset, Count: counts.Chairs + counts.Estates})
	a.Log.InfoContext(ctx, "dataset initialized", "chairs", counts.Chairs, "estates", counts.Estates)

	writeJSON(w, http.StatusOK, map[string]string{"language": "go"})
}

func (a *API) postChairs(w http.ResponseWriter, r *http.Request) {
	a.importCSV(w, r, "chairs", func(ctx context.Context, rd io.Reader) (int, error) {
		chairs, err := importer.ParseChairs(rd)
		if err != nil {
			return 0, err
		}
		return len(chairs), a.Store.InsertChairs(ctx, chairs)
	}, respcache.EntityChair, events.ChairsImported)
}

func (a *API) postEstates(w http.ResponseWriter, r *http.Request) {
	a.importCSV(w, r, "estates", func(ctx context.Context, rd io.Reader) (int, error) {
		estates, err := importer.ParseEstates(rd)
		if err != nil {
			return 0, err
		}
		return len(estates), a.Store.InsertEstates(ctx, estates)
	}, respcache.EntityEstate, events.EstatesImported)
}

// importCSV reads the multipart file in field and inserts every row or none.
func (a *API) importCSV(w http.ResponseWriter, r *http.Request, field string,
	load func(context.Context, io.Reader) (int, error), entity, eventType string) {
	f, _, err := r.FormFile(field)
	if err != nil {
		a.writeError(w, r, errors.Join(errBadRequest, err))
		return
	}
	defer func() { _ = f.Close() }()

	n, err := load(r.Context(), f)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	observability.AddRowsImported(entity, n)
	a.Cache.Invalidate(r.Context(), entity)
	a.Events.Publish(events.Event{Type: eventType, Count: n})
	a.Log.InfoContext(r.Context(), "csv imported", "field", field, "rows", n)
	writeJSON(w, http.StatusCreated, okBody)
}
