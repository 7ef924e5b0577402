package main

import (
	"net/http"

	"imdb/proj/internal/services/catalog"

	"github.com/go-chi/chi/v5"
)

func listTaxonomy[T catalog.Taxonomy](app *Application, svc taxonomyService[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, errs := app.readFilters(r)
		if errs != nil {
			app.Http.ValidationError(w, r, errs)
			return
		}
		items, metadata, err := svc.List(r.Context(), r.URL.Query().Get("search"), f)
		if err != nil {
			app.handleServiceError(w, r, err)
			return
		}
		app.Http.Ok(w, r, newList(items, metadata))
	}
}

func createTaxonomy[T catalog.Taxonomy](app *Application, svc taxonomyService[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input catalog.TaxonomyInput
		if !app.readJSONOrBadRequest(w, r, &input) {
			return
		}
		item, err := svc.Create(r.Context(), contextGetUser(r), input)
		if err != nil {
			app.handleServiceError(w, r, err)
			return
		}
		app.Http.Created(w, r, item)
	}
}

func deleteTaxonomy[T catalog.Taxonomy](app *Application, svc taxonomyService[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), contextGetUser(r), chi.URLParam(r, "slug")); err != nil {
			app.handleServiceError(w, r, err)
			return
		}
		app.Http.NoContent(w, r)
	}
}

func (app *Application) listTitles(w http.ResponseWriter, r *http.Request) {
	f, errs := app.readFilters(r)
	if errs != nil {
		app.Http.ValidationError(w, r, errs)
		return
	}
	tf, errs := app.readTitleFilters(r)
	if errs != nil {
		app.Http.ValidationError(w, r, errs)
		return
	}
	titles, metadata, err := app.titles.List(r.Context(), tf, f)
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, newList(titles, metadata))
}

func (app *Application) getTitle(w http.ResponseWriter, r *http.Request) {
	id, ok := app.extractIDParam(w, r, "id")
	if !ok {
		return
	}
	title, err := app.titles.Get(r.Context(), id)
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, title)
}

func (app *Application) createTitle(w http.ResponseWriter, r *http.Request) {
	var input catalog.TitleInput
	if !app.readJSONOrBadRequest(w, r, &input) {
		return
	}
	title, err := app.titles.Create(r.Context(), contextGetUser(r), input)
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Created(w, r, title)
}

func (app *Application) updateTitle(w http.ResponseWriter, r *http.Request) {
	id, ok := app.extractIDParam(w, r, "id")
	if !ok {
		return
	}
	var input catalog.TitleInput
	if !app.readJSONOrBadRequest(w, r, &input) {
		return
	}
	title, err := app.titles.Update(r.Context(), contextGetUser(r), id, input)
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, title)
}

func (app *Application) patchTitle(w http.ResponseWriter, r *http.Request) {
	id, ok := app.extractIDParam(w, r, "id")
	if !ok {
		return
	}
	var patch catalog.TitlePatch
	if !app.readJSONOrBadRequest(w, r, &patch) {
		return
	}
	title, err := app.titles.Patch(r.Context(), contextGetUser(r), id, patch)
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, title)
}

func (app *Application) deleteTitle(w http.ResponseWriter, r *http.Request) {
	id, ok := app.extractIDParam(w, r, "id")
	if !ok {
		return
	}
	if err := app.titles.Delete(r.Context(), contextGetUser(r), id); err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.NoContent(w, r)
}
