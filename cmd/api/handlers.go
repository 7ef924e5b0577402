package main

import (
	"net/http"

	"imdb/proj/internal/domain/filters"

	"github.com/go-chi/render"
)

func (app *Application) healthcheck(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, struct {
		Status  string `json:"status"`
		Debug   bool   `json:"debug"`
		Version string `json:"version"`
	}{
		Status:  "available",
		Debug:   app.cfg.Debug,
		Version: version,
	})
}

func newList[T any](items []T, metadata filters.Metadata) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Results: items, Metadata: metadata}
}
