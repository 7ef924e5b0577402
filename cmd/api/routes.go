package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (app *Application) routes() http.Handler {
	router := chi.NewRouter()
	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		app.Http.NotFound(w, r, "Page not found")
	})
	router.MethodNotAllowed(app.Http.MethodNotAllowed)
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(app.Metrics)
	router.Use(middleware.Logger)
	router.Use(app.Recoverer)
	router.Use(middleware.StripSlashes)
	router.Handle("/metrics", promhttp.Handler())
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(app.RateLimiter)
		r.Use(app.Authenticate)
		r.Get("/healthcheck", app.healthcheck)
		r.Route("/auth", func(r chi.Router) {
			r.Use(app.requireUnauthenticated)
			r.Post("/email", app.signup)
			r.Post("/email/resend", app.resendConfirmationCode)
			r.Post("/token", app.obtainToken)
		})
		r.Route("/categories", func(r chi.Router) {
			r.Get("/", listTaxonomy(app, app.categories))
			r.Post("/", createTaxonomy(app, app.categories))
			r.Delete("/{slug}", deleteTaxonomy(app, app.categories))
		})
		r.Route("/genres", func(r chi.Router) {
			r.Get("/", listTaxonomy(app, app.genres))
			r.Post("/", createTaxonomy(app, app.genres))
			r.Delete("/{slug}", deleteTaxonomy(app, app.genres))
		})
		r.Route("/titles", func(r chi.Router) {
			r.Get("/", app.listTitles)
			r.Post("/", app.createTitle)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", app.getTitle)
				r.Put("/", app.updateTitle)
				r.Patch("/", app.patchTitle)
				r.Delete("/", app.deleteTitle)
				r.Route("/reviews", func(r chi.Router) {
					r.Get("/", app.listReviews)
					r.Post("/", app.createReview)
					r.Route("/{review_id}", func(r chi.Router) {
						r.Get("/", app.getReview)
						r.Put("/", app.updateReview)
						r.Patch("/", app.patchReview)
						r.Delete("/", app.deleteReview)
						r.Route("/comments", func(r chi.Router) {
							r.Get("/", app.listComments)
							r.Post("/", app.createComment)
							r.Get("/{comment_id}", app.getComment)
							r.Put("/{comment_id}", app.updateComment)
							r.Patch("/{comment_id}", app.patchComment)
							r.Delete("/{comment_id}", app.deleteComment)
						})
					})
				})
			})
		})
	})
	return router
}
