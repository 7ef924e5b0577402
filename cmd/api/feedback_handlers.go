package main

import (
	"net/http"

	"imdb/proj/internal/services/feedback"
)

// reviewPath extracts the title and review ids of a review-scoped route.
func (app *Application) reviewPath(w http.ResponseWriter, r *http.Request) (titleID, reviewID int64, ok bool) {
	if titleID, ok = app.extractIDParam(w, r, "id"); !ok {
		return
	}
	reviewID, ok = app.extractIDParam(w, r, "review_id")
	return
}

func (app *Application) listReviews(w http.ResponseWriter, r *http.Request) {
	titleID, ok := app.extractIDParam(w, r, "id")
	if !ok {
		return
	}
	f, errs := app.readFilters(r)
	if errs != nil {
		app.Http.ValidationError(w, r, errs)
		return
	}
	reviews, metadata, err := app.reviews.List(r.Context(), titleID, f)
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, newList(reviews, metadata))
}

func (app *Application) getReview(w http.ResponseWriter, r *http.Request) {
	titleID, reviewID, ok := app.reviewPath(w, r)
	if !ok {
		return
	}
	review, err := app.reviews.Get(r.Context(), titleID, reviewID)
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, review)
}

func (app *Application) createReview(w http.ResponseWriter, r *http.Request) {
	titleID, ok := app.extractIDParam(w, r, "id")
	if !ok {
		return
	}
	var input feedback.ReviewInput
	if !app.readJSONOrBadRequest(w, r, &input) {
		return
	}
	review, err := app.reviews.Create(r.Context(), contextGetUser(r), titleID, input)
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Created(w, r, review)
}

func (app *Application) updateReview(w http.ResponseWriter, r *http.Request) {
	titleID, reviewID, ok := app.reviewPath(w, r)
	if !ok {
		return
	}
	var input feedback.ReviewInput
	if !app.readJSONOrBadRequest(w, r, &input) {
		return
	}
	review, err := app.reviews.Update(r.Context(), contextGetUser(r), titleID, reviewID, input)
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, review)
}

func (app *Application) patchReview(w http.ResponseWriter, r *http.Request) {
	titleID, reviewID, ok := app.reviewPath(w, r)
	if !ok {
		return
	}
	var patch feedback.ReviewPatch
	if !app.readJSONOrBadRequest(w, r, &patch) {
		return
	}
	review, err := app.reviews.Patch(r.Context(), contextGetUser(r), titleID, reviewID, patch)
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, review)
}

func (app *Application) deleteReview(w http.ResponseWriter, r *http.Request) {
	titleID, reviewID, ok := app.reviewPath(w, r)
	if !ok {
		return
	}
	if err := app.reviews.Delete(r.Context(), contextGetUser(r), titleID, reviewID); err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.NoContent(w, r)
}

func (app *Application) listComments(w http.ResponseWriter, r *http.Request) {
	titleID, reviewID, ok := app.reviewPath(w, r)
	if !ok {
		return
	}
	f, errs := app.readFilters(r)
	if errs != nil {
		app.Http.ValidationError(w, r, errs)
		return
	}
	comments, metadata, err := app.comments.List(r.Context(), titleID, reviewID, f)
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, newList(comments, metadata))
}

func (app *Application) getComment(w http.ResponseWriter, r *http.Request) {
	titleID, reviewID, ok := app.reviewPath(w, r)
	if !ok {
		return
	}
	commentID, ok := app.extractIDParam(w, r, "comment_id")
	if !ok {
		return
	}
	comment, err := app.comments.Get(r.Context(), titleID, reviewID, commentID)
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, comment)
}

func (app *Application) createComment(w http.ResponseWriter, r *http.Request) {
	titleID, reviewID, ok := app.reviewPath(w, r)
	if !ok {
		return
	}
	var input feedback.CommentInput
	if !app.readJSONOrBadRequest(w, r, &input) {
		return
	}
	comment, err := app.comments.Create(r.Context(), contextGetUser(r), titleID, reviewID, input)
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Created(w, r, comment)
}

func (app *Application) updateComment(w http.ResponseWriter, r *http.Request) {
	titleID, reviewID, ok := app.reviewPath(w, r)
	if !ok {
		return
	}
	commentID, ok := app.extractIDParam(w, r, "comment_id")
	if !ok {
		return
	}
	var input feedback.CommentInput
	if !app.readJSONOrBadRequest(w, r, &input) {
		return
	}
	comment, err := app.comments.Update(r.Context(), contextGetUser(r), titleID, reviewID, commentID, input)
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, comment)
}

func (app *Application) patchComment(w http.ResponseWriter, r *http.Request) {
	titleID, reviewID, ok := app.reviewPath(w, r)
	if !ok {
		return
	}
	commentID, ok := app.extractIDParam(w, r, "comment_id")
	if !ok {
		return
	}
	var patch feedback.CommentPatch
	if !app.readJSONOrBadRequest(w, r, &patch) {
		return
	}
	comment, err := app.comments.Patch(r.Context(), contextGetUser(r), titleID, reviewID, commentID, patch)
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, comment)
}

func (app *Application) deleteComment(w http.ResponseWriter, r *http.Request) {
	titleID, reviewID, ok := app.reviewPath(w, r)
	if !ok {
		return
	}
	commentID, ok := app.extractIDParam(w, r, "comment_id")
	if !ok {
		return
	}
	if err := app.comments.Delete(r.Context(), contextGetUser(r), titleID, reviewID, commentID); err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.NoContent(w, r)
}
