package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"imdb/proj/internal/domain/filters"
	"imdb/proj/internal/domain/policy"
	"imdb/proj/internal/lib/validator"
	"imdb/proj/internal/services/auth"
	"imdb/proj/internal/services/catalog"
	"imdb/proj/internal/services/feedback"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/schema"
)

func (app *Application) extractIDParam(w http.ResponseWriter, r *http.Request, name string) (id int64, extracted bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id < 1 {
		app.Http.NotFound(w, r, "Not found")
		return 0, false
	}
	return id, true
}

func (app *Application) readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	maxBytes := 1_048_576 // 1MB
	src := http.MaxBytesReader(w, r.Body, int64(maxBytes))
	defer io.Copy(io.Discard, src)
	dec := json.NewDecoder(src)
	dec.DisallowUnknownFields()
	err := dec.Decode(dst)
	if err != nil {
		return handleJsonErr(err)
	}
	err = dec.Decode(&struct{}{})
	if err != io.EOF {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

// readJSONOrBadRequest reports false when the body could not be decoded, after writing the response.
func (app *Application) readJSONOrBadRequest(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := app.readJSON(w, r, dst); err != nil {
		app.Http.BadRequest(w, r, err.Error())
		return false
	}
	return true
}

func handleJsonErr(err error) error {
	var syntaxError *json.SyntaxError
	var unmarshalTypeError *json.UnmarshalTypeError
	var invalidUnmarshalError *json.InvalidUnmarshalError
	var maxBytesError *http.MaxBytesError
	switch {
	case errors.As(err, &syntaxError):
		return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)

	case errors.Is(err, io.ErrUnexpectedEOF):
		return errors.New("body contains badly-formed JSON")

	case errors.As(err, &unmarshalTypeError):
		if unmarshalTypeError.Field != "" {
			return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
		}
		return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)

	case errors.Is(err, io.EOF):
		return errors.New("body must not be empty")

	case errors.As(err, &maxBytesError):
		return fmt.Errorf("body must not be larger than %d bytes", maxBytesError.Limit)

	case errors.As(err, &invalidUnmarshalError):
		panic(err)
	default:
		return err
	}
}

var queryDecoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}()

// readQuery decodes the query string into dst. Conversion failures come back as field errors.
func (app *Application) readQuery(r *http.Request, dst any) validator.Errors {
	err := queryDecoder.Decode(dst, r.URL.Query())
	if err == nil {
		return nil
	}
	errs := make(validator.Errors)
	var multiErr schema.MultiError
	if errors.As(err, &multiErr) {
		for key := range multiErr {
			errs[key] = "Enter a valid value"
		}
		return errs
	}
	errs["query"] = err.Error()
	return errs
}

func (app *Application) readFilters(r *http.Request) (filters.Filters, validator.Errors) {
	f := filters.New(1, app.cfg.Pagination.DefaultPageSize)
	errs := app.readQuery(r, &f)
	return f, errs
}

func (app *Application) readTitleFilters(r *http.Request) (filters.TitleFilters, validator.Errors) {
	var tf filters.TitleFilters
	if errs := app.readQuery(r, &tf); errs != nil {
		return tf, errs
	}
	tf.Genres = filters.ParseSlugList(r.URL.Query()["genre"])
	return tf, nil
}

// handleServiceError translates errors returned by the service layer into responses.
func (app *Application) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErrs validator.Errors
	switch {
	case errors.As(err, &validationErrs):
		app.Http.ValidationError(w, r, validationErrs)
	case errors.Is(err, policy.ErrUnauthenticated), errors.Is(err, auth.ErrInvalidToken):
		app.Http.Unauthorized(w, r, err.Error())
	case errors.Is(err, policy.ErrForbidden):
		app.Http.Forbidden(w, r, err.Error())
	case errors.Is(err, auth.ErrInvalidCode):
		app.Http.BadRequest(w, r, err.Error())
	case errors.Is(err, feedback.ErrAlreadyReviewed):
		app.Http.Conflict(w, r, err.Error())
	case errors.Is(err, auth.ErrUserNotFound),
		errors.Is(err, catalog.ErrCategoryNotFound),
		errors.Is(err, catalog.ErrGenreNotFound),
		errors.Is(err, catalog.ErrTitleNotFound),
		errors.Is(err, feedback.ErrTitleNotFound),
		errors.Is(err, feedback.ErrReviewNotFound),
		errors.Is(err, feedback.ErrCommentNotFound):
		app.Http.NotFound(w, r, err.Error())
	default:
		app.Http.ServerError(w, r, err, "")
	}
}
