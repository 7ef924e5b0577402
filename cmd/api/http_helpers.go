package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"imdb/proj/internal/config"
	"imdb/proj/internal/domain/filters"
	"imdb/proj/internal/lib/logger/sl"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type Http struct {
	log *slog.Logger
	cfg *config.Config
}

type envelop map[string]any

type ErrorResponse struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

type ListResponse[T any] struct {
	Results  []T              `json:"results"`
	Metadata filters.Metadata `json:"metadata"`
}

func processMsg(status int, msg string) string {
	if msg == "" {
		msg = http.StatusText(status)
	}
	return msg
}

func (h *Http) setupLogPerReq(r *http.Request) *slog.Logger {
	return h.log.With(
		"request_id",
		middleware.GetReqID(r.Context()),
		"method",
		r.Method,
		"path",
		r.URL.Path,
	)
}

func (h *Http) Response(w http.ResponseWriter, r *http.Request, data any, status int) {
	render.Status(r, status)
	render.JSON(w, r, data)
}

func (h *Http) Ok(w http.ResponseWriter, r *http.Request, data any) {
	h.Response(w, r, data, http.StatusOK)
}

func (h *Http) Created(w http.ResponseWriter, r *http.Request, data any) {
	h.Response(w, r, data, http.StatusCreated)
}

func (h *Http) Accepted(w http.ResponseWriter, r *http.Request, data any) {
	h.Response(w, r, data, http.StatusAccepted)
}

func (h *Http) NoContent(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (h *Http) Error(w http.ResponseWriter, r *http.Request, msg string, errors map[string]string, status int) {
	h.Response(w, r, ErrorResponse{Message: processMsg(status, msg), Errors: errors}, status)
}

func (h *Http) BadRequest(w http.ResponseWriter, r *http.Request, msg string) {
	h.Error(w, r, msg, nil, http.StatusBadRequest)
}

func (h *Http) ValidationError(w http.ResponseWriter, r *http.Request, errors map[string]string) {
	h.Error(w, r, "Invalid input", errors, http.StatusBadRequest)
}

func (h *Http) Unauthorized(w http.ResponseWriter, r *http.Request, msg string) {
	h.Error(w, r, msg, nil, http.StatusUnauthorized)
}

func (h *Http) Forbidden(w http.ResponseWriter, r *http.Request, msg string) {
	h.Error(w, r, msg, nil, http.StatusForbidden)
}

func (h *Http) NotFound(w http.ResponseWriter, r *http.Request, msg string) {
	h.Error(w, r, msg, nil, http.StatusNotFound)
}

func (h *Http) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.Error(w, r, fmt.Sprintf("Method %q not allowed", r.Method), nil, http.StatusMethodNotAllowed)
}

func (h *Http) Conflict(w http.ResponseWriter, r *http.Request, msg string) {
	h.Error(w, r, msg, nil, http.StatusConflict)
}

func (h *Http) TooManyRequests(w http.ResponseWriter, r *http.Request) {
	h.Error(w, r, "Request was throttled", nil, http.StatusTooManyRequests)
}

func (h *Http) ServerError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	status := http.StatusInternalServerError
	defaultErrMsg := "Sorry! Can't process your request. Please try again later."
	log := h.setupLogPerReq(r)
	if err != nil {
		log.Error("request failed", sl.Err(err))
	}
	if msg == "" {
		msg = defaultErrMsg
	}
	if h.cfg.Debug && err != nil {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(status)
		w.Write([]byte(err.Error() + "\n" + string(debug.Stack())))
		return
	}
	h.Error(w, r, msg, nil, status)
}
