package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"imdb/proj/internal/domain/filters"
	"imdb/proj/internal/domain/models"
	"imdb/proj/internal/domain/policy"
	"imdb/proj/internal/lib/validator"
	"imdb/proj/internal/services/auth"
	"imdb/proj/internal/services/catalog"
	"imdb/proj/internal/services/feedback"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func doRequest(t *testing.T, handler http.Handler, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	request := httptest.NewRequest(method, target, reader)
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	return recorder
}

func decodeBody[T any](t *testing.T, recorder *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &v))
	return v
}

func TestHealthcheck(t *testing.T) {
	app, _ := NewTestApplication(nil, t)
	recorder := doRequest(t, app.routes(), http.MethodGet, "/api/v1/healthcheck/", "", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "available", decodeBody[map[string]any](t, recorder)["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	app, _ := NewTestApplication(nil, t)
	handler := app.routes()
	doRequest(t, handler, http.MethodGet, "/api/v1/healthcheck", "", nil)
	recorder := doRequest(t, handler, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "http_requests_total")
}

func TestSignupAndConfirm(t *testing.T) {
	app, m := NewTestApplication(nil, t)
	handler := app.routes()
	m.auth.On("Signup", mock.Anything, auth.SignupInput{Email: "a@x.com"}).Return("a@x.com", nil)
	m.auth.On("Confirm", mock.Anything, auth.ConfirmInput{Email: "a@x.com", ConfirmationCode: "good"}).Return("jwt-token", nil)
	m.auth.On("Confirm", mock.Anything, auth.ConfirmInput{Email: "a@x.com", ConfirmationCode: "bad"}).Return("", auth.ErrInvalidCode)
	m.auth.On("Confirm", mock.Anything, auth.ConfirmInput{Email: "nobody@x.com", ConfirmationCode: "good"}).Return("", auth.ErrUserNotFound)

	recorder := doRequest(t, handler, http.MethodPost, "/api/v1/auth/email/", "", map[string]string{"email": "a@x.com"})
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, map[string]string{"email": "a@x.com"}, decodeBody[map[string]string](t, recorder))

	recorder = doRequest(t, handler, http.MethodPost, "/api/v1/auth/token/", "", map[string]string{"email": "a@x.com", "confirmation_code": "good"})
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, map[string]string{"token": "jwt-token"}, decodeBody[map[string]string](t, recorder))

	recorder = doRequest(t, handler, http.MethodPost, "/api/v1/auth/token/", "", map[string]string{"email": "a@x.com", "confirmation_code": "bad"})
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	recorder = doRequest(t, handler, http.MethodPost, "/api/v1/auth/token/", "", map[string]string{"email": "nobody@x.com", "confirmation_code": "good"})
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestSignupRejected(t *testing.T) {
	app, m := NewTestApplication(nil, t)
	handler := app.routes()
	m.auth.On("Signup", mock.Anything, auth.SignupInput{Email: "taken@x.com"}).
		Return("", validator.NewError("email", "User with this email already exists"))

	testCases := []struct {
		name         string
		token        string
		body         any
		expectedCode int
	}{
		{name: "already authenticated", token: "user-token", body: map[string]string{"email": "new@x.com"}, expectedCode: http.StatusForbidden},
		{name: "unknown field", body: map[string]string{"email": "new@x.com", "role": "admin"}, expectedCode: http.StatusBadRequest},
		{name: "empty body", expectedCode: http.StatusBadRequest},
		{name: "email taken", body: map[string]string{"email": "taken@x.com"}, expectedCode: http.StatusBadRequest},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			recorder := doRequest(t, handler, http.MethodPost, "/api/v1/auth/email", tc.token, tc.body)
			assert.Equal(t, tc.expectedCode, recorder.Code)
		})
	}
	recorder := doRequest(t, handler, http.MethodPost, "/api/v1/auth/email", "", map[string]string{"email": "taken@x.com"})
	body := decodeBody[ErrorResponse](t, recorder)
	assert.Equal(t, "User with this email already exists", body.Errors["email"])
	m.auth.AssertNumberOfCalls(t, "Signup", 2)
}

func TestResendConfirmationCode(t *testing.T) {
	app, m := NewTestApplication(nil, t)
	m.auth.On("ResendCode", mock.Anything, auth.ResendInput{Email: "a@x.com"}).Return(nil)
	recorder := doRequest(t, app.routes(), http.MethodPost, "/api/v1/auth/email/resend/", "", map[string]string{"email": "a@x.com"})
	assert.Equal(t, http.StatusAccepted, recorder.Code)
	m.auth.AssertExpectations(t)
}

func TestCategoriesWriteAccess(t *testing.T) {
	app, m := NewTestApplication(nil, t)
	handler := app.routes()
	input := catalog.TaxonomyInput{Name: "Film", Slug: "film"}
	film := &models.Category{ID: 7, Name: "Film", Slug: "film"}
	m.categories.On("Create", mock.Anything, testUser, input).Return(nil, policy.ErrForbidden)
	m.categories.On("Create", mock.Anything, models.AnonymousUser, input).Return(nil, policy.ErrUnauthenticated)
	m.categories.On("Create", mock.Anything, testAdmin, input).Return(film, nil)
	m.categories.On("List", mock.Anything, "", filters.New(1, 20)).
		Return([]models.Category{*film}, filters.CalculateMetadata(1, 1, 20), nil)

	recorder := doRequest(t, handler, http.MethodPost, "/api/v1/categories/", "user-token", input)
	assert.Equal(t, http.StatusForbidden, recorder.Code)

	recorder = doRequest(t, handler, http.MethodPost, "/api/v1/categories/", "", input)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	recorder = doRequest(t, handler, http.MethodPost, "/api/v1/categories/", "admin-token", input)
	require.Equal(t, http.StatusCreated, recorder.Code)
	assert.Equal(t, map[string]string{"name": "Film", "slug": "film"}, decodeBody[map[string]string](t, recorder))

	recorder = doRequest(t, handler, http.MethodGet, "/api/v1/categories/", "", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	list := decodeBody[ListResponse[models.Category]](t, recorder)
	require.Len(t, list.Results, 1)
	assert.Equal(t, "film", list.Results[0].Slug)
	assert.Equal(t, 1, list.Metadata.TotalRecords)
}

func TestGenreDelete(t *testing.T) {
	app, m := NewTestApplication(nil, t)
	handler := app.routes()
	m.genres.On("Delete", mock.Anything, testAdmin, "drama").Return(nil)
	m.genres.On("Delete", mock.Anything, testAdmin, "missing").Return(catalog.ErrGenreNotFound)

	recorder := doRequest(t, handler, http.MethodDelete, "/api/v1/genres/drama/", "admin-token", nil)
	assert.Equal(t, http.StatusNoContent, recorder.Code)
	assert.Empty(t, recorder.Body.String())

	recorder = doRequest(t, handler, http.MethodDelete, "/api/v1/genres/missing", "admin-token", nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestListTitlesFilters(t *testing.T) {
	app, m := NewTestApplication(nil, t)
	rating := 7.5
	title := models.Title{
		ID:     3,
		Name:   "The Matrix",
		Year:   1999,
		Genres: []models.Genre{{Name: "Drama", Slug: "drama"}},
		Rating: &rating,
	}
	m.titles.On("List", mock.Anything, mock.MatchedBy(func(tf filters.TitleFilters) bool {
		return tf.Year != nil && *tf.Year == 1999 && slices.Equal(tf.Genres, []string{"drama", "comedy"})
	}), filters.New(2, 5)).Return([]models.Title{title}, filters.CalculateMetadata(6, 2, 5), nil)

	recorder := doRequest(t, app.routes(), http.MethodGet, "/api/v1/titles/?year=1999&genre=drama,comedy&page=2&page_size=5", "", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	body := decodeBody[map[string]any](t, recorder)
	results := body["results"].([]any)
	require.Len(t, results, 1)
	first := results[0].(map[string]any)
	assert.Equal(t, "The Matrix", first["name"])
	assert.Nil(t, first["category"])
	assert.Equal(t, 7.5, first["rating"])
	assert.Equal(t, float64(2), body["metadata"].(map[string]any)["last_page"])
}

func TestListTitlesEmpty(t *testing.T) {
	app, m := NewTestApplication(nil, t)
	m.titles.On("List", mock.Anything, mock.Anything, mock.Anything).Return(nil, filters.Metadata{}, nil)
	recorder := doRequest(t, app.routes(), http.MethodGet, "/api/v1/titles", "", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"results": [], "metadata": {"total_records": 0}}`, recorder.Body.String())
}

func TestListTitlesMalformedQuery(t *testing.T) {
	app, m := NewTestApplication(nil, t)
	recorder := doRequest(t, app.routes(), http.MethodGet, "/api/v1/titles?page=abc&year=old", "", nil)
	require.Equal(t, http.StatusBadRequest, recorder.Code)
	body := decodeBody[ErrorResponse](t, recorder)
	assert.Contains(t, body.Errors, "page")
	m.titles.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
}

func TestTitleByID(t *testing.T) {
	app, m := NewTestApplication(nil, t)
	handler := app.routes()
	m.titles.On("Get", mock.Anything, int64(3)).Return(&models.Title{ID: 3, Name: "Heat", Year: 1995, Genres: []models.Genre{}}, nil)
	m.titles.On("Get", mock.Anything, int64(4)).Return(nil, catalog.ErrTitleNotFound)

	recorder := doRequest(t, handler, http.MethodGet, "/api/v1/titles/3/", "", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"id": 3, "name": "Heat", "year": 1995, "category": null, "genre": [], "rating": null}`, recorder.Body.String())

	recorder = doRequest(t, handler, http.MethodGet, "/api/v1/titles/4/", "", nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)

	recorder = doRequest(t, handler, http.MethodGet, "/api/v1/titles/abc/", "", nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
	m.titles.AssertNumberOfCalls(t, "Get", 2)
}

func TestCreateTitle(t *testing.T) {
	app, m := NewTestApplication(nil, t)
	year := int32(1999)
	input := catalog.TitleInput{Name: "The Matrix", Year: &year, Category: "film", Genres: []string{"drama"}}
	m.titles.On("Create", mock.Anything, testAdmin, input).Return(&models.Title{ID: 9, Name: "The Matrix", Year: 1999}, nil)

	recorder := doRequest(t, app.routes(), http.MethodPost, "/api/v1/titles/", "admin-token", map[string]any{
		"name":     "The Matrix",
		"year":     1999,
		"category": "film",
		"genre":    []string{"drama"},
	})
	require.Equal(t, http.StatusCreated, recorder.Code)
	assert.Equal(t, float64(9), decodeBody[map[string]any](t, recorder)["id"])
}

func TestPatchTitle(t *testing.T) {
	app, m := NewTestApplication(nil, t)
	m.titles.On("Patch", mock.Anything, testAdmin, int64(3), mock.MatchedBy(func(p catalog.TitlePatch) bool {
		return p.Name != nil && *p.Name == "Heat" && p.Year == nil && p.Category == nil && p.Genres == nil
	})).Return(&models.Title{ID: 3, Name: "Heat"}, nil)

	recorder := doRequest(t, app.routes(), http.MethodPatch, "/api/v1/titles/3", "admin-token", map[string]string{"name": "Heat"})
	assert.Equal(t, http.StatusOK, recorder.Code)
	m.titles.AssertExpectations(t)
}

func TestCreateReview(t *testing.T) {
	app, m := NewTestApplication(nil, t)
	handler := app.routes()
	score := int16(8)
	input := feedback.ReviewInput{Text: "Great", Score: &score}
	review := &models.Review{ID: 5, TitleID: 3, AuthorID: testUser.ID, Author: "user", Text: "Great", Score: 8}
	m.reviews.On("Create", mock.Anything, testUser, int64(3), input).Return(review, nil).Once()
	m.reviews.On("Create", mock.Anything, testUser, int64(3), input).Return(nil, feedback.ErrAlreadyReviewed)

	recorder := doRequest(t, handler, http.MethodPost, "/api/v1/titles/3/reviews/", "user-token", input)
	require.Equal(t, http.StatusCreated, recorder.Code)
	body := decodeBody[map[string]any](t, recorder)
	assert.Equal(t, "user", body["author"])
	assert.Equal(t, float64(8), body["score"])
	assert.NotContains(t, body, "author_id")

	recorder = doRequest(t, handler, http.MethodPost, "/api/v1/titles/3/reviews/", "user-token", input)
	assert.Equal(t, http.StatusConflict, recorder.Code)
}

func TestReviewNotInTitle(t *testing.T) {
	app, m := NewTestApplication(nil, t)
	m.reviews.On("Get", mock.Anything, int64(3), int64(99)).Return(nil, feedback.ErrReviewNotFound)
	recorder := doRequest(t, app.routes(), http.MethodGet, "/api/v1/titles/3/reviews/99/", "", nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestDeleteCommentForbidden(t *testing.T) {
	app, m := NewTestApplication(nil, t)
	m.comments.On("Delete", mock.Anything, testUser, int64(3), int64(5), int64(11)).Return(policy.ErrForbidden)
	recorder := doRequest(t, app.routes(), http.MethodDelete, "/api/v1/titles/3/reviews/5/comments/11/", "user-token", nil)
	assert.Equal(t, http.StatusForbidden, recorder.Code)
	m.comments.AssertExpectations(t)
}

func TestListComments(t *testing.T) {
	app, m := NewTestApplication(nil, t)
	m.comments.On("List", mock.Anything, int64(3), int64(5), filters.New(1, 20)).
		Return([]models.Comment{{ID: 1, Author: "user", Text: "agreed"}}, filters.CalculateMetadata(1, 1, 20), nil)
	recorder := doRequest(t, app.routes(), http.MethodGet, "/api/v1/titles/3/reviews/5/comments", "", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	list := decodeBody[ListResponse[models.Comment]](t, recorder)
	require.Len(t, list.Results, 1)
	assert.Equal(t, "agreed", list.Results[0].Text)
}

func TestServerErrorHidesDetails(t *testing.T) {
	app, m := NewTestApplication(nil, t)
	m.reviews.On("List", mock.Anything, int64(3), mock.Anything).Return(nil, filters.Metadata{}, assert.AnError)
	recorder := doRequest(t, app.routes(), http.MethodGet, "/api/v1/titles/3/reviews", "", nil)
	require.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.NotContains(t, recorder.Body.String(), assert.AnError.Error())
}
