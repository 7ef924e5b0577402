package main

import (
	"net/http"

	"imdb/proj/internal/services/auth"
)

func (app *Application) signup(w http.ResponseWriter, r *http.Request) {
	var input auth.SignupInput
	if !app.readJSONOrBadRequest(w, r, &input) {
		return
	}
	email, err := app.auth.Signup(r.Context(), input)
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"email": email})
}

func (app *Application) resendConfirmationCode(w http.ResponseWriter, r *http.Request) {
	var input auth.ResendInput
	if !app.readJSONOrBadRequest(w, r, &input) {
		return
	}
	if err := app.auth.ResendCode(r.Context(), input); err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Accepted(w, r, envelop{"message": "Confirmation code was sent to " + input.Email})
}

func (app *Application) obtainToken(w http.ResponseWriter, r *http.Request) {
	var input auth.ConfirmInput
	if !app.readJSONOrBadRequest(w, r, &input) {
		return
	}
	token, err := app.auth.Confirm(r.Context(), input)
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"token": token})
}
