package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/skillhunter-backend/api/responses"
	"github.com/angelmondragon/skillhunter-backend/api/validators"
	"github.com/angelmondragon/skillhunter-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/skillhunter-backend/pkg/errors"
	"github.com/angelmondragon/skillhunter-backend/pkg/logger"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=128"`
}

type confirmRequest struct {
	Token string `json:"token" validate:"required"`
}

type loginResponse struct {
	User    *models.Profile `json:"user"`
	IsAdmin bool            `json:"is_admin"`
}

type registerResponse struct {
	User                 *models.Profile `json:"user"`
	RequiresConfirmation bool            `json:"requires_confirmation"`
}

// EmailConfirmer consumes email confirmation tokens.
type EmailConfirmer interface {
	ConfirmEmail(ctx context.Context, token string) error
}

// AuthLogin signs the device in. is_admin tells the client where to route next.
func AuthLogin(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		app, ok := deviceApp(w, r, logg)
		if !ok {
			return
		}

		var body loginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := app.Session.Login(r.Context(), body.Email, body.Password)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, loginResponse{User: app.Session.CurrentUser(), IsAdmin: result.IsAdmin})
	}
}

// AuthRegister creates an account. When confirmation is required the device
// stays signed out and user is null.
func AuthRegister(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		app, ok := deviceApp(w, r, logg)
		if !ok {
			return
		}

		var body registerRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		name := validators.SanitizeString(body.Name, 120)
		result, err := app.Session.Register(r.Context(), name, strings.TrimSpace(body.Email), body.Password)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, registerResponse{
			User:                 app.Session.CurrentUser(),
			RequiresConfirmation: result.RequiresConfirmation,
		})
	}
}

// AuthLogout signs the device out and purges its cart.
func AuthLogout(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		app, ok := deviceApp(w, r, logg)
		if !ok {
			return
		}
		if err := app.Session.Logout(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// AuthConfirm consumes the token sent by email after registration.
func AuthConfirm(confirmer EmailConfirmer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if confirmer == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "email confirmation unavailable"))
			return
		}

		var body confirmRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := confirmer.ConfirmEmail(r.Context(), body.Token); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"confirmed": true})
	}
}
