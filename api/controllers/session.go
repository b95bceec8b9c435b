package controllers

import (
	"net/http"

	"github.com/angelmondragon/skillhunter-backend/api/responses"
	"github.com/angelmondragon/skillhunter-backend/pkg/db/models"
	"github.com/angelmondragon/skillhunter-backend/pkg/logger"
)

type sessionResponse struct {
	User      *models.Profile `json:"user"`
	IsLoading bool            `json:"is_loading"`
}

// SessionState reports the device's current identity.
func SessionState(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		app, ok := deviceApp(w, r, logg)
		if !ok {
			return
		}
		state := app.Session.State()
		responses.WriteSuccess(w, sessionResponse{User: state.CurrentUser, IsLoading: state.IsLoading})
	}
}
