package controllers

import (
	"net/http"

	"github.com/angelmondragon/skillhunter-backend/api/responses"
	"github.com/angelmondragon/skillhunter-backend/internal/storefront"
)

type deviceResponse struct {
	DeviceID string `json:"device_id"`
}

// DeviceIssue hands a new client the id it must send as X-Device-Id.
func DeviceIssue() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		responses.WriteSuccessStatus(w, http.StatusCreated, deviceResponse{DeviceID: storefront.NewDeviceID()})
	}
}
