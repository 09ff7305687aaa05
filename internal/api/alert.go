package api

import (
	"errors"
	"net/http"

	"github.com/samandr77/microservices/backoffice/internal/entity"
)

// SendAlert posts a message to the operators channel.
// @Summary Send alert
// @Tags alerts
// @Accept json
// @Produce json
// @Param AlertRequest body AlertRequest true "Alert"
// @Success 202 {object} MessageResponse
// @Failure 400 {object} ErrorResponse "Invalid request"
// @Failure 502 {object} ErrorResponse "Alert channel failed"
// @Failure 503 {object} ErrorResponse "Alerts are temporarily disabled."
// @Router /alerts [post]
// @Security BearerAuth
func (h *Handler) SendAlert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req AlertRequest

	msg, err := decodeRequest(r, &req)
	if err != nil {
		SendJSONErr(ctx, w, http.StatusBadRequest, err, msg)
		return
	}

	err = h.alerts.Send(ctx, req.Message)
	if err != nil {
		if errors.Is(err, entity.ErrTemporarilyDisabled) {
			SendJSONErr(ctx, w, http.StatusServiceUnavailable, err, "Alerts are temporarily disabled.")
			return
		}

		SendJSONErr(ctx, w, http.StatusBadGateway, err, "Alert channel failed")

		return
	}

	SendJSON(ctx, w, http.StatusAccepted, MessageResponse{Message: "Alert sent."})
}
