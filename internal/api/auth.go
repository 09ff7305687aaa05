package api

import (
	"errors"
	"net/http"

	"github.com/samandr77/microservices/backoffice/internal/entity"
)

// Register creates an account and returns an access token.
// @Summary Register
// @Tags auth
// @Accept json
// @Produce json
// @Param RegisterRequest body RegisterRequest true "Registration"
// @Success 201 {object} AuthResponse
// @Failure 400 {object} ErrorResponse "Invalid request"
// @Failure 409 {object} ErrorResponse "User with same E-mail already exists"
// @Failure 503 {object} ErrorResponse "Registration is currently disabled."
// @Failure 500 {object} ErrorResponse "Registration failed"
// @Router /auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req RegisterRequest

	msg, err := decodeRequest(r, &req)
	if err != nil {
		SendJSONErr(ctx, w, http.StatusBadRequest, err, msg)
		return
	}

	token, err := h.users.Register(ctx, req.Email, req.Password, req.FullName)
	if err != nil {
		switch {
		case errors.Is(err, entity.ErrAlreadyExists):
			SendJSONErr(ctx, w, http.StatusConflict, err, "User with same E-mail already exists")
		case errors.Is(err, entity.ErrTemporarilyDisabled):
			SendJSONErr(ctx, w, http.StatusServiceUnavailable, err, "Registration is currently disabled.")
		default:
			SendJSONErr(ctx, w, http.StatusInternalServerError, err, "Registration failed")
		}

		return
	}

	SendJSON(ctx, w, http.StatusCreated, authToAPI(token))
}

// Login exchanges credentials for an access token.
// @Summary Login
// @Tags auth
// @Accept json
// @Produce json
// @Param LoginRequest body LoginRequest true "Credentials"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} ErrorResponse "Invalid request"
// @Failure 401 {object} ErrorResponse "Invalid email or password"
// @Failure 500 {object} ErrorResponse "Login failed"
// @Router /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req LoginRequest

	msg, err := decodeRequest(r, &req)
	if err != nil {
		SendJSONErr(ctx, w, http.StatusBadRequest, err, msg)
		return
	}

	token, err := h.users.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, entity.ErrInvalidCredentials) {
			SendJSONErr(ctx, w, http.StatusUnauthorized, err, "Invalid email or password")
			return
		}

		SendJSONErr(ctx, w, http.StatusInternalServerError, err, "Login failed")

		return
	}

	SendJSON(ctx, w, http.StatusOK, authToAPI(token))
}
