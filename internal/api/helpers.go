package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
)

type ErrorResponse struct {
	Message     string `json:"message"`
	Description string `json:"description,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func SendJSONErr(ctx context.Context, w http.ResponseWriter, code int, originErr error, msgToSend string) {
	resp := ErrorResponse{Message: msgToSend}

	if originErr != nil {
		resp.Description = originErr.Error()
	}

	if code >= http.StatusInternalServerError {
		slog.ErrorContext(ctx, "api error", "status", code, "error", resp.Description)
	} else {
		slog.WarnContext(ctx, "api error", "status", code, "error", resp.Description)
	}

	SendJSON(ctx, w, code, resp)
}

func SendJSON(ctx context.Context, w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	err := json.NewEncoder(w).Encode(data)
	if err != nil {
		slog.ErrorContext(ctx, "encode response", "error", err)
	}
}

// decodeRequest reads a JSON body into req and validates it.
func decodeRequest(r *http.Request, req interface{ Validate() error }) (msg string, err error) {
	err = json.NewDecoder(r.Body).Decode(req)
	if err != nil {
		return "Invalid JSON", err
	}

	err = req.Validate()
	if err != nil {
		return "Validation failed", err
	}

	return "", nil
}
