package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/xavierca1/ligue-leads/internal/usecase"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

func writeErrorResponse(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: message})
}

// writeUseCaseError maps use case error codes onto HTTP statuses.
func writeUseCaseError(w http.ResponseWriter, err error) {
	code := usecase.ErrorCode(err)

	status := http.StatusInternalServerError
	switch code {
	case usecase.CodeValidation, usecase.CodeUploadDecodeFailed:
		status = http.StatusBadRequest
	case usecase.CodeLeadNotFound:
		status = http.StatusNotFound
	case usecase.CodeSourceUnauthorized, usecase.CodeSourceFailed:
		status = http.StatusBadGateway
	case usecase.CodeStoreUnavailable, usecase.CodeDirectoryUnavailable:
		status = http.StatusServiceUnavailable
	case "":
		code = "INTERNAL_ERROR"
	}

	message := err.Error()
	if status >= http.StatusInternalServerError {
		zap.L().Error("request failed", zap.String("code", code), zap.Error(err))
		message = serverErrorMessages[code]
		if message == "" {
			message = "internal server error"
		}
	}
	writeErrorResponse(w, status, code, message)
}

// Server-side failures only expose a fixed message; the cause is logged.
var serverErrorMessages = map[string]string{
	usecase.CodeSourceUnauthorized:   "cannot authenticate with the lead source",
	usecase.CodeSourceFailed:         "the lead source failed",
	usecase.CodeStoreUnavailable:     "the lead store is unavailable",
	usecase.CodeDirectoryUnavailable: "the agent directory is unavailable",
}
