package gateway

import (
	"context"
	"errors"
	"net/http"

	sonic "github.com/bytedance/sonic"

	"github.com/trainwr/fantasy-cricket/internal/interfaces/chat"
	"github.com/trainwr/fantasy-cricket/internal/usecase"
)

// updateResponse is what the chat gateway renders back to the user. The
// reply is present even on a typed failure: the dispatcher turns those into
// user-facing rejection text.
type updateResponse struct {
	Reply *chat.Reply    `json:"reply,omitempty"`
	Error *responseError `json:"error,omitempty"`
}

type responseError struct {
	Code    int    `json:"code"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	ctx, span := startSpan(ctx, "gateway.writeJSON")
	defer span.End()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(payload)
}

func writeReply(ctx context.Context, w http.ResponseWriter, reply chat.Reply) {
	writeJSON(ctx, w, http.StatusOK, updateResponse{Reply: &reply})
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	status, reason := mapError(err)
	writeJSON(ctx, w, status, updateResponse{
		Error: &responseError{
			Code:    status,
			Reason:  reason,
			Message: err.Error(),
		},
	})
}

func writeInternalError(ctx context.Context, w http.ResponseWriter) {
	writeJSON(ctx, w, http.StatusInternalServerError, updateResponse{
		Error: &responseError{
			Code:    http.StatusInternalServerError,
			Reason:  "internalError",
			Message: "internal server error",
		},
	})
}

func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, chat.ErrUnknownCommand):
		return http.StatusBadRequest, "unknownCommand"
	case errors.Is(err, usecase.ErrInvalidInput):
		return http.StatusBadRequest, "invalidInput"
	case errors.Is(err, usecase.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, usecase.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, "storageUnavailable"
	default:
		return http.StatusInternalServerError, "internalError"
	}
}
