package listener

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/pixil98/go-bunker/internal/game"
)

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func statusFor(kind game.ErrorKind) int {
	switch kind {
	case game.KindNotFound:
		return http.StatusNotFound
	case game.KindInvalidState, game.KindConflict:
		return http.StatusConflict
	case game.KindResourceExhausted:
		return http.StatusUnprocessableEntity
	case game.KindValidation:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: game.ErrInvalidRequest.Code, Message: err.Error()})
		return
	}

	ge, ok := game.AsError(err)
	if !ok {
		slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal", Message: "internal error"})
		return
	}

	writeJSON(w, statusFor(ge.Kind), errorBody{Error: ge.Code, Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("writing response", "error", err)
	}
}
