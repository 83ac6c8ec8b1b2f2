package viewmodels

import (
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// BaseViewModel is embedded in every JSON response the API writes.
type BaseViewModel struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

func Success() BaseViewModel {
	return BaseViewModel{Status: StatusSuccess}
}

func Error(message string) BaseViewModel {
	return BaseViewModel{Status: StatusError, Message: message}
}

func WriteJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(value); err != nil {
		slog.Error("error writing JSON response", "error", err)
	}
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, Error(message))
}
