// Package httpjson holds the JSON response helpers shared by the handlers.
package httpjson

import (
	"encoding/json"
	"net/http"

	"github.com/charmbracelet/log"
)

// MaxBodyBytes caps request bodies read by the handlers.
const MaxBodyBytes = 1 << 20

func Write(w http.ResponseWriter, logger *log.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("json encode failed", "err", err)
	}
}

func Error(w http.ResponseWriter, logger *log.Logger, status int, message string) {
	Write(w, logger, status, map[string]string{"error": message})
}
