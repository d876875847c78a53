package render

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/omni/tokenbridge-core/db"
	"github.com/omni/tokenbridge-core/logging"
)

type errorResult struct {
	Error string `json:"error"`
}

func JSON(w http.ResponseWriter, r *http.Request, status int, res interface{}) {
	enc := json.NewEncoder(w)

	if pretty, _ := strconv.ParseBool(r.URL.Query().Get("pretty")); pretty {
		enc.SetIndent("", "  ")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := enc.Encode(res); err != nil {
		logging.LoggerFromContext(r.Context()).WithError(err).Error("failed to marshal JSON result")
	}
}

// Error renders err as a JSON error body, db.ErrNotFound becomes 404.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, db.ErrNotFound) {
		status = http.StatusNotFound
	}
	logger := logging.LoggerFromContext(r.Context()).WithError(err)
	if status == http.StatusInternalServerError {
		logger.Error("request handling failed")
	} else {
		logger.Debug("requested entity not found")
	}
	JSON(w, r, status, &errorResult{err.Error()})
}

func BadRequest(w http.ResponseWriter, r *http.Request, err error) {
	logging.LoggerFromContext(r.Context()).WithError(err).Warn("bad request parameters")
	JSON(w, r, http.StatusBadRequest, &errorResult{err.Error()})
}

func NotFound(w http.ResponseWriter, r *http.Request, msg string) {
	JSON(w, r, http.StatusNotFound, &errorResult{msg})
}
