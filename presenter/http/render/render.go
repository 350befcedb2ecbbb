package render

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/omni/vaa-bridge/logging"
)

type ErrorResult struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func JSON(w http.ResponseWriter, r *http.Request, status int, res interface{}) {
	raw, err := marshal(r, res)
	if err != nil {
		logging.LoggerFromContext(r.Context()).WithError(err).Error("failed to marshal JSON result")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck
	w.Write(raw)
}

func marshal(r *http.Request, res interface{}) ([]byte, error) {
	if pretty, _ := strconv.ParseBool(r.URL.Query().Get("pretty")); pretty {
		return json.MarshalIndent(res, "", "  ")
	}
	return json.Marshal(res)
}

// Error responds with a machine readable code next to the error message.
// Server side failures are logged, their message is not exposed.
func Error(w http.ResponseWriter, r *http.Request, status int, code string, err error) {
	logger := logging.LoggerFromContext(r.Context()).WithError(err).WithField("error_code", code)
	res := &ErrorResult{Error: code, Message: err.Error()}
	if status >= http.StatusInternalServerError {
		logger.Error("request handling failed")
		res.Message = http.StatusText(status)
	} else {
		logger.Warn("request rejected")
	}
	JSON(w, r, status, res)
}
