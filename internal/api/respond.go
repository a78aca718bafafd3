package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/electrify-cli/internal/loadprofile"
	"github.com/sells-group/electrify-cli/internal/model"
	"github.com/sells-group/electrify-cli/internal/ratecalc"
)

type badRequest struct{ msg string }

func (e *badRequest) Error() string { return e.msg }

func gasUsage(req EstimateRequest) (ratecalc.GasUsage, error) {
	if len(req.Timestamps) == 0 {
		return ratecalc.HourlyGasUsage(req.Usage), nil
	}
	if len(req.Timestamps) != len(req.Usage) {
		return ratecalc.GasUsage{}, &badRequest{msg: "timestamps and usage differ in length"}
	}
	ts := make([]time.Time, len(req.Timestamps))
	for i, raw := range req.Timestamps {
		t, err := loadprofile.ParseTimestamp(raw)
		if err != nil {
			return ratecalc.GasUsage{}, &badRequest{msg: err.Error()}
		}
		ts[i] = t
	}
	return ratecalc.GasUsage{Timestamps: ts, Therms: req.Usage}, nil
}

// statusFor maps an evaluation failure to an HTTP status.
func statusFor(err error) int {
	var br *badRequest
	if errors.As(err, &br) {
		return http.StatusBadRequest
	}
	switch model.KindOf(err) {
	case model.FailureResolution:
		return http.StatusNotFound
	case model.FailureDataShape:
		return http.StatusUnprocessableEntity
	case model.FailureConfiguration:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func (s *Server) writeFailure(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", zap.Error(err))
		writeError(w, status, "internal error")
		return
	}
	writeJSON(w, status, map[string]string{
		"error": err.Error(),
		"kind":  string(model.KindOf(err)),
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
