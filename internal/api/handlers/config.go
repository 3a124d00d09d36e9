package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/bitagora/paywatch/internal/config"
	"github.com/bitagora/paywatch/internal/httputil"
	"github.com/bitagora/paywatch/internal/monitor"
)

// configPayload is the wire form of partial monitoring config. Durations are
// milliseconds, matching what the POS frontend sends.
type configPayload struct {
	TargetConfirmations *int    `json:"target_confirmations,omitempty"`
	PollIntervalMs      *int64  `json:"poll_interval_ms,omitempty"`
	TimeoutMs           *int64  `json:"timeout_ms,omitempty"`
	MaxRetries          *int    `json:"max_retries,omitempty"`
	BlockchainAPI       *string `json:"blockchain_api,omitempty"`
}

// overrides converts the payload to monitor overrides. Nil-safe.
func (p *configPayload) overrides() *monitor.ConfigOverrides {
	if p == nil {
		return nil
	}
	o := &monitor.ConfigOverrides{
		TargetConfirmations: p.TargetConfirmations,
		MaxRetries:          p.MaxRetries,
		BlockchainAPI:       p.BlockchainAPI,
	}
	if p.PollIntervalMs != nil {
		d := time.Duration(*p.PollIntervalMs) * time.Millisecond
		o.PollInterval = &d
	}
	if p.TimeoutMs != nil {
		d := time.Duration(*p.TimeoutMs) * time.Millisecond
		o.Timeout = &d
	}
	return o
}

// configView is the wire form of the effective monitoring defaults.
type configView struct {
	TargetConfirmations int    `json:"target_confirmations"`
	PollIntervalMs      int64  `json:"poll_interval_ms"`
	TimeoutMs           int64  `json:"timeout_ms"`
	MaxRetries          int    `json:"max_retries"`
	BlockchainAPI       string `json:"blockchain_api"`
	Network             string `json:"network"`
}

func viewOf(c monitor.SessionConfig) configView {
	return configView{
		TargetConfirmations: c.TargetConfirmations,
		PollIntervalMs:      c.PollInterval.Milliseconds(),
		TimeoutMs:           c.Timeout.Milliseconds(),
		MaxRetries:          c.MaxRetries,
		BlockchainAPI:       c.BlockchainAPI,
		Network:             c.Network,
	}
}

// GetConfigHandler returns a handler for GET /api/config.
func GetConfigHandler(m *monitor.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, viewOf(m.Defaults()))
	}
}

// UpdateConfigHandler returns a handler for PUT /api/config. The merged
// defaults apply to sessions started after this call; running sessions keep
// the config they snapshotted at start.
func UpdateConfigHandler(m *monitor.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload configPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			slog.Debug("update config: invalid request body", "error", err)
			httputil.Error(w, http.StatusBadRequest, config.ErrorInvalidRequest, "Invalid request body")
			return
		}

		merged, err := m.UpdateDefaults(payload.overrides())
		if err != nil {
			httputil.Error(w, http.StatusBadRequest, config.ErrorInvalidConfig, err.Error())
			return
		}

		httputil.JSON(w, http.StatusOK, viewOf(merged))
	}
}
