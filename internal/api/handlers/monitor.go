package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bitagora/paywatch/internal/config"
	"github.com/bitagora/paywatch/internal/httputil"
	"github.com/bitagora/paywatch/internal/monitor"
	"github.com/bitagora/paywatch/internal/validate"
)

type startMonitoringRequest struct {
	Address        string         `json:"address"`
	ExpectedAmount int64          `json:"expected_amount"`
	USDAmount      float64        `json:"usd_amount,omitempty"`
	Config         *configPayload `json:"config,omitempty"`
}

// StartMonitoringHandler returns a handler for POST /api/monitor.
func StartMonitoringHandler(m *monitor.Manager, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req startMonitoringRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			slog.Debug("start monitoring: invalid request body", "error", err)
			httputil.Error(w, http.StatusBadRequest, config.ErrorInvalidRequest, "Invalid request body")
			return
		}

		if req.Address == "" {
			httputil.Error(w, http.StatusBadRequest, config.ErrorInvalidAddress, "Address is required")
			return
		}
		if req.ExpectedAmount <= 0 {
			httputil.Error(w, http.StatusBadRequest, config.ErrorInvalidAmount,
				"Expected amount must be a positive satoshi value")
			return
		}

		overrides := req.Config.overrides()

		// Address format is checked against the deployment network, except
		// for the mock provider where synthetic addresses are fine.
		api := m.Defaults().BlockchainAPI
		if overrides != nil && overrides.BlockchainAPI != nil {
			api = *overrides.BlockchainAPI
		}
		if api != config.APIMock {
			if err := validate.Address(req.Address, cfg.Network); err != nil {
				httputil.Error(w, http.StatusBadRequest, config.ErrorInvalidAddress, err.Error())
				return
			}
		}

		snap, err := m.Start(req.Address, req.ExpectedAmount, req.USDAmount, overrides)
		if err != nil {
			switch {
			case errors.Is(err, config.ErrAlreadyMonitoring):
				httputil.Error(w, http.StatusConflict, config.ErrorAlreadyMonitoring, err.Error())
			case errors.Is(err, config.ErrMaxSessions):
				httputil.Error(w, http.StatusTooManyRequests, config.ErrorMaxSessions, err.Error())
			case errors.Is(err, config.ErrUnknownProvider):
				httputil.Error(w, http.StatusBadRequest, config.ErrorInvalidConfig, err.Error())
			default:
				slog.Error("start monitoring failed", "address", req.Address, "error", err)
				httputil.Error(w, http.StatusBadRequest, config.ErrorInvalidConfig, err.Error())
			}
			return
		}

		slog.Info("monitoring started via API",
			"address", snap.Address,
			"expectedSats", snap.ExpectedAmount,
			"provider", snap.Provider,
			"remoteAddr", r.RemoteAddr,
		)
		httputil.JSON(w, http.StatusCreated, snap)
	}
}

// GetStatusHandler returns a handler for GET /api/monitor/{address}.
// Pure read of the in-memory session; does not trigger a poll. A recently
// finished session's final snapshot remains readable for a short window
// after teardown.
func GetStatusHandler(m *monitor.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		address := chi.URLParam(r, "address")
		if address == "" {
			httputil.Error(w, http.StatusBadRequest, config.ErrorInvalidAddress, "Address is required")
			return
		}

		snap, ok := m.Status(address)
		if !ok {
			httputil.Error(w, http.StatusNotFound, config.ErrorSessionNotFound,
				"No monitoring session for "+address)
			return
		}

		httputil.JSON(w, http.StatusOK, snap)
	}
}

// StopMonitoringHandler returns a handler for DELETE /api/monitor/{address}.
// Idempotent: stopping an unmonitored address still succeeds.
func StopMonitoringHandler(m *monitor.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		address := chi.URLParam(r, "address")
		if address == "" {
			httputil.Error(w, http.StatusBadRequest, config.ErrorInvalidAddress, "Address is required")
			return
		}

		m.Stop(address)
		httputil.JSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}

// ListSessionsHandler returns a handler for GET /api/monitors.
func ListSessionsHandler(m *monitor.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessions := m.Sessions()
		slog.Debug("sessions listed", "count", len(sessions))
		httputil.JSON(w, http.StatusOK, sessions)
	}
}

// CheckAddressHandler returns a handler for GET /api/address/{address}.
// One-shot inspection via the default provider, bypassing any session.
// Provider error detail is logged server-side only; clients get a generic
// upstream-failure response.
func CheckAddressHandler(m *monitor.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		address := chi.URLParam(r, "address")
		if address == "" {
			httputil.Error(w, http.StatusBadRequest, config.ErrorInvalidAddress, "Address is required")
			return
		}

		info, err := m.CheckOnce(r.Context(), address)
		if err != nil {
			slog.Error("address check failed", "address", address, "error", err)
			httputil.Error(w, http.StatusBadGateway, config.ErrorProvider,
				"Blockchain explorer request failed")
			return
		}

		httputil.JSON(w, http.StatusOK, info)
	}
}
