package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/bitagora/paywatch/internal/config"
	"github.com/bitagora/paywatch/internal/httputil"
	"github.com/bitagora/paywatch/internal/price"
)

type priceView struct {
	BTCUSD    float64   `json:"btc_usd"`
	FetchedAt time.Time `json:"fetched_at"`
}

// GetPriceHandler returns a handler for GET /api/price. The rate is cached
// briefly server-side; matching quotes across rapid requests is fine for a
// checkout flow.
func GetPriceHandler(svc *price.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rate, err := svc.BTCUSD(r.Context())
		if err != nil {
			slog.Error("price fetch failed", "error", err)
			httputil.Error(w, http.StatusBadGateway, config.ErrorProvider,
				"Price feed request failed")
			return
		}

		httputil.JSON(w, http.StatusOK, priceView{
			BTCUSD:    rate,
			FetchedAt: time.Now().UTC(),
		})
	}
}
