package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"neonx-web/config"
	"neonx-web/errs"
	"neonx-web/models"
	"neonx-web/series"
)

// CandleReader reads persisted candles.
type CandleReader interface {
	GetCandles(ctx context.Context, symbol string, period int, since time.Time) ([]models.CandleStick, error)
	GetCandleCount(ctx context.Context, symbol string) (int, error)
}

// OpenCandles exposes candles that have not closed yet.
type OpenCandles interface {
	Current(symbol string, period int) (models.CandleStick, bool)
}

// PriceReader returns the latest live price.
type PriceReader interface {
	GetLatest(ctx context.Context, symbol string) (models.PriceSnapshot, error)
}

// maxCandleHours matches the longest chart timeframe.
const maxCandleHours = 90 * 24

type Pinger interface {
	Ping(ctx context.Context) error
}

// Countdown reports the countdown state.
type Countdown interface {
	Current() models.CountdownParts
	Target() time.Time
}

type Handler struct {
	Symbol       string
	TokenAddress string
	Timeframes   series.Timeframes
	Random       series.Source
	Candles      CandleReader
	Open         OpenCandles
	Prices       PriceReader
	Countdown    Countdown
	DB           Pinger
	Clients      func() int
	Links        models.Links
	Now          func() time.Time
}

// Register mounts every route on mux.
func (h *Handler) Register(mux *http.ServeMux, websocket http.HandlerFunc) {
	mux.HandleFunc("/health", h.HealthCheck)
	mux.HandleFunc("/api/chart", getOnly(h.GetChart))
	mux.HandleFunc("/api/timeframes", getOnly(h.GetTimeframes))
	mux.HandleFunc("/api/price", getOnly(h.GetPrice))
	mux.HandleFunc("/api/candles", getOnly(h.GetCandles))
	mux.HandleFunc("/api/countdown", getOnly(h.GetCountdown))
	mux.HandleFunc("/api/token", getOnly(h.GetToken))
	if websocket != nil {
		mux.HandleFunc("/ws/live", websocket)
	}
}

func getOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next(w, r)
	}
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// GetChart regenerates the chart for ?timeframe= (24h, 7d, 30d, all).
func (h *Handler) GetChart(w http.ResponseWriter, r *http.Request) {
	panel := &series.Panel{}
	ctrl := series.NewController(panel, panel, h.Random,
		series.WithTimeframes(h.Timeframes),
		series.WithClock(h.now),
	)

	tf, summary, err := ctrl.SelectTimeframe(r.URL.Query().Get("timeframe"))
	if err != nil {
		writeError(w, "failed to generate chart", err)
		return
	}

	writeJSON(w, map[string]interface{}{
		"timeframe": tf.Name,
		"chart":     panel.Chart,
		"display":   panel.Display,
		"summary":   summary,
	})
}

func (h *Handler) GetTimeframes(w http.ResponseWriter, r *http.Request) {
	names := h.Timeframes.Names()
	tfs := make([]models.Timeframe, 0, len(names))
	for _, name := range names {
		tf, _ := h.Timeframes.Lookup(name)
		tfs = append(tfs, tf)
	}
	writeJSON(w, map[string]interface{}{
		"default":    series.DefaultTimeframe,
		"timeframes": tfs,
	})
}

// GetPrice returns the latest live price with display text.
func (h *Handler) GetPrice(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Prices.GetLatest(r.Context(), h.Symbol)
	if err != nil {
		writeError(w, "no live price yet", err)
		return
	}

	writeJSON(w, map[string]interface{}{
		"price": snap,
		"display": series.Display(models.PriceSummary{
			Current:       snap.Price,
			ChangePercent: snap.ChangePercent,
			High:          snap.High,
			Low:           snap.Low,
		}),
	})
}

func (h *Handler) GetCandles(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		symbol = h.Symbol
	}

	periodStr := r.URL.Query().Get("period")
	if periodStr == "" {
		http.Error(w, "period parameter is required", http.StatusBadRequest)
		return
	}

	// Parse period string (e.g., "10s", "1m", "5m")
	periodInfo, err := config.GetPeriodInfo(periodStr)
	if err != nil {
		http.Error(w, "invalid period parameter: "+err.Error(), http.StatusBadRequest)
		return
	}
	period := periodInfo.Value

	hours := 1
	if hoursStr := r.URL.Query().Get("hours"); hoursStr != "" {
		if hours, err = strconv.Atoi(hoursStr); err != nil || hours <= 0 {
			http.Error(w, "invalid hours parameter", http.StatusBadRequest)
			return
		}
	}

	// Short periods produce many rows; cap their window.
	if period < 60 && hours > 6 {
		hours = 6
	}
	if hours > maxCandleHours {
		hours = maxCandleHours
	}

	since := h.now().Add(-time.Duration(hours) * time.Hour)
	candles, err := h.Candles.GetCandles(r.Context(), symbol, period, since)
	if err != nil {
		writeError(w, "failed to load candles", err)
		return
	}
	candleCount, err := h.Candles.GetCandleCount(r.Context(), symbol)
	if err != nil {
		log.Printf("[WARN] count candles: %v", err)
	}

	response := map[string]interface{}{
		"symbol":      symbol,
		"period":      periodInfo.Original,
		"candles":     candles,
		"candleCount": candleCount,
		"hours":       hours,
	}
	if h.Open != nil {
		if open, ok := h.Open.Current(symbol, period); ok {
			response["open"] = open
		}
	}
	writeJSON(w, response)
}

func (h *Handler) GetCountdown(w http.ResponseWriter, r *http.Request) {
	if h.Countdown == nil {
		http.Error(w, "countdown not configured", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]interface{}{
		"target":    h.Countdown.Target().UTC().Format(time.RFC3339),
		"countdown": h.Countdown.Current(),
	})
}

func (h *Handler) GetToken(w http.ResponseWriter, r *http.Request) {
	if h.TokenAddress == "" {
		http.Error(w, "token address not published", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]interface{}{
		"symbol":  h.Symbol,
		"address": h.TokenAddress,
		"links":   h.Links,
	})
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if h.DB != nil {
		if err := h.DB.Ping(r.Context()); err != nil {
			log.Printf("[WARN] health check: %v", err)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "unhealthy"})
			return
		}
	}
	response := map[string]interface{}{
		"status": "healthy",
	}
	if h.Clients != nil {
		response["clients"] = h.Clients()
	}
	writeJSON(w, response)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[ERROR] encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, errs.ErrInvalidArgument):
		http.Error(w, msg+": "+err.Error(), http.StatusBadRequest)
	case errors.Is(err, errs.ErrNotFound):
		http.Error(w, msg, http.StatusNotFound)
	default:
		log.Printf("[ERROR] %s: %v", msg, err)
		http.Error(w, msg, http.StatusInternalServerError)
	}
}
