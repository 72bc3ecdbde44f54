package valuation

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/atmx/valuation-engine/internal/classify"
	"github.com/atmx/valuation-engine/internal/intrinsic"
	"github.com/atmx/valuation-engine/internal/metrics"
	"github.com/atmx/valuation-engine/internal/model"
	"github.com/atmx/valuation-engine/internal/store"
	"github.com/atmx/valuation-engine/internal/ticker"
)

// Settings are the service-wide valuation defaults.
type Settings struct {
	RiskFreeRate float64
	Params       intrinsic.Params
	HistoryLimit int
}

// Service handles valuation requests. The engine is stateless, so
// requests run concurrently without locking.
type Service struct {
	store    store.Store
	wsHub    *WSHub // optional WebSocket hub for completion broadcasts
	settings Settings
	validate *validator.Validate
	now      func() time.Time
}

// NewService creates a new valuation service.
// Pass nil for hub if WebSocket broadcasting is not needed.
func NewService(st store.Store, hub *WSHub, settings Settings) *Service {
	if settings.HistoryLimit <= 0 {
		settings.HistoryLimit = 50
	}
	if settings.Params == (intrinsic.Params{}) {
		settings.Params = intrinsic.DefaultParams()
	}
	return &Service{
		store:    st,
		wsHub:    hub,
		settings: settings,
		validate: validator.New(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// --- Request/Response types ---

// ValuationRequest is the JSON body for POST /api/v1/valuations.
type ValuationRequest struct {
	Company      *model.CompanyFinancialData `json:"company" validate:"required"`
	RiskFreeRate *float64                    `json:"risk_free_rate" validate:"omitempty,gte=0,lte=0.25"`
	Quality      *float64                    `json:"business_quality_score" default:"50" validate:"required,gte=0,lte=100"`
	Health       *float64                    `json:"financial_health_score" default:"50" validate:"required,gte=0,lte=100"`
	BusinessType string                      `json:"business_type"` // preset name, "auto", or empty
	Weights      *classify.Weights           `json:"weights,omitempty" validate:"omitempty"`
}

// ValuationResponse is returned from POST /api/v1/valuations.
type ValuationResponse struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Report
}

// BusinessTypeInfo is one row of GET /api/v1/business-types.
type BusinessTypeInfo struct {
	Name    classify.BusinessType `json:"name"`
	Weights classify.Weights      `json:"weights"`
}

// options validates the request beyond struct tags and builds engine
// options.
func (s *Service) options(req *ValuationRequest) (Options, error) {
	opts := DefaultOptions(s.settings.RiskFreeRate)
	opts.Params = s.settings.Params
	opts.Quality = *req.Quality
	opts.Health = *req.Health
	if req.RiskFreeRate != nil {
		opts.RiskFreeRate = *req.RiskFreeRate
	}

	if req.Weights != nil {
		if err := req.Weights.Validate(); err != nil {
			return opts, err
		}
		opts.Weights = req.Weights
	}

	switch bt := strings.TrimSpace(req.BusinessType); {
	case bt == "":
	case strings.EqualFold(bt, AutoBusinessType):
		opts.BusinessType = AutoBusinessType
	default:
		parsed, err := classify.ParseBusinessType(bt)
		if err != nil {
			return opts, err
		}
		opts.BusinessType = parsed
	}
	return opts, nil
}

// --- HTTP Handlers ---

// CreateValuation handles POST /api/v1/valuations
// Runs the engine, persists the record, and broadcasts the result.
func (s *Service) CreateValuation(w http.ResponseWriter, r *http.Request) {
	var req ValuationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := defaults.Set(&req); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.validate.StructCtx(r.Context(), &req); err != nil {
		writeError(w, validationMessage(err), http.StatusBadRequest)
		return
	}

	sym, err := ticker.Parse(req.Company.Ticker)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	opts, err := s.options(&req)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Work on a copy so the normalized symbol does not alias the request.
	company := *req.Company
	company.Ticker = sym.Symbol

	start := time.Now()
	report := Evaluate(&company, opts)
	elapsed := time.Since(start)
	metrics.ObserveValuation(string(report.Recommendation), string(report.Category),
		report.InvalidMethods, report.FairValue, elapsed)

	rec := toRecord(uuid.New().String(), s.now(), report)
	if err := s.store.SaveValuation(r.Context(), rec); err != nil {
		slog.Error("save valuation failed", "ticker", rec.Ticker, "err", err)
		writeError(w, "failed to save valuation", http.StatusInternalServerError)
		return
	}

	slog.Info("valuation completed",
		"id", rec.ID,
		"ticker", rec.Ticker,
		"category", report.Category,
		"weight_source", report.WeightSource,
		"fair_value", rec.FairValue.String(),
		"price", rec.CurrentPrice.String(),
		"recommendation", report.Recommendation,
		"invalid_methods", report.InvalidMethods,
		"elapsed", elapsed,
	)

	if s.wsHub != nil {
		s.wsHub.Broadcast(WSMessage{
			Type:           "valuation_completed",
			ValuationID:    rec.ID,
			Ticker:         rec.Ticker,
			FairValue:      rec.FairValue.String(),
			CurrentPrice:   rec.CurrentPrice.String(),
			MarginOfSafety: rec.MarginOfSafety.String(),
			Recommendation: string(rec.Recommendation),
		})
	}

	writeJSON(w, http.StatusCreated, ValuationResponse{
		ID:        rec.ID,
		CreatedAt: rec.CreatedAt,
		Report:    report,
	})
}

// GetValuation handles GET /api/v1/valuations/{valuationID}
func (s *Service) GetValuation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "valuationID")

	rec, err := s.store.GetValuation(r.Context(), id)
	if err != nil {
		writeStoreError(w, err, "valuation not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// ListValuations handles GET /api/v1/valuations
// Returns the latest valuation of every ticker, optionally filtered by
// ?recommendation=<literal>.
func (s *Service) ListValuations(w http.ResponseWriter, r *http.Request) {
	recs, err := s.store.ListLatest(r.Context())
	if err != nil {
		writeError(w, "failed to list valuations", http.StatusInternalServerError)
		return
	}

	if want := r.URL.Query().Get("recommendation"); want != "" {
		if !model.Recommendation(want).Valid() {
			writeError(w, fmt.Sprintf("unknown recommendation %q", want), http.StatusBadRequest)
			return
		}
		var filtered []model.ValuationRecord
		for _, rec := range recs {
			if string(rec.Recommendation) == want {
				filtered = append(filtered, rec)
			}
		}
		recs = filtered
	}
	if recs == nil {
		recs = []model.ValuationRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

// TickerHistory handles GET /api/v1/tickers/{ticker}/valuations
// Returns up to ?limit= records, newest first.
func (s *Service) TickerHistory(w http.ResponseWriter, r *http.Request) {
	sym, err := ticker.Parse(chi.URLParam(r, "ticker"))
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	limit := s.settings.HistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, s.settings.HistoryLimit)
	}

	recs, err := s.store.ListByTicker(r.Context(), sym.Symbol, limit)
	if err != nil {
		writeError(w, "failed to load valuation history", http.StatusInternalServerError)
		return
	}
	if recs == nil {
		recs = []model.ValuationRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

// LatestValuation handles GET /api/v1/tickers/{ticker}/valuations/latest
func (s *Service) LatestValuation(w http.ResponseWriter, r *http.Request) {
	sym, err := ticker.Parse(chi.URLParam(r, "ticker"))
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	rec, err := s.store.LatestByTicker(r.Context(), sym.Symbol)
	if err != nil {
		writeStoreError(w, err, "no valuation for ticker")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// ListBusinessTypes handles GET /api/v1/business-types
func (s *Service) ListBusinessTypes(w http.ResponseWriter, _ *http.Request) {
	types := classify.BusinessTypes()
	out := make([]BusinessTypeInfo, 0, len(types))
	for _, bt := range types {
		out = append(out, BusinessTypeInfo{Name: bt, Weights: bt.Weights()})
	}
	writeJSON(w, http.StatusOK, out)
}

// --- Helpers ---

// toRecord converts a report into its persisted form. Money and ratios are
// rounded to 4 decimal places.
func toRecord(id string, at time.Time, rep Report) *model.ValuationRecord {
	return &model.ValuationRecord{
		ID:                    id,
		Ticker:                rep.Ticker,
		Currency:              rep.Currency,
		Category:              string(rep.Category),
		BusinessType:          rep.BusinessType,
		CurrentPrice:          dec(rep.CurrentPrice),
		FairValue:             dec(rep.FairValue),
		ConfidenceLower:       dec(rep.ConfidenceLower),
		ConfidenceUpper:       dec(rep.ConfidenceUpper),
		DCFValue:              dec(rep.Breakdown.DCF),
		EPVValue:              dec(rep.Breakdown.EarningsPower),
		AssetValue:            dec(rep.Breakdown.AssetBased),
		MarginOfSafety:        dec(rep.MarginOfSafety),
		UpsidePotential:       dec(rep.UpsidePotential),
		PriceToIntrinsicValue: dec(rep.PriceToIntrinsicValue),
		Recommendation:        rep.Recommendation,
		Reasoning:             rep.Reasoning,
		CreatedAt:             at,
	}
}

func dec(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f).Round(4)
}

// validationMessage flattens validator errors into "field: rule" pairs.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Namespace(), rule))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func writeStoreError(w http.ResponseWriter, err error, notFound string) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, notFound, http.StatusNotFound)
		return
	}
	slog.Error("store error", "err", err)
	writeError(w, "internal error", http.StatusInternalServerError)
}

// writeJSON encodes v before writing the status so an encoding failure
// becomes a 500 instead of a success with an empty body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		slog.Error("encode response failed", "err", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"failed to encode response"}` + "\n"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(body, '\n'))
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}
