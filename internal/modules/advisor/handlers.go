package advisor

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/SHLOK333/xion-trade-miniapp/internal/domain"
	"github.com/SHLOK333/xion-trade-miniapp/internal/modules/risk"
)

// Handler handles position advice HTTP requests
type Handler struct {
	source         risk.PositionSource
	assessor       *risk.Assessor
	debate         *DebateService
	defaultAccount string
	log            zerolog.Logger
}

// NewHandler creates a new advice handler
func NewHandler(source risk.PositionSource, assessor *risk.Assessor, debate *DebateService, defaultAccount string, log zerolog.Logger) *Handler {
	return &Handler{
		source:         source,
		assessor:       assessor,
		debate:         debate,
		defaultAccount: defaultAccount,
		log:            log.With().Str("handler", "advisor").Logger(),
	}
}

// RegisterRoutes mounts the advice endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/positions/{symbol}", h.HandleAdvice)
}

func (h *Handler) accountID(r *http.Request) string {
	if id := r.URL.Query().Get("account_id"); id != "" {
		return id
	}
	return h.defaultAccount
}

// HandleAdvice runs the three-stance debate for one position. The body
// may carry a daily closing-price series; when present and long enough
// it feeds technical signals into the debate.
func (h *Handler) HandleAdvice(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	var body struct {
		Closes []float64 `json:"closes"`
	}
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil && err.Error() != "EOF" {
			h.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	accountID := h.accountID(r)
	account, err := h.source.Account(accountID)
	if err != nil {
		h.writeAssessError(w, err)
		return
	}
	positions, err := h.source.Positions(accountID)
	if err != nil {
		h.writeAssessError(w, err)
		return
	}
	assessment, err := h.assessor.AssessPortfolio(*account, positions)
	if err != nil {
		h.writeAssessError(w, err)
		return
	}

	position, err := h.assessor.PositionRecommendation(assessment, symbol)
	if err != nil {
		h.writeError(w, http.StatusNotFound, err.Error())
		return
	}

	result, err := h.debate.AnalyzePosition(r.Context(), AdviceRequest{
		Symbol:     position.Symbol,
		Assessment: *position,
		Market:     BuildMarketContext(body.Closes),
	})
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) writeAssessError(w http.ResponseWriter, err error) {
	var notFound *domain.NotFoundError
	if errors.As(err, &notFound) {
		h.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	var invalid *domain.InvalidInputError
	if errors.As(err, &invalid) {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.writeError(w, http.StatusInternalServerError, err.Error())
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
