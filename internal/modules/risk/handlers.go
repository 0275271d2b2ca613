package risk

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/SHLOK333/xion-trade-miniapp/internal/domain"
)

// PositionSource provides current holdings for assessment.
type PositionSource interface {
	Account(id string) (*domain.Account, error)
	Positions(accountID string) ([]domain.Position, error)
}

// Handler handles risk HTTP requests
type Handler struct {
	source         PositionSource
	assessor       *Assessor
	defaultAccount string
	log            zerolog.Logger
}

// NewHandler creates a new risk handler
func NewHandler(source PositionSource, assessor *Assessor, defaultAccount string, log zerolog.Logger) *Handler {
	return &Handler{
		source:         source,
		assessor:       assessor,
		defaultAccount: defaultAccount,
		log:            log.With().Str("handler", "risk").Logger(),
	}
}

// RegisterRoutes mounts the risk endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/portfolio", h.HandleGetPortfolio)
	r.Get("/positions/{symbol}", h.HandleGetPosition)
	r.Post("/reallocations", h.HandleReallocations)
}

func (h *Handler) accountID(r *http.Request) string {
	if id := r.URL.Query().Get("account_id"); id != "" {
		return id
	}
	return h.defaultAccount
}

func (h *Handler) assess(r *http.Request) (PortfolioRiskAssessment, error) {
	accountID := h.accountID(r)

	account, err := h.source.Account(accountID)
	if err != nil {
		return PortfolioRiskAssessment{}, err
	}
	positions, err := h.source.Positions(accountID)
	if err != nil {
		return PortfolioRiskAssessment{}, err
	}
	return h.assessor.AssessPortfolio(*account, positions)
}

// HandleGetPortfolio returns the full portfolio risk assessment
func (h *Handler) HandleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	assessment, err := h.assess(r)
	if err != nil {
		h.writeAssessError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, assessment)
}

// HandleGetPosition returns the assessment for a single symbol
func (h *Handler) HandleGetPosition(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	assessment, err := h.assess(r)
	if err != nil {
		h.writeAssessError(w, err)
		return
	}

	position, err := h.assessor.PositionRecommendation(assessment, symbol)
	if err != nil {
		h.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, position)
}

// HandleReallocations returns reallocation suggestions for a posted
// opportunity list (which may be empty).
func (h *Handler) HandleReallocations(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Opportunities []Opportunity `json:"opportunities"`
	}
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil && err.Error() != "EOF" {
			h.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	assessment, err := h.assess(r)
	if err != nil {
		h.writeAssessError(w, err)
		return
	}

	suggestions := h.assessor.ReallocationSuggestions(assessment, body.Opportunities)
	h.writeJSON(w, http.StatusOK, suggestions)
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
