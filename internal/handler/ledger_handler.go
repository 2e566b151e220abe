package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/prn-tf/eday-ledger/internal/domain"
	"github.com/prn-tf/eday-ledger/internal/service"
)

// defaultMaxBodySize caps JSON request bodies when none is configured.
const defaultMaxBodySize = 1 << 20

// LedgerHandler serves the voter-facing endpoints.
type LedgerHandler struct {
	ledger      *service.LedgerService
	analysis    *service.AnalysisService
	maxBodySize int64
	logger      zerolog.Logger
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledger *service.LedgerService, analysis *service.AnalysisService, maxBodySize int64, logger zerolog.Logger) *LedgerHandler {
	if maxBodySize <= 0 {
		maxBodySize = defaultMaxBodySize
	}
	return &LedgerHandler{
		ledger:      ledger,
		analysis:    analysis,
		maxBodySize: maxBodySize,
		logger:      logger.With().Str("handler", "ledger").Logger(),
	}
}

// =============================================================================
// Request/Response Structs
// =============================================================================

// CredentialsRequest is the body of register and login.
type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// VoteRequest is the body of a cast vote.
type VoteRequest struct {
	CandidateID int64 `json:"candidate_id"`
}

// VoteResponse reports a recorded vote.
type VoteResponse struct {
	User      *domain.User      `json:"user"`
	Candidate *domain.Candidate `json:"candidate"`
}

// AnalysisResponse carries the AI analyst's text.
type AnalysisResponse struct {
	Summary string `json:"summary"`
	Enabled bool   `json:"enabled"`
}

// =============================================================================
// Route Registration
// =============================================================================

// RegisterRoutes registers the voter routes.
func (h *LedgerHandler) RegisterRoutes(r chi.Router) {
	r.Post("/register", h.handleRegister)
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
	r.Get("/session", h.handleSession)
	r.Get("/candidates", h.handleCandidates)
	r.Post("/votes", h.handleVote)
	r.Get("/results", h.handleResults)
	r.Get("/analysis", h.handleAnalysis)
}

// =============================================================================
// Handlers
// =============================================================================

func (h *LedgerHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if !decodeBody(w, r, h.maxBodySize, &req) {
		return
	}

	user, err := h.clientLedger(r).RegisterUser(r.Context(), req.Username, req.Password)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *LedgerHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if !decodeBody(w, r, h.maxBodySize, &req) {
		return
	}

	user, err := h.clientLedger(r).Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *LedgerHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.clientLedger(r).Logout(r.Context()); err != nil {
		writeLedgerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *LedgerHandler) handleSession(w http.ResponseWriter, r *http.Request) {
	user, err := h.clientLedger(r).GetSession(r.Context())
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	if user == nil {
		writeError(w, ErrSessionNotFound)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *LedgerHandler) handleCandidates(w http.ResponseWriter, r *http.Request) {
	candidates, err := h.ledger.ListCandidates(r.Context())
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, candidates)
}

func (h *LedgerHandler) handleVote(w http.ResponseWriter, r *http.Request) {
	var req VoteRequest
	if !decodeBody(w, r, h.maxBodySize, &req) {
		return
	}

	ledger := h.clientLedger(r)
	user, err := ledger.RequireSession(r.Context())
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	out, err := ledger.CastVote(r.Context(), user.ID, req.CandidateID)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, VoteResponse{User: out.User, Candidate: out.Candidate})
}

func (h *LedgerHandler) handleResults(w http.ResponseWriter, r *http.Request) {
	results, err := h.ledger.Results(r.Context())
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (h *LedgerHandler) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	if h.analysis == nil {
		writeJSON(w, http.StatusOK, AnalysisResponse{Summary: service.AnalysisUnavailable})
		return
	}
	writeJSON(w, http.StatusOK, AnalysisResponse{
		Summary: h.analysis.Analyze(r.Context()),
		Enabled: h.analysis.Enabled(),
	})
}

// clientLedger returns the ledger view for the calling client.
func (h *LedgerHandler) clientLedger(r *http.Request) *service.LedgerService {
	return h.ledger.WithClient(ClientIDFromContext(r.Context()))
}

// decodeBody decodes a JSON body, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, limit int64, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, ErrBadRequestBody)
		return false
	}
	return true
}
