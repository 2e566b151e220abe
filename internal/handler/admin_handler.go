package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/prn-tf/eday-ledger/internal/domain"
	"github.com/prn-tf/eday-ledger/internal/service"
)

// AdminHandler serves the admin-only endpoints.
type AdminHandler struct {
	ledger      *service.LedgerService
	maxBodySize int64
	logger      zerolog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(ledger *service.LedgerService, maxBodySize int64, logger zerolog.Logger) *AdminHandler {
	if maxBodySize <= 0 {
		maxBodySize = defaultMaxBodySize
	}
	return &AdminHandler{
		ledger:      ledger,
		maxBodySize: maxBodySize,
		logger:      logger.With().Str("handler", "admin").Logger(),
	}
}

// CandidateRequest is the body of an added candidate.
type CandidateRequest struct {
	Name     string `json:"name"`
	Language string `json:"language"`
	Bio      string `json:"bio"`
}

// RegisterRoutes registers the admin routes behind the admin gate.
func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Use(h.requireAdmin)

	r.Get("/users", h.handleListUsers)
	r.Post("/reset", h.handleReset)
	r.Post("/purge-users", h.handlePurgeUsers)
	r.Post("/candidates", h.handleAddCandidate)
	r.Delete("/candidates/{id}", h.handleDeleteCandidate)
}

// requireAdmin rejects clients whose session is not the admin identity.
func (h *AdminHandler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		admin, err := h.ledger.WithClient(ClientIDFromContext(r.Context())).RequireAdmin(r.Context())
		if err != nil {
			writeLedgerError(w, err)
			return
		}
		h.logger.Debug().Str("username", admin.Username).Str("path", r.URL.Path).Msg("admin request")
		next.ServeHTTP(w, r)
	})
}

func (h *AdminHandler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.ledger.ListUsers(r.Context())
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *AdminHandler) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.WithClient(ClientIDFromContext(r.Context())).ResetVotes(r.Context()); err != nil {
		writeLedgerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) handlePurgeUsers(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.PurgeUsers(r.Context()); err != nil {
		writeLedgerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) handleAddCandidate(w http.ResponseWriter, r *http.Request) {
	var req CandidateRequest
	if !decodeBody(w, r, h.maxBodySize, &req) {
		return
	}

	language, err := domain.ParseLanguage(req.Language)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	candidate, err := h.ledger.AddCandidate(r.Context(), req.Name, language, req.Bio)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, candidate)
}

func (h *AdminHandler) handleDeleteCandidate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeLedgerError(w, domain.NewDomainError(domain.ErrInvalidInput, "candidate id must be an integer", "id"))
		return
	}

	if _, err := h.ledger.DeleteCandidate(r.Context(), id); err != nil {
		writeLedgerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
