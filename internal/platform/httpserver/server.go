package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	contestengine "encore/contexts/live-events/contest-engine"
	contesterrors "encore/contexts/live-events/contest-engine/domain/errors"
	contesthttp "encore/contexts/live-events/contest-engine/transport/http"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "encore/internal/platform/httpserver/docs"
)

type Server struct {
	mux     *http.ServeMux
	logger  *slog.Logger
	addr    string
	contest contestengine.Module
}

func New(contest contestengine.Module, logger *slog.Logger, addr string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:     http.NewServeMux(),
		logger:  logger,
		addr:    addr,
		contest: contest,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

// Handler exposes the route table for in-process tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /v1/contests", s.handleCreateContest)
	s.mux.HandleFunc("GET /v1/contests/{contest_id}", s.handleGetContest)
	s.mux.HandleFunc("POST /v1/contests/{contest_id}/advance", s.handleAdvancePhase)
	s.mux.HandleFunc("POST /v1/contests/{contest_id}/entries", s.handleSubmitEntry)
	s.mux.HandleFunc("POST /v1/contests/{contest_id}/entries/{entry_id}/withdraw", s.handleWithdrawEntry)
	s.mux.HandleFunc("POST /v1/contests/{contest_id}/finalists", s.handleSelectFinalists)
	s.mux.HandleFunc("GET /v1/contests/{contest_id}/finalists", s.handleListFinalists)
	s.mux.HandleFunc("POST /v1/contests/{contest_id}/votes", s.handleCastVote)
	s.mux.HandleFunc("PUT /v1/contests/{contest_id}/jury-scores", s.handleRecordJuryScore)
	s.mux.HandleFunc("GET /v1/contests/{contest_id}/tally", s.handleTally)
}

func (s *Server) handleCreateContest(w http.ResponseWriter, r *http.Request) {
	var req contesthttp.CreateContestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeContestError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.contest.Handler.CreateContestHandler(r.Context(), req)
	if err != nil {
		writeContestDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetContest(w http.ResponseWriter, r *http.Request) {
	resp, err := s.contest.Handler.GetContestHandler(r.Context(), r.PathValue("contest_id"))
	if err != nil {
		writeContestDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAdvancePhase(w http.ResponseWriter, r *http.Request) {
	actorID := resolveActorID(r)
	if actorID == "" {
		writeContestError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req contesthttp.AdvancePhaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeContestError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.contest.Handler.AdvancePhaseHandler(r.Context(), r.PathValue("contest_id"), actorID, req)
	if err != nil {
		writeContestDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSubmitEntry(w http.ResponseWriter, r *http.Request) {
	actorID := resolveActorID(r)
	if actorID == "" {
		writeContestError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req contesthttp.SubmitEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeContestError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.contest.Handler.SubmitEntryHandler(
		r.Context(),
		r.PathValue("contest_id"),
		actorID,
		r.Header.Get("Idempotency-Key"),
		req,
	)
	if err != nil {
		writeContestDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleWithdrawEntry(w http.ResponseWriter, r *http.Request) {
	actorID := resolveActorID(r)
	if actorID == "" {
		writeContestError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	resp, err := s.contest.Handler.WithdrawEntryHandler(
		r.Context(),
		r.PathValue("contest_id"),
		r.PathValue("entry_id"),
		actorID,
	)
	if err != nil {
		writeContestDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSelectFinalists(w http.ResponseWriter, r *http.Request) {
	resp, err := s.contest.Handler.SelectFinalistsHandler(r.Context(), r.PathValue("contest_id"))
	if err != nil {
		writeContestDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListFinalists(w http.ResponseWriter, r *http.Request) {
	resp, err := s.contest.Handler.ListFinalistsHandler(r.Context(), r.PathValue("contest_id"))
	if err != nil {
		writeContestDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	voterID := resolveActorID(r)
	if voterID == "" {
		writeContestError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req contesthttp.CastVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeContestError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.contest.Handler.CastVoteHandler(
		r.Context(),
		r.PathValue("contest_id"),
		voterID,
		r.Header.Get("Idempotency-Key"),
		req,
	)
	if err != nil {
		writeContestDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleRecordJuryScore(w http.ResponseWriter, r *http.Request) {
	actorID := resolveActorID(r)
	if actorID == "" {
		writeContestError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req contesthttp.JuryScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeContestError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.contest.Handler.RecordJuryScoreHandler(r.Context(), r.PathValue("contest_id"), actorID, req)
	if err != nil {
		writeContestDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTally(w http.ResponseWriter, r *http.Request) {
	resp, err := s.contest.Handler.TallyHandler(r.Context(), r.PathValue("contest_id"))
	if err != nil {
		writeContestDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeContestDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, contesterrors.ErrInvalidInput):
		writeContestError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, contesterrors.ErrIdempotencyKeyRequired):
		writeContestError(w, http.StatusBadRequest, "idempotency_key_required", err.Error())
	case errors.Is(err, contesterrors.ErrContestNotFound):
		writeContestError(w, http.StatusNotFound, "contest_not_found", err.Error())
	case errors.Is(err, contesterrors.ErrEntryNotFound):
		writeContestError(w, http.StatusNotFound, "entry_not_found", err.Error())
	case errors.Is(err, contesterrors.ErrUnknownEntry):
		writeContestError(w, http.StatusUnprocessableEntity, "unknown_entry", err.Error())
	case errors.Is(err, contesterrors.ErrInvalidTransition):
		writeContestError(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, contesterrors.ErrWindowClosed):
		writeContestError(w, http.StatusConflict, "window_closed", err.Error())
	case errors.Is(err, contesterrors.ErrPhaseNotOpen):
		writeContestError(w, http.StatusConflict, "phase_not_open", err.Error())
	case errors.Is(err, contesterrors.ErrDuplicateEntry):
		writeContestError(w, http.StatusConflict, "duplicate_entry", err.Error())
	case errors.Is(err, contesterrors.ErrDuplicateBallot):
		writeContestError(w, http.StatusConflict, "duplicate_ballot", err.Error())
	case errors.Is(err, contesterrors.ErrNoEligibleEntries):
		writeContestError(w, http.StatusConflict, "no_eligible_entries", err.Error())
	case errors.Is(err, contesterrors.ErrVoteLimitReached):
		writeContestError(w, http.StatusTooManyRequests, "vote_limit_reached", err.Error())
	case errors.Is(err, contesterrors.ErrSelfVoteForbidden):
		writeContestError(w, http.StatusForbidden, "self_vote_forbidden", err.Error())
	case errors.Is(err, contesterrors.ErrNotEntryOwner):
		writeContestError(w, http.StatusForbidden, "not_entry_owner", err.Error())
	case errors.Is(err, contesterrors.ErrIdempotencyConflict):
		writeContestError(w, http.StatusConflict, "idempotency_conflict", err.Error())
	case errors.Is(err, contesterrors.ErrConflict):
		writeContestError(w, http.StatusConflict, "conflict", err.Error())
	default:
		writeContestError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeContestError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, contesthttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func resolveActorID(r *http.Request) string {
	if actorID := strings.TrimSpace(r.Header.Get("X-User-Id")); actorID != "" {
		return actorID
	}
	return strings.TrimSpace(r.Header.Get("X-Subject-Id"))
}
