package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	ballotengine "ballotbox/contexts/governance/ballot-engine"
	domainerrors "ballotbox/contexts/governance/ballot-engine/domain/errors"
	ballothttp "ballotbox/contexts/governance/ballot-engine/transport/http"

	httpSwagger "github.com/swaggo/http-swagger"

	_ "ballotbox/internal/platform/httpserver/docs"
)

type Server struct {
	mux     *http.ServeMux
	logger  *slog.Logger
	addr    string
	ballots ballotengine.Module
}

func New(ballots ballotengine.Module, logger *slog.Logger, addr string) *Server {
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
		ballots: ballots,
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

	s.mux.HandleFunc("POST /v1/ballots", s.handleCreateBallot)
	s.mux.HandleFunc("GET /v1/ballots", s.handleListBallots)
	s.mux.HandleFunc("GET /v1/ballots/{ballot_id}", s.handleGetBallot)
	s.mux.HandleFunc("POST /v1/ballots/{ballot_id}/voters", s.handleRegisterVoter)
	s.mux.HandleFunc("GET /v1/ballots/{ballot_id}/voters/{voter_id}", s.handleGetVoter)
	s.mux.HandleFunc("POST /v1/ballots/{ballot_id}/votes", s.handleCastVote)
	s.mux.HandleFunc("GET /v1/ballots/{ballot_id}/proposals", s.handleGetProposals)
	s.mux.HandleFunc("GET /v1/ballots/{ballot_id}/winner", s.handleGetWinner)
}

func (s *Server) handleCreateBallot(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeBallotError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req ballothttp.CreateBallotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBallotError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.ballots.Handler.CreateBallotHandler(r.Context(), userID, req)
	if err != nil {
		writeBallotDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListBallots(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ballots.Handler.ListBallotsHandler(r.Context())
	if err != nil {
		writeBallotDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetBallot(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ballots.Handler.GetBallotHandler(r.Context(), r.PathValue("ballot_id"))
	if err != nil {
		writeBallotDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRegisterVoter(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeBallotError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req ballothttp.RegisterVoterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBallotError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.ballots.Handler.RegisterVoterHandler(r.Context(), userID, r.PathValue("ballot_id"), req)
	if err != nil {
		writeBallotDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetVoter(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ballots.Handler.GetVoterHandler(
		r.Context(),
		r.PathValue("ballot_id"),
		r.PathValue("voter_id"),
	)
	if err != nil {
		writeBallotDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeBallotError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req ballothttp.CastVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBallotError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.ballots.Handler.CastVoteHandler(r.Context(), userID, r.PathValue("ballot_id"), req)
	if err != nil {
		writeBallotDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetProposals(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ballots.Handler.GetProposalsHandler(r.Context(), r.PathValue("ballot_id"))
	if err != nil {
		writeBallotDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetWinner(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ballots.Handler.GetWinnerHandler(r.Context(), r.PathValue("ballot_id"))
	if err != nil {
		writeBallotDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeBallotDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domainerrors.ErrBallotNotFound):
		writeBallotError(w, http.StatusNotFound, "ballot_not_found", err.Error())
	case errors.Is(err, domainerrors.ErrNotChairperson):
		writeBallotError(w, http.StatusForbidden, "not_chairperson", err.Error())
	case errors.Is(err, domainerrors.ErrNotEligible):
		writeBallotError(w, http.StatusForbidden, "not_eligible", err.Error())
	case errors.Is(err, domainerrors.ErrAlreadyRegistered):
		writeBallotError(w, http.StatusConflict, "already_registered", err.Error())
	case errors.Is(err, domainerrors.ErrAlreadyVoted):
		writeBallotError(w, http.StatusConflict, "already_voted", err.Error())
	case errors.Is(err, domainerrors.ErrConflict):
		writeBallotError(w, http.StatusConflict, "ballot_conflict", err.Error())
	case errors.Is(err, domainerrors.ErrProposalOutOfRange):
		writeBallotError(w, http.StatusUnprocessableEntity, "proposal_out_of_range", err.Error())
	case errors.Is(err, domainerrors.ErrInvalidBallotInput):
		writeBallotError(w, http.StatusBadRequest, "invalid_ballot_input", err.Error())
	default:
		writeBallotError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeBallotError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, ballothttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
