package httpserver

import (
	"net/http"
	"strconv"

	ledgererrors "agora/contexts/governance/proposal-ledger/domain/errors"
	ledgerhttp "agora/contexts/governance/proposal-ledger/transport/http"
)

func (s *Server) registerLedgerRoutes() {
	s.mux.HandleFunc("POST /v1/proposals", s.handleCreateProposal)
	s.mux.HandleFunc("GET /v1/proposals", s.handleListProposals)
	s.mux.HandleFunc("GET /v1/proposals/{proposal_id}", s.handleGetProposal)
	s.mux.HandleFunc("DELETE /v1/proposals/{proposal_id}", s.handleRemoveProposal)
	s.mux.HandleFunc("POST /v1/proposals/{proposal_id}/votes", s.handleCastVote)
	s.mux.HandleFunc("PUT /v1/proposals/{proposal_id}/votes", s.handleChangeVote)
	s.mux.HandleFunc("DELETE /v1/proposals/{proposal_id}/votes", s.handleRetractVote)
	s.mux.HandleFunc("GET /v1/proposals/{proposal_id}/counts/{option}", s.handleVoteCount)
	s.mux.HandleFunc("GET /v1/proposals/{proposal_id}/winners", s.handleWinners)
	s.mux.HandleFunc("GET /v1/voters/{voter_id}", s.handleVoterRecord)
}

// @Summary Create a proposal
// @Tags proposals
// @Accept json
// @Produce json
// @Param X-Caller-Id header string true "Calling service principal"
// @Param X-User-Id header string true "Proposal creator"
// @Param request body ledgerhttp.CreateProposalRequest true "Proposal"
// @Success 201 {object} ledgerhttp.ProposalResponse
// @Failure 401 {object} ledgerhttp.ErrorResponse
// @Failure 403 {object} ledgerhttp.ErrorResponse
// @Failure 422 {object} ledgerhttp.ErrorResponse
// @Router /v1/proposals [post]
func (s *Server) handleCreateProposal(w http.ResponseWriter, r *http.Request) {
	callerID, userID, ok := ledgerPrincipals(w, r)
	if !ok {
		return
	}
	var req ledgerhttp.CreateProposalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeLedgerError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.ledger.Handler.CreateProposalHandler(r.Context(), callerID, userID, req)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListProposals(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ledger.Handler.ListProposalsHandler(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetProposal(w http.ResponseWriter, r *http.Request) {
	proposalID, ok := proposalIDFromPath(w, r)
	if !ok {
		return
	}
	resp, err := s.ledger.Handler.GetProposalHandler(r.Context(), proposalID)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRemoveProposal(w http.ResponseWriter, r *http.Request) {
	callerID, userID, ok := ledgerPrincipals(w, r)
	if !ok {
		return
	}
	proposalID, ok := proposalIDFromPath(w, r)
	if !ok {
		return
	}
	if err := s.ledger.Handler.RemoveProposalHandler(r.Context(), callerID, userID, proposalID); err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// @Summary Cast a vote
// @Tags votes
// @Accept json
// @Produce json
// @Param X-Caller-Id header string true "Calling service principal"
// @Param X-User-Id header string true "Voter"
// @Param proposal_id path int true "Proposal id"
// @Param request body ledgerhttp.CastVoteRequest true "Selected option"
// @Success 201 {object} ledgerhttp.VoteResponse
// @Failure 409 {object} ledgerhttp.ErrorResponse
// @Router /v1/proposals/{proposal_id}/votes [post]
func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	callerID, userID, ok := ledgerPrincipals(w, r)
	if !ok {
		return
	}
	proposalID, ok := proposalIDFromPath(w, r)
	if !ok {
		return
	}
	var req ledgerhttp.CastVoteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeLedgerError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.ledger.Handler.CastVoteHandler(r.Context(), callerID, userID, proposalID, req)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleChangeVote(w http.ResponseWriter, r *http.Request) {
	callerID, userID, ok := ledgerPrincipals(w, r)
	if !ok {
		return
	}
	proposalID, ok := proposalIDFromPath(w, r)
	if !ok {
		return
	}
	var req ledgerhttp.ChangeVoteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeLedgerError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.ledger.Handler.ChangeVoteHandler(r.Context(), callerID, userID, proposalID, req)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRetractVote(w http.ResponseWriter, r *http.Request) {
	callerID, userID, ok := ledgerPrincipals(w, r)
	if !ok {
		return
	}
	proposalID, ok := proposalIDFromPath(w, r)
	if !ok {
		return
	}
	resp, err := s.ledger.Handler.RetractVoteHandler(r.Context(), callerID, userID, proposalID)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleVoteCount(w http.ResponseWriter, r *http.Request) {
	proposalID, ok := proposalIDFromPath(w, r)
	if !ok {
		return
	}
	resp, err := s.ledger.Handler.VoteCountHandler(r.Context(), proposalID, r.PathValue("option"))
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// @Summary Finalized winners of a proposal
// @Tags proposals
// @Produce json
// @Param proposal_id path int true "Proposal id"
// @Success 200 {object} ledgerhttp.WinnersResponse
// @Failure 409 {object} ledgerhttp.ErrorResponse
// @Router /v1/proposals/{proposal_id}/winners [get]
func (s *Server) handleWinners(w http.ResponseWriter, r *http.Request) {
	proposalID, ok := proposalIDFromPath(w, r)
	if !ok {
		return
	}
	resp, err := s.ledger.Handler.WinnersHandler(r.Context(), proposalID)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleVoterRecord(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ledger.Handler.VoterRecordHandler(r.Context(), r.PathValue("voter_id"))
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func ledgerPrincipals(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	callerID, ok := requireHeader(r, headerCallerID)
	if !ok {
		writeLedgerError(w, http.StatusUnauthorized, "missing_caller", "X-Caller-Id header is required")
		return "", "", false
	}
	userID, ok := requireHeader(r, headerUserID)
	if !ok {
		writeLedgerError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return "", "", false
	}
	return callerID, userID, true
}

func proposalIDFromPath(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	proposalID, err := strconv.ParseUint(r.PathValue("proposal_id"), 10, 64)
	if err != nil {
		writeLedgerError(w, http.StatusBadRequest, "invalid_proposal_id", "proposal_id must be a positive integer")
		return 0, false
	}
	return proposalID, true
}

func writeLedgerDomainError(w http.ResponseWriter, err error) {
	kind := ledgererrors.KindOf(err)
	switch kind {
	case ledgererrors.KindAuthorization:
		writeLedgerError(w, http.StatusForbidden, string(kind), err.Error())
	case ledgererrors.KindNotFound:
		writeLedgerError(w, http.StatusNotFound, string(kind), err.Error())
	case ledgererrors.KindInvalidState, ledgererrors.KindDuplicate, ledgererrors.KindNoOp:
		writeLedgerError(w, http.StatusConflict, string(kind), err.Error())
	case ledgererrors.KindValidation:
		writeLedgerError(w, http.StatusUnprocessableEntity, string(kind), err.Error())
	default:
		writeLedgerError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeLedgerError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, ledgerhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
