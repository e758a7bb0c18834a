package httpserver

import (
	"errors"
	"net/http"

	accesserrors "agora/contexts/identity-access/access-gate/domain/errors"
	accesshttp "agora/contexts/identity-access/access-gate/transport/http"
)

func (s *Server) registerAccessRoutes() {
	s.mux.HandleFunc("POST /api/access/v1/check", s.handleAccessCheck)
	s.mux.HandleFunc("GET /api/access/v1/principals/{principal_id}/roles", s.handleAccessListRoles)
	s.mux.HandleFunc("POST /api/access/v1/principals/{principal_id}/roles/grant", s.handleAccessGrantRole)
	s.mux.HandleFunc("POST /api/access/v1/principals/{principal_id}/roles/revoke", s.handleAccessRevokeRole)
	s.mux.HandleFunc("POST /api/access/v1/voters", s.handleAccessRegisterVoter)
	s.mux.HandleFunc("GET /api/access/v1/voters/{voter_id}", s.handleAccessGetVoter)
	s.mux.HandleFunc("POST /api/access/v1/voters/{voter_id}/verify", s.handleAccessVerifyVoter)
}

func (s *Server) handleAccessCheck(w http.ResponseWriter, r *http.Request) {
	var req accesshttp.CheckPermissionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAccessError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.access.Handler.CheckPermissionHandler(r.Context(), req.PrincipalID, req.Permission)
	if err != nil {
		writeAccessDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAccessListRoles(w http.ResponseWriter, r *http.Request) {
	resp, err := s.access.Handler.ListRolesHandler(r.Context(), r.PathValue("principal_id"))
	if err != nil {
		writeAccessDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAccessGrantRole(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireHeader(r, headerUserID)
	if !ok {
		writeAccessError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	var req accesshttp.GrantRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAccessError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	req.PrincipalID = r.PathValue("principal_id")
	resp, err := s.access.Handler.GrantRoleHandler(r.Context(), actorID, req)
	if err != nil {
		writeAccessDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAccessRevokeRole(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireHeader(r, headerUserID)
	if !ok {
		writeAccessError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	var req accesshttp.RevokeRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAccessError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	req.PrincipalID = r.PathValue("principal_id")
	resp, err := s.access.Handler.RevokeRoleHandler(r.Context(), actorID, req)
	if err != nil {
		writeAccessDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// @Summary Register the calling user as a voter
// @Tags access
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Voter"
// @Param request body accesshttp.RegisterVoterRequest true "Identity attributes"
// @Success 201 {object} accesshttp.VoterResponse
// @Failure 409 {object} accesshttp.ErrorResponse
// @Router /api/access/v1/voters [post]
func (s *Server) handleAccessRegisterVoter(w http.ResponseWriter, r *http.Request) {
	voterID, ok := requireHeader(r, headerUserID)
	if !ok {
		writeAccessError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	var req accesshttp.RegisterVoterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAccessError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.access.Handler.RegisterVoterHandler(r.Context(), voterID, req)
	if err != nil {
		writeAccessDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleAccessGetVoter(w http.ResponseWriter, r *http.Request) {
	resp, err := s.access.Handler.GetVoterHandler(r.Context(), r.PathValue("voter_id"))
	if err != nil {
		writeAccessDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAccessVerifyVoter(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireHeader(r, headerUserID)
	if !ok {
		writeAccessError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	resp, err := s.access.Handler.VerifyVoterHandler(r.Context(), actorID, r.PathValue("voter_id"))
	if err != nil {
		writeAccessDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeAccessDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, accesserrors.ErrInvalidPermission),
		errors.Is(err, accesserrors.ErrInvalidVoterAttributes):
		writeAccessError(w, http.StatusUnprocessableEntity, "validation", err.Error())
	case errors.Is(err, accesserrors.ErrInvalidPrincipalID),
		errors.Is(err, accesserrors.ErrInvalidRoleID),
		errors.Is(err, accesserrors.ErrInvalidActorID):
		writeAccessError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, accesserrors.ErrRoleNotFound),
		errors.Is(err, accesserrors.ErrVoterNotFound):
		writeAccessError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, accesserrors.ErrRoleAlreadyAssigned),
		errors.Is(err, accesserrors.ErrRoleNotAssigned),
		errors.Is(err, accesserrors.ErrVoterAlreadyRegistered),
		errors.Is(err, accesserrors.ErrVoterAlreadyVerified):
		writeAccessError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, accesserrors.ErrForbidden):
		writeAccessError(w, http.StatusForbidden, "forbidden", err.Error())
	default:
		writeAccessError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeAccessError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, accesshttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
