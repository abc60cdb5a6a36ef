package http

import (
	"net/http"
	"strings"

	"hearth/internal/core"
	authmw "hearth/internal/middleware/auth"
	"hearth/internal/storage"
)

func (s *Server) handleHouseholdList(w http.ResponseWriter, r *http.Request) {
	if s.jwt == nil {
		writeJSON(w, http.StatusOK, []storage.HouseholdMembership{{
			ID:   authmw.DefaultHousehold,
			Name: "default",
			Role: authmw.RoleAdmin,
		}})
		return
	}

	memberships, err := s.repo.ListUserHouseholds(r.Context(), authmw.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	if memberships == nil {
		memberships = []storage.HouseholdMembership{}
	}
	writeJSON(w, http.StatusOK, memberships)
}

type householdCreateRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleHouseholdCreate(w http.ResponseWriter, r *http.Request) {
	if s.jwt == nil {
		writeBadRequest(w, "authentication is disabled")
		return
	}

	var req householdCreateRequest
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, "%v", err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, core.ErrEmptyName)
		return
	}

	id, err := s.repo.CreateHousehold(r.Context(), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.repo.AddMember(r.Context(), id, authmw.UserID(r.Context()), authmw.RoleAdmin); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id, "name": req.Name})
}

type memberAddRequest struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// handleMemberAdd grants an existing account a role in the caller's
// household. Admins only; re-adding a member updates the role.
func (s *Server) handleMemberAdd(w http.ResponseWriter, r *http.Request) {
	if s.jwt == nil {
		writeBadRequest(w, "authentication is disabled")
		return
	}
	if authmw.Role(r.Context()) != authmw.RoleAdmin {
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "only admins can manage members"})
		return
	}

	var req memberAddRequest
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, "%v", err)
		return
	}
	switch req.Role {
	case authmw.RoleAdmin, authmw.RoleUser, authmw.RoleViewer:
	default:
		writeBadRequest(w, "invalid role %q", req.Role)
		return
	}

	user, err := s.repo.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		writeError(w, err)
		return
	}

	householdID := authmw.HouseholdID(r.Context())
	if err := s.repo.AddMember(r.Context(), householdID, user.ID, req.Role); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
