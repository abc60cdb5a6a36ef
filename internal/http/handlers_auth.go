package http

import (
	"errors"
	"net/http"
	"strings"

	hearthauth "hearth/internal/auth"
	"hearth/internal/core"
	authmw "hearth/internal/middleware/auth"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.jwt == nil {
		writeBadRequest(w, "authentication is disabled")
		return
	}

	var req loginRequest
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, "%v", err)
		return
	}

	user, err := s.repo.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid credentials"})
			return
		}
		writeError(w, err)
		return
	}
	if !hearthauth.CheckPassword(user.PasswordHash, req.Password) {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid credentials"})
		return
	}

	token, err := s.jwt.Generate(user.ID, user.Username)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

type registerRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	Household string `json:"household"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if s.jwt == nil {
		writeBadRequest(w, "authentication is disabled")
		return
	}

	var req registerRequest
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, "%v", err)
		return
	}
	if strings.TrimSpace(req.Username) == "" || len(req.Password) < 8 {
		writeBadRequest(w, "username required and password must be at least 8 characters")
		return
	}

	householdName := strings.TrimSpace(req.Household)
	if householdName == "" {
		householdName = req.Username
	}
	householdID, err := s.repo.CreateHousehold(r.Context(), householdName)
	if err != nil {
		writeError(w, err)
		return
	}

	hash, err := hearthauth.HashPassword(req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	user, err := s.repo.CreateUser(r.Context(), req.Username, hash, householdID, authmw.RoleAdmin)
	if err != nil {
		writeJSON(w, http.StatusConflict, errorResponse{Error: "username already taken"})
		return
	}

	token, err := s.jwt.Generate(user.ID, user.Username)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"token":        token,
		"household_id": householdID,
	})
}
