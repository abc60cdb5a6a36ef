package http

import (
	"net/http"
	"strings"

	"hearth/internal/core"
	authmw "hearth/internal/middleware/auth"
)

func (s *Server) handleSavingsStructure(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.repo.ListSavings(r.Context(), authmw.HouseholdID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	if accounts == nil {
		accounts = []core.SavingsAccount{}
	}
	writeJSON(w, http.StatusOK, accounts)
}

type savingsAccountRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleSavingsAccountCreate(w http.ResponseWriter, r *http.Request) {
	var req savingsAccountRequest
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, "%v", err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, core.ErrEmptyName)
		return
	}

	id, err := s.repo.CreateSavingsAccount(r.Context(), authmw.HouseholdID(r.Context()), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleSavingsAccountRename(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "invalid account id")
		return
	}

	var req savingsAccountRequest
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, "%v", err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, core.ErrEmptyName)
		return
	}

	if err := s.repo.RenameSavingsAccount(r.Context(), authmw.HouseholdID(r.Context()), id, req.Name); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleSavingsAccountDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "invalid account id")
		return
	}

	if err := s.repo.DeleteSavingsAccount(r.Context(), authmw.HouseholdID(r.Context()), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handlePotCreate(w http.ResponseWriter, r *http.Request) {
	var pot core.SavingsPot
	if err := decode(r, &pot); err != nil {
		writeBadRequest(w, "%v", err)
		return
	}
	if strings.TrimSpace(pot.Name) == "" {
		writeError(w, core.ErrEmptyName)
		return
	}
	if pot.AccountID == 0 {
		writeBadRequest(w, "account_id required")
		return
	}

	created, err := s.repo.CreatePot(r.Context(), authmw.HouseholdID(r.Context()), pot)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handlePotUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "invalid pot id")
		return
	}

	var pot core.SavingsPot
	if err := decode(r, &pot); err != nil {
		writeBadRequest(w, "%v", err)
		return
	}
	pot.ID = id
	if strings.TrimSpace(pot.Name) == "" {
		writeError(w, core.ErrEmptyName)
		return
	}

	if err := s.repo.UpdatePot(r.Context(), authmw.HouseholdID(r.Context()), pot); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pot)
}

func (s *Server) handlePotDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "invalid pot id")
		return
	}

	if err := s.repo.DeletePot(r.Context(), authmw.HouseholdID(r.Context()), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
