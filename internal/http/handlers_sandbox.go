package http

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"hearth/internal/core"
	authmw "hearth/internal/middleware/auth"
)

func (s *Server) handleSandboxList(w http.ResponseWriter, r *http.Request) {
	householdID := authmw.HouseholdID(r.Context())

	items, err := s.repo.ListSandbox(r.Context(), householdID)
	if err != nil {
		writeError(w, err)
		return
	}
	if items == nil {
		items = []core.SandboxExpense{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleSandboxCreate(w http.ResponseWriter, r *http.Request) {
	householdID := authmw.HouseholdID(r.Context())

	var item core.SandboxExpense
	if err := decode(r, &item); err != nil {
		writeBadRequest(w, "%v", err)
		return
	}
	item.HouseholdID = householdID
	if strings.TrimSpace(item.Name) == "" {
		writeError(w, core.ErrEmptyName)
		return
	}

	created, err := s.repo.CreateSandboxExpense(r.Context(), item)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleSandboxUpdate(w http.ResponseWriter, r *http.Request) {
	householdID := authmw.HouseholdID(r.Context())

	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "invalid sandbox expense id")
		return
	}

	var item core.SandboxExpense
	if err := decode(r, &item); err != nil {
		writeBadRequest(w, "%v", err)
		return
	}
	item.ID = id
	item.HouseholdID = householdID
	if strings.TrimSpace(item.Name) == "" {
		writeError(w, core.ErrEmptyName)
		return
	}

	if err := s.repo.UpdateSandboxExpense(r.Context(), item); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleSandboxDelete(w http.ResponseWriter, r *http.Request) {
	householdID := authmw.HouseholdID(r.Context())

	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "invalid sandbox expense id")
		return
	}
	if err := s.repo.DeleteSandboxExpense(r.Context(), householdID, id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleSandboxClear(w http.ResponseWriter, r *http.Request) {
	householdID := authmw.HouseholdID(r.Context())

	if err := s.repo.ClearSandbox(r.Context(), householdID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type sandboxImportRequest struct {
	Month string `json:"month"`
}

// handleSandboxImport copies a real month's expenses into the sandbox.
func (s *Server) handleSandboxImport(w http.ResponseWriter, r *http.Request) {
	householdID := authmw.HouseholdID(r.Context())

	var req sandboxImportRequest
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, "%v", err)
		return
	}
	month, err := monthParam(req.Month)
	if err != nil {
		writeError(w, err)
		return
	}

	imported, err := s.repo.ImportMonthIntoSandbox(r.Context(), householdID, month)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "imported": imported})
}

func (s *Server) handleSandboxProfileList(w http.ResponseWriter, r *http.Request) {
	householdID := authmw.HouseholdID(r.Context())

	profiles, err := s.repo.ListSandboxProfiles(r.Context(), householdID)
	if err != nil {
		writeError(w, err)
		return
	}
	if profiles == nil {
		profiles = []core.SandboxProfile{}
	}
	writeJSON(w, http.StatusOK, profiles)
}

type sandboxProfileRequest struct {
	Name     string                `json:"name"`
	Salary   decimal.Decimal       `json:"salary"`
	Expenses []core.SandboxExpense `json:"expenses"`
}

func (s *Server) handleSandboxProfileSave(w http.ResponseWriter, r *http.Request) {
	householdID := authmw.HouseholdID(r.Context())

	var req sandboxProfileRequest
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, "%v", err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, core.ErrEmptyName)
		return
	}

	profile, err := s.repo.SaveSandboxProfile(r.Context(), householdID, req.Name, req.Salary, req.Expenses)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, profile)
}

func (s *Server) handleSandboxProfileDelete(w http.ResponseWriter, r *http.Request) {
	householdID := authmw.HouseholdID(r.Context())

	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "invalid profile id")
		return
	}
	if err := s.repo.DeleteSandboxProfile(r.Context(), householdID, id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// handleSandboxProfileLoad replaces the sandbox with a saved scenario and
// reports its salary so the client can apply it.
func (s *Server) handleSandboxProfileLoad(w http.ResponseWriter, r *http.Request) {
	householdID := authmw.HouseholdID(r.Context())

	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "invalid profile id")
		return
	}

	salary, err := s.repo.LoadSandboxProfile(r.Context(), householdID, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "salary": salary})
}
