package http

import (
	"net/http"

	authmw "hearth/internal/middleware/auth"
	"hearth/internal/storage"
)

// The raw data editor bypasses the typed repository on purpose: it edits
// whitelisted tables directly so operators can repair data without SQL
// access to the host.

func (s *Server) handleAdminData(w http.ResponseWriter, r *http.Request) {
	householdID := authmw.HouseholdID(r.Context())

	summary, err := s.repo.AdminBalanceSummary(r.Context(), householdID)
	if err != nil {
		writeError(w, err)
		return
	}
	if summary == nil {
		summary = []storage.BalanceRow{}
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleAdminTableList(w http.ResponseWriter, r *http.Request) {
	rows, err := s.repo.AdminRows(r.Context(), r.PathValue("name"))
	if err != nil {
		writeError(w, err)
		return
	}
	if rows == nil {
		rows = []map[string]any{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleAdminTableInsert(w http.ResponseWriter, r *http.Request) {
	var values map[string]any
	if err := decode(r, &values); err != nil {
		writeBadRequest(w, "%v", err)
		return
	}

	id, err := s.repo.AdminInsert(r.Context(), r.PathValue("name"), values)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id, "success": true})
}

func (s *Server) handleAdminTableUpdate(w http.ResponseWriter, r *http.Request) {
	var values map[string]any
	if err := decode(r, &values); err != nil {
		writeBadRequest(w, "%v", err)
		return
	}

	if err := s.repo.AdminUpdate(r.Context(), r.PathValue("name"), r.PathValue("id"), values); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleAdminTableDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.AdminDelete(r.Context(), r.PathValue("name"), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
