package http

import (
	"net/http"

	"hearth/internal/core"
	authmw "hearth/internal/middleware/auth"
)

func (s *Server) handleSettingsGet(w http.ResponseWriter, r *http.Request) {
	settings, err := s.repo.GetSettings(r.Context(), authmw.HouseholdID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleSettingsSet(w http.ResponseWriter, r *http.Request) {
	householdID := authmw.HouseholdID(r.Context())

	var updates map[string]string
	if err := decode(r, &updates); err != nil {
		writeBadRequest(w, "%v", err)
		return
	}
	if len(updates) == 0 {
		writeBadRequest(w, "no settings provided")
		return
	}

	for key, value := range updates {
		if key == "" {
			writeBadRequest(w, "empty setting key")
			return
		}
		if err := s.repo.SetSetting(r.Context(), householdID, key, value); err != nil {
			writeError(w, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type renameRequest struct {
	Kind     string `json:"kind"`
	OldLabel string `json:"old"`
	NewLabel string `json:"new"`
}

func (s *Server) handleSettingsRename(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, "%v", err)
		return
	}

	result, err := s.rename.Rename(r.Context(), authmw.HouseholdID(r.Context()), req.Kind, req.OldLabel, req.NewLabel)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleTemplateList(w http.ResponseWriter, r *http.Request) {
	templates, err := s.repo.ListTemplates(r.Context(), authmw.HouseholdID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	if templates == nil {
		templates = []core.ExpenseTemplate{}
	}
	writeJSON(w, http.StatusOK, templates)
}

func (s *Server) handleTemplateCreate(w http.ResponseWriter, r *http.Request) {
	var template core.ExpenseTemplate
	if err := decode(r, &template); err != nil {
		writeBadRequest(w, "%v", err)
		return
	}
	template.HouseholdID = authmw.HouseholdID(r.Context())
	if err := template.Validate(); err != nil {
		writeError(w, err)
		return
	}

	created, err := s.repo.CreateTemplate(r.Context(), template)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleTemplateUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "invalid template id")
		return
	}

	var template core.ExpenseTemplate
	if err := decode(r, &template); err != nil {
		writeBadRequest(w, "%v", err)
		return
	}
	template.ID = id
	template.HouseholdID = authmw.HouseholdID(r.Context())
	if err := template.Validate(); err != nil {
		writeError(w, err)
		return
	}

	if err := s.repo.UpdateTemplate(r.Context(), template); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, template)
}

func (s *Server) handleTemplateDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "invalid template id")
		return
	}

	if err := s.repo.DeleteTemplate(r.Context(), authmw.HouseholdID(r.Context()), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
