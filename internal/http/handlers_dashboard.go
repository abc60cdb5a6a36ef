package http

import (
	"net/http"
	"strconv"

	authmw "hearth/internal/middleware/auth"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil || year < 1970 || year > 9999 {
		writeBadRequest(w, "invalid or missing year")
		return
	}

	report, err := s.reports.YearReport(r.Context(), authmw.HouseholdID(r.Context()), year)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
