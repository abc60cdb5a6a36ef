package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"hearth/internal/core"
	authmw "hearth/internal/middleware/auth"
)

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

func (s *Server) handleExpenseCreate(w http.ResponseWriter, r *http.Request) {
	householdID := authmw.HouseholdID(r.Context())

	var expense core.Expense
	if err := decode(r, &expense); err != nil {
		writeBadRequest(w, "%v", err)
		return
	}
	expense.HouseholdID = householdID
	if err := expense.Validate(); err != nil {
		writeError(w, err)
		return
	}

	created, err := s.repo.CreateExpense(r.Context(), expense)
	if err != nil {
		writeError(w, err)
		return
	}

	s.reports.Invalidate(householdID, created.Month)
	s.publishExpenseChange(r, householdID, created.Month)
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleExpenseUpdate(w http.ResponseWriter, r *http.Request) {
	householdID := authmw.HouseholdID(r.Context())

	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "invalid expense id")
		return
	}

	var expense core.Expense
	if err := decode(r, &expense); err != nil {
		writeBadRequest(w, "%v", err)
		return
	}
	expense.ID = id
	expense.HouseholdID = householdID
	if err := expense.Validate(); err != nil {
		writeError(w, err)
		return
	}

	// A month move invalidates both windows.
	previous, err := s.repo.GetExpense(r.Context(), householdID, id)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.repo.UpdateExpense(r.Context(), expense); err != nil {
		writeError(w, err)
		return
	}

	s.reports.Invalidate(householdID, previous.Month)
	s.reports.Invalidate(householdID, expense.Month)
	s.publishExpenseChange(r, householdID, expense.Month)
	writeJSON(w, http.StatusOK, expense)
}

func (s *Server) handleExpenseDelete(w http.ResponseWriter, r *http.Request) {
	householdID := authmw.HouseholdID(r.Context())

	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "invalid expense id")
		return
	}

	expense, err := s.repo.GetExpense(r.Context(), householdID, id)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.repo.DeleteExpense(r.Context(), householdID, id); err != nil {
		writeError(w, err)
		return
	}

	s.reports.Invalidate(householdID, expense.Month)
	s.publishExpenseChange(r, householdID, expense.Month)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type toggleRequest struct {
	Paid *bool `json:"paid"`
}

func (s *Server) handleExpenseToggle(w http.ResponseWriter, r *http.Request) {
	householdID := authmw.HouseholdID(r.Context())

	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "invalid expense id")
		return
	}

	expense, err := s.repo.GetExpense(r.Context(), householdID, id)
	if err != nil {
		writeError(w, err)
		return
	}

	// The client may name the target state; an empty body flips it.
	var req toggleRequest
	if err := decode(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeBadRequest(w, "%v", err)
		return
	}
	paid := !expense.Paid
	if req.Paid != nil {
		paid = *req.Paid
	}
	if err := s.repo.SetExpensePaid(r.Context(), householdID, id, paid, time.Now()); err != nil {
		writeError(w, err)
		return
	}

	s.reports.Invalidate(householdID, expense.Month)
	writeJSON(w, http.StatusOK, map[string]bool{"paid": paid})
}
