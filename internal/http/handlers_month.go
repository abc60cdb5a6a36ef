package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"hearth/internal/core"
	"hearth/internal/events"
	authmw "hearth/internal/middleware/auth"
)

// monthData is the combined view a client needs to render one month.
type monthData struct {
	Month    core.Month            `json:"month"`
	Balance  decimal.Decimal       `json:"balance"`
	Salary   decimal.Decimal       `json:"salary"`
	Notes    string                `json:"notes"`
	Expenses []core.Expense        `json:"expenses"`
	Savings  []core.SavingsAccount `json:"savings"`
}

func (s *Server) handleMonthData(w http.ResponseWriter, r *http.Request) {
	householdID := authmw.HouseholdID(r.Context())

	month, err := monthParam(r.URL.Query().Get("month"))
	if err != nil {
		writeError(w, err)
		return
	}

	data := monthData{
		Month:    month,
		Balance:  decimal.Zero,
		Salary:   decimal.Zero,
		Expenses: []core.Expense{},
		Savings:  []core.SavingsAccount{},
	}

	balance, err := s.repo.GetBalance(r.Context(), householdID, month)
	if err == nil {
		data.Balance = balance.Amount
		data.Salary = balance.Salary
		data.Notes = balance.Notes
	} else if err != core.ErrNotFound {
		writeError(w, err)
		return
	}

	expenses, err := s.repo.ExpensesByMonth(r.Context(), householdID, month)
	if err != nil {
		writeError(w, err)
		return
	}
	if expenses != nil {
		data.Expenses = expenses
	}

	savings, err := s.repo.ListSavings(r.Context(), householdID)
	if err != nil {
		writeError(w, err)
		return
	}
	if savings != nil {
		data.Savings = savings
	}

	writeJSON(w, http.StatusOK, data)
}

type balanceRequest struct {
	Month  core.Month      `json:"month"`
	Amount decimal.Decimal `json:"amount"`
	Salary decimal.Decimal `json:"salary"`
	Notes  string          `json:"notes"`
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	s.upsertBalanceField(w, r, func(req balanceRequest) error {
		return s.repo.UpsertBalanceAmount(r.Context(), authmw.HouseholdID(r.Context()), req.Month, req.Amount)
	})
}

func (s *Server) handleSalary(w http.ResponseWriter, r *http.Request) {
	s.upsertBalanceField(w, r, func(req balanceRequest) error {
		return s.repo.UpsertBalanceSalary(r.Context(), authmw.HouseholdID(r.Context()), req.Month, req.Salary)
	})
}

func (s *Server) handleMonthNotes(w http.ResponseWriter, r *http.Request) {
	s.upsertBalanceField(w, r, func(req balanceRequest) error {
		return s.repo.UpsertBalanceNotes(r.Context(), authmw.HouseholdID(r.Context()), req.Month, req.Notes)
	})
}

// upsertBalanceField shares the decode/validate/invalidate plumbing of the
// three single-column balance writes.
func (s *Server) upsertBalanceField(w http.ResponseWriter, r *http.Request, write func(balanceRequest) error) {
	var req balanceRequest
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, "%v", err)
		return
	}

	month, err := monthParam(string(req.Month))
	if err != nil {
		writeError(w, err)
		return
	}
	req.Month = month

	if err := write(req); err != nil {
		writeError(w, err)
		return
	}

	s.reports.Invalidate(authmw.HouseholdID(r.Context()), month)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type monthInitRequest struct {
	Month       core.Month `json:"month"`
	Source      string     `json:"source"`
	SourceMonth core.Month `json:"source_month"`
}

func (s *Server) handleMonthInit(w http.ResponseWriter, r *http.Request) {
	var req monthInitRequest
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, "%v", err)
		return
	}

	month, err := monthParam(string(req.Month))
	if err != nil {
		writeError(w, err)
		return
	}

	copied, err := s.lifecycle.InitMonth(r.Context(), authmw.HouseholdID(r.Context()), month, req.Source, req.SourceMonth)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"copied": copied})
}

type monthSyncRequest struct {
	Month   core.Month `json:"month"`
	Balance struct {
		Amount decimal.Decimal `json:"amount"`
		Salary decimal.Decimal `json:"salary"`
	} `json:"balance"`
	Expenses []core.Expense `json:"expenses"`
}

func (s *Server) handleMonthSync(w http.ResponseWriter, r *http.Request) {
	var req monthSyncRequest
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, "%v", err)
		return
	}

	month, err := monthParam(string(req.Month))
	if err != nil {
		writeError(w, err)
		return
	}
	for i := range req.Expenses {
		req.Expenses[i].Month = month
	}

	if err := s.lifecycle.SyncMonth(r.Context(), authmw.HouseholdID(r.Context()), month,
		req.Balance.Amount, req.Balance.Salary, req.Expenses); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleMonthDelete(w http.ResponseWriter, r *http.Request) {
	month, err := monthParam(r.URL.Query().Get("month"))
	if err != nil {
		writeError(w, err)
		return
	}

	removed, err := s.lifecycle.DeleteMonth(r.Context(), authmw.HouseholdID(r.Context()), month)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"removed": removed})
}

// publishExpenseChange notifies workers after an expense write. Broker
// failures are logged and swallowed.
func (s *Server) publishExpenseChange(r *http.Request, householdID int64, month core.Month) {
	if s.publisher == nil {
		return
	}
	event := events.NewLedgerEvent(events.KindExpenseChanged, householdID, string(month))
	if err := s.publisher.Publish(r.Context(), event); err != nil {
		s.logger.ErrorContext(r.Context(), "publish expense change", "error", err)
	}
}
