package http

import (
	"net/http"
	"time"

	"hearth/internal/ai"
	"hearth/internal/core"
	authmw "hearth/internal/middleware/auth"
)

func (s *Server) handleAIModels(w http.ResponseWriter, r *http.Request) {
	settings, err := s.repo.LoadSettings(r.Context(), authmw.HouseholdID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	url := settings.OllamaURL
	if url == "" {
		url = s.ollamaURL
	}
	if url == "" {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Ollama URL not configured"})
		return
	}

	models, err := s.aiClient.Models(r.Context(), url)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, models)
}

type aiGenerateRequest struct {
	Type   string `json:"type"`
	Params struct {
		Month core.Month `json:"month"`
		Year  int        `json:"year"`
	} `json:"params"`
}

type aiResponse struct {
	Success  bool   `json:"success"`
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
}

// handleAIGenerate builds a numeric context for the requested summary kind
// and passes it through Ollama. AI failures come back as a structured
// envelope with HTTP 200 so the client can render a fallback; ledger state
// is never involved.
func (s *Server) handleAIGenerate(w http.ResponseWriter, r *http.Request) {
	householdID := authmw.HouseholdID(r.Context())

	var req aiGenerateRequest
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, "%v", err)
		return
	}
	kind := req.Type
	if kind == "" {
		kind = ai.KindBudget
	}

	settings, err := s.repo.LoadSettings(r.Context(), householdID)
	if err != nil {
		writeError(w, err)
		return
	}
	url := settings.OllamaURL
	if url == "" {
		url = s.ollamaURL
	}
	if url == "" {
		writeJSON(w, http.StatusOK, aiResponse{Success: false, Error: "Ollama URL not configured in Settings."})
		return
	}
	model := settings.OllamaModel
	if model == "" {
		model = s.ollamaModel
	}
	if model == "" {
		model = ai.DefaultModel
	}

	vars, err := s.buildAIVars(r, householdID, kind, req, settings.Raw)
	if err != nil {
		writeError(w, err)
		return
	}
	if vars == nil {
		writeBadRequest(w, "unknown summary type %q", kind)
		return
	}

	prompt := ai.WithCurrencyGuard(ai.FormatPrompt(ai.TemplateFor(kind, settings.Raw), vars))

	text, err := s.aiClient.Generate(r.Context(), url, model, prompt)
	if err != nil {
		writeJSON(w, http.StatusOK, aiResponse{Success: false, Error: "Failed to connect to Ollama. " + err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, aiResponse{Success: true, Response: text})
}

// buildAIVars gathers ledger figures for one summary kind. Returns nil vars
// for an unknown kind.
func (s *Server) buildAIVars(r *http.Request, householdID int64, kind string, req aiGenerateRequest, raw map[string]string) (map[string]string, error) {
	ctx := r.Context()

	switch kind {
	case ai.KindBudget:
		month, err := monthParam(string(req.Params.Month))
		if err != nil {
			return nil, err
		}
		balance, err := s.repo.GetBalance(ctx, householdID, month)
		if err != nil && err != core.ErrNotFound {
			return nil, err
		}
		expenses, err := s.repo.ExpensesByMonth(ctx, householdID, month)
		if err != nil {
			return nil, err
		}
		settings, err := s.repo.LoadSettings(ctx, householdID)
		if err != nil {
			return nil, err
		}
		return ai.BudgetVars(month, balance, expenses, settings.DefaultSalary, settings.PayDay, time.Now()), nil

	case ai.KindSavings:
		accounts, err := s.repo.ListSavings(ctx, householdID)
		if err != nil {
			return nil, err
		}
		return ai.SavingsVars(accounts), nil

	case ai.KindCreditCards:
		cards, err := s.repo.ListCards(ctx, householdID)
		if err != nil {
			return nil, err
		}
		return ai.CreditCardVars(cards), nil

	case ai.KindDashboard:
		year := req.Params.Year
		if year == 0 {
			year = time.Now().Year()
		}
		report, err := s.reports.YearReport(ctx, householdID, year)
		if err != nil {
			return nil, err
		}
		return ai.DashboardVars(year, report.TotalIncome, report.TotalExpenses), nil
	}

	return nil, nil
}
