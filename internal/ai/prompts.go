package ai

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"hearth/internal/core"
)

// Summary kinds accepted by the generate endpoint.
const (
	KindBudget      = "budget"
	KindSavings     = "savings"
	KindCreditCards = "credit_cards"
	KindDashboard   = "dashboard"
)

var defaultTemplates = map[string]string{
	KindBudget: "Act as a financial advisor. Analyze this budget for {{month}}.\n\n" +
		"**Context:** {{date_context}}\n\n" +
		"**Status:** Income: £{{income}}, Expenses: £{{expenses}}, Current Balance: £{{balance}}\n\n" +
		"**UNPAID BILLS (Future/Pending):**\nThese items have NOT yet been paid/deducted:\n{{unpaid_text}}\n\n" +
		"**Spending Breakdown:**\n{{category_text}}\n\n" +
		"**Largest Expenses:**\n{{top_expenses}}\n\n" +
		"Provide a summary focusing on upcoming obligations and month outlook based on the date.",
	KindSavings: "Act as a financial advisor. Analyze my savings.\n\n" +
		"**Total Saved:** £{{total_saved}}\n\n**Breakdown:**\n{{breakdown}}\n\n" +
		"Provide a summary of my savings distribution.",
	KindCreditCards: "Act as a debt advisor. Analyze my credit cards.\n\n" +
		"**Total Debt:** £{{total_debt}}\n\n**Cards:**\n{{cards_text}}\n\n" +
		"Provide a summary of my debt situation and outlook.",
	KindDashboard: "Act as a financial advisor. Review year-to-date for tax year starting {{year}}.\n\n" +
		"**Total Income:** £{{income}}\n**Total Expenses:** £{{expenses}}\n\n" +
		"Is the user living within their means? Provide a brief outlook.",
}

// TemplateFor returns the per-household prompt override from the settings
// registry, falling back to the built-in template. Unknown kinds yield "".
func TemplateFor(kind string, settings map[string]string) string {
	if override := settings["prompt_"+kind]; override != "" {
		return override
	}
	return defaultTemplates[kind]
}

var placeholderRe = regexp.MustCompile(`\{\{(\w+)\}\}`)

// FormatPrompt substitutes {{var}} placeholders. Unknown variables render
// as [var] so a broken override is visible in the output instead of
// silently empty.
func FormatPrompt(template string, vars map[string]string) string {
	return placeholderRe.ReplaceAllStringFunc(template, func(match string) string {
		key := placeholderRe.FindStringSubmatch(match)[1]
		if value, ok := vars[key]; ok && value != "" {
			return value
		}
		return "[" + key + "]"
	})
}

// WithCurrencyGuard appends the currency instruction unless the prompt
// already carries one.
func WithCurrencyGuard(prompt string) string {
	if strings.Contains(prompt, "British Pounds") {
		return prompt
	}
	return prompt + "\n\nKeep the tone helpful and objective. Use British Pounds (£)."
}

// BudgetVars builds the substitution set for a month summary.
func BudgetVars(month core.Month, balance core.MonthlyBalance, expenses []core.Expense, defaultSalary decimal.Decimal, payDay int, now time.Time) map[string]string {
	income := balance.Salary
	if income.IsZero() {
		income = defaultSalary
	}

	amounts := make([]decimal.Decimal, len(expenses))
	for i, e := range expenses {
		amounts[i] = e.Amount
	}
	total := core.SumAbs(amounts)

	byCategory := make(map[string]decimal.Decimal)
	var unpaidLines []string
	for _, e := range expenses {
		amount := e.Amount.Abs()
		category := e.Category
		if category == "" {
			category = "Uncategorized"
		}
		byCategory[category] = byCategory[category].Add(amount)
		if !e.Paid {
			unpaidLines = append(unpaidLines, fmt.Sprintf("- %s: £%s", e.Name, amount.StringFixed(2)))
		}
	}

	unpaidText := "All bills paid!"
	if len(unpaidLines) > 0 {
		unpaidText = strings.Join(unpaidLines, "\n")
	}

	type catTotal struct {
		name  string
		total decimal.Decimal
	}
	categories := make([]catTotal, 0, len(byCategory))
	for name, t := range byCategory {
		categories = append(categories, catTotal{name, t})
	}
	sort.Slice(categories, func(i, j int) bool {
		return categories[i].total.GreaterThan(categories[j].total)
	})
	categoryLines := make([]string, 0, len(categories))
	for _, c := range categories {
		categoryLines = append(categoryLines, fmt.Sprintf("- %s: £%s", c.name, c.total.StringFixed(2)))
	}

	sorted := make([]core.Expense, len(expenses))
	copy(sorted, expenses)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Amount.Abs().GreaterThan(sorted[j].Amount.Abs())
	})
	if len(sorted) > 10 {
		sorted = sorted[:10]
	}
	topLines := make([]string, 0, len(sorted))
	for _, e := range sorted {
		topLines = append(topLines, fmt.Sprintf("- %s: £%s (%s)", e.Name, e.Amount.Abs().StringFixed(2), e.Category))
	}

	return map[string]string{
		"month":         string(month),
		"income":        income.String(),
		"expenses":      total.StringFixed(2),
		"balance":       balance.Amount.String(),
		"unpaid_text":   unpaidText,
		"category_text": strings.Join(categoryLines, "\n"),
		"top_expenses":  strings.Join(topLines, "\n"),
		"date_context":  dateContext(month, payDay, now),
	}
}

// dateContext tells the model where today sits relative to the budget month
// and the pay day.
func dateContext(month core.Month, payDay int, now time.Time) string {
	if payDay == 0 {
		payDay = 25
	}

	context := fmt.Sprintf("Today is %s.", now.Format("Monday, 2 January 2006"))
	monthStart := month.Time()

	switch {
	case core.MonthOf(now) == month:
		daysLeft := payDay - now.Day()
		if daysLeft < 0 {
			daysLeft += 30
		}
		context += fmt.Sprintf(" We are in the active budget month. Roughly %d days until Pay Day (%dth).", daysLeft, payDay)
	case now.Before(monthStart):
		context += " This is a future budget."
	default:
		context += " This is a past budget."
	}
	return context
}

// SavingsVars builds the substitution set for a savings summary.
func SavingsVars(accounts []core.SavingsAccount) map[string]string {
	totalSaved := decimal.Zero
	var b strings.Builder
	for _, account := range accounts {
		b.WriteString("### " + account.Name + "\n")
		if len(account.Pots) == 0 {
			b.WriteString("Empty")
		} else {
			lines := make([]string, 0, len(account.Pots))
			for _, pot := range account.Pots {
				lines = append(lines, fmt.Sprintf("%s: £%s", pot.Name, pot.Amount))
				totalSaved = totalSaved.Add(pot.Amount)
			}
			b.WriteString(strings.Join(lines, "\n"))
		}
		b.WriteString("\n\n")
	}

	return map[string]string{
		"total_saved": totalSaved.StringFixed(2),
		"breakdown":   b.String(),
	}
}

// CreditCardVars builds the substitution set for a debt summary.
func CreditCardVars(cards []core.CreditCard) map[string]string {
	totalDebt := decimal.Zero
	lines := make([]string, 0, len(cards))
	for _, c := range cards {
		totalDebt = totalDebt.Add(c.Balance)
		lines = append(lines, fmt.Sprintf("- %s: Balance £%s (Limit: £%s, Rate: %s%%)",
			c.Name, c.Balance, c.LimitAmount, c.InterestRate))
	}

	return map[string]string{
		"total_debt": totalDebt.StringFixed(2),
		"cards_text": strings.Join(lines, "\n"),
	}
}

// DashboardVars builds the substitution set for a fiscal-year summary.
func DashboardVars(year int, income, expenses decimal.Decimal) map[string]string {
	return map[string]string{
		"year":     fmt.Sprintf("%d", year),
		"income":   income.String(),
		"expenses": expenses.String(),
	}
}
