package core

import "github.com/shopspring/decimal"

// CategoryTotal is an absolute expense sum for one category.
type CategoryTotal struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
}

// MonthPoint pairs a month's absolute expense total with its income.
type MonthPoint struct {
	Month    Month           `json:"month"`
	Expenses decimal.Decimal `json:"expenses"`
	Income   decimal.Decimal `json:"income"`
}

// CategoryPoint is a per-(month, category) absolute expense sum for stacked
// time-series rendering.
type CategoryPoint struct {
	Month    Month           `json:"month"`
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
}

// WhoTotal is an absolute expense sum for one payer.
type WhoTotal struct {
	Who   string          `json:"who"`
	Total decimal.Decimal `json:"total"`
}

// TopExpense is one of the largest individual rows in the window, reported
// with its absolute amount.
type TopExpense struct {
	Name     string          `json:"name"`
	Amount   decimal.Decimal `json:"amount"`
	Month    Month           `json:"month"`
	Category string          `json:"category"`
}

// YearReport is the full dashboard aggregation over one fiscal window.
type YearReport struct {
	Year              int             `json:"year"`
	TotalIncome       decimal.Decimal `json:"totalIncome"`
	TotalExpenses     decimal.Decimal `json:"totalExpenses"`
	CategoryBreakdown []CategoryTotal `json:"categoryBreakdown"`
	MonthlyTrend      []MonthPoint    `json:"monthlyTrend"`
	CategoryTrend     []CategoryPoint `json:"categoryTrend"`
	WhoBreakdown      []WhoTotal      `json:"whoBreakdown"`
	TopExpenses       []TopExpense    `json:"topExpenses"`
}
