package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// FiscalStartMonth anchors the 12-month dashboard window (April .. March).
	FiscalStartMonth = time.April

	// FiscalWindowMonths is the length of the dashboard window.
	FiscalWindowMonths = 12
)

const (
	RegistryCategories = "categories"
	RegistryPeople     = "people"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidMonth       = errors.New("invalid month key, expected YYYY-MM")
	ErrEmptyName          = errors.New("empty name")
	ErrUnknownRegistry    = errors.New("unknown registry kind")
	ErrEmptyLabel         = errors.New("empty label")
	ErrUnknownSource      = errors.New("unknown init source")
	ErrMissingSource      = errors.New("source month required")
	ErrInvalidExpectedDay = errors.New("expected day out of range")
	ErrUnknownTable       = errors.New("unknown table")
	ErrUnknownColumn      = errors.New("unknown column")
)

// Month is a budget period key in YYYY-MM form.
type Month string

// ParseMonth validates a raw month key.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return "", ErrInvalidMonth
	}
	return Month(t.Format("2006-01")), nil
}

// MonthOf returns the month key for a point in time.
func MonthOf(t time.Time) Month {
	return Month(t.Format("2006-01"))
}

func (m Month) String() string { return string(m) }

// Time returns the first day of the month in UTC. Invalid keys yield the
// zero time.
func (m Month) Time() time.Time {
	t, err := time.Parse("2006-01", string(m))
	if err != nil {
		return time.Time{}
	}
	return t
}

// Add shifts the month key by n calendar months.
func (m Month) Add(n int) Month {
	return MonthOf(m.Time().AddDate(0, n, 0))
}

// FiscalWindow returns the 12 month keys of the fiscal year starting in
// April of the given calendar year.
func FiscalWindow(year int) []Month {
	start := time.Date(year, FiscalStartMonth, 1, 0, 0, 0, 0, time.UTC)
	months := make([]Month, 0, FiscalWindowMonths)
	for i := 0; i < FiscalWindowMonths; i++ {
		months = append(months, MonthOf(start.AddDate(0, i, 0)))
	}
	return months
}

// FiscalYearOf maps a month key to the calendar year whose fiscal window
// contains it. Months before April belong to the previous window.
func FiscalYearOf(m Month) int {
	t := m.Time()
	if t.Month() < FiscalStartMonth {
		return t.Year() - 1
	}
	return t.Year()
}

// MonthlyBalance is the single per-(household, month) balance row. Amount is
// the closing balance, Salary the income for the month.
type MonthlyBalance struct {
	HouseholdID int64           `json:"-"`
	Month       Month           `json:"month"`
	Amount      decimal.Decimal `json:"balance"`
	Salary      decimal.Decimal `json:"salary"`
	Notes       string          `json:"notes"`
}

// Expense is a single itemized record within a month. Amounts are signed;
// outflows are negative by data-entry convention, never enforced.
type Expense struct {
	ID          int64           `json:"id"`
	HouseholdID int64           `json:"-"`
	Month       Month           `json:"month"`
	Name        string          `json:"name"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Who         string          `json:"who"`
	Paid        bool            `json:"paid"`
	PaidAt      *time.Time      `json:"paid_at"`
	Vendor      string          `json:"vendor"`
	ExpectedDay *int64          `json:"expected_day"`
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return ErrEmptyName
	}
	if _, err := ParseMonth(string(e.Month)); err != nil {
		return err
	}
	if e.ExpectedDay != nil && (*e.ExpectedDay < 1 || *e.ExpectedDay > 31) {
		return fmt.Errorf("%w: %d", ErrInvalidExpectedDay, *e.ExpectedDay)
	}
	return nil
}

// ExpenseTemplate is a recurring-bill definition used to seed new months.
// Same shape as Expense minus month and paid state.
type ExpenseTemplate struct {
	ID          int64           `json:"id"`
	HouseholdID int64           `json:"-"`
	Name        string          `json:"name"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Who         string          `json:"who"`
	Vendor      string          `json:"vendor"`
	ExpectedDay *int64          `json:"expected_day"`
}

func (t ExpenseTemplate) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return ErrEmptyName
	}
	if t.ExpectedDay != nil && (*t.ExpectedDay < 1 || *t.ExpectedDay > 31) {
		return fmt.Errorf("%w: %d", ErrInvalidExpectedDay, *t.ExpectedDay)
	}
	return nil
}

// SavingsPot is a named sub-allocation inside a savings account.
type SavingsPot struct {
	ID        int64           `json:"id"`
	AccountID int64           `json:"account_id"`
	Name      string          `json:"name"`
	Amount    decimal.Decimal `json:"amount"`
}

// SavingsAccount groups pots; Total is derived from the pots, never stored.
type SavingsAccount struct {
	ID          int64           `json:"id"`
	HouseholdID int64           `json:"-"`
	Name        string          `json:"name"`
	Total       decimal.Decimal `json:"total"`
	Pots        []SavingsPot    `json:"pots"`
}

// CreditCard carries a running balance against a limit.
type CreditCard struct {
	ID           int64           `json:"id"`
	HouseholdID  int64           `json:"-"`
	Name         string          `json:"name"`
	Balance      decimal.Decimal `json:"balance"`
	LimitAmount  decimal.Decimal `json:"limit_amount"`
	InterestRate decimal.Decimal `json:"interest_rate"`
}

// CcTransaction is an unpaid charge accumulated against a card until a pay
// operation clears it.
type CcTransaction struct {
	ID        int64           `json:"id"`
	CardID    int64           `json:"card_id"`
	Name      string          `json:"name"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
}

// Settings is the typed view over the key-value registry, loaded once per
// request instead of re-parsed ad hoc.
type Settings struct {
	Categories    []string
	People        []string
	DefaultSalary decimal.Decimal
	PayDay        int
	OllamaURL     string
	OllamaModel   string
	Raw           map[string]string
}

// LabelColumn maps a registry kind to the expense/template column it
// constrains.
func LabelColumn(kind string) (string, error) {
	switch kind {
	case RegistryCategories:
		return "category", nil
	case RegistryPeople:
		return "who", nil
	default:
		return "", ErrUnknownRegistry
	}
}
