package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidDate rejects calendar dates outside YYYY-MM-DD form.
var ErrInvalidDate = errors.New("invalid date, expected YYYY-MM-DD")

// ParseDate validates a raw calendar date key.
func ParseDate(s string) (string, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return "", ErrInvalidDate
	}
	return t.Format("2006-01-02"), nil
}

// Birthday is a recurring family date tracked for reminders.
type Birthday struct {
	ID          int64  `json:"id"`
	HouseholdID int64  `json:"-"`
	Name        string `json:"name"`
	Date        string `json:"date"`
	Type        string `json:"type"`
}

func (b Birthday) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return ErrEmptyName
	}
	_, err := ParseDate(b.Date)
	return err
}

// Meal is a reusable dish in the meal library.
type Meal struct {
	ID          int64    `json:"id"`
	HouseholdID int64    `json:"-"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Type        string   `json:"type"`
}

func (m Meal) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

// PlannedMeal is one scheduled slot in the meal plan, joined with its
// library entry. MealID is nil for free-text slots whose meal was removed.
type PlannedMeal struct {
	ID          int64    `json:"id"`
	HouseholdID int64    `json:"-"`
	Date        string   `json:"date"`
	Slot        string   `json:"slot"`
	MealID      *int64   `json:"meal_id"`
	Who         []string `json:"who"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Type        string   `json:"type"`
}

// ChristmasGift is one line of the gift list with its bought state.
type ChristmasGift struct {
	ID          int64           `json:"id"`
	HouseholdID int64           `json:"-"`
	Recipient   string          `json:"recipient"`
	Item        string          `json:"item"`
	Amount      decimal.Decimal `json:"amount"`
	Bought      bool            `json:"bought"`
}

// SandboxExpense is a what-if row, shaped like an Expense but detached
// from any month.
type SandboxExpense struct {
	ID          int64           `json:"id"`
	HouseholdID int64           `json:"-"`
	Name        string          `json:"name"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Who         string          `json:"who"`
	Vendor      string          `json:"vendor"`
	ExpectedDay *int64          `json:"expected_day"`
	Paid        bool            `json:"paid"`
}

// SandboxProfile is a saved what-if scenario: a salary plus a snapshot of
// sandbox rows.
type SandboxProfile struct {
	ID          int64            `json:"id"`
	HouseholdID int64            `json:"-"`
	Name        string           `json:"name"`
	Salary      decimal.Decimal  `json:"salary"`
	Items       []SandboxExpense `json:"items,omitempty"`
}
