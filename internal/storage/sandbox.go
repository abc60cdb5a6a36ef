package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"hearth/internal/core"
)

// ListSandbox returns the household's what-if rows.
func (r *Repository) ListSandbox(ctx context.Context, householdID int64) ([]core.SandboxExpense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, household_id, name, amount, category, who, vendor, expected_day, paid
		 FROM sandbox_expenses WHERE household_id = ? ORDER BY id`, householdID)
	if err != nil {
		return nil, fmt.Errorf("query sandbox: %w", err)
	}
	defer rows.Close()
	return scanSandboxRows(rows)
}

func scanSandboxRows(rows *sql.Rows) ([]core.SandboxExpense, error) {
	var items []core.SandboxExpense
	for rows.Next() {
		var (
			e      core.SandboxExpense
			amount string
		)
		if err := rows.Scan(&e.ID, &e.HouseholdID, &e.Name, &amount, &e.Category,
			&e.Who, &e.Vendor, &e.ExpectedDay, &e.Paid); err != nil {
			return nil, fmt.Errorf("scan sandbox expense: %w", err)
		}
		var err error
		if e.Amount, err = parseAmount(amount); err != nil {
			return nil, fmt.Errorf("parse sandbox amount: %w", err)
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

func (r *Repository) CreateSandboxExpense(ctx context.Context, e core.SandboxExpense) (core.SandboxExpense, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO sandbox_expenses (household_id, name, amount, category, who, vendor, expected_day, paid)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.HouseholdID, e.Name, e.Amount.String(), e.Category, e.Who, e.Vendor, e.ExpectedDay, e.Paid)
	if err != nil {
		return core.SandboxExpense{}, fmt.Errorf("create sandbox expense: %w", err)
	}
	e.ID, err = res.LastInsertId()
	return e, err
}

func (r *Repository) UpdateSandboxExpense(ctx context.Context, e core.SandboxExpense) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE sandbox_expenses
		 SET name = ?, amount = ?, category = ?, who = ?, vendor = ?, expected_day = ?, paid = ?
		 WHERE household_id = ? AND id = ?`,
		e.Name, e.Amount.String(), e.Category, e.Who, e.Vendor, e.ExpectedDay, e.Paid,
		e.HouseholdID, e.ID)
	if err != nil {
		return fmt.Errorf("update sandbox expense: %w", err)
	}
	return requireRow(res)
}

func (r *Repository) DeleteSandboxExpense(ctx context.Context, householdID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM sandbox_expenses WHERE household_id = ? AND id = ?`, householdID, id)
	if err != nil {
		return fmt.Errorf("delete sandbox expense: %w", err)
	}
	return requireRow(res)
}

// ClearSandbox wipes the household's what-if rows.
func (r *Repository) ClearSandbox(ctx context.Context, householdID int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM sandbox_expenses WHERE household_id = ?`, householdID)
	if err != nil {
		return fmt.Errorf("clear sandbox: %w", err)
	}
	return nil
}

// ImportMonthIntoSandbox copies a real month's expenses into the sandbox
// as unpaid rows and returns how many were copied.
func (r *Repository) ImportMonthIntoSandbox(ctx context.Context, householdID int64, month core.Month) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO sandbox_expenses (household_id, name, amount, category, who, vendor, expected_day, paid)
		 SELECT household_id, name, amount, category, who, vendor, expected_day, 0
		 FROM expenses WHERE household_id = ? AND month = ?`,
		householdID, month.String())
	if err != nil {
		return 0, fmt.Errorf("import month into sandbox: %w", err)
	}
	return res.RowsAffected()
}

// ListSandboxProfiles returns saved scenarios without their item payloads.
func (r *Repository) ListSandboxProfiles(ctx context.Context, householdID int64) ([]core.SandboxProfile, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, household_id, name, salary
		 FROM sandbox_profiles WHERE household_id = ? ORDER BY name ASC`, householdID)
	if err != nil {
		return nil, fmt.Errorf("query sandbox profiles: %w", err)
	}
	defer rows.Close()

	var profiles []core.SandboxProfile
	for rows.Next() {
		var (
			p      core.SandboxProfile
			salary string
		)
		if err := rows.Scan(&p.ID, &p.HouseholdID, &p.Name, &salary); err != nil {
			return nil, fmt.Errorf("scan sandbox profile: %w", err)
		}
		if p.Salary, err = parseAmount(salary); err != nil {
			return nil, fmt.Errorf("parse profile salary: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// SaveSandboxProfile stores a named scenario. A nil item list snapshots
// the current sandbox; a profile with the same name is replaced.
func (r *Repository) SaveSandboxProfile(ctx context.Context, householdID int64, name string, salary decimal.Decimal, items []core.SandboxExpense) (core.SandboxProfile, error) {
	if items == nil {
		var err error
		if items, err = r.ListSandbox(ctx, householdID); err != nil {
			return core.SandboxProfile{}, err
		}
	}
	if items == nil {
		items = []core.SandboxExpense{}
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return core.SandboxProfile{}, fmt.Errorf("encode profile items: %w", err)
	}

	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM sandbox_profiles WHERE household_id = ? AND name = ?`,
		householdID, name); err != nil {
		return core.SandboxProfile{}, fmt.Errorf("replace sandbox profile: %w", err)
	}
	profile := core.SandboxProfile{HouseholdID: householdID, Name: name, Salary: salary, Items: items}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO sandbox_profiles (household_id, name, salary, items) VALUES (?, ?, ?, ?)`,
		householdID, name, salary.String(), string(payload))
	if err != nil {
		return core.SandboxProfile{}, fmt.Errorf("save sandbox profile: %w", err)
	}
	profile.ID, err = res.LastInsertId()
	return profile, err
}

func (r *Repository) DeleteSandboxProfile(ctx context.Context, householdID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM sandbox_profiles WHERE household_id = ? AND id = ?`, householdID, id)
	if err != nil {
		return fmt.Errorf("delete sandbox profile: %w", err)
	}
	return requireRow(res)
}

// LoadSandboxProfile replaces the sandbox with a saved snapshot and
// returns the profile's salary.
func (r *Repository) LoadSandboxProfile(ctx context.Context, householdID, id int64) (decimal.Decimal, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("begin load profile: %w", err)
	}
	defer tx.Rollback()

	var rawSalary, rawItems string
	err = tx.QueryRowContext(ctx,
		`SELECT salary, items FROM sandbox_profiles WHERE household_id = ? AND id = ?`,
		householdID, id).Scan(&rawSalary, &rawItems)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, core.ErrNotFound
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("get sandbox profile: %w", err)
	}

	var items []core.SandboxExpense
	if err := json.Unmarshal([]byte(rawItems), &items); err != nil {
		return decimal.Zero, fmt.Errorf("decode profile items: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM sandbox_expenses WHERE household_id = ?`, householdID); err != nil {
		return decimal.Zero, fmt.Errorf("clear sandbox: %w", err)
	}
	for _, e := range items {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sandbox_expenses (household_id, name, amount, category, who, vendor, expected_day, paid)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			householdID, e.Name, e.Amount.String(), e.Category, e.Who, e.Vendor, e.ExpectedDay, e.Paid); err != nil {
			return decimal.Zero, fmt.Errorf("restore sandbox expense: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return decimal.Zero, fmt.Errorf("commit load profile: %w", err)
	}
	return parseAmount(rawSalary)
}
