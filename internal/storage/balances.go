package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"hearth/internal/core"
)

// GetBalance returns the balance row for one month, or core.ErrNotFound.
func (r *Repository) GetBalance(ctx context.Context, householdID int64, month core.Month) (core.MonthlyBalance, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT month, amount, salary, notes FROM monthly_balances
		 WHERE household_id = ? AND month = ?`, householdID, month)
	return scanBalance(row, householdID)
}

// UpsertBalanceAmount writes the closing balance for a month, creating the
// row if it does not exist. The other columns are left untouched.
func (r *Repository) UpsertBalanceAmount(ctx context.Context, householdID int64, month core.Month, amount decimal.Decimal) error {
	return r.upsertBalanceColumn(ctx, householdID, month, "amount", amount.String())
}

// UpsertBalanceSalary writes the income for a month, creating the row if it
// does not exist.
func (r *Repository) UpsertBalanceSalary(ctx context.Context, householdID int64, month core.Month, salary decimal.Decimal) error {
	return r.upsertBalanceColumn(ctx, householdID, month, "salary", salary.String())
}

// UpsertBalanceNotes writes the free-text notes for a month, creating the
// row if it does not exist.
func (r *Repository) UpsertBalanceNotes(ctx context.Context, householdID int64, month core.Month, notes string) error {
	return r.upsertBalanceColumn(ctx, householdID, month, "notes", notes)
}

// upsertBalanceColumn updates exactly one column of the single per-month
// row. The column name is fixed by the callers above, never caller input.
func (r *Repository) upsertBalanceColumn(ctx context.Context, householdID int64, month core.Month, column, value string) error {
	query := fmt.Sprintf(
		`INSERT INTO monthly_balances (household_id, month, %s) VALUES (?, ?, ?)
		 ON CONFLICT (household_id, month) DO UPDATE SET %s = excluded.%s`,
		column, column, column)
	if _, err := r.db.ExecContext(ctx, query, householdID, month, value); err != nil {
		return fmt.Errorf("upsert balance %s: %w", column, err)
	}
	return nil
}

// InitBalance creates the month's balance row with the given salary only if
// no row exists yet. Returns true when a row was inserted.
func (r *Repository) InitBalance(ctx context.Context, householdID int64, month core.Month, salary decimal.Decimal) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO monthly_balances (household_id, month, salary) VALUES (?, ?, ?)`,
		householdID, month, salary.String())
	if err != nil {
		return false, fmt.Errorf("init balance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// BalancesInMonths returns the balance rows present for the given months.
// Months with no row are simply absent from the result.
func (r *Repository) BalancesInMonths(ctx context.Context, householdID int64, months []core.Month) ([]core.MonthlyBalance, error) {
	if len(months) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(months))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, 0, len(months)+1)
	args = append(args, householdID)
	for _, m := range months {
		args = append(args, m)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT month, amount, salary, notes FROM monthly_balances
		 WHERE household_id = ? AND month IN (`+placeholders+`) ORDER BY month`, args...)
	if err != nil {
		return nil, fmt.Errorf("query balances: %w", err)
	}
	defer rows.Close()

	var balances []core.MonthlyBalance
	for rows.Next() {
		b, err := scanBalance(rows, householdID)
		if err != nil {
			return nil, err
		}
		balances = append(balances, b)
	}
	return balances, rows.Err()
}

// DeleteBalance removes the month's balance row. Missing rows are not an
// error.
func (r *Repository) DeleteBalance(ctx context.Context, householdID int64, month core.Month) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM monthly_balances WHERE household_id = ? AND month = ?`, householdID, month)
	if err != nil {
		return fmt.Errorf("delete balance: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBalance(row rowScanner, householdID int64) (core.MonthlyBalance, error) {
	var (
		b              core.MonthlyBalance
		amount, salary string
	)
	if err := row.Scan(&b.Month, &amount, &salary, &b.Notes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return b, core.ErrNotFound
		}
		return b, fmt.Errorf("scan balance: %w", err)
	}
	b.HouseholdID = householdID

	var err error
	if b.Amount, err = parseAmount(amount); err != nil {
		return b, fmt.Errorf("parse balance amount: %w", err)
	}
	if b.Salary, err = parseAmount(salary); err != nil {
		return b, fmt.Errorf("parse balance salary: %w", err)
	}
	return b, nil
}
