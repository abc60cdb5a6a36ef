package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"hearth/internal/core"
)

const expenseColumns = `id, month, name, amount, category, who, paid, paid_at, vendor, expected_day`

// CreateExpense inserts one row and returns it with its assigned id.
func (r *Repository) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (household_id, month, name, amount, category, who, paid, paid_at, vendor, expected_day)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.HouseholdID, e.Month, e.Name, e.Amount.String(), e.Category, e.Who, e.Paid, e.PaidAt, e.Vendor, e.ExpectedDay)
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Expense{}, err
	}
	e.ID = id
	return e, nil
}

// UpdateExpense rewrites every editable column of a row the household owns.
func (r *Repository) UpdateExpense(ctx context.Context, e core.Expense) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET month = ?, name = ?, amount = ?, category = ?, who = ?, vendor = ?, expected_day = ?
		 WHERE id = ? AND household_id = ?`,
		e.Month, e.Name, e.Amount.String(), e.Category, e.Who, e.Vendor, e.ExpectedDay, e.ID, e.HouseholdID)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	return requireRow(res)
}

// SetExpensePaid flips the paid flag and stamps or clears paid_at in the
// same statement, so the flag and timestamp can never disagree.
func (r *Repository) SetExpensePaid(ctx context.Context, householdID, id int64, paid bool, at time.Time) error {
	var paidAt *time.Time
	if paid {
		paidAt = &at
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET paid = ?, paid_at = ? WHERE id = ? AND household_id = ?`,
		paid, paidAt, id, householdID)
	if err != nil {
		return fmt.Errorf("set expense paid: %w", err)
	}
	return requireRow(res)
}

// GetExpense returns one row the household owns, or core.ErrNotFound.
func (r *Repository) GetExpense(ctx context.Context, householdID, id int64) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = ? AND household_id = ?`, id, householdID)
	e, err := scanExpense(row)
	if err != nil {
		return e, err
	}
	e.HouseholdID = householdID
	return e, nil
}

// DeleteExpense removes one row the household owns.
func (r *Repository) DeleteExpense(ctx context.Context, householdID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM expenses WHERE id = ? AND household_id = ?`, id, householdID)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return requireRow(res)
}

// ExpensesByMonth lists a month's rows in insertion order.
func (r *Repository) ExpensesByMonth(ctx context.Context, householdID int64, month core.Month) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses
		 WHERE household_id = ? AND month = ? ORDER BY id`, householdID, month)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	return collectExpenses(rows, householdID)
}

// ExpensesInMonths lists every row falling in the given set of months,
// ordered by month then insertion order.
func (r *Repository) ExpensesInMonths(ctx context.Context, householdID int64, months []core.Month) ([]core.Expense, error) {
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
		`SELECT `+expenseColumns+` FROM expenses
		 WHERE household_id = ? AND month IN (`+placeholders+`) ORDER BY month, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	return collectExpenses(rows, householdID)
}

// DeleteMonth removes the month's expense rows and its balance row in one
// transaction. Returns the number of expense rows removed.
func (r *Repository) DeleteMonth(ctx context.Context, householdID int64, month core.Month) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin delete month: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM expenses WHERE household_id = ? AND month = ?`, householdID, month)
	if err != nil {
		return 0, fmt.Errorf("delete month expenses: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM monthly_balances WHERE household_id = ? AND month = ?`, householdID, month); err != nil {
		return 0, fmt.Errorf("delete month balance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit delete month: %w", err)
	}
	return removed, nil
}

// ReplaceMonth swaps the month's expense rows for the given set in one
// transaction, preserving the ids the caller supplies. Rows without an id
// get a fresh one.
func (r *Repository) ReplaceMonth(ctx context.Context, householdID int64, month core.Month, expenses []core.Expense) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace month: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM expenses WHERE household_id = ? AND month = ?`, householdID, month); err != nil {
		return fmt.Errorf("clear month expenses: %w", err)
	}

	for _, e := range expenses {
		if e.ID > 0 {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO expenses (id, household_id, month, name, amount, category, who, paid, paid_at, vendor, expected_day)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				e.ID, householdID, month, e.Name, e.Amount.String(), e.Category, e.Who, e.Paid, e.PaidAt, e.Vendor, e.ExpectedDay)
		} else {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO expenses (household_id, month, name, amount, category, who, paid, paid_at, vendor, expected_day)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				householdID, month, e.Name, e.Amount.String(), e.Category, e.Who, e.Paid, e.PaidAt, e.Vendor, e.ExpectedDay)
		}
		if err != nil {
			return fmt.Errorf("insert expense %q: %w", e.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace month: %w", err)
	}
	return nil
}

// InsertExpenses adds a batch of rows in one transaction. Returns the number
// inserted.
func (r *Repository) InsertExpenses(ctx context.Context, householdID int64, expenses []core.Expense) (int, error) {
	if len(expenses) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin insert expenses: %w", err)
	}
	defer tx.Rollback()

	for _, e := range expenses {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO expenses (household_id, month, name, amount, category, who, paid, paid_at, vendor, expected_day)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			householdID, e.Month, e.Name, e.Amount.String(), e.Category, e.Who, e.Paid, e.PaidAt, e.Vendor, e.ExpectedDay); err != nil {
			return 0, fmt.Errorf("insert expense %q: %w", e.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit insert expenses: %w", err)
	}
	return len(expenses), nil
}

func collectExpenses(rows *sql.Rows, householdID int64) ([]core.Expense, error) {
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		e.HouseholdID = householdID
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

func scanExpense(row rowScanner) (core.Expense, error) {
	var (
		e      core.Expense
		amount string
	)
	if err := row.Scan(&e.ID, &e.Month, &e.Name, &amount, &e.Category, &e.Who, &e.Paid, &e.PaidAt, &e.Vendor, &e.ExpectedDay); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return e, core.ErrNotFound
		}
		return e, fmt.Errorf("scan expense: %w", err)
	}

	var err error
	if e.Amount, err = parseAmount(amount); err != nil {
		return e, fmt.Errorf("parse expense amount: %w", err)
	}
	return e, nil
}

// requireRow maps a zero-row UPDATE or DELETE to core.ErrNotFound.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}
