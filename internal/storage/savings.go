package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"hearth/internal/core"
)

// ListSavings returns the household's savings accounts with their pots and
// derived totals. Accounts with no pots come back with an empty pot list
// and a zero total.
func (r *Repository) ListSavings(ctx context.Context, householdID int64) ([]core.SavingsAccount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT a.id, a.name, p.id, p.name, p.amount
		 FROM savings_accounts a
		 LEFT JOIN savings_pots p ON p.account_id = a.id
		 WHERE a.household_id = ?
		 ORDER BY a.id, p.id`, householdID)
	if err != nil {
		return nil, fmt.Errorf("query savings: %w", err)
	}
	defer rows.Close()

	var (
		accounts []core.SavingsAccount
		current  *core.SavingsAccount
	)
	for rows.Next() {
		var (
			accountID int64
			name      string
			potID     sql.NullInt64
			potName   sql.NullString
			potAmount sql.NullString
		)
		if err := rows.Scan(&accountID, &name, &potID, &potName, &potAmount); err != nil {
			return nil, fmt.Errorf("scan savings row: %w", err)
		}

		if current == nil || current.ID != accountID {
			accounts = append(accounts, core.SavingsAccount{
				ID:          accountID,
				HouseholdID: householdID,
				Name:        name,
				Total:       decimal.Zero,
				Pots:        []core.SavingsPot{},
			})
			current = &accounts[len(accounts)-1]
		}

		if potID.Valid {
			amount, err := parseAmount(potAmount.String)
			if err != nil {
				return nil, fmt.Errorf("parse pot amount: %w", err)
			}
			current.Pots = append(current.Pots, core.SavingsPot{
				ID:        potID.Int64,
				AccountID: accountID,
				Name:      potName.String,
				Amount:    amount,
			})
			current.Total = current.Total.Add(amount)
		}
	}
	return accounts, rows.Err()
}

// CreateSavingsAccount inserts an empty account and returns its id.
func (r *Repository) CreateSavingsAccount(ctx context.Context, householdID int64, name string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO savings_accounts (household_id, name) VALUES (?, ?)`, householdID, name)
	if err != nil {
		return 0, fmt.Errorf("create savings account: %w", err)
	}
	return res.LastInsertId()
}

// RenameSavingsAccount updates an account's display name.
func (r *Repository) RenameSavingsAccount(ctx context.Context, householdID, id int64, name string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE savings_accounts SET name = ? WHERE id = ? AND household_id = ?`, name, id, householdID)
	if err != nil {
		return fmt.Errorf("rename savings account: %w", err)
	}
	return requireRow(res)
}

// DeleteSavingsAccount removes an account; its pots go with it via the
// foreign key cascade.
func (r *Repository) DeleteSavingsAccount(ctx context.Context, householdID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM savings_accounts WHERE id = ? AND household_id = ?`, id, householdID)
	if err != nil {
		return fmt.Errorf("delete savings account: %w", err)
	}
	return requireRow(res)
}

// CreatePot adds a pot under an account the household owns.
func (r *Repository) CreatePot(ctx context.Context, householdID int64, pot core.SavingsPot) (core.SavingsPot, error) {
	if err := r.requireAccount(ctx, householdID, pot.AccountID); err != nil {
		return core.SavingsPot{}, err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO savings_pots (account_id, name, amount) VALUES (?, ?, ?)`,
		pot.AccountID, pot.Name, pot.Amount.String())
	if err != nil {
		return core.SavingsPot{}, fmt.Errorf("create pot: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.SavingsPot{}, err
	}
	pot.ID = id
	return pot, nil
}

// UpdatePot rewrites a pot's name and amount, checking household ownership
// through the parent account.
func (r *Repository) UpdatePot(ctx context.Context, householdID int64, pot core.SavingsPot) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE savings_pots SET name = ?, amount = ?
		 WHERE id = ? AND account_id IN (SELECT id FROM savings_accounts WHERE household_id = ?)`,
		pot.Name, pot.Amount.String(), pot.ID, householdID)
	if err != nil {
		return fmt.Errorf("update pot: %w", err)
	}
	return requireRow(res)
}

// DeletePot removes a pot, checking household ownership through the parent
// account.
func (r *Repository) DeletePot(ctx context.Context, householdID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM savings_pots
		 WHERE id = ? AND account_id IN (SELECT id FROM savings_accounts WHERE household_id = ?)`,
		id, householdID)
	if err != nil {
		return fmt.Errorf("delete pot: %w", err)
	}
	return requireRow(res)
}

func (r *Repository) requireAccount(ctx context.Context, householdID, accountID int64) error {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM savings_accounts WHERE id = ? AND household_id = ?`, accountID, householdID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrNotFound
	}
	return err
}
