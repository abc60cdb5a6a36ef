package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"hearth/internal/core"
)

// ListCards returns the household's credit cards in insertion order.
func (r *Repository) ListCards(ctx context.Context, householdID int64) ([]core.CreditCard, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, balance, limit_amount, interest_rate
		 FROM credit_cards WHERE household_id = ? ORDER BY id`, householdID)
	if err != nil {
		return nil, fmt.Errorf("query cards: %w", err)
	}
	defer rows.Close()

	var cards []core.CreditCard
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		c.HouseholdID = householdID
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

// GetCard returns one card the household owns, or core.ErrNotFound.
func (r *Repository) GetCard(ctx context.Context, householdID, id int64) (core.CreditCard, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, balance, limit_amount, interest_rate
		 FROM credit_cards WHERE id = ? AND household_id = ?`, id, householdID)
	c, err := scanCard(row)
	if err != nil {
		return c, err
	}
	c.HouseholdID = householdID
	return c, nil
}

// CreateCard inserts one card and returns it with its assigned id.
func (r *Repository) CreateCard(ctx context.Context, c core.CreditCard) (core.CreditCard, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO credit_cards (household_id, name, balance, limit_amount, interest_rate)
		 VALUES (?, ?, ?, ?, ?)`,
		c.HouseholdID, c.Name, c.Balance.String(), c.LimitAmount.String(), c.InterestRate.String())
	if err != nil {
		return core.CreditCard{}, fmt.Errorf("create card: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.CreditCard{}, err
	}
	c.ID = id
	return c, nil
}

// UpdateCard rewrites a card's editable columns.
func (r *Repository) UpdateCard(ctx context.Context, c core.CreditCard) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE credit_cards SET name = ?, balance = ?, limit_amount = ?, interest_rate = ?
		 WHERE id = ? AND household_id = ?`,
		c.Name, c.Balance.String(), c.LimitAmount.String(), c.InterestRate.String(), c.ID, c.HouseholdID)
	if err != nil {
		return fmt.Errorf("update card: %w", err)
	}
	return requireRow(res)
}

// DeleteCard removes a card; its transactions go with it via the foreign key
// cascade.
func (r *Repository) DeleteCard(ctx context.Context, householdID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM credit_cards WHERE id = ? AND household_id = ?`, id, householdID)
	if err != nil {
		return fmt.Errorf("delete card: %w", err)
	}
	return requireRow(res)
}

// ListCardTransactions returns a card's pending charges, newest first.
func (r *Repository) ListCardTransactions(ctx context.Context, householdID, cardID int64) ([]core.CcTransaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT t.id, t.card_id, t.name, t.amount, t.created_at
		 FROM cc_transactions t
		 JOIN credit_cards c ON c.id = t.card_id
		 WHERE t.card_id = ? AND c.household_id = ?
		 ORDER BY t.id DESC`, cardID, householdID)
	if err != nil {
		return nil, fmt.Errorf("query card transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.CcTransaction
	for rows.Next() {
		var (
			t      core.CcTransaction
			amount string
		)
		if err := rows.Scan(&t.ID, &t.CardID, &t.Name, &amount, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan card transaction: %w", err)
		}
		if t.Amount, err = parseAmount(amount); err != nil {
			return nil, fmt.Errorf("parse transaction amount: %w", err)
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

// AddCardTransaction records a charge against a card the household owns and
// grows the card's balance by the same amount, atomically.
func (r *Repository) AddCardTransaction(ctx context.Context, householdID int64, t core.CcTransaction) (core.CcTransaction, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.CcTransaction{}, fmt.Errorf("begin add transaction: %w", err)
	}
	defer tx.Rollback()

	card, err := cardForUpdate(ctx, tx, householdID, t.CardID)
	if err != nil {
		return core.CcTransaction{}, err
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO cc_transactions (card_id, name, amount) VALUES (?, ?, ?)`,
		t.CardID, t.Name, t.Amount.String())
	if err != nil {
		return core.CcTransaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.CcTransaction{}, err
	}

	newBalance := card.Balance.Add(t.Amount)
	if _, err := tx.ExecContext(ctx,
		`UPDATE credit_cards SET balance = ? WHERE id = ?`, newBalance.String(), t.CardID); err != nil {
		return core.CcTransaction{}, fmt.Errorf("grow card balance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return core.CcTransaction{}, fmt.Errorf("commit add transaction: %w", err)
	}
	t.ID = id
	return t, nil
}

// DeleteCardTransaction drops one pending charge and shrinks the card's
// balance by its amount, atomically.
func (r *Repository) DeleteCardTransaction(ctx context.Context, householdID, txID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete transaction: %w", err)
	}
	defer tx.Rollback()

	var (
		cardID int64
		amount string
	)
	err = tx.QueryRowContext(ctx,
		`SELECT t.card_id, t.amount FROM cc_transactions t
		 JOIN credit_cards c ON c.id = t.card_id
		 WHERE t.id = ? AND c.household_id = ?`, txID, householdID).Scan(&cardID, &amount)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("lookup transaction: %w", err)
	}

	charged, err := parseAmount(amount)
	if err != nil {
		return fmt.Errorf("parse transaction amount: %w", err)
	}

	card, err := cardForUpdate(ctx, tx, householdID, cardID)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM cc_transactions WHERE id = ?`, txID); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE credit_cards SET balance = ? WHERE id = ?`,
		card.Balance.Sub(charged).String(), cardID); err != nil {
		return fmt.Errorf("shrink card balance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete transaction: %w", err)
	}
	return nil
}

// PayCard deducts a payment from the card's balance. With clearBalance set
// it also drops the pending transactions, marking the statement settled.
// Returns the card's new balance.
func (r *Repository) PayCard(ctx context.Context, householdID, cardID int64, amount decimal.Decimal, clearBalance bool) (decimal.Decimal, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("begin pay card: %w", err)
	}
	defer tx.Rollback()

	card, err := cardForUpdate(ctx, tx, householdID, cardID)
	if err != nil {
		return decimal.Zero, err
	}

	newBalance := card.Balance.Sub(amount)
	if clearBalance {
		newBalance = decimal.Zero
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM cc_transactions WHERE card_id = ?`, cardID); err != nil {
			return decimal.Zero, fmt.Errorf("clear card transactions: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE credit_cards SET balance = ? WHERE id = ?`, newBalance.String(), cardID); err != nil {
		return decimal.Zero, fmt.Errorf("update card balance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return decimal.Zero, fmt.Errorf("commit pay card: %w", err)
	}
	return newBalance, nil
}

func cardForUpdate(ctx context.Context, tx *sql.Tx, householdID, cardID int64) (core.CreditCard, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT id, name, balance, limit_amount, interest_rate
		 FROM credit_cards WHERE id = ? AND household_id = ?`, cardID, householdID)
	return scanCard(row)
}

func scanCard(row rowScanner) (core.CreditCard, error) {
	var (
		c                    core.CreditCard
		balance, limit, rate string
	)
	if err := row.Scan(&c.ID, &c.Name, &balance, &limit, &rate); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c, core.ErrNotFound
		}
		return c, fmt.Errorf("scan card: %w", err)
	}

	var err error
	if c.Balance, err = parseAmount(balance); err != nil {
		return c, fmt.Errorf("parse card balance: %w", err)
	}
	if c.LimitAmount, err = parseAmount(limit); err != nil {
		return c, fmt.Errorf("parse card limit: %w", err)
	}
	if c.InterestRate, err = parseAmount(rate); err != nil {
		return c, fmt.Errorf("parse card rate: %w", err)
	}
	return c, nil
}
