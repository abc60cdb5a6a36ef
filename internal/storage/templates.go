package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"hearth/internal/core"
)

// ListTemplates returns the household's recurring-bill templates in
// insertion order.
func (r *Repository) ListTemplates(ctx context.Context, householdID int64) ([]core.ExpenseTemplate, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, amount, category, who, vendor, expected_day
		 FROM expense_templates WHERE household_id = ? ORDER BY id`, householdID)
	if err != nil {
		return nil, fmt.Errorf("query templates: %w", err)
	}
	defer rows.Close()

	var templates []core.ExpenseTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		t.HouseholdID = householdID
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

// CreateTemplate inserts one template and returns it with its assigned id.
func (r *Repository) CreateTemplate(ctx context.Context, t core.ExpenseTemplate) (core.ExpenseTemplate, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expense_templates (household_id, name, amount, category, who, vendor, expected_day)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.HouseholdID, t.Name, t.Amount.String(), t.Category, t.Who, t.Vendor, t.ExpectedDay)
	if err != nil {
		return core.ExpenseTemplate{}, fmt.Errorf("create template: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.ExpenseTemplate{}, err
	}
	t.ID = id
	return t, nil
}

// UpdateTemplate rewrites every editable column of a template the household
// owns.
func (r *Repository) UpdateTemplate(ctx context.Context, t core.ExpenseTemplate) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE expense_templates SET name = ?, amount = ?, category = ?, who = ?, vendor = ?, expected_day = ?
		 WHERE id = ? AND household_id = ?`,
		t.Name, t.Amount.String(), t.Category, t.Who, t.Vendor, t.ExpectedDay, t.ID, t.HouseholdID)
	if err != nil {
		return fmt.Errorf("update template: %w", err)
	}
	return requireRow(res)
}

// DeleteTemplate removes one template the household owns.
func (r *Repository) DeleteTemplate(ctx context.Context, householdID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM expense_templates WHERE id = ? AND household_id = ?`, id, householdID)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	return requireRow(res)
}

func scanTemplate(row rowScanner) (core.ExpenseTemplate, error) {
	var (
		t      core.ExpenseTemplate
		amount string
	)
	if err := row.Scan(&t.ID, &t.Name, &amount, &t.Category, &t.Who, &t.Vendor, &t.ExpectedDay); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return t, core.ErrNotFound
		}
		return t, fmt.Errorf("scan template: %w", err)
	}

	var err error
	if t.Amount, err = parseAmount(amount); err != nil {
		return t, fmt.Errorf("parse template amount: %w", err)
	}
	return t, nil
}
