package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"hearth/internal/core"
)

// adminTables is the closed set of tables the raw data editor may touch.
// Identifiers interpolated into SQL below always come from this map or
// from a PRAGMA listing of one of its members, never from the request.
var adminTables = map[string]bool{
	"expenses":          true,
	"monthly_balances":  true,
	"settings":          true,
	"expense_templates": true,
	"savings_accounts":  true,
	"savings_pots":      true,
	"sandbox_expenses":  true,
	"sandbox_profiles":  true,
	"christmas_list":    true,
	"credit_cards":      true,
	"cc_transactions":   true,
	"meals":             true,
	"meal_plan":         true,
	"birthdays":         true,
}

func adminTable(name string) (string, error) {
	if !adminTables[name] {
		return "", fmt.Errorf("%w: %s", core.ErrUnknownTable, name)
	}
	return name, nil
}

// adminIDColumn names the key column used to address a row. The settings
// table is keyed by its setting name rather than a rowid.
func adminIDColumn(table string) string {
	if table == "settings" {
		return "key"
	}
	return "id"
}

// adminColumns returns the table's column set from the schema.
func (r *Repository) adminColumns(ctx context.Context, table string) (map[string]bool, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("table info %s: %w", table, err)
	}
	defer rows.Close()

	columns := make(map[string]bool)
	for rows.Next() {
		var (
			cid        int
			name, typ  string
			notNull    int
			defaultVal any
			pk         int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &defaultVal, &pk); err != nil {
			return nil, fmt.Errorf("scan table info: %w", err)
		}
		columns[name] = true
	}
	return columns, rows.Err()
}

// validateColumns checks every request field against the real schema and
// returns the field names in stable order.
func (r *Repository) validateColumns(ctx context.Context, table string, values map[string]any) ([]string, error) {
	known, err := r.adminColumns(ctx, table)
	if err != nil {
		return nil, err
	}
	cols := make([]string, 0, len(values))
	for col := range values {
		if !known[col] {
			return nil, fmt.Errorf("%w: %s.%s", core.ErrUnknownColumn, table, col)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols, nil
}

// BalanceRow is one line of the admin balance summary.
type BalanceRow struct {
	Month   string `json:"month"`
	Salary  string `json:"salary"`
	Balance string `json:"balance"`
}

// AdminBalanceSummary lists every recorded month newest first.
func (r *Repository) AdminBalanceSummary(ctx context.Context, householdID int64) ([]BalanceRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT month, salary, amount FROM monthly_balances
		 WHERE household_id = ? ORDER BY month DESC`, householdID)
	if err != nil {
		return nil, fmt.Errorf("query balance summary: %w", err)
	}
	defer rows.Close()

	var summary []BalanceRow
	for rows.Next() {
		var row BalanceRow
		if err := rows.Scan(&row.Month, &row.Salary, &row.Balance); err != nil {
			return nil, fmt.Errorf("scan balance summary: %w", err)
		}
		summary = append(summary, row)
	}
	return summary, rows.Err()
}

// AdminRows dumps a whitelisted table as raw rows. The expenses table is
// capped to the newest 500 rows to keep the editor usable.
func (r *Repository) AdminRows(ctx context.Context, table string) ([]map[string]any, error) {
	table, err := adminTable(table)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT * FROM %s", table)
	if table == "expenses" {
		query += " ORDER BY id DESC LIMIT 500"
	}
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns %s: %w", table, err)
	}

	var result []map[string]any
	for rows.Next() {
		values := make([]any, len(names))
		targets := make([]any, len(names))
		for i := range values {
			targets[i] = &values[i]
		}
		if err := rows.Scan(targets...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		row := make(map[string]any, len(names))
		for i, name := range names {
			if b, ok := values[i].([]byte); ok {
				row[name] = string(b)
			} else {
				row[name] = values[i]
			}
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// AdminInsert writes a raw row into a whitelisted table.
func (r *Repository) AdminInsert(ctx context.Context, table string, values map[string]any) (int64, error) {
	table, err := adminTable(table)
	if err != nil {
		return 0, err
	}
	cols, err := r.validateColumns(ctx, table, values)
	if err != nil {
		return 0, err
	}
	if len(cols) == 0 {
		return 0, fmt.Errorf("%w: no columns given", core.ErrUnknownColumn)
	}

	args := make([]any, 0, len(cols))
	for _, col := range cols {
		args = append(args, values[col])
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table,
		strings.Join(cols, ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", "))
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("insert into %s: %w", table, err)
	}
	return res.LastInsertId()
}

// AdminUpdate rewrites the given fields of one raw row.
func (r *Repository) AdminUpdate(ctx context.Context, table, id string, values map[string]any) error {
	table, err := adminTable(table)
	if err != nil {
		return err
	}
	cols, err := r.validateColumns(ctx, table, values)
	if err != nil {
		return err
	}
	if len(cols) == 0 {
		return fmt.Errorf("%w: no columns given", core.ErrUnknownColumn)
	}

	assignments := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols)+1)
	for _, col := range cols {
		assignments = append(assignments, col+" = ?")
		args = append(args, values[col])
	}
	args = append(args, id)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?",
		table, strings.Join(assignments, ", "), adminIDColumn(table))
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", table, err)
	}
	return requireRow(res)
}

// AdminDelete removes one raw row.
func (r *Repository) AdminDelete(ctx context.Context, table, id string) error {
	table, err := adminTable(table)
	if err != nil {
		return err
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", table, adminIDColumn(table))
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	return requireRow(res)
}
