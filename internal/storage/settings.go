package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"hearth/internal/core"
)

// Registry keys with typed accessors in core.Settings.
const (
	SettingCategories    = "categories"
	SettingPeople        = "people"
	SettingDefaultSalary = "default_salary"
	SettingPayDay        = "pay_day"
	SettingOllamaURL     = "ollama_url"
	SettingOllamaModel   = "ollama_model"
)

// GetSettings returns the household's raw key-value registry.
func (r *Repository) GetSettings(ctx context.Context, householdID int64) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT key, value FROM settings WHERE household_id = ?`, householdID)
	if err != nil {
		return nil, fmt.Errorf("query settings: %w", err)
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		settings[k] = v
	}
	return settings, rows.Err()
}

// SetSetting upserts one registry key.
func (r *Repository) SetSetting(ctx context.Context, householdID int64, key, value string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO settings (household_id, key, value) VALUES (?, ?, ?)
		 ON CONFLICT (household_id, key) DO UPDATE SET value = excluded.value`,
		householdID, key, value)
	if err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}
	return nil
}

// LoadSettings returns the typed view over the registry. Missing or
// malformed keys fall back to zero values rather than failing a request.
func (r *Repository) LoadSettings(ctx context.Context, householdID int64) (core.Settings, error) {
	raw, err := r.GetSettings(ctx, householdID)
	if err != nil {
		return core.Settings{}, err
	}

	s := core.Settings{Raw: raw}
	s.Categories = parseLabelList(raw[SettingCategories])
	s.People = parseLabelList(raw[SettingPeople])
	if v, err := decimal.NewFromString(raw[SettingDefaultSalary]); err == nil {
		s.DefaultSalary = v
	}
	if v, err := strconv.Atoi(raw[SettingPayDay]); err == nil {
		s.PayDay = v
	}
	s.OllamaURL = raw[SettingOllamaURL]
	s.OllamaModel = raw[SettingOllamaModel]
	return s, nil
}

// RenameInRegistry replaces oldLabel with newLabel inside the JSON label
// list stored under the registry kind. A registry without the old label is
// left untouched; the caller decides whether history rows still move.
// Returns true when the registry changed.
func (r *Repository) RenameInRegistry(ctx context.Context, householdID int64, kind, oldLabel, newLabel string) (bool, error) {
	if _, err := core.LabelColumn(kind); err != nil {
		return false, err
	}

	raw, err := r.GetSettings(ctx, householdID)
	if err != nil {
		return false, err
	}

	labels := parseLabelList(raw[kind])
	changed := false
	for i, l := range labels {
		if l == oldLabel {
			labels[i] = newLabel
			changed = true
		}
	}
	if !changed {
		return false, nil
	}

	encoded, err := json.Marshal(labels)
	if err != nil {
		return false, fmt.Errorf("encode %s registry: %w", kind, err)
	}
	return true, r.SetSetting(ctx, householdID, kind, string(encoded))
}

// RenameLabelRows rewrites historical expense and template rows carrying
// the old label. The column comes from core.LabelColumn, never from caller
// input. Returns the number of expense rows rewritten.
func (r *Repository) RenameLabelRows(ctx context.Context, householdID int64, kind, oldLabel, newLabel string) (int64, error) {
	column, err := core.LabelColumn(kind)
	if err != nil {
		return 0, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin rename rows: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		fmt.Sprintf(`UPDATE expenses SET %s = ? WHERE household_id = ? AND %s = ?`, column, column),
		newLabel, householdID, oldLabel)
	if err != nil {
		return 0, fmt.Errorf("rename expense rows: %w", err)
	}
	renamed, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf(`UPDATE expense_templates SET %s = ? WHERE household_id = ? AND %s = ?`, column, column),
		newLabel, householdID, oldLabel); err != nil {
		return 0, fmt.Errorf("rename template rows: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit rename rows: %w", err)
	}
	return renamed, nil
}

// parseLabelList decodes a JSON string array, tolerating empty and invalid
// values as an empty list.
func parseLabelList(raw string) []string {
	if raw == "" {
		return []string{}
	}
	var labels []string
	if err := json.Unmarshal([]byte(raw), &labels); err != nil {
		return []string{}
	}
	return labels
}
