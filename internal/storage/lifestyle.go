package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"hearth/internal/core"
)

// ListBirthdays returns the household's dates ordered soonest-in-year
// first by stored date string.
func (r *Repository) ListBirthdays(ctx context.Context, householdID int64) ([]core.Birthday, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, household_id, name, date, type
		 FROM birthdays WHERE household_id = ? ORDER BY date ASC`, householdID)
	if err != nil {
		return nil, fmt.Errorf("query birthdays: %w", err)
	}
	defer rows.Close()

	var birthdays []core.Birthday
	for rows.Next() {
		var b core.Birthday
		if err := rows.Scan(&b.ID, &b.HouseholdID, &b.Name, &b.Date, &b.Type); err != nil {
			return nil, fmt.Errorf("scan birthday: %w", err)
		}
		birthdays = append(birthdays, b)
	}
	return birthdays, rows.Err()
}

func (r *Repository) CreateBirthday(ctx context.Context, b core.Birthday) (core.Birthday, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO birthdays (household_id, name, date, type) VALUES (?, ?, ?, ?)`,
		b.HouseholdID, b.Name, b.Date, b.Type)
	if err != nil {
		return core.Birthday{}, fmt.Errorf("create birthday: %w", err)
	}
	b.ID, err = res.LastInsertId()
	return b, err
}

func (r *Repository) UpdateBirthday(ctx context.Context, b core.Birthday) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE birthdays SET name = ?, date = ?, type = ? WHERE household_id = ? AND id = ?`,
		b.Name, b.Date, b.Type, b.HouseholdID, b.ID)
	if err != nil {
		return fmt.Errorf("update birthday: %w", err)
	}
	return requireRow(res)
}

func (r *Repository) DeleteBirthday(ctx context.Context, householdID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM birthdays WHERE household_id = ? AND id = ?`, householdID, id)
	if err != nil {
		return fmt.Errorf("delete birthday: %w", err)
	}
	return requireRow(res)
}

// ListMeals returns the meal library ordered by name.
func (r *Repository) ListMeals(ctx context.Context, householdID int64) ([]core.Meal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, household_id, name, description, tags, type
		 FROM meals WHERE household_id = ? ORDER BY name ASC`, householdID)
	if err != nil {
		return nil, fmt.Errorf("query meals: %w", err)
	}
	defer rows.Close()

	var meals []core.Meal
	for rows.Next() {
		var (
			m    core.Meal
			tags string
		)
		if err := rows.Scan(&m.ID, &m.HouseholdID, &m.Name, &m.Description, &tags, &m.Type); err != nil {
			return nil, fmt.Errorf("scan meal: %w", err)
		}
		m.Tags = parseLabelList(tags)
		meals = append(meals, m)
	}
	return meals, rows.Err()
}

func (r *Repository) CreateMeal(ctx context.Context, m core.Meal) (core.Meal, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO meals (household_id, name, description, tags, type) VALUES (?, ?, ?, ?, ?)`,
		m.HouseholdID, m.Name, m.Description, encodeStringList(m.Tags), m.Type)
	if err != nil {
		return core.Meal{}, fmt.Errorf("create meal: %w", err)
	}
	m.ID, err = res.LastInsertId()
	return m, err
}

func (r *Repository) UpdateMeal(ctx context.Context, m core.Meal) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE meals SET name = ?, description = ?, tags = ?, type = ?
		 WHERE household_id = ? AND id = ?`,
		m.Name, m.Description, encodeStringList(m.Tags), m.Type, m.HouseholdID, m.ID)
	if err != nil {
		return fmt.Errorf("update meal: %w", err)
	}
	return requireRow(res)
}

// DeleteMeal removes a library entry; its scheduled slots go with it via
// the meal_plan cascade.
func (r *Repository) DeleteMeal(ctx context.Context, householdID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM meals WHERE household_id = ? AND id = ?`, householdID, id)
	if err != nil {
		return fmt.Errorf("delete meal: %w", err)
	}
	return requireRow(res)
}

// MealPlanRange returns the scheduled slots between two dates inclusive,
// joined with their library entries.
func (r *Repository) MealPlanRange(ctx context.Context, householdID int64, start, end string) ([]core.PlannedMeal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT p.id, p.household_id, p.date, p.slot, p.meal_id, p.who,
		        COALESCE(m.name, ''), COALESCE(m.description, ''), COALESCE(m.tags, '[]'), COALESCE(m.type, '')
		 FROM meal_plan p
		 LEFT JOIN meals m ON m.id = p.meal_id
		 WHERE p.household_id = ? AND p.date BETWEEN ? AND ?
		 ORDER BY p.date, p.id`, householdID, start, end)
	if err != nil {
		return nil, fmt.Errorf("query meal plan: %w", err)
	}
	defer rows.Close()

	var plan []core.PlannedMeal
	for rows.Next() {
		var (
			p         core.PlannedMeal
			who, tags string
		)
		if err := rows.Scan(&p.ID, &p.HouseholdID, &p.Date, &p.Slot, &p.MealID, &who,
			&p.Name, &p.Description, &tags, &p.Type); err != nil {
			return nil, fmt.Errorf("scan planned meal: %w", err)
		}
		p.Who = parseLabelList(who)
		p.Tags = parseLabelList(tags)
		plan = append(plan, p)
	}
	return plan, rows.Err()
}

func (r *Repository) CreatePlannedMeal(ctx context.Context, p core.PlannedMeal) (core.PlannedMeal, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO meal_plan (household_id, date, slot, meal_id, who) VALUES (?, ?, ?, ?, ?)`,
		p.HouseholdID, p.Date, p.Slot, p.MealID, encodeStringList(p.Who))
	if err != nil {
		return core.PlannedMeal{}, fmt.Errorf("create planned meal: %w", err)
	}
	p.ID, err = res.LastInsertId()
	return p, err
}

func (r *Repository) DeletePlannedMeal(ctx context.Context, householdID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM meal_plan WHERE household_id = ? AND id = ?`, householdID, id)
	if err != nil {
		return fmt.Errorf("delete planned meal: %w", err)
	}
	return requireRow(res)
}

// ListGifts returns the household's gift list.
func (r *Repository) ListGifts(ctx context.Context, householdID int64) ([]core.ChristmasGift, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, household_id, recipient, item, amount, bought
		 FROM christmas_list WHERE household_id = ? ORDER BY id`, householdID)
	if err != nil {
		return nil, fmt.Errorf("query gifts: %w", err)
	}
	defer rows.Close()

	var gifts []core.ChristmasGift
	for rows.Next() {
		var (
			g      core.ChristmasGift
			amount string
		)
		if err := rows.Scan(&g.ID, &g.HouseholdID, &g.Recipient, &g.Item, &amount, &g.Bought); err != nil {
			return nil, fmt.Errorf("scan gift: %w", err)
		}
		if g.Amount, err = parseAmount(amount); err != nil {
			return nil, fmt.Errorf("parse gift amount: %w", err)
		}
		gifts = append(gifts, g)
	}
	return gifts, rows.Err()
}

func (r *Repository) CreateGift(ctx context.Context, g core.ChristmasGift) (core.ChristmasGift, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO christmas_list (household_id, recipient, item, amount, bought) VALUES (?, ?, ?, ?, 0)`,
		g.HouseholdID, g.Recipient, g.Item, g.Amount.String())
	if err != nil {
		return core.ChristmasGift{}, fmt.Errorf("create gift: %w", err)
	}
	g.ID, err = res.LastInsertId()
	g.Bought = false
	return g, err
}

func (r *Repository) UpdateGift(ctx context.Context, g core.ChristmasGift) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE christmas_list SET recipient = ?, item = ?, amount = ?
		 WHERE household_id = ? AND id = ?`,
		g.Recipient, g.Item, g.Amount.String(), g.HouseholdID, g.ID)
	if err != nil {
		return fmt.Errorf("update gift: %w", err)
	}
	return requireRow(res)
}

// SetGiftBought flips the bought marker to an explicit state.
func (r *Repository) SetGiftBought(ctx context.Context, householdID, id int64, bought bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE christmas_list SET bought = ? WHERE household_id = ? AND id = ?`,
		bought, householdID, id)
	if err != nil {
		return fmt.Errorf("set gift bought: %w", err)
	}
	return requireRow(res)
}

func (r *Repository) DeleteGift(ctx context.Context, householdID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM christmas_list WHERE household_id = ? AND id = ?`, householdID, id)
	if err != nil {
		return fmt.Errorf("delete gift: %w", err)
	}
	return requireRow(res)
}

// GetGift returns one gift row, or core.ErrNotFound.
func (r *Repository) GetGift(ctx context.Context, householdID, id int64) (core.ChristmasGift, error) {
	var (
		g      core.ChristmasGift
		amount string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, household_id, recipient, item, amount, bought
		 FROM christmas_list WHERE household_id = ? AND id = ?`, householdID, id).
		Scan(&g.ID, &g.HouseholdID, &g.Recipient, &g.Item, &amount, &g.Bought)
	if errors.Is(err, sql.ErrNoRows) {
		return g, core.ErrNotFound
	}
	if err != nil {
		return g, fmt.Errorf("get gift: %w", err)
	}
	g.Amount, err = parseAmount(amount)
	return g, err
}

// encodeStringList encodes a label list as a JSON array, nil as empty.
func encodeStringList(labels []string) string {
	if labels == nil {
		labels = []string{}
	}
	encoded, err := json.Marshal(labels)
	if err != nil {
		return "[]"
	}
	return string(encoded)
}
