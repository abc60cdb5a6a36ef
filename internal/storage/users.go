package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"hearth/internal/core"
)

// User is an authenticated account. A user sees ledger data only through
// household membership.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
}

// CreateUser inserts an account and a membership in the given household in
// one transaction.
func (r *Repository) CreateUser(ctx context.Context, username, passwordHash string, householdID int64, role string) (User, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return User{}, fmt.Errorf("begin create user: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO users (username, password_hash) VALUES (?, ?)`, username, passwordHash)
	if err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return User{}, err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO household_members (household_id, user_id, role) VALUES (?, ?, ?)`,
		householdID, id, role); err != nil {
		return User{}, fmt.Errorf("add membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return User{}, fmt.Errorf("commit create user: %w", err)
	}
	return User{ID: id, Username: username, PasswordHash: passwordHash}, nil
}

// GetUserByUsername returns an account by login name, or core.ErrNotFound.
func (r *Repository) GetUserByUsername(ctx context.Context, username string) (User, error) {
	var u User
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash FROM users WHERE username = ?`, username).
		Scan(&u.ID, &u.Username, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return u, core.ErrNotFound
	}
	if err != nil {
		return u, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// GetMemberRole returns the user's role inside a household, or
// core.ErrNotFound when the user is not a member.
func (r *Repository) GetMemberRole(ctx context.Context, householdID, userID int64) (string, error) {
	var role string
	err := r.db.QueryRowContext(ctx,
		`SELECT role FROM household_members WHERE household_id = ? AND user_id = ?`,
		householdID, userID).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", core.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get member role: %w", err)
	}
	return role, nil
}

// AddMember grants a user a role in a household, overwriting any existing
// membership row.
func (r *Repository) AddMember(ctx context.Context, householdID, userID int64, role string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO household_members (household_id, user_id, role) VALUES (?, ?, ?)
		 ON CONFLICT (household_id, user_id) DO UPDATE SET role = excluded.role`,
		householdID, userID, role)
	if err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	return nil
}

// HouseholdMembership pairs a household with the user's role in it.
type HouseholdMembership struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// ListUserHouseholds returns every household the user belongs to.
func (r *Repository) ListUserHouseholds(ctx context.Context, userID int64) ([]HouseholdMembership, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT h.id, h.name, m.role
		 FROM households h
		 JOIN household_members m ON m.household_id = h.id
		 WHERE m.user_id = ?
		 ORDER BY h.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query user households: %w", err)
	}
	defer rows.Close()

	var memberships []HouseholdMembership
	for rows.Next() {
		var m HouseholdMembership
		if err := rows.Scan(&m.ID, &m.Name, &m.Role); err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		memberships = append(memberships, m)
	}
	return memberships, rows.Err()
}

// ListHouseholdIDs returns every household id.
func (r *Repository) ListHouseholdIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM households ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query households: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan household id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CreateHousehold inserts a household and returns its id.
func (r *Repository) CreateHousehold(ctx context.Context, name string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO households (name) VALUES (?)`, name)
	if err != nil {
		return 0, fmt.Errorf("create household: %w", err)
	}
	return res.LastInsertId()
}
