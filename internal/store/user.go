package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/questpet/internal/model"
)

type UserStore struct {
	db DBTX
}

func NewUserStore(db DBTX) *UserStore {
	return &UserStore{db: db}
}

func scanUser(s scanner) (*model.User, error) {
	var u model.User
	err := s.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.Onboarded, &u.AccountUpdated, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

const userCols = `id, username, email, password_hash, role, onboarded, account_updated, created_at`

// Create inserts a user. Duplicate usernames or emails return ErrConflict.
func (s *UserStore) Create(username, email, passwordHash, role string, now time.Time) (*model.User, error) {
	if role == "" {
		role = model.RoleUser
	}
	result, err := s.db.Exec(
		`INSERT INTO users (username, email, password_hash, role, account_updated) VALUES (?, ?, ?, ?, ?)`,
		username, email, passwordHash, role, now.UTC(),
	)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("insert user: %w", ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *UserStore) GetByID(id int64) (*model.User, error) {
	return s.getOne(`SELECT `+userCols+` FROM users WHERE id = ?`, id)
}

func (s *UserStore) GetByUsername(username string) (*model.User, error) {
	return s.getOne(`SELECT `+userCols+` FROM users WHERE username = ?`, username)
}

func (s *UserStore) GetByEmail(email string) (*model.User, error) {
	return s.getOne(`SELECT `+userCols+` FROM users WHERE email = ?`, email)
}

func (s *UserStore) getOne(query string, arg any) (*model.User, error) {
	u, err := scanUser(s.db.QueryRow(query, arg))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *UserStore) SetOnboarded(id int64, onboarded bool) error {
	_, err := s.db.Exec(`UPDATE users SET onboarded = ? WHERE id = ?`, boolToInt(onboarded), id)
	if err != nil {
		return fmt.Errorf("set onboarded: %w", err)
	}
	return nil
}

func (s *UserStore) SetRole(id int64, role string) error {
	_, err := s.db.Exec(`UPDATE users SET role = ? WHERE id = ?`, role, id)
	if err != nil {
		return fmt.Errorf("set role: %w", err)
	}
	return nil
}

// TouchAccount records the end of a check-in so the next decay window
// starts there.
func (s *UserStore) TouchAccount(id int64, at time.Time) error {
	_, err := s.db.Exec(`UPDATE users SET account_updated = ? WHERE id = ?`, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("touch account: %w", err)
	}
	return nil
}

func (s *UserStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}
