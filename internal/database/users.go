package database

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

const userColumns = "id, username, email, organization, role, created_at, last_login"

// InsertUser creates a user and returns its ID.
func (db *DB) InsertUser(ctx context.Context, u *User) (int64, error) {
	if u.Role == "" {
		u.Role = "user"
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (username, email, organization, role, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.Username, u.Email, u.Organization, u.Role, formatTime(u.CreatedAt),
	)
	if err != nil {
		return 0, err
	}
	u.ID, err = result.LastInsertId()
	return u.ID, err
}

// GetUser returns a user by ID, or nil if absent.
func (db *DB) GetUser(ctx context.Context, id int64) (*User, error) {
	row := db.conn.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
	return scanUser(row)
}

// GetUserByUsername returns a user by username, or nil if absent.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	row := db.conn.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE username = ?", username)
	return scanUser(row)
}

// ListUsers returns all users ordered by ID.
func (db *DB) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := db.conn.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// TouchUserLogin stamps last_login.
func (db *DB) TouchUserLogin(ctx context.Context, id int64, at time.Time) error {
	_, err := db.conn.ExecContext(ctx, "UPDATE users SET last_login = ? WHERE id = ?", formatTime(at), id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var (
		u            User
		organization sql.NullString
		createdAt    string
		lastLogin    sql.NullString
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &organization, &u.Role, &createdAt, &lastLogin); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	u.Organization = nullString(organization)
	u.CreatedAt = parseTime(createdAt)
	u.LastLogin = parseNullTime(lastLogin)
	return &u, nil
}
