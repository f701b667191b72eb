package user

import (
	"context"
	"database/sql"
	"fmt"
)

// Repository is a database-backed repository for user accounts.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user and returns it with the assigned id.
func (r *Repository) Create(ctx context.Context, email, name, passwordHash string) (*User, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (email, name, password_hash) VALUES (?, ?, ?)`,
		email, name, passwordHash,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read inserted user id: %w", err)
	}

	return r.GetByID(ctx, id)
}

const userColumns = `id, email, name, password_hash, verified, telegram_chat_id, diet_id, cost_id, difficulty_id, created_at`

func (r *Repository) scanUser(row *sql.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Verified,
		&u.TelegramChatID, &u.DietID, &u.CostID, &u.DifficultyID, &u.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // User not found
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &u, nil
}

// GetByID retrieves a user by id. Returns (nil, nil) when absent.
func (r *Repository) GetByID(ctx context.Context, id int64) (*User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return r.scanUser(row)
}

// GetByEmail retrieves a user by email. Returns (nil, nil) when absent.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return r.scanUser(row)
}

// SetVerified marks a user's email as verified.
func (r *Repository) SetVerified(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET verified = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to mark user verified: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetTelegramChatID links (or with nil, unlinks) a Telegram chat to a user.
func (r *Repository) SetTelegramChatID(ctx context.Context, id int64, chatID *int64) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE users SET telegram_chat_id = ? WHERE id = ?`, chatID, id); err != nil {
		return fmt.Errorf("failed to set telegram chat id: %w", err)
	}
	return nil
}

// UpdatePreferences replaces the user's dietary profile and allergy set in one
// transaction.
func (r *Repository) UpdatePreferences(ctx context.Context, id int64, prefs Preferences) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`UPDATE users SET diet_id = ?, cost_id = ?, difficulty_id = ? WHERE id = ?`,
		prefs.DietID, prefs.CostID, prefs.DifficultyID, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update preferences: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM user_allergies WHERE user_id = ?`, id); err != nil {
		return fmt.Errorf("failed to clear user allergies: %w", err)
	}
	for _, allergyID := range prefs.AllergyIDs {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO user_allergies (user_id, allergy_id) VALUES (?, ?)`, id, allergyID)
		if err != nil {
			return fmt.Errorf("failed to insert user allergy %d: %w", allergyID, err)
		}
	}

	return tx.Commit()
}

// GetPreferences assembles the user's current preference profile.
func (r *Repository) GetPreferences(ctx context.Context, id int64) (*Preferences, error) {
	u, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `SELECT allergy_id FROM user_allergies WHERE user_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query user allergies: %w", err)
	}
	defer rows.Close()

	prefs := Preferences{DietID: u.DietID, CostID: u.CostID, DifficultyID: u.DifficultyID}
	for rows.Next() {
		var allergyID int64
		if err := rows.Scan(&allergyID); err != nil {
			return nil, fmt.Errorf("failed to scan allergy id: %w", err)
		}
		prefs.AllergyIDs = append(prefs.AllergyIDs, allergyID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating allergy rows: %w", err)
	}

	return &prefs, nil
}

// VerifiedIDs returns the ids of all verified users, for the weekly rollover.
func (r *Repository) VerifiedIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM users WHERE verified = 1 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query verified users: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}
	return ids, nil
}
