package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/meltforce/ironlog/internal/models"
)

// GetOrCreateUser finds or creates a user by login name. Updates
// last_seen and display_name on each call.
func (d *DB) GetOrCreateUser(ctx context.Context, login, displayName string) (models.User, error) {
	now := encodeTime(time.Now())
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO users (login, display_name, created_at, last_seen)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (login) DO UPDATE
			SET last_seen = excluded.last_seen,
			    display_name = CASE WHEN excluded.display_name != ''
			                        THEN excluded.display_name
			                        ELSE users.display_name END
	`, login, displayName, now, now)
	if err != nil {
		return models.User{}, fmt.Errorf("upserting user: %w", err)
	}

	var (
		u       models.User
		created string
	)
	err = d.db.QueryRowContext(ctx,
		`SELECT id, login, display_name, created_at FROM users WHERE login = ?`,
		login).Scan(&u.ID, &u.Login, &u.DisplayName, &created)
	if err != nil {
		return models.User{}, fmt.Errorf("reading user: %w", err)
	}
	if u.CreatedAt, err = decodeTime(created); err != nil {
		return models.User{}, fmt.Errorf("parsing created_at: %w", err)
	}
	return u, nil
}
