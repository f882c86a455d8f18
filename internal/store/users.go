package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const userColumns = `id, email, name, password_hash, is_admin,
	COALESCE(bio, ''), COALESCE(picture_url, ''), COALESCE(location, ''),
	language, join_date, hidden`

func scanUser(row *sql.Row) (User, error) {
	var user User
	err := row.Scan(
		&user.ID, &user.Email, &user.Name, &user.PasswordHash, &user.IsAdmin,
		&user.Bio, &user.PictureURL, &user.Location,
		&user.Language, &user.JoinDate, &user.Hidden,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("scan user: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id int64) (User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, email)
	return scanUser(row)
}

// ErrEmailTaken is returned when a signup collides with an existing account.
var ErrEmailTaken = errors.New("email already registered")

func (s *PostgresStore) CreateUser(ctx context.Context, user User) (int64, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(email) = LOWER($1))`, user.Email,
	).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return 0, ErrEmailTaken
	}

	var id int64
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO users (email, name, password_hash, is_admin, language, join_date, hidden)
		VALUES ($1, $2, $3, false, $4, NOW(), false)
		RETURNING id
	`, user.Email, user.Name, user.PasswordHash, user.Language).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return id, nil
}

// UpdateUserProfile replaces the editable profile columns.
func (s *PostgresStore) UpdateUserProfile(ctx context.Context, user User) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET name = $2, bio = $3, picture_url = $4, location = $5, language = $6
		WHERE id = $1
	`, user.ID, user.Name, user.Bio, user.PictureURL, user.Location, user.Language)
	if err != nil {
		return fmt.Errorf("update user %d: %w", user.ID, err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return ErrNotFound
	}
	return nil
}

// AuthoredArticles lists the visible articles a user has contributed to,
// across all three content tables, newest edit first.
func (s *PostgresStore) AuthoredArticles(ctx context.Context, userID int64, language string) ([]ArticleSummary, error) {
	const query = `
		SELECT things.id, things.type, t.title
		FROM (
			SELECT id, 'case' AS type, hidden FROM cases
			UNION ALL
			SELECT id, 'method', hidden FROM methods
			UNION ALL
			SELECT id, 'organization', hidden FROM organizations
		) things
		JOIN LATERAL (
			SELECT title, timestamp AS latest
			FROM localized_texts
			WHERE thingid = things.id AND language = $2
			ORDER BY timestamp DESC
			LIMIT 1
		) t ON TRUE
		WHERE NOT things.hidden
			AND EXISTS(SELECT 1 FROM authors a WHERE a.thingid = things.id AND a.user_id = $1)
		ORDER BY t.latest DESC
	`
	return s.querySummaries(ctx, query, userID, language)
}

func (s *PostgresStore) querySummaries(ctx context.Context, query string, args ...any) ([]ArticleSummary, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	var summaries []ArticleSummary
	for rows.Next() {
		var summary ArticleSummary
		if err := rows.Scan(&summary.ID, &summary.Type, &summary.Title); err != nil {
			return nil, fmt.Errorf("scan article summary: %w", err)
		}
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}
