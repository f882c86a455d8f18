package store

import (
	"context"
	"fmt"
)

// AddBookmark records a bookmark; re-bookmarking is a no-op.
func (s *PostgresStore) AddBookmark(ctx context.Context, userID, thingID int64, articleType string) error {
	if _, err := articleTable(articleType); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bookmarks (user_id, thingid, type)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, thingid) DO NOTHING
	`, userID, thingID, articleType)
	if err != nil {
		return fmt.Errorf("add bookmark: %w", err)
	}
	return nil
}

func (s *PostgresStore) RemoveBookmark(ctx context.Context, userID, thingID int64) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM bookmarks WHERE user_id = $1 AND thingid = $2
	`, userID, thingID)
	if err != nil {
		return fmt.Errorf("remove bookmark: %w", err)
	}
	return nil
}

// BookmarkedArticles lists a user's visible bookmarks, newest bookmark first.
func (s *PostgresStore) BookmarkedArticles(ctx context.Context, userID int64, language string) ([]ArticleSummary, error) {
	const query = `
		SELECT b.thingid, b.type, t.title
		FROM bookmarks b
		JOIN (
			SELECT id, 'case' AS type, hidden FROM cases
			UNION ALL
			SELECT id, 'method', hidden FROM methods
			UNION ALL
			SELECT id, 'organization', hidden FROM organizations
		) things ON things.id = b.thingid AND things.type = b.type
		JOIN LATERAL (
			SELECT title
			FROM localized_texts
			WHERE thingid = b.thingid AND language = $2
			ORDER BY timestamp DESC
			LIMIT 1
		) t ON TRUE
		WHERE b.user_id = $1 AND NOT things.hidden
		ORDER BY b.created_at DESC
	`
	return s.querySummaries(ctx, query, userID, language)
}
