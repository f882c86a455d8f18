package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/armeny007/participedia-api/internal/reconcile"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// GetArticle loads the canonical record: identity columns, the latest
// localized text in the requested language, a bookmarked flag for the viewer
// (0 for anonymous), and every structured column of the type's rule table.
func (s *PostgresStore) GetArticle(ctx context.Context, articleType string, id int64, language string, viewerID int64) (Article, error) {
	table, err := articleTable(articleType)
	if err != nil {
		return Article{}, err
	}
	fields := reconcile.FieldsFor(articleType)

	cols := make([]string, 0, len(fields))
	for _, field := range fields {
		cols = append(cols, "a."+field.Name)
	}

	query := fmt.Sprintf(`
		SELECT a.id, a.updated_date,
			COALESCE(t.title, ''), COALESCE(t.body, ''), COALESCE(t.description, ''),
			EXISTS(SELECT 1 FROM bookmarks b WHERE b.user_id = $3 AND b.thingid = a.id),
			%s
		FROM %s a
		LEFT JOIN LATERAL (
			SELECT title, body, description
			FROM localized_texts
			WHERE thingid = a.id AND language = $2
			ORDER BY timestamp DESC
			LIMIT 1
		) t ON TRUE
		WHERE a.id = $1
	`, strings.Join(cols, ", "), table)

	article := Article{
		Type:   articleType,
		Fields: make(map[string]reconcile.Value, len(fields)),
	}
	dests := []any{
		&article.ID, &article.UpdatedDate,
		&article.Title, &article.Body, &article.Description,
		&article.Bookmarked,
	}
	fieldDests := make([]any, len(fields))
	for i, field := range fields {
		fieldDests[i] = scanDest(field)
		dests = append(dests, fieldDests[i])
	}

	err = s.db.QueryRowContext(ctx, query, id, language, viewerID).Scan(dests...)
	if errors.Is(err, sql.ErrNoRows) {
		return Article{}, ErrNotFound
	}
	if err != nil {
		return Article{}, fmt.Errorf("get %s %d: %w", articleType, id, err)
	}

	for i, field := range fields {
		value, err := valueFromDest(field, fieldDests[i])
		if err != nil {
			return Article{}, err
		}
		article.Fields[field.Name] = value
	}
	return article, nil
}

// CreateArticle inserts a bare row for the two-phase create flow. The first
// full update fills in text and fields; until then the row has only its
// identity, dates, and admin defaults.
func (s *PostgresStore) CreateArticle(ctx context.Context, articleType, originalLanguage string) (int64, error) {
	table, err := articleTable(articleType)
	if err != nil {
		return 0, err
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (original_language, post_date, updated_date, featured, hidden)
		VALUES ($1, NOW(), NOW(), false, false)
		RETURNING id
	`, table)
	var id int64
	if err := s.db.QueryRowContext(ctx, query, originalLanguage).Scan(&id); err != nil {
		return 0, fmt.Errorf("create %s: %w", articleType, err)
	}
	return id, nil
}

// CommitParams describes one accepted edit to write.
type CommitParams struct {
	Type        string
	ID          int64
	Assignments []reconcile.Assignment
	Text        *reconcile.TextRevision
	AuthorID    int64
}

// CommitUpdate applies one accepted edit in a single transaction: the text
// revision insert when the text changed, the full-row field update with the
// timestamp bump, and the attribution row. Either all three land or none do.
func (s *PostgresStore) CommitUpdate(ctx context.Context, p CommitParams) error {
	table, err := articleTable(p.Type)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if p.Text != nil {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO localized_texts (thingid, language, title, body, description, timestamp)
			VALUES ($1, $2, $3, $4, $5, NOW())
		`, p.Text.ThingID, p.Text.Language, p.Text.Title, p.Text.Body, p.Text.Description)
		if err != nil {
			return fmt.Errorf("insert localized text: %w", err)
		}
	}

	sets := make([]string, 0, len(p.Assignments)+1)
	sets = append(sets, "updated_date = NOW()")
	args := []any{p.ID}
	for _, assignment := range p.Assignments {
		arg, err := sqlArg(assignment.Field, assignment.Value)
		if err != nil {
			return err
		}
		args = append(args, arg)
		placeholder := "$" + strconv.Itoa(len(args))
		if isJSONCategory(assignment.Field.Category) {
			placeholder += "::jsonb"
		}
		sets = append(sets, assignment.Field.Name+" = "+placeholder)
	}

	update := fmt.Sprintf(`UPDATE %s SET %s WHERE id = $1`, table, strings.Join(sets, ", "))
	result, err := tx.ExecContext(ctx, update, args...)
	if err != nil {
		return fmt.Errorf("update %s %d: %w", p.Type, p.ID, err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return ErrNotFound
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO authors (user_id, thingid, timestamp)
		VALUES ($1, $2, NOW())
	`, p.AuthorID, p.ID)
	if err != nil {
		return fmt.Errorf("insert author: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update tx: %w", err)
	}
	return nil
}

// ListTitles returns id/title pairs for a type's pick list, latest text per
// row in the requested language.
func (s *PostgresStore) ListTitles(ctx context.Context, articleType, language string) ([]TitleRef, error) {
	table, err := articleTable(articleType)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
		SELECT a.id, t.title
		FROM %s a
		JOIN LATERAL (
			SELECT title
			FROM localized_texts
			WHERE thingid = a.id AND language = $1
			ORDER BY timestamp DESC
			LIMIT 1
		) t ON TRUE
		WHERE NOT a.hidden
		ORDER BY t.title
	`, table)

	rows, err := s.db.QueryContext(ctx, query, language)
	if err != nil {
		return nil, fmt.Errorf("list %s titles: %w", articleType, err)
	}
	defer rows.Close()

	var titles []TitleRef
	for rows.Next() {
		var ref TitleRef
		if err := rows.Scan(&ref.ID, &ref.Title); err != nil {
			return nil, fmt.Errorf("scan title: %w", err)
		}
		titles = append(titles, ref)
	}
	return titles, rows.Err()
}

// ListAuthors returns the attribution history for one article, newest first.
func (s *PostgresStore) ListAuthors(ctx context.Context, thingID int64) ([]Author, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.user_id, a.thingid, u.name, a.timestamp
		FROM authors a
		JOIN users u ON u.id = a.user_id
		WHERE a.thingid = $1
		ORDER BY a.timestamp DESC
	`, thingID)
	if err != nil {
		return nil, fmt.Errorf("list authors: %w", err)
	}
	defer rows.Close()

	var authors []Author
	for rows.Next() {
		var author Author
		if err := rows.Scan(&author.UserID, &author.ThingID, &author.Name, &author.Timestamp); err != nil {
			return nil, fmt.Errorf("scan author: %w", err)
		}
		authors = append(authors, author)
	}
	return authors, rows.Err()
}

// ListTextRevisions returns the localized text history for one article in one
// language, newest first.
func (s *PostgresStore) ListTextRevisions(ctx context.Context, thingID int64, language string) ([]LocalizedText, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT thingid, language, title, body, description, timestamp
		FROM localized_texts
		WHERE thingid = $1 AND language = $2
		ORDER BY timestamp DESC
	`, thingID, language)
	if err != nil {
		return nil, fmt.Errorf("list text revisions: %w", err)
	}
	defer rows.Close()

	var revisions []LocalizedText
	for rows.Next() {
		var text LocalizedText
		err := rows.Scan(&text.ThingID, &text.Language, &text.Title, &text.Body, &text.Description, &text.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("scan text revision: %w", err)
		}
		revisions = append(revisions, text)
	}
	return revisions, rows.Err()
}
