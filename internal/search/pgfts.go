package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PgFTS implements Searcher using PostgreSQL full-text search over the
// search_index_en materialized view. It is the fallback when Meilisearch is
// unavailable, and it feeds full reindexes.
type PgFTS struct {
	db *sql.DB
}

// NewPgFTS creates a PostgreSQL FTS searcher.
func NewPgFTS(db *sql.DB) *PgFTS {
	return &PgFTS{db: db}
}

// Healthy always returns true — if Postgres is down, the whole app is down.
func (p *PgFTS) Healthy() bool {
	return true
}

func pgWhere(q Query, withQuery bool, args *[]any) string {
	var clauses []string
	if withQuery {
		clauses = append(clauses, "fts @@ plainto_tsquery('english', $1)")
	}
	if !q.ShowHidden {
		clauses = append(clauses, "NOT hidden")
	}
	if q.FilterType != "" {
		*args = append(*args, q.FilterType)
		clauses = append(clauses, fmt.Sprintf("type = $%d", len(*args)))
	}
	if len(clauses) == 0 {
		return "TRUE"
	}
	return strings.Join(clauses, " AND ")
}

// Search runs a ranked full-text query with ts_headline snippets.
func (p *PgFTS) Search(q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	args := []any{q.Text}
	where := pgWhere(q, true, &args)

	countSQL := "SELECT count(*) FROM search_index_en WHERE " + where
	dataSQL := fmt.Sprintf(`
		SELECT id, type, title,
			ts_headline('english', coalesce(description, ''), plainto_tsquery('english', $1), 'MaxFragments=1,MaxWords=30') AS snippet,
			coalesce(location_name, ''), coalesce(photo_url, ''), featured
		FROM search_index_en
		WHERE %s
		ORDER BY ts_rank(fts, plainto_tsquery('english', $1)) DESC
		LIMIT %d OFFSET %d`, where, limit, offset)

	ctx := context.Background()

	var total int
	if err := p.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgfts count: %w", err)
	}

	rows, err := p.db.QueryContext(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgfts query: %w", err)
	}
	defer rows.Close()

	results, err := scanResults(rows)
	if err != nil {
		return nil, 0, err
	}
	return results, total, rows.Err()
}

// Featured returns featured articles by recency.
func (p *PgFTS) Featured(q Query) ([]Result, int, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	var args []any
	where := pgWhere(q, false, &args) + " AND featured"

	countSQL := "SELECT count(*) FROM search_index_en WHERE " + where
	dataSQL := fmt.Sprintf(`
		SELECT id, type, title, coalesce(description, ''),
			coalesce(location_name, ''), coalesce(photo_url, ''), featured
		FROM search_index_en
		WHERE %s
		ORDER BY updated_date DESC
		LIMIT %d OFFSET %d`, where, limit, offset)

	ctx := context.Background()

	var total int
	if err := p.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgfts featured count: %w", err)
	}

	rows, err := p.db.QueryContext(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgfts featured query: %w", err)
	}
	defer rows.Close()

	results, err := scanResults(rows)
	if err != nil {
		return nil, 0, err
	}
	return results, total, rows.Err()
}

func scanResults(rows *sql.Rows) ([]Result, error) {
	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.ID, &r.Type, &r.Title, &r.Snippet, &r.LocationName, &r.PhotoURL, &r.Featured); err != nil {
			return nil, fmt.Errorf("pgfts scan: %w", err)
		}
		results = append(results, r)
	}
	return results, nil
}

// RefreshView rebuilds the materialized view after an edit. CONCURRENTLY so
// readers are never blocked.
func (p *PgFTS) RefreshView(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, `REFRESH MATERIALIZED VIEW CONCURRENTLY search_index_en`); err != nil {
		return fmt.Errorf("refresh search index: %w", err)
	}
	return nil
}

// LoadAllRecords returns every indexed article for full reindexing.
func (p *PgFTS) LoadAllRecords(ctx context.Context) ([]Record, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, type, coalesce(title, ''), coalesce(description, ''), coalesce(body, ''),
			coalesce(location_name, ''), coalesce(photo_url, ''), featured, hidden, updated_date
		FROM search_index_en
	`)
	if err != nil {
		return nil, fmt.Errorf("load search records: %w", err)
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		var rec Record
		err := rows.Scan(&rec.ID, &rec.Type, &rec.Title, &rec.Description, &rec.Body,
			&rec.LocationName, &rec.PhotoURL, &rec.Featured, &rec.Hidden, &rec.UpdatedDate)
		if err != nil {
			return nil, fmt.Errorf("scan search record: %w", err)
		}
		rec.Key = RecordKey(rec.Type, rec.ID)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search records: %w", err)
	}
	return records, nil
}
