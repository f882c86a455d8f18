package search

import (
	"context"
	"log"
	"strings"
)

// Service is the facade that tries Meilisearch first and falls back to PG FTS.
type Service struct {
	meili *Meili
	pgfts *PgFTS
}

// NewService creates a search service. meili may be nil if Meilisearch is not
// configured.
func NewService(meili *Meili, pgfts *PgFTS) *Service {
	return &Service{meili: meili, pgfts: pgfts}
}

// Search routes a query: empty text or the literal word "featured" serves the
// featured set, anything else is a ranked full-text search. Meilisearch is
// preferred when healthy.
func (s *Service) Search(q Query) Response {
	text := strings.TrimSpace(q.Text)
	if text == "" || strings.EqualFold(text, "featured") {
		return s.respond(q, func(backend Searcher) ([]Result, int, error) {
			return backend.Featured(q)
		})
	}
	return s.respond(q, func(backend Searcher) ([]Result, int, error) {
		return backend.Search(q)
	})
}

func (s *Service) respond(q Query, run func(Searcher) ([]Result, int, error)) Response {
	if s.meili != nil && s.meili.Healthy() {
		results, total, err := run(s.meili)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text}
		}
		log.Printf("search: meilisearch error, falling back to pgfts: %v", err)
	}

	results, total, err := run(s.pgfts)
	if err != nil {
		log.Printf("search: pgfts error: %v", err)
		return Response{Results: []Result{}, Total: 0, Query: q.Text}
	}
	return Response{Results: nonNil(results), Total: total, Query: q.Text}
}

// IndexArticle pushes one article into Meilisearch, fire-and-forget.
func (s *Service) IndexArticle(rec Record) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.IndexArticle(rec); err != nil {
			log.Printf("search: index article %s: %v", rec.Key, err)
		}
	}()
}

// RefreshView rebuilds the Postgres side of the index, fire-and-forget. It is
// called after every committed edit; a failed refresh only delays fallback
// freshness until the next edit.
func (s *Service) RefreshView() {
	if s.pgfts == nil {
		return
	}
	go func() {
		if err := s.pgfts.RefreshView(context.Background()); err != nil {
			log.Printf("search: %v", err)
		}
	}()
}

// ReindexAllFromPG loads every article from Postgres and bulk-pushes it into
// Meilisearch. Called at startup when Meilisearch is healthy.
func (s *Service) ReindexAllFromPG(ctx context.Context) {
	if s.meili == nil || !s.meili.Healthy() || s.pgfts == nil {
		return
	}
	records, err := s.pgfts.LoadAllRecords(ctx)
	if err != nil {
		log.Printf("search: reindex load failed: %v", err)
		return
	}
	if len(records) == 0 {
		return
	}
	if err := s.meili.IndexArticles(records); err != nil {
		log.Printf("search: reindex articles: %v", err)
	}
}

func nonNil(r []Result) []Result {
	if r == nil {
		return []Result{}
	}
	return r
}
