package search

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

const indexTimeout = 10 * time.Second

// Service is the facade that tries Meilisearch first and falls back to PG FTS.
type Service struct {
	meili *Meili
	pgfts *PgFTS
	log   zerolog.Logger
}

// NewService creates a search service. meili may be nil if Meilisearch is not configured.
func NewService(meili *Meili, pgfts *PgFTS, log zerolog.Logger) *Service {
	return &Service{meili: meili, pgfts: pgfts, log: log.With().Str("component", "search").Logger()}
}

func (s *Service) meiliReady() bool {
	return s != nil && s.meili != nil && s.meili.Healthy()
}

// Search tries Meilisearch if healthy, otherwise falls back to PG FTS.
func (s *Service) Search(ctx context.Context, q Query) Response {
	if s.meiliReady() {
		results, total, err := s.meili.Search(ctx, q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text}
		}
		s.log.Warn().Err(err).Msg("meilisearch error, falling back to pgfts")
	}

	if s == nil || s.pgfts == nil {
		return Response{Results: []Result{}, Total: 0, Query: q.Text}
	}
	results, total, err := s.pgfts.Search(ctx, q)
	if err != nil {
		s.log.Error().Err(err).Msg("pgfts search failed")
		return Response{Results: []Result{}, Total: 0, Query: q.Text}
	}
	return Response{Results: nonNil(results), Total: total, Query: q.Text}
}

func (s *Service) async(op, id string, fn func(ctx context.Context) error) {
	if !s.meiliReady() {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), indexTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			s.log.Warn().Err(err).Str("op", op).Str("id", id).Msg("search index update failed")
		}
	}()
}

// IndexNote indexes a note (fire-and-forget to Meilisearch).
func (s *Service) IndexNote(n NoteRecord) {
	s.async("index_note", n.ID, func(ctx context.Context) error { return s.meili.IndexNotes(ctx, []NoteRecord{n}) })
}

// DeleteNote removes a note from the search index (fire-and-forget).
func (s *Service) DeleteNote(id string) {
	s.async("delete_note", id, func(ctx context.Context) error { return s.meili.Delete(ctx, idxNotes, id) })
}

func (s *Service) IndexSharedNote(n SharedNoteRecord) {
	s.async("index_shared_note", n.ID, func(ctx context.Context) error { return s.meili.IndexSharedNotes(ctx, []SharedNoteRecord{n}) })
}

func (s *Service) DeleteSharedNote(id string) {
	s.async("delete_shared_note", id, func(ctx context.Context) error { return s.meili.Delete(ctx, idxSharedNotes, id) })
}

// ReindexAllFromPG pushes every searchable row from PostgreSQL into Meilisearch.
func (s *Service) ReindexAllFromPG(ctx context.Context) {
	if !s.meiliReady() || s.pgfts == nil {
		return
	}
	notes, shared, err := s.pgfts.LoadAllRecords(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("reindex load failed")
		return
	}
	if err := s.meili.IndexNotes(ctx, notes); err != nil {
		s.log.Error().Err(err).Msg("reindex notes")
	}
	if err := s.meili.IndexSharedNotes(ctx, shared); err != nil {
		s.log.Error().Err(err).Msg("reindex shared notes")
	}
	s.log.Info().Int("notes", len(notes)).Int("shared_notes", len(shared)).Msg("search reindex complete")
}

func nonNil(r []Result) []Result {
	if r == nil {
		return []Result{}
	}
	return r
}
