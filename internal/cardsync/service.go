// Package cardsync keeps the local card store in step with Scryfall and
// implements the rating operations the API and CLI expose.
package cardsync

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ramonehamilton/commander-rater/internal/logging"
	"github.com/ramonehamilton/commander-rater/internal/metrics"
	"github.com/ramonehamilton/commander-rater/internal/scryfall"
	"github.com/ramonehamilton/commander-rater/internal/storage/models"
	"github.com/ramonehamilton/commander-rater/internal/storage/repository"
)

// Fetcher retrieves every card matching a search URL.
type Fetcher interface {
	SearchURL(query, order string) string
	FetchAll(ctx context.Context, startURL string) ([]scryfall.Card, error)
}

// Provisioner creates the card schema when it is missing.
type Provisioner interface {
	Provision(ctx context.Context) error
}

// Result is the outcome of a mutating operation.
// Err holds the cause of a failure for callers that map it to a status code.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// SyncResult is the outcome of SyncCommanderCards.
type SyncResult struct {
	Success bool      `json:"success"`
	Message string    `json:"message"`
	Stats   SyncStats `json:"stats"`
	Err     error     `json:"-"`
}

// ImportResult is the outcome of ImportRatings.
type ImportResult struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Imported int    `json:"imported"`
	Errors   int    `json:"errors"`
}

// Service coordinates fetching, reconciliation and the rating operations.
type Service struct {
	fetcher     Fetcher
	repo        repository.CardRepository
	provisioner Provisioner
	reconciler  *Reconciler
	metrics     *metrics.SyncMetrics
	logger      zerolog.Logger

	query string
	order string
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithQuery overrides the Scryfall search predicate and ordering.
func WithQuery(query, order string) ServiceOption {
	return func(s *Service) {
		if query != "" {
			s.query = query
		}
		if order != "" {
			s.order = order
		}
	}
}

// WithServiceMetrics records run and per-card outcomes.
func WithServiceMetrics(m *metrics.SyncMetrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// NewService creates a Service. provisioner may be nil when the schema is managed elsewhere.
func NewService(fetcher Fetcher, repo repository.CardRepository, provisioner Provisioner, opts ...ServiceOption) *Service {
	s := &Service{
		fetcher:     fetcher,
		repo:        repo,
		provisioner: provisioner,
		logger:      logging.NewLogger("cardsync"),
		query:       scryfall.CommanderQuery,
		order:       scryfall.OrderReleased,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.reconciler = NewReconciler(repo, s.metrics)
	return s
}

// InitializeDatabase probes the cards table and provisions the schema when the probe fails.
func (s *Service) InitializeDatabase(ctx context.Context) Result {
	probeErr := s.repo.Probe(ctx)
	if probeErr == nil {
		return Result{Success: true, Message: "Database already initialized"}
	}
	s.logger.Info().Err(probeErr).Msg("Database not initialized, running migrations")

	if s.provisioner == nil {
		return Result{Success: false, Message: "Failed to initialize database: no migration runner configured", Err: probeErr}
	}

	if err := s.provisioner.Provision(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Failed to run migrations")
		return Result{Success: false, Message: fmt.Sprintf("Failed to initialize database: %v", err), Err: err}
	}

	if err := s.repo.Probe(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Cards table unreadable after migrations")
		return Result{Success: false, Message: fmt.Sprintf("Failed to initialize database: %v", err), Err: err}
	}

	s.logger.Info().Msg("Database initialized")
	return Result{Success: true, Message: "Database initialized successfully"}
}

// SyncCommanderCards downloads every commander-legal paper card and merges it
// into the store. hook may be nil. Fetch failures abort the run before any
// write; per-card write failures are skipped and counted in Stats.Failed.
// A run whose context ends before every card was reconciled fails with the
// context error in Err; cards already written stay written.
func (s *Service) SyncCommanderCards(ctx context.Context, hook ProgressFunc) SyncResult {
	start := time.Now()
	searchURL := s.fetcher.SearchURL(s.query, s.order)

	s.logger.Info().Str("url", searchURL).Msg("Starting commander card sync")

	cards, err := s.fetcher.FetchAll(ctx, searchURL)
	if err != nil {
		s.metrics.ObserveRun(metrics.ResultFailure, time.Since(start))
		s.logger.Error().Err(err).Msg("Card download failed")
		return SyncResult{Success: false, Message: fmt.Sprintf("Failed to download cards: %v", err), Err: err}
	}

	s.logger.Info().Int("cards", len(cards)).Msg("Download complete, updating database")

	stats := s.reconciler.Reconcile(ctx, cards, hook)

	if processed := stats.Total + stats.Failed; processed < len(cards) {
		err := ctx.Err()
		if err == nil {
			err = context.Canceled
		}
		s.metrics.ObserveRun(metrics.ResultFailure, time.Since(start))
		s.logger.Warn().Err(err).Int("processed", processed).Int("total", len(cards)).Msg("Sync interrupted")
		return SyncResult{
			Success: false,
			Message: fmt.Sprintf("Sync interrupted after %d of %d cards: %v", processed, len(cards), err),
			Stats:   stats,
			Err:     err,
		}
	}

	s.metrics.ObserveRun(metrics.ResultSuccess, time.Since(start))

	message := fmt.Sprintf("Sync completed! Added %d new cards, updated %d existing cards. Total: %d cards processed.",
		stats.Added, stats.Updated, stats.Total)
	if stats.Failed > 0 {
		message += fmt.Sprintf(" Failed: %d.", stats.Failed)
	}

	s.logger.Info().
		Int("added", stats.Added).
		Int("updated", stats.Updated).
		Int("failed", stats.Failed).
		Dur("duration", time.Since(start)).
		Msg("Sync completed")

	return SyncResult{Success: true, Message: message, Stats: stats}
}

// ValidateRateRequest checks a rating request without touching the store.
func ValidateRateRequest(id string, rating *models.Rating) error {
	if id == "" {
		return &ValidationError{Field: "card id", Reason: "required"}
	}
	if rating != nil && !rating.Valid() {
		return &ValidationError{Field: "rating", Reason: fmt.Sprintf("%q is not interesting or not_interesting", *rating)}
	}
	return nil
}

// RateCard sets or clears (rating == nil) one card's interest rating.
func (s *Service) RateCard(ctx context.Context, id string, rating *models.Rating) Result {
	if err := ValidateRateRequest(id, rating); err != nil {
		return Result{Success: false, Message: err.Error(), Err: err}
	}

	label := "unrated"
	if rating != nil {
		label = string(*rating)
	}

	found, err := s.repo.SetRating(ctx, id, rating)
	if err != nil {
		s.logger.Error().Err(err).Str("card_id", id).Msg("Failed to rate card")
		return Result{Success: false, Message: "Failed to rate card", Err: err}
	}
	if !found {
		return Result{Success: false, Message: fmt.Sprintf("Card %s not found", id), Err: repository.ErrCardNotFound}
	}

	s.logger.Debug().Str("card_id", id).Str("rating", label).Msg("Card rated")
	return Result{Success: true, Message: "Card marked as " + label}
}

// GetRandomCard returns a random commander card matching filter, or nil when none match.
func (s *Service) GetRandomCard(ctx context.Context, filter models.RatingFilter) (*models.Card, error) {
	if !filter.Valid() {
		return nil, &ValidationError{Field: "rating", Reason: fmt.Sprintf("unknown filter %q", filter)}
	}
	return s.repo.RandomCard(ctx, filter)
}

// GetCardStats counts commander cards by rating.
func (s *Service) GetCardStats(ctx context.Context) (*models.CardStats, error) {
	return s.repo.Stats(ctx)
}

// GetCardsByRating lists commander cards with rating, ordered by name.
func (s *Service) GetCardsByRating(ctx context.Context, rating models.Rating) ([]*models.Card, error) {
	if !rating.Valid() {
		return nil, &ValidationError{Field: "rating", Reason: `must be "interesting" or "not_interesting"`}
	}
	return s.repo.ListByRating(ctx, rating)
}

// CountCards returns the number of stored commander cards.
func (s *Service) CountCards(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// ClearAllCards deletes every stored card, ratings included.
func (s *Service) ClearAllCards(ctx context.Context) Result {
	deleted, err := s.repo.DeleteAll(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to clear database")
		return Result{Success: false, Message: "Failed to clear database", Err: err}
	}

	s.logger.Info().Int64("deleted", deleted).Msg("Database cleared")
	return Result{Success: true, Message: "Database cleared successfully. All cards have been removed."}
}

// ClearAllRatings unsets every rating and keeps the cards.
func (s *Service) ClearAllRatings(ctx context.Context) Result {
	cleared, err := s.repo.ClearRatings(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to clear ratings")
		return Result{Success: false, Message: "Failed to clear progress", Err: err}
	}

	s.logger.Info().Int64("cleared", cleared).Msg("Ratings cleared")
	return Result{Success: true, Message: "Progress cleared successfully. All card ratings have been removed."}
}

// ExportRatings returns the Scryfall id and rating of every rated card.
func (s *Service) ExportRatings(ctx context.Context) ([]models.RatingRecord, error) {
	return s.repo.ListRatings(ctx)
}

// ImportRatings applies previously exported ratings to cards already in the store.
// It never inserts: records with a missing id, an invalid rating, an id that is
// not stored, or a failed write are counted in Errors and skipped.
func (s *Service) ImportRatings(ctx context.Context, records []models.RatingRecord) ImportResult {
	var imported, errs int

	for _, rec := range records {
		if rec.ExternalID == "" || !rec.Rating.Valid() {
			errs++
			continue
		}

		rating := rec.Rating
		found, err := s.repo.SetRating(ctx, rec.ExternalID, &rating)
		if err != nil {
			s.logger.Error().Err(err).Str("card_id", rec.ExternalID).Msg("Failed to import rating")
			errs++
			continue
		}
		if !found {
			errs++
			continue
		}
		imported++
	}

	message := fmt.Sprintf("Import completed. Updated: %d", imported)
	if errs > 0 {
		message += fmt.Sprintf(", Errors/Skipped: %d", errs)
	}

	s.logger.Info().Int("imported", imported).Int("errors", errs).Msg("Ratings imported")
	return ImportResult{Success: true, Message: message, Imported: imported, Errors: errs}
}
