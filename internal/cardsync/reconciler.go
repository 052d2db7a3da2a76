package cardsync

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/ramonehamilton/commander-rater/internal/logging"
	"github.com/ramonehamilton/commander-rater/internal/metrics"
	"github.com/ramonehamilton/commander-rater/internal/scryfall"
	"github.com/ramonehamilton/commander-rater/internal/storage/repository"
)

// SyncStats counts the outcome of one reconciliation.
// Total is Added + Updated; records that failed to persist are counted only in Failed.
type SyncStats struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
	Total   int `json:"total"`
	Failed  int `json:"failed"`
}

// Progress is reported after each successfully persisted card.
type Progress struct {
	Processed     int    `json:"processed"`
	TotalExpected int    `json:"total"`
	CurrentCard   string `json:"currentCard,omitempty"`
}

// ProgressFunc receives sync progress. It is called synchronously on the sync goroutine.
type ProgressFunc func(Progress)

// Reconciler merges fetched cards into the store one at a time.
type Reconciler struct {
	repo    repository.CardRepository
	metrics *metrics.SyncMetrics
	logger  zerolog.Logger
	now     func() time.Time
}

// NewReconciler creates a reconciler writing to repo. m may be nil.
func NewReconciler(repo repository.CardRepository, m *metrics.SyncMetrics) *Reconciler {
	return &Reconciler{
		repo:    repo,
		metrics: m,
		logger:  logging.NewLogger("reconciler"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Reconcile inserts unseen cards and overwrites known ones, in input order.
// Existing ratings and creation times are never touched. A card that fails to
// persist is logged and skipped; the run continues with the next card.
func (r *Reconciler) Reconcile(ctx context.Context, cards []scryfall.Card, hook ProgressFunc) SyncStats {
	var stats SyncStats

	for i := range cards {
		if err := ctx.Err(); err != nil {
			r.logger.Warn().Err(err).Int("remaining", len(cards)-i).Msg("Reconciliation cancelled")
			break
		}

		added, err := r.upsert(ctx, cards[i])
		if err != nil {
			stats.Failed++
			r.metrics.ObserveCard(metrics.OutcomeFailed)
			r.logger.Error().Err(err).Str("card_id", cards[i].ID).Str("card", cards[i].Name).Msg("Skipping card")
			continue
		}

		if added {
			stats.Added++
			r.metrics.ObserveCard(metrics.OutcomeAdded)
		} else {
			stats.Updated++
			r.metrics.ObserveCard(metrics.OutcomeUpdated)
		}
		stats.Total++

		r.notify(hook, Progress{
			Processed:     stats.Total,
			TotalExpected: len(cards),
			CurrentCard:   cards[i].Name,
		})
	}

	return stats
}

// upsert writes one card and reports whether it was newly inserted.
func (r *Reconciler) upsert(ctx context.Context, src scryfall.Card) (bool, error) {
	card := TranslateCard(src, r.now())

	existing, err := r.repo.GetByID(ctx, card.ID)
	if err != nil {
		return false, &PersistenceError{CardID: card.ID, Op: "lookup", Err: err}
	}

	if existing == nil {
		if err := r.repo.Insert(ctx, card); err != nil {
			return false, &PersistenceError{CardID: card.ID, Op: "insert", Err: err}
		}
		return true, nil
	}

	card.CreatedAt = existing.CreatedAt
	card.InterestRating = existing.InterestRating
	if err := r.repo.Update(ctx, card); err != nil {
		return false, &PersistenceError{CardID: card.ID, Op: "update", Err: err}
	}
	return false, nil
}

// notify calls hook, recovering from a panic so a broken listener cannot stop the sync.
func (r *Reconciler) notify(hook ProgressFunc, p Progress) {
	if hook == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Warn().Interface("panic", rec).Int("processed", p.Processed).Msg("Progress hook panicked")
		}
	}()
	hook(p)
}
