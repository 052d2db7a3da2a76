package cardsync

import (
	"context"
	"errors"
	"testing"

	"github.com/ramonehamilton/commander-rater/internal/scryfall"
	"github.com/ramonehamilton/commander-rater/internal/storage"
	"github.com/ramonehamilton/commander-rater/internal/storage/models"
	"github.com/ramonehamilton/commander-rater/internal/storage/repository"
)

var errInjected = errors.New("injected failure")

// stubFetcher returns a fixed result for any URL.
type stubFetcher struct {
	cards []scryfall.Card
	err   error
	urls  []string
}

func (f *stubFetcher) SearchURL(query, order string) string {
	return scryfall.SearchURL("https://scryfall.test", query, order)
}

func (f *stubFetcher) FetchAll(_ context.Context, startURL string) ([]scryfall.Card, error) {
	f.urls = append(f.urls, startURL)
	if f.err != nil {
		return nil, f.err
	}
	return f.cards, nil
}

// faultyRepository wraps a real repository and fails writes for selected ids.
type faultyRepository struct {
	repository.CardRepository
	failInsert map[string]bool
	failUpdate map[string]bool
	failRating map[string]bool
}

func (r *faultyRepository) Insert(ctx context.Context, card *models.Card) error {
	if r.failInsert[card.ID] {
		return errInjected
	}
	return r.CardRepository.Insert(ctx, card)
}

func (r *faultyRepository) Update(ctx context.Context, card *models.Card) error {
	if r.failUpdate[card.ID] {
		return errInjected
	}
	return r.CardRepository.Update(ctx, card)
}

func (r *faultyRepository) SetRating(ctx context.Context, id string, rating *models.Rating) (bool, error) {
	if r.failRating[id] {
		return false, errInjected
	}
	return r.CardRepository.SetRating(ctx, id, rating)
}

// setupRepo returns a repository over a fresh migrated database.
func setupRepo(t *testing.T) (*storage.DB, repository.CardRepository) {
	t.Helper()
	db := storage.NewTestDB(t)
	return db, repository.NewCardRepository(db.Conn())
}

func scryCard(id, name string) scryfall.Card {
	return scryfall.Card{
		ID:       id,
		OracleID: "oracle-" + id,
		Name:     name,
		CMC:      3,
		TypeLine: "Legendary Creature",
		Rarity:   "rare",
		Colors:   []string{"W"},
	}
}

func ratingPtr(r models.Rating) *models.Rating { return &r }
