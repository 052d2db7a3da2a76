package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	_ "modernc.org/sqlite"

	"github.com/ramonehamilton/commander-rater/internal/storage/models"
)

// setupCardTestDB creates a file database with the production cards schema.
func setupCardTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "cards.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	schema, err := os.ReadFile(filepath.Join("..", "migrations", "000001_create_cards.up.sql"))
	if err != nil {
		t.Fatalf("failed to read schema: %v", err)
	}
	if _, err := db.Exec(string(schema)); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	return db
}

func strPtr(s string) *string { return &s }

func ratingPtr(r models.Rating) *models.Rating { return &r }

func testCard(id, name string) *models.Card {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	return &models.Card{
		ID:          id,
		OracleID:    strPtr("oracle-" + id),
		Name:        name,
		CMC:         4,
		ManaCost:    strPtr("{2}{G}{U}"),
		TypeLine:    strPtr("Legendary Creature - Elf Druid"),
		OracleText:  strPtr("Whenever you cast a creature spell, search your library for a land."),
		SetCode:     strPtr("thb"),
		SetName:     strPtr("Theros Beyond Death"),
		Rarity:      "mythic",
		ImageURIPNG: strPtr("https://cards.example/" + id + ".png"),
		PriceUSD:    strPtr("1.25"),
		Power:       strPtr("2"),
		Toughness:   strPtr("4"),
		Artist:      strPtr("Jason Rainville"),
		ReleasedAt:  strPtr("2020-01-24"),
		Colors:      json.RawMessage(`["G","U"]`),
		Keywords:    json.RawMessage(`[]`),
		Legalities:  json.RawMessage(`{"commander":"legal"}`),
		IsCommander: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestCardRepository_Probe(t *testing.T) {
	ctx := context.Background()

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "empty.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	if err := NewCardRepository(db).Probe(ctx); err == nil {
		t.Error("expected Probe to fail without a cards table")
	}

	repo := NewCardRepository(setupCardTestDB(t))
	if err := repo.Probe(ctx); err != nil {
		t.Errorf("expected Probe to succeed on an empty table, got %v", err)
	}
}

func TestCardRepository_InsertAndGet(t *testing.T) {
	repo := NewCardRepository(setupCardTestDB(t))
	ctx := context.Background()

	card := testCard("card-1", "Kinnan, Bonder Prodigy")
	if err := repo.Insert(ctx, card); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := repo.GetByID(ctx, "card-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected card, got nil")
	}

	if diff := cmp.Diff(card, got, cmp.Comparer(func(a, b time.Time) bool { return a.Equal(b) })); diff != "" {
		t.Errorf("stored card mismatch (-want +got):\n%s", diff)
	}
}

func TestCardRepository_GetByIDMissing(t *testing.T) {
	repo := NewCardRepository(setupCardTestDB(t))

	got, err := repo.GetByID(context.Background(), "nope")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing card, got %+v", got)
	}
}

func TestCardRepository_NullableFieldsRoundTrip(t *testing.T) {
	repo := NewCardRepository(setupCardTestDB(t))
	ctx := context.Background()

	card := &models.Card{
		ID:          "bare",
		Name:        "Bare Card",
		Rarity:      "common",
		IsCommander: true,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	if err := repo.Insert(ctx, card); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := repo.GetByID(ctx, "bare")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.OracleID != nil || got.PriceUSD != nil || got.Power != nil {
		t.Error("expected absent scalar fields to stay nil")
	}
	if got.Colors != nil || got.CardFaces != nil || got.Legalities != nil {
		t.Error("expected absent blobs to stay nil")
	}
	if got.InterestRating != nil {
		t.Errorf("expected no rating, got %v", *got.InterestRating)
	}
}

func TestCardRepository_InsertDuplicateFails(t *testing.T) {
	repo := NewCardRepository(setupCardTestDB(t))
	ctx := context.Background()

	if err := repo.Insert(ctx, testCard("dup", "Dup")); err != nil {
		t.Fatalf("first Insert failed: %v", err)
	}
	if err := repo.Insert(ctx, testCard("dup", "Dup")); err == nil {
		t.Error("expected primary key violation on second insert")
	}
}

func TestCardRepository_UpdatePreservesRating(t *testing.T) {
	repo := NewCardRepository(setupCardTestDB(t))
	ctx := context.Background()

	original := testCard("card-1", "Old Name")
	if err := repo.Insert(ctx, original); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if ok, err := repo.SetRating(ctx, "card-1", ratingPtr(models.RatingInteresting)); err != nil || !ok {
		t.Fatalf("SetRating failed: ok=%v err=%v", ok, err)
	}

	updated := testCard("card-1", "New Name")
	updated.PriceUSD = nil
	updated.UpdatedAt = original.UpdatedAt.Add(time.Hour)
	updated.CreatedAt = original.CreatedAt.Add(time.Hour)
	updated.InterestRating = nil
	if err := repo.Update(ctx, updated); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := repo.GetByID(ctx, "card-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Name != "New Name" {
		t.Errorf("expected name to be overwritten, got %s", got.Name)
	}
	if got.PriceUSD != nil {
		t.Error("expected price to be cleared by the update")
	}
	if got.InterestRating == nil || *got.InterestRating != models.RatingInteresting {
		t.Errorf("expected rating to survive update, got %v", got.InterestRating)
	}
	if !got.CreatedAt.Equal(original.CreatedAt) {
		t.Errorf("expected created_at %v to be kept, got %v", original.CreatedAt, got.CreatedAt)
	}
	if !got.UpdatedAt.Equal(updated.UpdatedAt) {
		t.Errorf("expected updated_at %v, got %v", updated.UpdatedAt, got.UpdatedAt)
	}
}

func TestCardRepository_UpdateMissing(t *testing.T) {
	repo := NewCardRepository(setupCardTestDB(t))

	err := repo.Update(context.Background(), testCard("ghost", "Ghost"))
	if !errors.Is(err, ErrCardNotFound) {
		t.Errorf("expected ErrCardNotFound, got %v", err)
	}
}

func TestCardRepository_SetRating(t *testing.T) {
	repo := NewCardRepository(setupCardTestDB(t))
	ctx := context.Background()

	if err := repo.Insert(ctx, testCard("card-1", "A")); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	ok, err := repo.SetRating(ctx, "missing", ratingPtr(models.RatingInteresting))
	if err != nil {
		t.Fatalf("SetRating failed: %v", err)
	}
	if ok {
		t.Error("expected SetRating to report no row for an unknown id")
	}

	if _, err := repo.SetRating(ctx, "card-1", ratingPtr(models.RatingNotInteresting)); err != nil {
		t.Fatalf("SetRating failed: %v", err)
	}
	got, _ := repo.GetByID(ctx, "card-1")
	if got.InterestRating == nil || *got.InterestRating != models.RatingNotInteresting {
		t.Errorf("expected not_interesting, got %v", got.InterestRating)
	}

	if _, err := repo.SetRating(ctx, "card-1", nil); err != nil {
		t.Fatalf("clearing rating failed: %v", err)
	}
	got, _ = repo.GetByID(ctx, "card-1")
	if got.InterestRating != nil {
		t.Errorf("expected rating cleared, got %v", *got.InterestRating)
	}
}

func TestCardRepository_RejectsUnknownRatingValue(t *testing.T) {
	repo := NewCardRepository(setupCardTestDB(t))
	ctx := context.Background()

	if err := repo.Insert(ctx, testCard("card-1", "A")); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if _, err := repo.SetRating(ctx, "card-1", ratingPtr("meh")); err == nil {
		t.Error("expected CHECK constraint to reject unknown rating")
	}
}

// seedRatedCards inserts cards named by id with the given ratings (nil = unrated).
func seedRatedCards(t *testing.T, repo CardRepository, ratings map[string]*models.Rating) {
	t.Helper()
	ctx := context.Background()
	for id, rating := range ratings {
		if err := repo.Insert(ctx, testCard(id, "Name "+id)); err != nil {
			t.Fatalf("Insert %s failed: %v", id, err)
		}
		if rating != nil {
			if _, err := repo.SetRating(ctx, id, rating); err != nil {
				t.Fatalf("SetRating %s failed: %v", id, err)
			}
		}
	}
}

func TestCardRepository_RandomCardFilters(t *testing.T) {
	repo := NewCardRepository(setupCardTestDB(t))
	ctx := context.Background()

	seedRatedCards(t, repo, map[string]*models.Rating{
		"i1": ratingPtr(models.RatingInteresting),
		"n1": ratingPtr(models.RatingNotInteresting),
		"u1": nil,
		"u2": nil,
	})

	for i := 0; i < 20; i++ {
		card, err := repo.RandomCard(ctx, models.FilterUnrated)
		if err != nil {
			t.Fatalf("RandomCard failed: %v", err)
		}
		if card == nil || card.InterestRating != nil {
			t.Fatalf("expected an unrated card, got %+v", card)
		}

		card, err = repo.RandomCard(ctx, models.FilterInteresting)
		if err != nil {
			t.Fatalf("RandomCard failed: %v", err)
		}
		if card == nil || card.ID != "i1" {
			t.Fatalf("expected i1, got %+v", card)
		}
	}

	card, err := repo.RandomCard(ctx, models.FilterAny)
	if err != nil || card == nil {
		t.Fatalf("expected any card, got %v / %v", card, err)
	}

	if _, err := repo.RandomCard(ctx, models.RatingFilter("bogus")); err == nil {
		t.Error("expected error for unknown filter")
	}
}

func TestCardRepository_RandomCardEmpty(t *testing.T) {
	repo := NewCardRepository(setupCardTestDB(t))

	card, err := repo.RandomCard(context.Background(), models.FilterAny)
	if err != nil {
		t.Fatalf("RandomCard failed: %v", err)
	}
	if card != nil {
		t.Errorf("expected nil on empty table, got %+v", card)
	}
}

func TestCardRepository_ListByRatingSortedByName(t *testing.T) {
	repo := NewCardRepository(setupCardTestDB(t))
	ctx := context.Background()

	for _, c := range []struct{ id, name string }{{"1", "Zur"}, {"2", "Atraxa"}, {"3", "Meren"}, {"4", "Niv"}} {
		if err := repo.Insert(ctx, testCard(c.id, c.name)); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}
	for _, id := range []string{"1", "2", "3"} {
		if _, err := repo.SetRating(ctx, id, ratingPtr(models.RatingInteresting)); err != nil {
			t.Fatalf("SetRating failed: %v", err)
		}
	}

	cards, err := repo.ListByRating(ctx, models.RatingInteresting)
	if err != nil {
		t.Fatalf("ListByRating failed: %v", err)
	}

	var names []string
	for _, c := range cards {
		names = append(names, c.Name)
	}
	if diff := cmp.Diff([]string{"Atraxa", "Meren", "Zur"}, names); diff != "" {
		t.Errorf("unexpected order (-want +got):\n%s", diff)
	}

	none, err := repo.ListByRating(ctx, models.RatingNotInteresting)
	if err != nil {
		t.Fatalf("ListByRating failed: %v", err)
	}
	if none == nil || len(none) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", none)
	}
}

func TestCardRepository_StatsAndCount(t *testing.T) {
	repo := NewCardRepository(setupCardTestDB(t))
	ctx := context.Background()

	empty, err := repo.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed on empty table: %v", err)
	}
	if *empty != (models.CardStats{}) {
		t.Errorf("expected zero stats, got %+v", *empty)
	}

	seedRatedCards(t, repo, map[string]*models.Rating{
		"i1": ratingPtr(models.RatingInteresting),
		"i2": ratingPtr(models.RatingInteresting),
		"n1": ratingPtr(models.RatingNotInteresting),
		"u1": nil,
	})

	stats, err := repo.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	want := models.CardStats{Total: 4, Interesting: 2, NotInteresting: 1, Unrated: 1}
	if *stats != want {
		t.Errorf("expected %+v, got %+v", want, *stats)
	}

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 4 {
		t.Errorf("expected count 4, got %d", count)
	}
}

func TestCardRepository_ClearRatingsKeepsRows(t *testing.T) {
	repo := NewCardRepository(setupCardTestDB(t))
	ctx := context.Background()

	seedRatedCards(t, repo, map[string]*models.Rating{
		"i1": ratingPtr(models.RatingInteresting),
		"n1": ratingPtr(models.RatingNotInteresting),
		"u1": nil,
	})

	cleared, err := repo.ClearRatings(ctx)
	if err != nil {
		t.Fatalf("ClearRatings failed: %v", err)
	}
	if cleared != 2 {
		t.Errorf("expected 2 ratings cleared, got %d", cleared)
	}

	stats, _ := repo.Stats(ctx)
	if stats.Total != 3 || stats.Unrated != 3 {
		t.Errorf("expected 3 unrated rows, got %+v", *stats)
	}
}

func TestCardRepository_DeleteAll(t *testing.T) {
	repo := NewCardRepository(setupCardTestDB(t))
	ctx := context.Background()

	seedRatedCards(t, repo, map[string]*models.Rating{"a": nil, "b": nil})

	deleted, err := repo.DeleteAll(ctx)
	if err != nil {
		t.Fatalf("DeleteAll failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("expected 2 rows deleted, got %d", deleted)
	}
	if count, _ := repo.Count(ctx); count != 0 {
		t.Errorf("expected empty table, got %d rows", count)
	}
}

func TestCardRepository_ListRatings(t *testing.T) {
	repo := NewCardRepository(setupCardTestDB(t))
	ctx := context.Background()

	seedRatedCards(t, repo, map[string]*models.Rating{
		"b": ratingPtr(models.RatingNotInteresting),
		"a": ratingPtr(models.RatingInteresting),
		"c": nil,
	})

	records, err := repo.ListRatings(ctx)
	if err != nil {
		t.Fatalf("ListRatings failed: %v", err)
	}

	want := []models.RatingRecord{
		{ExternalID: "a", Rating: models.RatingInteresting},
		{ExternalID: "b", Rating: models.RatingNotInteresting},
	}
	if diff := cmp.Diff(want, records); diff != "" {
		t.Errorf("unexpected ratings (-want +got):\n%s", diff)
	}
}
