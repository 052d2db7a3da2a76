package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ramonehamilton/commander-rater/internal/storage/models"
)

// CardRepository is the row-oriented card store used by sync and the rating operations.
type CardRepository interface {
	// Probe runs a trivial read against the cards table; it fails when the schema is missing.
	Probe(ctx context.Context) error

	// GetByID retrieves a card by Scryfall id. Returns nil, nil when absent.
	GetByID(ctx context.Context, id string) (*models.Card, error)

	// Insert adds a new card row.
	Insert(ctx context.Context, card *models.Card) error

	// Update overwrites every synced column of an existing card.
	// interest_rating and created_at are left untouched.
	Update(ctx context.Context, card *models.Card) error

	// SetRating sets or clears one card's rating. Returns false when no card has that id.
	SetRating(ctx context.Context, id string, rating *models.Rating) (bool, error)

	// DeleteAll removes every card and returns the number deleted.
	DeleteAll(ctx context.Context) (int64, error)

	// ClearRatings unsets every rating and returns the number of rows changed.
	ClearRatings(ctx context.Context) (int64, error)

	// RandomCard returns one random commander card matching filter, or nil when none match.
	RandomCard(ctx context.Context, filter models.RatingFilter) (*models.Card, error)

	// ListByRating returns commander cards with the given rating ordered by name.
	ListByRating(ctx context.Context, rating models.Rating) ([]*models.Card, error)

	// Stats counts commander cards by rating.
	Stats(ctx context.Context) (*models.CardStats, error)

	// Count returns the number of commander cards.
	Count(ctx context.Context) (int, error)

	// ListRatings returns the id and rating of every rated card.
	ListRatings(ctx context.Context) ([]models.RatingRecord, error)
}

type cardRepository struct {
	db *sql.DB
}

// NewCardRepository creates a SQLite-backed card repository.
func NewCardRepository(db *sql.DB) CardRepository {
	return &cardRepository{db: db}
}

// Probe checks that the cards table is readable.
func (r *cardRepository) Probe(ctx context.Context) error {
	var id string
	err := r.db.QueryRowContext(ctx, `SELECT id FROM cards LIMIT 1`).Scan(&id)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	return nil
}

// GetByID retrieves a card by Scryfall id.
func (r *cardRepository) GetByID(ctx context.Context, id string) (*models.Card, error) {
	query := `SELECT ` + CardColumns + ` FROM cards WHERE id = ?`

	card, err := ScanCard(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get card %s: %w", id, err)
	}

	return card, nil
}

// Insert adds a new card row.
func (r *cardRepository) Insert(ctx context.Context, card *models.Card) error {
	query := `
		INSERT INTO cards (` + CardColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	if _, err := r.db.ExecContext(ctx, query, CardValues(card)...); err != nil {
		return fmt.Errorf("failed to insert card %s: %w", card.ID, err)
	}

	return nil
}

// Update overwrites the synced columns of an existing card.
func (r *cardRepository) Update(ctx context.Context, card *models.Card) error {
	query := `
		UPDATE cards SET
			oracle_id = ?,
			name = ?,
			cmc = ?,
			mana_cost = ?,
			type_line = ?,
			oracle_text = ?,
			set_code = ?,
			set_name = ?,
			rarity = ?,
			image_uri_png = ?,
			price_usd = ?,
			power = ?,
			toughness = ?,
			artist = ?,
			released_at = ?,
			colors = ?,
			keywords = ?,
			legalities = ?,
			card_faces = ?,
			is_commander = ?,
			updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		card.OracleID,
		card.Name,
		card.CMC,
		card.ManaCost,
		card.TypeLine,
		card.OracleText,
		card.SetCode,
		card.SetName,
		card.Rarity,
		card.ImageURIPNG,
		card.PriceUSD,
		card.Power,
		card.Toughness,
		card.Artist,
		card.ReleasedAt,
		NullJSON(card.Colors),
		NullJSON(card.Keywords),
		NullJSON(card.Legalities),
		NullJSON(card.CardFaces),
		card.IsCommander,
		card.UpdatedAt,
		card.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update card %s: %w", card.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update card %s: %w", card.ID, err)
	}
	if affected == 0 {
		return fmt.Errorf("failed to update card %s: %w", card.ID, ErrCardNotFound)
	}

	return nil
}

// SetRating sets or clears one card's rating.
func (r *cardRepository) SetRating(ctx context.Context, id string, rating *models.Rating) (bool, error) {
	query := `UPDATE cards SET interest_rating = ?, updated_at = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, RatingValue(rating), time.Now().UTC(), id)
	if err != nil {
		return false, fmt.Errorf("failed to rate card %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to rate card %s: %w", id, err)
	}

	return affected > 0, nil
}

// DeleteAll removes every card.
func (r *cardRepository) DeleteAll(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM cards`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete cards: %w", err)
	}
	return result.RowsAffected()
}

// ClearRatings unsets every rating.
func (r *cardRepository) ClearRatings(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `UPDATE cards SET interest_rating = NULL WHERE interest_rating IS NOT NULL`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear ratings: %w", err)
	}
	return result.RowsAffected()
}

// RandomCard returns one random commander card matching filter.
func (r *cardRepository) RandomCard(ctx context.Context, filter models.RatingFilter) (*models.Card, error) {
	query := `SELECT ` + CardColumns + ` FROM cards WHERE is_commander = TRUE`
	var args []any

	switch filter {
	case models.FilterAny:
	case models.FilterUnrated:
		query += ` AND interest_rating IS NULL`
	case models.FilterInteresting, models.FilterNotInteresting:
		query += ` AND interest_rating = ?`
		args = append(args, string(filter))
	default:
		return nil, fmt.Errorf("unknown rating filter %q", filter)
	}
	query += ` ORDER BY RANDOM() LIMIT 1`

	card, err := ScanCard(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get random card: %w", err)
	}

	return card, nil
}

// ListByRating returns commander cards with the given rating ordered by name.
func (r *cardRepository) ListByRating(ctx context.Context, rating models.Rating) ([]*models.Card, error) {
	query := `
		SELECT ` + CardColumns + `
		FROM cards
		WHERE is_commander = TRUE AND interest_rating = ?
		ORDER BY name ASC
	`

	rows, err := r.db.QueryContext(ctx, query, string(rating))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s cards: %w", rating, err)
	}
	defer func() { _ = rows.Close() }()

	cards := []*models.Card{}
	for rows.Next() {
		card, err := ScanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		cards = append(cards, card)
	}

	return cards, rows.Err()
}

// Stats counts commander cards by rating.
func (r *cardRepository) Stats(ctx context.Context) (*models.CardStats, error) {
	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN interest_rating = 'interesting' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN interest_rating = 'not_interesting' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN interest_rating IS NULL THEN 1 ELSE 0 END), 0)
		FROM cards
		WHERE is_commander = TRUE
	`

	stats := &models.CardStats{}
	err := r.db.QueryRowContext(ctx, query).Scan(
		&stats.Total, &stats.Interesting, &stats.NotInteresting, &stats.Unrated,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get card stats: %w", err)
	}

	return stats, nil
}

// Count returns the number of commander cards.
func (r *cardRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cards WHERE is_commander = TRUE`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count cards: %w", err)
	}
	return count, nil
}

// ListRatings returns the id and rating of every rated card.
func (r *cardRepository) ListRatings(ctx context.Context) ([]models.RatingRecord, error) {
	query := `SELECT id, interest_rating FROM cards WHERE interest_rating IS NOT NULL ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list ratings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records := []models.RatingRecord{}
	for rows.Next() {
		var rec models.RatingRecord
		var rating string
		if err := rows.Scan(&rec.ExternalID, &rating); err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		rec.Rating = models.Rating(rating)
		records = append(records, rec)
	}

	return records, rows.Err()
}
