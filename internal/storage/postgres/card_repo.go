package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ramonehamilton/commander-rater/internal/storage/models"
	"github.com/ramonehamilton/commander-rater/internal/storage/repository"
)

type cardRepository struct {
	pool *pgxpool.Pool
}

// NewCardRepository creates a PostgreSQL-backed card repository.
func NewCardRepository(pool *pgxpool.Pool) repository.CardRepository {
	return &cardRepository{pool: pool}
}

func (r *cardRepository) Probe(ctx context.Context) error {
	var id string
	err := r.pool.QueryRow(ctx, `SELECT id FROM cards LIMIT 1`).Scan(&id)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	return nil
}

func (r *cardRepository) GetByID(ctx context.Context, id string) (*models.Card, error) {
	card, err := repository.ScanCard(r.pool.QueryRow(ctx, `SELECT `+repository.CardColumns+` FROM cards WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get card %s: %w", id, err)
	}
	return card, nil
}

func (r *cardRepository) Insert(ctx context.Context, card *models.Card) error {
	query := `
		INSERT INTO cards (` + repository.CardColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
	`
	if _, err := r.pool.Exec(ctx, query, repository.CardValues(card)...); err != nil {
		return fmt.Errorf("failed to insert card %s: %w", card.ID, err)
	}
	return nil
}

func (r *cardRepository) Update(ctx context.Context, card *models.Card) error {
	query := `
		UPDATE cards SET
			oracle_id = $1, name = $2, cmc = $3, mana_cost = $4, type_line = $5,
			oracle_text = $6, set_code = $7, set_name = $8, rarity = $9,
			image_uri_png = $10, price_usd = $11, power = $12, toughness = $13,
			artist = $14, released_at = $15, colors = $16, keywords = $17,
			legalities = $18, card_faces = $19, is_commander = $20, updated_at = $21
		WHERE id = $22
	`
	tag, err := r.pool.Exec(ctx, query,
		card.OracleID, card.Name, card.CMC, card.ManaCost, card.TypeLine,
		card.OracleText, card.SetCode, card.SetName, card.Rarity,
		card.ImageURIPNG, card.PriceUSD, card.Power, card.Toughness,
		card.Artist, card.ReleasedAt,
		repository.NullJSON(card.Colors), repository.NullJSON(card.Keywords),
		repository.NullJSON(card.Legalities), repository.NullJSON(card.CardFaces),
		card.IsCommander, card.UpdatedAt, card.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update card %s: %w", card.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to update card %s: %w", card.ID, repository.ErrCardNotFound)
	}
	return nil
}

func (r *cardRepository) SetRating(ctx context.Context, id string, rating *models.Rating) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE cards SET interest_rating = $1, updated_at = $2 WHERE id = $3`,
		repository.RatingValue(rating), time.Now().UTC(), id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to rate card %s: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *cardRepository) DeleteAll(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM cards`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete cards: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *cardRepository) ClearRatings(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE cards SET interest_rating = NULL WHERE interest_rating IS NOT NULL`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear ratings: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *cardRepository) RandomCard(ctx context.Context, filter models.RatingFilter) (*models.Card, error) {
	query := `SELECT ` + repository.CardColumns + ` FROM cards WHERE is_commander = TRUE`
	var args []any

	switch filter {
	case models.FilterAny:
	case models.FilterUnrated:
		query += ` AND interest_rating IS NULL`
	case models.FilterInteresting, models.FilterNotInteresting:
		query += ` AND interest_rating = $1`
		args = append(args, string(filter))
	default:
		return nil, fmt.Errorf("unknown rating filter %q", filter)
	}
	query += ` ORDER BY RANDOM() LIMIT 1`

	card, err := repository.ScanCard(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get random card: %w", err)
	}
	return card, nil
}

func (r *cardRepository) ListByRating(ctx context.Context, rating models.Rating) ([]*models.Card, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+repository.CardColumns+`
		FROM cards
		WHERE is_commander = TRUE AND interest_rating = $1
		ORDER BY name ASC
	`, string(rating))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s cards: %w", rating, err)
	}
	defer rows.Close()

	cards := []*models.Card{}
	for rows.Next() {
		card, err := repository.ScanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		cards = append(cards, card)
	}
	return cards, rows.Err()
}

func (r *cardRepository) Stats(ctx context.Context) (*models.CardStats, error) {
	stats := &models.CardStats{}
	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE interest_rating = 'interesting'),
			COUNT(*) FILTER (WHERE interest_rating = 'not_interesting'),
			COUNT(*) FILTER (WHERE interest_rating IS NULL)
		FROM cards
		WHERE is_commander = TRUE
	`).Scan(&stats.Total, &stats.Interesting, &stats.NotInteresting, &stats.Unrated)
	if err != nil {
		return nil, fmt.Errorf("failed to get card stats: %w", err)
	}
	return stats, nil
}

func (r *cardRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM cards WHERE is_commander = TRUE`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count cards: %w", err)
	}
	return count, nil
}

func (r *cardRepository) ListRatings(ctx context.Context) ([]models.RatingRecord, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, interest_rating FROM cards WHERE interest_rating IS NOT NULL ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list ratings: %w", err)
	}
	defer rows.Close()

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
