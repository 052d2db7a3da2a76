package repository

import (
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/ramonehamilton/commander-rater/internal/storage/models"
)

// ErrCardNotFound is returned by Update when no row has the card's id.
var ErrCardNotFound = errors.New("card not found")

// CardColumns lists the cards table columns in the order ScanCard and CardValues use.
const CardColumns = `id, oracle_id, name, cmc, mana_cost, type_line, oracle_text, set_code, set_name,
	rarity, image_uri_png, price_usd, power, toughness, artist, released_at,
	colors, keywords, legalities, card_faces, is_commander, interest_rating, created_at, updated_at`

// RowScanner is satisfied by *sql.Row, *sql.Rows and pgx.Row.
type RowScanner interface {
	Scan(dest ...any) error
}

// ScanCard reads one row selected with CardColumns.
func ScanCard(row RowScanner) (*models.Card, error) {
	card := &models.Card{}
	var colors, keywords, legalities, cardFaces, rating sql.NullString

	err := row.Scan(
		&card.ID,
		&card.OracleID,
		&card.Name,
		&card.CMC,
		&card.ManaCost,
		&card.TypeLine,
		&card.OracleText,
		&card.SetCode,
		&card.SetName,
		&card.Rarity,
		&card.ImageURIPNG,
		&card.PriceUSD,
		&card.Power,
		&card.Toughness,
		&card.Artist,
		&card.ReleasedAt,
		&colors,
		&keywords,
		&legalities,
		&cardFaces,
		&card.IsCommander,
		&rating,
		&card.CreatedAt,
		&card.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	card.Colors = rawJSON(colors)
	card.Keywords = rawJSON(keywords)
	card.Legalities = rawJSON(legalities)
	card.CardFaces = rawJSON(cardFaces)
	if rating.Valid {
		r := models.Rating(rating.String)
		card.InterestRating = &r
	}

	return card, nil
}

// CardValues returns the column values of card in CardColumns order.
func CardValues(card *models.Card) []any {
	return []any{
		card.ID,
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
		RatingValue(card.InterestRating),
		card.CreatedAt,
		card.UpdatedAt,
	}
}

// NullJSON converts a JSON blob to a nullable text parameter.
func NullJSON(raw json.RawMessage) *string {
	if raw == nil {
		return nil
	}
	s := string(raw)
	return &s
}

// RatingValue converts a rating to a nullable text parameter.
func RatingValue(r *models.Rating) *string {
	if r == nil {
		return nil
	}
	s := string(*r)
	return &s
}

func rawJSON(s sql.NullString) json.RawMessage {
	if !s.Valid {
		return nil
	}
	return json.RawMessage(s.String)
}
