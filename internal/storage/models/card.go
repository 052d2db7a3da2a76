package models

import (
	"encoding/json"
	"time"
)

// Rating is the user's interest classification of a card.
// A nil *Rating means the card has not been rated.
type Rating string

const (
	RatingInteresting    Rating = "interesting"
	RatingNotInteresting Rating = "not_interesting"
)

// Valid reports whether r is one of the known ratings.
func (r Rating) Valid() bool {
	return r == RatingInteresting || r == RatingNotInteresting
}

// RatingFilter narrows random card selection.
type RatingFilter string

const (
	FilterAny            RatingFilter = ""
	FilterInteresting    RatingFilter = "interesting"
	FilterNotInteresting RatingFilter = "not_interesting"
	FilterUnrated        RatingFilter = "unrated"
)

// Valid reports whether f is a known filter.
func (f RatingFilter) Valid() bool {
	switch f {
	case FilterAny, FilterInteresting, FilterNotInteresting, FilterUnrated:
		return true
	}
	return false
}

// Card is a commander card row as stored locally.
// Nullable columns are pointers; nil means the source record did not carry the field.
type Card struct {
	ID          string   `json:"id"` // Scryfall card id
	OracleID    *string  `json:"oracle_id,omitempty"`
	Name        string   `json:"name"`
	CMC         float64  `json:"cmc"`
	ManaCost    *string  `json:"mana_cost,omitempty"`
	TypeLine    *string  `json:"type_line,omitempty"`
	OracleText  *string  `json:"oracle_text,omitempty"`
	SetCode     *string  `json:"set_code,omitempty"`
	SetName     *string  `json:"set_name,omitempty"`
	Rarity      string   `json:"rarity"`
	ImageURIPNG *string  `json:"image_uri_png,omitempty"`
	PriceUSD    *string  `json:"price_usd,omitempty"`
	Power       *string  `json:"power,omitempty"`
	Toughness   *string  `json:"toughness,omitempty"`
	Artist      *string  `json:"artist,omitempty"`
	ReleasedAt  *string  `json:"released_at,omitempty"`

	// Stored as JSON text; never queried by content.
	Colors     json.RawMessage `json:"colors,omitempty"`
	Keywords   json.RawMessage `json:"keywords,omitempty"`
	Legalities json.RawMessage `json:"legalities,omitempty"`
	CardFaces  json.RawMessage `json:"card_faces,omitempty"`

	IsCommander    bool    `json:"is_commander"`
	InterestRating *Rating `json:"interest_rating"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CardStats summarises ratings across commander cards.
type CardStats struct {
	Total          int `json:"total"`
	Interesting    int `json:"interesting"`
	NotInteresting int `json:"not_interesting"`
	Unrated        int `json:"unrated"`
}

// RatingRecord is one exported rating, keyed by Scryfall card id.
type RatingRecord struct {
	ExternalID string `json:"external_id"`
	Rating     Rating `json:"rating"`
}
