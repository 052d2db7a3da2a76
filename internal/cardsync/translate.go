package cardsync

import (
	"encoding/json"
	"time"

	"github.com/ramonehamilton/commander-rater/internal/scryfall"
	"github.com/ramonehamilton/commander-rater/internal/storage/models"
)

// DefaultRarity is stored when Scryfall omits a card's rarity.
const DefaultRarity = "common"

// TranslateCard flattens a Scryfall card into a stored row stamped with now.
// The result is never rated; callers decide whether it is inserted or merged.
func TranslateCard(c scryfall.Card, now time.Time) *models.Card {
	card := &models.Card{
		ID:          c.ID,
		OracleID:    optional(c.OracleID),
		Name:        c.Name,
		CMC:         c.CMC,
		ManaCost:    optional(c.ManaCost),
		TypeLine:    optional(c.TypeLine),
		OracleText:  optional(c.OracleText),
		SetCode:     optional(c.SetCode),
		SetName:     optional(c.SetName),
		Rarity:      c.Rarity,
		PriceUSD:    c.Prices.USD,
		Power:       optional(c.Power),
		Toughness:   optional(c.Toughness),
		Artist:      optional(c.Artist),
		ReleasedAt:  optional(c.ReleasedAt),
		Colors:      blob(c.Colors, c.Colors == nil),
		Keywords:    blob(c.Keywords, c.Keywords == nil),
		Legalities:  blob(c.Legalities, c.Legalities == nil),
		CardFaces:   blob(c.CardFaces, c.CardFaces == nil),
		IsCommander: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if card.Rarity == "" {
		card.Rarity = DefaultRarity
	}
	if c.ImageURIs != nil {
		card.ImageURIPNG = optional(c.ImageURIs.PNG)
	}
	if card.PriceUSD != nil && *card.PriceUSD == "" {
		card.PriceUSD = nil
	}

	return card
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// blob marshals v as an opaque JSON column, or returns nil when the source had no value.
func blob(v any, absent bool) json.RawMessage {
	if absent {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}
