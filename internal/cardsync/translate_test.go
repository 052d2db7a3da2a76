package cardsync

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/commander-rater/internal/scryfall"
)

func TestTranslateCard_FullRecord(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	usd := "3.49"

	src := scryfall.Card{
		ID:         "f2f2b1f4-2a4c-4a6a-8e3b-7e5c1c1f8a11",
		OracleID:   "oracle-1",
		Name:       "Meren of Clan Nel Toth",
		ReleasedAt: "2015-11-13",
		ImageURIs:  &scryfall.ImageURIs{Normal: "https://img/normal.jpg", PNG: "https://img/meren.png"},
		ManaCost:   "{2}{B}{G}",
		CMC:        4,
		TypeLine:   "Legendary Creature - Human Shaman",
		OracleText: "Whenever another creature you control dies, you get an experience counter.",
		Colors:     []string{"B", "G"},
		Keywords:   []string{},
		Power:      "3",
		Toughness:  "4",
		SetCode:    "c15",
		SetName:    "Commander 2015",
		Rarity:     "mythic",
		Artist:     "Mark Winters",
		Legalities: map[string]string{"commander": "legal"},
		Prices:     scryfall.Prices{USD: &usd},
	}

	card := TranslateCard(src, now)

	assert.Equal(t, src.ID, card.ID)
	assert.Equal(t, "Meren of Clan Nel Toth", card.Name)
	assert.Equal(t, 4.0, card.CMC)
	assert.Equal(t, "mythic", card.Rarity)
	require.NotNil(t, card.OracleID)
	assert.Equal(t, "oracle-1", *card.OracleID)
	require.NotNil(t, card.SetCode)
	assert.Equal(t, "c15", *card.SetCode)
	require.NotNil(t, card.ImageURIPNG)
	assert.Equal(t, "https://img/meren.png", *card.ImageURIPNG)
	require.NotNil(t, card.PriceUSD)
	assert.Equal(t, "3.49", *card.PriceUSD)

	assert.JSONEq(t, `["B","G"]`, string(card.Colors))
	assert.JSONEq(t, `[]`, string(card.Keywords))
	assert.JSONEq(t, `{"commander":"legal"}`, string(card.Legalities))
	assert.Nil(t, card.CardFaces)

	assert.True(t, card.IsCommander)
	assert.Nil(t, card.InterestRating)
	assert.Equal(t, now, card.CreatedAt)
	assert.Equal(t, now, card.UpdatedAt)
}

func TestTranslateCard_AbsentFieldsAreNil(t *testing.T) {
	card := TranslateCard(scryfall.Card{ID: "x", Name: "Bare"}, time.Now())

	assert.Nil(t, card.OracleID)
	assert.Nil(t, card.ManaCost)
	assert.Nil(t, card.TypeLine)
	assert.Nil(t, card.OracleText)
	assert.Nil(t, card.SetCode)
	assert.Nil(t, card.SetName)
	assert.Nil(t, card.ImageURIPNG)
	assert.Nil(t, card.PriceUSD)
	assert.Nil(t, card.Power)
	assert.Nil(t, card.Toughness)
	assert.Nil(t, card.Artist)
	assert.Nil(t, card.ReleasedAt)
	assert.Nil(t, card.Colors)
	assert.Nil(t, card.Keywords)
	assert.Nil(t, card.Legalities)
	assert.Nil(t, card.CardFaces)
}

func TestTranslateCard_DefaultsRarity(t *testing.T) {
	card := TranslateCard(scryfall.Card{ID: "x", Name: "No Rarity"}, time.Now())
	assert.Equal(t, DefaultRarity, card.Rarity)
}

func TestTranslateCard_EmptyPriceIsNil(t *testing.T) {
	empty := ""
	card := TranslateCard(scryfall.Card{ID: "x", Name: "Free", Prices: scryfall.Prices{USD: &empty}}, time.Now())
	assert.Nil(t, card.PriceUSD)
}

func TestTranslateCard_CardFacesBlob(t *testing.T) {
	src := scryfall.Card{
		ID:   "dfc",
		Name: "Esika, God of the Tree // The Prismatic Bridge",
		CardFaces: []scryfall.CardFace{
			{Name: "Esika, God of the Tree", ManaCost: "{1}{G}{G}", Power: "1", Toughness: "4",
				ImageURIs: &scryfall.ImageURIs{PNG: "https://img/esika-front.png"}},
			{Name: "The Prismatic Bridge", ManaCost: "{W}{U}{B}{R}{G}"},
		},
	}

	card := TranslateCard(src, time.Now())
	require.NotNil(t, card.CardFaces)

	var faces []scryfall.CardFace
	require.NoError(t, json.Unmarshal(card.CardFaces, &faces))
	require.Len(t, faces, 2)
	assert.Equal(t, "Esika, God of the Tree", faces[0].Name)
	require.NotNil(t, faces[0].ImageURIs)
	assert.Equal(t, "https://img/esika-front.png", faces[0].ImageURIs.PNG)
	assert.Nil(t, card.ImageURIPNG, "top-level image is absent on double-faced cards")
}

func TestTranslateCard_Deterministic(t *testing.T) {
	now := time.Now().UTC()
	src := scryfall.Card{ID: "x", Name: "Same", Colors: []string{"R"}, Legalities: map[string]string{"commander": "legal", "vintage": "legal"}}

	assert.Equal(t, TranslateCard(src, now), TranslateCard(src, now))
}
