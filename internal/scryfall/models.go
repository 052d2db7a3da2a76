package scryfall

import (
	"errors"
	"fmt"
)

// Card represents a card printing as returned by the Scryfall search API.
// Only the fields the sync stores are decoded.
type Card struct {
	ID       string `json:"id"`
	OracleID string `json:"oracle_id,omitempty"`

	Name       string     `json:"name"`
	ReleasedAt string     `json:"released_at,omitempty"`
	ImageURIs  *ImageURIs `json:"image_uris,omitempty"`
	ManaCost   string     `json:"mana_cost,omitempty"`
	CMC        float64    `json:"cmc"`
	TypeLine   string     `json:"type_line,omitempty"`
	OracleText string     `json:"oracle_text,omitempty"`
	Colors     []string   `json:"colors,omitempty"`
	Keywords   []string   `json:"keywords,omitempty"`

	Power     string `json:"power,omitempty"`
	Toughness string `json:"toughness,omitempty"`

	SetCode string `json:"set,omitempty"`
	SetName string `json:"set_name,omitempty"`
	Rarity  string `json:"rarity,omitempty"`
	Artist  string `json:"artist,omitempty"`

	// Card faces for double-faced, modal and split cards.
	CardFaces []CardFace `json:"card_faces,omitempty"`

	// Legalities maps format name (commander, modern, ...) to legal/not_legal/restricted/banned.
	Legalities map[string]string `json:"legalities,omitempty"`

	Prices Prices `json:"prices"`
}

// CardFace represents one face of a multi-faced card.
type CardFace struct {
	Name       string     `json:"name"`
	ManaCost   string     `json:"mana_cost,omitempty"`
	TypeLine   string     `json:"type_line,omitempty"`
	OracleText string     `json:"oracle_text,omitempty"`
	Colors     []string   `json:"colors,omitempty"`
	Power      string     `json:"power,omitempty"`
	Toughness  string     `json:"toughness,omitempty"`
	ImageURIs  *ImageURIs `json:"image_uris,omitempty"`
}

// ImageURIs contains URLs for card images. Only the PNG is kept locally.
type ImageURIs struct {
	Small  string `json:"small,omitempty"`
	Normal string `json:"normal,omitempty"`
	Large  string `json:"large,omitempty"`
	PNG    string `json:"png,omitempty"`
}

// Prices is the price snapshot attached to a printing. Scryfall sends null for unknown prices.
type Prices struct {
	USD     *string `json:"usd,omitempty"`
	USDFoil *string `json:"usd_foil,omitempty"`
	EUR     *string `json:"eur,omitempty"`
}

// SearchResult is one page of /cards/search.
type SearchResult struct {
	Object     string `json:"object"`
	TotalCards int    `json:"total_cards"`
	HasMore    bool   `json:"has_more"`
	NextPage   string `json:"next_page,omitempty"`
	Data       []Card `json:"data"`
}

// validate rejects pages that do not look like a Scryfall card list.
func (r *SearchResult) validate() error {
	if r.Object != "list" {
		return fmt.Errorf("unexpected object type %q", r.Object)
	}
	if r.Data == nil {
		return errors.New("missing data array")
	}
	for i := range r.Data {
		if r.Data[i].ID == "" {
			return fmt.Errorf("card at index %d has no id", i)
		}
		if r.Data[i].Name == "" {
			return fmt.Errorf("card %s has no name", r.Data[i].ID)
		}
	}
	return nil
}
