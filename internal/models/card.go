package models

import (
	"encoding/json"
	"fmt"
)

// Layout identifies how a card's faces are arranged. Dual-face layouts
// matter for name matching: "Fire // Ice" must match a decklist line that
// only says "Fire".
type Layout string

const (
	LayoutNormal           Layout = "normal"
	LayoutSplit            Layout = "split"
	LayoutFlip             Layout = "flip"
	LayoutTransform        Layout = "transform"
	LayoutModalDFC         Layout = "modal_dfc"
	LayoutAdventure        Layout = "adventure"
	LayoutMeld             Layout = "meld"
	LayoutSaga             Layout = "saga"
	LayoutToken            Layout = "token"
	LayoutDoubleFacedToken Layout = "double_faced_token"
	LayoutArtSeries        Layout = "art_series"
	LayoutClass            Layout = "class"
	LayoutPlanar           Layout = "planar"
	LayoutScheme           Layout = "scheme"
	LayoutPrototype        Layout = "prototype"
	LayoutVanguard         Layout = "vanguard"
	LayoutEmblem           Layout = "emblem"
	LayoutAugment          Layout = "augment"
	LayoutHost             Layout = "host"
	LayoutMutate           Layout = "mutate"
	LayoutLeveler          Layout = "leveler"
	LayoutCase             Layout = "case"
	LayoutReversible       Layout = "reversible_card"
	LayoutBattle           Layout = "battle"
)

var validLayouts = map[Layout]bool{
	LayoutNormal: true, LayoutSplit: true, LayoutFlip: true,
	LayoutTransform: true, LayoutModalDFC: true, LayoutAdventure: true,
	LayoutMeld: true, LayoutSaga: true, LayoutToken: true,
	LayoutDoubleFacedToken: true, LayoutArtSeries: true, LayoutClass: true,
	LayoutPlanar: true, LayoutScheme: true, LayoutPrototype: true,
	LayoutVanguard: true, LayoutEmblem: true, LayoutAugment: true,
	LayoutHost: true, LayoutMutate: true, LayoutLeveler: true,
	LayoutCase: true, LayoutReversible: true, LayoutBattle: true,
}

func (l *Layout) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if !validLayouts[Layout(s)] {
		return fmt.Errorf("unknown layout %q", s)
	}
	*l = Layout(s)
	return nil
}

// Legality is a card's status in one format.
type Legality string

const (
	LegalityLegal      Legality = "legal"
	LegalityNotLegal   Legality = "not_legal"
	LegalityRestricted Legality = "restricted"
	LegalityBanned     Legality = "banned"
)

var validLegalities = map[Legality]bool{
	LegalityLegal: true, LegalityNotLegal: true,
	LegalityRestricted: true, LegalityBanned: true,
}

// Playable reports whether a card with this status may appear in a deck at
// all. Restricted counts as playable; quantity limits are not policed here.
func (l Legality) Playable() bool {
	return l == LegalityLegal || l == LegalityRestricted
}

// Format is one of Scryfall's tracked constructed formats.
type Format string

const (
	FormatStandard        Format = "standard"
	FormatFuture          Format = "future"
	FormatHistoric        Format = "historic"
	FormatTimeless        Format = "timeless"
	FormatGladiator       Format = "gladiator"
	FormatPioneer         Format = "pioneer"
	FormatExplorer        Format = "explorer"
	FormatModern          Format = "modern"
	FormatLegacy          Format = "legacy"
	FormatPauper          Format = "pauper"
	FormatVintage         Format = "vintage"
	FormatPenny           Format = "penny"
	FormatCommander       Format = "commander"
	FormatOathbreaker     Format = "oathbreaker"
	FormatStandardBrawl   Format = "standardbrawl"
	FormatBrawl           Format = "brawl"
	FormatAlchemy         Format = "alchemy"
	FormatPauperCommander Format = "paupercommander"
	FormatDuel            Format = "duel"
	FormatOldSchool       Format = "oldschool"
	FormatPremodern       Format = "premodern"
	FormatPreDH           Format = "predh"
)

// AllFormats lists every tracked format in display order.
func AllFormats() []Format {
	return []Format{
		FormatStandard, FormatFuture, FormatHistoric, FormatTimeless,
		FormatGladiator, FormatPioneer, FormatExplorer, FormatModern,
		FormatLegacy, FormatPauper, FormatVintage, FormatPenny,
		FormatCommander, FormatOathbreaker, FormatStandardBrawl,
		FormatBrawl, FormatAlchemy, FormatPauperCommander, FormatDuel,
		FormatOldSchool, FormatPremodern, FormatPreDH,
	}
}

var validFormats = func() map[Format]bool {
	m := make(map[Format]bool)
	for _, f := range AllFormats() {
		m[f] = true
	}
	return m
}()

// Legalities maps formats to the card's status in them.
//
// Unknown format keys are ignored rather than failing the record: Scryfall
// adds formats over time and an old binary should keep decoding new dumps.
// Unknown status values still fail the record like any other enum.
type Legalities map[Format]Legality

func (lm *Legalities) UnmarshalJSON(data []byte) error {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Legalities, len(raw))
	for k, v := range raw {
		if !validFormats[Format(k)] {
			continue
		}
		if !validLegalities[Legality(v)] {
			return fmt.Errorf("unknown legality %q for format %q", v, k)
		}
		out[Format(k)] = Legality(v)
	}
	*lm = out
	return nil
}

// Rarity is a printing's rarity tier.
type Rarity string

const (
	RarityCommon   Rarity = "common"
	RarityUncommon Rarity = "uncommon"
	RarityRare     Rarity = "rare"
	RaritySpecial  Rarity = "special"
	RarityMythic   Rarity = "mythic"
	RarityBonus    Rarity = "bonus"
)

var validRarities = map[Rarity]bool{
	RarityCommon: true, RarityUncommon: true, RarityRare: true,
	RaritySpecial: true, RarityMythic: true, RarityBonus: true,
}

func (r *Rarity) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if !validRarities[Rarity(s)] {
		return fmt.Errorf("unknown rarity %q", s)
	}
	*r = Rarity(s)
	return nil
}

// SetType classifies the product a printing appeared in.
type SetType string

var validSetTypes = map[SetType]bool{
	"core": true, "expansion": true, "masters": true, "alchemy": true,
	"masterpiece": true, "arsenal": true, "from_the_vault": true,
	"spellbook": true, "premium_deck": true, "duel_deck": true,
	"draft_innovation": true, "treasure_chest": true, "commander": true,
	"planechase": true, "archenemy": true, "vanguard": true, "funny": true,
	"starter": true, "box": true, "promo": true, "token": true,
	"memorabilia": true, "minigame": true,
}

func (st *SetType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if !validSetTypes[SetType(s)] {
		return fmt.Errorf("unknown set type %q", s)
	}
	*st = SetType(s)
	return nil
}

// Language is a printing's language code.
type Language string

var validLanguages = map[Language]bool{
	"en": true, "es": true, "fr": true, "de": true, "it": true, "pt": true,
	"ja": true, "ko": true, "ru": true, "zhs": true, "zht": true,
	"he": true, "la": true, "grc": true, "ar": true, "sa": true,
	"ph": true, "qya": true,
}

func (l *Language) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if !validLanguages[Language(s)] {
		return fmt.Errorf("unknown language %q", s)
	}
	*l = Language(s)
	return nil
}

// BorderColor is a printing's border treatment.
type BorderColor string

var validBorderColors = map[BorderColor]bool{
	"black": true, "white": true, "borderless": true,
	"silver": true, "gold": true, "yellow": true,
}

func (b *BorderColor) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if !validBorderColors[BorderColor(s)] {
		return fmt.Errorf("unknown border color %q", s)
	}
	*b = BorderColor(s)
	return nil
}

// Finish is a physical finish a printing is available in.
type Finish string

var validFinishes = map[Finish]bool{
	"foil": true, "nonfoil": true, "etched": true, "glossy": true,
}

func (f *Finish) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if !validFinishes[Finish(s)] {
		return fmt.Errorf("unknown finish %q", s)
	}
	*f = Finish(s)
	return nil
}

// Currency selects which market price column the tool reports.
type Currency string

const (
	CurrencyUSD  Currency = "USD"
	CurrencyEuro Currency = "Euro"
	CurrencyTix  Currency = "Tix"
)

// Valid reports whether c is a recognized currency token.
func (c Currency) Valid() bool {
	return c == CurrencyUSD || c == CurrencyEuro || c == CurrencyTix
}

// Symbol returns the prefix used when displaying an amount.
func (c Currency) Symbol() string {
	switch c {
	case CurrencyEuro:
		return "€"
	case CurrencyTix:
		return "Tix "
	default:
		return "$"
	}
}

// Prices carries a printing's market prices exactly as Scryfall delivers
// them: decimal strings, empty when unavailable. Kept verbatim so the
// null/empty distinction survives until aggregation needs a number.
type Prices struct {
	USD       string `json:"usd"`
	USDFoil   string `json:"usd_foil"`
	USDEtched string `json:"usd_etched"`
	EUR       string `json:"eur"`
	EURFoil   string `json:"eur_foil"`
	Tix       string `json:"tix"`
}

// Amount returns the raw price string for the given currency.
func (p Prices) Amount(c Currency) string {
	switch c {
	case CurrencyEuro:
		return p.EUR
	case CurrencyTix:
		return p.Tix
	default:
		return p.USD
	}
}

// ImageURIs holds the card image links from a bulk record.
type ImageURIs struct {
	Small      string `json:"small"`
	Normal     string `json:"normal"`
	Large      string `json:"large"`
	PNG        string `json:"png"`
	ArtCrop    string `json:"art_crop"`
	BorderCrop string `json:"border_crop"`
}

// ScryfallCard is one record of the oracle-cards bulk file. Only a handful
// of fields drive this tool (name, layout, legalities, prices); the rest
// ride along with lenient defaults so future features can reach them
// without another bulk format change.
type ScryfallCard struct {
	ID              string      `json:"id"`
	OracleID        string      `json:"oracle_id"`
	Name            string      `json:"name"`
	Lang            Language    `json:"lang"`
	ReleasedAt      string      `json:"released_at"`
	Layout          Layout      `json:"layout"`
	ImageURIs       *ImageURIs  `json:"image_uris"`
	ManaCost        string      `json:"mana_cost"`
	CMC             float64     `json:"cmc"`
	TypeLine        string      `json:"type_line"`
	OracleText      string      `json:"oracle_text"`
	Colors          []string    `json:"colors"`
	ColorIdentity   []string    `json:"color_identity"`
	Keywords        []string    `json:"keywords"`
	Legalities      Legalities  `json:"legalities"`
	Reserved        bool        `json:"reserved"`
	Finishes        []Finish    `json:"finishes"`
	Oversized       bool        `json:"oversized"`
	Promo           bool        `json:"promo"`
	Reprint         bool        `json:"reprint"`
	SetID           string      `json:"set_id"`
	Set             string      `json:"set"`
	SetName         string      `json:"set_name"`
	SetType         SetType     `json:"set_type"`
	CollectorNumber string      `json:"collector_number"`
	Digital         bool        `json:"digital"`
	Rarity          Rarity      `json:"rarity"`
	FlavorText      string      `json:"flavor_text"`
	Artist          string      `json:"artist"`
	BorderColor     BorderColor `json:"border_color"`
	FullArt         bool        `json:"full_art"`
	Textless        bool        `json:"textless"`
	EDHRECRank      int64       `json:"edhrec_rank"`
	Prices          Prices      `json:"prices"`
}
