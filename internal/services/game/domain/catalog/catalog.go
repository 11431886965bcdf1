// Package catalog loads the immutable card and scene-tile tables.
//
// A Catalog is built once at startup and injected wherever card text or
// tile options are needed; there is no package-level instance.
package catalog

import (
	"embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"slices"
	"strings"
)

//go:embed data/*.csv
var defaultFS embed.FS

const (
	meansFile = "means.csv"
	cluesFile = "clues.csv"
	tilesFile = "tiles.csv"

	locationPrefix = "location"
	causePrefix    = "cause of death"
)

// ErrDuplicateID indicates two rows sharing an id.
var ErrDuplicateID = errors.New("duplicate catalog id")

// Card is one means or clue card.
type Card struct {
	ID   string
	Name string
}

// CardList is an ordered, id-indexed set of cards.
type CardList struct {
	cards  []Card
	byID   map[string]Card
	byName map[string]Card
}

// NewCardList indexes cards, rejecting duplicate ids.
func NewCardList(cards []Card) (CardList, error) {
	list := CardList{
		cards:  slices.Clone(cards),
		byID:   make(map[string]Card, len(cards)),
		byName: make(map[string]Card, len(cards)),
	}
	for _, card := range cards {
		if _, ok := list.byID[card.ID]; ok {
			return CardList{}, fmt.Errorf("%w: %s", ErrDuplicateID, card.ID)
		}
		list.byID[card.ID] = card
		list.byName[normalize(card.Name)] = card
	}
	return list, nil
}

// Len returns the number of cards.
func (l CardList) Len() int { return len(l.cards) }

// IDs returns card ids in file order.
func (l CardList) IDs() []string {
	ids := make([]string, len(l.cards))
	for i, card := range l.cards {
		ids[i] = card.ID
	}
	return ids
}

// Get returns the card with id.
func (l CardList) Get(id string) (Card, bool) {
	card, ok := l.byID[id]
	return card, ok
}

// Name returns the card name for id, or id itself when unknown.
func (l CardList) Name(id string) string {
	if card, ok := l.byID[id]; ok {
		return card.Name
	}
	return id
}

// Lookup finds a card by id or by name, ignoring case and surrounding space.
func (l CardList) Lookup(value string) (Card, bool) {
	if card, ok := l.byID[strings.TrimSpace(value)]; ok {
		return card, true
	}
	card, ok := l.byName[normalize(value)]
	return card, ok
}

// TileOption is one selectable line on a scene tile.
type TileOption struct {
	ID     string
	Tile   string
	Option string
}

// TileSet indexes scene tile options.
type TileSet struct {
	options []TileOption
	byID    map[string]TileOption
	tiles   []string
}

// NewTileSet indexes options, rejecting duplicate ids.
func NewTileSet(options []TileOption) (TileSet, error) {
	set := TileSet{
		options: slices.Clone(options),
		byID:    make(map[string]TileOption, len(options)),
	}
	for _, opt := range options {
		if _, ok := set.byID[opt.ID]; ok {
			return TileSet{}, fmt.Errorf("%w: %s", ErrDuplicateID, opt.ID)
		}
		set.byID[opt.ID] = opt
		if !slices.Contains(set.tiles, opt.Tile) {
			set.tiles = append(set.tiles, opt.Tile)
		}
	}
	slices.Sort(set.tiles)
	return set, nil
}

// Get returns the option with id.
func (s TileSet) Get(id string) (TileOption, bool) {
	opt, ok := s.byID[id]
	return opt, ok
}

// Text returns the option text for id, or id itself when unknown.
func (s TileSet) Text(id string) string {
	if opt, ok := s.byID[id]; ok {
		return opt.Option
	}
	return id
}

// Tiles returns tile names sorted.
func (s TileSet) Tiles() []string { return slices.Clone(s.tiles) }

// OptionsFor returns the options on tile in file order.
func (s TileSet) OptionsFor(tile string) []TileOption {
	var out []TileOption
	for _, opt := range s.options {
		if opt.Tile == tile {
			out = append(out, opt)
		}
	}
	return out
}

// OptionIDs returns the option ids on tile in file order.
func (s TileSet) OptionIDs(tile string) []string {
	opts := s.OptionsFor(tile)
	ids := make([]string, len(opts))
	for i, opt := range opts {
		ids[i] = opt.ID
	}
	return ids
}

// LocationTiles returns the tiles whose name starts with "Location".
func (s TileSet) LocationTiles() []string { return s.withPrefix(locationPrefix) }

// CauseTiles returns the tiles whose name starts with "Cause of Death".
func (s TileSet) CauseTiles() []string { return s.withPrefix(causePrefix) }

func (s TileSet) withPrefix(prefix string) []string {
	var out []string
	for _, tile := range s.tiles {
		if strings.HasPrefix(normalize(tile), prefix) {
			out = append(out, tile)
		}
	}
	return out
}

// Catalog is the full content table.
type Catalog struct {
	Means CardList
	Clues CardList
	Tiles TileSet
}

// Default loads the catalog shipped with the binary.
func Default() (Catalog, error) {
	sub, err := fs.Sub(defaultFS, "data")
	if err != nil {
		return Catalog{}, fmt.Errorf("open embedded catalog: %w", err)
	}
	return Load(sub)
}

// Load reads means.csv, clues.csv, and tiles.csv from fsys.
func Load(fsys fs.FS) (Catalog, error) {
	means, err := loadCards(fsys, meansFile)
	if err != nil {
		return Catalog{}, err
	}
	clues, err := loadCards(fsys, cluesFile)
	if err != nil {
		return Catalog{}, err
	}
	tiles, err := loadTiles(fsys, tilesFile)
	if err != nil {
		return Catalog{}, err
	}
	return Catalog{Means: means, Clues: clues, Tiles: tiles}, nil
}

func loadCards(fsys fs.FS, name string) (CardList, error) {
	rows, err := readRows(fsys, name, 2)
	if err != nil {
		return CardList{}, err
	}
	cards := make([]Card, 0, len(rows))
	for _, row := range rows {
		cards = append(cards, Card{ID: row[0], Name: row[1]})
	}
	list, err := NewCardList(cards)
	if err != nil {
		return CardList{}, fmt.Errorf("load %s: %w", name, err)
	}
	return list, nil
}

func loadTiles(fsys fs.FS, name string) (TileSet, error) {
	rows, err := readRows(fsys, name, 3)
	if err != nil {
		return TileSet{}, err
	}
	options := make([]TileOption, 0, len(rows))
	for _, row := range rows {
		options = append(options, TileOption{ID: row[0], Tile: row[1], Option: row[2]})
	}
	set, err := NewTileSet(options)
	if err != nil {
		return TileSet{}, fmt.Errorf("load %s: %w", name, err)
	}
	return set, nil
}

// readRows returns trimmed data rows, skipping the header and blank ids.
func readRows(fsys fs.FS, name string, columns int) ([][]string, error) {
	file, err := fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = columns
	reader.TrimLeadingSpace = true

	var rows [][]string
	header := true
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		if header {
			header = false
			continue
		}
		for i := range record {
			record[i] = strings.TrimSpace(record[i])
		}
		if record[0] == "" {
			continue
		}
		rows = append(rows, record)
	}
	return rows, nil
}

func normalize(value string) string {
	return strings.ToLower(strings.Join(strings.Fields(value), " "))
}
