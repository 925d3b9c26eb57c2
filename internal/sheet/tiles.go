package sheet

import (
	"fmt"
	"math"
	"sort"

	"rollsheet/internal/store"
)

type TileKind string

const (
	TileHP         TileKind = "hp"
	TileArmor      TileKind = "armor"
	TileInitiative TileKind = "initiative"
	TileSimple     TileKind = "simple"
	TileExtra      TileKind = "extra"
	TileStat       TileKind = "stat"
)

type Tile struct {
	Kind  TileKind
	Label string
	Value string
	Sub   string
	// Percent is only set for the HP meter.
	Percent int
}

// View is everything the sheet page shows for one character.
type View struct {
	Name      string
	System    string
	RoleClass string
	Level     int
	Stats     []Tile
	Derived   []Tile
}

func Build(ch store.Character) View {
	return View{
		Name:      ch.Name,
		System:    ch.System,
		RoleClass: ch.RoleClass,
		Level:     ch.Level,
		Stats:     StatTiles(ch.Stats),
		Derived:   DerivedTiles(ch.Derived),
	}
}

// StatTiles renders every stat in key order.
func StatTiles(stats map[string]any) []Tile {
	keys := sortedKeys(stats)
	tiles := make([]Tile, 0, len(keys))
	for _, k := range keys {
		tiles = append(tiles, Tile{Kind: TileStat, Label: k, Value: Format(stats[k])})
	}
	return tiles
}

// DerivedTiles renders HP, armor, initiative and the simple fields, then every
// unreserved key as a generic tile.
func DerivedTiles(derived map[string]any) []Tile {
	var tiles []Tile
	if t, ok := hpTile(derived); ok {
		tiles = append(tiles, t)
	}
	if t, ok := armorTile(derived); ok {
		tiles = append(tiles, t)
	}
	if t, ok := initiativeTile(derived); ok {
		tiles = append(tiles, t)
	}
	for _, f := range simpleFields {
		if v, ok := Lookup(derived, f.aliases); ok {
			tiles = append(tiles, Tile{Kind: TileSimple, Label: f.label, Value: v.Text()})
		}
	}
	for _, k := range sortedKeys(derived) {
		if IsReserved(k) || derived[k] == nil {
			continue
		}
		tiles = append(tiles, Tile{Kind: TileExtra, Label: k, Value: Format(derived[k])})
	}
	return tiles
}

func hpTile(derived map[string]any) (Tile, bool) {
	maxV, ok := Lookup(derived, HPMax)
	if !ok {
		return Tile{}, false
	}
	curV, ok := Lookup(derived, HPCurrent)
	if !ok {
		return Tile{}, false
	}
	return Tile{
		Kind:    TileHP,
		Label:   "HP",
		Value:   fmt.Sprintf("%s / %s", curV.Text(), maxV.Text()),
		Percent: hpPercent(curV, maxV),
	}, true
}

// hpPercent is clamped to [0, 100]. Non-numeric or zero maxima give 0.
func hpPercent(cur, max Value) int {
	c, ok := cur.Number()
	if !ok {
		return 0
	}
	m, ok := max.Number()
	if !ok || m == 0 {
		return 0
	}
	pct := int(math.Round(c / m * 100))
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

func armorTile(derived map[string]any) (Tile, bool) {
	if v, ok := Lookup(derived, ArmorOverall); ok && !v.IsObject() {
		return Tile{Kind: TileArmor, Label: "Armor", Value: "SP " + v.Text()}, true
	}
	head, hasHead := Lookup(derived, ArmorHead)
	body, hasBody := Lookup(derived, ArmorBody)
	switch {
	case hasHead && hasBody:
		return Tile{Kind: TileArmor, Label: "Armor", Value: "Head SP " + head.Text() + " • Body SP " + body.Text()}, true
	case hasHead:
		return Tile{Kind: TileArmor, Label: "Armor", Value: "Head SP " + head.Text()}, true
	case hasBody:
		return Tile{Kind: TileArmor, Label: "Armor", Value: "Body SP " + body.Text()}, true
	}
	return Tile{}, false
}

// initiativeTile only renders the object form {last, expression}.
func initiativeTile(derived map[string]any) (Tile, bool) {
	v, ok := Lookup(derived, Initiative)
	if !ok || !v.IsObject() {
		return Tile{}, false
	}
	t := Tile{Kind: TileInitiative, Label: "Initiative", Value: "—"}
	if last, ok := v.Field("last"); ok {
		t.Value = last.Text()
	}
	if expr, ok := v.Field("expression"); ok {
		t.Sub = expr.Text()
	}
	return t, true
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
