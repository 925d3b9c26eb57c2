// Package sheet turns loosely keyed character JSON into display tiles.
package sheet

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Aliases lists the candidate keys for one concept in priority order.
// A dotted key such as "hp.max" walks into nested objects.
type Aliases []string

var (
	HPMax        = Aliases{"hp_max", "max_hp", "hpMax", "hp.max"}
	HPCurrent    = Aliases{"hp_current", "current_hp", "hpNow", "hp.current"}
	ArmorOverall = Aliases{"armor", "sp", "armor_sp"}
	ArmorHead    = Aliases{"armor_head", "head_armor", "armor.head"}
	ArmorBody    = Aliases{"armor_body", "body_armor", "armor.body"}
	Initiative   = Aliases{"initiative"}
)

// simpleFields are rendered as plain tiles in this order.
var simpleFields = []struct {
	label   string
	aliases Aliases
}{
	{"Move", Aliases{"move", "MOVE"}},
	{"Speed", Aliases{"speed", "SPEED"}},
	{"Reflex", Aliases{"reflex", "REFLEX"}},
	{"Humanity", Aliases{"humanity", "HUMANITY"}},
	{"Emp", Aliases{"emp", "EMP"}},
	{"Luck", Aliases{"luck", "LUCK"}},
}

// reserved keys never show up as generic tiles.
var reserved = map[string]struct{}{}

func init() {
	for _, k := range []string{
		"hp", "hp_max", "max_hp", "hpMax", "hp_current", "current_hp", "hpNow",
		"armor", "armor_head", "armor_body", "head_armor", "body_armor", "sp", "armor_sp",
		"initiative", "move", "speed", "reflex", "humanity", "emp", "luck",
		"HP", "Armor", "Initiative", "Move", "Speed", "Reflex", "Humanity", "EMP", "Luck",
	} {
		reserved[k] = struct{}{}
	}
	for _, f := range simpleFields {
		for _, k := range f.aliases {
			reserved[k] = struct{}{}
		}
	}
}

// IsReserved reports whether key is claimed by a dedicated tile.
func IsReserved(key string) bool {
	_, ok := reserved[key]
	return ok
}

// Value is a field found in a document together with the key that matched.
type Value struct {
	Key string
	Raw any
}

// Number converts numeric values and numeric strings.
func (v Value) Number() (float64, bool) {
	switch n := v.Raw.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

func (v Value) IsObject() bool {
	_, ok := v.Raw.(map[string]any)
	return ok
}

func (v Value) Field(name string) (Value, bool) {
	obj, ok := v.Raw.(map[string]any)
	if !ok {
		return Value{}, false
	}
	raw, ok := obj[name]
	if !ok || raw == nil {
		return Value{}, false
	}
	return Value{Key: v.Key + "." + name, Raw: raw}, true
}

// Text renders the value the way a tile shows it. Objects and arrays become JSON.
func (v Value) Text() string {
	return Format(v.Raw)
}

// Lookup returns the first alias present in doc. JSON null counts as absent.
func Lookup(doc map[string]any, aliases Aliases) (Value, bool) {
	for _, key := range aliases {
		if raw, ok := walk(doc, key); ok {
			return Value{Key: key, Raw: raw}, true
		}
	}
	return Value{}, false
}

func walk(doc map[string]any, key string) (any, bool) {
	if doc == nil {
		return nil, false
	}
	if raw, ok := doc[key]; ok {
		return raw, raw != nil
	}
	head, rest, found := strings.Cut(key, ".")
	if !found {
		return nil, false
	}
	child, ok := doc[head].(map[string]any)
	if !ok {
		return nil, false
	}
	return walk(child, rest)
}

// Format renders a JSON-decoded value for display.
func Format(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		if v == math.Trunc(v) && math.Abs(v) < 1e15 {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case map[string]any, []any:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	default:
		return fmt.Sprint(v)
	}
}
