package records

// Item is one normalized entry of the item database
type Item struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Codename1   string `json:"codename1"`
	Codename2   string `json:"codename2"`
	Description string `json:"description"`
	SearchText  string `json:"search_text"`

	Type          int    `json:"type"`
	Subtype       int    `json:"subtype"`
	Atk           int    `json:"atk"`
	Matk          int    `json:"matk"`
	Defence       int    `json:"defence"`
	PriceBuy      int    `json:"price_buy"`
	PriceSell     int    `json:"price_sell"`
	Weight        int    `json:"weight"`
	Slots         int    `json:"slots"`
	EquipLevelMin int    `json:"equip_level_min"`
	EquipLevelMax int    `json:"equip_level_max"`
	WeaponLevel   int    `json:"weapon_level"`
	StackAmount   int    `json:"stack_amount"`
	Refinable     bool   `json:"refinable"`
	Script        string `json:"script"`

	EquipJobs      []int `json:"equip_jobs"`
	EquipLocations []int `json:"equip_locations"`
	EquipUpper     []int `json:"equip_upper"`
}

// Displayable reports whether the item can be shown in search results.
// hasIcon tells whether the icon descriptor maps the item.
func (i *Item) Displayable(hasIcon bool) bool {
	return i.Name != "" && i.Description != "" && hasIcon
}

// DropKind classifies where a mob drop comes from
type DropKind string

const (
	DropNormal DropKind = "normal"
	DropCard   DropKind = "card"
	DropMVP    DropKind = "mvp"
)

// Drop is a single drop table entry, Per is in per-mille
type Drop struct {
	ID   int      `json:"id"`
	Type DropKind `json:"type"`
	Per  int      `json:"per"`
}

// Percent converts the per-mille rate for display. Rates above 1000 are
// clamped, upstream data can exceed it when rate multipliers are applied.
func (d Drop) Percent() float64 {
	return float64(min(d.Per, 1000)) / 10
}

// Mob is one normalized entry of the monster database
type Mob struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Name2  string `json:"name2"`
	Sprite string `json:"sprite"`

	Level int `json:"lvl"`
	HP    int `json:"hp"`
	SP    int `json:"sp"`
	Atk   int `json:"atk"`
	Atk2  int `json:"atk2"`
	Def   int `json:"def"`
	Mdef  int `json:"mdef"`
	Str   int `json:"str"`
	Agi   int `json:"agi"`
	Vit   int `json:"vit"`
	Int   int `json:"int"`
	Dex   int `json:"dex"`
	Luk   int `json:"luk"`
	Exp   int `json:"exp"`
	JExp  int `json:"jexp"`
	MExp  int `json:"mexp"`

	Element      int   `json:"element"`
	ElementLevel int   `json:"element_level"`
	Race         int   `json:"race"`
	Size         int   `json:"size"`
	Modes        []int `json:"modes"`
	Boss         bool  `json:"boss"`

	Drops []Drop `json:"drop"`
}

// Displayable reports whether the mob can be shown in search results.
// hasSprite tells whether the sprite descriptor maps the mob.
func (m *Mob) Displayable(hasSprite bool) bool {
	return m.Name != "" && hasSprite
}

// NameDesc is the flat name/description row shipped next to the record store
type NameDesc struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}
