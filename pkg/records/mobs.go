package records

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/tidwall/gjson"
)

const (
	maxNormalDrops = 10
	maxMVPDrops    = 3

	// ModeBoss is the mode bit marking boss monsters
	ModeBoss = 5
)

// MobCatalog is the normalized monster database with its race index
type MobCatalog struct {
	Records map[string]*Mob
	// Races maps a race id to its mob ids in dump order
	Races map[int][]string
}

// BuildMobs normalizes a monster database dump. names optionally overrides the
// display name per mob id.
func BuildMobs(dump []byte, names map[string]string) (*MobCatalog, error) {
	list, err := entities(dump, "mobs", "Body")
	if err != nil {
		return nil, err
	}

	catalog := &MobCatalog{
		Records: make(map[string]*Mob, len(list)),
		Races:   make(map[int][]string),
	}

	skipped := 0
	for _, raw := range list {
		id := idField(raw, "ID", "id", "Id")
		if id == "" {
			skipped++
			continue
		}

		mob := &Mob{
			ID:     id,
			Sprite: stringField(raw, "Sprite", "sprite", "AegisName"),
			Name2:  stringField(raw, "iROName", "name2", "JapaneseName"),
			Level:  intField(raw, "LV", "lvl", "Level"),
			HP:     intField(raw, "HP", "hp", "Hp"),
			SP:     intField(raw, "SP", "sp", "Sp"),
			Atk:    intField(raw, "ATK1", "atk", "Attack"),
			Atk2:   intField(raw, "ATK2", "atk2", "Attack2"),
			Def:    intField(raw, "DEF", "def", "Defense"),
			Mdef:   intField(raw, "MDEF", "mdef", "MagicDefense"),
			Str:    intField(raw, "STR", "str", "Str"),
			Agi:    intField(raw, "AGI", "agi", "Agi"),
			Vit:    intField(raw, "VIT", "vit", "Vit"),
			Int:    intField(raw, "INT", "int", "Int"),
			Dex:    intField(raw, "DEX", "dex", "Dex"),
			Luk:    intField(raw, "LUK", "luk", "Luk"),
			Exp:    intField(raw, "EXP", "exp", "BaseExp"),
			JExp:   intField(raw, "JEXP", "jexp", "JobExp"),
			MExp:   intField(raw, "MEXP", "mexp", "MvpExp"),
			Race:   intField(raw, "Race", "race"),
			Size:   intField(raw, "Scale", "size", "Size"),
			Modes:  bitsField(raw, "Mode", "mode", "modes"),
			Drops:  dropTable(raw),
		}

		mob.Name = names[id]
		if mob.Name == "" {
			mob.Name = stringField(raw, "kROName", "name", "Name")
		}

		// element is packed as level*20 + element
		element := intField(raw, "Element", "element")
		mob.Element = element % 20
		mob.ElementLevel = element / 20
		if lvl := field(raw, "element_level", "ElementLevel"); lvl.Exists() {
			mob.ElementLevel = int(lvl.Int())
		}
		mob.Boss = slices.Contains(mob.Modes, ModeBoss)

		if _, seen := catalog.Records[id]; !seen {
			catalog.Races[mob.Race] = append(catalog.Races[mob.Race], id)
		}
		catalog.Records[id] = mob
	}

	slog.Info("Built mob records", "records", len(catalog.Records), "skipped", skipped, "races", len(catalog.Races))
	return catalog, nil
}

func dropEntry(raw gjson.Result, kind DropKind, idKey, perKey string) (Drop, bool) {
	id := intField(raw, idKey)
	per := intField(raw, perKey)
	if id == 0 || per == 0 {
		return Drop{}, false
	}
	return Drop{ID: id, Type: kind, Per: per}, true
}

// dropTable collects the generic, card and MVP drop slots of a raw mob.
// Slots are scanned from index 0 so both zero- and one-based dumps work.
func dropTable(raw gjson.Result) []Drop {
	drops := []Drop{}

	normal := 0
	for n := 0; n <= maxNormalDrops && normal < maxNormalDrops; n++ {
		if d, ok := dropEntry(raw, DropNormal, fmt.Sprintf("Drop%did", n), fmt.Sprintf("Drop%dper", n)); ok {
			drops = append(drops, d)
			normal++
		}
	}

	if d, ok := dropEntry(raw, DropCard, "DropCardid", "DropCardper"); ok {
		drops = append(drops, d)
	}

	mvp := 0
	for n := 0; n <= maxMVPDrops && mvp < maxMVPDrops; n++ {
		if d, ok := dropEntry(raw, DropMVP, fmt.Sprintf("MVP%did", n), fmt.Sprintf("MVP%dper", n)); ok {
			drops = append(drops, d)
			mvp++
		}
	}

	return drops
}

// NameDesc returns the name rows of every named mob in id order, the
// secondary name stands in for the description.
func (c *MobCatalog) NameDesc() []NameDesc {
	rows := []NameDesc{}
	for _, id := range SortedIDs(c.Records) {
		mob := c.Records[id]
		if mob.Name == "" {
			continue
		}
		rows = append(rows, NameDesc{ID: id, Name: mob.Name, Description: mob.Name2})
	}
	return rows
}
