package records

import (
	"log/slog"

	"github.com/iziplay/rodb/pkg/table"
)

// ItemCatalog is the normalized item database with its type index
type ItemCatalog struct {
	Records map[string]*Item
	// Types maps an item type to its ids in dump order
	Types map[int][]string
}

// BuildItems joins an item database dump with the name and description tables.
// Ids present in both tables but missing from the dump still get a record.
func BuildItems(dump []byte, names map[string]string, descriptions map[string]table.Description) (*ItemCatalog, error) {
	list, err := entities(dump, "items", "Body")
	if err != nil {
		return nil, err
	}

	catalog := &ItemCatalog{
		Records: make(map[string]*Item, len(list)),
		Types:   make(map[int][]string),
	}

	skipped := 0
	for _, raw := range list {
		id := idField(raw, "id", "Id", "ID")
		if id == "" {
			skipped++
			continue
		}

		item := &Item{
			ID:            id,
			Codename1:     stringField(raw, "codename1", "aegis_name", "AegisName"),
			Codename2:     stringField(raw, "codename2", "name_english", "Name"),
			Type:          intField(raw, "type", "Type"),
			Subtype:       intField(raw, "subtype", "view", "View"),
			Atk:           intField(raw, "atk", "Attack"),
			Matk:          intField(raw, "matk", "MagicAttack"),
			Defence:       intField(raw, "defence", "def", "Defense"),
			PriceBuy:      intField(raw, "price_buy", "Buy"),
			PriceSell:     intField(raw, "price_sell", "Sell"),
			Weight:        intField(raw, "weight", "Weight"),
			Slots:         intField(raw, "slots", "Slots"),
			EquipLevelMin: intField(raw, "equip_level_min", "EquipLevelMin"),
			EquipLevelMax: intField(raw, "equip_level_max", "EquipLevelMax"),
			WeaponLevel:   intField(raw, "weapon_level", "WeaponLevel"),
			StackAmount:   intField(raw, "stack_amount", "StackAmount"),
			Refinable:     boolField(raw, "refinable", "Refineable"),
			Script:        stringField(raw, "script", "Script"),

			EquipJobs:      bitsField(raw, "equip_jobs", "Job"),
			EquipLocations: bitsField(raw, "equip_locations", "Loc"),
			EquipUpper:     bitsField(raw, "equip_upper", "Upper"),
		}

		item.Name = names[id]
		if item.Name == "" {
			item.Name = stringField(raw, "name", "codename1")
		}
		if desc, ok := descriptions[id]; ok {
			item.Description = desc.Raw
			item.SearchText = desc.Normalized
		}

		if _, seen := catalog.Records[id]; !seen {
			catalog.Types[item.Type] = append(catalog.Types[item.Type], id)
		}
		catalog.Records[id] = item
	}

	added := 0
	for _, id := range SortedIDs(names) {
		if _, ok := catalog.Records[id]; ok {
			continue
		}
		desc, ok := descriptions[id]
		if !ok {
			continue
		}
		catalog.Records[id] = &Item{
			ID:             id,
			Name:           names[id],
			Description:    desc.Raw,
			SearchText:     desc.Normalized,
			EquipJobs:      []int{},
			EquipLocations: []int{},
			EquipUpper:     []int{},
		}
		added++
	}

	slog.Info("Built item records", "records", len(catalog.Records), "tableOnly", added, "skipped", skipped, "types", len(catalog.Types))
	return catalog, nil
}

// NameDesc returns the name/description rows of every named item in id order
func (c *ItemCatalog) NameDesc() []NameDesc {
	rows := []NameDesc{}
	for _, id := range SortedIDs(c.Records) {
		item := c.Records[id]
		if item.Name == "" {
			continue
		}
		rows = append(rows, NameDesc{ID: id, Name: item.Name, Description: item.Description})
	}
	return rows
}
