package records

import (
	"fmt"
	"slices"
	"strings"
)

var itemTypes = map[int]string{
	0:  "Healing item",
	2:  "Usable item",
	3:  "Etc item",
	4:  "Weapon",
	5:  "Armor",
	6:  "Card",
	7:  "Pet egg",
	8:  "Pet equipment",
	10: "Ammo",
	11: "Delayed Usable",
	18: "Usable with Confirmation",
}

const (
	TypeWeapon = 4
	TypeArmor  = 5
	TypeAmmo   = 10
)

var weaponSubtypes = []string{
	"Bare fist", "Daggers", "One-handed swords", "Two-handed swords",
	"One-handed spears", "Two-handed spears", "One-handed axes", "Two-handed axes",
	"Maces", "Unused", "Staves", "Bows", "Knuckles", "Musical instruments",
	"Whips", "Books", "Katars", "Revolvers", "Rifles", "Gatling guns",
	"Shotguns", "Grenade launchers", "Fuuma shurikens", "Two-handed staves",
}

var ammoSubtypes = map[int]string{
	1: "Arrows",
	2: "Throwable daggers",
	3: "Bullets",
	4: "Shells",
	5: "Grenades",
	6: "Shuriken",
	7: "Kunai",
	8: "Cannon balls",
	9: "Throwable items",
}

var jobs = []string{
	"Novice", "Swordman", "Magician", "Archer", "Acolyte", "Merchant", "Thief",
	"Knight", "Priest", "Wizard", "Blacksmith", "Hunter", "Assassin", "Unused",
	"Crusader", "Monk", "Sage", "Rogue", "Alchemist", "Bard/Dancer", "Unused",
	"Taekwon", "Star Gladiator", "Soul Linker", "Gunslinger", "Ninja", "Gangsi",
	"Death Knight", "Dark Collector", "Kagerou/Oboro", "Rebellion", "Summoner",
}

var upperTypes = []string{
	"Normal jobs", "Transcended jobs", "Baby jobs", "Third jobs",
	"Transcended Third jobs", "Baby Third jobs",
}

var equipLocations = []string{
	"Lower Headgear", "Weapon", "Garment", "Accessory 1", "Armor", "Shield",
	"Both Hands", "Footgear", "Accessory 2", "Upper Headgear", "Middle Headgear",
	"Costume Top Headgear", "Costume Mid Headgear", "Costume Low Headgear",
	"Costume Garment/Robe", "Ammunition", "Shadow Armor", "Shadow Weapon",
	"Shadow Shield", "Shadow 2H Weapon", "Shadow Shoes", "Shadow Accessory 2",
	"Shadow Accessory 1", "Shadow Accessories",
}

var mobSizes = []string{"Small", "Medium", "Large"}

var mobModes = []string{
	"CANMOVE", "LOOTER", "AGGRESSIVE", "ASSIST", "CASTSENSOR_IDLE", "BOSS",
	"PLANT", "CANATTACK", "DETECTOR", "CASTSENSOR_CHASE", "CHANGECHASE", "ANGRY",
	"CHANGETARGET_MELEE", "CHANGETARGET_CHASE", "TARGETWEAK", "NOKNOCKBACK",
	"RANDOMTARGET",
}

var mobRaces = []string{
	"Formless", "Undead", "Brute", "Plant", "Insect", "Fish", "Demon",
	"Demi-Human", "Angel", "Dragon",
}

var mobElements = []string{
	"Neutral", "Water", "Earth", "Fire", "Wind", "Poison", "Holy", "Shadow",
	"Ghost", "Undead",
}

func unknown(v int) string {
	return fmt.Sprintf("Unknown (%d)", v)
}

func fromList(list []string, v int) string {
	if v < 0 || v >= len(list) {
		return unknown(v)
	}
	return list[v]
}

func ItemTypeName(t int) string {
	if name, ok := itemTypes[t]; ok {
		return name
	}
	return unknown(t)
}

// ItemTypes returns the known item type ids in ascending order
func ItemTypes() []int {
	types := make([]int, 0, len(itemTypes))
	for t := range itemTypes {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}

// SubtypeName names weapon and ammo subtypes, other types have none
func SubtypeName(itemType, subtype int) string {
	switch itemType {
	case TypeWeapon:
		return WeaponSubtypeName(subtype)
	case TypeAmmo:
		return AmmoSubtypeName(subtype)
	default:
		return ""
	}
}

func WeaponSubtypeName(subtype int) string { return fromList(weaponSubtypes, subtype) }

func AmmoSubtypeName(subtype int) string {
	if name, ok := ammoSubtypes[subtype]; ok {
		return name
	}
	return unknown(subtype)
}

func JobName(job int) string           { return fromList(jobs, job) }
func EquipLocationName(loc int) string { return fromList(equipLocations, loc) }
func SizeName(size int) string         { return fromList(mobSizes, size) }
func ModeName(mode int) string         { return fromList(mobModes, mode) }
func RaceName(race int) string         { return fromList(mobRaces, race) }
func ElementName(element int) string   { return fromList(mobElements, element) }

// EquipLocationsText lists equip locations, cut to 30 characters
func EquipLocationsText(locations []int) string {
	names := make([]string, 0, len(locations))
	for _, loc := range locations {
		names = append(names, EquipLocationName(loc))
	}
	text := strings.Join(names, ", ")
	if len(text) > 30 {
		return text[:27] + "..."
	}
	return text
}

// UpperTypesText summarizes which job tiers may equip an item
func UpperTypesText(upper []int) string {
	var present, missing []int
	for t := range upperTypes {
		if slices.Contains(upper, t) {
			present = append(present, t)
		} else {
			missing = append(missing, t)
		}
	}

	if len(missing) == 0 {
		return "All"
	}

	if len(missing) > 2 || slices.Contains(missing, 0) {
		var names []string
		for _, t := range present {
			// baby tiers follow their parent tier
			if t == 2 || t == 5 {
				continue
			}
			names = append(names, upperTypes[t])
		}
		return "Only " + strings.Join(names, ", ")
	}

	names := make([]string, 0, len(missing))
	for _, t := range missing {
		names = append(names, upperTypes[t])
	}
	return "All except " + strings.Join(names, ", ")
}
