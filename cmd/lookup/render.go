package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/iziplay/rodb/pkg/client"
	"github.com/iziplay/rodb/pkg/normalize"
	"github.com/iziplay/rodb/pkg/records"
)

type renderer struct {
	w     io.Writer
	color bool
}

func (r renderer) printf(format string, args ...any) {
	fmt.Fprintf(r.w, format, args...)
}

func (r renderer) header(session *client.Session, page int) {
	if session.Total() == 0 {
		r.printf("No results\n")
		return
	}
	r.printf("%d result(s), page %d/%d\n\n", session.Total(), page+1, session.Pages())
}

func (r renderer) entry(e client.Entry) {
	switch {
	case e.Item != nil:
		r.item(e)
	case e.Mob != nil:
		r.mob(e)
	default:
		r.printf("#%s (no record)\n\n", e.ID)
	}
}

func (r renderer) item(e client.Entry) {
	item := e.Item
	label := records.ItemTypeName(item.Type)
	if sub := records.SubtypeName(item.Type, item.Subtype); sub != "" {
		label += " / " + sub
	}
	r.printf("#%s %s [%s]%s\n", item.ID, item.Name, label, slots(item.Slots))

	stats := []string{fmt.Sprintf("Weight %d", item.Weight)}
	if item.Atk > 0 {
		stats = append(stats, fmt.Sprintf("Atk %d", item.Atk))
	}
	if item.Matk > 0 {
		stats = append(stats, fmt.Sprintf("Matk %d", item.Matk))
	}
	if item.Defence > 0 {
		stats = append(stats, fmt.Sprintf("Def %d", item.Defence))
	}
	if item.WeaponLevel > 0 {
		stats = append(stats, fmt.Sprintf("Weapon level %d", item.WeaponLevel))
	}
	if item.EquipLevelMin > 0 {
		stats = append(stats, fmt.Sprintf("Required level %d", item.EquipLevelMin))
	}
	if item.Refinable {
		stats = append(stats, "Refinable")
	}
	stats = append(stats, fmt.Sprintf("Buy %dz", item.PriceBuy), fmt.Sprintf("Sell %dz", item.PriceSell))
	r.printf("  %s\n", strings.Join(stats, " | "))

	if len(item.EquipLocations) > 0 {
		r.printf("  Position: %s\n", records.EquipLocationsText(item.EquipLocations))
	}
	if len(item.EquipJobs) > 0 {
		r.printf("  Jobs: %s\n", jobsText(item.EquipJobs))
	}
	if len(item.EquipUpper) > 0 {
		r.printf("  Classes: %s\n", records.UpperTypesText(item.EquipUpper))
	}
	for _, line := range strings.Split(r.description(item.Description), "\n") {
		if strings.TrimSpace(line) != "" {
			r.printf("  %s\n", line)
		}
	}
	r.printf("  Icon: %s\n\n", imageState(e.Image))
}

func (r renderer) mob(e client.Entry) {
	mob := e.Mob
	boss := ""
	if mob.Boss {
		boss = " [Boss]"
	}
	r.printf("#%s %s (Lv %d)%s\n", mob.ID, mob.Name, mob.Level, boss)
	r.printf("  %s | %s %d | %s\n", records.RaceName(mob.Race), records.ElementName(mob.Element), mob.ElementLevel, records.SizeName(mob.Size))
	r.printf("  HP %d | Atk %d-%d | Def %d | Mdef %d | Exp %d | Job %d\n", mob.HP, mob.Atk, mob.Atk2, mob.Def, mob.Mdef, mob.Exp, mob.JExp)

	if len(mob.Modes) > 0 {
		modes := make([]string, len(mob.Modes))
		for i, m := range mob.Modes {
			modes[i] = records.ModeName(m)
		}
		r.printf("  Modes: %s\n", strings.Join(modes, ", "))
	}
	for _, d := range mob.Drops {
		r.printf("  Drop %-6s #%d %s%%\n", d.Type, d.ID, strconv.FormatFloat(d.Percent(), 'f', -1, 64))
	}
	r.printf("  Sprite: %s\n\n", imageState(e.Image))
}

// description renders color escapes as 24-bit ANSI colors, or drops them
func (r renderer) description(raw string) string {
	if !r.color {
		return normalize.StripColors(raw)
	}

	var b strings.Builder
	for _, seg := range normalize.ColorSegments(raw) {
		if seg.Color == normalize.DefaultColor {
			b.WriteString(seg.Text)
			continue
		}
		rgb, err := strconv.ParseUint(seg.Color, 16, 32)
		if err != nil {
			b.WriteString(seg.Text)
			continue
		}
		fmt.Fprintf(&b, "\x1b[38;2;%d;%d;%dm%s\x1b[0m", rgb>>16&0xFF, rgb>>8&0xFF, rgb&0xFF, seg.Text)
	}
	return b.String()
}

func slots(n int) string {
	if n <= 0 {
		return ""
	}
	return fmt.Sprintf(" [%d]", n)
}

func jobsText(jobs []int) string {
	names := make([]string, len(jobs))
	for i, j := range jobs {
		names[i] = records.JobName(j)
	}
	text := strings.Join(names, ", ")
	if len(text) > 60 {
		return text[:57] + "..."
	}
	return text
}

func imageState(url string) string {
	if url == client.Placeholder {
		return "missing"
	}
	if mime, _, ok := strings.Cut(strings.TrimPrefix(url, "data:"), ";"); ok {
		return mime
	}
	return url
}
