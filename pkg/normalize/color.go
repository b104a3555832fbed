package normalize

import "strings"

// DefaultColor is the color of text before the first escape
const DefaultColor = "000000"

// Segment is a run of description text drawn in a single color
type Segment struct {
	Color string `json:"color"`
	Text  string `json:"text"`
}

// ColorSegments splits a raw description into colored runs. Each "^RRGGBB"
// escape switches the color of the text that follows it.
func ColorSegments(text string) []Segment {
	var segments []Segment
	color := DefaultColor

	for len(text) > 0 {
		loc := colorPattern.FindStringIndex(text)
		if loc == nil {
			segments = append(segments, Segment{Color: color, Text: text})
			break
		}
		if loc[0] > 0 {
			segments = append(segments, Segment{Color: color, Text: text[:loc[0]]})
		}
		color = strings.ToUpper(text[loc[0]+1 : loc[1]])
		text = text[loc[1]:]
	}

	return segments
}
