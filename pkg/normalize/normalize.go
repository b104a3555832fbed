package normalize

import (
	"regexp"
	"strings"
)

// colorPattern matches inline client color escapes like "^FF0000"
var colorPattern = regexp.MustCompile(`\^[0-9A-Fa-f]{6}`)

// punctuationRuns matches repeated separators left over after joining lines
var punctuationRuns = regexp.MustCompile(`[:._]{2,}`)

// templateLines are the stat label lines the client renders from item data,
// they carry no searchable text of their own.
var templateLines = []*regexp.Regexp{
	regexp.MustCompile(`Type:\s*.+`),
	regexp.MustCompile(`Position:\s*.+`),
	regexp.MustCompile(`Defence:\s*\d+`),
	regexp.MustCompile(`Attack:\s*\d+`),
	regexp.MustCompile(`Refinable:\s*.+`),
	regexp.MustCompile(`Quantity:\s*\d+`),
	regexp.MustCompile(`Contain:\s*.+`),
	regexp.MustCompile(`Level Requirement:\s*\d+`),
	regexp.MustCompile(`Weight:\s*\d+`),
	regexp.MustCompile(`Heal:\s*.+`),
}

// StripColors removes every color escape from text. Removal repeats until no
// escape is left, so nested sequences like "^^FF0000FF0000" disappear too.
func StripColors(text string) string {
	for colorPattern.MatchString(text) {
		text = colorPattern.ReplaceAllString(text, "")
	}
	return text
}

func isTemplateLine(line string) bool {
	for _, re := range templateLines {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// Description produces the search form of an item description: color codes and
// templated stat lines removed, lines joined, separators and whitespace
// collapsed, lower-cased. Applying it twice gives the same result as once.
func Description(text string) string {
	text = StripColors(text)

	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if !isTemplateLine(line) {
			kept = append(kept, line)
		}
	}

	text = strings.Join(kept, ". ")
	text = punctuationRuns.ReplaceAllString(text, " ")
	text = strings.Join(strings.Fields(text), " ")
	return strings.ToLower(text)
}

// Name produces the search form of a display name.
func Name(text string) string {
	return strings.ToLower(strings.ReplaceAll(text, "_", " "))
}

// Bitflags returns the ascending list of bit positions set in value.
func Bitflags(value uint32) []int {
	bits := []int{}
	for i := 0; i < 32; i++ {
		if (value>>i)&1 == 1 {
			bits = append(bits, i)
		}
	}
	return bits
}
