package search

import (
	"strings"
	"unicode"

	"github.com/clipperhouse/uax29/v2/words"
	"github.com/kljensen/snowball/english"
)

var stopWords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`
		a able about across after all almost also am among an and any are as at
		be because been but by can cannot could dear did do does either else ever
		every for from get got had has have he her hers him his how however i if
		in into is it its just least let like likely may me might most must my
		neither no nor not of off often on only or other our own rather said say
		says she should since so some than that the their them then there these
		they this tis to too twas us wants was we were what when where which while
		who whom why will with would yet you your`) {
		stopWords[w] = struct{}{}
	}
}

func trimToken(token string) string {
	return strings.TrimFunc(token, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Tokenize splits text on Unicode word boundaries and returns the stemmed,
// lower-cased terms that go into the index, stop words removed.
func Tokenize(text string) []string {
	terms := splitWords(text)
	for i, term := range terms {
		terms[i] = stem(term)
	}
	return terms
}

// splitWords is Tokenize without stemming, prefix queries match on it
func splitWords(text string) []string {
	terms := []string{}
	tokens := words.FromString(strings.ToLower(text))
	for tokens.Next() {
		term := trimToken(tokens.Value())
		if term == "" {
			continue
		}
		if _, stop := stopWords[term]; stop {
			continue
		}
		terms = append(terms, term)
	}
	return terms
}

func stem(term string) string {
	if s := english.Stem(term, false); s != "" {
		return s
	}
	return term
}
