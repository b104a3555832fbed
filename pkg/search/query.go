package search

import (
	"strconv"
	"strings"
)

type presence int

const (
	optional presence = iota
	required
	prohibited
)

type clause struct {
	term     string
	field    string
	wildcard bool
	// edits is the edit distance allowed by a term~N clause
	edits    int
	presence presence
}

// parse splits a query into clauses. Each whitespace separated part is
// tokenized like indexed text, a part yielding several terms gives one clause
// per term with the same modifiers.
func (idx *Index) parse(query string) []clause {
	var clauses []clause
	for _, part := range strings.Fields(query) {
		c := clause{presence: optional}

		switch part[0] {
		case '+':
			c.presence = required
			part = part[1:]
		case '-':
			c.presence = prohibited
			part = part[1:]
		}

		if name, rest, ok := strings.Cut(part, ":"); ok && idx.hasField(strings.ToLower(name)) {
			c.field = strings.ToLower(name)
			part = rest
		}

		if i := strings.LastIndexByte(part, '~'); i >= 0 {
			if n, err := strconv.Atoi(part[i+1:]); err == nil && n >= 0 {
				c.edits = n
				part = part[:i]
			}
		}

		if strings.HasSuffix(part, "*") {
			c.wildcard = true
			c.edits = 0
			part = strings.TrimRight(part, "*")
		}

		if c.wildcard {
			// prefixes are matched unstemmed and only the last term keeps
			// the wildcard
			terms := splitWords(part)
			for _, term := range terms[:max(len(terms)-1, 0)] {
				clauses = append(clauses, clause{term: stem(term), field: c.field, presence: c.presence})
			}
			if len(terms) > 0 {
				c.term = terms[len(terms)-1]
				clauses = append(clauses, c)
			} else if t := trimToken(strings.ToLower(part)); t != "" {
				// stop word prefixes such as "th*" still expand
				c.term = t
				clauses = append(clauses, c)
			}
			continue
		}

		for _, term := range Tokenize(part) {
			c.term = term
			clauses = append(clauses, c)
		}
	}
	return clauses
}

func (idx *Index) hasField(name string) bool {
	for _, f := range idx.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}
