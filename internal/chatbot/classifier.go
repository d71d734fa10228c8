// Package chatbot classifies free-text health questions against a fixed
// disease catalog.
//
// Rules are applied in a fixed order, and the first rule that matches decides
// the result: emergency keywords, then greetings, then help requests, then
// disease lookup. Classify does no I/O and keeps no state, so one Catalog can
// be shared by any number of goroutines.
package chatbot

import (
	"sort"
	"strings"
	"unicode"
)

// Classify maps a message to exactly one Result. It never fails; input that
// matches nothing resolves to NotFound.
func Classify(message string, catalog *Catalog) Result {
	if catalog == nil {
		catalog = &Catalog{}
	}

	lower := strings.ToLower(message)
	if kw, ok := firstContained(lower, catalog.EmergencyKeywords); ok {
		return Emergency{Keyword: kw}
	}

	clean := strings.TrimSpace(lower)
	if _, ok := firstContained(clean, catalog.Greetings); ok {
		return Greeting{}
	}
	if _, ok := firstContained(clean, helpWords); ok {
		return Help{Diseases: sortedNames(catalog.Diseases)}
	}

	return resolve(message, clean, catalog)
}

// resolve looks the message up by disease name. The raw stop-word stripped
// query is tried first; the token-stripped and untouched forms follow it so a
// message naming a disease outright is never lost to stripping.
func resolve(message, clean string, c *Catalog) Result {
	primary := stripStopWords(clean, c.StopWords)
	if primary == "" {
		primary = clean
	}
	candidates := distinct(primary, stripStopWordTokens(clean, c.StopWords), clean)

	lowerNames := make([]string, len(c.Diseases))
	for i, d := range c.Diseases {
		lowerNames[i] = strings.ToLower(d.Name)
	}

	for _, q := range candidates {
		for i, name := range lowerNames {
			if name == q {
				return DiseaseInfo{Record: c.Diseases[i]}
			}
		}
	}
	for _, q := range candidates {
		for i, name := range lowerNames {
			if strings.Contains(name, q) {
				return DiseaseInfo{Record: c.Diseases[i]}
			}
		}
	}

	return NotFound{Query: message, Suggestions: suggest(primary, c.Diseases, lowerNames)}
}

// stripStopWords replaces every occurrence of each stop-word with a space.
// Occurrences inside other words are replaced too.
func stripStopWords(query string, stopWords []string) string {
	for _, w := range stopWords {
		if w == "" {
			continue
		}
		query = strings.ReplaceAll(query, w, " ")
	}
	return strings.TrimSpace(query)
}

// stripStopWordTokens drops whole tokens that are stop-words, after trimming
// punctuation from the token edges.
func stripStopWordTokens(query string, stopWords []string) string {
	stop := make(map[string]bool, len(stopWords))
	for _, w := range stopWords {
		stop[w] = true
	}

	var kept []string
	for _, tok := range strings.Fields(query) {
		tok = strings.TrimFunc(tok, unicode.IsPunct)
		if tok == "" || stop[tok] {
			continue
		}
		kept = append(kept, tok)
	}
	return strings.Join(kept, " ")
}

func suggest(query string, diseases []DiseaseRecord, lowerNames []string) []string {
	tokens := strings.FieldsFunc(query, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	})
	if len(tokens) == 0 {
		return nil
	}

	var out []string
	for i, name := range lowerNames {
		for _, tok := range tokens {
			if strings.Contains(name, tok) {
				out = append(out, diseases[i].Name)
				break
			}
		}
		if len(out) == MaxSuggestions {
			break
		}
	}
	return out
}

// firstContained returns the first non-empty phrase that occurs in s.
func firstContained(s string, phrases []string) (string, bool) {
	for _, p := range phrases {
		if p != "" && strings.Contains(s, p) {
			return p, true
		}
	}
	return "", false
}

func sortedNames(diseases []DiseaseRecord) []string {
	names := make([]string, len(diseases))
	for i, d := range diseases {
		names[i] = d.Name
	}
	sort.Strings(names)
	return names
}

func distinct(values ...string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
