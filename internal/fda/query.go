package fda

import (
	"fmt"
	"regexp"
	"strings"
)

// OpenFDA search-expression builders. The expressions match the ones the
// production dataset queries were tuned with; changing quoting or grouping
// changes result sets.

// exactQuery builds a quoted field match, e.g. set_id:"abc".
func exactQuery(field, value string) string {
	return fmt.Sprintf("%s:%q", field, value)
}

// nameQuery matches a drug name against both brand and generic name.
func nameQuery(drugName string) string {
	return fmt.Sprintf("(openfda.brand_name:%q OR openfda.generic_name:%q)", drugName, drugName)
}

// indicationQuery matches the indications_and_usage label section.
func indicationQuery(indication string) string {
	return fmt.Sprintf("indications_and_usage:%q", indication)
}

// applicationTypeFilter restricts results to approved application types.
// Without generics: BLA/NDA only, ANDA explicitly excluded.
func applicationTypeFilter(includeGenerics bool) string {
	if includeGenerics {
		return "(openfda.application_number:BLA* OR openfda.application_number:NDA* OR openfda.application_number:ANDA*)"
	}
	return "(openfda.application_number:BLA* OR openfda.application_number:NDA*) AND NOT openfda.application_number:ANDA*"
}

// maxSimilarityTerms caps the OR-joined terms in a similarity query.
const maxSimilarityTerms = 3

// similarityQuery builds the search expression for FindSimilar: top terms
// OR-joined on the given field, BLA/NDA filter, reference set id excluded.
func similarityQuery(field string, terms []string, excludeSetID string) string {
	if len(terms) > maxSimilarityTerms {
		terms = terms[:maxSimilarityTerms]
	}

	parts := make([]string, len(terms))
	for i, term := range terms {
		parts[i] = exactQuery(field, term)
	}

	query := "(" + strings.Join(parts, " OR ") + ") AND " + applicationTypeFilter(false)
	if excludeSetID != "" {
		query += " AND NOT " + exactQuery("set_id", excludeSetID)
	}
	return query
}

var (
	capitalizedTermRE = regexp.MustCompile(`\b[A-Z][A-Za-z]+\b`)
	twoWordCondRE     = regexp.MustCompile(`\b[A-Z][a-z]+\s+[A-Z][a-z]+\b`)
	oneWordCondRE     = regexp.MustCompile(`\b[A-Z][a-z]+\b`)
)

// mechanismVocab are pharmacology terms worth matching on when comparing
// mechanisms of action.
var mechanismVocab = []string{
	"receptor", "inhibitor", "agonist", "antagonist", "blocker",
	"enzyme", "protein", "channel", "transporter", "binding",
	"kinase", "phosphatase", "antibody", "monoclonal",
}

// stopWords are filtered out of indication term extraction.
var stopWords = map[string]bool{
	"the": true, "and": true, "or": true, "in": true, "of": true,
	"to": true, "for": true, "with": true, "by": true, "from": true,
}

// extractMechanismTerms pulls key terms from mechanism-of-action text:
// known pharmacology vocabulary plus up to 5 capitalized terms (likely
// targets or pathways), deduplicated with first-seen order preserved.
func extractMechanismTerms(text string) []string {
	lower := strings.ToLower(text)

	var found []string
	for _, term := range mechanismVocab {
		if strings.Contains(lower, term) {
			found = append(found, term)
		}
	}

	capitalized := capitalizedTermRE.FindAllString(text, -1)
	if len(capitalized) > 5 {
		capitalized = capitalized[:5]
	}
	found = append(found, capitalized...)

	return dedupeStrings(found)
}

// extractIndicationTerms pulls candidate condition names from indication
// text: two-word then single-word capitalized phrases, minus stop words and
// short tokens, capped at 10.
func extractIndicationTerms(text string) []string {
	var found []string
	found = append(found, twoWordCondRE.FindAllString(text, -1)...)
	found = append(found, oneWordCondRE.FindAllString(text, -1)...)

	var terms []string
	for _, term := range found {
		if stopWords[strings.ToLower(term)] || len(term) <= 3 {
			continue
		}
		terms = append(terms, term)
	}

	terms = dedupeStrings(terms)
	if len(terms) > 10 {
		terms = terms[:10]
	}
	return terms
}

// dedupeStrings removes duplicates, preserving first-seen order.
func dedupeStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// StringField extracts a string field from a raw record; list fields yield
// their first element.
func StringField(record Record, key string) string {
	switch v := record[key].(type) {
	case string:
		return v
	case []any:
		if len(v) > 0 {
			if s, ok := v[0].(string); ok {
				return s
			}
		}
	case []string:
		if len(v) > 0 {
			return v[0]
		}
	}
	return ""
}

// TextField extracts a text field, joining list values with ". ".
func TextField(record Record, key string) string {
	switch v := record[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				parts = append(parts, s)
			}
		}
		return strings.TrimSpace(strings.Join(parts, ". "))
	case []string:
		return strings.TrimSpace(strings.Join(v, ". "))
	}
	return ""
}
