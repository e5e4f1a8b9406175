package schema

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

const (
	RelevanceYes = "yes"
	RelevanceNo  = "no"
)

// QueryKeyParams is the structured interpretation of a user query.
// Only user_query and relevance are fixed; every other key is an open-ended facet
// (country, market, companies, ...).
type QueryKeyParams struct {
	UserQuery string
	Relevance string
	Facets    map[string][]string

	hasRelevance bool
}

// HasRelevance reports whether the relevance field was present in the source payload.
func (p *QueryKeyParams) HasRelevance() bool {
	return p.hasRelevance
}

// IsIrrelevant is true only when relevance is present and equals "no" after case-folding and trimming.
func (p *QueryKeyParams) IsIrrelevant() bool {
	return p.hasRelevance && strings.ToLower(strings.TrimSpace(p.Relevance)) == RelevanceNo
}

// FacetKeys returns facet names in sorted order.
func (p *QueryKeyParams) FacetKeys() []string {
	keys := make([]string, 0, len(p.Facets))
	for k := range p.Facets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (p *QueryKeyParams) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*p = QueryKeyParams{Facets: map[string][]string{}}
	for key, value := range raw {
		switch key {
		case "user_query":
			p.UserQuery = rawToStrings(value)[0]
		case "relevance":
			p.Relevance = rawToStrings(value)[0]
			p.hasRelevance = true
		default:
			p.Facets[key] = rawToStrings(value)
		}
	}
	return nil
}

func (p QueryKeyParams) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Facets)+2)
	for k, v := range p.Facets {
		out[k] = v
	}
	out["user_query"] = p.UserQuery
	if p.hasRelevance {
		out["relevance"] = p.Relevance
	}
	return json.Marshal(out)
}

// rawToStrings flattens a facet value: strings stay strings, lists become their
// elements, anything else is kept as its JSON text. Always returns at least one element.
func rawToStrings(value json.RawMessage) []string {
	var s string
	if err := json.Unmarshal(value, &s); err == nil {
		return []string{s}
	}

	var list []any
	if err := json.Unmarshal(value, &list); err == nil {
		out := make([]string, 0, len(list))
		for _, item := range list {
			if str, ok := item.(string); ok {
				out = append(out, str)
				continue
			}
			out = append(out, fmt.Sprint(item))
		}
		if len(out) == 0 {
			return []string{""}
		}
		return out
	}

	return []string{strings.TrimSpace(string(value))}
}
