package ontology

import "strings"

// FilterPill is a single property = value equality constraint. Pills with an empty
// value are inactive.
type FilterPill struct {
	Property string `json:"property" validate:"required"`
	Value    string `json:"value"`
}

// Active reports whether the pill constrains anything.
func (f FilterPill) Active() bool {
	return f.Value != ""
}

// Matches applies the case-insensitive equality predicate. An absent field never
// matches.
func (f FilterPill) Matches(n Node) bool {
	v, ok := n.Field(f.Property)
	if !ok {
		return false
	}
	return lower(v) == lower(f.Value)
}

// ParseFilterPill parses the "property:value" form used on query strings.
func ParseFilterPill(s string) (FilterPill, bool) {
	prop, value, ok := strings.Cut(s, ":")
	if !ok || strings.TrimSpace(prop) == "" {
		return FilterPill{}, false
	}
	return FilterPill{Property: strings.TrimSpace(prop), Value: value}, true
}

// ActiveFilters drops pills without a value.
func ActiveFilters(pills []FilterPill) []FilterPill {
	out := make([]FilterPill, 0, len(pills))
	for _, p := range pills {
		if p.Active() {
			out = append(out, p)
		}
	}
	return out
}

// MatchesFilters reports whether n satisfies every active pill.
func MatchesFilters(n Node, pills []FilterPill) bool {
	for _, p := range pills {
		if !p.Active() {
			continue
		}
		if !p.Matches(n) {
			return false
		}
	}
	return true
}

// searchFields are the node fields covered by free-text search.
var searchFields = []string{"name", "type", "description", "domain", "category", "id"}

// MatchesSearch reports whether any search field contains query, ignoring case.
// An empty query matches every node.
func MatchesSearch(n Node, query string) bool {
	if query == "" {
		return true
	}
	q := lower(query)
	for _, f := range searchFields {
		v, ok := n.Field(f)
		if ok && strings.Contains(lower(v), q) {
			return true
		}
	}
	return false
}

// FilterNodes applies the active pills and then the search query. The result keeps
// the input order.
func FilterNodes(all []Node, pills []FilterPill, query string) []Node {
	active := ActiveFilters(pills)
	out := make([]Node, 0, len(all))
	for _, n := range all {
		if len(active) > 0 && !MatchesFilters(n, active) {
			continue
		}
		if !MatchesSearch(n, query) {
			continue
		}
		out = append(out, n)
	}
	return out
}

// FilterEdges keeps the edges whose endpoints are both among nodes. Edges are never
// filtered on their own attributes.
func FilterEdges(all []Edge, nodes []Node) []Edge {
	ids := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		ids[n.ID] = struct{}{}
	}
	out := make([]Edge, 0, len(all))
	for _, e := range all {
		_, src := ids[e.Source]
		_, dst := ids[e.Target]
		if src && dst {
			out = append(out, e)
		}
	}
	return out
}
