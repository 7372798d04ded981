package overpass

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// TagEntry is one infrastructure category and its accepted subtypes.
type TagEntry struct {
	Key    string
	Values []string
}

// TagQuery is the tag structure consumed by the Overpass client: an
// ordered list of category -> subtypes entries.
type TagQuery struct {
	entries []TagEntry
}

// BuildTagQuery reshapes a category -> subtypes mapping into a
// TagQuery. Subtype lists are carried verbatim; entries are ordered
// by category key so the rendered QL (and therefore the cache key) is
// deterministic. Categories with no subtypes are kept as
// match-any-value clauses.
func BuildTagQuery(tags map[string][]string) TagQuery {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entries := make([]TagEntry, 0, len(keys))
	for _, k := range keys {
		values := make([]string, len(tags[k]))
		copy(values, tags[k])
		entries = append(entries, TagEntry{Key: k, Values: values})
	}
	return TagQuery{entries: entries}
}

// BuildSingleTagQuery is the single-subtype convenience form; the
// lone subtype is normalized to a one-element list.
func BuildSingleTagQuery(key, subtype string) TagQuery {
	return BuildTagQuery(map[string][]string{key: {subtype}})
}

// Entries returns the ordered category entries.
func (q TagQuery) Entries() []TagEntry {
	return q.entries
}

// QuerySettings is the immutable per-call query configuration. It is
// passed into every fetch explicitly; there is no ambient mode state
// to flip between historical and current passes.
type QuerySettings struct {
	Timeout time.Duration
	// Date is the attic snapshot instant (ISO-8601 UTC). Empty means
	// present-day data.
	Date string
}

// Header renders the Overpass settings prologue, e.g.
// [out:json][timeout:180][date:"2022-06-01T00:00:00Z"];
func (s QuerySettings) Header() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[out:json][timeout:%d]", int(s.Timeout.Seconds()))
	if s.Date != "" {
		fmt.Fprintf(&b, "[date:%q]", s.Date)
	}
	b.WriteString(";")
	return b.String()
}

// QL renders the full query for one named region: resolve the
// administrative boundary area, union one nwr clause per category,
// then recurse so that way and relation member geometry is included.
func (q TagQuery) QL(region string, settings QuerySettings) string {
	var b strings.Builder
	b.WriteString(settings.Header())
	b.WriteString("\n")
	fmt.Fprintf(&b, "area[%q=%q][%q=%q]->.search;\n", "name", region, "boundary", "administrative")
	b.WriteString("(\n")
	for _, e := range q.entries {
		fmt.Fprintf(&b, "  nwr[%s](area.search);\n", tagFilter(e))
	}
	b.WriteString(");\n")
	b.WriteString("out body;\n>;\nout skel qt;\n")
	return b.String()
}

// tagFilter renders one category filter: an exact match for a single
// subtype, an anchored alternation for several, existence for none.
func tagFilter(e TagEntry) string {
	switch len(e.Values) {
	case 0:
		return fmt.Sprintf("%q", e.Key)
	case 1:
		return fmt.Sprintf("%q=%q", e.Key, e.Values[0])
	default:
		return fmt.Sprintf("%q~%q", e.Key, "^("+strings.Join(e.Values, "|")+")$")
	}
}
