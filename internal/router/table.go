package router

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Entry is one prefix → upstream base mapping.
type Entry struct {
	Prefix string
	Target *url.URL
}

// Match is the result of resolving an inbound path.
type Match struct {
	Prefix    string
	Remainder string // path with the matched prefix stripped; may be ""
	Target    *url.URL
}

// Table resolves inbound paths to upstream bases by longest literal prefix.
// It is built once at startup and is immutable afterwards, so concurrent
// handlers share it without locking.
type Table struct {
	entries []Entry // ranked: longer prefixes first, then lexicographic
}

// NewTable builds a Table from a prefix → base URL map. The candidate
// ranking (length descending, then lexicographic) is fixed here, never
// recomputed per request, so resolution order does not depend on map
// iteration order.
func NewTable(routes map[string]string) (*Table, error) {
	entries := make([]Entry, 0, len(routes))
	for prefix, target := range routes {
		if prefix == "" || !strings.HasPrefix(prefix, "/") {
			return nil, fmt.Errorf("route prefix %q must start with /", prefix)
		}
		u, err := url.Parse(target)
		if err != nil {
			return nil, fmt.Errorf("route %s: invalid target URL %q: %w", prefix, target, err)
		}
		if !u.IsAbs() || u.Host == "" {
			return nil, fmt.Errorf("route %s: target URL %q must be absolute", prefix, target)
		}
		entries = append(entries, Entry{Prefix: prefix, Target: u})
	}

	sort.Slice(entries, func(i, j int) bool {
		if len(entries[i].Prefix) != len(entries[j].Prefix) {
			return len(entries[i].Prefix) > len(entries[j].Prefix)
		}
		return entries[i].Prefix < entries[j].Prefix
	})

	return &Table{entries: entries}, nil
}

// Resolve returns the longest configured prefix that is a literal string
// prefix of path, together with the remainder. A path exactly equal to a
// prefix yields an empty remainder.
func (t *Table) Resolve(path string) (Match, bool) {
	for _, e := range t.entries {
		if strings.HasPrefix(path, e.Prefix) {
			return Match{
				Prefix:    e.Prefix,
				Remainder: path[len(e.Prefix):],
				Target:    e.Target,
			}, true
		}
	}
	return Match{}, false
}

// Entries returns the ranked entries. The slice is shared; callers must
// treat it as read-only.
func (t *Table) Entries() []Entry {
	return t.entries
}

// Len returns the number of configured routes.
func (t *Table) Len() int {
	return len(t.entries)
}
