// Package keys builds Redis keys for cached API responses.
package keys

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
)

const Prefix = "isuumo"

// Gen pins a response key to one entity's cache generation.
type Gen struct {
	Entity string
	N      int64
}

// Generation is the counter key bumped whenever entity's rows change.
func Generation(entity string) string {
	return Prefix + ":gen:" + sanitize(entity)
}

// Response keys a cached body by the generations it depends on, the route
// and the canonical query string:
//
//	isuumo:chair:g3:api-chair-search:q=<hex64>
func Response(route string, query url.Values, gens ...Gen) string {
	var b strings.Builder
	b.WriteString(Prefix)
	for _, g := range gens {
		fmt.Fprintf(&b, ":%s:g%d", sanitize(g.Entity), g.N)
	}
	b.WriteByte(':')
	b.WriteString(sanitize(strings.Trim(route, "/")))
	fmt.Fprintf(&b, ":q=%016x", xxhash.Sum64String(CanonicalQuery(query)))
	return b.String()
}

// CanonicalQuery keeps the first value of each parameter, which is the one
// the search parsers read, drops parameters whose first value is blank and
// orders the rest. Requests that differ only in parameter order, blank facets
// or ignored repeats share a key.
func CanonicalQuery(v url.Values) string {
	names := make([]string, 0, len(v))
	for k := range v {
		if v.Get(k) != "" {
			names = append(names, k)
		}
	}
	sort.Strings(names)

	var b strings.Builder
	for _, k := range names {
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(v.Get(k)))
	}
	return b.String()
}

func sanitize(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))
	var prev rune
	for _, r := range s {
		out := rune(0)
		switch {
		case isAlphaNum(r) || r == '_':
			out = r
		default:
			// separators and non-ASCII runes become '-'
			out = '-'
		}
		if out == '-' && prev == '-' {
			continue
		}
		b.WriteRune(out)
		prev = out
	}
	return b.String()
}

func isAlphaNum(r rune) bool {
	return (r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r < unicode.MaxASCII && unicode.IsDigit(r))
}
