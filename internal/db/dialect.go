package db

import (
	"strconv"
	"strings"

	"climate-server/internal/config"
)

// Dialect adapts the repository's "?" placeholders to the driver in use.
type Dialect string

const (
	DialectQuestion Dialect = "question"
	DialectDollar   Dialect = "dollar"
)

func DialectFor(driver string) Dialect {
	if driver == config.DriverPostgres {
		return DialectDollar
	}
	return DialectQuestion
}

// Rebind rewrites "?" placeholders as $1, $2, ... for DialectDollar.
// Placeholders inside single-quoted literals are left alone.
func (d Dialect) Rebind(query string) string {
	if d != DialectDollar || !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for _, r := range query {
		switch {
		case r == '\'':
			inQuote = !inQuote
			b.WriteRune(r)
		case r == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
