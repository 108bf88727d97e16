package cache

import (
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

const (
	keySeparator   = ":"
	identifierPart = "id"
	queryPart      = "query"
)

// Keyer derives backend keys from cache options.
// Identifiers and query texts live in separate keyspaces.
type Keyer struct {
	prefix string
}

// NewKeyer creates a keyer for prefix
func NewKeyer(prefix string) Keyer {
	return Keyer{prefix: prefix}
}

// Key returns the backend key for opts and false when opts has no key material.
// The identifier wins over the query text when both are set.
func (k Keyer) Key(opts *Options) (string, bool) {
	if !opts.HasKey() {
		return "", false
	}
	if opts.Identifier != "" {
		return k.Identifier(opts.Identifier), true
	}
	return k.Query(opts.Query), true
}

// Identifier returns the key of an explicit identifier
func (k Keyer) Identifier(identifier string) string {
	return k.join(identifierPart, identifier)
}

// Query returns the key of a query text, hashed to bound key length
func (k Keyer) Query(query string) string {
	return k.join(queryPart, hashQuery(query))
}

func (k Keyer) join(kind, value string) string {
	return strings.Join([]string{k.prefix, kind, value}, keySeparator)
}

func hashQuery(query string) string {
	sum := strconv.FormatUint(xxhash.Sum64String(query), 16)
	if pad := 16 - len(sum); pad > 0 {
		sum = strings.Repeat("0", pad) + sum
	}
	return sum
}
