package domain

import "maps"

// IdentityTable resolves names used by external sources to canonical
// attraction names. Several aliases may point at one attraction, e.g. the two
// tracks of a racing coaster.
type IdentityTable struct {
	aliases map[string]string
}

// NewIdentityTable builds a table from alias → canonical name pairs.
func NewIdentityTable(aliases map[string]string) IdentityTable {
	return IdentityTable{aliases: maps.Clone(aliases)}
}

// Resolve returns the canonical name for an external name. Names without an
// alias resolve to themselves.
func (t IdentityTable) Resolve(external string) string {
	if canonical, ok := t.aliases[external]; ok {
		return canonical
	}
	return external
}

// Aliases returns a copy of the alias map.
func (t IdentityTable) Aliases() map[string]string {
	return maps.Clone(t.aliases)
}
