// Package ruletable implements the deduplicating rule interner and the
// sequence/alternative/repetition/lexeme combinators of spec.md §4.3, plus
// the per-syntax (Lark, GBNF) rendering of resolve().
package ruletable

import "strconv"

// Key is a disambiguated logical rule identifier, unique within one
// compilation. It serializes (for grammar output) as name++digits.
type Key struct {
	Name          string
	Disambiguator int
}

func (k Key) String() string {
	return k.Name + strconv.Itoa(k.Disambiguator)
}
