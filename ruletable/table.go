package ruletable

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/looplj/acquiesce"
)

// Syntax selects the concrete grammar syntax a Table renders.
type Syntax int

const (
	Lark Syntax = iota
	GBNF
)

// entry is one row of the table: the body text for a key, recorded in
// insertion order so Resolve's output is deterministic.
type entry struct {
	key  Key
	body string
}

// Table is the deduplicating rule interner of spec.md §4.3. It is mutated
// exclusively by one compilation and is never shared (spec.md §3 "Rule
// table").
type Table struct {
	Syntax Syntax

	byName map[string][]int // name -> indices into entries, ordered by disambiguator
	entries []entry
}

func New(syntax Syntax) *Table {
	return &Table{Syntax: syntax, byName: map[string][]int{}}
}

// Insert is the deduplicating allocator described in spec.md §4.3: it
// tries (name, 0); if occupied with a different body it tries (name, 1),
// etc.; if the existing body matches it returns the existing key.
func (t *Table) Insert(name, body string) Key {
	indices := t.byName[name]

	for _, idx := range indices {
		if t.entries[idx].body == body {
			return t.entries[idx].key
		}
	}

	key := Key{Name: name, Disambiguator: len(indices)}
	t.entries = append(t.entries, entry{key: key, body: body})
	t.byName[name] = append(indices, len(t.entries)-1)

	return key
}

// HasName reports whether any rule has been inserted under name yet,
// letting callers that inject mutually-recursive rule families (see
// package schema's primitive library) avoid re-entering the recursion.
func (t *Table) HasName(name string) bool {
	return len(t.byName[name]) > 0
}

// Body returns the recorded body for a key, or "" if absent.
func (t *Table) Body(key Key) (string, bool) {
	for _, e := range t.entries {
		if e.key == key {
			return e.body, true
		}
	}

	return "", false
}

// Sequence emits body "k1 k2 … kn" (space joined).
func (t *Table) Sequence(name string, keys ...Key) Key {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k.String()
	}

	return t.Insert(name, strings.Join(parts, " "))
}

// Alternative emits body "k1 | k2 | … | kn".
func (t *Table) Alternative(name string, keys ...Key) Key {
	if len(keys) == 1 {
		return keys[0]
	}

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k.String()
	}

	return t.Insert(name, strings.Join(parts, " | "))
}

// Repetition emits a quantified reference to key using the standard
// repetition conventions of spec.md §4.3: *, +, ?, {n}, {n,}, {n,m}.
func (t *Table) Repetition(name string, key Key, min int, max *int) Key {
	return t.Insert(name, key.String()+repetitionSuffix(min, max))
}

func repetitionSuffix(min int, max *int) string {
	switch {
	case min == 0 && max == nil:
		return "*"
	case min == 1 && max == nil:
		return "+"
	case min == 0 && max != nil && *max == 1:
		return "?"
	case max == nil:
		return "{" + strconv.Itoa(min) + ",}"
	case min == *max:
		return "{" + strconv.Itoa(min) + "}"
	default:
		return "{" + strconv.Itoa(min) + "," + strconv.Itoa(*max) + "}"
	}
}

// Lexeme formats a Lexeme per the target syntax (spec.md §4.3). JsonSchema
// lexemes under GBNF are NOT handled here — the caller must lower the
// schema via package internal/schema and reference the resulting key
// directly, since that lowering itself allocates many rules into this
// same table.
func (t *Table) Lexeme(name string, lex acquiesce.Lexeme) (Key, error) {
	upcased := strings.ToUpper(name)

	switch lex.Kind {
	case acquiesce.LexemeText:
		return t.Insert(upcased, quoteLiteral(lex.Text)), nil
	case acquiesce.LexemeToken:
		if t.Syntax == Lark {
			return t.Insert(upcased, lex.Text), nil
		}

		return t.Insert(upcased, quoteLiteral(lex.Text)), nil
	case acquiesce.LexemeRegex:
		return t.Insert(upcased, "/"+lex.Pattern+"/"), nil
	case acquiesce.LexemeJSONSchema:
		if t.Syntax == Lark {
			return t.Insert(upcased, "%json "+string(lex.Schema)), nil
		}

		return Key{}, fmt.Errorf("ruletable: GBNF JsonSchema lexemes must be lowered via package schema, not Table.Lexeme")
	default:
		return Key{}, fmt.Errorf("ruletable: unknown lexeme kind %d", lex.Kind)
	}
}

func quoteLiteral(s string) string {
	var b strings.Builder

	b.WriteByte('"')

	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteRune(r)
		}
	}

	b.WriteByte('"')

	return b.String()
}

// Resolve produces the final grammar text: the root body emitted inline,
// followed by every other rule in insertion order (spec.md §4.3).
func (t *Table) Resolve(root Key) (string, error) {
	body, ok := t.Body(root)
	if !ok {
		return "", fmt.Errorf("ruletable: root key %s not present in table", root)
	}

	var b strings.Builder

	switch t.Syntax {
	case Lark:
		fmt.Fprintf(&b, "start: %s\n", body)
	case GBNF:
		fmt.Fprintf(&b, "root ::= %s\n", body)
	default:
		return "", fmt.Errorf("ruletable: unknown syntax %d", t.Syntax)
	}

	for _, e := range t.entries {
		if e.key == root {
			continue
		}

		switch t.Syntax {
		case Lark:
			fmt.Fprintf(&b, "%s: %s\n", e.key.String(), e.body)
		case GBNF:
			fmt.Fprintf(&b, "%s ::= %s\n", e.key.String(), e.body)
		}
	}

	return b.String(), nil
}
