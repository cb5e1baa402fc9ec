package parse

import (
	"unicode"

	"github.com/looplj/acquiesce"
)

// The literal consumer is left as a todo!() in original_source's
// partial_literal.rs; this is a fresh implementation against spec.md §4.2,
// operating on an OrderedLexemes-derived program of fixed literals and
// wildcard runs with longest-match-with-lookahead semantics.

// WildKind selects what a wildcard element may consume: digits only, or
// anything. This resolves spec.md §9's Open Question (b) as Numeric→digits,
// Any→anything (see DESIGN.md).
type WildKind int

const (
	WildNumeric WildKind = iota
	WildAny
)

// Element is one step of a literal-consumer program.
type Element struct {
	Wild bool

	// Literal / Runes hold the fixed text to match when !Wild.
	Literal string
	Runes   []rune

	// Kind / Bounded describe a wildcard element: what it may consume, and
	// whether a following element bounds its extent via lookahead (false
	// only for a trailing wildcard, which consumes to the end of input).
	Kind    WildKind
	Bounded bool
}

// Compile converts a Prefix/Delimiter/Suffix OrderedLexemes sequence into a
// literal-consumer program. Text and Token lexemes become fixed Literal
// elements. Regex lexemes become Wild elements, classified Numeric when the
// pattern is recognizably digit-only (e.g. the "[0-9]+" tool-call index
// regex Kimi-K2-style delimiters use between the function-name prefix and
// the argument-begin token) and Any otherwise.
func Compile(seq acquiesce.OrderedLexemes) []Element {
	elements := make([]Element, 0, len(seq))

	for _, lex := range seq {
		switch lex.Kind {
		case acquiesce.LexemeText, acquiesce.LexemeToken:
			elements = append(elements, Element{Literal: lex.Text, Runes: []rune(lex.Text)})
		case acquiesce.LexemeRegex:
			elements = append(elements, Element{Wild: true, Kind: classifyPattern(lex.Pattern)})
		case acquiesce.LexemeJSONSchema:
			// Prefix/Delimiter/Suffix sequences never carry a JsonSchema
			// lexeme; arguments are parsed separately via PartialJSON.
			elements = append(elements, Element{Wild: true, Kind: WildAny})
		}
	}

	for i := range elements {
		if elements[i].Wild {
			elements[i].Bounded = i < len(elements)-1
		}
	}

	return elements
}

func classifyPattern(pattern string) WildKind {
	for _, r := range pattern {
		switch r {
		case '[', ']', '(', ')', '-', '+', '*', '?', '{', '}', ',', '^', '$':
			continue
		default:
			if !unicode.IsDigit(r) {
				return WildAny
			}
		}
	}

	return WildNumeric
}

// LiteralConsumer walks a compiled program one rune at a time.
type LiteralConsumer struct {
	elements []Element
	index    int
	litPos   int

	wildBuf      []rune
	pendingMatch []rune
}

// NewLiteralConsumer returns a consumer positioned at the program's first
// element.
func NewLiteralConsumer(elements []Element) *LiteralConsumer {
	return &LiteralConsumer{elements: elements}
}

// Done reports whether every element of the program has been matched.
func (lc *LiteralConsumer) Done() bool {
	return lc.index >= len(lc.elements)
}

// Value returns the text accumulated by the wildcard element currently (or
// most recently) being matched.
func (lc *LiteralConsumer) Value() string {
	return string(lc.wildBuf)
}

// ConsumeChar feeds one rune to the program.
func (lc *LiteralConsumer) ConsumeChar(c rune) ConsumeResult {
	for {
		if lc.index >= len(lc.elements) {
			return unconsumed(c)
		}

		cur := &lc.elements[lc.index]

		if !cur.Wild {
			return lc.consumeLiteralChar(cur, c)
		}

		res, reprocess := lc.consumeWildChar(cur, c)
		if reprocess {
			continue
		}

		return res
	}
}

func (lc *LiteralConsumer) consumeLiteralChar(cur *Element, c rune) ConsumeResult {
	if c != cur.Runes[lc.litPos] {
		return rejected(c, cur.Literal)
	}

	lc.litPos++

	if lc.litPos == len(cur.Runes) {
		lc.index++
		lc.litPos = 0
		lc.wildBuf = nil
	}

	return consumed()
}

func (lc *LiteralConsumer) consumeWildChar(cur *Element, c rune) (ConsumeResult, bool) {
	switch cur.Kind {
	case WildNumeric:
		if isDigit(c) {
			lc.wildBuf = append(lc.wildBuf, c)
			return consumed(), false
		}

		lc.index++
		lc.litPos = 0

		if !cur.Bounded {
			return unconsumed(c), false
		}

		return ConsumeResult{}, true
	case WildAny:
		if !cur.Bounded {
			lc.wildBuf = append(lc.wildBuf, c)
			return consumed(), false
		}

		next := &lc.elements[lc.index+1]
		if next.Wild {
			lc.wildBuf = append(lc.wildBuf, c)
			return consumed(), false
		}

		candidate := append(append([]rune{}, lc.pendingMatch...), c)

		if len(candidate) <= len(next.Runes) && runesHavePrefix(next.Runes, candidate) {
			lc.pendingMatch = candidate

			if len(lc.pendingMatch) == len(next.Runes) {
				lc.index += 2
				lc.litPos = 0
				lc.pendingMatch = nil
				lc.wildBuf = nil
			}

			return consumed(), false
		}

		// False start: fold the abandoned lookahead attempt back into wild
		// content, then let c open a fresh attempt if it matches next's
		// first character.
		lc.wildBuf = append(lc.wildBuf, lc.pendingMatch...)
		lc.pendingMatch = nil

		if len(next.Runes) > 0 && next.Runes[0] == c {
			lc.pendingMatch = []rune{c}

			return consumed(), false
		}

		lc.wildBuf = append(lc.wildBuf, c)

		return consumed(), false
	default:
		return rejected(c, "wildcard"), false
	}
}

func runesHavePrefix(s, prefix []rune) bool {
	if len(prefix) > len(s) {
		return false
	}

	for i, r := range prefix {
		if s[i] != r {
			return false
		}
	}

	return true
}
