package parse

import (
	"strconv"
	"strings"
)

// PartialJSON consumes a JSON value one rune at a time and can render the
// longest valid-JSON prefix accepted so far, per spec.md §4.1. It is a
// near-verbatim port of original_source/src/utils/partial_json.rs's state
// machine: Start delegates to one of Object/Array/String/Number/Literal on
// the first non-whitespace rune, and each of those owns its own nested
// sub-state machine.
type PartialJSON struct {
	kind   pjKind
	object *objectConsumer
	array  *arrayConsumer
	str    *stringConsumer
	num    *numberConsumer
	lit    *literalConsumer
}

type pjKind int

const (
	pjStart pjKind = iota
	pjObject
	pjArray
	pjString
	pjNumber
	pjLiteral
)

// NewPartialJSON returns a fresh consumer positioned before any value.
func NewPartialJSON() *PartialJSON {
	return &PartialJSON{kind: pjStart}
}

// ConsumeChar feeds one rune to the consumer.
func (p *PartialJSON) ConsumeChar(c rune) ConsumeResult {
	switch p.kind {
	case pjStart:
		switch {
		case isWhitespace(c):
			return omitted()
		case c == '"':
			sc := &stringConsumer{}
			sc.ConsumeChar(c) // opening quote: always Consumed
			p.kind = pjString
			p.str = sc

			return consumed()
		case c == '{':
			p.kind = pjObject
			p.object = &objectConsumer{state: objOpened}

			return consumed()
		case c == '[':
			p.kind = pjArray
			p.array = &arrayConsumer{state: arrOpened}

			return consumed()
		case c == 't' || c == 'f' || c == 'n':
			p.kind = pjLiteral
			p.lit = newLiteralConsumer(c)

			return consumed()
		case c == '-' || isDigit(c):
			p.kind = pjNumber
			p.num = newNumberConsumer(c)

			return consumed()
		default:
			return rejected(c, "json value")
		}
	case pjObject:
		return p.object.ConsumeChar(c)
	case pjArray:
		return p.array.ConsumeChar(c)
	case pjString:
		return p.str.ConsumeChar(c)
	case pjNumber:
		return p.num.ConsumeChar(c)
	case pjLiteral:
		return p.lit.ConsumeChar(c)
	default:
		return rejected(c, "json value")
	}
}

// Render reconstructs the longest accepted prefix in canonical form. An open
// string, object or array is rendered without its closing delimiter (for
// example `{"a":1,"b":"hel`), so the result is valid JSON only once Done
// reports true.
func (p *PartialJSON) Render() string {
	switch p.kind {
	case pjObject:
		return p.object.Render()
	case pjArray:
		return p.array.Render()
	case pjString:
		return p.str.Render()
	case pjNumber:
		return p.num.Render()
	case pjLiteral:
		return p.lit.Render()
	default:
		return ""
	}
}

// ValueKind classifies what kind of JSON value a PartialJSON is (so far)
// consuming.
type ValueKind int

const (
	KindUnknown ValueKind = iota
	KindObject
	KindArray
	KindString
	KindNumber
	KindLiteral
)

// Kind reports which JSON value shape this consumer has committed to.
func (p *PartialJSON) Kind() ValueKind {
	switch p.kind {
	case pjObject:
		return KindObject
	case pjArray:
		return KindArray
	case pjString:
		return KindString
	case pjNumber:
		return KindNumber
	case pjLiteral:
		return KindLiteral
	default:
		return KindUnknown
	}
}

// ArrayElements returns the element consumers accumulated so far, or nil if
// p is not (so far) an array.
func (p *PartialJSON) ArrayElements() []*PartialJSON {
	if p.kind != pjArray {
		return nil
	}

	return p.array.elements
}

// ObjectField returns the sub-value consumer for key if p is (so far) an
// object and has started a key matching it exactly, or nil otherwise. Used
// by the envelope parser to read a JsonObject/JsonArray tool call's
// name/arguments fields out of the object as they arrive.
func (p *PartialJSON) ObjectField(key string) *PartialJSON {
	if p.kind != pjObject {
		return nil
	}

	for _, e := range p.object.entries {
		if string(e.key.buf) == key {
			return e.val
		}
	}

	return nil
}

// Done reports whether the buffered value is itself already closed JSON
// (as opposed to a prefix that could still be extended in place). A number
// has no closing delimiter and always reports true.
func (p *PartialJSON) Done() bool {
	switch p.kind {
	case pjObject:
		return p.object.state == objClosed
	case pjArray:
		return p.array.state == arrClosed
	case pjString:
		return p.str.state == stringClosed
	case pjNumber:
		return true
	case pjLiteral:
		return len(p.lit.buf) == len(p.lit.target)
	default:
		return false
	}
}

// --- object ---

type objState int

const (
	objOpened objState = iota
	objKey
	objColon
	objValue
	objComma
	objClosed
)

type objectEntry struct {
	key *stringConsumer
	val *PartialJSON
}

type objectConsumer struct {
	state   objState
	entries []*objectEntry
}

func (o *objectConsumer) ConsumeChar(c rune) ConsumeResult {
	for {
		switch o.state {
		case objOpened:
			switch {
			case isWhitespace(c):
				return omitted()
			case c == '"':
				sc := &stringConsumer{}
				sc.ConsumeChar(c)
				o.entries = append(o.entries, &objectEntry{key: sc})
				o.state = objKey

				return consumed()
			case c == '}':
				o.state = objClosed
				return consumed()
			default:
				return rejected(c, `'"' or '}'`)
			}
		case objKey:
			cur := o.entries[len(o.entries)-1]
			res := cur.key.ConsumeChar(c)

			switch res.Kind {
			case Consumed, Omitted:
				return res
			case Unconsumed:
				o.state = objColon
				continue
			case Rejected:
				return res
			}
		case objColon:
			switch {
			case isWhitespace(c):
				return omitted()
			case c == ':':
				cur := o.entries[len(o.entries)-1]
				cur.val = NewPartialJSON()
				o.state = objValue

				return consumed()
			default:
				return rejected(c, "':'")
			}
		case objValue:
			cur := o.entries[len(o.entries)-1]
			res := cur.val.ConsumeChar(c)

			switch res.Kind {
			case Consumed, Omitted:
				return res
			case Unconsumed:
				o.state = objComma
				continue
			case Rejected:
				return res
			}
		case objComma:
			switch {
			case isWhitespace(c):
				return omitted()
			case c == ',':
				// A comma immediately followed by '}' is tolerated leniently
				// here (streaming output may be truncated exactly there);
				// objOpened's '}' branch accepts it.
				o.state = objOpened
				return consumed()
			case c == '}':
				o.state = objClosed
				return consumed()
			default:
				return rejected(c, "',' or '}'")
			}
		case objClosed:
			return unconsumed(c)
		}
	}
}

func (o *objectConsumer) Render() string {
	var b strings.Builder

	b.WriteByte('{')

	for i, e := range o.entries {
		if i > 0 {
			b.WriteByte(',')
		}

		b.WriteString(e.key.Render())

		if e.val != nil {
			b.WriteByte(':')
			b.WriteString(e.val.Render())
		}
	}

	if o.state == objClosed {
		b.WriteByte('}')
	}

	return b.String()
}

// --- array ---

type arrState int

const (
	arrOpened arrState = iota
	arrElement
	arrComma
	arrClosed
)

type arrayConsumer struct {
	state    arrState
	elements []*PartialJSON
}

func (a *arrayConsumer) ConsumeChar(c rune) ConsumeResult {
	for {
		switch a.state {
		case arrOpened:
			switch {
			case isWhitespace(c):
				return omitted()
			case c == ']':
				a.state = arrClosed
				return consumed()
			default:
				elem := NewPartialJSON()
				res := elem.ConsumeChar(c)

				if res.Kind == Rejected {
					return res
				}

				a.elements = append(a.elements, elem)
				a.state = arrElement

				return res
			}
		case arrElement:
			cur := a.elements[len(a.elements)-1]
			res := cur.ConsumeChar(c)

			switch res.Kind {
			case Consumed, Omitted:
				return res
			case Unconsumed:
				a.state = arrComma
				continue
			case Rejected:
				return res
			}
		case arrComma:
			switch {
			case isWhitespace(c):
				return omitted()
			case c == ',':
				a.state = arrOpened
				return consumed()
			case c == ']':
				a.state = arrClosed
				return consumed()
			default:
				return rejected(c, "',' or ']'")
			}
		case arrClosed:
			return unconsumed(c)
		}
	}
}

func (a *arrayConsumer) Render() string {
	var b strings.Builder

	b.WriteByte('[')

	for i, e := range a.elements {
		if i > 0 {
			b.WriteByte(',')
		}

		b.WriteString(e.Render())
	}

	if a.state == arrClosed {
		b.WriteByte(']')
	}

	return b.String()
}

// --- string ---

type stringState int

const (
	stringStart stringState = iota
	stringOpened
	stringEscaped
	stringHexDigits
	stringClosed
)

// stringConsumer accumulates the decoded (unescaped) content of a JSON
// string and re-escapes it on Render, so canonical rendering is correct
// regardless of how the original text happened to escape a character.
type stringConsumer struct {
	state       stringState
	buf         []rune
	hexBuf      string
	pendingHigh rune // a decoded \u high surrogate awaiting its pair, 0 if none
}

func (s *stringConsumer) ConsumeChar(c rune) ConsumeResult {
	switch s.state {
	case stringStart:
		if c == '"' {
			s.state = stringOpened
			return consumed()
		}

		return rejected(c, "opening quote")
	case stringOpened:
		switch {
		case c == '"':
			s.state = stringClosed
			return consumed()
		case c == '\\':
			s.state = stringEscaped
			return consumed()
		case c < 0x20 || c == 0x7f:
			return rejected(c, "unescaped control character")
		default:
			s.buf = append(s.buf, c)
			return consumed()
		}
	case stringEscaped:
		switch c {
		case '"', '\\', '/':
			s.buf = append(s.buf, c)
			s.state = stringOpened

			return consumed()
		case 'b':
			s.buf = append(s.buf, '\b')
			s.state = stringOpened

			return consumed()
		case 'f':
			s.buf = append(s.buf, '\f')
			s.state = stringOpened

			return consumed()
		case 'n':
			s.buf = append(s.buf, '\n')
			s.state = stringOpened

			return consumed()
		case 'r':
			s.buf = append(s.buf, '\r')
			s.state = stringOpened

			return consumed()
		case 't':
			s.buf = append(s.buf, '\t')
			s.state = stringOpened

			return consumed()
		case 'u':
			s.hexBuf = ""
			s.state = stringHexDigits

			return consumed()
		default:
			return rejected(c, "escape character")
		}
	case stringHexDigits:
		if !isHexDigit(c) {
			return rejected(c, "hex digit")
		}

		s.hexBuf += string(c)
		if len(s.hexBuf) < 4 {
			return consumed()
		}

		v, err := strconv.ParseUint(s.hexBuf, 16, 32)
		if err != nil {
			return rejected(c, "hex digit")
		}

		switch {
		case v >= 0xD800 && v <= 0xDBFF:
			if s.pendingHigh != 0 {
				return rejected(c, "low surrogate")
			}

			s.pendingHigh = rune(v)
		case v >= 0xDC00 && v <= 0xDFFF:
			if s.pendingHigh == 0 {
				return rejected(c, "unpaired low surrogate")
			}

			s.buf = append(s.buf, combineSurrogates(s.pendingHigh, rune(v)))
			s.pendingHigh = 0
		default:
			if s.pendingHigh != 0 {
				return rejected(c, "low surrogate")
			}

			s.buf = append(s.buf, rune(v))
		}

		s.state = stringOpened

		return consumed()
	case stringClosed:
		return unconsumed(c)
	default:
		return rejected(c, "string")
	}
}

func combineSurrogates(hi, lo rune) rune {
	return 0x10000 + (hi-0xD800)*0x400 + (lo - 0xDC00)
}

func (s *stringConsumer) Render() string {
	var b strings.Builder

	b.WriteByte('"')

	for _, r := range s.buf {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '/':
			b.WriteString(`\/`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		default:
			if r < 0x20 {
				b.WriteString(`\u00`)
				b.WriteString(strings.ToUpper(strconv.FormatInt(int64(r), 16)))
			} else {
				b.WriteRune(r)
			}
		}
	}

	if s.state == stringClosed {
		b.WriteByte('"')
	}

	return b.String()
}

// --- number ---

type numberState int

const (
	numOpenedNegative numberState = iota
	numOpenedZero
	numOpenedPositive
	numFirstDecimal
	numDecimal
	numExponentSign
	numFirstExponent
	numExponent
)

type numberConsumer struct {
	state numberState
	buf   []rune
}

func newNumberConsumer(c rune) *numberConsumer {
	n := &numberConsumer{buf: []rune{c}}

	switch {
	case c == '-':
		n.state = numOpenedNegative
	case c == '0':
		n.state = numOpenedZero
	default:
		n.state = numOpenedPositive
	}

	return n
}

func (n *numberConsumer) ConsumeChar(c rune) ConsumeResult {
	switch n.state {
	case numOpenedNegative:
		switch {
		case c == '0':
			n.buf = append(n.buf, c)
			n.state = numOpenedZero

			return consumed()
		case isDigit19(c):
			n.buf = append(n.buf, c)
			n.state = numOpenedPositive

			return consumed()
		default:
			return rejected(c, "digit")
		}
	case numOpenedZero:
		switch {
		case c == '.':
			n.buf = append(n.buf, c)
			n.state = numFirstDecimal

			return consumed()
		case c == 'e' || c == 'E':
			n.buf = append(n.buf, c)
			n.state = numExponentSign

			return consumed()
		case isDigit(c):
			return rejected(c, "no digit after leading zero")
		default:
			return unconsumed(c)
		}
	case numOpenedPositive:
		switch {
		case isDigit(c):
			n.buf = append(n.buf, c)
			return consumed()
		case c == '.':
			n.buf = append(n.buf, c)
			n.state = numFirstDecimal

			return consumed()
		case c == 'e' || c == 'E':
			n.buf = append(n.buf, c)
			n.state = numExponentSign

			return consumed()
		default:
			return unconsumed(c)
		}
	case numFirstDecimal:
		if isDigit(c) {
			n.buf = append(n.buf, c)
			n.state = numDecimal

			return consumed()
		}

		return rejected(c, "digit after decimal point")
	case numDecimal:
		switch {
		case isDigit(c):
			n.buf = append(n.buf, c)
			return consumed()
		case c == 'e' || c == 'E':
			n.buf = append(n.buf, c)
			n.state = numExponentSign

			return consumed()
		default:
			return unconsumed(c)
		}
	case numExponentSign:
		switch {
		case c == '+' || c == '-':
			n.buf = append(n.buf, c)
			n.state = numFirstExponent

			return consumed()
		case isDigit(c):
			n.buf = append(n.buf, c)
			n.state = numExponent

			return consumed()
		default:
			return rejected(c, "sign or digit")
		}
	case numFirstExponent:
		if isDigit(c) {
			n.buf = append(n.buf, c)
			n.state = numExponent

			return consumed()
		}

		return rejected(c, "digit")
	case numExponent:
		if isDigit(c) {
			n.buf = append(n.buf, c)
			return consumed()
		}

		return unconsumed(c)
	default:
		return rejected(c, "number")
	}
}

func (n *numberConsumer) Render() string {
	return string(n.buf)
}

// --- literal (true/false/null) ---

type literalConsumer struct {
	buf    []rune
	target string
}

func newLiteralConsumer(c rune) *literalConsumer {
	var target string

	switch c {
	case 't':
		target = "true"
	case 'f':
		target = "false"
	case 'n':
		target = "null"
	}

	return &literalConsumer{target: target, buf: []rune{c}}
}

func (l *literalConsumer) ConsumeChar(c rune) ConsumeResult {
	if len(l.buf) == len(l.target) {
		return unconsumed(c)
	}

	candidate := string(l.buf) + string(c)
	if strings.HasPrefix(l.target, candidate) {
		l.buf = append(l.buf, c)
		return consumed()
	}

	return rejected(c, l.target)
}

func (l *literalConsumer) Render() string {
	return string(l.buf)
}

// --- shared predicates ---

func isWhitespace(c rune) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isDigit(c rune) bool {
	return c >= '0' && c <= '9'
}

func isDigit19(c rune) bool {
	return c >= '1' && c <= '9'
}

func isHexDigit(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
