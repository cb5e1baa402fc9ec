package acquiesce

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// LexemeKind tags the concrete shape of a Lexeme.
type LexemeKind int

const (
	LexemeText LexemeKind = iota
	LexemeToken
	LexemeRegex
	LexemeJSONSchema
)

// Lexeme is the atomic grammar input: a literal string, a raw token name, a
// regex, or an embedded JSON-schema fragment.
type Lexeme struct {
	Kind LexemeKind

	// Text / Token hold the literal string for LexemeText / LexemeToken.
	Text string

	// Pattern holds the regex source for LexemeRegex.
	Pattern string

	// Schema holds the raw JSON-schema document for LexemeJSONSchema.
	Schema json.RawMessage
}

func NewText(s string) Lexeme   { return Lexeme{Kind: LexemeText, Text: s} }
func NewToken(s string) Lexeme  { return Lexeme{Kind: LexemeToken, Text: s} }
func NewRegex(p string) Lexeme  { return Lexeme{Kind: LexemeRegex, Pattern: p} }
func NewJSONSchema(schema json.RawMessage) Lexeme {
	return Lexeme{Kind: LexemeJSONSchema, Schema: schema}
}

// MarshalJSON encodes a Lexeme using the untagged union spec.md §6 describes:
// a bare string defaults to Text, {"pattern":...} is a regex, and the
// explicit {"text":...}/{"token":...}/{"json_schema":...} forms disambiguate.
func (l Lexeme) MarshalJSON() ([]byte, error) {
	switch l.Kind {
	case LexemeText:
		return json.Marshal(l.Text)
	case LexemeToken:
		return json.Marshal(struct {
			Token string `json:"token"`
		}{l.Text})
	case LexemeRegex:
		return json.Marshal(struct {
			Pattern string `json:"pattern"`
		}{l.Pattern})
	case LexemeJSONSchema:
		return json.Marshal(struct {
			JSONSchema json.RawMessage `json:"json_schema"`
		}{l.Schema})
	default:
		return nil, fmt.Errorf("acquiesce: unknown lexeme kind %d", l.Kind)
	}
}

func (l *Lexeme) UnmarshalJSON(data []byte) error {
	parsed := gjson.ParseBytes(data)

	if parsed.Type == gjson.String {
		*l = NewText(parsed.String())
		return nil
	}

	if !parsed.IsObject() {
		return fmt.Errorf("acquiesce: lexeme must be a string or object, got %s", parsed.Type)
	}

	if v := parsed.Get("pattern"); v.Exists() {
		*l = NewRegex(v.String())
		return nil
	}

	if v := parsed.Get("token"); v.Exists() {
		*l = NewToken(v.String())
		return nil
	}

	if v := parsed.Get("text"); v.Exists() {
		*l = NewText(v.String())
		return nil
	}

	if v := parsed.Get("json_schema"); v.Exists() {
		*l = NewJSONSchema(json.RawMessage(v.Raw))
		return nil
	}

	return fmt.Errorf("acquiesce: lexeme object missing a recognized field: %s", data)
}

// OrderedLexemes is a sequence of lexemes that must appear in order. A
// single-element sequence round-trips through JSON as a bare lexeme rather
// than a one-element array, matching spec.md §8's DistinctLiterals/
// OrderedLexemes collapsing round-trip law.
type OrderedLexemes []Lexeme

func (ol OrderedLexemes) MarshalJSON() ([]byte, error) {
	if len(ol) == 1 {
		return json.Marshal(ol[0])
	}

	return json.Marshal([]Lexeme(ol))
}

func (ol *OrderedLexemes) UnmarshalJSON(data []byte) error {
	parsed := gjson.ParseBytes(data)
	if parsed.IsArray() {
		var lexemes []Lexeme
		if err := json.Unmarshal(data, &lexemes); err != nil {
			return err
		}

		*ol = lexemes

		return nil
	}

	var single Lexeme
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}

	*ol = OrderedLexemes{single}

	return nil
}

// DistinctLiterals is a set of literal lexemes collapsing to a bare lexeme
// when it holds exactly one element, per spec.md §8.
type DistinctLiterals []Lexeme

func (dl DistinctLiterals) MarshalJSON() ([]byte, error) {
	if len(dl) == 1 {
		return json.Marshal(dl[0])
	}

	return json.Marshal([]Lexeme(dl))
}

func (dl *DistinctLiterals) UnmarshalJSON(data []byte) error {
	parsed := gjson.ParseBytes(data)
	if parsed.IsArray() {
		var lexemes []Lexeme
		if err := json.Unmarshal(data, &lexemes); err != nil {
			return err
		}

		*dl = lexemes

		return nil
	}

	var single Lexeme
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}

	*dl = DistinctLiterals{single}

	return nil
}
