package grammar

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dlclark/regexp2/v2"
	"github.com/google/jsonschema-go/jsonschema"
	"go.uber.org/multierr"

	"github.com/looplj/acquiesce"
	"github.com/looplj/acquiesce/chatmodel"
	"github.com/looplj/acquiesce/internal/schema"
	"github.com/looplj/acquiesce/ruletable"
)

// ValidateTools runs spec.md §4.5's "Tool validation" over every tool,
// collecting every failure via go.uber.org/multierr rather than stopping
// at the first one, so a host can report all broken tools in one pass.
func ValidateTools(tools []chatmodel.Tool) error {
	var errs error

	for _, tool := range tools {
		if err := validateTool(tool); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	return errs
}

func validateTool(tool chatmodel.Tool) error {
	switch tool.Kind {
	case chatmodel.ToolFunction:
		return validateFunctionSchema(tool.Name, tool.Parameters)
	case chatmodel.ToolCustom:
		return validateCustomTool(tool)
	default:
		return nil
	}
}

// validateFunctionSchema runs JSON-Schema meta-validation: the schema
// document itself must be a well-formed, resolvable JSON Schema.
func validateFunctionSchema(name string, raw json.RawMessage) error {
	if len(raw) == 0 {
		return nil
	}

	var s jsonschema.Schema
	if err := json.Unmarshal(raw, &s); err != nil {
		return &acquiesce.RenderError{Kind: acquiesce.RenderJSONSchema, Tool: name, Detail: err.Error(), Err: err}
	}

	if _, err := s.Resolve(nil); err != nil {
		return &acquiesce.RenderError{Kind: acquiesce.RenderJSONSchema, Tool: name, Detail: err.Error(), Err: err}
	}

	return nil
}

func validateCustomTool(tool chatmodel.Tool) error {
	if tool.CustomFormat.Kind != chatmodel.CustomFormatGrammar {
		return nil
	}

	switch tool.CustomFormat.Syntax {
	case chatmodel.CustomSyntaxLark:
		if err := larkFactory().Validate(tool.CustomFormat.Definition); err != nil {
			return &acquiesce.RenderError{Kind: acquiesce.RenderLark, Tool: tool.Name, Detail: err.Error(), Err: err}
		}
	case chatmodel.CustomSyntaxRegex:
		if _, err := regexp2.Compile(tool.CustomFormat.Definition, regexp2.None); err != nil {
			return &acquiesce.RenderError{Kind: acquiesce.RenderRegex, Tool: tool.Name, Detail: err.Error(), Err: err}
		}
	}

	return nil
}

// larkValidator is the "single shared parser factory, lazily initialized"
// spec.md §4.5/§5 calls for. No Lark-grammar parsing library appears
// anywhere in the example pack or its dependency closures (Lark is a
// Python-ecosystem grammar format with no Go implementation to reach for);
// this is a minimal structural check — balanced string/regex literal
// delimiters and at least one `name: body` rule definition — rather than a
// full parser, justified the same way package internal/schema's Node AST
// is: a full third-party Lark grammar parser does not exist to wire.
type larkValidator struct{}

var larkFactoryOnce = sync.OnceValue(func() *larkValidator { return &larkValidator{} })

func larkFactory() *larkValidator { return larkFactoryOnce() }

func (larkValidator) Validate(src string) error {
	if src == "" {
		return fmt.Errorf("grammar: empty lark definition")
	}

	inString, inRegex := false, false

	var escaped bool

	sawRule := false

	for _, r := range src {
		switch {
		case escaped:
			escaped = false
		case r == '\\' && (inString || inRegex):
			escaped = true
		case r == '"' && !inRegex:
			inString = !inString
		case r == '/' && !inString:
			inRegex = !inRegex
		case r == ':' && !inString && !inRegex:
			sawRule = true
		}
	}

	if inString {
		return fmt.Errorf("grammar: unterminated string literal in lark definition")
	}

	if inRegex {
		return fmt.Errorf("grammar: unterminated regex literal in lark definition")
	}

	if !sawRule {
		return fmt.Errorf("grammar: no rule definition (missing ':') in lark definition")
	}

	return nil
}

// buildCallAlternation builds the single-call rule (spec.md §4.5 "Tool-call
// rule construction") over tools, dispatching on the envelope's tool-call
// definition shape.
func buildCallAlternation(t *ruletable.Table, def acquiesce.ToolCall, tools []chatmodel.Tool, syntax ruletable.Syntax) (ruletable.Key, error) {
	switch def.Kind {
	case acquiesce.ToolCallJSONObject, acquiesce.ToolCallJSONArray:
		return buildJSONToolCallRule(t, def, tools, syntax)
	case acquiesce.ToolCallNamedParameters:
		return buildNamedParametersRule(t, def, tools, syntax)
	default:
		return ruletable.Key{}, fmt.Errorf("grammar: unknown tool call kind %d", def.Kind)
	}
}

func buildJSONToolCallRule(t *ruletable.Table, def acquiesce.ToolCall, tools []chatmodel.Tool, syntax ruletable.Syntax) (ruletable.Key, error) {
	anyOf, err := objectAlternatives(def, tools)
	if err != nil {
		return ruletable.Key{}, err
	}

	schemaDoc := json.RawMessage(fmt.Sprintf(`{"anyOf":%s}`, anyOf))
	if def.Kind == acquiesce.ToolCallJSONArray {
		schemaDoc = json.RawMessage(fmt.Sprintf(`{"type":"array","items":{"anyOf":%s}}`, anyOf))
	}

	return lowerLexemeKey(t, "tool_call", acquiesce.NewJSONSchema(schemaDoc), syntax)
}

// objectAlternatives builds, per spec.md §4.5, one `{type:"object",
// properties:{name,<argument_key>}, required:[name,<argument_key>]}`
// schema per tool and returns them as a JSON array literal ready to sit
// inside an "anyOf".
func objectAlternatives(def acquiesce.ToolCall, tools []chatmodel.Tool) (json.RawMessage, error) {
	entries := make([]json.RawMessage, 0, len(tools))

	for _, tool := range tools {
		nameConst, err := json.Marshal(tool.Name)
		if err != nil {
			return nil, err
		}

		nameKeyJSON, err := json.Marshal(def.NameKey)
		if err != nil {
			return nil, err
		}

		argKeyJSON, err := json.Marshal(def.ArgumentKey)
		if err != nil {
			return nil, err
		}

		entry := fmt.Sprintf(
			`{"type":"object","properties":{%s:{"const":%s},%s:%s},"required":[%s,%s]}`,
			nameKeyJSON, nameConst, argKeyJSON, argumentsSchema(tool), nameKeyJSON, argKeyJSON,
		)

		entries = append(entries, json.RawMessage(entry))
	}

	return json.Marshal(entries)
}

func argumentsSchema(tool chatmodel.Tool) json.RawMessage {
	s := tool.ParametersSchema()
	if len(s) == 0 {
		return json.RawMessage(`{"type":"object"}`)
	}

	return s
}

// buildNamedParametersRule builds spec.md §4.5's NamedParameters
// construction: per tool, prefix → tool name (Text) → delimiter →
// arguments (JsonSchema) → suffix, alternated at the top level.
func buildNamedParametersRule(t *ruletable.Table, def acquiesce.ToolCall, tools []chatmodel.Tool, syntax ruletable.Syntax) (ruletable.Key, error) {
	alts := make([]ruletable.Key, 0, len(tools))

	for i, tool := range tools {
		var parts []ruletable.Key

		if k, ok, err := sequenceKey(t, fmt.Sprintf("call%d_prefix", i), def.Prefix, syntax); err != nil {
			return ruletable.Key{}, err
		} else if ok {
			parts = append(parts, k)
		}

		nameKey, err := t.Lexeme(fmt.Sprintf("call%d_name", i), acquiesce.NewText(tool.Name))
		if err != nil {
			return ruletable.Key{}, err
		}

		parts = append(parts, nameKey)

		if k, ok, err := sequenceKey(t, fmt.Sprintf("call%d_delim", i), def.Delimiter, syntax); err != nil {
			return ruletable.Key{}, err
		} else if ok {
			parts = append(parts, k)
		}

		argsKey, err := lowerLexemeKey(t, fmt.Sprintf("call%d_args", i), acquiesce.NewJSONSchema(argumentsSchema(tool)), syntax)
		if err != nil {
			return ruletable.Key{}, err
		}

		parts = append(parts, argsKey)

		if k, ok, err := sequenceKey(t, fmt.Sprintf("call%d_suffix", i), def.Suffix, syntax); err != nil {
			return ruletable.Key{}, err
		} else if ok {
			parts = append(parts, k)
		}

		alts = append(alts, t.Sequence(fmt.Sprintf("call%d", i), parts...))
	}

	return t.Alternative("tool_call", alts...), nil
}

// wrapSection implements spec.md §4.5's "Section wrapper": prefix
// (tool_choice){parallel?} suffix?.
func wrapSection(t *ruletable.Table, tc acquiesce.ToolCalls, rule ruletable.Key, parallel bool, syntax ruletable.Syntax) (ruletable.Key, error) {
	var parts []ruletable.Key

	if k, ok, err := sequenceKey(t, "section_prefix", tc.Prefix, syntax); err != nil {
		return ruletable.Key{}, err
	} else if ok {
		parts = append(parts, k)
	}

	body := rule
	if parallel {
		body = t.Repetition("section_calls", rule, 0, nil)
	}

	parts = append(parts, body)

	if k, ok, err := sequenceKey(t, "section_suffix", tc.Suffix, syntax); err != nil {
		return ruletable.Key{}, err
	} else if ok {
		parts = append(parts, k)
	}

	return t.Sequence("tool_calls_section", parts...), nil
}

// lowerLexemeKey emits lex as a rule: Lark handles every Lexeme kind
// (including JsonSchema, via its native %json directive) through
// Table.Lexeme directly; GBNF has no such directive, so a JsonSchema
// lexeme is lowered through package schema instead (spec.md §4.4).
func lowerLexemeKey(t *ruletable.Table, name string, lex acquiesce.Lexeme, syntax ruletable.Syntax) (ruletable.Key, error) {
	if lex.Kind == acquiesce.LexemeJSONSchema && syntax == ruletable.GBNF {
		node, err := schema.Parse(lex.Schema)
		if err != nil {
			return ruletable.Key{}, err
		}

		return schema.Lower(t, node)
	}

	return t.Lexeme(name, lex)
}

// sequenceKey lowers an OrderedLexemes sequence to a single rule key,
// reusing the collapse-to-bare-element behavior OrderedLexemes itself
// uses for JSON: a one-element sequence skips the wrapping Sequence call.
// ok is false when seq is empty, so callers can omit an absent
// prefix/suffix/delimiter from their composition instead of emitting an
// empty rule.
func sequenceKey(t *ruletable.Table, name string, seq acquiesce.OrderedLexemes, syntax ruletable.Syntax) (ruletable.Key, bool, error) {
	if len(seq) == 0 {
		return ruletable.Key{}, false, nil
	}

	keys := make([]ruletable.Key, len(seq))

	for i, lex := range seq {
		k, err := lowerLexemeKey(t, fmt.Sprintf("%s_%d", name, i), lex, syntax)
		if err != nil {
			return ruletable.Key{}, false, err
		}

		keys[i] = k
	}

	if len(keys) == 1 {
		return keys[0], true, nil
	}

	return t.Sequence(name, keys...), true, nil
}

// reserveText allocates the target syntax's generic TEXT production
// (spec.md §4.5 "Root assembly"), reusing the same rule on repeated calls
// since Table.Insert dedups identical (name, body) pairs.
func reserveText(t *ruletable.Table, syntax ruletable.Syntax) ruletable.Key {
	if syntax == ruletable.Lark {
		return t.Insert("TEXT", schema.LarkText)
	}

	return t.Insert("text", schema.Text)
}
