package acquiesce

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// Thinking describes the optional reasoning block wrapped in a literal
// prefix/suffix pair.
type Thinking struct {
	Prefix OrderedLexemes `json:"prefix"`
	Suffix OrderedLexemes `json:"suffix"`
}

// ArgumentsKind tags the shape arguments are materialized as inside a
// NamedParameters tool call. Only JsonObject exists today; JsonArray is
// reserved so the tagged union stays forward compatible without a schema
// break, mirroring the source's own single-variant enum.
type ArgumentsKind int

const (
	ArgumentsJSONObject ArgumentsKind = iota
	ArgumentsJSONArray
)

type Arguments struct {
	Kind ArgumentsKind
}

func (a ArgumentsKind) String() string {
	switch a {
	case ArgumentsJSONObject:
		return "json_object"
	case ArgumentsJSONArray:
		return "json_array"
	default:
		return "unknown"
	}
}

func (a Arguments) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Kind.String())
}

func (a *Arguments) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	switch s {
	case "json_object":
		a.Kind = ArgumentsJSONObject
	case "json_array":
		a.Kind = ArgumentsJSONArray
	default:
		return fmt.Errorf("acquiesce: unknown arguments kind %q", s)
	}

	return nil
}

// ToolCallKind tags the three tool-call definition shapes of spec.md §3.
type ToolCallKind int

const (
	ToolCallJSONObject ToolCallKind = iota
	ToolCallJSONArray
	ToolCallNamedParameters
)

// ToolCall is the tagged tool-call definition. JsonObject/JsonArray carry
// NameKey/ArgumentKey (the field names the envelope expects in the
// generated object); NamedParameters carries the free-form prefix/name/
// delimiter/arguments/suffix shape.
type ToolCall struct {
	Kind ToolCallKind

	// JsonObject / JsonArray fields.
	NameKey     string
	ArgumentKey string

	// NamedParameters fields.
	Prefix    OrderedLexemes
	Delimiter OrderedLexemes
	Arguments Arguments
	Suffix    OrderedLexemes
}

func NewJSONObjectToolCall(nameKey, argumentKey string) ToolCall {
	return ToolCall{Kind: ToolCallJSONObject, NameKey: nameKey, ArgumentKey: argumentKey}
}

func NewJSONArrayToolCall(nameKey, argumentKey string) ToolCall {
	return ToolCall{Kind: ToolCallJSONArray, NameKey: nameKey, ArgumentKey: argumentKey}
}

func NewNamedParametersToolCall(prefix, delimiter OrderedLexemes, args Arguments, suffix OrderedLexemes) ToolCall {
	return ToolCall{
		Kind:      ToolCallNamedParameters,
		Prefix:    prefix,
		Delimiter: delimiter,
		Arguments: args,
		Suffix:    suffix,
	}
}

func (tc ToolCall) MarshalJSON() ([]byte, error) {
	switch tc.Kind {
	case ToolCallJSONObject:
		return json.Marshal(struct {
			Type        string `json:"type"`
			NameKey     string `json:"name_key"`
			ArgumentKey string `json:"argument_key"`
		}{"json_object", tc.NameKey, tc.ArgumentKey})
	case ToolCallJSONArray:
		return json.Marshal(struct {
			Type        string `json:"type"`
			NameKey     string `json:"name_key"`
			ArgumentKey string `json:"argument_key"`
		}{"json_array", tc.NameKey, tc.ArgumentKey})
	case ToolCallNamedParameters:
		return json.Marshal(struct {
			Type      string          `json:"type"`
			Prefix    *OrderedLexemes `json:"prefix,omitempty"`
			Delimiter *OrderedLexemes `json:"delimiter,omitempty"`
			Arguments Arguments       `json:"arguments"`
			Suffix    *OrderedLexemes `json:"suffix,omitempty"`
		}{
			Type:      "named_parameters",
			Prefix:    orderedLexemesPtr(tc.Prefix),
			Delimiter: orderedLexemesPtr(tc.Delimiter),
			Arguments: tc.Arguments,
			Suffix:    orderedLexemesPtr(tc.Suffix),
		})
	default:
		return nil, fmt.Errorf("acquiesce: unknown tool call kind %d", tc.Kind)
	}
}

func orderedLexemesPtr(ol OrderedLexemes) *OrderedLexemes {
	if len(ol) == 0 {
		return nil
	}

	return &ol
}

func (tc *ToolCall) UnmarshalJSON(data []byte) error {
	typ := gjson.GetBytes(data, "type").String()

	switch typ {
	case "json_object", "json_array":
		var aux struct {
			NameKey     string `json:"name_key"`
			ArgumentKey string `json:"argument_key"`
		}

		if err := json.Unmarshal(data, &aux); err != nil {
			return err
		}

		if typ == "json_object" {
			*tc = NewJSONObjectToolCall(aux.NameKey, aux.ArgumentKey)
		} else {
			*tc = NewJSONArrayToolCall(aux.NameKey, aux.ArgumentKey)
		}

		return nil
	case "named_parameters":
		var aux struct {
			Prefix    *OrderedLexemes `json:"prefix"`
			Delimiter *OrderedLexemes `json:"delimiter"`
			Arguments Arguments       `json:"arguments"`
			Suffix    *OrderedLexemes `json:"suffix"`
		}

		if err := json.Unmarshal(data, &aux); err != nil {
			return err
		}

		var prefix, delimiter, suffix OrderedLexemes
		if aux.Prefix != nil {
			prefix = *aux.Prefix
		}

		if aux.Delimiter != nil {
			delimiter = *aux.Delimiter
		}

		if aux.Suffix != nil {
			suffix = *aux.Suffix
		}

		*tc = NewNamedParametersToolCall(prefix, delimiter, aux.Arguments, suffix)

		return nil
	default:
		return fmt.Errorf("acquiesce: unknown tool_call type %q", typ)
	}
}

// NamedParameters is a documentation-only alias used by callers who want a
// named type when constructing ToolCall{Kind: ToolCallNamedParameters, ...}
// literals; the fields live directly on ToolCall.
type NamedParameters struct{}

// ToolCallsKind tags the two tool-calls shapes of spec.md §3.
type ToolCallsKind int

const (
	ToolCallsSingle ToolCallsKind = iota
	ToolCallsSection
)

// ToolCalls is the tagged tool-calls shape: either a single call definition
// or a prefix/tool_call/suffix section admitting parallel calls.
type ToolCalls struct {
	Kind ToolCallsKind

	// Single.
	ToolCall ToolCall

	// Section.
	Prefix OrderedLexemes
	Suffix OrderedLexemes
}

func NewSingleToolCalls(tc ToolCall) ToolCalls {
	return ToolCalls{Kind: ToolCallsSingle, ToolCall: tc}
}

func NewSectionToolCalls(prefix OrderedLexemes, tc ToolCall, suffix OrderedLexemes) ToolCalls {
	return ToolCalls{Kind: ToolCallsSection, Prefix: prefix, ToolCall: tc, Suffix: suffix}
}

func (tcs ToolCalls) MarshalJSON() ([]byte, error) {
	switch tcs.Kind {
	case ToolCallsSingle:
		return json.Marshal(struct {
			Type     string   `json:"type"`
			ToolCall ToolCall `json:"tool_call"`
		}{"tool_call", tcs.ToolCall})
	case ToolCallsSection:
		return json.Marshal(struct {
			Type     string          `json:"type"`
			Prefix   OrderedLexemes  `json:"prefix"`
			ToolCall ToolCall        `json:"tool_call"`
			Suffix   *OrderedLexemes `json:"suffix,omitempty"`
		}{"tool_calls_section", tcs.Prefix, tcs.ToolCall, orderedLexemesPtr(tcs.Suffix)})
	default:
		return nil, fmt.Errorf("acquiesce: unknown tool calls kind %d", tcs.Kind)
	}
}

func (tcs *ToolCalls) UnmarshalJSON(data []byte) error {
	typ := gjson.GetBytes(data, "type").String()

	switch typ {
	case "tool_call":
		var aux struct {
			ToolCall ToolCall `json:"tool_call"`
		}

		if err := json.Unmarshal(data, &aux); err != nil {
			return err
		}

		*tcs = NewSingleToolCalls(aux.ToolCall)

		return nil
	case "tool_calls_section":
		var aux struct {
			Prefix   OrderedLexemes  `json:"prefix"`
			ToolCall ToolCall        `json:"tool_call"`
			Suffix   *OrderedLexemes `json:"suffix"`
		}

		if err := json.Unmarshal(data, &aux); err != nil {
			return err
		}

		var suffix OrderedLexemes
		if aux.Suffix != nil {
			suffix = *aux.Suffix
		}

		*tcs = NewSectionToolCalls(aux.Prefix, aux.ToolCall, suffix)

		return nil
	default:
		return fmt.Errorf("acquiesce: unknown tool_calls type %q", typ)
	}
}

// ToolChoiceKind tags the four tool-choice policies.
type ToolChoiceKind int

const (
	ToolChoiceAuto ToolChoiceKind = iota
	ToolChoiceNone
	ToolChoiceRequired
	ToolChoiceFunction
)

// ToolChoice controls whether the grammar allows, forbids, requires, or
// pins the tool-call region. Decodes from either a bare string ("auto",
// "none", "required", or a raw function name) or {"type":"function",
// "function":{"name":...}}, per original_source/src/render/schema.rs.
type ToolChoice struct {
	Kind         ToolChoiceKind
	FunctionName string
}

func (tc ToolChoice) MarshalJSON() ([]byte, error) {
	switch tc.Kind {
	case ToolChoiceAuto:
		return json.Marshal("auto")
	case ToolChoiceNone:
		return json.Marshal("none")
	case ToolChoiceRequired:
		return json.Marshal("required")
	case ToolChoiceFunction:
		return json.Marshal(struct {
			Type     string `json:"type"`
			Function struct {
				Name string `json:"name"`
			} `json:"function"`
		}{"function", struct {
			Name string `json:"name"`
		}{tc.FunctionName}})
	default:
		return nil, fmt.Errorf("acquiesce: unknown tool choice kind %d", tc.Kind)
	}
}

func (tc *ToolChoice) UnmarshalJSON(data []byte) error {
	parsed := gjson.ParseBytes(data)

	if parsed.Type == gjson.String {
		switch parsed.String() {
		case "none":
			*tc = ToolChoice{Kind: ToolChoiceNone}
		case "auto":
			*tc = ToolChoice{Kind: ToolChoiceAuto}
		case "required":
			*tc = ToolChoice{Kind: ToolChoiceRequired}
		default:
			*tc = ToolChoice{Kind: ToolChoiceFunction, FunctionName: parsed.String()}
		}

		return nil
	}

	name := gjson.GetBytes(data, "function.name")
	if !name.Exists() {
		return fmt.Errorf("acquiesce: invalid tool_choice payload: %s", data)
	}

	*tc = ToolChoice{Kind: ToolChoiceFunction, FunctionName: name.String()}

	return nil
}
