package chatmodel

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// ToolCall is a model-emitted tool invocation, grounded on the shape
// reconstructed from the teacher's
// internal/llm/transformer/openai/outbound_convert.go (ToolFromLLM /
// ToolCallFromLLM): {id, type, function:{name, arguments}, index}.
type ToolCall struct {
	Index    *int            `json:"index,omitempty"`
	ID       string          `json:"id,omitempty"`
	Type     string          `json:"type,omitempty"`
	Function FunctionCall    `json:"function"`
}

type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolKind tags the two ChatTool variants spec.md §3 describes: ordinary
// function tools and custom (text/grammar-constrained) tools.
type ToolKind int

const (
	ToolFunction ToolKind = iota
	ToolCustom
)

// Tool is one entry of a request's tool list.
type Tool struct {
	Kind ToolKind

	// Function fields.
	Name        string
	Description string
	Parameters  json.RawMessage
	Strict      bool

	// Custom fields.
	CustomFormat CustomToolFormat
}

// CustomToolSyntax tags the grammar syntax a Grammar-format custom tool's
// definition is written in.
type CustomToolSyntax int

const (
	CustomSyntaxLark CustomToolSyntax = iota
	CustomSyntaxRegex
)

// CustomToolFormatKind tags whether a custom tool accepts free text or a
// grammar-constrained string.
type CustomToolFormatKind int

const (
	CustomFormatText CustomToolFormatKind = iota
	CustomFormatGrammar
)

type CustomToolFormat struct {
	Kind       CustomToolFormatKind
	Syntax     CustomToolSyntax
	Definition string
}

func (t Tool) MarshalJSON() ([]byte, error) {
	switch t.Kind {
	case ToolFunction:
		return json.Marshal(struct {
			Type     string `json:"type"`
			Function struct {
				Name        string          `json:"name"`
				Description string          `json:"description,omitempty"`
				Parameters  json.RawMessage `json:"parameters"`
				Strict      bool            `json:"strict,omitempty"`
			} `json:"function"`
		}{"function", struct {
			Name        string          `json:"name"`
			Description string          `json:"description,omitempty"`
			Parameters  json.RawMessage `json:"parameters"`
			Strict      bool            `json:"strict,omitempty"`
		}{t.Name, t.Description, t.Parameters, t.Strict}})
	case ToolCustom:
		type format struct {
			Type    string `json:"type"`
			Grammar *struct {
				Definition string `json:"definition"`
				Syntax     string `json:"syntax"`
			} `json:"grammar,omitempty"`
		}

		f := format{Type: "text"}
		if t.CustomFormat.Kind == CustomFormatGrammar {
			f.Type = "grammar"
			syntax := "lark"
			if t.CustomFormat.Syntax == CustomSyntaxRegex {
				syntax = "regex"
			}

			f.Grammar = &struct {
				Definition string `json:"definition"`
				Syntax     string `json:"syntax"`
			}{t.CustomFormat.Definition, syntax}
		}

		return json.Marshal(struct {
			Type   string `json:"type"`
			Custom struct {
				Name        string `json:"name"`
				Description string `json:"description,omitempty"`
				Format      format `json:"format"`
			} `json:"custom"`
		}{"custom", struct {
			Name        string `json:"name"`
			Description string `json:"description,omitempty"`
			Format      format `json:"format"`
		}{t.Name, t.Description, f}})
	default:
		return nil, fmt.Errorf("chatmodel: unknown tool kind %d", t.Kind)
	}
}

func (t *Tool) UnmarshalJSON(data []byte) error {
	typ := gjson.GetBytes(data, "type").String()

	switch typ {
	case "function":
		var aux struct {
			Function struct {
				Name        string          `json:"name"`
				Description string          `json:"description"`
				Parameters  json.RawMessage `json:"parameters"`
				Strict      bool            `json:"strict"`
			} `json:"function"`
		}

		if err := json.Unmarshal(data, &aux); err != nil {
			return err
		}

		*t = Tool{
			Kind:        ToolFunction,
			Name:        aux.Function.Name,
			Description: aux.Function.Description,
			Parameters:  aux.Function.Parameters,
			Strict:      aux.Function.Strict,
		}

		return nil
	case "custom":
		var aux struct {
			Custom struct {
				Name        string `json:"name"`
				Description string `json:"description"`
				Format      struct {
					Type    string `json:"type"`
					Grammar *struct {
						Definition string `json:"definition"`
						Syntax     string `json:"syntax"`
					} `json:"grammar"`
				} `json:"format"`
			} `json:"custom"`
		}

		if err := json.Unmarshal(data, &aux); err != nil {
			return err
		}

		cf := CustomToolFormat{Kind: CustomFormatText}
		if aux.Custom.Format.Type == "grammar" && aux.Custom.Format.Grammar != nil {
			cf.Kind = CustomFormatGrammar
			cf.Definition = aux.Custom.Format.Grammar.Definition
			if aux.Custom.Format.Grammar.Syntax == "regex" {
				cf.Syntax = CustomSyntaxRegex
			} else {
				cf.Syntax = CustomSyntaxLark
			}
		}

		*t = Tool{
			Kind:         ToolCustom,
			Name:         aux.Custom.Name,
			Description:  aux.Custom.Description,
			CustomFormat: cf,
		}

		return nil
	default:
		return fmt.Errorf("chatmodel: unknown tool type %q", typ)
	}
}

// ParametersSchema synthesizes the JSON-Schema parameters a grammar
// compiler treats uniformly for every tool, function or custom. Custom
// tools are mapped per original_source/src/render/schema.rs's
// From<ChatTool> for TemplateTool: Text becomes a plain string schema
// (Open Question (a) in spec.md §9, resolved in favor of a plain JSON
// string, not a non-JSON plain-text alternative); Grammar{Lark} becomes a
// descriptive string schema; Grammar{Regex} becomes a string schema with a
// "pattern" constraint.
func (t Tool) ParametersSchema() json.RawMessage {
	if t.Kind == ToolFunction {
		return t.Parameters
	}

	switch {
	case t.CustomFormat.Kind == CustomFormatText:
		return json.RawMessage(`{"type":"string"}`)
	case t.CustomFormat.Syntax == CustomSyntaxRegex:
		encoded, _ := json.Marshal(t.CustomFormat.Definition)
		return json.RawMessage(fmt.Sprintf(`{"type":"string","pattern":%s}`, encoded))
	default: // CustomSyntaxLark
		desc := fmt.Sprintf("a string that conforms to the following Lark grammar: %s", t.CustomFormat.Definition)
		encoded, _ := json.Marshal(desc)

		return json.RawMessage(fmt.Sprintf(`{"type":"string","description":%s}`, encoded))
	}
}
