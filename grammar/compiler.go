// Package grammar implements the envelope compiler of spec.md §4.5: it
// turns a Components envelope description, a validated tool list, and a
// tool-choice policy into a constrained-decoding grammar (Lark or GBNF),
// built on top of package ruletable's interner and package schema's
// JSON-Schema lowering.
package grammar

import (
	"github.com/looplj/acquiesce"
	"github.com/looplj/acquiesce/chatmodel"
	"github.com/looplj/acquiesce/ruletable"
)

// Input is everything the compiler needs for one request, per spec.md
// §4.5's input list.
type Input struct {
	Envelope              acquiesce.Envelope
	Tools                 []chatmodel.Tool
	ToolChoice            *acquiesce.ToolChoice
	ParallelToolCalls     bool
	MixedContentToolCalls bool
	Syntax                ruletable.Syntax
}

// Output is the compiled grammar text.
type Output struct {
	Grammar string
}

// Compile runs the envelope compiler. A nil, nil return means the
// short-circuit applies: the caller should decode with no grammar.
func Compile(in Input) (*Output, error) {
	if !needsGrammar(in) {
		return nil, nil
	}

	if err := ValidateTools(in.Tools); err != nil {
		return nil, err
	}

	tc := *in.Envelope.ToolCalls

	choiceKind := acquiesce.ToolChoiceAuto

	restrict := ""
	if in.ToolChoice != nil {
		choiceKind = in.ToolChoice.Kind

		if choiceKind == acquiesce.ToolChoiceFunction {
			restrict = in.ToolChoice.FunctionName
			if !toolExists(in.Tools, restrict) {
				return nil, &acquiesce.RenderError{Kind: acquiesce.RenderChatToolChoice, Detail: restrict}
			}
		}
	}

	t := ruletable.New(in.Syntax)

	callKey, err := buildCallAlternation(t, tc.ToolCall, eligibleTools(in.Tools, restrict), in.Syntax)
	if err != nil {
		return nil, err
	}

	res, err := ResolveToolChoice(t, choiceKind, callKey)
	if err != nil {
		return nil, err
	}

	if tc.Kind == acquiesce.ToolCallsSection {
		wrapped, err := wrapSection(t, tc, res.ToolsRule, in.ParallelToolCalls, in.Syntax)
		if err != nil {
			return nil, err
		}

		res.ToolsRule = wrapped
	}

	root, err := assembleRoot(t, in, res)
	if err != nil {
		return nil, err
	}

	text, err := t.Resolve(root)
	if err != nil {
		return nil, err
	}

	return &Output{Grammar: text}, nil
}

// needsGrammar applies spec.md §4.5's short-circuit: no tools, tool_choice
// None, or an envelope with no tool_calls all mean free decoding.
func needsGrammar(in Input) bool {
	if len(in.Tools) == 0 {
		return false
	}

	if in.ToolChoice != nil && in.ToolChoice.Kind == acquiesce.ToolChoiceNone {
		return false
	}

	return in.Envelope.HasToolCalls()
}

func toolExists(tools []chatmodel.Tool, name string) bool {
	for _, t := range tools {
		if t.Name == name {
			return true
		}
	}

	return false
}

// eligibleTools filters tools down to the one tool_choice restricts the
// grammar to, or returns every tool when no restriction applies.
func eligibleTools(tools []chatmodel.Tool, restrict string) []chatmodel.Tool {
	if restrict == "" {
		return tools
	}

	for _, t := range tools {
		if t.Name == restrict {
			return []chatmodel.Tool{t}
		}
	}

	return nil
}

// assembleRoot implements spec.md §4.5's "Root assembly": thinking
// prefix/text/suffix if present, the generic text lexeme if content is
// allowed alongside tool calls, then the tool-calls rule.
func assembleRoot(t *ruletable.Table, in Input, res *Resolution) (ruletable.Key, error) {
	var parts []ruletable.Key

	if in.Envelope.Kind == acquiesce.EnvelopeComponents && in.Envelope.Thinking != nil {
		thinkingKey, err := buildThinking(t, *in.Envelope.Thinking, in.Syntax)
		if err != nil {
			return ruletable.Key{}, err
		}

		parts = append(parts, thinkingKey)
	}

	if res.AllowContent || in.MixedContentToolCalls {
		parts = append(parts, reserveText(t, in.Syntax))
	}

	parts = append(parts, res.ToolsRule)

	return t.Sequence("root", parts...), nil
}

func buildThinking(t *ruletable.Table, thinking acquiesce.Thinking, syntax ruletable.Syntax) (ruletable.Key, error) {
	var seq []ruletable.Key

	prefixKey, ok, err := sequenceKey(t, "thinking_prefix", thinking.Prefix, syntax)
	if err != nil {
		return ruletable.Key{}, err
	}

	if ok {
		seq = append(seq, prefixKey)
	}

	seq = append(seq, reserveText(t, syntax))

	suffixKey, ok, err := sequenceKey(t, "thinking_suffix", thinking.Suffix, syntax)
	if err != nil {
		return ruletable.Key{}, err
	}

	if ok {
		seq = append(seq, suffixKey)
	}

	return t.Sequence("thinking", seq...), nil
}
