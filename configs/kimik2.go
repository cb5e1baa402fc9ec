// Package configs holds concrete default envelope descriptions and the
// model-name inference table described in spec.md §6 ("Default-inference").
package configs

import "github.com/looplj/acquiesce"

// KimiK2 returns the default envelope for the Kimi K2 model family, ported
// from original_source/src/configs/kimik2.rs.
func KimiK2() acquiesce.Envelope {
	thinking := &acquiesce.Thinking{
		Prefix: acquiesce.OrderedLexemes{acquiesce.NewToken("<thinking>")},
		Suffix: acquiesce.OrderedLexemes{acquiesce.NewToken("</thinking>")},
	}

	toolCall := acquiesce.NewNamedParametersToolCall(
		acquiesce.OrderedLexemes{acquiesce.NewToken("<|tool_call_begin|>functions.")},
		acquiesce.OrderedLexemes{
			acquiesce.NewText(":"),
			acquiesce.NewRegex("[0-9]+"),
			acquiesce.NewToken("<|tool_call_argument_begin|>"),
		},
		acquiesce.Arguments{Kind: acquiesce.ArgumentsJSONObject},
		acquiesce.OrderedLexemes{acquiesce.NewToken("<|tool_call_end|>")},
	)

	toolCalls := acquiesce.NewSectionToolCalls(
		acquiesce.OrderedLexemes{acquiesce.NewToken("<|tool_calls_section_begin|>")},
		toolCall,
		acquiesce.OrderedLexemes{acquiesce.NewToken("<|tool_calls_section_end|>")},
	)

	return acquiesce.NewComponentsEnvelope(thinking, &toolCalls)
}
