package grammar

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/looplj/acquiesce"
	"github.com/looplj/acquiesce/chatmodel"
	"github.com/looplj/acquiesce/configs"
	"github.com/looplj/acquiesce/ruletable"
)

func kimiTools() []chatmodel.Tool {
	return []chatmodel.Tool{
		{
			Kind: chatmodel.ToolFunction,
			Name: "add",
			Parameters: json.RawMessage(`{"type":"object","properties":{"a":{"type":"integer"},"b":{"type":"integer"}},"required":["a","b"]}`),
		},
		{
			Kind: chatmodel.ToolFunction,
			Name: "echo",
			Parameters: json.RawMessage(`{"type":"object","properties":{"s":{"type":"string"}},"required":["s"]}`),
		},
	}
}

// spec.md §8 scenario 1: Kimi-K2 shape, Required + parallel=true.
func TestCompile_KimiRequiredParallel(t *testing.T) {
	out, err := Compile(Input{
		Envelope:          configs.KimiK2(),
		Tools:             kimiTools(),
		ToolChoice:        &acquiesce.ToolChoice{Kind: acquiesce.ToolChoiceRequired},
		ParallelToolCalls: true,
		Syntax:            ruletable.Lark,
	})
	require.NoError(t, err)
	require.NotNil(t, out)

	assert.Contains(t, out.Grammar, `"add"`)
	assert.Contains(t, out.Grammar, `"echo"`)
	assert.Contains(t, out.Grammar, "*")
	assert.Contains(t, out.Grammar, "<|tool_calls_section_begin|>")

	rootLine := firstLine(out.Grammar)
	assert.NotContains(t, rootLine, "TEXT", "free-content TEXT must not appear before the section")
}

// spec.md §8 scenario 2: Auto with mixed content.
func TestCompile_AutoMixedContent(t *testing.T) {
	out, err := Compile(Input{
		Envelope:              configs.KimiK2(),
		Tools:                 kimiTools(),
		ToolChoice:            &acquiesce.ToolChoice{Kind: acquiesce.ToolChoiceAuto},
		MixedContentToolCalls: true,
		Syntax:                ruletable.Lark,
	})
	require.NoError(t, err)
	require.NotNil(t, out)

	assert.Contains(t, out.Grammar, "TEXT")
	assert.Contains(t, out.Grammar, "?")
}

// spec.md §8 boundary: empty tool list or tool_choice=None ⇒ no grammar.
func TestCompile_ShortCircuit(t *testing.T) {
	out, err := Compile(Input{
		Envelope: configs.KimiK2(),
		Tools:    nil,
		Syntax:   ruletable.Lark,
	})
	require.NoError(t, err)
	assert.Nil(t, out)

	out, err = Compile(Input{
		Envelope:   configs.KimiK2(),
		Tools:      kimiTools(),
		ToolChoice: &acquiesce.ToolChoice{Kind: acquiesce.ToolChoiceNone},
		Syntax:     ruletable.Lark,
	})
	require.NoError(t, err)
	assert.Nil(t, out)

	out, err = Compile(Input{
		Envelope: acquiesce.NewHarmonyEnvelope(),
		Tools:    kimiTools(),
		Syntax:   ruletable.Lark,
	})
	require.NoError(t, err)
	assert.Nil(t, out)
}

// spec.md §8 boundary: tool_choice = Function(unknown) ⇒ ChatToolChoice error.
func TestCompile_UnknownFunctionChoice(t *testing.T) {
	_, err := Compile(Input{
		Envelope:   configs.KimiK2(),
		Tools:      kimiTools(),
		ToolChoice: &acquiesce.ToolChoice{Kind: acquiesce.ToolChoiceFunction, FunctionName: "missing"},
		Syntax:     ruletable.Lark,
	})
	require.Error(t, err)

	var renderErr *acquiesce.RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, acquiesce.RenderChatToolChoice, renderErr.Kind)
}

// spec.md §8 boundary: parallel_tool_calls=false with Section admits exactly
// one call (no repetition suffix on the section's own body).
func TestCompile_SingleCallNoParallel(t *testing.T) {
	out, err := Compile(Input{
		Envelope:          configs.KimiK2(),
		Tools:             kimiTools(),
		ToolChoice:        &acquiesce.ToolChoice{Kind: acquiesce.ToolChoiceRequired},
		ParallelToolCalls: false,
		Syntax:            ruletable.Lark,
	})
	require.NoError(t, err)
	require.NotNil(t, out)

	for _, line := range strings.Split(out.Grammar, "\n") {
		if strings.HasPrefix(line, "tool_calls_section") {
			assert.NotContains(t, line, "*")
		}
	}
}

func TestValidateTools_InvalidRegex(t *testing.T) {
	tools := []chatmodel.Tool{
		{
			Kind: chatmodel.ToolCustom,
			Name: "broken",
			CustomFormat: chatmodel.CustomToolFormat{
				Kind:       chatmodel.CustomFormatGrammar,
				Syntax:     chatmodel.CustomSyntaxRegex,
				Definition: "[unterminated",
			},
		},
	}

	err := ValidateTools(tools)
	require.Error(t, err)

	var renderErr *acquiesce.RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, acquiesce.RenderRegex, renderErr.Kind)
}

func TestValidateTools_InvalidLark(t *testing.T) {
	tools := []chatmodel.Tool{
		{
			Kind: chatmodel.ToolCustom,
			Name: "broken",
			CustomFormat: chatmodel.CustomToolFormat{
				Kind:       chatmodel.CustomFormatGrammar,
				Syntax:     chatmodel.CustomSyntaxLark,
				Definition: `start: "unterminated`,
			},
		},
	}

	err := ValidateTools(tools)
	require.Error(t, err)

	var renderErr *acquiesce.RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, acquiesce.RenderLark, renderErr.Kind)
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}

	return s
}
