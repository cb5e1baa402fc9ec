package render

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/looplj/acquiesce"
	"github.com/looplj/acquiesce/chatmodel"
	"github.com/looplj/acquiesce/configs"
	"github.com/looplj/acquiesce/ruletable"
)

func tools() []chatmodel.Tool {
	return []chatmodel.Tool{
		{
			Kind:       chatmodel.ToolFunction,
			Name:       "add",
			Parameters: json.RawMessage(`{"type":"object","properties":{"a":{"type":"integer"}},"required":["a"]}`),
		},
	}
}

func request(tools []chatmodel.Tool, choice *acquiesce.ToolChoice) chatmodel.Request {
	return chatmodel.Request{
		Messages: []chatmodel.Message{
			{Role: "user", Content: chatmodel.Text("what is 2+2?")},
		},
		Tools:      tools,
		ToolChoice: choice,
	}
}

func TestRender_ProducesGrammarAndParser(t *testing.T) {
	result, err := Render(
		chatmodel.PlainTranscriptTemplate{},
		configs.KimiK2(),
		request(tools(), &acquiesce.ToolChoice{Kind: acquiesce.ToolChoiceRequired}),
		ruletable.Lark,
	)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Contains(t, result.Prompt, "user: what is 2+2?")
	require.NotNil(t, result.Grammar)
	assert.Contains(t, *result.Grammar, "add")
	assert.NotNil(t, result.Parser)
}

// spec.md §8 boundary: empty tool list ⇒ grammar and parser absent.
func TestRender_NoToolsShortCircuits(t *testing.T) {
	result, err := Render(
		chatmodel.PlainTranscriptTemplate{},
		configs.KimiK2(),
		request(nil, nil),
		ruletable.Lark,
	)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Nil(t, result.Grammar)
	assert.Nil(t, result.Parser)
}

// spec.md §8 scenario 3: Harmony envelope ⇒ prompt only, regardless of tools.
func TestRender_HarmonyEnvelopeNeverGrammar(t *testing.T) {
	result, err := Render(
		chatmodel.PlainTranscriptTemplate{},
		acquiesce.NewHarmonyEnvelope(),
		request(tools(), &acquiesce.ToolChoice{Kind: acquiesce.ToolChoiceRequired}),
		ruletable.Lark,
	)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Nil(t, result.Grammar)
	assert.Nil(t, result.Parser)
}
