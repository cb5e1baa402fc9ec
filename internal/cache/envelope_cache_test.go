package cache

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/looplj/acquiesce"
	"github.com/looplj/acquiesce/chatmodel"
	"github.com/looplj/acquiesce/grammar"
	"github.com/looplj/acquiesce/ruletable"
)

func input() grammar.Input {
	return grammar.Input{
		Envelope: acquiesce.NewComponentsEnvelope(nil, func() *acquiesce.ToolCalls {
			tc := acquiesce.NewSingleToolCalls(acquiesce.NewJSONObjectToolCall("name", "arguments"))
			return &tc
		}()),
		Tools: []chatmodel.Tool{
			{Kind: chatmodel.ToolFunction, Name: "add", Parameters: json.RawMessage(`{"type":"object"}`)},
		},
		ToolChoice: &acquiesce.ToolChoice{Kind: acquiesce.ToolChoiceRequired},
		Syntax:     ruletable.Lark,
	}
}

func TestEnvelopeCache_CachesByInput(t *testing.T) {
	c, err := New(8)
	require.NoError(t, err)

	in := input()

	first, err := c.Compile(in)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := c.Compile(in)
	require.NoError(t, err)
	require.NotNil(t, second)

	assert.Same(t, first, second, "a repeated call with the same input must return the cached compilation")
}

func TestEnvelopeCache_DifferentInputMisses(t *testing.T) {
	c, err := New(8)
	require.NoError(t, err)

	in := input()

	first, err := c.Compile(in)
	require.NoError(t, err)

	in.ParallelToolCalls = true

	second, err := c.Compile(in)
	require.NoError(t, err)

	assert.NotSame(t, first, second)
}

func TestEnvelopeCache_ConcurrentCallsCollapse(t *testing.T) {
	c, err := New(8)
	require.NoError(t, err)

	in := input()

	const n = 16

	results := make([]*grammar.Output, n)
	errs := make([]error, n)

	var wg sync.WaitGroup

	for i := 0; i < n; i++ {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			results[i], errs[i] = c.Compile(in)
		}(i)
	}

	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		require.NotNil(t, results[i])
		assert.Same(t, results[0], results[i])
	}
}
