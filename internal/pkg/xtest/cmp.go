package xtest

import (
	"encoding/json"

	"github.com/google/go-cmp/cmp"

	"github.com/looplj/acquiesce/chatmodel"
	"github.com/looplj/acquiesce/internal/pkg/xjson"
)

// Custom comparator for json.RawMessage that compares semantic equality.
func jsonRawMessageComparer(x, y json.RawMessage) bool {
	if len(x) == 0 && len(y) == 0 {
		return true
	}

	if len(x) == 0 || len(y) == 0 {
		return false
	}

	var xVal, yVal any
	if err := json.Unmarshal(x, &xVal); err != nil {
		return false
	}

	if err := json.Unmarshal(y, &yVal); err != nil {
		return false
	}

	return cmp.Equal(xVal, yVal)
}

func nilString(x *string) string {
	if x == nil {
		return ""
	}

	return *x
}

func nilInt(x *int) int {
	if x == nil {
		return 0
	}

	return *x
}

// Equal provides semantic equality comparison with custom transformers and comparers.
func Equal(a, b any, opts ...cmp.Option) bool {
	allOpts := append(opts,
		ToolCallsTransformer,
		cmp.Transformer("", nilString),
		cmp.Transformer("", nilInt),
		cmp.Comparer(jsonRawMessageComparer))

	return cmp.Equal(a, b, allOpts...)
}

// ToolCallsTransformer normalizes a tool call's arguments before comparison:
// two calls whose arguments differ only in key order or whitespace compare
// equal, the way a caller actually cares about them.
var ToolCallsTransformer = cmp.Transformer("toolCall", func(x chatmodel.ToolCall) chatmodel.ToolCall {
	var args any
	if x.Function.Arguments != "" {
		err := json.Unmarshal([]byte(x.Function.Arguments), &args)
		if err != nil {
			args = x.Function.Arguments
		}
	}

	rawArgs := xjson.MustMarshalString(args)

	return chatmodel.ToolCall{
		Index: x.Index,
		ID:    x.ID,
		Type:  x.Type,
		Function: chatmodel.FunctionCall{
			Name:      x.Function.Name,
			Arguments: rawArgs,
		},
	}
})
