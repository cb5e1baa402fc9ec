// Package parse implements the streaming side of spec.md §4: the partial
// JSON consumer (§4.1), the literal consumer (§4.2), and the streaming
// envelope parser (§4.6) built on top of them.
package parse

import "github.com/kaptinlin/jsonrepair"

// ConsumeResultKind tags the four possible outcomes of feeding one
// character to a consumer, per spec.md §4.1.
type ConsumeResultKind int

const (
	// Consumed: the character advanced state and contributes to the
	// buffered value.
	Consumed ConsumeResultKind = iota
	// Omitted: the character advanced state without contributing
	// (whitespace outside strings; structural string characters whose
	// semantic effect is captured in state).
	Omitted
	// Unconsumed: the current value is complete; the character belongs to
	// an enclosing context and must be re-offered there.
	Unconsumed
	// Rejected: the character cannot extend any valid JSON prefix here.
	Rejected
)

// ConsumeResult is the outcome of one consume(c) call.
type ConsumeResult struct {
	Kind     ConsumeResultKind
	Char     rune   // populated for Unconsumed / Rejected
	Expected string // populated for Rejected: a short human-readable tag
}

func consumed() ConsumeResult { return ConsumeResult{Kind: Consumed} }
func omitted() ConsumeResult  { return ConsumeResult{Kind: Omitted} }

func unconsumed(c rune) ConsumeResult {
	return ConsumeResult{Kind: Unconsumed, Char: c}
}

func rejected(c rune, expected string) ConsumeResult {
	return ConsumeResult{Kind: Rejected, Char: c, Expected: expected}
}

// ParseResultKind tags the five deltas the streaming envelope parser
// emits, per spec.md §4.6.
type ParseResultKind int

const (
	ResultContent ParseResultKind = iota
	ResultThinking
	ResultToolCall
	ResultRejected
	ResultComplete
)

// ToolCallDelta is one incremental fragment of a tool call's arguments,
// keyed by the call's position among the response's tool calls.
type ToolCallDelta struct {
	Index int
	Name  string // populated once known; empty until the name is resolved
	Delta string // the incremental canonical-rendering append
}

// ParseResult is one delta emitted by Advance.
type ParseResult struct {
	Kind ParseResultKind

	Content  string        // ResultContent / ResultThinking
	ToolCall ToolCallDelta // ResultToolCall

	Buffered string // ResultRejected: the canonical rendering at the point of rejection
	Expected string // ResultRejected
	Repaired string // ResultRejected: best-effort jsonrepair of Buffered, empty if repair failed
}

func contentResult(s string) ParseResult { return ParseResult{Kind: ResultContent, Content: s} }

func toolCallResult(d ToolCallDelta) ParseResult {
	return ParseResult{Kind: ResultToolCall, ToolCall: d}
}

// rejectedResult reports a rejection, plus a best-effort jsonrepair of the
// buffered partial value: rejection is not fatal (spec.md §7), and callers
// that still want a usable arguments object can fall back to Repaired when
// it's non-empty.
func rejectedResult(buffered, expected string) ParseResult {
	repaired, err := jsonrepair.JSONRepair(buffered)
	if err != nil {
		repaired = ""
	}

	return ParseResult{Kind: ResultRejected, Buffered: buffered, Expected: expected, Repaired: repaired}
}

func completeResult() ParseResult { return ParseResult{Kind: ResultComplete} }
