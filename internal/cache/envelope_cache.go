// Package cache memoizes compiled grammars. spec.md §5 treats a compiled
// envelope grammar as immutable and safely shareable across requests; this
// package is the sharing policy, keyed by the request-shaped grammar.Input
// that produced it.
//
// Grounded on the teacher's TraceStickyKeyProvider
// (internal/server/biz/channel_apikey_provider.go, hashicorp/golang-lru/v2)
// for the LRU half, and its TokenProvider
// (llm/oauth/token_provider.go, golang.org/x/sync/singleflight) for
// collapsing concurrent compiles of the same key into one.
package cache

import (
	"encoding/json"
	"strconv"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/looplj/acquiesce/grammar"
)

// EnvelopeCache memoizes grammar.Compile by a hash of its input.
type EnvelopeCache struct {
	lru   *lru.Cache[uint64, *grammar.Output]
	group singleflight.Group
}

// New returns an EnvelopeCache holding at most size compiled grammars.
func New(size int) (*EnvelopeCache, error) {
	l, err := lru.New[uint64, *grammar.Output](size)
	if err != nil {
		return nil, err
	}

	return &EnvelopeCache{lru: l}, nil
}

// Compile returns the cached compilation for in if present; otherwise it
// compiles once (collapsing concurrent callers for the same key via
// singleflight) and caches the result.
func (c *EnvelopeCache) Compile(in grammar.Input) (*grammar.Output, error) {
	key, err := hashInput(in)
	if err != nil {
		return nil, err
	}

	if out, ok := c.lru.Get(key); ok {
		return out, nil
	}

	v, err, _ := c.group.Do(strconv.FormatUint(key, 36), func() (any, error) {
		if out, ok := c.lru.Get(key); ok {
			return out, nil
		}

		out, err := grammar.Compile(in)
		if err != nil {
			return nil, err
		}

		c.lru.Add(key, out)

		return out, nil
	})
	if err != nil {
		return nil, err
	}

	out, _ := v.(*grammar.Output)

	return out, nil
}

// hashInput reduces in to a cache key. The envelope, tools, tool-choice,
// the two boolean flags and the target syntax fully determine the compiled grammar, so
// marshaling that projection to JSON and hashing it is sufficient; the
// marshaled form is never stored or inspected, only hashed.
func hashInput(in grammar.Input) (uint64, error) {
	projection := struct {
		Envelope              json.RawMessage
		Tools                 []json.RawMessage
		ToolChoice            json.RawMessage
		ParallelToolCalls     bool
		MixedContentToolCalls bool
		Syntax                int
	}{
		ParallelToolCalls:     in.ParallelToolCalls,
		MixedContentToolCalls: in.MixedContentToolCalls,
		Syntax:                int(in.Syntax),
	}

	envelope, err := json.Marshal(in.Envelope)
	if err != nil {
		return 0, err
	}

	projection.Envelope = envelope

	for _, tool := range in.Tools {
		raw, err := json.Marshal(tool)
		if err != nil {
			return 0, err
		}

		projection.Tools = append(projection.Tools, raw)
	}

	if in.ToolChoice != nil {
		raw, err := json.Marshal(in.ToolChoice)
		if err != nil {
			return 0, err
		}

		projection.ToolChoice = raw
	}

	data, err := json.Marshal(projection)
	if err != nil {
		return 0, err
	}

	return xxhash.Sum64(data), nil
}

