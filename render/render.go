// Package render implements spec.md §6's Rendering API: the single
// dispatcher that ties a chat template, the envelope compiler, and the
// streaming envelope parser together into one call per request.
package render

import (
	"github.com/looplj/acquiesce"
	"github.com/looplj/acquiesce/chatmodel"
	"github.com/looplj/acquiesce/grammar"
	"github.com/looplj/acquiesce/parse"
	"github.com/looplj/acquiesce/ruletable"
)

// Result is render's output: the rendered prompt, plus the grammar and
// parser the caller should use to constrain and decode generation — both
// nil when the envelope compiler's short-circuit applies (spec.md §4.5).
type Result struct {
	Prompt  string
	Grammar *string
	Parser  *parse.Parser
}

// Render renders req's messages through tmpl, compiles the constrained-
// decoding grammar for envelope under syntax, and — only when a grammar
// was actually produced — constructs the matching streaming parser.
//
// Harmony envelopes never carry tool_calls (acquiesce.Envelope.HasToolCalls
// is always false for them), so they always take the no-grammar,
// no-parser path regardless of req.Tools, per spec.md §8 scenario 3.
func Render(tmpl chatmodel.ChatTemplate, envelope acquiesce.Envelope, req chatmodel.Request, syntax ruletable.Syntax) (*Result, error) {
	prompt, err := tmpl.Render(req.ToTemplateMessages(), req.Tools, true)
	if err != nil {
		return nil, &acquiesce.RenderError{Kind: acquiesce.RenderTemplate, Detail: err.Error(), Err: err}
	}

	out, err := grammar.Compile(grammar.Input{
		Envelope:              envelope,
		Tools:                 req.Tools,
		ToolChoice:            req.ToolChoice,
		ParallelToolCalls:     req.ParallelTool,
		MixedContentToolCalls: req.MixedContentToolCalls,
		Syntax:                syntax,
	})
	if err != nil {
		return nil, err
	}

	if out == nil {
		return &Result{Prompt: prompt}, nil
	}

	return &Result{
		Prompt:  prompt,
		Grammar: &out.Grammar,
		Parser:  parse.NewParser(envelope),
	}, nil
}
