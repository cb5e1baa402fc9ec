package chatmodel

// ChatTemplate renders a flattened message/tool list into the exact prompt
// string a model expects. This is an external collaborator per spec.md §1
// ("the chat template engine... out of scope... fixed contract"): a real
// implementation is a sandboxed Jinja2-dialect template evaluator bound to
// a specific model's chat_template.jinja. No such engine appears anywhere
// in the example pack (stdlib text/template is not Jinja-syntax compatible
// and would silently mis-render a real chat template), so only a minimal
// default implementation is provided here; production callers are expected
// to supply their own ChatTemplate backed by a real Jinja2-compatible
// evaluator.
type ChatTemplate interface {
	// Render produces the prompt string for the given flattened messages
	// and tool list. addGenerationPrompt appends the assistant turn's
	// opening tokens so the model continues generation from there.
	Render(messages []TemplateMessage, tools []Tool, addGenerationPrompt bool) (string, error)
}

// PlainTranscriptTemplate is a minimal ChatTemplate that joins messages as
// "role: content" lines; the tools argument and any tool calls carried by
// the messages are not rendered. It exists so the render pipeline is exercisable end-to-end without
// a real chat template bound; it is not a faithful stand-in for any actual
// model's template.
type PlainTranscriptTemplate struct{}

func (PlainTranscriptTemplate) Render(messages []TemplateMessage, tools []Tool, addGenerationPrompt bool) (string, error) {
	out := ""

	for _, m := range messages {
		out += m.Role + ": " + m.Content + "\n"
	}

	if addGenerationPrompt {
		out += "assistant: "
	}

	return out, nil
}
