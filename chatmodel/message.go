// Package chatmodel models OpenAI-compatible chat-completion requests:
// messages, tools, and tool-choice. It is the render-time input shape
// grammar.Compile and the chat-template engine both consume.
//
// Grounded on original_source/src/render/schema.rs (ChatMessageVariant,
// ChatTool, ToolChoice) and adapted to the tagged-content-union idiom of
// the teacher's internal/llm/model.go (MessageContent's custom
// Marshal/Unmarshal).
package chatmodel

import (
	"encoding/json"
	"errors"

	"github.com/looplj/acquiesce"
)

// Request is the unified chat-completion request this module bridges to a
// rendered prompt + grammar + parser.
type Request struct {
	Messages     []Message            `json:"messages"`
	Tools        []Tool               `json:"tools,omitempty"`
	ToolChoice   *acquiesce.ToolChoice `json:"tool_choice,omitempty"`
	ParallelTool bool                  `json:"parallel_tool_calls"`
	// MixedContentToolCalls allows free-text content alongside tool calls in
	// the same response even when the envelope would otherwise keep them
	// mutually exclusive (spec.md §4.5 "Root assembly").
	MixedContentToolCalls bool `json:"mixed_content_tool_calls,omitempty"`
}

// Message is one chat-completion message. Content uses the same
// string-or-parts union the teacher's internal/llm/model.go Message uses.
type Message struct {
	Role       string         `json:"role"`
	Content    MessageContent `json:"content,omitzero"`
	Name       *string        `json:"name,omitempty"`
	Refusal    string         `json:"refusal,omitempty"`
	ToolCallID *string        `json:"tool_call_id,omitempty"`
	ToolCalls  []ToolCall     `json:"tool_calls,omitempty"`
}

// MessageContent is either a single string or an array of typed content
// parts; MarshalJSON collapses a single text part back to a bare string so
// round-tripping through a model that expects the simple form still works.
type MessageContent struct {
	Text  *string              `json:"-"`
	Parts []MessageContentPart `json:"-"`
}

func Text(s string) MessageContent {
	return MessageContent{Text: &s}
}

func Parts(parts ...MessageContentPart) MessageContent {
	return MessageContent{Parts: parts}
}

func (c MessageContent) MarshalJSON() ([]byte, error) {
	if len(c.Parts) > 0 {
		if len(c.Parts) == 1 && c.Parts[0].Type == "text" && c.Parts[0].Text != nil {
			return json.Marshal(*c.Parts[0].Text)
		}

		return json.Marshal(c.Parts)
	}

	return json.Marshal(c.Text)
}

func (c *MessageContent) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		c.Text = &str
		return nil
	}

	var parts []MessageContentPart
	if err := json.Unmarshal(data, &parts); err == nil {
		c.Parts = parts
		return nil
	}

	return errors.New("chatmodel: invalid message content")
}

// MessageContentPart is one element of a multi-part message (text or
// image_url), mirroring the teacher's MessageContentPart.
type MessageContentPart struct {
	Type     string    `json:"type"`
	Text     *string   `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

type ImageURL struct {
	URL    string  `json:"url"`
	Detail *string `json:"detail,omitempty"`
}

// ToTemplateMessages flattens a Request's messages into the single
// role/content/tool_calls/tool_call_id shape a chat template actually
// renders over, mirroring original_source/src/render/schema.rs's
// From<ChatMessages> for Vec<TemplateChatMessage>.
func (r Request) ToTemplateMessages() []TemplateMessage {
	out := make([]TemplateMessage, 0, len(r.Messages))

	for _, m := range r.Messages {
		out = append(out, TemplateMessage{
			Role:       m.Role,
			Content:    m.Content.flatten(),
			Name:       m.Name,
			Refusal:    m.Refusal,
			ToolCallID: m.ToolCallID,
			ToolCalls:  m.ToolCalls,
		})
	}

	return out
}

func (c MessageContent) flatten() string {
	if c.Text != nil {
		return *c.Text
	}

	var out string

	for _, p := range c.Parts {
		if p.Type == "text" && p.Text != nil {
			out += *p.Text
		}
	}

	return out
}

// TemplateMessage is the flattened shape a chat template consumes: plain
// text content plus the structured tool-call fields a template needs to
// render a prior assistant turn.
type TemplateMessage struct {
	Role       string
	Content    string
	Name       *string
	Refusal    string
	ToolCallID *string
	ToolCalls  []ToolCall
}
