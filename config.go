// Package acquiesce compiles declarative model-response envelope
// descriptions into constrained-decoding grammars (Lark or GBNF) and
// provides a streaming parser that classifies a model's token stream back
// into typed envelope deltas.
package acquiesce

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// ConfigVersion is the only recognized on-disk acquiesce.json schema
// version; unknown versions are rejected per spec.md §6.
const ConfigVersion = "v1"

// EnvelopeKind tags the two envelope description shapes.
type EnvelopeKind int

const (
	EnvelopeComponents EnvelopeKind = iota
	EnvelopeHarmony
)

// Envelope is the persistent, portable envelope description (spec.md §3).
// Components carries an optional thinking block and an optional tool-calls
// shape; Harmony is a sentinel whose compilation is a no-op.
type Envelope struct {
	Kind      EnvelopeKind
	Thinking  *Thinking
	ToolCalls *ToolCalls
}

func NewComponentsEnvelope(thinking *Thinking, toolCalls *ToolCalls) Envelope {
	return Envelope{Kind: EnvelopeComponents, Thinking: thinking, ToolCalls: toolCalls}
}

func NewHarmonyEnvelope() Envelope {
	return Envelope{Kind: EnvelopeHarmony}
}

func (e Envelope) MarshalJSON() ([]byte, error) {
	switch e.Kind {
	case EnvelopeComponents:
		return json.Marshal(struct {
			Type      string     `json:"type"`
			Thinking  *Thinking  `json:"thinking,omitempty"`
			ToolCalls *ToolCalls `json:"tool_calls,omitempty"`
		}{"components", e.Thinking, e.ToolCalls})
	case EnvelopeHarmony:
		return json.Marshal(struct {
			Type string `json:"type"`
		}{"harmony"})
	default:
		return nil, fmt.Errorf("acquiesce: unknown envelope kind %d", e.Kind)
	}
}

func (e *Envelope) UnmarshalJSON(data []byte) error {
	typ := gjson.GetBytes(data, "type").String()

	switch typ {
	case "components":
		var aux struct {
			Thinking  *Thinking  `json:"thinking"`
			ToolCalls *ToolCalls `json:"tool_calls"`
		}

		if err := json.Unmarshal(data, &aux); err != nil {
			return err
		}

		*e = NewComponentsEnvelope(aux.Thinking, aux.ToolCalls)

		return nil
	case "harmony":
		*e = NewHarmonyEnvelope()
		return nil
	default:
		return fmt.Errorf("acquiesce: unknown envelope type %q", typ)
	}
}

// StoredConfig is the document format of acquiesce.json: a version tag plus
// the envelope description (spec.md §6).
type StoredConfig struct {
	Version string   `json:"version"`
	Config  Envelope `json:"config"`
}

// DecodeStoredConfig parses acquiesce.json's contents, rejecting unknown
// versions per spec.md §6.
func DecodeStoredConfig(data []byte) (Envelope, error) {
	var stored StoredConfig
	if err := json.Unmarshal(data, &stored); err != nil {
		return Envelope{}, &InitError{Kind: InitInvalidConfig, Detail: err.Error()}
	}

	if stored.Version != ConfigVersion {
		return Envelope{}, &InitError{Kind: InitInvalidConfig, Detail: fmt.Sprintf("unsupported config version %q", stored.Version)}
	}

	return stored.Config, nil
}

// EncodeStoredConfig renders an envelope back into the acquiesce.json
// document shape.
func EncodeStoredConfig(e Envelope) ([]byte, error) {
	return json.MarshalIndent(StoredConfig{Version: ConfigVersion, Config: e}, "", "  ")
}

// HasToolCalls reports whether this envelope participates in tool-call
// grammar/parser construction at all.
func (e Envelope) HasToolCalls() bool {
	return e.Kind == EnvelopeComponents && e.ToolCalls != nil
}
