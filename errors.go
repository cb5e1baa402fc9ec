package acquiesce

import "fmt"

// InitErrorKind tags the init-time error taxonomy of spec.md §7.
type InitErrorKind int

const (
	InitInvalidConfig InitErrorKind = iota
	InitFailedToReadConfig
	InitConfigNotFound
	InitInferFailed
	InitMissingTemplate
	InitTemplateCompilation
)

// InitError is raised while loading or resolving a model repository
// directory; init errors always abort (spec.md §7).
type InitError struct {
	Kind   InitErrorKind
	Name   string // populated for InitConfigNotFound
	Detail string
	Err    error
}

func (e *InitError) Error() string {
	switch e.Kind {
	case InitInvalidConfig:
		return fmt.Sprintf("acquiesce: invalid config: %s", e.Detail)
	case InitFailedToReadConfig:
		return fmt.Sprintf("acquiesce: failed to read config: %s", e.Detail)
	case InitConfigNotFound:
		return fmt.Sprintf("acquiesce: required config not found: %s", e.Name)
	case InitInferFailed:
		return "acquiesce: failed to infer default config"
	case InitMissingTemplate:
		return "acquiesce: chat template not found"
	case InitTemplateCompilation:
		return fmt.Sprintf("acquiesce: chat template compilation error: %s", e.Detail)
	default:
		return "acquiesce: unknown init error"
	}
}

func (e *InitError) Unwrap() error { return e.Err }

// RenderErrorKind tags the render-time (per-request) error taxonomy.
type RenderErrorKind int

const (
	RenderJSONSchema RenderErrorKind = iota
	RenderJSONSchemaConversion
	RenderRegex
	RenderLark
	RenderChatToolChoice
	RenderTemplate
	RenderJSON
)

// RenderError is raised while validating tools or compiling the grammar
// for one request; render errors are per-request and never taint the
// envelope (spec.md §7).
type RenderError struct {
	Kind   RenderErrorKind
	Tool   string // populated for JSONSchema/Regex/Lark
	Detail string
	Err    error
}

func (e *RenderError) Error() string {
	switch e.Kind {
	case RenderJSONSchema:
		return fmt.Sprintf("acquiesce: invalid json schema for tool %q: %s", e.Tool, e.Detail)
	case RenderJSONSchemaConversion:
		return fmt.Sprintf("acquiesce: json schema conversion failed: %s", e.Detail)
	case RenderRegex:
		return fmt.Sprintf("acquiesce: invalid regex grammar for tool %q: %s", e.Tool, e.Detail)
	case RenderLark:
		return fmt.Sprintf("acquiesce: invalid lark grammar for tool %q: %s", e.Tool, e.Detail)
	case RenderChatToolChoice:
		return fmt.Sprintf("acquiesce: tool_choice names an unknown tool: %s", e.Detail)
	case RenderTemplate:
		return fmt.Sprintf("acquiesce: template render failed: %s", e.Detail)
	case RenderJSON:
		return fmt.Sprintf("acquiesce: json error: %s", e.Detail)
	default:
		return "acquiesce: unknown render error"
	}
}

func (e *RenderError) Unwrap() error { return e.Err }
