package grammar

import (
	"fmt"

	"github.com/looplj/acquiesce"
	"github.com/looplj/acquiesce/ruletable"
)

// Resolution is tool-choice resolution's Option<(tools_rule, allow_content)>
// outcome (spec.md §4.5).
type Resolution struct {
	ToolsRule    ruletable.Key
	AllowContent bool
}

// ResolveToolChoice wraps callKey (the alternation over eligible tools'
// call rules) according to kind, per spec.md §4.5's "Tool-choice
// resolution". kind must not be acquiesce.ToolChoiceNone here — callers
// apply the None short-circuit before reaching the compiler's body.
func ResolveToolChoice(t *ruletable.Table, kind acquiesce.ToolChoiceKind, callKey ruletable.Key) (*Resolution, error) {
	switch kind {
	case acquiesce.ToolChoiceAuto:
		one := 1
		return &Resolution{
			ToolsRule:    t.Repetition("tool_choice", callKey, 0, &one),
			AllowContent: true,
		}, nil
	case acquiesce.ToolChoiceRequired, acquiesce.ToolChoiceFunction:
		return &Resolution{ToolsRule: callKey, AllowContent: false}, nil
	default:
		return nil, fmt.Errorf("grammar: unexpected tool choice kind %d", kind)
	}
}
