package parse

import (
	"strings"

	"github.com/looplj/acquiesce"
)

// Parser streams model output through an Envelope's structure one rune at a
// time, emitting content text, thinking text, per-call argument deltas, and
// a rejection or completion marker, per spec.md §4.6. This is new work: the
// original left the streaming side as a handful of todo!()/commented-out
// functions in parse.rs, flagged by spec.md §9 as not optional.
type Parser struct {
	envelope acquiesce.Envelope

	state parserState

	// content-state candidate race.
	watchers      []*raceWatcher
	pendingBuffer []rune
	inSection     bool
	singleUsed    bool

	thinkingSuffix *stringWatcher

	call      *callParser
	toolIndex int

	finished bool
}

type parserState int

const (
	stateContent parserState = iota
	stateThinking
	stateCall
	stateComplete
)

// NewParser returns a parser for one model turn under envelope e.
func NewParser(e acquiesce.Envelope) *Parser {
	p := &Parser{envelope: e}

	if tc := p.toolCalls(); tc != nil && tc.Kind == acquiesce.ToolCallsSingle && isWholeJSONKind(tc.ToolCall.Kind) {
		// JsonObject/JsonArray calls have no textual prefix: the entire turn
		// is the call, so the parser starts directly inside it.
		p.state = stateCall
		p.call = newCallParser(0, tc.ToolCall)
		p.toolIndex = 1
	}

	return p
}

func isWholeJSONKind(k acquiesce.ToolCallKind) bool {
	return k == acquiesce.ToolCallJSONObject || k == acquiesce.ToolCallJSONArray
}

func (p *Parser) toolCalls() *acquiesce.ToolCalls {
	if p.envelope.Kind != acquiesce.EnvelopeComponents {
		return nil
	}

	return p.envelope.ToolCalls
}

// Advance feeds a chunk of model output through the parser.
func (p *Parser) Advance(chunk string) []ParseResult {
	var out []ParseResult

	for _, c := range chunk {
		out = append(out, p.consumeOne(c)...)
	}

	return out
}

// Finish signals end of input. In the content state it flushes a buffered
// partial prefix match as plain content; a partial match held against the
// thinking suffix is not flushed. It emits a trailing completion marker
// unless one was already emitted.
func (p *Parser) Finish() []ParseResult {
	var out []ParseResult

	switch p.state {
	case stateContent:
		if len(p.pendingBuffer) > 0 {
			out = append(out, contentResult(string(p.pendingBuffer)))
			p.pendingBuffer = nil
		}
	case stateThinking:
		// unterminated thinking block: nothing further to flush beyond what
		// consumeThinking already emitted.
	case stateCall:
		// unterminated call: leave as-is, caller can inspect the rejection
		// if one was already emitted.
	}

	if !p.finished && p.state != stateComplete {
		out = append(out, completeResult())
		p.finished = true
	}

	return out
}

func (p *Parser) consumeOne(c rune) []ParseResult {
	switch p.state {
	case stateContent:
		return p.consumeContent(c)
	case stateThinking:
		return p.consumeThinking(c)
	case stateCall:
		return p.consumeCall(c)
	default:
		return nil
	}
}

// --- content state: race candidate prefixes against plain text ---

// raceWatcher matches one fixed literal candidate at a content-state
// position. Candidates that mismatch are simply marked dead (no restart):
// thinking/section/call prefixes in every envelope this parser targets are
// distinct non-overlapping token sequences, so a losing candidate's
// buffered characters are recovered via Parser.pendingBuffer instead of
// being tracked per-watcher.
type raceWatcher struct {
	name   string
	target []rune
	pos    int
	dead   bool
}

func newRaceWatcher(name string, seq acquiesce.OrderedLexemes) *raceWatcher {
	return &raceWatcher{name: name, target: []rune(literalText(seq))}
}

func (w *raceWatcher) Feed(c rune) bool {
	if w.pos >= len(w.target) || w.target[w.pos] != c {
		return false
	}

	w.pos++

	return true
}

func (w *raceWatcher) Done() bool {
	return len(w.target) > 0 && w.pos == len(w.target)
}

// literalText flattens an OrderedLexemes sequence of Text/Token lexemes
// into its literal text. Every prefix/suffix this parser races against is a
// fixed token sequence in every envelope in the registry; Regex/JsonSchema
// elements (which only ever appear inside a NamedParameters Delimiter) are
// skipped, since callers that need wildcard matching use Compile/
// LiteralConsumer directly instead of literalText.
func literalText(seq acquiesce.OrderedLexemes) string {
	var b strings.Builder

	for _, lex := range seq {
		if lex.Kind == acquiesce.LexemeText || lex.Kind == acquiesce.LexemeToken {
			b.WriteString(lex.Text)
		}
	}

	return b.String()
}

func (p *Parser) ensureWatchers() {
	if len(p.watchers) > 0 {
		return
	}

	var ws []*raceWatcher

	if !p.inSection && p.envelope.Kind == acquiesce.EnvelopeComponents && p.envelope.Thinking != nil {
		ws = append(ws, newRaceWatcher("thinking", p.envelope.Thinking.Prefix))
	}

	if tc := p.toolCalls(); tc != nil {
		switch tc.Kind {
		case acquiesce.ToolCallsSingle:
			if !p.singleUsed && tc.ToolCall.Kind == acquiesce.ToolCallNamedParameters && len(tc.ToolCall.Prefix) > 0 {
				ws = append(ws, newRaceWatcher("call", tc.ToolCall.Prefix))
			}
		case acquiesce.ToolCallsSection:
			if !p.inSection {
				ws = append(ws, newRaceWatcher("section", tc.Prefix))
			} else {
				if tc.ToolCall.Kind == acquiesce.ToolCallNamedParameters && len(tc.ToolCall.Prefix) > 0 {
					ws = append(ws, newRaceWatcher("call", tc.ToolCall.Prefix))
				}

				if len(tc.Suffix) > 0 {
					ws = append(ws, newRaceWatcher("section_end", tc.Suffix))
				}
			}
		}
	}

	p.watchers = ws
}

func (p *Parser) consumeContent(c rune) []ParseResult {
	p.ensureWatchers()

	var winner *raceWatcher

	anyAlive := false

	for _, w := range p.watchers {
		if w.dead {
			continue
		}

		if !w.Feed(c) {
			w.dead = true
			continue
		}

		anyAlive = true

		if w.Done() {
			winner = w
			break
		}
	}

	if winner != nil {
		p.pendingBuffer = nil
		p.watchers = nil

		return p.enterAfterPrefix(winner.name)
	}

	if anyAlive {
		p.pendingBuffer = append(p.pendingBuffer, c)
		return nil
	}

	pending := string(p.pendingBuffer)
	p.pendingBuffer = nil
	p.watchers = nil

	// Section-wrapped (or bare) JsonObject/JsonArray calls have no per-call
	// literal prefix: a new call starts wherever a fresh JSON value does.
	if tc := p.toolCalls(); tc != nil && isWholeJSONKind(tc.ToolCall.Kind) && looksLikeJSONStart(c) {
		p.state = stateCall
		p.call = newCallParser(p.toolIndex, tc.ToolCall)
		p.toolIndex++

		out := p.consumeCall(c)
		if pending != "" {
			out = append([]ParseResult{contentResult(pending)}, out...)
		}

		return out
	}

	flushed := pending + string(c)
	if flushed == "" {
		return nil
	}

	return []ParseResult{contentResult(flushed)}
}

func looksLikeJSONStart(c rune) bool {
	return c == '{' || c == '['
}

func (p *Parser) enterAfterPrefix(name string) []ParseResult {
	switch name {
	case "thinking":
		p.state = stateThinking
		p.thinkingSuffix = &stringWatcher{target: []rune(literalText(p.envelope.Thinking.Suffix))}

		return nil
	case "section":
		p.inSection = true
		return nil
	case "section_end":
		p.inSection = false
		p.state = stateComplete

		return []ParseResult{completeResult()}
	case "call":
		tc := p.toolCalls()
		p.state = stateCall
		p.call = newCallParser(p.toolIndex, tc.ToolCall)
		p.toolIndex++

		if tc.Kind == acquiesce.ToolCallsSingle {
			p.singleUsed = true
		}

		return nil
	default:
		return nil
	}
}

// --- thinking state ---

// stringWatcher matches a single fixed literal target, restarting the
// match on a failed character when that character can itself start a fresh
// attempt (handles overlapping false starts, e.g. content containing "<"
// right before a "</thinking>" suffix).
type stringWatcher struct {
	target []rune
	pos    int
}

// Feed reports the runes that must be flushed as ordinary text (empty if
// none) and whether c itself was absorbed into the (possibly restarted)
// match.
func (w *stringWatcher) Feed(c rune) (flush string, consumed bool) {
	if w.pos < len(w.target) && w.target[w.pos] == c {
		w.pos++
		return "", true
	}

	flushed := string(w.target[:w.pos])
	w.pos = 0

	if len(w.target) > 0 && w.target[0] == c {
		w.pos = 1
		return flushed, true
	}

	return flushed + string(c), false
}

func (w *stringWatcher) Done() bool {
	return len(w.target) > 0 && w.pos == len(w.target)
}

func (p *Parser) consumeThinking(c rune) []ParseResult {
	if p.thinkingSuffix == nil || len(p.thinkingSuffix.target) == 0 {
		return []ParseResult{{Kind: ResultThinking, Content: string(c)}}
	}

	flush, consumed := p.thinkingSuffix.Feed(c)

	var out []ParseResult
	if flush != "" {
		out = append(out, ParseResult{Kind: ResultThinking, Content: flush})
	}

	if !consumed {
		return out
	}

	if p.thinkingSuffix.Done() {
		p.thinkingSuffix = nil
		p.state = stateContent
		p.watchers = nil
	}

	return out
}

// --- call state ---

func (p *Parser) consumeCall(c rune) []ParseResult {
	results, done := p.call.ConsumeChar(c)

	if done {
		p.call = nil

		if p.inSection {
			p.state = stateContent
			p.watchers = nil
		} else {
			p.state = stateComplete
			results = append(results, completeResult())
		}
	}

	return results
}

type callPhase int

const (
	phaseName callPhase = iota
	phaseDelimiterRest
	phaseArguments
	phaseSuffix
	phaseWhole
)

// callParser parses one tool call's body: for NamedParameters, the free-
// form name text, the remainder of the delimiter, the JSON arguments, and
// the suffix; for JsonObject/JsonArray, the whole call is one JSON value
// whose NameKey/ArgumentKey fields are read out as they close.
type callParser struct {
	def   acquiesce.ToolCall
	index int
	phase callPhase

	nameBoundary *stringWatcher
	nameBuf      []rune
	name         string
	delimRest    *LiteralConsumer

	args     *PartialJSON
	lastArgs string

	suffix *stringWatcher

	whole           *PartialJSON
	reportedName    map[int]bool
	lastArgsByIndex map[int]string
}

func newCallParser(index int, def acquiesce.ToolCall) *callParser {
	cp := &callParser{def: def, index: index}

	switch def.Kind {
	case acquiesce.ToolCallNamedParameters:
		boundary := ""
		var rest []Element

		if len(def.Delimiter) > 0 {
			boundary = literalText(def.Delimiter[:1])

			elems := Compile(def.Delimiter)
			if len(elems) > 1 {
				rest = elems[1:]
			}
		}

		cp.nameBoundary = &stringWatcher{target: []rune(boundary)}

		if rest != nil {
			cp.delimRest = NewLiteralConsumer(rest)
		}

		cp.phase = phaseName

		if len(def.Suffix) > 0 {
			cp.suffix = &stringWatcher{target: []rune(literalText(def.Suffix))}
		}
	case acquiesce.ToolCallJSONObject, acquiesce.ToolCallJSONArray:
		cp.whole = NewPartialJSON()
		cp.phase = phaseWhole
		cp.reportedName = map[int]bool{}
		cp.lastArgsByIndex = map[int]string{}
	}

	return cp
}

func (cp *callParser) ConsumeChar(c rune) ([]ParseResult, bool) {
	switch cp.phase {
	case phaseName:
		return cp.consumeName(c)
	case phaseDelimiterRest:
		return cp.consumeDelimiterRest(c)
	case phaseArguments:
		return cp.consumeArguments(c)
	case phaseSuffix:
		return cp.consumeSuffix(c)
	case phaseWhole:
		return cp.consumeWhole(c)
	default:
		return nil, true
	}
}

func (cp *callParser) consumeName(c rune) ([]ParseResult, bool) {
	if len(cp.nameBoundary.target) == 0 {
		cp.name = ""
		cp.phase = phaseDelimiterRest

		return cp.consumeDelimiterRest(c)
	}

	flush, consumed := cp.nameBoundary.Feed(c)
	if flush != "" {
		cp.nameBuf = append(cp.nameBuf, []rune(flush)...)
	}

	if !consumed {
		return nil, false
	}

	if !cp.nameBoundary.Done() {
		return nil, false
	}

	cp.name = string(cp.nameBuf)
	cp.phase = phaseDelimiterRest

	return []ParseResult{toolCallResult(ToolCallDelta{Index: cp.index, Name: cp.name})}, false
}

func (cp *callParser) consumeDelimiterRest(c rune) ([]ParseResult, bool) {
	if cp.delimRest == nil {
		cp.phase = phaseArguments
		cp.args = NewPartialJSON()

		return cp.consumeArguments(c)
	}

	res := cp.delimRest.ConsumeChar(c)

	switch res.Kind {
	case Consumed, Omitted:
		if cp.delimRest.Done() {
			cp.phase = phaseArguments
			cp.args = NewPartialJSON()
		}

		return nil, false
	default:
		return []ParseResult{rejectedResult(string(cp.nameBuf), "tool call delimiter")}, true
	}
}

func (cp *callParser) consumeArguments(c rune) ([]ParseResult, bool) {
	res := cp.args.ConsumeChar(c)

	switch res.Kind {
	case Consumed, Omitted:
		render := cp.args.Render()
		delta := strings.TrimPrefix(render, cp.lastArgs)
		cp.lastArgs = render

		var out []ParseResult
		if delta != "" {
			out = append(out, toolCallResult(ToolCallDelta{Index: cp.index, Delta: delta}))
		}

		return out, false
	case Unconsumed:
		if cp.suffix == nil || len(cp.suffix.target) == 0 {
			return nil, true
		}

		cp.phase = phaseSuffix

		return cp.consumeSuffix(c)
	default:
		return []ParseResult{rejectedResult(cp.args.Render(), "tool call arguments")}, true
	}
}

func (cp *callParser) consumeSuffix(c rune) ([]ParseResult, bool) {
	flush, consumed := cp.suffix.Feed(c)
	if flush != "" {
		// Content appearing where the suffix was expected cannot be
		// recovered into the arguments value; surface it as a rejection.
		return []ParseResult{rejectedResult(cp.args.Render(), "tool call suffix")}, true
	}

	if !consumed {
		return nil, false
	}

	if cp.suffix.Done() {
		return nil, true
	}

	return nil, false
}

// consumeWhole drives a JsonObject/JsonArray call: the whole turn (or, for a
// Section-wrapped whole-json call, the whole element) is one JSON value.
// JsonObject yields a single call at cp.index; JsonArray yields one call per
// array element, indexed cp.index, cp.index+1, ….
func (cp *callParser) consumeWhole(c rune) ([]ParseResult, bool) {
	res := cp.whole.ConsumeChar(c)

	switch res.Kind {
	case Consumed, Omitted:
		out := cp.reportWholeProgress()

		if cp.whole.Done() {
			return out, true
		}

		return out, false
	case Unconsumed:
		return nil, true
	default:
		return []ParseResult{rejectedResult(cp.whole.Render(), "tool call")}, true
	}
}

func (cp *callParser) reportWholeProgress() []ParseResult {
	switch cp.whole.Kind() {
	case KindObject:
		return cp.reportObjectProgress(cp.index, cp.whole)
	case KindArray:
		var out []ParseResult

		for i, elem := range cp.whole.ArrayElements() {
			out = append(out, cp.reportObjectProgress(cp.index+i, elem)...)
		}

		return out
	default:
		return nil
	}
}

func (cp *callParser) reportObjectProgress(index int, obj *PartialJSON) []ParseResult {
	var out []ParseResult

	if !cp.reportedName[index] {
		if nameField := obj.ObjectField(cp.def.NameKey); nameField != nil && nameField.Kind() == KindString && nameField.Done() {
			name := strings.Trim(nameField.Render(), `"`)
			cp.reportedName[index] = true
			out = append(out, toolCallResult(ToolCallDelta{Index: index, Name: name}))
		}
	}

	if argField := obj.ObjectField(cp.def.ArgumentKey); argField != nil {
		render := argField.Render()
		delta := strings.TrimPrefix(render, cp.lastArgsByIndex[index])
		cp.lastArgsByIndex[index] = render

		if delta != "" {
			out = append(out, toolCallResult(ToolCallDelta{Index: index, Delta: delta}))
		}
	}

	return out
}
