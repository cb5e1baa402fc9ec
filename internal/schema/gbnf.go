package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/looplj/acquiesce/ruletable"
)

// Text/Number mirror original_source/src/render/lark.rs's TEXT/NUMBER
// constants: the generic "anything" and "a digit" productions every
// grammar syntax needs for free content and numeric wildcards.
const (
	Text   = `/[^{](.|\n)*/`
	Number = `[0-9]`
)

// primitives is the canonical GBNF primitive library injected on first
// use, per spec.md §4.4 ("Primitives... share a canonical library
// injected on first use with their transitive dependencies").
var primitives = map[string]string{
	"space":   `[ \t\n\r]*`,
	"null":    `"null"`,
	"boolean": `("true" | "false")`,
	"integer": `"-"? ([0-9] | [1-9] [0-9]*)`,
	"number":  `"-"? ([0-9] | [1-9] [0-9]*) ("." [0-9]+)? ([eE] [+-]? [0-9]+)?`,
	"char":    `[^"\\\x7F\x00-\x1F] | "\\" (["\\bfnrt] | "u" [0-9a-fA-F] [0-9a-fA-F] [0-9a-fA-F] [0-9a-fA-F])`,
	"string":  `"\"" char* "\""`,
	"value":   "object | array | string | number | boolean | null",
	"array":   `"[" space (value ("," space value)*)? "]" space`,
	"object":  `"{" space (string space ":" space value ("," space string space ":" space value)*)? "}" space`,
}

// formats supplies the "string with format" sub-grammars spec.md §4.4
// names: date, time, date-time.
var formats = map[string]string{
	"date":      `[0-9] [0-9] [0-9] [0-9] "-" ( "0" [1-9] | "1" [0-2] ) "-" ( [0-2] [0-9] | "3" [0-1] )`,
	"time":      `( [0-1] [0-9] | "2" [0-3] ) ":" [0-5] [0-9] ":" [0-5] [0-9] ( "." [0-9]+ )? ( "Z" | ( "+" | "-" ) [0-9] [0-9] ":" [0-9] [0-9] )`,
	"date-time": `date "T" time`,
}

func inject(t *ruletable.Table, name string) ruletable.Key {
	body, ok := primitives[name]
	if !ok {
		panic("schema: unknown primitive " + name)
	}

	alreadyInjected := t.HasName(name)

	key := t.Insert(name, body)

	if alreadyInjected {
		return key
	}

	// Transitive dependencies: string needs char; array/object/value need
	// each other and space/string/number/boolean/null. alreadyInjected
	// guards the object/array/value mutual recursion.
	switch name {
	case "string":
		inject(t, "char")
	case "array":
		inject(t, "space")
		inject(t, "value")
	case "object":
		inject(t, "space")
		inject(t, "string")
		inject(t, "value")
	case "value":
		inject(t, "object")
		inject(t, "array")
		inject(t, "string")
		inject(t, "number")
		inject(t, "boolean")
		inject(t, "null")
	}

	return key
}

func injectFormat(t *ruletable.Table, format string) (ruletable.Key, bool) {
	body, ok := formats[format]
	if !ok {
		return ruletable.Key{}, false
	}

	if format == "date-time" {
		injectFormat(t, "date")
		injectFormat(t, "time")
	}

	return t.Insert(format, body), true
}

// Lower lowers a Node into GBNF rules within t, returning the key for the
// node's own rule (spec.md §4.4 "Emission rules").
func Lower(t *ruletable.Table, n *Node) (ruletable.Key, error) {
	return lowerNamed(t, "schema", n)
}

func lowerNamed(t *ruletable.Table, name string, n *Node) (ruletable.Key, error) {
	switch n.Kind {
	case KindAny:
		return inject(t, "value"), nil
	case KindNull:
		return inject(t, "null"), nil
	case KindBoolean:
		return inject(t, "boolean"), nil
	case KindInteger:
		return inject(t, "integer"), nil
	case KindNumber:
		return inject(t, "number"), nil
	case KindString:
		return lowerString(t, name, n)
	case KindArray:
		return lowerArray(t, name, n)
	case KindObject:
		return lowerObject(t, name, n)
	case KindAnyOf, KindOneOf:
		return lowerAlternatives(t, name, n)
	case KindConst:
		return t.Insert(name, quoteGBNFLiteral(string(n.ConstValue))), nil
	case KindEnum:
		parts := make([]string, len(n.EnumValues))
		for i, v := range n.EnumValues {
			parts[i] = quoteGBNFLiteral(string(v))
		}

		return t.Insert(name, strings.Join(parts, " | ")), nil
	case KindRef:
		// Refs with no resolvable target lower to the generic value rule;
		// a real $defs-resolving pass is outside the scope of one tool's
		// parameters schema, which does not use $ref in practice.
		return inject(t, "value"), nil
	default:
		return ruletable.Key{}, fmt.Errorf("schema: unsupported node kind %d", n.Kind)
	}
}

func lowerString(t *ruletable.Table, name string, n *Node) (ruletable.Key, error) {
	if n.Format != "" {
		if key, ok := injectFormat(t, n.Format); ok {
			return t.Insert(name, `"\"" `+key.String()+` "\""`), nil
		}
	}

	if n.Pattern != "" {
		return t.Insert(name, "/"+n.Pattern+"/"), nil
	}

	if n.MinLength > 0 || n.MaxLength != nil {
		inject(t, "char")
		maxStr := ""
		if n.MaxLength != nil {
			maxStr = strconv.Itoa(*n.MaxLength - n.MinLength)
		}

		rep := "char"
		if n.MinLength > 0 || n.MaxLength != nil {
			rep = fmt.Sprintf("char{%d,%s}", n.MinLength, maxStr)
		}

		return t.Insert(name, `"\"" `+rep+` "\""`), nil
	}

	return inject(t, "string"), nil
}

func lowerArray(t *ruletable.Table, name string, n *Node) (ruletable.Key, error) {
	inject(t, "space")

	if len(n.PrefixItems) > 0 {
		// Tuple form: a fixed sequence of per-position item rules.
		itemKeys := make([]ruletable.Key, len(n.PrefixItems))

		for i, item := range n.PrefixItems {
			key, err := lowerNamed(t, fmt.Sprintf("%s-item%d", name, i), item)
			if err != nil {
				return ruletable.Key{}, err
			}

			itemKeys[i] = key
		}

		parts := make([]string, len(itemKeys))
		for i, k := range itemKeys {
			parts[i] = k.String() + " space"
			if i < len(itemKeys)-1 {
				parts[i] += ` "," space`
			}
		}

		return t.Insert(name, `"[" space `+strings.Join(parts, " ")+` "]" space`), nil
	}

	itemKey := inject(t, "value")

	if n.Items != nil {
		key, err := lowerNamed(t, name+"-item", n.Items)
		if err != nil {
			return ruletable.Key{}, err
		}

		itemKey = key
	}

	rep := buildRep(t, name+"-items", itemKey, n.MinItems, n.MaxItems, `"," space`)

	return t.Insert(name, `"[" space `+rep.String()+` "]" space`), nil
}

func lowerObject(t *ruletable.Table, name string, n *Node) (ruletable.Key, error) {
	inject(t, "space")
	inject(t, "string")

	if len(n.Properties) == 0 {
		return inject(t, "object"), nil
	}

	required := map[string]bool{}
	for _, r := range n.Required {
		required[r] = true
	}

	var requiredParts, optionalParts []string

	for _, propName := range n.PropertyOrder {
		propSchema := n.Properties[propName]

		propKey, err := lowerNamed(t, fmt.Sprintf("%s-%s", name, propName), propSchema)
		if err != nil {
			return ruletable.Key{}, err
		}

		entry := fmt.Sprintf(`%s space ":" space %s`, quoteGBNFLiteral(strconv.Quote(propName)), propKey.String())

		if required[propName] {
			requiredParts = append(requiredParts, entry)
		} else {
			optionalParts = append(optionalParts, entry)
		}
	}

	body := `"{" space `
	haveRequired := len(requiredParts) > 0

	if haveRequired {
		body += strings.Join(requiredParts, ` "," space `)
	}

	for i, opt := range optionalParts {
		if !haveRequired && i == 0 {
			body += fmt.Sprintf("(%s)?", opt)
		} else {
			body += fmt.Sprintf(` ("," space %s)?`, opt)
		}
	}

	body += ` "}" space`

	return t.Insert(name, body), nil
}

func lowerAlternatives(t *ruletable.Table, name string, n *Node) (ruletable.Key, error) {
	keys := make([]ruletable.Key, len(n.Alternatives))

	for i, alt := range n.Alternatives {
		key, err := lowerNamed(t, fmt.Sprintf("%s-alt%d", name, i), alt)
		if err != nil {
			return ruletable.Key{}, err
		}

		keys[i] = key
	}

	return t.Alternative(name, keys...), nil
}

// buildRep builds item / item? / item* / item+ / item{n} / item{n,} /
// item{n,m}, and — with a separator — item (sep item){n-1[,m-1]}, wrapped
// in an outer ? when min=0, per spec.md §4.4's build_rep helper.
func buildRep(t *ruletable.Table, name string, item ruletable.Key, min int, max *int, sep string) ruletable.Key {
	if sep == "" {
		return t.Repetition(name, item, min, max)
	}

	var tailMax *int

	if max != nil {
		v := *max - 1
		tailMax = &v
	}

	tailMin := 0
	if min > 0 {
		tailMin = min - 1
	}

	tail := t.Insert(name+"-tail", sep+" "+item.String())
	tailRep := t.Repetition(name+"-tailrep", tail, tailMin, tailMax)
	body := item.String() + " " + tailRep.String()

	if min == 0 {
		group := t.Insert(name+"-group", body)
		one := 1

		return t.Repetition(name, group, 0, &one)
	}

	return t.Insert(name, body)
}

func quoteGBNFLiteral(jsonEncoded string) string {
	// jsonEncoded is already a valid JSON-encoded literal (string/number/
	// bool/null); the GBNF literal quotes and escapes that text, so a JSON
	// string's own quotes are part of what it matches.
	return strconv.Quote(jsonEncoded)
}
