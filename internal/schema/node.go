// Package schema lowers JSON-Schema documents into GBNF grammar rules, the
// reimplementation spec.md §4.4 and §9 mandate in place of the original
// source's Python (pyo3) shell-out (original_source/src/render/gbnf.rs).
//
// The lowering walks a minimal, hand-rolled AST (Node) populated by
// generic JSON decoding rather than by depending on the exact field
// layout of github.com/google/jsonschema-go's Schema struct, since this
// lowering only needs a handful of JSON-Schema keywords and a brittle
// dependency on every field name of an external struct buys
// nothing. github.com/google/jsonschema-go is still exercised directly
// for tool-parameter meta-validation in package grammar (spec.md §4.5).
package schema

import (
	"encoding/json"
	"fmt"
)

// NodeKind tags the JSON-Schema constructs the lowering understands,
// mirroring original_source/src/render/gbnf.rs's (never-implemented, here
// concretely implemented) supported AST.
type NodeKind int

const (
	KindAny NodeKind = iota
	KindNull
	KindBoolean
	KindInteger
	KindNumber
	KindString
	KindArray
	KindObject
	KindAnyOf
	KindOneOf
	KindConst
	KindEnum
	KindRef
)

// Node is one JSON-Schema node, decoded from a raw json.RawMessage
// document into the subset of keywords the GBNF lowering supports.
type Node struct {
	Kind NodeKind

	// String.
	Format    string
	Pattern   string
	MinLength int
	MaxLength *int

	// Array.
	PrefixItems []*Node
	Items       *Node
	MinItems    int
	MaxItems    *int

	// Object.
	Properties           map[string]*Node
	PropertyOrder        []string
	Required             []string
	AdditionalProperties *Node // nil means "false" (closed object)

	// AnyOf / OneOf.
	Alternatives []*Node

	// Const / Enum.
	ConstValue json.RawMessage
	EnumValues []json.RawMessage

	// Ref.
	RefName string
}

// Parse decodes a raw JSON-Schema document into a Node tree.
func Parse(raw json.RawMessage) (*Node, error) {
	if len(raw) == 0 {
		return &Node{Kind: KindAny}, nil
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("schema: invalid json schema: %w", err)
	}

	switch v := doc.(type) {
	case bool:
		if v {
			return &Node{Kind: KindAny}, nil
		}

		return &Node{Kind: KindNull}, nil
	case map[string]any:
		return parseObject(v)
	default:
		return nil, fmt.Errorf("schema: json schema must be an object or boolean, got %T", doc)
	}
}

func parseObject(m map[string]any) (*Node, error) {
	if ref, ok := m["$ref"].(string); ok {
		return &Node{Kind: KindRef, RefName: ref}, nil
	}

	if constVal, ok := m["const"]; ok {
		encoded, err := json.Marshal(constVal)
		if err != nil {
			return nil, err
		}

		return &Node{Kind: KindConst, ConstValue: encoded}, nil
	}

	if enumVal, ok := m["enum"].([]any); ok {
		values := make([]json.RawMessage, 0, len(enumVal))

		for _, v := range enumVal {
			encoded, err := json.Marshal(v)
			if err != nil {
				return nil, err
			}

			values = append(values, encoded)
		}

		return &Node{Kind: KindEnum, EnumValues: values}, nil
	}

	if alts, ok := m["anyOf"].([]any); ok {
		return parseAlternatives(KindAnyOf, alts)
	}

	if alts, ok := m["oneOf"].([]any); ok {
		return parseAlternatives(KindOneOf, alts)
	}

	typ, _ := m["type"].(string)

	switch typ {
	case "null":
		return &Node{Kind: KindNull}, nil
	case "boolean":
		return &Node{Kind: KindBoolean}, nil
	case "integer":
		return &Node{Kind: KindInteger}, nil
	case "number":
		return &Node{Kind: KindNumber}, nil
	case "string":
		return parseString(m), nil
	case "array":
		return parseArray(m)
	case "object":
		return parseObjectType(m)
	case "":
		// No "type" keyword: infer from shape, defaulting to Any.
		if _, ok := m["properties"]; ok {
			return parseObjectType(m)
		}

		if _, ok := m["items"]; ok {
			return parseArray(m)
		}

		return &Node{Kind: KindAny}, nil
	default:
		return nil, fmt.Errorf("schema: unsupported json schema type %q", typ)
	}
}

func parseAlternatives(kind NodeKind, alts []any) (*Node, error) {
	nodes := make([]*Node, 0, len(alts))

	for _, alt := range alts {
		encoded, err := json.Marshal(alt)
		if err != nil {
			return nil, err
		}

		sub, err := Parse(encoded)
		if err != nil {
			return nil, err
		}

		nodes = append(nodes, sub)
	}

	return &Node{Kind: kind, Alternatives: nodes}, nil
}

func parseString(m map[string]any) *Node {
	n := &Node{Kind: KindString}
	n.Format, _ = m["format"].(string)
	n.Pattern, _ = m["pattern"].(string)

	if minLen, ok := m["minLength"].(float64); ok {
		n.MinLength = int(minLen)
	}

	if maxLen, ok := m["maxLength"].(float64); ok {
		v := int(maxLen)
		n.MaxLength = &v
	}

	return n
}

func parseArray(m map[string]any) (*Node, error) {
	n := &Node{Kind: KindArray}

	if prefixItems, ok := m["prefixItems"].([]any); ok {
		for _, item := range prefixItems {
			encoded, err := json.Marshal(item)
			if err != nil {
				return nil, err
			}

			sub, err := Parse(encoded)
			if err != nil {
				return nil, err
			}

			n.PrefixItems = append(n.PrefixItems, sub)
		}
	}

	if items, ok := m["items"]; ok {
		switch itemsVal := items.(type) {
		case []any:
			// Legacy tuple form: "items" is itself an array of schemas.
			for _, item := range itemsVal {
				encoded, err := json.Marshal(item)
				if err != nil {
					return nil, err
				}

				sub, err := Parse(encoded)
				if err != nil {
					return nil, err
				}

				n.PrefixItems = append(n.PrefixItems, sub)
			}
		default:
			encoded, err := json.Marshal(itemsVal)
			if err != nil {
				return nil, err
			}

			sub, err := Parse(encoded)
			if err != nil {
				return nil, err
			}

			n.Items = sub
		}
	}

	if minItems, ok := m["minItems"].(float64); ok {
		n.MinItems = int(minItems)
	}

	if maxItems, ok := m["maxItems"].(float64); ok {
		v := int(maxItems)
		n.MaxItems = &v
	}

	return n, nil
}

func parseObjectType(m map[string]any) (*Node, error) {
	n := &Node{Kind: KindObject, Properties: map[string]*Node{}}

	if props, ok := m["properties"].(map[string]any); ok {
		// Go's map[string]any has no stable iteration order; sort keys so
		// rule emission (§4.4 "Objects") is deterministic across runs.
		n.PropertyOrder = sortedKeys(props)

		for _, key := range n.PropertyOrder {
			encoded, err := json.Marshal(props[key])
			if err != nil {
				return nil, err
			}

			sub, err := Parse(encoded)
			if err != nil {
				return nil, err
			}

			n.Properties[key] = sub
		}
	}

	if required, ok := m["required"].([]any); ok {
		for _, r := range required {
			if s, ok := r.(string); ok {
				n.Required = append(n.Required, s)
			}
		}
	}

	switch ap := m["additionalProperties"].(type) {
	case bool:
		if ap {
			n.AdditionalProperties = &Node{Kind: KindAny}
		}
		// false (or absent default in this lowering): nil, closed object.
	case map[string]any:
		encoded, err := json.Marshal(ap)
		if err != nil {
			return nil, err
		}

		sub, err := Parse(encoded)
		if err != nil {
			return nil, err
		}

		n.AdditionalProperties = sub
	}

	return n, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}

	return keys
}
