package openapi

import (
	"encoding/json"
	"slices"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Tree is the rendered form of every document node: a string keyed map
// that keeps insertion order through JSON and YAML encoding.
type Tree = orderedmap.OrderedMap[string, any]

// NewTree returns an empty Tree.
func NewTree() *Tree {
	return orderedmap.New[string, any]()
}

// Node is implemented by every object that renders into a document.
type Node interface {
	ToTree() *Tree
}

// ComponentObject is a node that can be stored under the document
// components, keyed by group and reference name.
//
// See: https://spec.openapis.org/oas/v3.0.2#components-object
type ComponentObject interface {
	Node

	// ComponentName returns the components group, e.g. "schemas".
	ComponentName() string

	// ReferenceName returns the key inside the group.
	ReferenceName() string
}

// JSONFlag controls JSON formatting.
type JSONFlag int

const (
	// JSONPretty indents output with four spaces.
	JSONPretty JSONFlag = 1 << iota
)

// EncodeJSON encodes v as JSON. Flags affect formatting only.
func EncodeJSON(v any, flags JSONFlag) ([]byte, error) {
	if flags&JSONPretty != 0 {
		return json.MarshalIndent(v, "", "    ")
	}
	return json.Marshal(v)
}

// setString sets key when value is not empty.
func setString(t *Tree, key, value string) {
	if value != "" {
		t.Set(key, value)
	}
}

// setNode sets key to the rendered node when it has members.
func setNode(t *Tree, key string, n Node) {
	if n == nil {
		return
	}
	if sub := n.ToTree(); sub != nil && sub.Len() > 0 {
		t.Set(key, sub)
	}
}

// setTree sets key when sub has members.
func setTree(t *Tree, key string, sub *Tree) {
	if sub != nil && sub.Len() > 0 {
		t.Set(key, sub)
	}
}

// treeGroup returns the child tree at key, creating it when missing.
func treeGroup(t *Tree, key string) *Tree {
	if v, ok := t.Get(key); ok {
		if sub, ok := v.(*Tree); ok {
			return sub
		}
	}
	sub := NewTree()
	t.Set(key, sub)
	return sub
}

// cloneTree returns a deep copy of t. Nested trees and slices are
// copied; other values are shared.
func cloneTree(t *Tree) *Tree {
	if t == nil {
		return nil
	}
	out := NewTree()
	for pair := t.Oldest(); pair != nil; pair = pair.Next() {
		out.Set(pair.Key, cloneValue(pair.Value))
	}
	return out
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case *Tree:
		return cloneTree(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		return slices.Clone(v)
	}
	return v
}
