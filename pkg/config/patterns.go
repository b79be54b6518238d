package config

import (
	"bytes"
	"encoding/json"

	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// Entry is one pattern key and its replacement, before the prefix is applied
type Entry struct {
	Pattern     string
	Replacement string
}

// Patterns is the patterns mapping in the order it was written
type Patterns []Entry

// UnmarshalYAML decodes a mapping of strings. Non-string keys or values are
// rejected instead of being converted, so `1: one` or `on: true` never turn into
// patterns by accident.
func (p *Patterns) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return errors.Errorf("line %d: patterns must be a mapping", node.Line)
	}

	out := make(Patterns, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		k, v := node.Content[i], node.Content[i+1]
		if !isYAMLString(k) {
			return errors.Errorf("line %d: pattern key %q must be a string", k.Line, k.Value)
		}
		if !isYAMLString(v) {
			return errors.Errorf("line %d: replacement for %q must be a string", v.Line, k.Value)
		}
		out = append(out, Entry{Pattern: k.Value, Replacement: v.Value})
	}

	*p = out
	return nil
}

func isYAMLString(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!str"
}

// UnmarshalJSON decodes an object of strings, keeping key order
func (p *Patterns) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return errors.Errorf("reading patterns: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.New("patterns must be an object")
	}

	out := Patterns{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return errors.Errorf("reading pattern key: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return errors.Errorf("pattern key %v must be a string", tok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return errors.Errorf("reading replacement for %q: %w", key, err)
		}
		var value string
		if bytes.Equal(raw, []byte("null")) || json.Unmarshal(raw, &value) != nil {
			return errors.Errorf("replacement for %q must be a string", key)
		}
		out = append(out, Entry{Pattern: key, Replacement: value})
	}

	if _, err := dec.Token(); err != nil {
		return errors.Errorf("reading patterns: %w", err)
	}

	*p = out
	return nil
}
