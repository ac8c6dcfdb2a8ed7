package trie

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/BurntSushi/toml"
	"github.com/aretw0/unicorn/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Format selects the payload encoding.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
	FormatTOML
)

func (f Format) String() string {
	switch f {
	case FormatYAML:
		return "yaml"
	case FormatTOML:
		return "toml"
	default:
		return "json"
	}
}

// ParseFormat converts a format name ("json", "yaml", "yml", "toml").
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "json", "":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "toml":
		return FormatTOML, nil
	default:
		return FormatJSON, fmt.Errorf("unsupported format: %s", name)
	}
}

// FormatFromPath guesses the format from a file extension. Unknown extensions are JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	default:
		return FormatJSON
	}
}

// Parse decodes a payload and builds the trie. Any failure is a *domain.ConfigError
// and no partial trie is returned.
func Parse(data []byte, format Format) (*Trie, error) {
	var raw any
	var err error

	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &raw)
	case FormatTOML:
		var m map[string]any
		_, err = toml.NewDecoder(bytes.NewReader(data)).Decode(&m)
		raw = m
	default:
		err = json.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, &domain.ConfigError{Reason: fmt.Sprintf("failed to decode %s payload", format), Err: err}
	}

	root, ok := asMapping(raw)
	if !ok {
		return nil, &domain.ConfigError{Reason: fmt.Sprintf("root must be a mapping, got %T", raw)}
	}
	return FromMap(root)
}

// FromMap builds a trie from an already decoded mapping.
func FromMap(m map[string]any) (*Trie, error) {
	root, err := buildNode(nil, m)
	if err != nil {
		return nil, err
	}
	return newTrie(root), nil
}

func buildNode(path []string, m map[string]any) (*Node, error) {
	node := &Node{children: make(map[rune]*Node, len(m))}

	for key, value := range m {
		if key == CandidatesKey {
			candidates, err := decodeCandidates(value)
			if err != nil {
				return nil, &domain.ConfigError{Path: joinPath(path), Reason: "candidate list must be a list of strings", Err: err}
			}
			node.candidates = candidates
			continue
		}

		childPath := append(append([]string(nil), path...), key)
		if utf8.RuneCountInString(key) != 1 {
			return nil, &domain.ConfigError{Path: joinPath(childPath), Reason: "input symbol must be exactly one character"}
		}

		childMap, ok := asMapping(value)
		if !ok {
			return nil, &domain.ConfigError{Path: joinPath(childPath), Reason: fmt.Sprintf("child must be a mapping, got %T", value)}
		}

		child, err := buildNode(childPath, childMap)
		if err != nil {
			return nil, err
		}
		r, _ := utf8.DecodeRuneInString(key)
		node.children[r] = child
	}

	return node, nil
}

// decodeCandidates accepts null (no candidates) or a list of strings, nothing else.
func decodeCandidates(value any) ([]string, error) {
	if value == nil {
		return nil, nil
	}

	// mapstructure leaves null elements as "", so element types are checked first.
	if items, ok := value.([]any); ok {
		for i, item := range items {
			if _, ok := item.(string); !ok {
				return nil, fmt.Errorf("candidate %d: expected string, got %T", i, item)
			}
		}
	}

	var candidates []string
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &candidates,
		WeaklyTypedInput: false,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(value); err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	return candidates, nil
}

// asMapping normalises the mapping types produced by the JSON, YAML and TOML decoders.
func asMapping(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	default:
		return nil, false
	}
}

func joinPath(path []string) string {
	return strings.Join(path, ".")
}
