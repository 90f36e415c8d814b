package connections

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/DeprecatedLuar/sqldevcfg/internal/errors"
)

// Attribute is one named connection attribute.
type Attribute struct {
	Key   string
	Value string
}

// Attributes is an insertion-ordered attribute list. Order is preserved
// through JSON, YAML and TOML so regenerated files stay stable.
type Attributes []Attribute

// Get returns the value stored under key.
func (a Attributes) Get(key string) (string, bool) {
	for _, attr := range a {
		if attr.Key == key {
			return attr.Value, true
		}
	}
	return "", false
}

// Has reports whether key is present.
func (a Attributes) Has(key string) bool {
	_, ok := a.Get(key)
	return ok
}

// Set replaces the value of key in place, or appends it when absent.
func (a *Attributes) Set(key, value string) {
	for i := range *a {
		if (*a)[i].Key == key {
			(*a)[i].Value = value
			return
		}
	}
	*a = append(*a, Attribute{Key: key, Value: value})
}

// Delete removes key and reports whether it was present.
func (a *Attributes) Delete(key string) bool {
	for i := range *a {
		if (*a)[i].Key == key {
			*a = append((*a)[:i], (*a)[i+1:]...)
			return true
		}
	}
	return false
}

// Keys returns attribute names in order.
func (a Attributes) Keys() []string {
	keys := make([]string, len(a))
	for i, attr := range a {
		keys[i] = attr.Key
	}
	return keys
}

// Clone returns an independent copy.
func (a Attributes) Clone() Attributes {
	if a == nil {
		return nil
	}
	out := make(Attributes, len(a))
	copy(out, a)
	return out
}

// ============================================================================
// JSON
// ============================================================================

// MarshalJSON writes the attributes as a JSON object in order.
func (a Attributes) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, attr := range a {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalString(attr.Key)
		if err != nil {
			return nil, err
		}
		value, err := marshalString(attr.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshalString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// UnmarshalJSON reads a JSON object keeping key order. Strings are taken as is,
// null becomes "", numbers and booleans keep their literal text. Nested
// objects and arrays are rejected.
func (a *Attributes) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("failed to read attributes: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("attributes must be a JSON object, got %v", tok)
	}

	var out Attributes
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("failed to read attribute name: %w", err)
		}
		key, _ := keyTok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("failed to read attribute %q: %w", key, err)
		}
		value, err := jsonScalarText(raw)
		if err != nil {
			return fmt.Errorf("attribute %q: %w", key, err)
		}
		out.Set(key, value)
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("failed to read attributes: %w", err)
	}

	*a = out
	return nil
}

func jsonScalarText(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return "", nil
	}

	switch trimmed[0] {
	case 'n':
		return "", nil
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", err
		}
		return s, nil
	case '{', '[':
		return "", fmt.Errorf("%w: nested value %s", errors.ErrSerialization, trimmed)
	default:
		return string(trimmed), nil
	}
}

// DecodeJSON reads either a single attribute object or a list of them.
func DecodeJSON(data []byte) ([]Attributes, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty JSON document")
	}

	if trimmed[0] == '[' {
		var raws []json.RawMessage
		if err := json.Unmarshal(trimmed, &raws); err != nil {
			return nil, fmt.Errorf("failed to parse JSON list: %w", err)
		}
		out := make([]Attributes, 0, len(raws))
		for i, raw := range raws {
			var attrs Attributes
			if err := attrs.UnmarshalJSON(raw); err != nil {
				return nil, fmt.Errorf("entry %d: %w", i+1, err)
			}
			out = append(out, attrs)
		}
		return out, nil
	}

	var attrs Attributes
	if err := attrs.UnmarshalJSON(trimmed); err != nil {
		return nil, err
	}
	return []Attributes{attrs}, nil
}

// ============================================================================
// YAML
// ============================================================================

// MarshalYAML writes the attributes as an ordered YAML mapping.
func (a Attributes) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, attr := range a {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: attr.Key},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: attr.Value},
		)
	}
	return node, nil
}

// ============================================================================
// TOML
// ============================================================================

// tomlListKey is the array-of-tables name used for several connections in one file.
const tomlListKey = "connections"

// DecodeTOML reads connection attributes from TOML. A document with a
// [[connections]] array yields one entry per table; otherwise the top-level
// keys form a single entry. Key order follows the document.
func DecodeTOML(data []byte) ([]Attributes, error) {
	var raw map[string]interface{}
	md, err := toml.Decode(string(data), &raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	if list, ok := raw[tomlListKey]; ok {
		tables, err := tomlTables(list)
		if err != nil {
			return nil, err
		}

		order := make([][]string, len(tables))
		index := -1
		for _, key := range md.Keys() {
			if len(key) == 1 && key[0] == tomlListKey {
				index++
				continue
			}
			if len(key) == 2 && key[0] == tomlListKey && index >= 0 && index < len(tables) {
				order[index] = append(order[index], key[1])
			}
		}

		out := make([]Attributes, 0, len(tables))
		for i, table := range tables {
			attrs, err := tomlAttributes(table, order[i])
			if err != nil {
				return nil, fmt.Errorf("connection %d: %w", i+1, err)
			}
			out = append(out, attrs)
		}
		return out, nil
	}

	var order []string
	for _, key := range md.Keys() {
		if len(key) == 1 {
			order = append(order, key[0])
		}
	}
	attrs, err := tomlAttributes(raw, order)
	if err != nil {
		return nil, err
	}
	return []Attributes{attrs}, nil
}

// EncodeTOML writes attributes as a flat TOML table in order.
func EncodeTOML(a Attributes) ([]byte, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	for _, attr := range a {
		// Encode one key at a time; a map would lose the order.
		if err := enc.Encode(map[string]string{attr.Key: attr.Value}); err != nil {
			return nil, fmt.Errorf("failed to encode %q: %w", attr.Key, err)
		}
	}
	return buf.Bytes(), nil
}

func tomlTables(v interface{}) ([]map[string]interface{}, error) {
	switch list := v.(type) {
	case []map[string]interface{}:
		return list, nil
	case []interface{}:
		tables := make([]map[string]interface{}, 0, len(list))
		for _, item := range list {
			table, ok := item.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("%q must be an array of tables", tomlListKey)
			}
			tables = append(tables, table)
		}
		return tables, nil
	}
	return nil, fmt.Errorf("%q must be an array of tables", tomlListKey)
}

// tomlAttributes converts a decoded table, taking keys in order first and any
// remaining keys sorted.
func tomlAttributes(table map[string]interface{}, order []string) (Attributes, error) {
	seen := make(map[string]bool, len(table))
	keys := make([]string, 0, len(table))
	for _, k := range order {
		if _, ok := table[k]; ok && !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	var rest []string
	for k := range table {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	keys = append(keys, rest...)

	var attrs Attributes
	for _, k := range keys {
		value, err := tomlScalarText(table[k])
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", k, err)
		}
		attrs.Set(k, value)
	}
	return attrs, nil
}

func tomlScalarText(v interface{}) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case map[string]interface{}, []interface{}, []map[string]interface{}:
		return "", fmt.Errorf("%w: nested value", errors.ErrSerialization)
	default:
		return strings.TrimSpace(fmt.Sprint(val)), nil
	}
}
