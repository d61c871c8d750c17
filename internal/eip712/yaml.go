package eip712

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// UnmarshalYAML decodes a YAML node into a Value. Scalars tagged as numbers
// keep their literal text, like the JSON decoder does.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	out, err := valueFromNode(node, 0)
	if err != nil {
		return err
	}
	*v = out
	return nil
}

// maxYAMLDepth stops alias expansion from recursing without bound.
const maxYAMLDepth = 64

func valueFromNode(node *yaml.Node, depth int) (Value, error) {
	if depth > maxYAMLDepth {
		return Value{}, fmt.Errorf("yaml value nested deeper than %d levels", maxYAMLDepth)
	}

	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return Null(), nil
		}
		return valueFromNode(node.Content[0], depth+1)

	case yaml.AliasNode:
		return valueFromNode(node.Alias, depth+1)

	case yaml.ScalarNode:
		switch node.ShortTag() {
		case "!!null":
			return Null(), nil
		case "!!bool":
			var b bool
			if err := node.Decode(&b); err != nil {
				return Value{}, err
			}
			return Bool(b), nil
		case "!!int", "!!float":
			return Number(node.Value), nil
		default:
			return String(node.Value), nil
		}

	case yaml.SequenceNode:
		items := make([]Value, len(node.Content))
		for i, child := range node.Content {
			item, err := valueFromNode(child, depth+1)
			if err != nil {
				return Value{}, err
			}
			items[i] = item
		}
		return Array(items...), nil

	case yaml.MappingNode:
		obj := make(map[string]Value, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i]
			if key.Kind != yaml.ScalarNode {
				return Value{}, fmt.Errorf("line %d: mapping key is not a scalar", key.Line)
			}
			item, err := valueFromNode(node.Content[i+1], depth+1)
			if err != nil {
				return Value{}, err
			}
			obj[key.Value] = item
		}
		return Object(obj), nil

	default:
		return Value{}, fmt.Errorf("line %d: unsupported yaml node", node.Line)
	}
}
