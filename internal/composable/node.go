package composable

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Node wraps a Composable so that a list of mixed variants can round-trip through YAML.
// The variant is selected by the "type" key.
type Node struct {
	Composable
}

type nodeHeader struct {
	Type Kind `yaml:"type"`
}

func (n *Node) UnmarshalYAML(value *yaml.Node) error {
	var h nodeHeader
	if err := value.Decode(&h); err != nil {
		return err
	}
	var c Composable
	switch h.Type {
	case KindImage:
		c = &Image{}
	case KindMultiFrame:
		c = &MultiFrame{}
	case KindText:
		c = &Text{}
	case KindQRCode:
		c = &QRCode{}
	default:
		return fmt.Errorf("%w: %q (line %d)", ErrUnknownDescriptor, h.Type, value.Line)
	}
	if err := value.Decode(c); err != nil {
		return fmt.Errorf("decoding %s descriptor: %w", h.Type, err)
	}
	n.Composable = c
	return nil
}

func (n Node) MarshalYAML() (interface{}, error) {
	if n.Composable == nil {
		return nil, fmt.Errorf("%w: empty node", ErrUnknownDescriptor)
	}
	var body yaml.Node
	if err := body.Encode(n.Composable); err != nil {
		return nil, err
	}
	typeKey := &yaml.Node{Kind: yaml.ScalarNode, Value: "type"}
	typeVal := &yaml.Node{Kind: yaml.ScalarNode, Value: string(n.Kind())}
	body.Content = append([]*yaml.Node{typeKey, typeVal}, body.Content...)
	return &body, nil
}

// Unwrap converts nodes to the plain descriptor list the compositor consumes.
func Unwrap(nodes []Node) []Composable {
	out := make([]Composable, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Composable)
	}
	return out
}

// Wrap is the inverse of Unwrap.
func Wrap(items []Composable) []Node {
	out := make([]Node, 0, len(items))
	for _, c := range items {
		out = append(out, Node{Composable: c})
	}
	return out
}
