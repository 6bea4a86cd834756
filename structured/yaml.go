package structured

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// ReadYAML fills block from a YAML document. Mapping keys are visited in
// document order.
func (p *Parser) ReadYAML(r io.Reader, block any) error {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return p.Read(nil, block)
		}
		return fmt.Errorf("structured: yaml: %w", err)
	}
	tree, err := FromYAML(&doc)
	if err != nil {
		return err
	}
	return p.Read(tree, block)
}

// FromYAML converts a YAML node into the tree Read accepts: mappings become
// *Object, sequences []any, and scalars their resolved Go values.
func FromYAML(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return FromYAML(n.Content[0])
	case yaml.AliasNode:
		return FromYAML(n.Alias)
	case yaml.MappingNode:
		o := NewObject()
		for i := 0; i+1 < len(n.Content); i += 2 {
			v, err := FromYAML(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			o.Set(n.Content[i].Value, v)
		}
		return o, nil
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := FromYAML(c)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("structured: yaml line %d: %w", n.Line, err)
		}
		return v, nil
	}
	return nil, fmt.Errorf("structured: yaml line %d: unsupported node kind %d", n.Line, n.Kind)
}
