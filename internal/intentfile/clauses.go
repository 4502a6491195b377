package intentfile

import (
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/vizintent/internal/intent"
)

// Clauses is an intent list that decodes from YAML shorthand strings or
// clause maps.
type Clauses []intent.Clause

// Intent returns the clauses as an intent.
func (cs Clauses) Intent() intent.Intent {
	return intent.Intent(cs).Clone()
}

// clauseKeys are the map keys a clause may use.
var clauseKeys = []string{
	"attribute", "value", "op", "channel", "data_type", "data_model", "sort", "exclude",
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (cs *Clauses) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode {
		return &Error{Line: node.Line, Message: "intent must be a list of clauses"}
	}
	out := make(Clauses, 0, len(node.Content))
	for i, item := range node.Content {
		c, err := decodeClause(item)
		if err != nil {
			return &Error{Line: item.Line, Message: fmt.Sprintf("intent[%d]: %v", i, err)}
		}
		out = append(out, c)
	}
	*cs = out
	return nil
}

func decodeClause(node *yaml.Node) (intent.Clause, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		return intent.ParseClause(node.Value)
	case yaml.MappingNode:
	default:
		return intent.Clause{}, fmt.Errorf("clause must be a string or a map")
	}

	fields := make(map[string]*yaml.Node, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		if !slices.Contains(clauseKeys, key) {
			return intent.Clause{}, fmt.Errorf("unknown field %q", key)
		}
		fields[key] = node.Content[i+1]
	}

	attr, ok := fields["attribute"]
	if !ok {
		return intent.Clause{}, fmt.Errorf("missing attribute")
	}
	c, err := decodeAttribute(attr)
	if err != nil {
		return intent.Clause{}, err
	}

	if v, ok := fields["value"]; ok {
		if c, err = decodeValue(c, v); err != nil {
			return intent.Clause{}, err
		}
	}

	setters := []struct {
		key string
		set func(string) error
	}{
		{"op", func(s string) (err error) { c.FilterOp, err = intent.ParseFilterOp(s); return err }},
		{"channel", func(s string) (err error) { c.Channel, err = intent.ParseChannel(s); return err }},
		{"data_type", func(s string) (err error) { c.DataType, err = intent.ParseDataType(s); return err }},
		{"data_model", func(s string) (err error) { c.DataModel, err = intent.ParseDataModel(s); return err }},
		{"sort", func(s string) (err error) { c.Sort, err = intent.ParseSort(s); return err }},
	}
	for _, f := range setters {
		n, ok := fields[f.key]
		if !ok {
			continue
		}
		if n.Kind != yaml.ScalarNode {
			return intent.Clause{}, fmt.Errorf("%s must be a string", f.key)
		}
		if err := f.set(n.Value); err != nil {
			return intent.Clause{}, err
		}
	}

	if n, ok := fields["exclude"]; ok {
		var names []string
		if err := n.Decode(&names); err != nil {
			return intent.Clause{}, fmt.Errorf("exclude must be a list of names")
		}
		c.Exclude = names
	}
	return c, nil
}

func decodeAttribute(n *yaml.Node) (intent.Clause, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Value == "" {
			return intent.Clause{}, fmt.Errorf("empty attribute")
		}
		return intent.Attr(n.Value), nil
	case yaml.SequenceNode:
		var names []string
		if err := n.Decode(&names); err != nil {
			return intent.Clause{}, fmt.Errorf("attribute list must hold names")
		}
		if len(names) == 0 {
			return intent.Clause{}, fmt.Errorf("empty attribute list")
		}
		return intent.AttrOneOf(names...), nil
	}
	return intent.Clause{}, fmt.Errorf("attribute must be a name or a list of names")
}

func decodeValue(c intent.Clause, n *yaml.Node) (intent.Clause, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Tag == "!!str" && n.Value == intent.Wildcard {
			return c.WithAnyValue(), nil
		}
		v, err := scalarValue(n)
		if err != nil {
			return intent.Clause{}, err
		}
		return c.WithValue(v), nil
	case yaml.SequenceNode:
		if len(n.Content) == 0 {
			return intent.Clause{}, fmt.Errorf("empty value list")
		}
		vs := make([]intent.Value, 0, len(n.Content))
		for _, item := range n.Content {
			if item.Kind != yaml.ScalarNode {
				return intent.Clause{}, fmt.Errorf("value list must hold scalars")
			}
			v, err := scalarValue(item)
			if err != nil {
				return intent.Clause{}, err
			}
			vs = append(vs, v)
		}
		return c.WithValues(vs...), nil
	}
	return intent.Clause{}, fmt.Errorf("value must be a scalar or a list of scalars")
}

// scalarValue keeps the YAML type: quoted numbers stay strings.
func scalarValue(n *yaml.Node) (intent.Value, error) {
	var raw any
	if err := n.Decode(&raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("null value")
	}
	return intent.ValueOf(raw)
}
