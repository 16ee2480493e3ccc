// Package outline reads and writes a single plan as a nested YAML outline:
//
//	name: Trip
//	root:
//	  title: Trip
//	  children:
//	    - title: Flights
//	      highlighted: true
package outline

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned for outlines that cannot become a plan.
var ErrInvalid = errors.New("invalid outline")

// Plan is one plan with its whole tree.
type Plan struct {
	Name string `yaml:"name"`
	Root Node   `yaml:"root"`
}

// Node is an outline entry. Children are listed in display order.
type Node struct {
	Title       string `yaml:"title"`
	Highlighted bool   `yaml:"highlighted,omitempty"`
	Children    []Node `yaml:"children,omitempty"`
}

// Count returns the number of nodes in the subtree rooted at n.
func (n Node) Count() int {
	total := 1
	for _, c := range n.Children {
		total += c.Count()
	}
	return total
}

// Parse decodes and validates an outline document. A root without a title
// takes the plan name.
func Parse(data []byte) (Plan, error) {
	var p Plan
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return Plan{}, fmt.Errorf("parsing outline: %w", err)
	}
	if p.Root.Title == "" {
		p.Root.Title = p.Name
	}
	if err := Validate(p); err != nil {
		return Plan{}, err
	}
	return p, nil
}

// Validate checks that the plan and every node carry a non-blank name.
func Validate(p Plan) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("plan name is empty: %w", ErrInvalid)
	}
	return validateNode(p.Root, p.Name)
}

func validateNode(n Node, path string) error {
	if strings.TrimSpace(n.Title) == "" {
		return fmt.Errorf("node under %q has an empty title: %w", path, ErrInvalid)
	}
	for _, c := range n.Children {
		if err := validateNode(c, path+" > "+n.Title); err != nil {
			return err
		}
	}
	return nil
}

// Marshal encodes p as YAML.
func Marshal(p Plan) ([]byte, error) {
	data, err := yaml.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encoding outline: %w", err)
	}
	return data, nil
}
