package authtree

import (
	"fmt"

	"github.com/tendant/profile-property-node/pkg/config"
	"github.com/tendant/profile-property-node/pkg/errors"
)

// WildcardKey as an input accepts any available state; as an output it
// satisfies every later input.
const WildcardKey = "*"

// InputState declares a shared state key a node reads.
type InputState struct {
	Key      string `json:"key"`
	Required bool   `json:"required"`
}

// OutputState declares a shared state key a node may write.
type OutputState struct {
	Key string `json:"key"`
}

// NodeWiring is the declared inputs and outputs of one node.
type NodeWiring struct {
	Node    string        `json:"node"`
	Order   int           `json:"order"`
	Inputs  []InputState  `json:"inputs"`
	Outputs []OutputState `json:"outputs"`
}

// DescribeWiring lists the declared inputs and outputs of nodes in order.
func DescribeWiring(nodes []Node) []NodeWiring {
	wiring := make([]NodeWiring, 0, len(nodes))
	for _, node := range nodes {
		wiring = append(wiring, NodeWiring{
			Node:    node.Name(),
			Order:   node.Order(),
			Inputs:  node.Inputs(),
			Outputs: node.Outputs(),
		})
	}
	return wiring
}

// ValidateWiring checks that each required input of each node is supplied by
// providedKeys or by the outputs of a node that runs before it. Nodes must
// already be in execution order.
func ValidateWiring(nodes []Node, providedKeys []string) error {
	available := make(map[string]bool, len(providedKeys))
	for _, key := range providedKeys {
		available[key] = true
	}

	var problems config.ValidationErrors
	for _, node := range nodes {
		for _, input := range node.Inputs() {
			if !input.Required || input.Key == WildcardKey {
				continue
			}
			if available[input.Key] || available[WildcardKey] {
				continue
			}
			problems = append(problems, config.ValidationError{
				Field:   fmt.Sprintf("%s.%s", node.Name(), input.Key),
				Message: "is not provided by the initial state or an earlier node",
			})
		}
		for _, output := range node.Outputs() {
			available[output.Key] = true
		}
	}

	if problems.HasErrors() {
		return errors.Wrap(problems, errors.ErrCodeWiringInvalid, "tree wiring is invalid")
	}
	return nil
}
