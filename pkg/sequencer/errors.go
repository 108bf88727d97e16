package sequencer

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for sequencing failures
var (
	// ErrCyclicDependency is returned when entities require each other to exist first
	ErrCyclicDependency = errors.New("cyclic dependency")

	// ErrUnknownNode is returned when an edge references a node outside the graph
	ErrUnknownNode = errors.New("unknown node")
)

// CyclicDependencyError identifies one node of a dependency cycle.
// It is a schema defect: the batch cannot be executed in any order.
type CyclicDependencyError struct {
	Node string
	Path []string // DFS path that closes the cycle, ending at Node
}

func (e *CyclicDependencyError) Error() string {
	if len(e.Path) == 0 {
		return fmt.Sprintf("%s: %q", ErrCyclicDependency, e.Node)
	}
	return fmt.Sprintf("%s: %q (%s)", ErrCyclicDependency, e.Node, strings.Join(e.Path, " -> "))
}

func (e *CyclicDependencyError) Unwrap() error {
	return ErrCyclicDependency
}

// UnknownNodeError reports an edge endpoint that was never registered
type UnknownNodeError struct {
	Node string
}

func (e *UnknownNodeError) Error() string {
	return fmt.Sprintf("%s: make sure to provide all involved nodes, unknown node %q", ErrUnknownNode, e.Node)
}

func (e *UnknownNodeError) Unwrap() error {
	return ErrUnknownNode
}

// IsCyclicDependency checks if an error is a cyclic dependency failure
func IsCyclicDependency(err error) bool {
	return errors.Is(err, ErrCyclicDependency)
}

// IsUnknownNode checks if an error is an unknown node failure
func IsUnknownNode(err error) bool {
	return errors.Is(err, ErrUnknownNode)
}
