package execution

import (
	"context"
	"fmt"

	"github.com/craftflow/craftflow/internal/domain/model/stage"
	"github.com/craftflow/craftflow/internal/domain/model/workflow"
)

// Action executes one stage against the workflow state.
type Action func(ctx context.Context, st *workflow.State) error

// Router chooses the successor of a stage from the resulting state.
// The decision string is recorded in the journal (APPROVED, REJECTED,
// FORCED, or a routing note for non-gate edges).
type Router func(st *workflow.State) (next stage.Stage, decision string, err error)

// Node is one declared stage of the graph: its action plus either an
// unconditional successor or a routing function.
type Node struct {
	ID        stage.Stage
	Run       Action
	Next      stage.Stage // unconditional successor; ignored when Route is set
	Route     Router      // conditional successor
	Interrupt bool        // suspend after this stage completes
	Terminal  bool        // no successor; the session is finished
}

// Graph is a validated set of nodes with a designated start stage.
type Graph struct {
	Start stage.Stage
	nodes map[stage.Stage]*Node
}

// NewGraph creates a graph and validates it: every node id and every
// static successor must be a declared stage, exactly one node carries
// the interrupt flag, and terminal nodes have no successor.
func NewGraph(start stage.Stage, nodes []*Node) (*Graph, error) {
	g := &Graph{Start: start, nodes: make(map[stage.Stage]*Node, len(nodes))}
	interrupts := 0

	for _, n := range nodes {
		if !stage.Valid(n.ID) {
			return nil, fmt.Errorf("graph: undeclared stage %q", n.ID)
		}
		if _, dup := g.nodes[n.ID]; dup {
			return nil, fmt.Errorf("graph: duplicate stage %q", n.ID)
		}
		g.nodes[n.ID] = n
		if n.Interrupt {
			interrupts++
		}
	}

	if _, ok := g.nodes[start]; !ok {
		return nil, fmt.Errorf("graph: start stage %q not declared", start)
	}
	if interrupts != 1 {
		return nil, fmt.Errorf("graph: expected exactly 1 interrupt stage, got %d", interrupts)
	}

	for _, n := range g.nodes {
		if n.Terminal {
			if n.Next != "" || n.Route != nil {
				return nil, fmt.Errorf("graph: terminal stage %q must not declare a successor", n.ID)
			}
			continue
		}
		if n.Route != nil {
			continue // router targets are checked at routing time
		}
		if _, ok := g.nodes[n.Next]; !ok {
			return nil, fmt.Errorf("graph: stage %q routes to undeclared stage %q", n.ID, n.Next)
		}
	}

	return g, nil
}

// Node returns the node for a stage.
func (g *Graph) Node(s stage.Stage) (*Node, error) {
	n, ok := g.nodes[s]
	if !ok {
		return nil, fmt.Errorf("graph: no node for stage %q", s)
	}
	return n, nil
}

// Successor evaluates a node's outgoing edge against the state.
func (g *Graph) Successor(n *Node, st *workflow.State) (stage.Stage, string, error) {
	if n.Route != nil {
		next, decision, err := n.Route(st)
		if err != nil {
			return "", "", err
		}
		if _, ok := g.nodes[next]; !ok {
			return "", "", fmt.Errorf("graph: stage %q routed to undeclared stage %q", n.ID, next)
		}
		return next, decision, nil
	}
	return n.Next, "", nil
}

// Stages returns the declared stage ids.
func (g *Graph) Stages() []stage.Stage {
	out := make([]stage.Stage, 0, len(g.nodes))
	for _, s := range stage.All {
		if _, ok := g.nodes[s]; ok {
			out = append(out, s)
		}
	}
	return out
}
