package nodes

import "sync"

// Subgraph groups a set of Nodes under a name for structural organization
// only: it does not change evaluation order, join semantics, or
// concurrency. A Subgraph's exposed Nodes are the ones external callers are
// meant to Apply directly; the rest are internal wiring.
type Subgraph struct {
	name string

	mu      sync.Mutex
	exposed []Node
	members map[Node]bool
}

// NewSubgraph creates an empty, named Subgraph.
func NewSubgraph(name string) *Subgraph {
	return &Subgraph{name: name, members: map[Node]bool{}}
}

// Name returns the subgraph's name.
func (s *Subgraph) Name() string { return s.name }

// Expose marks nodes as this subgraph's externally-visible surface and
// records the enclosing subgraph on each, for introspection by an Observer
// or a future visualization exporter. Expose is idempotent per node.
func (s *Subgraph) Expose(nodes ...Node) *Subgraph {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range nodes {
		if s.members[n] {
			continue
		}
		s.members[n] = true
		s.exposed = append(s.exposed, n)
		if nd, ok := n.(*node); ok {
			nd.subgraph = s
		}
	}
	return s
}

// Exposed returns the subgraph's exposed Nodes in the order they were added.
func (s *Subgraph) Exposed() []Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Node, len(s.exposed))
	copy(out, s.exposed)
	return out
}

// Validate reports ErrNoExposedNodes if Expose was never called with at
// least one node.
func (s *Subgraph) Validate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.exposed) == 0 {
		return newBuildError(s.name, ErrNoExposedNodes)
	}
	return nil
}

// EnclosingSubgraph returns the Subgraph n was exposed through, if any.
func EnclosingSubgraph(n Node) (*Subgraph, bool) {
	nd, ok := n.(*node)
	if !ok || nd.subgraph == nil {
		return nil, false
	}
	return nd.subgraph, true
}
