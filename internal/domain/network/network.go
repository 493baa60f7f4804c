package network

import (
	"fmt"
	"sort"
	"strings"
)

// Network is the project's activity graph. Activities live in an arena slice
// addressed by stable identifiers through an index map; edges are stored as
// index pairs in adjacency lists, never as object references, so the
// structure cannot hold a cycle by construction errors alone and serializes
// safely.
type Network struct {
	activities []*Activity
	index      map[string]int32

	succs [][]edge
	preds [][]edge
	edges map[edgeKey]struct{}
}

type edge struct {
	to  int32
	typ DependencyType
	lag Lag
}

type edgeKey struct {
	pred, succ int32
}

// New creates an empty network.
func New() *Network {
	return &Network{
		index: make(map[string]int32),
		edges: make(map[edgeKey]struct{}),
	}
}

// AddActivity inserts an activity into the arena.
func (n *Network) AddActivity(a *Activity) error {
	if a == nil || strings.TrimSpace(a.ID) == "" {
		return ErrInvalidInput
	}
	if a.Duration < 0 {
		return fmt.Errorf("activity %s: negative duration: %w", a.ID, ErrInvalidInput)
	}
	if a.Constraint.NeedsDate() && a.ConstraintDate == nil {
		return fmt.Errorf("activity %s: constraint %s requires a date: %w", a.ID, a.Constraint, ErrInvalidInput)
	}
	if _, exists := n.index[a.ID]; exists {
		return fmt.Errorf("activity %s: %w", a.ID, ErrDuplicateActivity)
	}

	n.index[a.ID] = int32(len(n.activities))
	n.activities = append(n.activities, a)
	n.succs = append(n.succs, nil)
	n.preds = append(n.preds, nil)
	return nil
}

// Activity returns the activity for an identifier.
func (n *Network) Activity(id string) (*Activity, error) {
	idx, ok := n.index[id]
	if !ok {
		return nil, fmt.Errorf("activity %s: %w", id, ErrActivityNotFound)
	}
	return n.activities[idx], nil
}

// Activities returns every activity in insertion order.
func (n *Network) Activities() []*Activity {
	out := make([]*Activity, len(n.activities))
	copy(out, n.activities)
	return out
}

// Len returns the number of activities.
func (n *Network) Len() int {
	return len(n.activities)
}

// AddDependency inserts a typed edge after rejecting self-loops, duplicate
// ordered pairs, and anything that would close a cycle. On error the edge set
// is unchanged.
func (n *Network) AddDependency(predID, succID string, typ DependencyType, lag Lag) error {
	pred, ok := n.index[predID]
	if !ok {
		return fmt.Errorf("predecessor %s: %w", predID, ErrActivityNotFound)
	}
	succ, ok := n.index[succID]
	if !ok {
		return fmt.Errorf("successor %s: %w", succID, ErrActivityNotFound)
	}
	if pred == succ {
		return fmt.Errorf("%s: %w", predID, ErrSelfDependency)
	}
	if _, exists := n.edges[edgeKey{pred, succ}]; exists {
		return fmt.Errorf("%s -> %s: %w", predID, succID, ErrDuplicateDependency)
	}
	switch typ {
	case FinishToStart, StartToStart, FinishToFinish, StartToFinish:
	default:
		return fmt.Errorf("dependency type %q: %w", typ, ErrInvalidInput)
	}

	// The new edge runs pred -> succ, so it closes a cycle exactly when pred
	// is already reachable from succ.
	if n.reachable(succ, pred) {
		return fmt.Errorf("%s -> %s: %w", predID, succID, ErrCycle)
	}

	n.succs[pred] = append(n.succs[pred], edge{to: succ, typ: typ, lag: lag})
	n.preds[succ] = append(n.preds[succ], edge{to: pred, typ: typ, lag: lag})
	n.edges[edgeKey{pred, succ}] = struct{}{}
	return nil
}

// RemoveDependency deletes the edge for an ordered pair.
func (n *Network) RemoveDependency(predID, succID string) error {
	pred, ok := n.index[predID]
	if !ok {
		return fmt.Errorf("predecessor %s: %w", predID, ErrActivityNotFound)
	}
	succ, ok := n.index[succID]
	if !ok {
		return fmt.Errorf("successor %s: %w", succID, ErrActivityNotFound)
	}
	if _, exists := n.edges[edgeKey{pred, succ}]; !exists {
		return fmt.Errorf("%s -> %s: dependency %w", predID, succID, ErrActivityNotFound)
	}

	delete(n.edges, edgeKey{pred, succ})
	n.succs[pred] = removeEdge(n.succs[pred], succ)
	n.preds[succ] = removeEdge(n.preds[succ], pred)
	return nil
}

func removeEdge(edges []edge, to int32) []edge {
	for i, e := range edges {
		if e.to == to {
			return append(edges[:i], edges[i+1:]...)
		}
	}
	return edges
}

// Dependencies returns every edge as a Dependency value.
func (n *Network) Dependencies() []Dependency {
	var out []Dependency
	for pred, edges := range n.succs {
		for _, e := range edges {
			out = append(out, Dependency{
				PredecessorID: n.activities[pred].ID,
				SuccessorID:   n.activities[e.to].ID,
				Type:          e.typ,
				Lag:           e.lag,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PredecessorID != out[j].PredecessorID {
			return out[i].PredecessorID < out[j].PredecessorID
		}
		return out[i].SuccessorID < out[j].SuccessorID
	})
	return out
}

// Predecessors returns the incoming edges of an activity.
func (n *Network) Predecessors(id string) ([]Dependency, error) {
	idx, ok := n.index[id]
	if !ok {
		return nil, fmt.Errorf("activity %s: %w", id, ErrActivityNotFound)
	}
	out := make([]Dependency, 0, len(n.preds[idx]))
	for _, e := range n.preds[idx] {
		out = append(out, Dependency{
			PredecessorID: n.activities[e.to].ID,
			SuccessorID:   id,
			Type:          e.typ,
			Lag:           e.lag,
		})
	}
	return out, nil
}

// Successors returns the outgoing edges of an activity.
func (n *Network) Successors(id string) ([]Dependency, error) {
	idx, ok := n.index[id]
	if !ok {
		return nil, fmt.Errorf("activity %s: %w", id, ErrActivityNotFound)
	}
	out := make([]Dependency, 0, len(n.succs[idx]))
	for _, e := range n.succs[idx] {
		out = append(out, Dependency{
			PredecessorID: id,
			SuccessorID:   n.activities[e.to].ID,
			Type:          e.typ,
			Lag:           e.lag,
		})
	}
	return out, nil
}

// reachable reports whether `to` can be reached from `from` over existing
// edges, by iterative depth-first search.
func (n *Network) reachable(from, to int32) bool {
	seen := make(map[int32]bool)
	stack := []int32{from}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur == to {
			return true
		}
		if seen[cur] {
			continue
		}
		seen[cur] = true
		for _, e := range n.succs[cur] {
			if !seen[e.to] {
				stack = append(stack, e.to)
			}
		}
	}
	return false
}

// TopoSort returns activity IDs in dependency order using Kahn's algorithm,
// ties broken by identifier for determinism. Cycles cannot normally exist
// past AddDependency's check; this guards networks rebuilt from storage.
func (n *Network) TopoSort() ([]string, error) {
	inDegree := make([]int, len(n.activities))
	for succ := range n.preds {
		inDegree[succ] = len(n.preds[succ])
	}

	var queue []string
	for idx, a := range n.activities {
		if inDegree[idx] == 0 {
			queue = append(queue, a.ID)
		}
	}
	sort.Strings(queue)

	order := make([]string, 0, len(n.activities))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)

		var ready []string
		for _, e := range n.succs[n.index[id]] {
			inDegree[e.to]--
			if inDegree[e.to] == 0 {
				ready = append(ready, n.activities[e.to].ID)
			}
		}
		sort.Strings(ready)
		queue = append(queue, ready...)
	}

	if len(order) != len(n.activities) {
		return nil, fmt.Errorf("%d of %d activities sorted: %w", len(order), len(n.activities), ErrCycle)
	}
	return order, nil
}

// Clone deep-copies the network. Leveling dry-runs mutate the clone and leave
// the source untouched.
func (n *Network) Clone() *Network {
	c := &Network{
		activities: make([]*Activity, len(n.activities)),
		index:      make(map[string]int32, len(n.index)),
		succs:      make([][]edge, len(n.succs)),
		preds:      make([][]edge, len(n.preds)),
		edges:      make(map[edgeKey]struct{}, len(n.edges)),
	}
	for i, a := range n.activities {
		copied := *a
		c.activities[i] = &copied
	}
	for id, idx := range n.index {
		c.index[id] = idx
	}
	for i, edges := range n.succs {
		c.succs[i] = append([]edge(nil), edges...)
	}
	for i, edges := range n.preds {
		c.preds[i] = append([]edge(nil), edges...)
	}
	for k := range n.edges {
		c.edges[k] = struct{}{}
	}
	return c
}
