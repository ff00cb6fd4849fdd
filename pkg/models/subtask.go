package models

// SubtaskNode is one node of a task decomposition tree.
// Leaf subtasks have no children. Nodes are built once from a decoded
// response and treated as immutable afterwards.
type SubtaskNode struct {
	// ID is the identifier assigned by the decomposer (e.g. "1.2").
	ID string `json:"id"`
	// Name is the short subtask title.
	Name string `json:"name"`
	// Instruction describes the single step to perform.
	Instruction string `json:"instruction"`
	// Subtasks are the ordered children of this node.
	Subtasks []SubtaskNode `json:"subtasks"`
}

// IsLeaf returns true if the node has no children.
func (n SubtaskNode) IsLeaf() bool {
	return len(n.Subtasks) == 0
}

// Walk visits every node of the forest in depth-first pre-order.
// depth is 0 for top-level nodes. Returning false from fn skips the
// node's children.
func Walk(nodes []SubtaskNode, fn func(node SubtaskNode, depth int) bool) {
	var visit func(ns []SubtaskNode, depth int)
	visit = func(ns []SubtaskNode, depth int) {
		for _, n := range ns {
			if fn(n, depth) {
				visit(n.Subtasks, depth+1)
			}
		}
	}
	visit(nodes, 0)
}

// Count returns the total number of nodes in the forest.
func Count(nodes []SubtaskNode) int {
	total := 0
	Walk(nodes, func(SubtaskNode, int) bool {
		total++
		return true
	})
	return total
}

// Depth returns the number of levels in the forest (0 for an empty forest).
func Depth(nodes []SubtaskNode) int {
	deepest := 0
	Walk(nodes, func(_ SubtaskNode, depth int) bool {
		if depth+1 > deepest {
			deepest = depth + 1
		}
		return true
	})
	return deepest
}

// Leaves returns the leaf nodes in pre-order.
func Leaves(nodes []SubtaskNode) []SubtaskNode {
	var leaves []SubtaskNode
	Walk(nodes, func(n SubtaskNode, _ int) bool {
		if n.IsLeaf() {
			leaves = append(leaves, n)
		}
		return true
	})
	return leaves
}
