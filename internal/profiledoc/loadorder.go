package profiledoc

import (
	"fmt"
	"strings"

	"github.com/DonovanMods/me3-mod-manager/internal/domain"
)

// LoadNode is one enabled entry in the load graph
type LoadNode struct {
	ID         string // package id or native identifier
	Package    bool
	Path       string
	LoadBefore []domain.Dependency
	LoadAfter  []domain.Dependency
}

// Problem is a load-order relation that cannot be satisfied
type Problem struct {
	From    string
	Target  string
	Message string
}

// LoadOrderResolver orders entries so every load_after target comes first
// and every load_before target comes later
type LoadOrderResolver struct{}

// NewLoadOrderResolver creates a new resolver
func NewLoadOrderResolver() *LoadOrderResolver {
	return &LoadOrderResolver{}
}

// Nodes lists the document's entries in document order, natives first.
// Pending natives have no file yet and take no part in ordering.
func (r *LoadOrderResolver) Nodes(doc *Document) []LoadNode {
	var nodes []LoadNode
	for _, n := range doc.Natives {
		if n.Pending() {
			continue
		}
		nodes = append(nodes, LoadNode{ID: n.Identifier(), Path: n.Path, LoadBefore: n.LoadBefore, LoadAfter: n.LoadAfter})
	}
	for _, p := range doc.Packages {
		nodes = append(nodes, LoadNode{ID: p.ID, Package: true, Path: p.Path, LoadBefore: p.LoadBefore, LoadAfter: p.LoadAfter})
	}
	return nodes
}

// Resolve returns the entries in a load order that honors every relation
// between present entries. Returns ErrDependencyLoop if the relations form a cycle.
func (r *LoadOrderResolver) Resolve(doc *Document) ([]LoadNode, error) {
	nodes := r.Nodes(doc)

	index := make(map[string]int, len(nodes))
	for i, n := range nodes {
		if _, dup := index[n.ID]; !dup {
			index[n.ID] = i
		}
	}

	// requires[x] lists the ids that must be loaded before x
	requires := make(map[string][]string, len(nodes))
	for _, n := range nodes {
		for _, dep := range n.LoadAfter {
			if _, ok := index[dep.ID]; ok {
				requires[n.ID] = append(requires[n.ID], dep.ID)
			}
		}
		for _, dep := range n.LoadBefore {
			if _, ok := index[dep.ID]; ok {
				requires[dep.ID] = append(requires[dep.ID], n.ID)
			}
		}
	}

	// 0 = unvisited, 1 = visiting (in stack), 2 = visited
	state := make(map[string]int, len(nodes))
	var stack []string
	var result []LoadNode

	var visit func(id string) error
	visit = func(id string) error {
		switch state[id] {
		case 2:
			return nil
		case 1:
			return fmt.Errorf("%w: %s -> %s", domain.ErrDependencyLoop, strings.Join(stack, " -> "), id)
		}

		state[id] = 1
		stack = append(stack, id)
		for _, req := range requires[id] {
			if err := visit(req); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		state[id] = 2
		result = append(result, nodes[index[id]])
		return nil
	}

	for _, n := range nodes {
		if state[n.ID] == 0 {
			if err := visit(n.ID); err != nil {
				return nil, err
			}
		}
	}

	return result, nil
}

// Validate reports relations that point at entries missing from the document.
// Optional relations are allowed to dangle.
func (r *LoadOrderResolver) Validate(doc *Document) []Problem {
	nodes := r.Nodes(doc)
	present := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		present[n.ID] = true
	}

	var problems []Problem
	check := func(from string, deps []domain.Dependency, relation string) {
		for _, dep := range deps {
			if dep.ID == from {
				problems = append(problems, Problem{From: from, Target: dep.ID, Message: fmt.Sprintf("%s cannot %s itself", from, relation)})
				continue
			}
			if !present[dep.ID] && !dep.Optional {
				problems = append(problems, Problem{From: from, Target: dep.ID, Message: fmt.Sprintf("%s must %s %s, which is not enabled", from, relation, dep.ID)})
			}
		}
	}
	for _, n := range nodes {
		check(n.ID, n.LoadBefore, "load before")
		check(n.ID, n.LoadAfter, "load after")
	}
	return problems
}
