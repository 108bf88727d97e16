// Package sequencer orders a batch of pending entity mutations so that
// foreign key constraints hold at every step of execution.
//
// Sort is a pure function over its input: it performs no I/O, never
// mutates the subjects slice and keeps all working state call-local,
// so concurrent calls are safe as long as the metadata graph is not
// modified while they run.
package sequencer

import "github.com/ammar0144/persistq/pkg/metadata"

// Direction selects the ordering pass
type Direction int

const (
	// Insert orders dependencies before their dependents
	Insert Direction = iota
	// Delete orders dependents before their dependencies, junction rows first
	Delete
)

func (d Direction) String() string {
	if d == Delete {
		return "delete"
	}
	return "insert"
}

// Sort returns a new slice holding exactly the given subjects in an order
// that is safe to execute for direction.
//
// Entities reachable through non-nullable join columns are placed first,
// then the remaining entities by the full dependency graph, then every
// subject whose entity takes part in no relation, in original order.
// A cycle yields a *CyclicDependencyError and no ordering.
func Sort(subjects []*Subject, direction Direction) ([]*Subject, error) {
	metadatas := uniqueMetadatas(subjects)
	if len(metadatas) == 0 {
		return append([]*Subject(nil), subjects...), nil
	}

	placed := make([]bool, len(subjects))
	sorted := make([]*Subject, 0, len(subjects))

	if direction == Delete {
		for i, subject := range subjects {
			if subject.IsJunction() {
				sorted = append(sorted, subject)
				placed[i] = true
			}
		}
	}

	for _, nonNullableOnly := range [2]bool{true, false} {
		targets, err := Toposort(dependencyEdges(metadatas, nonNullableOnly))
		if err != nil {
			return nil, err
		}
		if direction == Insert {
			reverse(targets)
		}

		for _, target := range targets {
			for i, subject := range subjects {
				if placed[i] || !subject.Metadata.Matches(target) {
					continue
				}
				sorted = append(sorted, subject)
				placed[i] = true
			}
		}
	}

	for i, subject := range subjects {
		if !placed[i] {
			sorted = append(sorted, subject)
		}
	}

	return sorted, nil
}

// uniqueMetadatas collects the distinct entity types in first-seen order
func uniqueMetadatas(subjects []*Subject) []*metadata.EntityMetadata {
	seen := make(map[string]struct{})
	var metadatas []*metadata.EntityMetadata
	for _, subject := range subjects {
		name := subject.targetName()
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		metadatas = append(metadatas, subject.Metadata)
	}
	return metadatas
}

// dependencyEdges builds (dependent, dependency) pairs from join column relations.
// Self-referencing relations never order an entity against itself and are skipped.
func dependencyEdges(metadatas []*metadata.EntityMetadata, nonNullableOnly bool) []Edge {
	var edges []Edge
	for _, m := range metadatas {
		for _, relation := range m.RelationsWithJoinColumns {
			if nonNullableOnly && relation.IsNullable {
				continue
			}
			target := relation.InverseEntityMetadata
			if target == nil || target == m || target.TargetName == m.TargetName {
				continue
			}
			edges = append(edges, Edge{
				From: m.TargetName,
				To:   target.TargetName,
			})
		}
	}
	return edges
}

func reverse(names []string) {
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
}
