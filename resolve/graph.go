// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package resolve

import (
	"github.com/sinnerschrader-mobile/CocoaPods/pod"
)

// A dependency is one pending or recorded requirement together with its
// origin: the full name of the requiring vertex, or "" for requirements
// declared directly by the Podfile.
type dependency struct {
	by  string
	req pod.Requirement
}

// A vertex is one named slot in the dependency graph. Root pods and
// subspecs get separate vertices; vertices sharing a root name must agree
// on their specification version.
type vertex struct {
	name string

	// spec is the assigned specification, nil while the slot is pending.
	spec *pod.Specification

	// requirements records every requirement placed on this vertex.
	requirements []dependency

	// successors are edges to the vertices this vertex's spec requires, in
	// the order the requirements landed.
	successors []*vertex

	// locked marks a vertex pre-seeded from a lockfile pin. The search
	// never replaces a locked vertex's hydrated specification.
	locked bool

	// expanded marks that the current spec's sub-dependencies have been
	// enqueued. Cleared by the rewind log together with the assignment.
	expanded bool
}

// Graph mutations are recorded as deltas so that backtracking can restore
// any earlier state by replaying the log in reverse. This avoids copying
// the graph at every decision point.
type deltaKind uint8

const (
	deltaAddVertex deltaKind = iota
	deltaSetSpec
	deltaAddRequirement
	deltaAddSuccessor
	deltaExpand
)

type delta struct {
	kind deltaKind
	v    *vertex

	// spec is the previous payload, kept for deltaSetSpec undo.
	spec *pod.Specification
}

// graph is the solver's working dependency graph. It is exclusively owned
// by one solve run.
type graph struct {
	vertices *vertexTrie
	log      []delta
}

func newGraph() *graph {
	return &graph{
		vertices: newVertexTrie(),
	}
}

// vertexFor returns the vertex named name, or nil.
func (g *graph) vertexFor(name string) *vertex {
	v, _ := g.vertices.Get(name)
	return v
}

// addVertex creates a pending vertex for name. The caller must ensure no
// vertex with that name exists.
func (g *graph) addVertex(name string) *vertex {
	v := &vertex{name: name}
	g.vertices.Insert(name, v)
	g.log = append(g.log, delta{kind: deltaAddVertex, v: v})
	return v
}

// setSpec assigns (or reassigns) a vertex's specification.
func (g *graph) setSpec(v *vertex, spec *pod.Specification) {
	g.log = append(g.log, delta{kind: deltaSetSpec, v: v, spec: v.spec})
	v.spec = spec
}

// addRequirement records dep against v.
func (g *graph) addRequirement(v *vertex, dep dependency) {
	v.requirements = append(v.requirements, dep)
	g.log = append(g.log, delta{kind: deltaAddRequirement, v: v})
}

// addSuccessor records the edge from -> to.
func (g *graph) addSuccessor(from, to *vertex) {
	from.successors = append(from.successors, to)
	g.log = append(g.log, delta{kind: deltaAddSuccessor, v: from})
}

// markExpanded flags that v's current spec has had its sub-dependencies
// enqueued.
func (g *graph) markExpanded(v *vertex) {
	v.expanded = true
	g.log = append(g.log, delta{kind: deltaExpand, v: v})
}

// tag marks the current position in the mutation log.
func (g *graph) tag() int {
	return len(g.log)
}

// rewindTo undoes every mutation recorded after tag, restoring the graph to
// the state it had when tag was taken.
func (g *graph) rewindTo(tag int) {
	for i := len(g.log) - 1; i >= tag; i-- {
		d := g.log[i]
		switch d.kind {
		case deltaAddVertex:
			g.vertices.Delete(d.v.name)
		case deltaSetSpec:
			d.v.spec = d.spec
		case deltaAddRequirement:
			d.v.requirements = d.v.requirements[:len(d.v.requirements)-1]
		case deltaAddSuccessor:
			d.v.successors = d.v.successors[:len(d.v.successors)-1]
		case deltaExpand:
			d.v.expanded = false
		}
	}
	g.log = g.log[:tag]
}

// activatedForRoot returns a vertex in root's family ("A", "A/Sub", ...)
// that has an assigned specification, or nil. All activated family members
// agree on their version, so any one of them answers version questions.
func (g *graph) activatedForRoot(root string) *vertex {
	var found *vertex
	g.vertices.WalkPrefix(root, func(name string, v *vertex) bool {
		if !isNamePrefixOrEqual(root, name) {
			return false
		}
		if v.spec != nil {
			found = v
			return true
		}
		return false
	})
	return found
}

// reaches reports whether to can be reached from from along successor
// edges. A vertex reaches itself.
func (g *graph) reaches(from, to *vertex) bool {
	if from == to {
		return true
	}
	seen := map[*vertex]bool{from: true}
	work := []*vertex{from}
	for len(work) > 0 {
		v := work[len(work)-1]
		work = work[:len(work)-1]
		for _, s := range v.successors {
			if s == to {
				return true
			}
			if !seen[s] {
				seen[s] = true
				work = append(work, s)
			}
		}
	}
	return false
}

// reachableFrom collects the vertices named in names plus everything
// reachable from them, deduplicated, in no particular order.
func (g *graph) reachableFrom(names []string) []*vertex {
	seen := make(map[*vertex]bool)
	var work, all []*vertex
	for _, name := range names {
		if v := g.vertexFor(name); v != nil && !seen[v] {
			seen[v] = true
			work = append(work, v)
		}
	}
	for len(work) > 0 {
		v := work[len(work)-1]
		work = work[:len(work)-1]
		all = append(all, v)
		for _, s := range v.successors {
			if !seen[s] {
				seen[s] = true
				work = append(work, s)
			}
		}
	}
	return all
}
