// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package resolve

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/sinnerschrader-mobile/CocoaPods/pod"
	"github.com/sinnerschrader-mobile/CocoaPods/source"
)

// candidateSet is one memoized candidatesFor outcome.
type candidateSet struct {
	specs []*pod.Specification
	err   error
}

// provider performs candidate lookup and vetting for the solver. Lookup
// results depend only on the requirement itself, never on the graph, so
// they are memoized per requirement signature for the length of a run.
// Graph-dependent vetting lives in satisfied.
type provider struct {
	sources Sources
	sandbox Sandbox

	// external maps root names claimed by an external pin to the pinning
	// requirement. A pin overrides the sources for its whole root family.
	external map[string]pod.Requirement

	candidates map[string]candidateSet
}

func newProvider(sources Sources, sandbox Sandbox, external map[string]pod.Requirement) *provider {
	return &provider{
		sources:    sources,
		sandbox:    sandbox,
		external:   external,
		candidates: make(map[string]candidateSet),
	}
}

// reqSignature keys the memo table. Two requirements with equal signatures
// have identical candidate lists.
func reqSignature(req pod.Requirement) string {
	var b strings.Builder
	b.WriteString(req.Name)
	b.WriteByte(0)
	b.WriteString(req.Constraint.String())
	if req.Prerelease {
		b.WriteString("\x00pre")
	}
	if req.Head {
		b.WriteString("\x00head")
	}
	if req.External != nil {
		b.WriteByte(0)
		b.WriteString(req.External.Kind)
		b.WriteByte(0)
		b.WriteString(req.External.Ref)
	}
	return b.String()
}

// candidatesFor returns the viable specifications for req, newest first.
//
// An empty list is an ordinary dead end the search may backtrack out of. A
// *NoSpecificationError means the pod cannot be resolved at all; the caller
// must abort. Other errors are source failures.
func (p *provider) candidatesFor(req pod.Requirement) ([]*pod.Specification, error) {
	sig := reqSignature(req)
	if cached, ok := p.candidates[sig]; ok {
		return cached.specs, cached.err
	}
	specs, err := p.lookup(req)
	p.candidates[sig] = candidateSet{specs: specs, err: err}
	return specs, err
}

func (p *provider) lookup(req pod.Requirement) ([]*pod.Specification, error) {
	root := req.Root()

	// The candidate universe: a single pinned specification for externally
	// sourced roots, the full source set otherwise.
	var universe []*pod.Specification
	pinned := false
	if ext, ok := p.external[root]; ok {
		spec := p.pinned(root)
		if spec == nil {
			return nil, &InvalidStateError{
				Op:     "candidates",
				Reason: fmt.Sprintf("`%s` is sourced %s but the sandbox holds no specification for it", root, ext.External),
			}
		}
		universe = []*pod.Specification{spec}
		pinned = true
	} else {
		set, err := p.sources.Search(root)
		switch {
		case errors.Is(err, source.ErrNotFound):
			return nil, &NoSpecificationError{Requirement: req}
		case err != nil:
			return nil, errors.Wrapf(err, "searching for %s", root)
		case set == nil || set.Empty():
			return nil, &NoSpecificationError{Requirement: req}
		default:
			universe = set.Specifications()
		}
	}

	// Prereleases require an explicit opt-in. A pinned specification was
	// asked for by exact reference, so the gate does not apply to it. If
	// the gate empties the universe the pod is unresolvable for this
	// requirement, not merely a dead end.
	if !req.Prerelease && !pinned {
		var kept []*pod.Specification
		for _, s := range universe {
			if !s.Version.Prerelease() {
				kept = append(kept, s)
			}
		}
		if len(kept) == 0 {
			return nil, &NoSpecificationError{Requirement: req}
		}
		universe = kept
	}

	var admitted []*pod.Specification
	for _, s := range universe {
		if req.Constraint.Admits(s.Version) {
			admitted = append(admitted, s)
		}
	}

	// A subspec requirement is served by the subspec documents of the
	// versions that define it; versions without it drop out.
	if sub := req.Subspec(); sub != "" {
		var narrowed []*pod.Specification
		for _, s := range admitted {
			if child, ok := s.Subspec(sub); ok {
				narrowed = append(narrowed, child)
			}
		}
		admitted = narrowed
	}

	if req.Head {
		for i, s := range admitted {
			admitted[i] = s.AtHead()
		}
	}
	return admitted, nil
}

// dependenciesOf returns the declared sub-dependencies of spec, unfiltered.
func (p *provider) dependenciesOf(spec *pod.Specification) []pod.Requirement {
	return spec.Dependencies
}

// satisfied reports whether assigning candidate for req is consistent with
// the graph: when any vertex of req's root family is activated, the
// candidate must carry that same version, and in all cases the constraint
// must admit the candidate's version. This is the one check that enforces
// the single-version-per-root invariant across subspec vertices.
func (p *provider) satisfied(g *graph, req pod.Requirement, candidate *pod.Specification) bool {
	if active := g.activatedForRoot(req.Root()); active != nil {
		if !candidate.Version.Equal(active.spec.Version) {
			return false
		}
	}
	return req.SatisfiedBy(candidate.Version)
}

// remaining returns the number of viable candidates for req. Lookup errors
// count as zero so that doomed requirements sort to the front of the queue
// and fail the run promptly.
func (p *provider) remaining(req pod.Requirement) int {
	specs, err := p.candidatesFor(req)
	if err != nil {
		return 0
	}
	return len(specs)
}

// pinned returns the sandbox's pinned specification for root, or nil.
func (p *provider) pinned(root string) *pod.Specification {
	if p.sandbox == nil {
		return nil
	}
	return p.sandbox.PinnedSpecification(root)
}

// specAt finds root's stored specification at exactly version v, consulting
// the sandbox pin first and the sources second. Nil when that version is
// gone everywhere.
func (p *provider) specAt(root string, v pod.Version) *pod.Specification {
	if spec := p.pinned(root); spec != nil && spec.Version.Equal(v) {
		return spec
	}
	set, err := p.sources.Search(root)
	if err != nil || set == nil {
		return nil
	}
	spec, ok := set.At(v)
	if !ok {
		return nil
	}
	return spec
}
