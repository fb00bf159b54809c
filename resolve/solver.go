// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package resolve picks versions for pod requirements. It runs a
// backtracking search over the versions the configured sources offer,
// honoring lockfile pins, subspec/root version agreement, and externally
// pinned specifications, then projects the consistent graph into an
// ordered specification list per target.
package resolve

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/sinnerschrader-mobile/CocoaPods/pod"
)

// defaultTargetName names the implicit target used when Params.Targets is
// empty.
const defaultTargetName = "default"

// Sources finds the known versions of pods. The solver performs no source
// I/O beyond this interface; see the source package for implementations
// and for prefetching.
type Sources interface {
	// Search returns every known specification version for a root name.
	// Absence is reported with source.ErrNotFound or an empty set.
	Search(root string) (*pod.Set, error)
}

// Sandbox is the local-state collaborator: it pins externally sourced
// specifications and records which pods resolved to their bleeding edge.
type Sandbox interface {
	// PinnedSpecification returns the materialized specification for an
	// externally sourced root, or nil.
	PinnedSpecification(root string) *pod.Specification

	// RecordHeadUsage notes that root resolved to a head version.
	RecordHeadUsage(root string)
}

// A Target describes one consumer of the resolution.
type Target struct {
	Name string

	// Platform gates the specifications projected for this target. The
	// zero value disables the gate.
	Platform pod.Platform

	// Dependencies names the declared requirements (including any subspec
	// path) this target consumes. Constraints live in Params.Requirements.
	Dependencies []string
}

// A LockedDependency pins a root pod to the version a previous resolution
// chose.
type LockedDependency struct {
	// Name is the pod's root name, never a subspec path.
	Name string

	Version pod.Version
}

// Params holds all inputs to a resolution.
type Params struct {
	// Requirements are the declared dependencies, flattened across
	// targets.
	Requirements []pod.Requirement

	// Locked pins pods to previously chosen versions. A pin is honored
	// unless its version has vanished from every source.
	Locked []LockedDependency

	// Targets are the resolution's consumers. Empty means one implicit
	// target consuming every requirement.
	Targets []Target

	// Sources finds candidate specifications. Required.
	Sources Sources

	// Sandbox serves external pins and receives head-usage records. May
	// be nil when neither feature is used.
	Sandbox Sandbox

	// Logger receives the search trace at debug level. Nil discards it.
	Logger *logrus.Logger

	// MaxAttempts bounds how many candidate assignments are tried before
	// the search gives up. Zero means unbounded.
	MaxAttempts int
}

// searchState captures one activation decision so it can be revisited: the
// triggering dependency, the candidates not yet tried, the pending queue as
// it stood, and the graph log position to rewind to.
type searchState struct {
	dep        dependency
	candidates []*pod.Specification
	next       int
	queue      []dependency
	tag        int
}

// A Solver runs one resolution. Obtain it from Prepare; it is single-use
// and not safe for concurrent use.
type Solver struct {
	params Params
	log    *logrus.Logger

	prov   *provider
	graph  *graph
	queue  []dependency
	states []*searchState

	// conflicts is keyed by root name and never rewound: backtracking must
	// not forget what it learned, both for the fail-first ordering and for
	// the final report.
	conflicts map[string]*Conflict

	attempts int
	done     bool
	metrics  *metrics
}

// Prepare validates params and returns a Solver ready to run.
func Prepare(params Params) (*Solver, error) {
	if params.Sources == nil {
		return nil, &InvalidStateError{Op: "prepare", Reason: "no sources provided"}
	}

	declared := make(map[string]bool, len(params.Requirements))
	external := make(map[string]pod.Requirement)
	for _, req := range params.Requirements {
		if req.Name == "" {
			return nil, &InvalidStateError{Op: "prepare", Reason: "requirement with an empty name"}
		}
		declared[req.Name] = true
		if req.External == nil {
			continue
		}
		root := req.Root()
		if prev, ok := external[root]; ok && *prev.External != *req.External {
			return nil, &InvalidStateError{
				Op:     "prepare",
				Reason: fmt.Sprintf("`%s` is pinned to conflicting external sources (%s and %s)", root, prev.External, req.External),
			}
		}
		external[root] = req
	}

	targets := params.Targets
	if len(targets) == 0 {
		t := Target{Name: defaultTargetName}
		for _, req := range params.Requirements {
			t.Dependencies = append(t.Dependencies, req.Name)
		}
		targets = []Target{t}
	}
	seenTargets := make(map[string]bool, len(targets))
	for _, t := range targets {
		if t.Name == "" {
			return nil, &InvalidStateError{Op: "prepare", Reason: "target with an empty name"}
		}
		if seenTargets[t.Name] {
			return nil, &InvalidStateError{Op: "prepare", Reason: fmt.Sprintf("duplicate target %q", t.Name)}
		}
		seenTargets[t.Name] = true
		for _, dep := range t.Dependencies {
			if !declared[dep] {
				return nil, &InvalidStateError{
					Op:     "prepare",
					Reason: fmt.Sprintf("target %q consumes undeclared dependency %q", t.Name, dep),
				}
			}
		}
	}
	params.Targets = targets

	seenLocks := make(map[string]bool, len(params.Locked))
	for _, ld := range params.Locked {
		if ld.Name == "" || strings.Contains(ld.Name, "/") {
			return nil, &InvalidStateError{Op: "prepare", Reason: fmt.Sprintf("lock entry %q is not a root name", ld.Name)}
		}
		if ld.Version.IsZero() {
			return nil, &InvalidStateError{Op: "prepare", Reason: fmt.Sprintf("lock entry %s has no version", ld.Name)}
		}
		if seenLocks[ld.Name] {
			return nil, &InvalidStateError{Op: "prepare", Reason: fmt.Sprintf("duplicate lock entry for %s", ld.Name)}
		}
		seenLocks[ld.Name] = true
	}

	log := params.Logger
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}

	return &Solver{
		params:    params,
		log:       log,
		prov:      newProvider(params.Sources, params.Sandbox, external),
		graph:     newGraph(),
		conflicts: make(map[string]*Conflict),
	}, nil
}

// Resolve prepares and solves in one call.
func Resolve(params Params) (*Resolution, error) {
	s, err := Prepare(params)
	if err != nil {
		return nil, err
	}
	return s.Solve()
}

// Solve runs the search to completion, returning the per-target resolution
// or the error that stopped it. All results are all-or-nothing: an error
// means no partial resolution.
func (s *Solver) Solve() (*Resolution, error) {
	if s.done {
		return nil, &InvalidStateError{Op: "solve", Reason: "solver already used"}
	}
	s.done = true

	s.metrics = newMetrics()
	s.traceStart()

	s.metrics.push("seed")
	s.seed()
	s.metrics.pop()

	s.metrics.push("search")
	err := s.search()
	s.metrics.pop()
	if err != nil {
		s.metrics.report(s.log)
		return nil, err
	}

	s.metrics.push("project")
	res, err := s.project()
	s.metrics.pop()
	s.metrics.report(s.log)
	if err != nil {
		return nil, err
	}
	s.traceDone(res)
	return res, nil
}

// seed pre-creates a vertex per lock entry, hydrating it when the pinned
// version is still available somewhere, and queues the declared
// requirements. A hydrated vertex sorts as already-activated, but its
// sub-dependencies are not enqueued until a requirement actually lands on
// it: stale lock entries nobody references must not drag their
// dependencies into the graph.
func (s *Solver) seed() {
	for _, ld := range s.params.Locked {
		v := s.graph.addVertex(ld.Name)
		v.locked = true
		spec := s.prov.specAt(ld.Name, ld.Version)
		if spec == nil {
			// The pin is infeasible; the name resolves by normal search.
			s.trace(traceReject, "lock %s at %s is gone from every source", ld.Name, ld.Version)
			continue
		}
		if ld.Version.Head() {
			spec = spec.AtHead()
		}
		s.graph.setSpec(v, spec)
		s.trace(traceAccept, "lock %s at %s", ld.Name, ld.Version)
	}
	for _, req := range s.params.Requirements {
		s.queue = append(s.queue, dependency{req: req})
	}
}

func (s *Solver) search() error {
	for len(s.queue) > 0 {
		if err := s.process(s.selectNext()); err != nil {
			return err
		}
	}
	return nil
}

// orderKey computes the sort key of a pending requirement: pods that
// already have an activated vertex first, then pods with recorded
// conflicts, then fewest remaining candidates.
func (s *Solver) orderKey(dep dependency) [3]int {
	k := [3]int{1, 1, 0}
	if v := s.graph.vertexFor(dep.req.Name); v != nil && v.spec != nil {
		k[0] = 0
	}
	if _, ok := s.conflicts[dep.req.Root()]; ok {
		k[1] = 0
	}
	k[2] = s.prov.remaining(dep.req)
	return k
}

// orderedBefore is the strict ordering over pending requirements: the
// 3-part key, then name and origin as deterministic tiebreaks.
func orderedBefore(ka [3]int, da dependency, kb [3]int, db dependency) bool {
	for i := range ka {
		if ka[i] != kb[i] {
			return ka[i] < kb[i]
		}
	}
	if da.req.Name != db.req.Name {
		return da.req.Name < db.req.Name
	}
	return da.by < db.by
}

// selectNext removes and returns the minimal pending requirement. Keys are
// recomputed on every call: both the conflict table and the graph shift
// under the queue as the search moves.
func (s *Solver) selectNext() dependency {
	best := 0
	bestKey := s.orderKey(s.queue[0])
	for i := 1; i < len(s.queue); i++ {
		k := s.orderKey(s.queue[i])
		if orderedBefore(k, s.queue[i], bestKey, s.queue[best]) {
			best, bestKey = i, k
		}
	}
	dep := s.queue[best]
	s.queue = append(s.queue[:best], s.queue[best+1:]...)
	return dep
}

func (s *Solver) process(dep dependency) error {
	if v := s.graph.vertexFor(dep.req.Name); v != nil && v.spec != nil {
		return s.resolveExisting(dep, v)
	}
	// No vertex, or a lock vertex whose pin proved infeasible: search.
	return s.activate(dep)
}

// resolveExisting lands dep on an already-activated vertex: accept and add
// the edge when the payload satisfies the requirement, conflict otherwise.
func (s *Solver) resolveExisting(dep dependency, v *vertex) error {
	if !s.prov.satisfied(s.graph, dep.req, v.spec) {
		s.trace(traceReject, "`%s` conflicts with activated %s", dep.req, v.spec)
		viable, _ := s.prov.candidatesFor(dep.req)
		s.recordConflict(dep, v.spec.Version, viable, false)
		return s.backtrack()
	}

	ok, err := s.addEdge(dep, v)
	if err != nil {
		return err
	}
	if !ok {
		return s.backtrack()
	}
	s.trace(traceAccept, "`%s` satisfied by activated %s", dep.req, v.spec)
	s.expand(v)
	return nil
}

// activate resolves dep by searching its candidate list, pushing a search
// state so the decision can be revisited.
func (s *Solver) activate(dep dependency) error {
	candidates, err := s.prov.candidatesFor(dep.req)
	if err != nil {
		var nse *NoSpecificationError
		if errors.As(err, &nse) && nse.RequiredBy == "" {
			nse.RequiredBy = s.describeRequirer(dep.by)
		}
		s.trace(traceReject, "%s", err)
		return err
	}
	if len(candidates) == 0 {
		s.trace(traceReject, "no viable candidates for `%s`", dep.req)
		var blocked pod.Version
		if active := s.graph.activatedForRoot(dep.req.Root()); active != nil {
			blocked = active.spec.Version
		}
		s.recordConflict(dep, blocked, nil, false)
		return s.backtrack()
	}

	st := &searchState{
		dep:        dep,
		candidates: candidates,
		queue:      copyQueue(s.queue),
		tag:        s.graph.tag(),
	}
	s.states = append(s.states, st)
	return s.tryFrom(st)
}

// tryFrom assigns the next viable candidate recorded in st, counting one
// attempt per assignment. Exhaustion conflicts and backtracks.
func (s *Solver) tryFrom(st *searchState) error {
	v := s.graph.vertexFor(st.dep.req.Name)
	if v == nil {
		v = s.graph.addVertex(st.dep.req.Name)
	}

	for st.next < len(st.candidates) {
		candidate := st.candidates[st.next]
		st.next++

		if !s.prov.satisfied(s.graph, st.dep.req, candidate) {
			s.trace(traceReject, "%s does not fit `%s`", candidate, st.dep.req)
			continue
		}

		if s.params.MaxAttempts > 0 && s.attempts >= s.params.MaxAttempts {
			return s.failure(s.params.MaxAttempts)
		}
		s.attempts++

		s.graph.setSpec(v, candidate)
		ok, err := s.addEdge(st.dep, v)
		if err != nil {
			return err
		}
		if !ok {
			return s.backtrack()
		}
		s.trace(traceAccept, "select %s for `%s`", candidate, st.dep.req)
		s.expand(v)
		return nil
	}

	s.trace(traceReject, "no candidate for `%s` fits the graph", st.dep.req)
	var blocked pod.Version
	if active := s.graph.activatedForRoot(st.dep.req.Root()); active != nil {
		blocked = active.spec.Version
	}
	s.recordConflict(st.dep, blocked, []*pod.Specification{}, false)
	return s.backtrack()
}

// addEdge wires dep into the graph: the requirement record on v plus the
// successor edge from its requirer. It reports false, after recording a
// conflict, when the edge would close a dependency cycle.
func (s *Solver) addEdge(dep dependency, v *vertex) (bool, error) {
	if dep.by != "" {
		from := s.graph.vertexFor(dep.by)
		if from == nil {
			return false, &InvalidStateError{Op: "link", Reason: fmt.Sprintf("requirer %s has no vertex", dep.by)}
		}
		if s.graph.reaches(v, from) {
			s.trace(traceReject, "`%s` would create a dependency cycle", dep.req)
			s.recordConflict(dep, v.specVersion(), nil, true)
			return false, nil
		}
		s.graph.addSuccessor(from, v)
	}
	s.graph.addRequirement(v, dep)
	return true, nil
}

// expand enqueues the sub-dependencies of v's assigned specification. Each
// assignment is expanded at most once; the rewind log clears the flag
// together with the assignment it belongs to.
func (s *Solver) expand(v *vertex) {
	if v.expanded {
		return
	}
	s.graph.markExpanded(v)
	for _, req := range s.prov.dependenciesOf(v.spec) {
		s.queue = append(s.queue, dependency{by: v.name, req: req})
	}
}

// backtrack pops search states until one still has an untried candidate,
// rewinds the graph and queue to that decision point, and retries it. An
// empty stack means the whole search space is exhausted.
func (s *Solver) backtrack() error {
	for len(s.states) > 0 {
		st := s.states[len(s.states)-1]
		if st.next >= len(st.candidates) {
			s.states = s.states[:len(s.states)-1]
			continue
		}
		s.trace(traceBacktrack, "retrying `%s`, %d candidates left", st.dep.req, len(st.candidates)-st.next)
		s.graph.rewindTo(st.tag)
		s.queue = copyQueue(st.queue)
		return s.tryFrom(st)
	}
	return s.failure(0)
}

// recordConflict merges one failed requirement into the conflict table,
// together with every requirement currently recorded against the root's
// family, so the final report shows all sides of the disagreement.
func (s *Solver) recordConflict(dep dependency, blocked pod.Version, untried []*pod.Specification, cycle bool) {
	root := dep.req.Root()
	c := s.conflicts[root]
	if c == nil {
		c = &Conflict{Name: root}
		s.conflicts[root] = c
	}

	add := func(rec RequirementRecord) {
		for _, have := range c.Requirements {
			if have.Requirement.String() == rec.Requirement.String() && have.RequiredBy == rec.RequiredBy {
				return
			}
		}
		c.Requirements = append(c.Requirements, rec)
	}
	add(RequirementRecord{Requirement: dep.req, RequiredBy: s.describeRequirer(dep.by)})
	s.graph.vertices.WalkPrefix(root, func(name string, v *vertex) bool {
		if !isNamePrefixOrEqual(root, name) {
			return false
		}
		for _, d := range v.requirements {
			add(RequirementRecord{Requirement: d.req, RequiredBy: s.describeRequirer(d.by)})
		}
		return false
	})

	if !blocked.IsZero() {
		c.Activated = blocked
	}
	if cycle {
		c.Cycle = true
	}
	if untried != nil {
		c.Candidates = c.Candidates[:0]
		for _, spec := range untried {
			c.Candidates = append(c.Candidates, spec.Version)
		}
	}
}

// failure assembles the final ConflictError from the accumulated table.
func (s *Solver) failure(budget int) error {
	ce := &ConflictError{Attempts: s.attempts, Budget: budget}
	names := make([]string, 0, len(s.conflicts))
	for name := range s.conflicts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		ce.Conflicts = append(ce.Conflicts, *s.conflicts[name])
	}
	return ce
}

// describeRequirer renders a requirement origin for records and messages.
func (s *Solver) describeRequirer(by string) string {
	if by == "" {
		return "Podfile"
	}
	if v := s.graph.vertexFor(by); v != nil && v.spec != nil {
		return v.spec.String()
	}
	return by
}

func (v *vertex) specVersion() pod.Version {
	if v.spec == nil {
		return pod.Version{}
	}
	return v.spec.Version
}

func copyQueue(q []dependency) []dependency {
	return append([]dependency(nil), q...)
}
