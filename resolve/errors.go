// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package resolve

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/sinnerschrader-mobile/CocoaPods/pod"
)

// A RequirementRecord ties one requirement to where it came from, rendered
// at record time so the information survives graph rewinds.
type RequirementRecord struct {
	Requirement pod.Requirement

	// RequiredBy is "Podfile" or the requiring specification, e.g. "B (1.0)".
	RequiredBy string
}

// A Conflict explains why one pod could not be assigned a version.
type Conflict struct {
	// Name is the root name of the conflicting pod.
	Name string

	// Requirements are the requirement records implicated in the conflict,
	// in the order the search discovered them.
	Requirements []RequirementRecord

	// Activated is the version already present in the graph that blocked a
	// requirement, when there was one. Zero otherwise.
	Activated pod.Version

	// Candidates are the versions that remained untried when the conflict
	// was last updated.
	Candidates []pod.Version

	// Cycle marks a conflict caused by an edge that would have made the
	// graph cyclic.
	Cycle bool
}

// NoSpecificationError reports a requirement for which no usable
// specification exists anywhere: the pod is unknown to every source, or
// every stored version is filtered out before version search begins (for
// example, prereleases the requirement did not opt into). It aborts the
// resolution; no amount of backtracking can repair it.
type NoSpecificationError struct {
	Requirement pod.Requirement
	RequiredBy  string
}

func (e *NoSpecificationError) Error() string {
	if e.RequiredBy == "" {
		return fmt.Sprintf("unable to find a specification for `%s`", e.Requirement)
	}
	return fmt.Sprintf("unable to find a specification for `%s` required by `%s`", e.Requirement, e.RequiredBy)
}

// ConflictError reports an exhausted search: no assignment of versions can
// satisfy the requirement set. It carries one Conflict per implicated pod,
// sorted by name.
type ConflictError struct {
	Conflicts []Conflict

	// Attempts is the number of candidate assignments the search tried.
	Attempts int

	// Budget, when non-zero, is the attempt bound that stopped the search
	// before it was naturally exhausted.
	Budget int
}

func (e *ConflictError) Error() string {
	var buf bytes.Buffer
	if e.Budget > 0 {
		fmt.Fprintf(&buf, "gave up after %d attempts; the requirements satisfied so far conflict:", e.Attempts)
	} else {
		buf.WriteString("unable to satisfy the following requirements:")
	}
	for _, c := range e.Conflicts {
		buf.WriteString("\n")
		for _, r := range c.Requirements {
			fmt.Fprintf(&buf, "\n- `%s` required by `%s`", r.Requirement, r.RequiredBy)
		}
		if !c.Activated.IsZero() {
			fmt.Fprintf(&buf, "\n  `%s` is activated at %s", c.Name, c.Activated)
		}
		if c.Cycle {
			fmt.Fprintf(&buf, "\n  requiring `%s` here would create a dependency cycle", c.Name)
		}
		if len(c.Candidates) > 0 {
			fmt.Fprintf(&buf, "\n  versions not yet tried:")
			for i, v := range c.Candidates {
				if i > 0 {
					buf.WriteString(",")
				}
				fmt.Fprintf(&buf, " %s", v)
			}
		}
	}
	return buf.String()
}

// Names returns the sorted root names of every pod implicated in the
// conflict.
func (e *ConflictError) Names() []string {
	names := make([]string, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		names = append(names, c.Name)
	}
	sort.Strings(names)
	return names
}

// PlatformError reports a structurally successful resolution that placed a
// specification supporting none of a target's platform.
type PlatformError struct {
	Target         string
	TargetPlatform pod.Platform
	Spec           *pod.Specification
}

func (e *PlatformError) Error() string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "`%s` does not support target `%s` (%s)", e.Spec, e.Target, e.TargetPlatform)
	if len(e.Spec.Platforms) > 0 {
		buf.WriteString("; supported platforms:")
		for i, p := range e.Spec.Platforms {
			if i > 0 {
				buf.WriteString(",")
			}
			fmt.Fprintf(&buf, " %s", p)
		}
	}
	return buf.String()
}

// InvalidStateError reports a contract violation in the inputs or an
// impossible internal state, e.g. an externally sourced requirement with no
// pinned specification in the sandbox.
type InvalidStateError struct {
	Op     string
	Reason string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid state in %s: %s", e.Op, e.Reason)
}
