// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pod

import (
	"strings"

	goversion "github.com/hashicorp/go-version"
	"github.com/pkg/errors"
)

// Constraint is a closed predicate over Versions, built from a
// comma-separated list of operator clauses: "= 1.0", ">= 1.0, < 2.0",
// "~> 1.2". The zero Constraint admits every version.
type Constraint struct {
	cs  goversion.Constraints
	raw string
	pre bool
}

// NewConstraint parses a constraint expression. The empty string yields the
// zero Constraint.
func NewConstraint(s string) (Constraint, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Constraint{}, nil
	}

	cs, err := goversion.NewConstraint(s)
	if err != nil {
		return Constraint{}, errors.Wrapf(err, "malformed version constraint %q", s)
	}
	return Constraint{cs: cs, raw: s, pre: referencesPrerelease(s)}, nil
}

// referencesPrerelease reports whether any clause of the expression names a
// prerelease version. A requirement written against "1.0-beta" implicitly
// opts into prereleases, matching the behavior of the Ruby tool.
func referencesPrerelease(s string) bool {
	for _, clause := range strings.Split(s, ",") {
		clause = strings.TrimSpace(clause)
		clause = strings.TrimLeft(clause, "=!<>~ ")
		if clause == "" {
			continue
		}
		if v, err := goversion.NewVersion(clause); err == nil && v.Prerelease() != "" {
			return true
		}
	}
	return false
}

// Any reports whether c admits every version.
func (c Constraint) Any() bool {
	return c.cs == nil
}

// ReferencesPrerelease reports whether the constraint expression named a
// prerelease version.
func (c Constraint) ReferencesPrerelease() bool {
	return c.pre
}

// Admits reports whether v meets every clause of c. The zero Version is
// admitted by nothing but the zero Constraint.
func (c Constraint) Admits(v Version) bool {
	if c.cs == nil {
		return true
	}
	if v.v == nil {
		return false
	}
	return c.cs.Check(v.v)
}

// String renders the constraint as written, with the zero Constraint in its
// conventional ">= 0" form.
func (c Constraint) String() string {
	if c.cs == nil {
		return ">= 0"
	}
	return c.raw
}

// ExternalSource marks a requirement resolved by direct reference to a
// single pinned, already-materialized specification (a git URL, a local
// path, or an explicit podspec location) instead of by searching version
// indexes.
type ExternalSource struct {
	Kind string // "git", "path" or "podspec"
	Ref  string
}

func (e ExternalSource) String() string {
	return "from `" + e.Ref + "`"
}

// Requirement is one declared dependency: a pod name, possibly carrying a
// "/"-separated subspec path, plus the version constraint and selection
// policy flags.
type Requirement struct {
	Name       string
	Constraint Constraint

	// Prerelease admits prerelease versions as candidates.
	Prerelease bool

	// Head asks for the bleeding edge of the pod; chosen candidates are
	// tagged accordingly.
	Head bool

	// External, when set, pins the requirement to a single specification
	// resolved outside the version search.
	External *ExternalSource
}

// NewRequirement builds a requirement from a name and a constraint
// expression (which may be empty). Constraints naming a prerelease version
// opt the requirement into prereleases.
func NewRequirement(name, constraint string) (Requirement, error) {
	if name == "" {
		return Requirement{}, errors.New("a requirement must name a pod")
	}

	c, err := NewConstraint(constraint)
	if err != nil {
		return Requirement{}, errors.Wrapf(err, "requirement for %q", name)
	}
	return Requirement{Name: name, Constraint: c, Prerelease: c.ReferencesPrerelease()}, nil
}

// Root returns the root pod name, excluding any subspec path.
func (r Requirement) Root() string {
	return RootName(r.Name)
}

// Subspec returns the "/"-separated subspec path below the root name, or ""
// when the requirement names the root itself.
func (r Requirement) Subspec() string {
	if i := strings.IndexByte(r.Name, '/'); i >= 0 {
		return r.Name[i+1:]
	}
	return ""
}

// SatisfiedBy reports whether v meets the version constraint. Prerelease
// gating is a candidate selection policy and deliberately not part of this
// predicate.
func (r Requirement) SatisfiedBy(v Version) bool {
	return r.Constraint.Admits(v)
}

// String renders the requirement the way lockfiles and error messages show
// it: "Alamofire (>= 4.0)", or "Alamofire (from `https://...`)" for external
// requirements.
func (r Requirement) String() string {
	if r.External != nil {
		return r.Name + " (" + r.External.String() + ")"
	}
	return r.Name + " (" + r.Constraint.String() + ")"
}

// RootName returns the root component of a possibly "/"-qualified pod name:
// "Alamofire/Core" yields "Alamofire".
func RootName(name string) string {
	if i := strings.IndexByte(name, '/'); i >= 0 {
		return name[:i]
	}
	return name
}
