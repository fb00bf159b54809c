// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pod

import (
	"sort"

	"github.com/pkg/errors"
)

// Set collects every known version of one root name, in ascending version
// order. Sources build Sets from their indexes; resolution queries them once
// per root name per run.
type Set struct {
	name  string
	specs []*Specification
}

// NewSet returns an empty set for the given root name.
func NewSet(name string) *Set {
	return &Set{name: name}
}

// Name returns the root name the set collects versions for.
func (s *Set) Name() string {
	return s.name
}

// Len returns the number of distinct versions in the set.
func (s *Set) Len() int {
	return len(s.specs)
}

// Empty reports whether the set holds no versions at all.
func (s *Set) Empty() bool {
	return len(s.specs) == 0
}

// Add inserts spec in version order and reports whether it was added. A
// version already present is left untouched, so when several sources carry
// the same version the first one consulted wins. Specifications belonging
// to a different root, or describing a subspec, are rejected.
func (s *Set) Add(spec *Specification) (bool, error) {
	if spec.IsSubspec() {
		return false, errors.Errorf("cannot add subspec `%s` to the set for `%s`; sets hold root specifications", spec.Name, s.name)
	}
	if spec.Name != s.name {
		return false, errors.Errorf("specification `%s` does not belong to the set for `%s`", spec, s.name)
	}

	i := sort.Search(len(s.specs), func(i int) bool {
		return !s.specs[i].Version.LessThan(spec.Version)
	})
	if i < len(s.specs) && s.specs[i].Version.Equal(spec.Version) {
		return false, nil
	}

	s.specs = append(s.specs, nil)
	copy(s.specs[i+1:], s.specs[i:])
	s.specs[i] = spec
	return true, nil
}

// Specifications returns the set's contents newest version first.
func (s *Set) Specifications() []*Specification {
	out := make([]*Specification, len(s.specs))
	for i, spec := range s.specs {
		out[len(s.specs)-1-i] = spec
	}
	return out
}

// Versions returns the known versions newest first.
func (s *Set) Versions() []Version {
	out := make([]Version, len(s.specs))
	for i, spec := range s.specs {
		out[len(s.specs)-1-i] = spec.Version
	}
	return out
}

// At returns the specification at exactly v.
func (s *Set) At(v Version) (*Specification, bool) {
	i := sort.Search(len(s.specs), func(i int) bool {
		return !s.specs[i].Version.LessThan(v)
	})
	if i < len(s.specs) && s.specs[i].Version.Equal(v) {
		return s.specs[i], true
	}
	return nil, false
}

// Highest returns the newest specification, or nil for an empty set.
func (s *Set) Highest() *Specification {
	if len(s.specs) == 0 {
		return nil
	}
	return s.specs[len(s.specs)-1]
}
