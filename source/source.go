// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package source provides indexes of pod specifications: the Source
// interface, an in-memory implementation, a persistent bolt-backed index,
// and the Aggregate that merges an ordered list of sources into the single
// view the resolver consumes.
package source

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/sinnerschrader-mobile/CocoaPods/pod"
)

// ErrNotFound is returned by Search when a source has no pod with the
// requested name. Callers that merge several sources treat it as "keep
// looking", not as failure.
var ErrNotFound = errors.New("no pod with that name")

// A Source is an index of pod specifications, keyed by root name and
// version. Implementations must be safe for concurrent Search calls.
type Source interface {
	// Name identifies the source in logs and error messages.
	Name() string

	// Search returns the set of all known specification versions for one
	// root name, or ErrNotFound.
	Search(root string) (*pod.Set, error)

	// Pods returns the sorted root names of every pod the source knows.
	Pods() ([]string, error)
}

// InMemory is a Source backed by a plain map. It serves tests and
// pre-parsed indexes; populate it with Add before handing it out, as Add
// is not safe to race with Search.
type InMemory struct {
	name string
	sets map[string]*pod.Set
}

// NewInMemory returns an empty in-memory source.
func NewInMemory(name string) *InMemory {
	return &InMemory{
		name: name,
		sets: make(map[string]*pod.Set),
	}
}

// Name implements Source.
func (in *InMemory) Name() string {
	return in.name
}

// Add registers one root specification. Re-adding an already known version
// is a no-op, matching the first-entry-wins rule of Set.
func (in *InMemory) Add(spec *pod.Specification) error {
	set := in.sets[spec.Name]
	if set == nil {
		set = pod.NewSet(spec.Name)
	}
	if _, err := set.Add(spec); err != nil {
		return errors.Wrapf(err, "source %s", in.name)
	}
	in.sets[spec.Name] = set
	return nil
}

// Search implements Source.
func (in *InMemory) Search(root string) (*pod.Set, error) {
	set, ok := in.sets[root]
	if !ok || set.Empty() {
		return nil, ErrNotFound
	}
	return set, nil
}

// Pods implements Source.
func (in *InMemory) Pods() ([]string, error) {
	names := make([]string, 0, len(in.sets))
	for name := range in.sets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
