// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package source

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sinnerschrader-mobile/CocoaPods/pod"
)

// newTestSpec builds a root specification from a version string and
// optional "Name constraint" dependency declarations.
func newTestSpec(name, version string, deps ...string) *pod.Specification {
	v, err := pod.NewVersion(version)
	if err != nil {
		panic(err)
	}
	spec := &pod.Specification{Name: name, Version: v}
	for _, d := range deps {
		var depname, constraint string
		if i := strings.Index(d, " "); i >= 0 {
			depname, constraint = d[:i], d[i+1:]
		} else {
			depname = d
		}
		req, err := pod.NewRequirement(depname, constraint)
		if err != nil {
			panic(err)
		}
		spec.Dependencies = append(spec.Dependencies, req)
	}
	return spec
}

func addAll(t *testing.T, src *InMemory, specs ...*pod.Specification) {
	t.Helper()
	for _, spec := range specs {
		if err := src.Add(spec); err != nil {
			t.Fatal(err)
		}
	}
}

// specCmp equates versions and constraints by observable behavior, as both
// carry unexported parser state.
var specCmp = cmp.Options{
	cmp.Comparer(func(a, b pod.Version) bool {
		if a.IsZero() || b.IsZero() {
			return a.IsZero() == b.IsZero()
		}
		return a.Compare(b) == 0 && a.Head() == b.Head()
	}),
	cmp.Comparer(func(a, b pod.Constraint) bool {
		return a.String() == b.String()
	}),
}

func TestInMemorySearch(t *testing.T) {
	src := NewInMemory("test")
	for _, spec := range []*pod.Specification{
		newTestSpec("A", "1.0"),
		newTestSpec("A", "1.5", "B >= 1.0"),
		newTestSpec("B", "1.0"),
	} {
		if err := src.Add(spec); err != nil {
			t.Fatal(err)
		}
	}

	set, err := src.Search("A")
	if err != nil {
		t.Fatal(err)
	}
	if set.Len() != 2 {
		t.Errorf("Search(A) returned %d versions, want 2", set.Len())
	}
	if got := set.Highest().Version.String(); got != "1.5" {
		t.Errorf("highest A is %s, want 1.5", got)
	}

	if _, err := src.Search("C"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Search(C) = %v, want ErrNotFound", err)
	}

	pods, err := src.Pods()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"A", "B"}, pods); diff != "" {
		t.Errorf("Pods() mismatch (-want +got):\n%s", diff)
	}
}

func TestInMemoryRejectsSubspecs(t *testing.T) {
	src := NewInMemory("test")
	if err := src.Add(newTestSpec("A/Sub", "1.0")); err == nil {
		t.Error("expected error adding a subspec directly")
	}
	if _, err := src.Search("A/Sub"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Search(A/Sub) = %v, want ErrNotFound", err)
	}
}
