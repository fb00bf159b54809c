// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pod

import "testing"

// mkspec builds a root specification fixture with optional dependency
// requirement strings ("B >= 1.0").
func mkspec(name, version string, deps ...string) *Specification {
	s := &Specification{Name: name, Version: mkv(version)}
	for _, d := range deps {
		s.Dependencies = append(s.Dependencies, mkr(d))
	}
	return s
}

// mkr parses a "Name constraint..." requirement fixture string.
func mkr(s string) Requirement {
	name := s
	constraint := ""
	if i := indexSpace(s); i >= 0 {
		name, constraint = s[:i], s[i+1:]
	}
	r, err := NewRequirement(name, constraint)
	if err != nil {
		panic("bad test requirement " + s + ": " + err.Error())
	}
	return r
}

func indexSpace(s string) int {
	for i := 0; i < len(s); i++ {
		if s[i] == ' ' {
			return i
		}
	}
	return -1
}

func TestSpecificationSubspecLookup(t *testing.T) {
	root := mkspec("A", "1.0")
	core := mkspec("A/Core", "1.0", "B >= 1.0")
	inner := mkspec("A/Core/Inner", "1.0")
	core.Subspecs = []*Specification{inner}
	root.Subspecs = []*Specification{core}

	got, ok := root.Subspec("Core")
	if !ok || got != core {
		t.Fatalf("Subspec(Core) = %v, %t", got, ok)
	}
	got, ok = root.Subspec("Core/Inner")
	if !ok || got != inner {
		t.Fatalf("Subspec(Core/Inner) = %v, %t", got, ok)
	}
	if _, ok = root.Subspec("Missing"); ok {
		t.Error("lookup of a missing subspec should fail")
	}
	if _, ok = root.Subspec("Core/Missing"); ok {
		t.Error("lookup below a leaf should fail")
	}

	if root.IsSubspec() {
		t.Error("root spec misreported as subspec")
	}
	if !core.IsSubspec() || core.Root() != "A" {
		t.Errorf("subspec identity broken: IsSubspec=%t Root=%q", core.IsSubspec(), core.Root())
	}
}

func TestSpecificationAtHead(t *testing.T) {
	s := mkspec("A", "1.0", "B >= 1.0")
	h := s.AtHead()

	if !h.Version.Head() {
		t.Error("AtHead copy should carry the head flag")
	}
	if s.Version.Head() {
		t.Error("AtHead must not mutate the original")
	}
	if h.String() != "A (HEAD based on 1.0)" {
		t.Errorf("head spec renders as %q", h.String())
	}
	if len(h.Dependencies) != 1 {
		t.Error("AtHead copy should share dependencies")
	}
}

func TestSpecificationSupportsPlatform(t *testing.T) {
	s := mkspec("A", "1.0")
	if !s.SupportsPlatform(NewPlatform(PlatformOSX)) {
		t.Error("spec without platforms should run anywhere")
	}

	s.Platforms = []Platform{{Name: PlatformIOS, DeploymentTarget: mkv("8.0")}}
	if !s.SupportsPlatform(Platform{Name: PlatformIOS, DeploymentTarget: mkv("9.0")}) {
		t.Error("newer target should be supported")
	}
	if s.SupportsPlatform(NewPlatform(PlatformOSX)) {
		t.Error("osx target should not be supported by an ios-only spec")
	}
}
