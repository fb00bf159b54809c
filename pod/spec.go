// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pod

import "strings"

// Specification describes one pod at one version: its identity (root name
// plus optional subspec path), its direct dependencies, the platforms it
// supports, and any named sub-components.
//
// Subspec specifications carry their full "/"-qualified name and share their
// root's version; they are reached through the root specification's Subspecs
// tree.
type Specification struct {
	Name         string
	Version      Version
	Dependencies []Requirement

	// Platforms the pod supports. Empty means it runs anywhere.
	Platforms []Platform

	Subspecs []*Specification
}

// Root returns the root pod name, excluding any subspec path.
func (s *Specification) Root() string {
	return RootName(s.Name)
}

// IsSubspec reports whether s describes a sub-component rather than the
// root pod.
func (s *Specification) IsSubspec() bool {
	return strings.IndexByte(s.Name, '/') >= 0
}

// Subspec descends the "/"-separated path below s and returns the matching
// sub-component specification, or false when any path component is missing.
func (s *Specification) Subspec(path string) (*Specification, bool) {
	cur := s
	for _, part := range strings.Split(path, "/") {
		var next *Specification
		for _, sub := range cur.Subspecs {
			if subspecBasename(sub.Name) == part {
				next = sub
				break
			}
		}
		if next == nil {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// subspecBasename returns the last path component of a pod name.
func subspecBasename(name string) string {
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		return name[i+1:]
	}
	return name
}

// AtHead returns a copy of s whose version carries the head flag. The
// remaining fields are shared with s.
func (s *Specification) AtHead() *Specification {
	c := *s
	c.Version = s.Version.AtHead()
	return &c
}

// SupportsPlatform reports whether a target declaring platform p can
// consume s.
func (s *Specification) SupportsPlatform(p Platform) bool {
	if len(s.Platforms) == 0 {
		return true
	}
	for _, sp := range s.Platforms {
		if p.Supports(sp) {
			return true
		}
	}
	return false
}

// String renders the specification the way lockfiles show it: "A (1.0)".
func (s *Specification) String() string {
	return s.Name + " (" + s.Version.String() + ")"
}
