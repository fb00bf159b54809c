// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pod defines the domain model shared across this repository:
// versions, requirements and their constraints, platforms, specifications,
// and the per-root-name sets specifications are grouped into.
package pod

import (
	"strings"

	goversion "github.com/hashicorp/go-version"
	"github.com/pkg/errors"
)

// headPrefix marks a version resolved from a bleeding edge source rather
// than a published release. The textual form round-trips through lockfiles,
// so NewVersion accepts it back.
const headPrefix = "HEAD based on "

// Version is one published (or head) version of a pod. Versions are ordered
// component-wise, with prerelease versions sorting below their release
// counterpart. The head flag never participates in ordering; it only
// identifies where the code came from.
//
// The zero Version is "no version"; it sorts below everything and renders as
// the empty string.
type Version struct {
	v    *goversion.Version
	head bool
}

// NewVersion parses a version in the usual dotted form ("1.0", "2.1.3",
// "1.0-beta1"), or the head form ("HEAD based on 1.0") written by lockfiles.
func NewVersion(s string) (Version, error) {
	var head bool
	if strings.HasPrefix(s, headPrefix) {
		head = true
		s = strings.TrimPrefix(s, headPrefix)
	}

	gv, err := goversion.NewVersion(s)
	if err != nil {
		return Version{}, errors.Wrapf(err, "malformed version %q", s)
	}
	return Version{v: gv, head: head}, nil
}

// IsZero reports whether v is the zero "no version" value.
func (v Version) IsZero() bool {
	return v.v == nil
}

// Head reports whether v came from a bleeding edge source.
func (v Version) Head() bool {
	return v.head
}

// AtHead returns a copy of v carrying the head flag.
func (v Version) AtHead() Version {
	v.head = true
	return v
}

// Prerelease reports whether v is a prerelease ("1.0-beta1").
func (v Version) Prerelease() bool {
	return v.v != nil && v.v.Prerelease() != ""
}

// Compare returns -1, 0 or 1 as v sorts below, equal to, or above o. Head
// flags are ignored; zero versions sort below everything.
func (v Version) Compare(o Version) int {
	switch {
	case v.v == nil && o.v == nil:
		return 0
	case v.v == nil:
		return -1
	case o.v == nil:
		return 1
	}
	return v.v.Compare(o.v)
}

// Equal reports whether v and o denote the same version number. Trailing
// zero segments are insignificant: "1.0" equals "1.0.0".
func (v Version) Equal(o Version) bool {
	return v.Compare(o) == 0
}

// LessThan reports whether v sorts below o.
func (v Version) LessThan(o Version) bool {
	return v.Compare(o) < 0
}

// GreaterThan reports whether v sorts above o.
func (v Version) GreaterThan(o Version) bool {
	return v.Compare(o) > 0
}

// String renders the version as given to NewVersion, with head versions in
// their "HEAD based on <v>" lockfile form.
func (v Version) String() string {
	if v.v == nil {
		return ""
	}
	if v.head {
		return headPrefix + v.v.Original()
	}
	return v.v.Original()
}
