// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pod

// Platform names understood by the tool. Specifications may also carry
// names outside this list; matching is purely textual.
const (
	PlatformIOS     = "ios"
	PlatformOSX     = "osx"
	PlatformTVOS    = "tvos"
	PlatformWatchOS = "watchos"
)

// Platform pairs an operating system name with an optional minimum
// deployment target.
type Platform struct {
	Name             string
	DeploymentTarget Version
}

// NewPlatform returns a platform with no deployment target.
func NewPlatform(name string) Platform {
	return Platform{Name: name}
}

// Supports reports whether a target declaring p can consume code built for
// other: the names must match, and when both sides carry deployment targets
// the target's must be at least the specification's.
func (p Platform) Supports(other Platform) bool {
	if p.Name != other.Name {
		return false
	}
	if p.DeploymentTarget.IsZero() || other.DeploymentTarget.IsZero() {
		return true
	}
	return !p.DeploymentTarget.LessThan(other.DeploymentTarget)
}

func (p Platform) String() string {
	if p.DeploymentTarget.IsZero() {
		return p.Name
	}
	return p.Name + " " + p.DeploymentTarget.String()
}
