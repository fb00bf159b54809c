// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cocoapods wires the manifest, lockfile, sandbox and sources into
// complete dependency resolution runs. The heavy lifting lives in the
// subpackages; this package is the glue a tool front end calls.
package cocoapods

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/sinnerschrader-mobile/CocoaPods/lockfile"
	"github.com/sinnerschrader-mobile/CocoaPods/pod"
	"github.com/sinnerschrader-mobile/CocoaPods/resolve"
	"github.com/sinnerschrader-mobile/CocoaPods/sandbox"
	"github.com/sinnerschrader-mobile/CocoaPods/source"
)

// An Analyzer runs one resolution for a project: Podfile in, regenerated
// lockfile out.
type Analyzer struct {
	// Podfile is the project manifest. Required.
	Podfile *Podfile

	// Lockfile is the previous resolution, if any. Its pins carry over
	// into the new resolution.
	Lockfile *lockfile.Lockfile

	// Sandbox holds external pins and receives head-usage records. May be
	// nil for projects using neither feature.
	Sandbox *sandbox.Sandbox

	// Sources are the spec repos to resolve against, in priority order.
	Sources []source.Source

	// Logger receives the solver trace at debug level. Nil discards it.
	Logger *logrus.Logger

	// MaxAttempts bounds the solver. Zero means unbounded.
	MaxAttempts int
}

// An Analysis is the outcome of one run.
type Analysis struct {
	Resolution *resolve.Resolution

	// Lockfile is the regenerated Podfile.lock for this resolution. The
	// caller decides whether to persist it.
	Lockfile *lockfile.Lockfile
}

// Analyze resolves the Podfile against the sources, honoring the previous
// lockfile's pins, and assembles the replacement lockfile. Resolution
// failures come back as the resolve package's error types, undecorated.
func (a *Analyzer) Analyze(ctx context.Context) (*Analysis, error) {
	if a.Podfile == nil {
		return nil, errors.New("no Podfile to analyze")
	}

	var locked []resolve.LockedDependency
	if a.Lockfile != nil {
		if err := a.Lockfile.CompatibleWith(Version); err != nil {
			return nil, err
		}
		pins, err := a.Lockfile.LockedDependencies()
		if err != nil {
			return nil, err
		}
		locked = pins
	}

	reqs := a.Podfile.Requirements()
	agg := source.NewAggregate(a.Sources...)
	if err := agg.Prefetch(ctx, prefetchRoots(reqs, locked)); err != nil {
		return nil, errors.Wrap(err, "prefetching sources")
	}

	if a.Sandbox != nil {
		a.Sandbox.ResetHeadUsage()
	}

	params := resolve.Params{
		Requirements: reqs,
		Locked:       locked,
		Targets:      a.Podfile.ResolverTargets(),
		Sources:      agg,
		Logger:       a.Logger,
		MaxAttempts:  a.MaxAttempts,
	}
	// Assign only a non-nil sandbox; a typed nil would defeat the solver's
	// nil check.
	if a.Sandbox != nil {
		params.Sandbox = a.Sandbox
	}

	res, err := resolve.Resolve(params)
	if err != nil {
		return nil, err
	}

	return &Analysis{
		Resolution: res,
		Lockfile:   lockfile.FromResolution(res, reqs, a.Podfile.Checksum(), Version),
	}, nil
}

// prefetchRoots collects the root names worth warming before the solve:
// everything declared or locked, except roots served by an external pin
// rather than by the sources.
func prefetchRoots(reqs []pod.Requirement, locked []resolve.LockedDependency) []string {
	external := make(map[string]bool)
	for _, req := range reqs {
		if req.External != nil {
			external[req.Root()] = true
		}
	}

	seen := make(map[string]bool)
	var roots []string
	add := func(root string) {
		if !external[root] && !seen[root] {
			seen[root] = true
			roots = append(roots, root)
		}
	}
	for _, req := range reqs {
		add(req.Root())
	}
	for _, ld := range locked {
		add(ld.Name)
	}
	return roots
}
