// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package resolve

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sinnerschrader-mobile/CocoaPods/pod"
	"github.com/sinnerschrader-mobile/CocoaPods/source"
)

// nvsplit splits an "info" string on the first space into name and the
// remainder.
//
// This is for narrow use - panics if there are less than two resulting
// items in the slice.
func nvsplit(info string) (name, rest string) {
	s := strings.SplitN(info, " ", 2)
	if len(s) < 2 {
		panic(fmt.Sprintf("malformed name/version info string %q", info))
	}
	return s[0], s[1]
}

// mkversion parses a version, panicking on malformed test data.
func mkversion(s string) pod.Version {
	v, err := pod.NewVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// mkspecat builds a bare specification for direct graph manipulation.
func mkspecat(name, version string) *pod.Specification {
	return &pod.Specification{Name: name, Version: mkversion(version)}
}

// mkreq parses a requirement from a compact fixture string:
//
//	"A"                  any version of A
//	"A >= 1.0, < 2.0"    constrained
//	"A/Sub ~> 1.0"       subspec requirement
//	"A pre [constraint]" prerelease opt-in
//	"A head [constraint]" bleeding edge
//	"A from kind ref"    externally sourced
func mkreq(info string) pod.Requirement {
	fields := strings.SplitN(info, " ", 2)
	name := fields[0]
	var rest string
	if len(fields) == 2 {
		rest = fields[1]
	}

	if strings.HasPrefix(rest, "from ") {
		parts := strings.Fields(rest)
		if len(parts) != 3 {
			// don't want to allow bad test data at this level, so just panic
			panic(fmt.Sprintf("malformed external requirement %q", info))
		}
		req, err := pod.NewRequirement(name, "")
		if err != nil {
			panic(err)
		}
		req.External = &pod.ExternalSource{Kind: parts[1], Ref: parts[2]}
		return req
	}

	var head, pre bool
	for {
		switch {
		case rest == "head" || strings.HasPrefix(rest, "head "):
			head = true
			rest = strings.TrimSpace(strings.TrimPrefix(rest, "head"))
		case rest == "pre" || strings.HasPrefix(rest, "pre "):
			pre = true
			rest = strings.TrimSpace(strings.TrimPrefix(rest, "pre"))
		default:
			req, err := pod.NewRequirement(name, rest)
			if err != nil {
				panic(err)
			}
			req.Head = head
			if pre {
				req.Prerelease = true
			}
			return req
		}
	}
}

// mkplatform parses "ios" or "ios 9.0".
func mkplatform(s string) pod.Platform {
	fields := strings.Fields(s)
	if len(fields) == 0 || len(fields) > 2 {
		panic(fmt.Sprintf("malformed platform %q", s))
	}
	p := pod.NewPlatform(fields[0])
	if len(fields) == 2 {
		p.DeploymentTarget = mkversion(fields[1])
	}
	return p
}

// A depspec is a fixture representing one stored specification entry: a
// root ("A 1.0") or a subspec declared at the same version as its root
// ("A/Sub 1.0"). Trailing strings follow mkreq's grammar, except that
// strings beginning "platform " declare a supported platform instead.
type depspec struct {
	name      string
	v         pod.Version
	deps      []pod.Requirement
	platforms []pod.Platform
}

// mkdepspec creates a depspec by processing a series of strings. The first
// is the name/version pair being described; the rest are its dependencies
// and platforms.
func mkdepspec(nv string, deps ...string) depspec {
	name, ver := nvsplit(nv)
	ds := depspec{name: name, v: mkversion(ver)}
	for _, dep := range deps {
		if strings.HasPrefix(dep, "platform ") {
			ds.platforms = append(ds.platforms, mkplatform(strings.TrimPrefix(dep, "platform ")))
			continue
		}
		ds.deps = append(ds.deps, mkreq(dep))
	}
	return ds
}

// mksources assembles depspecs into per-root specification documents,
// folding subspec entries into their root's document, and serves them from
// a real in-memory source behind a real aggregate.
func mksources(ds []depspec) *source.Aggregate {
	// Roots before subspecs, shallow before deep, so parents exist when
	// their children attach.
	sorted := append([]depspec(nil), ds...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return strings.Count(sorted[i].name, "/") < strings.Count(sorted[j].name, "/")
	})

	key := func(name string, v pod.Version) string { return name + "\x00" + v.String() }
	built := make(map[string]*pod.Specification)

	in := source.NewInMemory("fixture")
	for _, d := range sorted {
		spec := &pod.Specification{
			Name:         d.name,
			Version:      d.v,
			Dependencies: d.deps,
			Platforms:    d.platforms,
		}
		built[key(d.name, d.v)] = spec
		if i := strings.LastIndex(d.name, "/"); i >= 0 {
			parent := built[key(d.name[:i], d.v)]
			if parent == nil {
				panic(fmt.Sprintf("fixture: subspec %s %s has no parent entry", d.name, d.v))
			}
			parent.Subspecs = append(parent.Subspecs, spec)
			continue
		}
		if err := in.Add(spec); err != nil {
			panic(err)
		}
	}
	return source.NewAggregate(in)
}

// mklock builds a lock list from "Name version" pairs.
func mklock(pairs ...string) []LockedDependency {
	var l []LockedDependency
	for _, s := range pairs {
		name, ver := nvsplit(s)
		l = append(l, LockedDependency{Name: name, Version: mkversion(ver)})
	}
	return l
}

// mksolution builds the expected name -> version map from "Name version"
// pairs.
func mksolution(pairs ...string) map[string]string {
	m := make(map[string]string, len(pairs))
	for _, s := range pairs {
		name, ver := nvsplit(s)
		m[name] = mkversion(ver).String()
	}
	return m
}

// fakeSandbox is a test double for the sandbox collaborator.
type fakeSandbox struct {
	pins  map[string]*pod.Specification
	heads []string
}

func (f *fakeSandbox) PinnedSpecification(root string) *pod.Specification {
	return f.pins[root]
}

func (f *fakeSandbox) RecordHeadUsage(root string) {
	f.heads = append(f.heads, root)
}

// wantFail describes the error a fixture expects; the zero value expects
// success.
type wantFail struct {
	// kind is one of "nospec", "conflict", "budget", "platform", "invalid".
	kind string
	// names qualifies the kind: implicated pod names for conflict, the
	// missing pod for nospec, target then pod for platform, a message
	// substring for invalid.
	names []string
}

type fixTarget struct {
	name     string
	platform string // mkplatform grammar; "" disables the gate
	deps     []string
}

// A basicFixture is a declarative solver test case covering the version
// search, locks, subspecs, externals, platforms and failure reporting.
type basicFixture struct {
	// requirements declared by the Podfile, in mkreq grammar
	reqs []string
	// the specification universe, roots and subspecs
	ds []depspec
	// lock entries, if any
	l []string
	// targets; nil means the implicit default target
	targets []fixTarget
	// sandbox pins as root depspecs; presence enables the fake sandbox
	pins []depspec
	// expected solution across all targets; name -> version
	r map[string]string
	// expected per-target solutions, when targets matter
	rt map[string]map[string]string
	// expected head recordings, in order (enables the fake sandbox)
	heads []string
	// max attempts the solver should need. 0 means no limit
	maxAttempts int
	// attempt budget to impose via Params. 0 means none
	budget int
	// expected failure, if any
	fail wantFail
}

var basicFixtures = map[string]basicFixture{
	// basic resolution
	"no dependencies": {
		r: mksolution(),
	},
	"simple dependency tree": {
		reqs: []string{"A", "B"},
		ds: []depspec{
			mkdepspec("A 1.0", "AA 1.0", "AB 1.0"),
			mkdepspec("AA 1.0"),
			mkdepspec("AB 1.0"),
			mkdepspec("B 1.0", "BA 1.0", "BB 1.0"),
			mkdepspec("BA 1.0"),
			mkdepspec("BB 1.0"),
		},
		r: mksolution(
			"A 1.0",
			"AA 1.0",
			"AB 1.0",
			"B 1.0",
			"BA 1.0",
			"BB 1.0",
		),
		maxAttempts: 6,
	},
	"newest version within range": {
		reqs: []string{"A >= 1.0, < 2.0"},
		ds: []depspec{
			mkdepspec("A 1.0"),
			mkdepspec("A 1.5"),
			mkdepspec("A 2.0"),
		},
		r:           mksolution("A 1.5"),
		maxAttempts: 1,
	},
	"shared dependency with overlapping constraints": {
		reqs: []string{"A", "B"},
		ds: []depspec{
			mkdepspec("A 1.0", "Shared >= 2.0, < 4.0"),
			mkdepspec("B 1.0", "Shared >= 3.0, < 5.0"),
			mkdepspec("Shared 2.0"),
			mkdepspec("Shared 3.0"),
			mkdepspec("Shared 3.6.9"),
			mkdepspec("Shared 4.0"),
			mkdepspec("Shared 5.0"),
		},
		r: mksolution(
			"A 1.0",
			"B 1.0",
			"Shared 3.6.9",
		),
		maxAttempts: 3,
	},
	"conflicting requirements fail": {
		reqs: []string{"A >= 2.0", "B"},
		ds: []depspec{
			mkdepspec("A 1.0"),
			mkdepspec("A 2.0"),
			mkdepspec("B 1.0", "A < 2.0"),
		},
		fail: wantFail{kind: "conflict", names: []string{"A"}},
	},

	// locks
	"lock pins to older version": {
		reqs: []string{"A >= 1.0"},
		ds: []depspec{
			mkdepspec("A 1.0"),
			mkdepspec("A 1.1"),
		},
		l: []string{"A 1.0"},
		r: mksolution("A 1.0"),
	},
	"locked dependencies expand when referenced": {
		reqs: []string{"A"},
		ds: []depspec{
			mkdepspec("A 1.0", "B >= 1.0"),
			mkdepspec("B 1.0"),
			mkdepspec("B 1.5"),
		},
		l: []string{"A 1.0", "B 1.0"},
		r: mksolution("A 1.0", "B 1.0"),
	},
	"unreferenced lock entries stay inert": {
		reqs: []string{"A"},
		ds: []depspec{
			mkdepspec("A 1.0"),
			// Z's dependency is deliberately absent from the universe; if
			// the stale lock entry were expanded the solve would fail.
			mkdepspec("Z 1.0", "Q >= 1.0"),
		},
		l: []string{"Z 1.0"},
		r: mksolution("A 1.0"),
	},
	"stale lock falls back to search": {
		reqs: []string{"A >= 1.0"},
		ds: []depspec{
			mkdepspec("A 1.0"),
		},
		l: []string{"A 9.9"},
		r: mksolution("A 1.0"),
	},
	"lock conflicting with requirements fails": {
		reqs: []string{"A >= 2.0"},
		ds: []depspec{
			mkdepspec("A 1.0"),
			mkdepspec("A 2.0"),
		},
		l:    []string{"A 1.0"},
		fail: wantFail{kind: "conflict", names: []string{"A"}},
	},

	// subspecs
	"subspec selects only versions that define it": {
		reqs: []string{"A/Sub"},
		ds: []depspec{
			mkdepspec("A 1.0"),
			mkdepspec("A 1.1"),
			mkdepspec("A/Sub 1.1", "C >= 1.0"),
			mkdepspec("C 1.0"),
		},
		r:           mksolution("A/Sub 1.1", "C 1.0"),
		maxAttempts: 2,
	},
	"subspec and root stay on one version": {
		reqs: []string{"A < 1.1", "A/Sub"},
		ds: []depspec{
			mkdepspec("A 1.0"),
			mkdepspec("A/Sub 1.0"),
			mkdepspec("A 1.1"),
			mkdepspec("A/Sub 1.1"),
		},
		r:           mksolution("A 1.0", "A/Sub 1.0"),
		maxAttempts: 3,
	},
	"subspec steers the root version": {
		reqs: []string{"A", "A/Sub"},
		ds: []depspec{
			mkdepspec("A 1.0"),
			mkdepspec("A/Sub 1.0"),
			mkdepspec("A 1.1"),
		},
		r:           mksolution("A 1.0", "A/Sub 1.0"),
		maxAttempts: 2,
	},
	"conflicting subspec requirement backtracks the root": {
		reqs: []string{"A"},
		ds: []depspec{
			mkdepspec("A 1.1", "B 1.0"),
			mkdepspec("A 1.0", "B 1.0"),
			mkdepspec("A/Sub 1.0"),
			mkdepspec("B 1.0", "A/Sub"),
		},
		r:           mksolution("A 1.0", "A/Sub 1.0", "B 1.0"),
		maxAttempts: 5,
	},
	"subspec absent from every version": {
		reqs: []string{"A/Sub"},
		ds: []depspec{
			mkdepspec("A 1.0"),
			mkdepspec("A 1.1"),
		},
		fail: wantFail{kind: "conflict", names: []string{"A"}},
	},

	// missing specifications
	"missing pod fails fast": {
		reqs: []string{"A", "Z"},
		ds: []depspec{
			mkdepspec("A 1.0"),
		},
		fail: wantFail{kind: "nospec", names: []string{"Z"}},
	},
	"missing transitive pod is not retried": {
		reqs: []string{"A"},
		ds: []depspec{
			// 0.9 has no dependencies and would satisfy the requirement,
			// but an unknown pod aborts the run rather than backtrack.
			mkdepspec("A 1.0", "Z >= 1.0"),
			mkdepspec("A 0.9"),
		},
		fail: wantFail{kind: "nospec", names: []string{"Z"}},
	},

	// prereleases
	"prerelease versions need an opt-in": {
		reqs: []string{"A"},
		ds: []depspec{
			mkdepspec("A 1.0-beta"),
		},
		fail: wantFail{kind: "nospec", names: []string{"A"}},
	},
	"prerelease opt-in by flag": {
		reqs: []string{"A pre"},
		ds: []depspec{
			mkdepspec("A 1.0"),
			mkdepspec("A 1.1-beta"),
		},
		r: mksolution("A 1.1-beta"),
	},
	"prerelease opt-in by constraint": {
		reqs: []string{"A >= 1.0-a"},
		ds: []depspec{
			mkdepspec("A 1.0-beta"),
		},
		r: mksolution("A 1.0-beta"),
	},
	"prerelease filter applies before constraints": {
		reqs: []string{"A > 0.5"},
		ds: []depspec{
			// The gate leaves 0.4 standing, so this is an ordinary dead
			// end rather than a missing specification.
			mkdepspec("A 1.0-beta"),
			mkdepspec("A 0.4"),
		},
		fail: wantFail{kind: "conflict", names: []string{"A"}},
	},

	// platforms
	"platform incompatible specification fails": {
		reqs: []string{"A"},
		ds: []depspec{
			mkdepspec("A 1.0", "platform ios"),
		},
		targets: []fixTarget{
			{name: "App", platform: "osx", deps: []string{"A"}},
		},
		fail: wantFail{kind: "platform", names: []string{"App", "A"}},
	},
	"deployment target too low fails": {
		reqs: []string{"A"},
		ds: []depspec{
			mkdepspec("A 1.0", "platform ios 9.0"),
		},
		targets: []fixTarget{
			{name: "App", platform: "ios 8.0", deps: []string{"A"}},
		},
		fail: wantFail{kind: "platform", names: []string{"App", "A"}},
	},
	"deployment target gate passes": {
		reqs: []string{"A"},
		ds: []depspec{
			mkdepspec("A 1.0", "platform ios 9.0"),
		},
		targets: []fixTarget{
			{name: "App", platform: "ios 10.0", deps: []string{"A"}},
		},
		r: mksolution("A 1.0"),
		rt: map[string]map[string]string{
			"App": mksolution("A 1.0"),
		},
	},
	"multiple targets project separately": {
		reqs: []string{"A", "B"},
		ds: []depspec{
			mkdepspec("A 1.0", "C 1.0"),
			mkdepspec("B 1.0"),
			mkdepspec("C 1.0"),
		},
		targets: []fixTarget{
			{name: "App", deps: []string{"A"}},
			{name: "Extension", deps: []string{"B"}},
		},
		r: mksolution("A 1.0", "B 1.0", "C 1.0"),
		rt: map[string]map[string]string{
			"App":       mksolution("A 1.0", "C 1.0"),
			"Extension": mksolution("B 1.0"),
		},
	},

	// head versions
	"head requirement records usage": {
		reqs: []string{"A head"},
		ds: []depspec{
			mkdepspec("A 1.0", "B 1.0"),
			mkdepspec("B 1.0"),
		},
		heads: []string{"A"},
		r:     mksolution("A HEAD based on 1.0", "B 1.0"),
	},
	"head solve without a sandbox": {
		reqs: []string{"A head"},
		ds: []depspec{
			mkdepspec("A 1.0"),
		},
		r: mksolution("A HEAD based on 1.0"),
	},
	"locked head version stays head": {
		reqs: []string{"A"},
		ds: []depspec{
			mkdepspec("A 1.0"),
		},
		l:     []string{"A HEAD based on 1.0"},
		heads: []string{"A"},
		r:     mksolution("A HEAD based on 1.0"),
	},

	// external sources
	"external pin overrides the sources": {
		reqs: []string{"A from git https://example.com/a.git"},
		ds: []depspec{
			mkdepspec("A 1.0"),
			mkdepspec("A 2.0"),
			mkdepspec("B 1.0"),
		},
		pins: []depspec{
			mkdepspec("A 0.9", "B 1.0"),
		},
		r: mksolution("A 0.9", "B 1.0"),
	},
	"external pin missing from the sandbox fails": {
		reqs: []string{"A from git https://example.com/a.git"},
		ds: []depspec{
			mkdepspec("A 1.0"),
		},
		// The unrelated pin keeps the sandbox alive without covering A.
		pins: []depspec{mkdepspec("Unrelated 1.0")},
		fail: wantFail{kind: "invalid", names: []string{"sandbox"}},
	},
	"external pin constrains sibling requirements": {
		reqs: []string{"A from path ../Local/A", "B"},
		ds: []depspec{
			mkdepspec("A 1.0"),
			mkdepspec("A 2.0"),
			mkdepspec("B 1.0", "A >= 1.0"),
		},
		pins: []depspec{
			mkdepspec("A 1.5"),
		},
		r: mksolution("A 1.5", "B 1.0"),
	},
	"external pin failing a sibling constraint conflicts": {
		reqs: []string{"A from path ../Local/A", "B"},
		ds: []depspec{
			mkdepspec("B 1.0", "A >= 2.0"),
		},
		pins: []depspec{
			mkdepspec("A 1.0"),
		},
		fail: wantFail{kind: "conflict", names: []string{"A"}},
	},

	// cycles
	"dependency cycles conflict": {
		reqs: []string{"A"},
		ds: []depspec{
			mkdepspec("A 1.0", "B 1.0"),
			mkdepspec("B 1.0", "A 1.0"),
		},
		fail: wantFail{kind: "conflict", names: []string{"A"}},
	},
	"cycle broken by older version": {
		reqs: []string{"A"},
		ds: []depspec{
			mkdepspec("A 1.0", "B >= 1.0"),
			mkdepspec("B 2.0", "A >= 1.0"),
			mkdepspec("B 1.0"),
		},
		r:           mksolution("A 1.0", "B 1.0"),
		maxAttempts: 3,
	},

	// budget
	"attempt budget stops the search": {
		reqs: []string{"A >= 2.0", "B"},
		ds: []depspec{
			mkdepspec("A 1.0"),
			mkdepspec("A 2.0"),
			mkdepspec("A 3.0"),
			mkdepspec("B 1.0", "A < 2.0"),
		},
		budget: 1,
		fail:   wantFail{kind: "budget"},
	},
}
