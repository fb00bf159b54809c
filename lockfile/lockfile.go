// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package lockfile reads and writes Podfile.lock, the YAML record of a
// completed resolution. The lock carries the resolved specifications with
// their sub-dependency requirements (PODS), the requirements as the
// manifest declared them (DEPENDENCIES), a checksum of the manifest that
// produced it (PODFILE CHECKSUM), and the version of the tool that wrote
// it (COCOAPODS).
package lockfile

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Masterminds/semver"
	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"

	"github.com/sinnerschrader-mobile/CocoaPods/pod"
	"github.com/sinnerschrader-mobile/CocoaPods/resolve"
)

// A Pod is one resolved entry of the PODS section: a pod (root or subspec)
// at the version the resolution chose, with its direct dependencies
// rendered as requirement strings.
type Pod struct {
	Name         string
	Version      pod.Version
	Dependencies []string
}

// A Lockfile is a parsed or assembled Podfile.lock.
type Lockfile struct {
	// Pods are the resolved specifications, name-ordered.
	Pods []Pod

	// Dependencies are the declared requirements exactly as the lock
	// renders them, sorted.
	Dependencies []string

	// PodfileChecksum is the hex SHA-256 of the manifest this lock was
	// generated from. Empty in locks that predate checksumming.
	PodfileChecksum string

	// ToolVersion is recorded under the COCOAPODS key.
	ToolVersion string
}

// rawLockfile is the YAML wire shape. Reading order does not matter;
// writing goes through an ordered document instead.
type rawLockfile struct {
	Pods         []interface{} `yaml:"PODS"`
	Dependencies []string      `yaml:"DEPENDENCIES"`
	Checksum     string        `yaml:"PODFILE CHECKSUM"`
	Tool         string        `yaml:"COCOAPODS"`
}

// Parse decodes a Podfile.lock document.
func Parse(data []byte) (*Lockfile, error) {
	var raw rawLockfile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "unmarshaling lockfile")
	}

	l := &Lockfile{
		Dependencies:    raw.Dependencies,
		PodfileChecksum: raw.Checksum,
		ToolVersion:     raw.Tool,
	}
	for _, node := range raw.Pods {
		switch entry := node.(type) {
		case string:
			p, err := parsePodEntry(entry, nil)
			if err != nil {
				return nil, err
			}
			l.Pods = append(l.Pods, p)
		case map[interface{}]interface{}:
			if len(entry) != 1 {
				return nil, errors.Errorf("PODS entry with %d keys, expected 1", len(entry))
			}
			for k, v := range entry {
				key, ok := k.(string)
				if !ok {
					return nil, errors.Errorf("PODS entry key %v is not a string", k)
				}
				deps, err := stringList(v)
				if err != nil {
					return nil, errors.Wrapf(err, "PODS entry %q", key)
				}
				p, err := parsePodEntry(key, deps)
				if err != nil {
					return nil, err
				}
				l.Pods = append(l.Pods, p)
			}
		default:
			return nil, errors.Errorf("PODS entry %v is neither a string nor a map", node)
		}
	}
	return l, nil
}

// parsePodEntry splits a "Name (version)" PODS key.
func parsePodEntry(s string, deps []string) (Pod, error) {
	open := strings.IndexByte(s, '(')
	if open < 2 || !strings.HasSuffix(s, ")") || s[open-1] != ' ' {
		return Pod{}, errors.Errorf("malformed PODS entry %q", s)
	}
	v, err := pod.NewVersion(s[open+1 : len(s)-1])
	if err != nil {
		return Pod{}, errors.Wrapf(err, "PODS entry %q", s)
	}
	return Pod{Name: s[:open-1], Version: v, Dependencies: deps}, nil
}

func stringList(v interface{}) ([]string, error) {
	if v == nil {
		return nil, nil
	}
	items, ok := v.([]interface{})
	if !ok {
		return nil, errors.Errorf("dependency list %v is not a sequence", v)
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, errors.Errorf("dependency %v is not a string", item)
		}
		out = append(out, s)
	}
	return out, nil
}

// Marshal renders the lock as YAML with its sections in conventional
// order.
func (l *Lockfile) Marshal() ([]byte, error) {
	pods := make([]interface{}, 0, len(l.Pods))
	for _, p := range l.Pods {
		entry := p.Name + " (" + p.Version.String() + ")"
		if len(p.Dependencies) == 0 {
			pods = append(pods, entry)
			continue
		}
		pods = append(pods, yaml.MapSlice{{Key: entry, Value: p.Dependencies}})
	}

	doc := yaml.MapSlice{
		{Key: "PODS", Value: pods},
		{Key: "DEPENDENCIES", Value: l.Dependencies},
	}
	if l.PodfileChecksum != "" {
		doc = append(doc, yaml.MapItem{Key: "PODFILE CHECKSUM", Value: l.PodfileChecksum})
	}
	doc = append(doc, yaml.MapItem{Key: "COCOAPODS", Value: l.ToolVersion})

	data, err := yaml.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, "marshaling lockfile")
	}
	return data, nil
}

// Load reads and parses the lock at path.
func Load(path string) (*Lockfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	l, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	return l, nil
}

// Save writes the lock to path, replacing it atomically.
func (l *Lockfile) Save(path string) error {
	data, err := l.Marshal()
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".podfile-lock-")
	if err != nil {
		return errors.Wrap(err, "creating temporary lockfile")
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "writing %s", tmp.Name())
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "closing %s", tmp.Name())
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "replacing %s", path)
	}
	return nil
}

// FromResolution assembles the lock a completed resolution should persist:
// every resolved specification with its rendered dependencies, plus the
// declared requirements, both sorted.
func FromResolution(res *resolve.Resolution, declared []pod.Requirement, podfileChecksum, toolVersion string) *Lockfile {
	l := &Lockfile{
		PodfileChecksum: podfileChecksum,
		ToolVersion:     toolVersion,
	}
	for _, spec := range res.All() {
		p := Pod{Name: spec.Name, Version: spec.Version}
		for _, dep := range spec.Dependencies {
			p.Dependencies = append(p.Dependencies, RenderRequirement(dep))
		}
		sort.Strings(p.Dependencies)
		l.Pods = append(l.Pods, p)
	}

	deps := make([]string, 0, len(declared))
	for _, req := range declared {
		deps = append(deps, RenderRequirement(req))
	}
	sort.Strings(deps)
	l.Dependencies = deps
	return l
}

// RenderRequirement renders a requirement the way lock sections list them:
// a bare name for an unconstrained requirement, "Name (constraint)",
// "Name (HEAD)", or "Name (from `ref`)". External and head markers
// supersede the constraint, mirroring how the requirement was satisfied.
func RenderRequirement(req pod.Requirement) string {
	switch {
	case req.External != nil:
		return req.Name + " (" + req.External.String() + ")"
	case req.Head:
		return req.Name + " (HEAD)"
	case req.Constraint.Any():
		return req.Name
	default:
		return req.Name + " (" + req.Constraint.String() + ")"
	}
}

// LockedDependencies collapses the PODS section into the per-root version
// pins the next resolution seeds from. Subspec entries fold into their
// root; a lock whose family entries disagree on a version is rejected.
func (l *Lockfile) LockedDependencies() ([]resolve.LockedDependency, error) {
	idx := make(map[string]int)
	var pins []resolve.LockedDependency
	for _, p := range l.Pods {
		root := pod.RootName(p.Name)
		if i, ok := idx[root]; ok {
			if !pins[i].Version.Equal(p.Version) {
				return nil, errors.Errorf("lockfile pins `%s` to both %s and %s", root, pins[i].Version, p.Version)
			}
			// Any head entry marks the whole family as head.
			if p.Version.Head() && !pins[i].Version.Head() {
				pins[i].Version = p.Version
			}
			continue
		}
		idx[root] = len(pins)
		pins = append(pins, resolve.LockedDependency{Name: root, Version: p.Version})
	}
	return pins, nil
}

// CompatibleWith reports whether a lock written by ToolVersion may be used
// by a tool at version running: locks from a different major version or
// from a newer tool are rejected. Locks without a version stamp pass.
func (l *Lockfile) CompatibleWith(running string) error {
	if l.ToolVersion == "" {
		return nil
	}
	wrote, err := semver.NewVersion(l.ToolVersion)
	if err != nil {
		return errors.Wrapf(err, "lockfile COCOAPODS stamp %q", l.ToolVersion)
	}
	run, err := semver.NewVersion(running)
	if err != nil {
		return errors.Wrapf(err, "tool version %q", running)
	}
	if wrote.Major() != run.Major() {
		return errors.Errorf("Podfile.lock was written by version %s, which is incompatible with %s", l.ToolVersion, running)
	}
	if wrote.GreaterThan(run) {
		return errors.Errorf("Podfile.lock was written by the newer version %s; update this tool (%s) before using it", l.ToolVersion, running)
	}
	return nil
}
