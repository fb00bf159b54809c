// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sandbox manages the local project state that survives between
// resolutions: the specifications of externally sourced pods, already
// fetched and pinned to one version, and the registry of pods whose
// bleeding edge is in use. It backs the resolver's sandbox collaborator.
//
// On disk a sandbox is a directory:
//
//	sandbox.yaml                     head-pods registry
//	Local Podspecs/<Root>.podspec.yaml   one document per pinned pod
package sandbox

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"

	"github.com/sinnerschrader-mobile/CocoaPods/pod"
	"github.com/sinnerschrader-mobile/CocoaPods/source"
)

const (
	stateFile   = "sandbox.yaml"
	podspecsDir = "Local Podspecs"
	podspecExt  = ".podspec.yaml"
)

// state is the sandbox.yaml wire shape.
type state struct {
	HeadPods []string `yaml:"head_pods,omitempty"`
}

// A Sandbox holds pinned specifications and head usage for one project.
// It is not safe for concurrent use.
type Sandbox struct {
	root string

	pins  map[string]*pod.Specification
	heads map[string]bool
}

// New returns an empty sandbox rooted at dir, without touching the disk.
func New(dir string) *Sandbox {
	return &Sandbox{
		root:  dir,
		pins:  make(map[string]*pod.Specification),
		heads: make(map[string]bool),
	}
}

// Load reads the sandbox rooted at dir. A missing directory or state file
// yields an empty sandbox; a present but unreadable one is an error.
func Load(dir string) (*Sandbox, error) {
	s := New(dir)

	data, err := os.ReadFile(filepath.Join(dir, stateFile))
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, errors.Wrap(err, "reading sandbox state")
	default:
		var st state
		if err := yaml.Unmarshal(data, &st); err != nil {
			return nil, errors.Wrap(err, "unmarshaling sandbox state")
		}
		for _, name := range st.HeadPods {
			s.heads[name] = true
		}
	}

	paths, err := filepath.Glob(filepath.Join(dir, podspecsDir, "*"+podspecExt))
	if err != nil {
		return nil, errors.Wrap(err, "listing pinned podspecs")
	}
	sort.Strings(paths)
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s", path)
		}
		spec, err := source.ParsePodspec(data)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing %s", path)
		}
		if _, ok := s.pins[spec.Name]; ok {
			return nil, errors.Errorf("sandbox pins `%s` twice", spec.Name)
		}
		s.pins[spec.Name] = spec
	}
	return s, nil
}

// Save writes the state file and every pinned specification, replacing the
// state file atomically.
func (s *Sandbox) Save() error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return errors.Wrap(err, "creating sandbox directory")
	}

	data, err := yaml.Marshal(state{HeadPods: s.HeadPods()})
	if err != nil {
		return errors.Wrap(err, "marshaling sandbox state")
	}
	if err := writeFileAtomic(filepath.Join(s.root, stateFile), data); err != nil {
		return err
	}

	if len(s.pins) == 0 {
		return nil
	}
	dir := filepath.Join(s.root, podspecsDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "creating podspecs directory")
	}
	for _, spec := range s.pins {
		doc, err := source.MarshalPodspec(spec)
		if err != nil {
			return errors.Wrapf(err, "marshaling pinned %s", spec.Name)
		}
		if err := writeFileAtomic(filepath.Join(dir, spec.Name+podspecExt), doc); err != nil {
			return err
		}
	}
	return nil
}

// StorePinnedSpecification pins the materialized specification of an
// externally sourced pod. Only root specifications can be pinned; storing
// a root again replaces its previous pin.
func (s *Sandbox) StorePinnedSpecification(spec *pod.Specification) error {
	if spec == nil {
		return errors.New("cannot pin a nil specification")
	}
	if spec.IsSubspec() {
		return errors.Errorf("cannot pin subspec `%s`; pin its root", spec.Name)
	}
	if strings.ContainsAny(spec.Name, `/\`) {
		return errors.Errorf("pod name %q cannot name a podspec file", spec.Name)
	}
	s.pins[spec.Name] = spec
	return nil
}

// PinnedSpecification returns the pinned specification for root, or nil.
func (s *Sandbox) PinnedSpecification(root string) *pod.Specification {
	return s.pins[root]
}

// PinnedPods returns the pinned root names, sorted.
func (s *Sandbox) PinnedPods() []string {
	names := make([]string, 0, len(s.pins))
	for name := range s.pins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RecordHeadUsage notes that root resolved to a head version.
func (s *Sandbox) RecordHeadUsage(root string) {
	s.heads[root] = true
}

// ResetHeadUsage clears the head registry. Callers do this before a fresh
// resolution so the registry reflects only the latest run.
func (s *Sandbox) ResetHeadUsage() {
	s.heads = make(map[string]bool)
}

// HeadPods returns the roots recorded as head-based, sorted.
func (s *Sandbox) HeadPods() []string {
	names := make([]string, 0, len(s.heads))
	for name := range s.heads {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".sandbox-")
	if err != nil {
		return errors.Wrap(err, "creating temporary file")
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
