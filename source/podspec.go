// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package source

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"

	"github.com/sinnerschrader-mobile/CocoaPods/pod"
)

// rawPodspec mirrors the stored document structure for (de)serialization.
// Subspec nodes carry bare basenames and no version of their own; the full
// slash-joined names and the shared root version are reconstructed on parse.
type rawPodspec struct {
	Name         string            `yaml:"name"`
	Version      string            `yaml:"version,omitempty"`
	Platforms    map[string]string `yaml:"platforms,omitempty"`
	Dependencies map[string]string `yaml:"dependencies,omitempty"`
	Subspecs     []*rawPodspec     `yaml:"subspecs,omitempty"`
}

// ParsePodspec decodes one podspec document into a root specification.
func ParsePodspec(data []byte) (*pod.Specification, error) {
	raw := new(rawPodspec)
	if err := yaml.Unmarshal(data, raw); err != nil {
		return nil, errors.Wrap(err, "malformed podspec")
	}
	if raw.Name == "" {
		return nil, errors.New("podspec has no name")
	}
	if strings.Contains(raw.Name, "/") {
		return nil, errors.Errorf("podspec name %q must be a root name", raw.Name)
	}
	v, err := pod.NewVersion(raw.Version)
	if err != nil {
		return nil, errors.Wrapf(err, "podspec %s", raw.Name)
	}
	return specFromRaw(raw, raw.Name, v, nil)
}

func specFromRaw(raw *rawPodspec, fullName string, v pod.Version, inherited []pod.Platform) (*pod.Specification, error) {
	spec := &pod.Specification{
		Name:      fullName,
		Version:   v,
		Platforms: inherited,
	}

	// Map iteration order is not stable; sort so that dependency and
	// platform order is a function of the document alone.
	for _, name := range sortedKeys(raw.Dependencies) {
		req, err := pod.NewRequirement(name, raw.Dependencies[name])
		if err != nil {
			return nil, errors.Wrapf(err, "podspec %s", fullName)
		}
		spec.Dependencies = append(spec.Dependencies, req)
	}

	if len(raw.Platforms) > 0 {
		spec.Platforms = nil
		for _, name := range sortedKeys(raw.Platforms) {
			p := pod.NewPlatform(name)
			if target := raw.Platforms[name]; target != "" {
				dt, err := pod.NewVersion(target)
				if err != nil {
					return nil, errors.Wrapf(err, "podspec %s, platform %s", fullName, name)
				}
				p.DeploymentTarget = dt
			}
			spec.Platforms = append(spec.Platforms, p)
		}
	}

	for _, sub := range raw.Subspecs {
		if sub.Name == "" || strings.Contains(sub.Name, "/") {
			return nil, errors.Errorf("podspec %s: subspec name %q must be a bare basename", fullName, sub.Name)
		}
		if sub.Version != "" {
			return nil, errors.Errorf("podspec %s: subspec %s must not declare its own version", fullName, sub.Name)
		}
		child, err := specFromRaw(sub, fullName+"/"+sub.Name, v, spec.Platforms)
		if err != nil {
			return nil, err
		}
		spec.Subspecs = append(spec.Subspecs, child)
	}
	return spec, nil
}

// MarshalPodspec encodes a root specification as a podspec document.
func MarshalPodspec(spec *pod.Specification) ([]byte, error) {
	if spec.IsSubspec() {
		return nil, errors.Errorf("cannot store subspec %s as a standalone podspec", spec.Name)
	}
	data, err := yaml.Marshal(rawFromSpec(spec, true))
	if err != nil {
		return nil, errors.Wrapf(err, "podspec %s", spec.Name)
	}
	return data, nil
}

func rawFromSpec(spec *pod.Specification, root bool) *rawPodspec {
	raw := &rawPodspec{Name: basename(spec.Name)}
	if root {
		raw.Version = spec.Version.String()
	}
	for _, dep := range spec.Dependencies {
		if raw.Dependencies == nil {
			raw.Dependencies = make(map[string]string, len(spec.Dependencies))
		}
		var c string
		if !dep.Constraint.Any() {
			c = dep.Constraint.String()
		}
		raw.Dependencies[dep.Name] = c
	}
	for _, p := range spec.Platforms {
		if raw.Platforms == nil {
			raw.Platforms = make(map[string]string, len(spec.Platforms))
		}
		var target string
		if !p.DeploymentTarget.IsZero() {
			target = p.DeploymentTarget.String()
		}
		raw.Platforms[p.Name] = target
	}
	for _, sub := range spec.Subspecs {
		raw.Subspecs = append(raw.Subspecs, rawFromSpec(sub, false))
	}
	return raw
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func basename(name string) string {
	if i := strings.LastIndex(name, "/"); i >= 0 {
		return name[i+1:]
	}
	return name
}
