// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cocoapods

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"strings"

	toml "github.com/pelletier/go-toml"
	"github.com/pkg/errors"

	"github.com/sinnerschrader-mobile/CocoaPods/pod"
	"github.com/sinnerschrader-mobile/CocoaPods/resolve"
)

// A Podfile is the parsed project manifest: the targets to integrate and
// the pod requirements each declares.
//
// The manifest is TOML:
//
//	[[target]]
//	name = "App"
//	platform = "ios"
//	deployment_target = "9.0"
//
//	  [[target.dependency]]
//	  name = "Alamofire"
//	  requirement = ">= 4.0, < 5.0"
//
//	  [[target.dependency]]
//	  name = "SwiftyJSON"
//	  git = "https://github.com/SwiftyJSON/SwiftyJSON.git"
type Podfile struct {
	Targets []PodfileTarget

	checksum string
}

// A PodfileTarget is one declared integration target.
type PodfileTarget struct {
	Name string

	// Platform the target builds for. The zero value leaves the
	// resolution's platform gate off for this target.
	Platform pod.Platform

	Dependencies []pod.Requirement
}

type rawPodfile struct {
	Targets []rawTarget `toml:"target"`
}

type rawTarget struct {
	Name             string          `toml:"name"`
	Platform         string          `toml:"platform"`
	DeploymentTarget string          `toml:"deployment_target"`
	Dependencies     []rawDependency `toml:"dependency"`
}

type rawDependency struct {
	Name        string `toml:"name"`
	Requirement string `toml:"requirement"`
	Prerelease  bool   `toml:"prerelease"`
	Head        bool   `toml:"head"`
	Git         string `toml:"git"`
	Path        string `toml:"path"`
	Podspec     string `toml:"podspec"`
}

// ParsePodfile decodes and validates a manifest. The raw bytes are
// checksummed so the emitted lockfile can notice manifest edits.
func ParsePodfile(data []byte) (*Podfile, error) {
	var raw rawPodfile
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "malformed Podfile")
	}

	sum := sha256.Sum256(data)
	p := &Podfile{checksum: hex.EncodeToString(sum[:])}

	seen := make(map[string]bool, len(raw.Targets))
	for _, rt := range raw.Targets {
		if rt.Name == "" {
			return nil, errors.New("target without a name")
		}
		if seen[rt.Name] {
			return nil, errors.Errorf("duplicate target %q", rt.Name)
		}
		seen[rt.Name] = true

		t, err := targetFromRaw(rt)
		if err != nil {
			return nil, errors.Wrapf(err, "target %q", rt.Name)
		}
		p.Targets = append(p.Targets, t)
	}
	return p, nil
}

// LoadPodfile reads and parses the manifest at path.
func LoadPodfile(path string) (*Podfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	p, err := ParsePodfile(data)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	return p, nil
}

func targetFromRaw(rt rawTarget) (PodfileTarget, error) {
	t := PodfileTarget{Name: rt.Name}

	if rt.Platform != "" {
		switch rt.Platform {
		case pod.PlatformIOS, pod.PlatformOSX, pod.PlatformTVOS, pod.PlatformWatchOS:
		default:
			return t, errors.Errorf("unknown platform %q", rt.Platform)
		}
		t.Platform = pod.NewPlatform(rt.Platform)
		if rt.DeploymentTarget != "" {
			dt, err := pod.NewVersion(rt.DeploymentTarget)
			if err != nil {
				return t, errors.Wrap(err, "deployment target")
			}
			t.Platform.DeploymentTarget = dt
		}
	} else if rt.DeploymentTarget != "" {
		return t, errors.New("deployment_target given without a platform")
	}

	names := make(map[string]bool, len(rt.Dependencies))
	for _, rd := range rt.Dependencies {
		req, err := dependencyFromRaw(rd)
		if err != nil {
			return t, err
		}
		if names[req.Name] {
			return t, errors.Errorf("duplicate dependency %q", req.Name)
		}
		names[req.Name] = true
		t.Dependencies = append(t.Dependencies, req)
	}
	return t, nil
}

func dependencyFromRaw(rd rawDependency) (pod.Requirement, error) {
	if rd.Name == "" {
		return pod.Requirement{}, errors.New("dependency without a name")
	}
	if strings.ContainsAny(rd.Name, " \t") {
		return pod.Requirement{}, errors.Errorf("dependency name %q contains spaces", rd.Name)
	}

	req, err := pod.NewRequirement(rd.Name, rd.Requirement)
	if err != nil {
		return pod.Requirement{}, errors.Wrapf(err, "dependency %q", rd.Name)
	}
	if rd.Prerelease {
		req.Prerelease = true
	}
	req.Head = rd.Head

	var ext *pod.ExternalSource
	for _, c := range []struct{ kind, ref string }{
		{"git", rd.Git},
		{"path", rd.Path},
		{"podspec", rd.Podspec},
	} {
		if c.ref == "" {
			continue
		}
		if ext != nil {
			return pod.Requirement{}, errors.Errorf("dependency %q declares multiple external sources", rd.Name)
		}
		ext = &pod.ExternalSource{Kind: c.kind, Ref: c.ref}
	}
	if ext != nil {
		if rd.Head {
			return pod.Requirement{}, errors.Errorf("dependency %q cannot be both head and externally sourced", rd.Name)
		}
		req.External = ext
	}
	return req, nil
}

// Checksum returns the hex SHA-256 of the manifest bytes this Podfile was
// parsed from.
func (p *Podfile) Checksum() string {
	return p.checksum
}

// Requirements flattens the per-target dependencies into the requirement
// list a resolution takes, removing exact duplicates while keeping the
// first occurrence's position.
func (p *Podfile) Requirements() []pod.Requirement {
	seen := make(map[string]bool)
	var reqs []pod.Requirement
	for _, t := range p.Targets {
		for _, req := range t.Dependencies {
			key := req.String()
			if req.Prerelease {
				key += "\x00pre"
			}
			if req.Head {
				key += "\x00head"
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			reqs = append(reqs, req)
		}
	}
	return reqs
}

// ResolverTargets renders the manifest's targets in the resolution's
// shape.
func (p *Podfile) ResolverTargets() []resolve.Target {
	targets := make([]resolve.Target, 0, len(p.Targets))
	for _, t := range p.Targets {
		rt := resolve.Target{Name: t.Name, Platform: t.Platform}
		for _, req := range t.Dependencies {
			rt.Dependencies = append(rt.Dependencies, req.Name)
		}
		targets = append(targets, rt)
	}
	return targets
}
