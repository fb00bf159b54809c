// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package resolve

import (
	"fmt"
	"sort"

	"github.com/sinnerschrader-mobile/CocoaPods/pod"
)

// A Resolution is the outcome of a successful solve: for every target, the
// name-ordered list of specifications it consumes, plus some information
// about the run itself.
type Resolution struct {
	specs    map[string][]*pod.Specification
	attempts int
}

// Specifications returns the resolved specification list for a target,
// ordered by name. Nil for unknown targets.
func (r *Resolution) Specifications(target string) []*pod.Specification {
	return r.specs[target]
}

// Targets returns the resolved target names, sorted.
func (r *Resolution) Targets() []string {
	names := make([]string, 0, len(r.specs))
	for name := range r.specs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns every distinct resolved specification across all targets,
// ordered by name.
func (r *Resolution) All() []*pod.Specification {
	seen := make(map[string]bool)
	var all []*pod.Specification
	for _, specs := range r.specs {
		for _, spec := range specs {
			if !seen[spec.Name] {
				seen[spec.Name] = true
				all = append(all, spec)
			}
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all
}

// Attempts reports how many candidate assignments the search tried.
func (r *Resolution) Attempts() int {
	return r.attempts
}

// project materializes the per-target view of the consistent graph: the
// transitive successor closure of each target's declared dependencies,
// name-ordered, with the platform gate applied and head usage recorded
// against the sandbox (once per root).
func (s *Solver) project() (*Resolution, error) {
	res := &Resolution{
		specs:    make(map[string][]*pod.Specification, len(s.params.Targets)),
		attempts: s.attempts,
	}

	headSeen := make(map[string]bool)
	for _, t := range s.params.Targets {
		verts := s.graph.reachableFrom(t.Dependencies)
		specs := make([]*pod.Specification, 0, len(verts))
		for _, v := range verts {
			if v.spec == nil {
				return nil, &InvalidStateError{
					Op:     "project",
					Reason: fmt.Sprintf("vertex %s is reachable but has no specification", v.name),
				}
			}
			specs = append(specs, v.spec)
		}
		sort.Slice(specs, func(i, j int) bool { return specs[i].Name < specs[j].Name })

		for _, spec := range specs {
			if t.Platform.Name != "" && !spec.SupportsPlatform(t.Platform) {
				return nil, &PlatformError{Target: t.Name, TargetPlatform: t.Platform, Spec: spec}
			}
			if spec.Version.Head() && !headSeen[spec.Root()] {
				headSeen[spec.Root()] = true
				if s.params.Sandbox != nil {
					s.params.Sandbox.RecordHeadUsage(spec.Root())
				}
			}
		}
		res.specs[t.Name] = specs
	}
	return res, nil
}
