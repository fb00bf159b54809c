// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package resolve

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// Search trace, emitted at debug level. Each line carries one "| " per open
// search state so nesting depth is visible, plus a glyph: ✓ for an accepted
// step, ✗ for a rejection or conflict, ← for a backtrack.

const (
	traceAccept    = "✓"
	traceReject    = "✗"
	traceBacktrack = "←"
)

func (s *Solver) traceEnabled() bool {
	return s.log.IsLevelEnabled(logrus.DebugLevel)
}

func (s *Solver) trace(glyph, format string, args ...interface{}) {
	if !s.traceEnabled() {
		return
	}
	depth := strings.Repeat("| ", len(s.states))
	s.log.Debug(depth + glyph + " " + fmt.Sprintf(format, args...))
}

func (s *Solver) traceStart() {
	if !s.traceEnabled() {
		return
	}
	s.log.WithFields(logrus.Fields{
		"requirements": len(s.params.Requirements),
		"locked":       len(s.params.Locked),
		"targets":      len(s.params.Targets),
	}).Debug("starting resolution")
}

func (s *Solver) traceDone(res *Resolution) {
	if !s.traceEnabled() {
		return
	}
	s.log.WithFields(logrus.Fields{
		"attempts": res.Attempts(),
		"pods":     len(res.All()),
	}).Debug("resolution complete")
}
