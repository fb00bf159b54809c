// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package resolve

import (
	"time"

	"github.com/sirupsen/logrus"
)

// metrics tracks wall-clock time per solve phase.
type metrics struct {
	stack []string
	times map[string]time.Duration
	last  time.Time
}

func newMetrics() *metrics {
	return &metrics{
		stack: []string{"other"},
		times: map[string]time.Duration{
			"other": 0,
		},
		last: time.Now(),
	}
}

func (m *metrics) push(name string) {
	cn := m.stack[len(m.stack)-1]
	m.times[cn] += time.Since(m.last)

	m.stack = append(m.stack, name)
	m.last = time.Now()
}

func (m *metrics) pop() {
	on := m.stack[len(m.stack)-1]
	m.times[on] += time.Since(m.last)

	m.stack = m.stack[:len(m.stack)-1]
	m.last = time.Now()
}

// report closes the books and logs the per-phase accounting.
func (m *metrics) report(log *logrus.Logger) {
	on := m.stack[len(m.stack)-1]
	m.times[on] += time.Since(m.last)
	m.last = time.Now()

	if log == nil || !log.IsLevelEnabled(logrus.DebugLevel) {
		return
	}
	fields := make(logrus.Fields, len(m.times)+1)
	var total time.Duration
	for name, dur := range m.times {
		fields[name] = dur.String()
		total += dur
	}
	fields["total"] = total.String()
	log.WithFields(fields).Debug("solve phase timings")
}
