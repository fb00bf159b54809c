// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package source

import (
	"sync"

	"github.com/armon/go-radix"

	"github.com/sinnerschrader-mobile/CocoaPods/pod"
)

// Typed implementations of radix trees. These are just simple wrappers that
// let us avoid having to type assert anywhere else, cleaning up other code a
// bit.
//
// Only the operations the aggregate actually performs are implemented.

// setTrie maps root names to package sets. The aggregate's prefetch may hit
// it from several goroutines, so every operation takes the lock.
type setTrie struct {
	sync.RWMutex
	t *radix.Tree
}

func newSetTrie() *setTrie {
	return &setTrie{
		t: radix.New(),
	}
}

// Get is used to look up a specific key, returning the value and if it was found
func (t *setTrie) Get(s string) (*pod.Set, bool) {
	t.RLock()
	defer t.RUnlock()
	if set, has := t.t.Get(s); has {
		return set.(*pod.Set), has
	}
	return nil, false
}

// Insert is used to add a new entry or update an existing entry. Returns if updated.
func (t *setTrie) Insert(s string, set *pod.Set) (*pod.Set, bool) {
	t.Lock()
	defer t.Unlock()
	if s2, had := t.t.Insert(s, set); had {
		return s2.(*pod.Set), had
	}
	return nil, false
}

// Len is used to return the number of elements in the tree
func (t *setTrie) Len() int {
	t.RLock()
	defer t.RUnlock()
	return t.t.Len()
}

// nameTrie is a set of pod names supporting lexicographic prefix walks. It
// backs the aggregate's name search.
type nameTrie struct {
	sync.RWMutex
	t *radix.Tree
}

func newNameTrie() *nameTrie {
	return &nameTrie{
		t: radix.New(),
	}
}

// Insert adds a name to the set.
func (t *nameTrie) Insert(s string) {
	t.Lock()
	defer t.Unlock()
	t.t.Insert(s, struct{}{})
}

// Len is used to return the number of elements in the tree
func (t *nameTrie) Len() int {
	t.RLock()
	defer t.RUnlock()
	return t.t.Len()
}

// WalkPrefix visits, in lexicographic order, every stored name beginning
// with the given prefix, until fn returns true.
func (t *nameTrie) WalkPrefix(prefix string, fn func(name string) bool) {
	t.RLock()
	defer t.RUnlock()
	t.t.WalkPrefix(prefix, func(s string, _ interface{}) bool {
		return fn(s)
	})
}
