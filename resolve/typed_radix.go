// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package resolve

import (
	"strings"

	"github.com/armon/go-radix"
)

// Typed wrapper around the radix tree holding the graph's vertices, so the
// rest of the package never type asserts. The solver owns the graph from a
// single goroutine, so unlike the source package's tries this one takes no
// lock.

type vertexTrie struct {
	t *radix.Tree
}

func newVertexTrie() *vertexTrie {
	return &vertexTrie{
		t: radix.New(),
	}
}

// Get is used to look up a specific key, returning the value and if it was found
func (t *vertexTrie) Get(name string) (*vertex, bool) {
	if v, has := t.t.Get(name); has {
		return v.(*vertex), has
	}
	return nil, false
}

// Insert is used to add a new entry or update an existing entry. Returns if updated.
func (t *vertexTrie) Insert(name string, v *vertex) (*vertex, bool) {
	if v2, had := t.t.Insert(name, v); had {
		return v2.(*vertex), had
	}
	return nil, false
}

// Delete is used to delete a key, returning the previous value and if it was deleted
func (t *vertexTrie) Delete(name string) (*vertex, bool) {
	if v, had := t.t.Delete(name); had {
		return v.(*vertex), had
	}
	return nil, false
}

// Len is used to return the number of elements in the tree
func (t *vertexTrie) Len() int {
	return t.t.Len()
}

// Walk visits every vertex in lexicographic name order until fn returns true.
func (t *vertexTrie) Walk(fn func(name string, v *vertex) bool) {
	t.t.Walk(func(name string, v interface{}) bool {
		return fn(name, v.(*vertex))
	})
}

// WalkPrefix is like Walk, restricted to names beginning with prefix. Note
// that the prefix match is literal; callers walking a root family must also
// apply isNamePrefixOrEqual.
func (t *vertexTrie) WalkPrefix(prefix string, fn func(name string, v *vertex) bool) {
	t.t.WalkPrefix(prefix, func(name string, v interface{}) bool {
		return fn(name, v.(*vertex))
	})
}

// isNamePrefixOrEqual is an additional helper check to ensure that the
// literal string prefix returned from a radix tree prefix match is also a
// subspec tree match.
//
// The radix tree gets it mostly right, but we have to guard against
// possibilities like this:
//
//	Alamofire
//	AlamofireImage/Core
//
// The latter would incorrectly be conflated with the former. As we know
// we're operating on pod names, guard against this case by verifying that
// either the input is the same length as the match (in which case we know
// they're equal), or that the next character is a "/". (Subspec paths are
// defined to always use "/".)
func isNamePrefixOrEqual(pre, name string) bool {
	prflen, namelen := len(pre), len(name)
	if namelen == prflen+1 {
		// this can never be the case
		return false
	}

	// we assume something else (a trie) has done equality check up to the
	// point of the prefix, so we just check len
	return prflen == namelen || strings.Index(name[prflen:], "/") == 0
}
