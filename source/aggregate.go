// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package source

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/sinnerschrader-mobile/CocoaPods/pod"
)

// prefetchConcurrency bounds the fan-out of Aggregate.Prefetch.
const prefetchConcurrency = 4

// An Aggregate merges an ordered list of sources into one view. The first
// source to offer a given version of a pod wins; later sources only
// contribute versions the earlier ones lack. Merged results are memoized
// per root name, including misses, so repeated searches during a
// resolution never touch the underlying sources twice.
//
// An Aggregate is itself a Source, so aggregates nest.
type Aggregate struct {
	sources []Source

	// sets caches merged results per root; an empty set records a miss.
	sets *setTrie

	names    *nameTrie
	nameOnce sync.Once
	nameErr  error
}

// NewAggregate returns an aggregate over sources, queried in the given
// order.
func NewAggregate(sources ...Source) *Aggregate {
	return &Aggregate{
		sources: sources,
		sets:    newSetTrie(),
		names:   newNameTrie(),
	}
}

// Name implements Source.
func (a *Aggregate) Name() string {
	return "aggregate"
}

// Search implements Source over the union of all configured sources.
func (a *Aggregate) Search(root string) (*pod.Set, error) {
	if set, ok := a.sets.Get(root); ok {
		if set.Empty() {
			return nil, ErrNotFound
		}
		return set, nil
	}

	set, err := a.merge(root)
	if err != nil {
		return nil, err
	}
	a.sets.Insert(root, set)
	if set.Empty() {
		return nil, ErrNotFound
	}
	return set, nil
}

func (a *Aggregate) merge(root string) (*pod.Set, error) {
	merged := pod.NewSet(root)
	for _, src := range a.sources {
		set, err := src.Search(root)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, errors.Wrapf(err, "searching for %s in source %s", root, src.Name())
		}
		for _, spec := range set.Specifications() {
			if _, err := merged.Add(spec); err != nil {
				return nil, errors.Wrapf(err, "merging %s from source %s", root, src.Name())
			}
		}
	}
	return merged, nil
}

// Prefetch warms the cache for the given root names so that a following
// resolution performs no source I/O of its own. Names no source knows are
// recorded as misses, not reported as errors. Prefetch may be called
// concurrently with itself, but never with a running resolution.
func (a *Aggregate) Prefetch(ctx context.Context, roots []string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(prefetchConcurrency)
	for _, root := range roots {
		root := root
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if _, err := a.Search(root); err != nil && !errors.Is(err, ErrNotFound) {
				return err
			}
			return nil
		})
	}
	return g.Wait()
}

// SearchByPrefix returns, in lexicographic order, the names of all pods any
// source knows that begin with prefix. The empty prefix lists everything.
func (a *Aggregate) SearchByPrefix(prefix string) ([]string, error) {
	if err := a.buildNameIndex(); err != nil {
		return nil, err
	}
	var names []string
	a.names.WalkPrefix(prefix, func(name string) bool {
		names = append(names, name)
		return false
	})
	return names, nil
}

// Pods implements Source.
func (a *Aggregate) Pods() ([]string, error) {
	return a.SearchByPrefix("")
}

func (a *Aggregate) buildNameIndex() error {
	a.nameOnce.Do(func() {
		for _, src := range a.sources {
			pods, err := src.Pods()
			if err != nil {
				a.nameErr = errors.Wrapf(err, "listing source %s", src.Name())
				return
			}
			for _, name := range pods {
				a.names.Insert(name)
			}
		}
	})
	return a.nameErr
}
