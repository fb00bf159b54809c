// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package source

import (
	"time"

	"github.com/boltdb/bolt"
	"github.com/pkg/errors"

	"github.com/sinnerschrader-mobile/CocoaPods/pod"
)

// Bolt is a persistent pod index backed by a bolt database file. Each root
// name owns a bucket whose keys are version strings and whose values are
// podspec documents. It serves as the local cache of a spec repo between
// runs.
type Bolt struct {
	name string
	db   *bolt.DB
}

// OpenBolt opens (creating if absent) the index database at path. The open
// times out rather than blocking indefinitely on another process's file
// lock.
func OpenBolt(name, path string) (*Bolt, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "opening index %s", path)
	}
	return &Bolt{name: name, db: db}, nil
}

// Close releases the database file.
func (b *Bolt) Close() error {
	return b.db.Close()
}

// Name implements Source.
func (b *Bolt) Name() string {
	return b.name
}

// Store writes the podspec document for one root specification, replacing
// any previous document for the same version.
func (b *Bolt) Store(spec *pod.Specification) error {
	data, err := MarshalPodspec(spec)
	if err != nil {
		return err
	}
	err = b.db.Update(func(tx *bolt.Tx) error {
		bkt, err := tx.CreateBucketIfNotExists([]byte(spec.Name))
		if err != nil {
			return err
		}
		return bkt.Put([]byte(spec.Version.String()), data)
	})
	return errors.Wrapf(err, "storing %s in index %s", spec, b.name)
}

// Search implements Source.
func (b *Bolt) Search(root string) (*pod.Set, error) {
	set := pod.NewSet(root)
	err := b.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(root))
		if bkt == nil {
			return ErrNotFound
		}
		return bkt.ForEach(func(k, v []byte) error {
			spec, err := ParsePodspec(v)
			if err != nil {
				return errors.Wrapf(err, "index %s, entry %s %s", b.name, root, k)
			}
			if spec.Name != root {
				return errors.Errorf("index %s: entry %s %s holds a podspec for %s", b.name, root, k, spec.Name)
			}
			_, err = set.Add(spec)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return set, nil
}

// Pods implements Source.
func (b *Bolt) Pods() ([]string, error) {
	var names []string
	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bolt.Bucket) error {
			names = append(names, string(name))
			return nil
		})
	})
	if err != nil {
		return nil, errors.Wrapf(err, "listing index %s", b.name)
	}
	return names, nil
}
