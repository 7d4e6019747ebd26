/*
 * Copyright 2026 The DocVault Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 * This file was written with reference to moby/locker.
 *   https://github.com/moby/locker
 */

/*
Package locker provides keyed mutexes. Writers of the same document share one
mutex while writers of different documents never contend.

A mutex for a key is created on first use and dropped on Unlock once nobody
waits for it, so the table only holds keys that are currently in use.
*/
package locker

import (
	"cmp"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/docvault/docvault/pkg/errors"
)

// ErrNoSuchLock is returned when unlocking a key that is not locked.
var ErrNoSuchLock = errors.Internal("no such lock").WithCode("ErrNoSuchLock")

// Locker holds one mutex per key.
type Locker[K cmp.Ordered] struct {
	mu    sync.Mutex
	locks map[K]*lockCtr
}

type lockCtr struct {
	mu sync.Mutex

	// waiters is the number of callers blocked on mu.
	waiters atomic.Int32
}

// New creates a new Locker.
func New[K cmp.Ordered]() *Locker[K] {
	return &Locker[K]{
		locks: make(map[K]*lockCtr),
	}
}

// acquire returns the counter of key with its waiters incremented. The
// increment happens under the table mutex so that a concurrent Unlock does not
// drop the counter while we are about to wait on it.
func (l *Locker[K]) acquire(key K) *lockCtr {
	l.mu.Lock()
	defer l.mu.Unlock()

	ctr, ok := l.locks[key]
	if !ok {
		ctr = &lockCtr{}
		l.locks[key] = ctr
	}
	ctr.waiters.Add(1)
	return ctr
}

// Lock locks the mutex of the given key.
func (l *Locker[K]) Lock(key K) {
	ctr := l.acquire(key)
	ctr.mu.Lock()
	ctr.waiters.Add(-1)
}

// TryLock locks the mutex of the given key if it is free. A failed attempt
// leaves the counter to the current holder, whose Unlock drops it.
func (l *Locker[K]) TryLock(key K) bool {
	ctr := l.acquire(key)
	ok := ctr.mu.TryLock()
	ctr.waiters.Add(-1)
	return ok
}

// Unlock unlocks the mutex of the given key.
func (l *Locker[K]) Unlock(key K) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	ctr, ok := l.locks[key]
	if !ok {
		return ErrNoSuchLock
	}

	if ctr.waiters.Load() == 0 {
		delete(l.locks, key)
	}
	ctr.mu.Unlock()
	return nil
}

// LockAll locks the mutexes of all given keys in ascending key order, so that
// two callers locking overlapping sets never deadlock. Duplicate keys are
// locked once. It returns a function that unlocks them all.
func (l *Locker[K]) LockAll(keys ...K) func() {
	sorted := slices.Clone(keys)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	for _, key := range sorted {
		l.Lock(key)
	}

	return func() {
		for i := len(sorted) - 1; i >= 0; i-- {
			_ = l.Unlock(sorted[i])
		}
	}
}

// Len returns the number of keys currently held or waited on.
func (l *Locker[K]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
