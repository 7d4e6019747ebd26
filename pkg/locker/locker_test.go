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
 */

package locker

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockerLock(t *testing.T) {
	l := New[string]()
	l.Lock("doc")
	ctr := l.locks["doc"]
	assert.Equal(t, int32(0), ctr.waiters.Load())

	chDone := make(chan struct{})
	go func() {
		l.Lock("doc")
		close(chDone)
	}()

	assert.Eventually(t, func() bool {
		return ctr.waiters.Load() == 1
	}, 3*time.Second, time.Millisecond)

	select {
	case <-chDone:
		t.Fatal("lock should not have returned while it was still held")
	default:
	}

	require.NoError(t, l.Unlock("doc"))

	select {
	case <-chDone:
	case <-time.After(3 * time.Second):
		t.Fatal("lock should have completed")
	}
	assert.Equal(t, int32(0), ctr.waiters.Load())
}

func TestLockerUnlock(t *testing.T) {
	l := New[string]()

	l.Lock("doc")
	require.NoError(t, l.Unlock("doc"))
	assert.ErrorIs(t, l.Unlock("doc"), ErrNoSuchLock)
	assert.Equal(t, 0, l.Len())

	chDone := make(chan struct{})
	go func() {
		l.Lock("doc")
		close(chDone)
	}()

	select {
	case <-chDone:
	case <-time.After(3 * time.Second):
		t.Fatalf("lock should not be blocked")
	}
	require.NoError(t, l.Unlock("doc"))
}

func TestLockerTryLock(t *testing.T) {
	l := New[string]()

	assert.True(t, l.TryLock("doc"))
	assert.False(t, l.TryLock("doc"))
	require.NoError(t, l.Unlock("doc"))
	assert.Equal(t, 0, l.Len())
	assert.True(t, l.TryLock("doc"))
	require.NoError(t, l.Unlock("doc"))
}

func TestLockerLockAll(t *testing.T) {
	l := New[string]()

	var wg sync.WaitGroup
	counter := map[string]int{}
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			keys := []string{"a", "b", "c"}
			if i%2 == 0 {
				keys = []string{"c", "b", "a", "a"}
			}
			unlock := l.LockAll(keys...)
			defer unlock()
			counter["a"]++
			counter["c"]++
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, counter["a"])
	assert.Equal(t, 50, counter["c"])
	assert.Equal(t, 0, l.Len())
}

func TestLockerConcurrency(t *testing.T) {
	l := New[string]()

	var wg sync.WaitGroup
	count := 0
	for i := 0; i < 1000; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Lock("doc")
			count++
			assert.NoError(t, l.Unlock("doc"))
		}()
	}
	wg.Wait()

	assert.Equal(t, 1000, count)
	assert.Equal(t, 0, l.Len())
}
