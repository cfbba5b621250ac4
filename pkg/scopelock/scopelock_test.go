package scopelock

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireReleases(t *testing.T) {
	registry := NewRegistry()

	release := registry.Acquire("teacher|t1", "room|r1")
	release()

	done := make(chan struct{})
	go func() {
		release := registry.Acquire("teacher|t1")
		release()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock was not released")
	}
}

func TestAcquireDeduplicatesKeys(t *testing.T) {
	registry := NewRegistry()

	// A duplicate key must not self-deadlock on the second Lock.
	done := make(chan struct{})
	go func() {
		release := registry.Acquire("teacher|t1", "teacher|t1", "")
		release()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("duplicate keys deadlocked")
	}
}

func TestAcquireSerializesSameScope(t *testing.T) {
	registry := NewRegistry()

	var mu sync.Mutex
	inCritical := 0
	maxConcurrent := 0

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := registry.Acquire("teacher|t1", "room|r1")
			defer release()
			mu.Lock()
			inCritical++
			if inCritical > maxConcurrent {
				maxConcurrent = inCritical
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			inCritical--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxConcurrent)
}

func TestAcquireOverlappingScopesNoDeadlock(t *testing.T) {
	registry := NewRegistry()

	var wg sync.WaitGroup
	done := make(chan struct{})
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Opposite insertion orders of the same key pair.
			if i%2 == 0 {
				release := registry.Acquire("a", "b")
				release()
			} else {
				release := registry.Acquire("b", "a")
				release()
			}
		}(i)
	}
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("overlapping scopes deadlocked")
	}
}

func TestAcquireEmptyKeySet(t *testing.T) {
	registry := NewRegistry()
	release := registry.Acquire()
	require.NotNil(t, release)
	release()
}
