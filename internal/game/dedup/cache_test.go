package dedup

import (
	"fmt"
	"sync"
	"testing"
)

func TestSeenMarksOnFirstCheck(t *testing.T) {
	cache := NewCache(10)

	if cache.Seen("req-1") {
		t.Fatal("first check must report unseen")
	}
	if !cache.Seen("req-1") {
		t.Fatal("second check must report seen")
	}
}

func TestForgetAllowsRetry(t *testing.T) {
	cache := NewCache(10)

	if cache.Seen("req-1") {
		t.Fatal("first check must report unseen")
	}
	cache.Forget("req-1")
	if cache.Seen("req-1") {
		t.Fatal("forgotten request must be retryable")
	}
	if cache.Len() != 1 {
		t.Fatalf("len = %d, want 1", cache.Len())
	}
}

func TestForgetUnknownIsNoop(t *testing.T) {
	cache := NewCache(10)
	cache.Forget("missing")
	if cache.Len() != 0 {
		t.Fatalf("len = %d, want 0", cache.Len())
	}
}

func TestEvictionDropsOldestHalf(t *testing.T) {
	cache := NewCache(4)
	for i := 0; i < 4; i++ {
		cache.Seen(fmt.Sprintf("req-%d", i))
	}

	// Fifth insert triggers bulk eviction of the oldest half.
	cache.Seen("req-4")

	if cache.Len() != 3 {
		t.Fatalf("len = %d, want 3", cache.Len())
	}
	if cache.Seen("req-0") {
		t.Fatal("req-0 should have been evicted")
	}
	if !cache.Seen("req-3") {
		t.Fatal("req-3 should survive eviction")
	}
	if !cache.Seen("req-4") {
		t.Fatal("req-4 should survive eviction")
	}
}

func TestSeenIsAtomicUnderConcurrency(t *testing.T) {
	cache := NewCache(100)

	const callers = 32
	var wg sync.WaitGroup
	results := make(chan bool, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- cache.Seen("same-request")
		}()
	}
	wg.Wait()
	close(results)

	unseen := 0
	for seen := range results {
		if !seen {
			unseen++
		}
	}
	if unseen != 1 {
		t.Fatalf("exactly one caller must observe unseen, got %d", unseen)
	}
}

func TestDefaultCapacityApplied(t *testing.T) {
	cache := NewCache(0)
	for i := 0; i < DefaultCapacity; i++ {
		cache.Seen(fmt.Sprintf("req-%d", i))
	}
	if cache.Len() != DefaultCapacity {
		t.Fatalf("len = %d, want %d", cache.Len(), DefaultCapacity)
	}
	cache.Seen("overflow")
	if cache.Len() >= DefaultCapacity {
		t.Fatalf("len = %d, expected bulk eviction below capacity", cache.Len())
	}
}
