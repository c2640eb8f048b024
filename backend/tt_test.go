package main

import (
	"sync"
	"testing"
)

func mixKey(v uint64) uint64 {
	s := splitmix64{state: v}
	return s.next()
}

func TestTTConcurrentProbeStore(t *testing.T) {
	tt := NewTranspositionTable(1<<12, 2)
	var wg sync.WaitGroup

	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(seed uint64) {
			defer wg.Done()
			for i := 0; i < 4000; i++ {
				key := mixKey(seed ^ uint64(i))
				depth := (i % 8) + 1
				move := Move{X: i % 8, Y: (i / 8) % 8}
				tt.Store(key, 1, depth, float64(i), TTExact, move)
				tt.Probe(key, 1)
				tt.Probe(key^0x9e3779b97f4a7c15, 1)
			}
		}(uint64(g + 1))
	}

	wg.Wait()
	if tt.Count() == 0 {
		t.Fatalf("expected TT to contain entries after concurrent traffic")
	}
}

func TestTTModelGenerationMismatchMisses(t *testing.T) {
	tt := NewTranspositionTable(64, 2)
	key := mixKey(42)
	tt.Store(key, 1, 5, 12.0, TTExact, Move{X: 3, Y: 4})

	if _, ok := tt.Probe(key, 1); !ok {
		t.Fatalf("expected hit for matching model generation")
	}
	if _, ok := tt.Probe(key, 2); ok {
		t.Fatalf("expected miss for stale model generation")
	}
}

func TestTTStaleModelGenerationIsPreferredVictim(t *testing.T) {
	tt := NewTranspositionTable(1, 2)
	keyA := uint64(0) // all keys collide in a size-1 table
	keyB := uint64(1)
	keyC := uint64(2)
	tt.Store(keyA, 1, 9, 1.0, TTExact, Move{X: 0, Y: 0})
	tt.Store(keyB, 2, 9, 2.0, TTExact, Move{X: 1, Y: 1})

	tt.Store(keyC, 2, 3, 3.0, TTExact, Move{X: 2, Y: 2})
	if _, ok := tt.Probe(keyA, 1); ok {
		t.Fatalf("expected stale-generation entry to be evicted first")
	}
	if _, ok := tt.Probe(keyB, 2); !ok {
		t.Fatalf("expected current-generation entry to survive")
	}
	if _, ok := tt.Probe(keyC, 2); !ok {
		t.Fatalf("expected new entry to be stored")
	}
}

func TestTTGenerationWrapStaysNonZero(t *testing.T) {
	tt := NewTranspositionTable(16, 1)
	tt.gen.Store(^uint32(0))
	tt.NextGeneration()
	if got := tt.Generation(); got == 0 {
		t.Fatalf("generation must never be zero")
	}
}
