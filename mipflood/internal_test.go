package mipflood

import (
	"sort"
	"sync"
	"testing"
)

func TestChannelSet(t *testing.T) {
	all := newChannelSet(0, 4)
	if got := all.active(); len(got) != 4 {
		t.Fatalf("newChannelSet(0, 4): got %d active channels, want 4", len(got))
	}
	for i := 0; i < 4; i++ {
		if !all.has(i) {
			t.Fatalf("newChannelSet(0, 4): has(%d) = false, want true", i)
		}
	}
	if all.has(4) {
		t.Fatalf("newChannelSet(0, 4): has(4) = true, want false")
	}

	sub := newChannelSet(0b0101, 4)
	if got := sub.active(); len(got) != 2 || got[0] != 0 || got[1] != 2 {
		t.Fatalf("newChannelSet(0b0101, 4): active = %v, want [0 2]", got)
	}
	if sub.has(1) || sub.has(3) {
		t.Fatalf("newChannelSet(0b0101, 4): inactive channel reported active")
	}

	// Bits beyond the stride are ignored.
	beyond := newChannelSet(0b1000, 3)
	if got := beyond.active(); len(got) != 0 {
		t.Fatalf("newChannelSet(0b1000, 3): active = %v, want []", got)
	}

	bools := newChannelSetFromBools([]bool{false, true, false, true})
	if got := bools.active(); len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Fatalf("newChannelSetFromBools: active = %v, want [1 3]", got)
	}
}

func TestThreadCount(t *testing.T) {
	// 64x64x4 floats is 64 KiB, giving 16 threads under the 4 KiB rule.
	if got := threadCount(64, 64, 4, 255); got != 16 {
		t.Fatalf("threadCount(64, 64, 4): got %d want 16", got)
	}
	// 8x8x4 floats is 1 KiB, below the alignment unit: single threaded.
	if got := threadCount(8, 8, 4, 255); got != 1 {
		t.Fatalf("threadCount(8, 8, 4): got %d want 1", got)
	}
	// The caller cap wins over the data-based count.
	if got := threadCount(1024, 1024, 4, 2); got != 2 {
		t.Fatalf("threadCount(cap 2): got %d want 2", got)
	}
	// Never below 1, regardless of inputs.
	if got := threadCount(1, 1, 1, 1); got != 1 {
		t.Fatalf("threadCount(tiny): got %d want 1", got)
	}
	// maxThreads 0 resolves against the hardware; only the invariant holds.
	if got := threadCount(4096, 4096, 4, 0); got < 1 {
		t.Fatalf("threadCount(auto): got %d want >= 1", got)
	}
}

func TestRunRows_BandPartition(t *testing.T) {
	type band struct{ start, end int }

	var mu sync.Mutex
	var bands []band
	// Large rows force the data-based count above the cap of 4.
	runRows(1024, 10, 4, 4, func(start, end int) {
		mu.Lock()
		bands = append(bands, band{start, end})
		mu.Unlock()
	})

	if len(bands) != 4 {
		t.Fatalf("band count: got %d want 4", len(bands))
	}
	sort.Slice(bands, func(i, j int) bool { return bands[i].start < bands[j].start })

	want := []band{{0, 2}, {2, 4}, {4, 6}, {6, 10}}
	for i, b := range bands {
		if b != want[i] {
			t.Fatalf("band %d: got [%d,%d) want [%d,%d)", i, b.start, b.end, want[i].start, want[i].end)
		}
	}
}

func TestRunRows_SingleThreadInline(t *testing.T) {
	var calls [][2]int
	runRows(1024, 7, 4, 1, func(start, end int) {
		calls = append(calls, [2]int{start, end})
	})
	if len(calls) != 1 || calls[0] != [2]int{0, 7} {
		t.Fatalf("single-thread bands: got %v want [[0 7]]", calls)
	}
}

func TestTypeFactor(t *testing.T) {
	if got := typeFactor[uint8](); got != 255 {
		t.Fatalf("typeFactor[uint8]: got %g want 255", got)
	}
	if got := typeFactor[uint16](); got != 65535 {
		t.Fatalf("typeFactor[uint16]: got %g want 65535", got)
	}
	if got := typeFactor[float32](); got != 1 {
		t.Fatalf("typeFactor[float32]: got %g want 1", got)
	}
	if got := roundBias[uint8](); got != 0.5 {
		t.Fatalf("roundBias[uint8]: got %g want 0.5", got)
	}
	if got := roundBias[float32](); got != 0 {
		t.Fatalf("roundBias[float32]: got %g want 0", got)
	}
}
