package ring

import (
	"errors"
	"sync"
	"testing"
)

func column(h int, v float32) []float32 {
	c := make([]float32, h)
	for i := range c {
		c[i] = v
	}
	return c
}

func fill(t *testing.T, r *Ring, n int) {
	t.Helper()
	h := r.Descriptor().Height
	for i := 0; i < n; i++ {
		if err := r.Push(column(h, float32(i))); err != nil {
			t.Fatalf("push %d: %v", i, err)
		}
	}
}

func TestLogicalToPhysicalIsBijection(t *testing.T) {
	for _, capacity := range []int{1, 2, 3, 7, 8, 64, 100, 256} {
		for _, pushes := range []int{0, 1, capacity / 2, capacity, capacity + 1, 3*capacity + 5} {
			r := New(capacity, 1)
			fill(t, r, pushes)
			d := r.Descriptor()

			seen := make(map[int]bool, d.Count)
			for l, iterN := 0, d.Count; l < iterN; l++ {
				p := d.LogicalToPhysical(l)
				if p < 0 || p >= capacity {
					t.Fatalf("cap=%d pushes=%d: logical %d -> %d out of range", capacity, pushes, l, p)
				}
				if seen[p] {
					t.Fatalf("cap=%d pushes=%d: physical %d hit twice", capacity, pushes, p)
				}
				seen[p] = true
			}
			if len(seen) != d.Count {
				t.Fatalf("cap=%d pushes=%d: got %d slots, want %d", capacity, pushes, len(seen), d.Count)
			}
		}
	}
}

func TestPow2MaskMatchesModulus(t *testing.T) {
	for shift := 0; shift < 12; shift++ {
		capacity := 1 << shift
		masked := newDescriptor(capacity, 1)
		if !masked.Pow2 || masked.WrapMask != capacity-1 {
			t.Fatalf("cap=%d: expected pow2 descriptor, got %+v", capacity, masked)
		}
		plain := masked
		plain.Pow2 = false

		for i, iterN := 0, 4*capacity; i < iterN; i++ {
			if a, b := masked.Wrap(i), plain.Wrap(i); a != b {
				t.Fatalf("cap=%d i=%d: mask %d != mod %d", capacity, i, a, b)
			}
		}

		masked.Count = capacity
		plain.Count = capacity
		for latest := 0; latest < capacity; latest++ {
			masked.Latest, plain.Latest = latest, latest
			for l := 0; l < capacity; l++ {
				if a, b := masked.LogicalToPhysical(l), plain.LogicalToPhysical(l); a != b {
					t.Fatalf("cap=%d latest=%d l=%d: mask %d != mod %d", capacity, latest, l, a, b)
				}
			}
		}
	}
}

func TestPushPastCapacityRetainsNewest(t *testing.T) {
	for _, capacity := range []int{5, 16, 100} {
		n := capacity*2 + 3
		r := New(capacity, 4)
		fill(t, r, n)
		d := r.Descriptor()

		if d.Count != capacity {
			t.Fatalf("cap=%d: count=%d, want %d", capacity, d.Count, capacity)
		}
		if want := (n - 1) % capacity; d.Latest != want {
			t.Fatalf("cap=%d: latest=%d, want %d", capacity, d.Latest, want)
		}
		if got, want := r.Sample(0, 0), float32(n-capacity); got != want {
			t.Fatalf("cap=%d: logical 0 holds push %v, want %v", capacity, got, want)
		}
		if got, want := r.Sample(capacity-1, 3), float32(n-1); got != want {
			t.Fatalf("cap=%d: newest holds push %v, want %v", capacity, got, want)
		}
	}
}

func TestScenarioPow2Wrapped(t *testing.T) {
	d := newDescriptor(256, 64)
	d.Count = 256
	d.Latest = 10

	if got := d.LogicalToPhysical(0); got != 11 {
		t.Fatalf("logical 0 -> %d, want 11", got)
	}
	if got := d.LogicalToPhysical(255); got != 10 {
		t.Fatalf("logical 255 -> %d, want 10", got)
	}
}

func TestScenarioPartialIsIdentity(t *testing.T) {
	r := New(100, 8)
	fill(t, r, 50)
	d := r.Descriptor()

	if d.Pow2 {
		t.Fatal("capacity 100 must not use the mask path")
	}
	if d.Full() {
		t.Fatal("ring with 50 of 100 columns reported full")
	}
	for l := 0; l < 50; l++ {
		if p := d.LogicalToPhysical(l); p != l {
			t.Fatalf("logical %d -> %d, want identity", l, p)
		}
	}
}

func TestPushRejectsWrongLength(t *testing.T) {
	r := New(4, 3)
	if err := r.Push(make([]float32, 2)); !errors.Is(err, ErrColumnLength) {
		t.Fatalf("expected ErrColumnLength, got %v", err)
	}
	if d := r.Descriptor(); d.Count != 0 {
		t.Fatalf("rejected push changed count to %d", d.Count)
	}
}

func TestDegenerateRingsAcceptPushes(t *testing.T) {
	r := New(0, 4)
	if err := r.Push(make([]float32, 4)); err != nil {
		t.Fatalf("push into zero-capacity ring: %v", err)
	}
	if !r.Descriptor().Empty() {
		t.Fatal("zero-capacity ring should stay empty")
	}

	r = New(4, 0)
	if err := r.Push(nil); err != nil {
		t.Fatalf("push into zero-height ring: %v", err)
	}
	if !r.Descriptor().Empty() {
		t.Fatal("zero-height ring should stay empty")
	}
}

func TestSnapshotIncrementalMatchesFull(t *testing.T) {
	r := New(8, 3)
	var inc Snapshot

	for step := 0; step < 30; step++ {
		if err := r.Push(column(3, float32(step))); err != nil {
			t.Fatal(err)
		}
		if step%3 == 0 {
			continue
		}
		r.SnapshotInto(&inc)

		var full Snapshot
		r.SnapshotInto(&full)
		if inc.Desc != full.Desc {
			t.Fatalf("step %d: descriptor %+v != %+v", step, inc.Desc, full.Desc)
		}
		for l, iterN := 0, full.Desc.Count; l < iterN; l++ {
			for row := 0; row < 3; row++ {
				if a, b := inc.Sample(l, row), full.Sample(l, row); a != b {
					t.Fatalf("step %d l=%d row=%d: incremental %v != full %v", step, l, row, a, b)
				}
			}
		}
	}
}

func TestSnapshotRecopiesAfterResize(t *testing.T) {
	r := New(4, 2)
	fill(t, r, 3)
	var s Snapshot
	r.SnapshotInto(&s)

	r.Resize(4, 2)
	if err := r.Push([]float32{9, 9}); err != nil {
		t.Fatal(err)
	}
	r.SnapshotInto(&s)
	if s.Desc.Count != 1 {
		t.Fatalf("count after resize = %d, want 1", s.Desc.Count)
	}
	if got := s.Sample(0, 1); got != 9 {
		t.Fatalf("sample after resize = %v, want 9", got)
	}
}

func TestConcurrentPushAndSnapshotStayConsistent(t *testing.T) {
	const h = 16
	r := New(32, h)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 5000; i++ {
			_ = r.Push(column(h, float32(i)))
		}
	}()

	var s Snapshot
	for iterK := 0; iterK < 500; iterK++ {
		r.SnapshotInto(&s)
		d := s.Desc
		for l, iterN := 0, d.Count; l < iterN; l++ {
			col := s.Column(l)
			for row := 1; row < h; row++ {
				if col[row] != col[0] {
					t.Fatalf("torn column at logical %d: %v", l, col)
				}
			}
			if l > 0 && s.Column(l - 1)[0] >= col[0] {
				t.Fatalf("columns out of order at logical %d", l)
			}
		}
	}
	wg.Wait()
}
