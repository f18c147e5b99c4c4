package ring

import (
	"errors"
	"sync"
	"sync/atomic"
)

// ErrColumnLength is returned by Push when a column does not match the ring height.
var ErrColumnLength = errors.New("column length does not match ring height")

// Descriptor holds the addressing parameters of a ring at one instant.
type Descriptor struct {
	Capacity int
	Height   int
	WrapMask int
	Pow2     bool
	Latest   int // physical slot of the most recent column
	Count    int // valid columns, <= Capacity
}

func newDescriptor(capacity, height int) Descriptor {
	if capacity < 0 {
		capacity = 0
	}
	if height < 0 {
		height = 0
	}
	d := Descriptor{Capacity: capacity, Height: height}
	if capacity > 0 && capacity&(capacity-1) == 0 {
		d.Pow2 = true
		d.WrapMask = capacity - 1
	}
	if capacity > 0 {
		// first push lands in slot 0
		d.Latest = capacity - 1
	}
	return d
}

// Empty reports whether there is nothing to sample.
func (d Descriptor) Empty() bool {
	return d.Capacity <= 0 || d.Height <= 0 || d.Count <= 0
}

// Full reports whether the oldest column is being overwritten on every push.
func (d Descriptor) Full() bool {
	return d.Capacity > 0 && d.Count >= d.Capacity
}

// Wrap reduces a non-negative index into [0, Capacity).
func (d Descriptor) Wrap(i int) int {
	if d.Pow2 {
		return i & d.WrapMask
	}
	return i % d.Capacity
}

// Oldest returns the physical slot of logical column 0.
func (d Descriptor) Oldest() int {
	if !d.Full() {
		return 0
	}
	return d.Wrap(d.latest() + 1)
}

// LogicalToPhysical maps a logical column (0 = oldest retained) to its slot.
// The caller keeps logical within [0, Count).
func (d Descriptor) LogicalToPhysical(logical int) int {
	if !d.Full() {
		return logical
	}
	return d.Wrap(d.Oldest() + logical)
}

func (d Descriptor) latest() int {
	if d.Latest >= d.Capacity {
		return d.Capacity - 1
	}
	return d.Latest
}

// Ring is a fixed-capacity circular store of magnitude columns.
//
// A single producer appends with Push; any number of readers take
// consistent copies with SnapshotInto.
type Ring struct {
	mu     sync.RWMutex
	desc   Descriptor
	values []float32 // column-major: slot p is values[p*H:(p+1)*H]
	gen    uint64    // bumped by Resize so stale snapshots recopy
	pushes atomic.Uint64
}

// New creates a ring holding up to capacity columns of height bins each.
func New(capacity, height int) *Ring {
	r := &Ring{}
	r.reset(capacity, height)
	return r
}

func (r *Ring) reset(capacity, height int) {
	r.desc = newDescriptor(capacity, height)
	r.values = make([]float32, r.desc.Capacity*r.desc.Height)
	r.gen++
}

// Resize discards all history and reallocates the store.
func (r *Ring) Resize(capacity, height int) {
	r.mu.Lock()
	r.reset(capacity, height)
	r.mu.Unlock()
}

// Push appends a column, overwriting the oldest one once the ring is full.
func (r *Ring) Push(values []float32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d := &r.desc
	if len(values) != d.Height {
		return ErrColumnLength
	}
	if d.Capacity == 0 || d.Height == 0 {
		return nil
	}

	slot := d.Wrap(d.latest() + 1)
	copy(r.values[slot*d.Height:(slot+1)*d.Height], values)
	d.Latest = slot
	if d.Count < d.Capacity {
		d.Count++
	}
	r.pushes.Add(1)
	return nil
}

// Descriptor returns the current addressing state.
func (r *Ring) Descriptor() Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.desc
}

// Pushes returns the number of columns pushed since creation.
// It is safe to call without synchronisation.
func (r *Ring) Pushes() uint64 {
	return r.pushes.Load()
}

// Sample returns the value at a logical column and row.
// Both indices must already be clamped by the caller.
func (r *Ring) Sample(logical, row int) float32 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p := r.desc.LogicalToPhysical(logical)
	return r.values[p*r.desc.Height+row]
}

// SnapshotInto copies the ring into dst. Only the columns written since dst
// was last filled are copied when dst is recent enough.
func (r *Ring) SnapshotInto(dst *Snapshot) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d := r.desc
	pushes := r.pushes.Load()
	size := d.Capacity * d.Height

	full := dst.gen != r.gen || len(dst.values) != size || dst.Desc.Capacity != d.Capacity ||
		dst.Desc.Height != d.Height || pushes < dst.pushes || pushes-dst.pushes >= uint64(d.Capacity)

	if full {
		if cap(dst.values) >= size {
			dst.values = dst.values[:size]
		} else {
			dst.values = make([]float32, size)
		}
		copy(dst.values, r.values)
	} else {
		delta := int(pushes - dst.pushes)
		slot := d.latest()
		for iterK := 0; iterK < delta; iterK++ {
			lo := slot * d.Height
			copy(dst.values[lo:lo+d.Height], r.values[lo:lo+d.Height])
			slot = d.Wrap(slot + d.Capacity - 1)
		}
	}

	dst.Desc = d
	dst.gen = r.gen
	dst.pushes = pushes
}
