package ring

// Snapshot is a private, self-consistent copy of a ring taken once per frame.
// The zero value is ready to be filled by Ring.SnapshotInto.
type Snapshot struct {
	Desc   Descriptor
	values []float32
	gen    uint64
	pushes uint64
}

// Sample returns the stored magnitude at a logical column and row.
// No bounds checking is performed.
func (s *Snapshot) Sample(logical, row int) float32 {
	p := s.Desc.LogicalToPhysical(logical)
	return s.values[p*s.Desc.Height+row]
}

// Pushes returns the producer push count this snapshot reflects.
func (s *Snapshot) Pushes() uint64 {
	return s.pushes
}

// Column returns the physical column backing a logical index.
func (s *Snapshot) Column(logical int) []float32 {
	p := s.Desc.LogicalToPhysical(logical)
	h := s.Desc.Height
	return s.values[p*h : (p+1)*h]
}
