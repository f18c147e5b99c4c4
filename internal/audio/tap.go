package audio

import (
	"encoding/binary"
	"io"
	"sync"
)

// Tap keeps the most recent mono samples of a PCM stream. It implements
// analysis.SampleSource.
type Tap struct {
	mu       sync.Mutex
	buf      []float64
	written  uint64 // mono samples ever written
	channels int
	partial  []byte // trailing bytes of an incomplete frame
}

// NewTap creates a tap retaining size mono samples of a stream with the
// given channel count.
func NewTap(size, channels int) *Tap {
	return &Tap{
		buf:      make([]float64, max(size, 1)),
		channels: max(channels, 1),
	}
}

// Write downmixes interleaved s16le frames into the tap. It never fails.
func (t *Tap) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	frame := t.channels * 2
	data := p
	if len(t.partial) > 0 {
		data = append(t.partial, p...)
		t.partial = nil
	}

	size := uint64(len(t.buf))
	n := len(data) / frame
	for i := 0; i < n; i++ {
		var sum int
		for ch, iterN := 0, t.channels; ch < iterN; ch++ {
			off := i*frame + ch*2
			sum += int(int16(binary.LittleEndian.Uint16(data[off:])))
		}
		t.buf[t.written%size] = float64(sum) / float64(t.channels) / 32768
		t.written++
	}
	if rest := data[n*frame:]; len(rest) > 0 {
		t.partial = append([]byte(nil), rest...)
	}
	return len(p), nil
}

// Written returns the number of mono samples written so far.
func (t *Tap) Written() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.written
}

// Window fills dst with the samples ending at absolute position end, zero
// padding before the stream start. It reports false when the window has
// already been overwritten or has not been written yet.
func (t *Tap) Window(end uint64, dst []float64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	size := uint64(len(t.buf))
	n := uint64(len(dst))
	if end > t.written || n > size {
		return false
	}
	if t.written > size && int64(end)-int64(n) < int64(t.written-size) {
		return false
	}
	for i := range dst {
		pos := int64(end) - int64(n) + int64(i)
		if pos < 0 {
			dst[i] = 0
			continue
		}
		dst[i] = t.buf[uint64(pos)%size]
	}
	return true
}

// Latest returns up to n of the newest samples in chronological order.
func (t *Tap) Latest(n int) []float64 {
	t.mu.Lock()
	w := t.written
	t.mu.Unlock()

	n = int(min(uint64(max(n, 0)), w, uint64(len(t.buf))))
	out := make([]float64, n)
	if n > 0 && !t.Window(w, out) {
		return nil
	}
	return out
}

// teeReader copies everything read from r into a tap and counts bytes.
type teeReader struct {
	r   io.Reader
	tap *Tap

	mu  sync.Mutex
	pos int64
	eof bool
}

func (tr *teeReader) Read(p []byte) (int, error) {
	n, err := tr.r.Read(p)
	if n > 0 {
		tr.tap.Write(p[:n])
	}
	tr.mu.Lock()
	tr.pos += int64(n)
	if err == io.EOF {
		tr.eof = true
	}
	tr.mu.Unlock()
	return n, err
}

func (tr *teeReader) Pos() int64 {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return tr.pos
}

func (tr *teeReader) EOF() bool {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return tr.eof
}
