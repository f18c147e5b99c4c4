package audio

import (
	"errors"
	"io"
	"sync"
	"time"
)

const pumpTick = 20 * time.Millisecond

// Pump drains a decoder into a Tap at real-time rate without an audio
// device. It stands in for Player when output is muted.
type Pump struct {
	tee         *teeReader
	bytesPerSec float64
	frame       int
	owed        float64 // bytes due but not yet read
	buf         []byte

	mu     sync.Mutex
	paused bool
	closed bool
	done   chan struct{}
	stop   chan struct{}
}

// NewPump starts pumping dec into tap.
func NewPump(dec Decoder, tap *Tap) *Pump {
	p := newPump(dec, tap)
	go p.run()
	return p
}

func newPump(dec Decoder, tap *Tap) *Pump {
	return &Pump{
		tee:         &teeReader{r: dec, tap: tap},
		bytesPerSec: float64(dec.SampleRate() * dec.ChannelCount() * 2),
		frame:       max(dec.ChannelCount()*2, 1),
		done:        make(chan struct{}),
		stop:        make(chan struct{}),
	}
}

func (p *Pump) run() {
	ticker := time.NewTicker(pumpTick)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-p.stop:
			return
		case now := <-ticker.C:
			elapsed := now.Sub(last)
			last = now
			if p.Paused() {
				continue
			}
			if p.advance(elapsed) {
				close(p.done)
				return
			}
		}
	}
}

// advance reads the audio due after elapsed and reports whether the decoder
// is exhausted.
func (p *Pump) advance(elapsed time.Duration) bool {
	p.owed += elapsed.Seconds() * p.bytesPerSec
	n := int(p.owed) / p.frame * p.frame
	if n == 0 {
		return false
	}
	p.owed -= float64(n)

	if cap(p.buf) < n {
		p.buf = make([]byte, n)
	}
	_, err := io.ReadFull(p.tee, p.buf[:n])
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

// Done closes when the decoder is exhausted.
func (p *Pump) Done() <-chan struct{} {
	return p.done
}

// TogglePause stops or resumes pumping.
func (p *Pump) TogglePause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = !p.paused
}

// Paused reports whether pumping is paused.
func (p *Pump) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

// Position returns how much audio has been pumped.
func (p *Pump) Position() time.Duration {
	if p.bytesPerSec == 0 {
		return 0
	}
	return time.Duration(float64(p.tee.Pos()) / p.bytesPerSec * float64(time.Second))
}

// Close stops the pump goroutine.
func (p *Pump) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.stop)
}
