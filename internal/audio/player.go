package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// Transport is the playback control surface shared by Player and Pump.
type Transport interface {
	TogglePause()
	Paused() bool
	Position() time.Duration
	Done() <-chan struct{}
	Close()
}

var (
	otoCtx     *oto.Context
	otoOnce    sync.Once
	otoInitErr error
	otoRate    int
	otoChans   int
)

// initOto creates the process-wide audio context. oto allows only one, so
// every later stream must share its format.
func initOto(rate, channels int) (*oto.Context, error) {
	otoOnce.Do(func() {
		var ready chan struct{}
		otoCtx, ready, otoInitErr = oto.NewContext(&oto.NewContextOptions{
			SampleRate:   rate,
			ChannelCount: channels,
			Format:       oto.FormatSignedInt16LE,
		})
		if otoInitErr == nil {
			<-ready
			otoRate, otoChans = rate, channels
		}
	})
	if otoInitErr != nil {
		return nil, otoInitErr
	}
	if rate != otoRate || channels != otoChans {
		return nil, fmt.Errorf("audio device opened at %d Hz/%dch, cannot play %d Hz/%dch", otoRate, otoChans, rate, channels)
	}
	return otoCtx, nil
}

// Player plays a decoder through the system audio device and copies what
// it plays into a Tap.
type Player struct {
	dec         Decoder
	tee         *teeReader
	out         *oto.Player
	bytesPerSec int64

	mu     sync.Mutex
	paused bool
	closed bool
	done   chan struct{}
}

// NewPlayer starts playing dec immediately.
func NewPlayer(dec Decoder, tap *Tap) (*Player, error) {
	ctx, err := initOto(dec.SampleRate(), dec.ChannelCount())
	if err != nil {
		return nil, fmt.Errorf("init audio output: %w", err)
	}

	p := &Player{
		dec:         dec,
		tee:         &teeReader{r: dec, tap: tap},
		bytesPerSec: int64(dec.SampleRate() * dec.ChannelCount() * 2),
		done:        make(chan struct{}),
	}
	p.out = ctx.NewPlayer(p.tee)
	p.out.Play()

	go p.monitor()
	return p, nil
}

func (p *Player) monitor() {
	for {
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return
		}
		finished := !p.paused && p.tee.EOF() && p.out.BufferedSize() == 0
		p.mu.Unlock()

		if finished {
			close(p.done)
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
}

// Done closes when playback reaches the end of the decoder.
func (p *Player) Done() <-chan struct{} {
	return p.done
}

// TogglePause pauses or resumes playback.
func (p *Player) TogglePause() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.paused {
		p.out.Play()
	} else {
		p.out.Pause()
	}
	p.paused = !p.paused
}

// Paused reports whether playback is paused.
func (p *Player) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

// Position returns how much audio has been handed to the device.
func (p *Player) Position() time.Duration {
	if p.bytesPerSec == 0 {
		return 0
	}
	secs := float64(p.tee.Pos()) / float64(p.bytesPerSec)
	return time.Duration(secs * float64(time.Second))
}

// Close stops playback.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true
	p.out.Pause()
	p.out.Close()
}
