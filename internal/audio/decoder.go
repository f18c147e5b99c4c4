// Package audio decodes, plays and taps the audio that feeds the spectrogram.
package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"
)

// ErrUnsupported is returned for files whose extension has no decoder.
var ErrUnsupported = errors.New("unsupported audio format")

// Decoder yields interleaved signed 16-bit little-endian PCM.
type Decoder interface {
	io.ReadSeeker
	Length() int64 // total PCM bytes, 0 when endless
	SampleRate() int
	ChannelCount() int
}

// Duration returns the playing time of d, or 0 for endless sources.
func Duration(d Decoder) time.Duration {
	perSec := int64(d.SampleRate() * d.ChannelCount() * 2)
	if perSec == 0 {
		return 0
	}
	return time.Duration(float64(d.Length()) / float64(perSec) * float64(time.Second))
}

// File is a decoder reading from an open file.
type File struct {
	Decoder
	Path string
	f    *os.File
}

// Close releases the underlying file.
func (f *File) Close() error {
	return f.f.Close()
}

// Open picks a decoder for path by its extension.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	dec, err := NewDecoder(f, filepath.Ext(path))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	return &File{Decoder: dec, Path: path, f: f}, nil
}

// NewDecoder builds a decoder for a stream with the given file extension.
func NewDecoder(r io.ReadSeeker, ext string) (Decoder, error) {
	switch strings.ToLower(ext) {
	case ".mp3":
		return newMP3Decoder(r)
	case ".wav":
		return newWAVDecoder(r)
	case ".flac":
		return newFLACDecoder(r)
	case ".ogg":
		return newOGGDecoder(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}
}

// pcm tracks the output side shared by the converting decoders: bytes
// produced but not yet read, the output position and the stream shape.
type pcm struct {
	pending  []byte
	pos      int64
	total    int64
	rate     int
	channels int
}

func (s *pcm) Length() int64     { return s.total }
func (s *pcm) SampleRate() int   { return s.rate }
func (s *pcm) ChannelCount() int { return s.channels }

func (s *pcm) frameBytes() int64 { return int64(s.channels) * 2 }

// drain copies pending bytes into p.
func (s *pcm) drain(p []byte) int {
	n := copy(p, s.pending)
	s.pending = s.pending[n:]
	s.pos += int64(n)
	return n
}

// emit hands raw to the caller, keeping what does not fit for later reads.
func (s *pcm) emit(p, raw []byte) int {
	s.pending = raw
	return s.drain(p)
}

// target resolves a seek request to a frame-aligned output position.
func (s *pcm) target(offset int64, whence int) (int64, error) {
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = s.pos + offset
	case io.SeekEnd:
		pos = s.total + offset
	default:
		return s.pos, fmt.Errorf("invalid whence %d", whence)
	}
	pos = min(max(pos, 0), s.total)
	return pos - pos%s.frameBytes(), nil
}

func (s *pcm) moved(pos int64) int64 {
	s.pending = nil
	s.pos = pos
	return pos
}

func putSample(dst []byte, v int) {
	binary.LittleEndian.PutUint16(dst, uint16(int16(min(max(v, -32768), 32767))))
}

// --- mp3 ---

// go-mp3 already produces 16-bit stereo at 44.1kHz.
type mp3Decoder struct {
	*mp3.Decoder
}

func newMP3Decoder(r io.Reader) (*mp3Decoder, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("decoding MP3: %w", err)
	}
	return &mp3Decoder{Decoder: dec}, nil
}

func (d *mp3Decoder) ChannelCount() int { return 2 }

// --- wav ---

type wavDecoder struct {
	pcm
	r        io.ReadSeeker
	dataAt   int64
	srcBytes int // bytes per source sample
	scratch  []byte
}

func newWAVDecoder(r io.ReadSeeker) (*wavDecoder, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, errors.New("invalid WAV file")
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("reading WAV PCM data: %w", err)
	}

	depth := int(dec.BitDepth)
	switch depth {
	case 8, 16, 24, 32:
	default:
		return nil, fmt.Errorf("unsupported WAV bit depth %d", depth)
	}
	channels := int(dec.NumChans)
	if channels <= 0 {
		return nil, errors.New("WAV file has no channels")
	}

	dataAt, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("locating WAV PCM data: %w", err)
	}

	srcBytes := depth / 8
	frames := dec.PCMLen() / int64(srcBytes*channels)
	return &wavDecoder{
		pcm: pcm{
			total:    frames * int64(channels) * 2,
			rate:     int(dec.SampleRate),
			channels: channels,
		},
		r:        r,
		dataAt:   dataAt,
		srcBytes: srcBytes,
	}, nil
}

func (d *wavDecoder) Read(p []byte) (int, error) {
	if len(d.pending) > 0 {
		return d.drain(p), nil
	}
	remaining := (d.total - d.pos) / 2
	if remaining <= 0 {
		return 0, io.EOF
	}

	samples := min(max(len(p)/2, 1), int(remaining))
	need := samples * d.srcBytes
	if cap(d.scratch) < need {
		d.scratch = make([]byte, need)
	}
	src := d.scratch[:need]
	n, err := io.ReadFull(d.r, src)
	samples = n / d.srcBytes
	if samples == 0 {
		if err == nil || err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		return 0, err
	}

	raw := make([]byte, samples*2)
	for i := 0; i < samples; i++ {
		putSample(raw[i*2:], wavSample(src[i*d.srcBytes:], d.srcBytes))
	}
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}
	return d.emit(p, raw), err
}

// wavSample reads one little-endian sample and scales it to 16 bits.
func wavSample(b []byte, size int) int {
	switch size {
	case 1:
		return (int(b[0]) - 128) << 8
	case 2:
		return int(int16(binary.LittleEndian.Uint16(b)))
	case 3:
		v := int32(b[0]) | int32(b[1])<<8 | int32(int8(b[2]))<<16
		return int(v >> 8)
	default:
		return int(int32(binary.LittleEndian.Uint32(b)) >> 16)
	}
}

func (d *wavDecoder) Seek(offset int64, whence int) (int64, error) {
	pos, err := d.target(offset, whence)
	if err != nil {
		return d.pos, err
	}
	frame := pos / d.frameBytes()
	if _, err := d.r.Seek(d.dataAt+frame*int64(d.srcBytes*d.channels), io.SeekStart); err != nil {
		return d.pos, err
	}
	return d.moved(pos), nil
}

// --- flac ---

type flacDecoder struct {
	pcm
	stream *flac.Stream
	depth  int
}

func newFLACDecoder(r io.ReadSeeker) (*flacDecoder, error) {
	stream, err := flac.NewSeek(r)
	if err != nil {
		return nil, fmt.Errorf("decoding FLAC: %w", err)
	}
	info := stream.Info
	channels := int(info.NChannels)
	return &flacDecoder{
		pcm: pcm{
			total:    int64(info.NSamples) * int64(channels) * 2,
			rate:     int(info.SampleRate),
			channels: channels,
		},
		stream: stream,
		depth:  int(info.BitsPerSample),
	}, nil
}

func (d *flacDecoder) Read(p []byte) (int, error) {
	if len(d.pending) > 0 {
		return d.drain(p), nil
	}

	frame, err := d.stream.ParseNext()
	if err != nil {
		return 0, err
	}

	n := int(frame.Subframes[0].NSamples)
	raw := make([]byte, n*d.channels*2)
	shift := d.depth - 16
	for i := 0; i < n; i++ {
		for ch, iterN := 0, d.channels; ch < iterN; ch++ {
			v := int(frame.Subframes[ch].Samples[i])
			if shift > 0 {
				v >>= shift
			} else if shift < 0 {
				v <<= -shift
			}
			putSample(raw[(i*d.channels+ch)*2:], v)
		}
	}
	return d.emit(p, raw), nil
}

func (d *flacDecoder) Seek(offset int64, whence int) (int64, error) {
	pos, err := d.target(offset, whence)
	if err != nil {
		return d.pos, err
	}
	if _, err := d.stream.Seek(uint64(pos / d.frameBytes())); err != nil {
		return d.pos, err
	}
	return d.moved(pos), nil
}

// --- ogg vorbis ---

type oggDecoder struct {
	pcm
	reader  *oggvorbis.Reader
	scratch []float32
}

func newOGGDecoder(r io.Reader) (*oggDecoder, error) {
	reader, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("decoding OGG: %w", err)
	}
	channels := reader.Channels()
	return &oggDecoder{
		pcm: pcm{
			total:    reader.Length() * int64(channels) * 2,
			rate:     reader.SampleRate(),
			channels: channels,
		},
		reader: reader,
	}, nil
}

func (d *oggDecoder) Read(p []byte) (int, error) {
	if len(d.pending) > 0 {
		return d.drain(p), nil
	}

	want := max(len(p)/2, d.channels)
	if cap(d.scratch) < want {
		d.scratch = make([]float32, want)
	}
	samples := d.scratch[:want]
	n, err := d.reader.Read(samples)
	if n == 0 {
		if err == nil {
			err = io.EOF
		}
		return 0, err
	}

	raw := make([]byte, n*2)
	for i, s := range samples[:n] {
		putSample(raw[i*2:], int(s*32767))
	}
	return d.emit(p, raw), err
}

func (d *oggDecoder) Seek(offset int64, whence int) (int64, error) {
	pos, err := d.target(offset, whence)
	if err != nil {
		return d.pos, err
	}
	if err := d.reader.SetPosition(pos / d.frameBytes()); err != nil {
		return d.pos, err
	}
	return d.moved(pos), nil
}
