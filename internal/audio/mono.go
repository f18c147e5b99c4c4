package audio

import (
	"errors"
	"fmt"
	"io"
)

// ReadMono decodes the whole of dec into mono samples in [-1, 1).
func ReadMono(dec Decoder) ([]float64, error) {
	channels := max(dec.ChannelCount(), 1)
	frames := dec.Length() / int64(channels*2)
	if frames <= 0 {
		return nil, errors.New("source has no known length")
	}

	tap := NewTap(int(frames), channels)
	if _, err := io.Copy(tap, dec); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return tap.Latest(int(frames)), nil
}
