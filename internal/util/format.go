package util

import (
	"fmt"
	"math"
	"time"
)

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// FormatDuration formats a duration as m:ss, or h:mm:ss from one hour up.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Seconds())
	h := total / 3600
	m := total / 60 % 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// FormatFrequency formats hz as "440 Hz" or "12.5 kHz".
func FormatFrequency(hz float64) string {
	switch {
	case hz >= 10000:
		return fmt.Sprintf("%.1f kHz", hz/1000)
	case hz >= 1000:
		return fmt.Sprintf("%.2f kHz", hz/1000)
	default:
		return fmt.Sprintf("%.0f Hz", hz)
	}
}

// NoteName returns the nearest equal-tempered note for hz, such as "A4" for
// 440 Hz. ok is false for frequencies that have no note.
func NoteName(hz float64) (name string, ok bool) {
	if hz <= 0 || math.IsNaN(hz) || math.IsInf(hz, 0) {
		return "", false
	}
	midi := int(math.Round(69 + 12*math.Log2(hz/440)))
	idx := (midi%12 + 12) % 12
	octave := midi/12 - 1
	if midi < 0 && midi%12 != 0 {
		octave--
	}
	return fmt.Sprintf("%s%d", noteNames[idx], octave), true
}

// FormatPitch formats hz with its note name, e.g. "440 Hz A4".
func FormatPitch(hz float64) string {
	s := FormatFrequency(hz)
	if name, ok := NoteName(hz); ok {
		s += " " + name
	}
	return s
}
