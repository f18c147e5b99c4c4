package util

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var invalidFilenameChars = regexp.MustCompile(`[\\/:*?"<>|]`)

// SanitizeFilename strips characters invalid in filenames and trims whitespace.
// Falls back to "spectrogram" if the result is empty.
func SanitizeFilename(name string) string {
	name = invalidFilenameChars.ReplaceAllString(name, "")
	name = strings.TrimSpace(name)
	if name == "" {
		return "spectrogram"
	}
	return name
}

// WritePNG encodes img to path, replacing any existing file.
func WritePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	return f.Close()
}

// SavePNG writes img into dir under the sanitized title without overwriting
// existing files. Returns the destination path.
func SavePNG(dir, title string, img image.Image) (string, error) {
	base := SanitizeFilename(title)
	dest := filepath.Join(dir, base+".png")
	for i := 2; ; i++ {
		if _, err := os.Stat(dest); os.IsNotExist(err) {
			break
		}
		if i > 999 {
			return "", fmt.Errorf("too many exports named %q", base)
		}
		dest = filepath.Join(dir, fmt.Sprintf("%s (%d).png", base, i))
	}
	return dest, WritePNG(dest, img)
}
