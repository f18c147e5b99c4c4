// Package media recognises the audio files specview can analyse.
package media

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var audioExts = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".flac": true,
	".ogg":  true,
}

// IsSupportedExt returns true if the extension is a decodable audio format.
func IsSupportedExt(ext string) bool {
	return audioExts[strings.ToLower(ext)]
}

// SupportedExtsList returns a human-readable list of supported formats.
func SupportedExtsList() string {
	exts := make([]string, 0, len(audioExts))
	for ext := range audioExts {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return strings.Join(exts, ", ")
}

// CheckFile reports why path cannot be analysed, or nil when it can.
func CheckFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return &FormatError{Path: path, Reason: "is a directory"}
	}
	if ext := strings.ToLower(filepath.Ext(path)); !IsSupportedExt(ext) {
		return &FormatError{Path: path, Reason: "unsupported format " + ext + " (supported: " + SupportedExtsList() + ")"}
	}
	return nil
}

// FormatError describes a path that is not an analysable audio file.
type FormatError struct {
	Path   string
	Reason string
}

func (e *FormatError) Error() string {
	return e.Path + ": " + e.Reason
}
