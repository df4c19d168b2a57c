package storage

import (
	"path"
	"strings"
)

// audioExtensions are the recording formats the transcription backend
// accepts.
var audioExtensions = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".m4a":  true,
	".webm": true,
	".mp4":  true,
	".mpeg": true,
	".mpga": true,
	".oga":  true,
	".ogg":  true,
}

// textExtensions are transcript formats uploaded directly, skipping
// transcription.
var textExtensions = map[string]bool{
	".txt": true,
	".md":  true,
}

// IsAudioFile reports whether the file name carries a supported recording
// extension.
func IsAudioFile(fileName string) bool {
	return audioExtensions[normalizeExt(fileName)]
}

// IsTextFile reports whether the file name carries a supported transcript
// extension.
func IsTextFile(fileName string) bool {
	return textExtensions[normalizeExt(fileName)]
}

// IsAllowedExtension reports whether the file may be uploaded at all.
func IsAllowedExtension(fileName string) bool {
	ext := normalizeExt(fileName)
	return audioExtensions[ext] || textExtensions[ext]
}

// AllowedExtensions returns the full upload allowlist, audio first.
func AllowedExtensions() []string {
	out := make([]string, 0, len(audioExtensions)+len(textExtensions))
	for ext := range audioExtensions {
		out = append(out, ext)
	}
	for ext := range textExtensions {
		out = append(out, ext)
	}
	return out
}

func normalizeExt(fileName string) string {
	return strings.ToLower(path.Ext(fileName))
}
