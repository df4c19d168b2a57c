package storage

import "testing"

func TestExtensionClassification(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		audio    bool
		text     bool
	}{
		{"mp3 recording", "sales-call.mp3", true, false},
		{"uppercase extension", "CALL.WAV", true, false},
		{"m4a recording", "voicemail.m4a", true, false},
		{"ogg recording", "call.ogg", true, false},
		{"plain transcript", "notes.txt", false, true},
		{"markdown transcript", "transcript.md", false, true},
		{"pdf rejected", "contract.pdf", false, false},
		{"no extension", "recording", false, false},
		{"double extension uses last", "call.mp3.exe", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAudioFile(tt.fileName); got != tt.audio {
				t.Errorf("IsAudioFile(%q) = %v, want %v", tt.fileName, got, tt.audio)
			}
			if got := IsTextFile(tt.fileName); got != tt.text {
				t.Errorf("IsTextFile(%q) = %v, want %v", tt.fileName, got, tt.text)
			}
			wantAllowed := tt.audio || tt.text
			if got := IsAllowedExtension(tt.fileName); got != wantAllowed {
				t.Errorf("IsAllowedExtension(%q) = %v, want %v", tt.fileName, got, wantAllowed)
			}
		})
	}
}
