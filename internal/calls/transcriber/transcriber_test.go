package transcriber

import "testing"

func TestMimeTypeFor(t *testing.T) {
	tests := []struct {
		fileName string
		want     string
		wantErr  bool
	}{
		{"call.mp3", "audio/mp3", false},
		{"call.WAV", "audio/wav", false},
		{"voicemail.m4a", "audio/mp4", false},
		{"meeting.webm", "audio/webm", false},
		{"clip.oga", "audio/ogg", false},
		{"notes.txt", "", true},
		{"recording", "", true},
	}

	for _, tt := range tests {
		got, err := MimeTypeFor(tt.fileName)
		if (err != nil) != tt.wantErr {
			t.Errorf("MimeTypeFor(%q) error = %v, wantErr %v", tt.fileName, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("MimeTypeFor(%q) = %q, want %q", tt.fileName, got, tt.want)
		}
	}
}
