package phone

import "testing"

func TestNormalizeE164(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "us number with punctuation", input: "(415) 555-2671", want: "+14155552671"},
		{name: "already e164", input: "+14155552671", want: "+14155552671"},
		{name: "international", input: "+44 20 7946 0958", want: "+442079460958"},
		{name: "surrounding whitespace", input: "  415-555-2671  ", want: "+14155552671"},
		{name: "empty is passthrough", input: "   ", want: ""},
		{name: "unparseable", input: "not a phone", wantErr: true},
		{name: "too short to be valid", input: "555", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeE164(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("NormalizeE164(%q) = %q, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeE164(%q) returned error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Fatalf("NormalizeE164(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
