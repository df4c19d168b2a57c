package service

import (
	"testing"

	"salesclutch/platform/apperr"
)

func TestNormalizePhone(t *testing.T) {
	strptr := func(s string) *string { return &s }

	tests := []struct {
		name    string
		input   *string
		want    *string
		wantErr bool
	}{
		{name: "nil passes through", input: nil, want: nil},
		{name: "blank drops to nil", input: strptr("   "), want: nil},
		{name: "us number normalized", input: strptr("(415) 555-2671"), want: strptr("+14155552671")},
		{name: "garbage is a validation error", input: strptr("call me maybe"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizePhone(tt.input)
			if tt.wantErr {
				if apperr.GetKind(err) != apperr.KindValidation {
					t.Fatalf("error kind = %v, want Validation", apperr.GetKind(err))
				}
				return
			}
			if err != nil {
				t.Fatalf("normalizePhone() error = %v", err)
			}
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("normalizePhone() = %q, want nil", *got)
			case tt.want != nil && (got == nil || *got != *tt.want):
				t.Errorf("normalizePhone() = %v, want %q", got, *tt.want)
			}
		})
	}
}
