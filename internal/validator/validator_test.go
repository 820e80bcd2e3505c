package validator

import (
	"context"
	"strings"
	"testing"
)

type sample struct {
	Name  string  `json:"riderName" validate:"max=5"`
	Email *string `json:"email" validate:"omitempty,max=10"`
	Code  string  `json:"-" validate:"omitempty,len=2"`
}

func TestValidate(t *testing.T) {
	long := strings.Repeat("x", 11)
	tests := []struct {
		name string
		in   sample
		want string
	}{
		{"ok", sample{Name: "Tom"}, ""},
		{"empty", sample{}, ""},
		{"too long", sample{Name: "Thomas"}, "riderName too long"},
		{"optional too long", sample{Name: "Tom", Email: &long}, "email too long"},
		{"other tag", sample{Name: "Tom", Code: "abc"}, "Code invalid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(context.Background(), tt.in)
			if tt.want == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || err.Error() != tt.want {
				t.Fatalf("Validate() = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestValidateNonStruct(t *testing.T) {
	if err := Validate(context.Background(), "x"); err == nil {
		t.Error("Validate(string) = nil, want error")
	}
}
